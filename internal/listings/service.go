package listings

import (
	"context"
	"errors"
	"strings"

	"github.com/cbieks/authentix/pkg/db/models"
	"github.com/cbieks/authentix/pkg/enums"
	pkgerrors "github.com/cbieks/authentix/pkg/errors"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CreateInput captures the fields a seller provides for a new listing.
type CreateInput struct {
	CategoryID  uuid.UUID
	Title       string
	Description string
	Brand       *string
	Size        *string
	Condition   *string
	Price       decimal.Decimal
	Images      []string
	Publish     bool
}

// UpdateInput captures the mutable listing fields. Nil pointers leave the
// current value untouched.
type UpdateInput struct {
	CategoryID  *uuid.UUID
	Title       *string
	Description *string
	Brand       *string
	Size        *string
	Condition   *string
	Price       *decimal.Decimal
	Images      []string
}

// Service exposes listing management for sellers plus the public browse surface.
type Service interface {
	Create(ctx context.Context, sellerID uuid.UUID, input CreateInput) (*models.Listing, error)
	Update(ctx context.Context, sellerID, listingID uuid.UUID, input UpdateInput) (*models.Listing, error)
	SetStatus(ctx context.Context, sellerID, listingID uuid.UUID, status enums.ListingStatus) (*models.Listing, error)
	Get(ctx context.Context, listingID uuid.UUID) (*models.Listing, error)
	Browse(ctx context.Context, filters BrowseFilters) ([]models.Listing, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Listing, error)
	RequestVerification(ctx context.Context, sellerID, listingID uuid.UUID) (*models.Listing, error)
	ListPendingVerification(ctx context.Context, limit, offset int) ([]models.Listing, error)
	SetVerification(ctx context.Context, listingID uuid.UUID, status enums.VerificationStatus) (*models.Listing, error)
}

// ServiceParams groups dependencies for the listing service.
type ServiceParams struct {
	Repo Repository
}

type service struct {
	repo Repository
}

// NewService builds a listing service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "listings repo required")
	}
	return &service{repo: params.Repo}, nil
}

func (s *service) Create(ctx context.Context, sellerID uuid.UUID, input CreateInput) (*models.Listing, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if strings.TrimSpace(input.Description) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "description is required")
	}
	if input.CategoryID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category id is required")
	}
	if input.Price.IsNegative() || input.Price.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}

	status := enums.ListingStatusDraft
	if input.Publish {
		status = enums.ListingStatusActive
	}

	listing := &models.Listing{
		SellerID:     sellerID,
		CategoryID:   input.CategoryID,
		Title:        strings.TrimSpace(input.Title),
		Description:  strings.TrimSpace(input.Description),
		Brand:        input.Brand,
		Size:         input.Size,
		Condition:    input.Condition,
		Price:        input.Price,
		Images:       pq.StringArray(input.Images),
		Status:       status,
		Verification: enums.VerificationStatusUnverified,
	}
	created, err := s.repo.Create(ctx, listing)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create listing")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, sellerID, listingID uuid.UUID, input UpdateInput) (*models.Listing, error) {
	listing, err := s.loadOwned(ctx, sellerID, listingID)
	if err != nil {
		return nil, err
	}
	if listing.Status == enums.ListingStatusSold {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "sold listings cannot be edited")
	}

	updates := map[string]any{}
	if input.CategoryID != nil {
		if *input.CategoryID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "category id is required")
		}
		updates["category_id"] = *input.CategoryID
	}
	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
		}
		updates["title"] = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		if strings.TrimSpace(*input.Description) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "description is required")
		}
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Brand != nil {
		updates["brand"] = *input.Brand
	}
	if input.Size != nil {
		updates["size"] = *input.Size
	}
	if input.Condition != nil {
		updates["condition"] = *input.Condition
	}
	if input.Price != nil {
		if input.Price.IsNegative() || input.Price.IsZero() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		updates["price"] = *input.Price
	}
	if input.Images != nil {
		updates["images"] = pq.StringArray(input.Images)
	}

	if len(updates) == 0 {
		return listing, nil
	}

	if err := s.repo.Update(ctx, listing.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update listing")
	}
	return s.Get(ctx, listing.ID)
}

func (s *service) SetStatus(ctx context.Context, sellerID, listingID uuid.UUID, status enums.ListingStatus) (*models.Listing, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid listing status")
	}
	if status == enums.ListingStatusSold {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sold status is set by settlement only")
	}

	listing, err := s.loadOwned(ctx, sellerID, listingID)
	if err != nil {
		return nil, err
	}
	if listing.Status == enums.ListingStatusSold {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "sold listings cannot change status")
	}
	if listing.Status == status {
		return listing, nil
	}

	if err := s.repo.UpdateStatus(ctx, listing.ID, status); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update listing status")
	}
	listing.Status = status
	return listing, nil
}

func (s *service) Get(ctx context.Context, listingID uuid.UUID) (*models.Listing, error) {
	if listingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id is required")
	}
	listing, err := s.repo.FindByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
	}
	return listing, nil
}

func (s *service) Browse(ctx context.Context, filters BrowseFilters) ([]models.Listing, error) {
	results, err := s.repo.Browse(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "browse listings")
	}
	return results, nil
}

func (s *service) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Listing, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	results, err := s.repo.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list seller listings")
	}
	return results, nil
}

// RequestVerification moves an unverified or rejected listing into the
// review queue. Verified listings stay verified and pending requests are
// idempotent.
func (s *service) RequestVerification(ctx context.Context, sellerID, listingID uuid.UUID) (*models.Listing, error) {
	listing, err := s.loadOwned(ctx, sellerID, listingID)
	if err != nil {
		return nil, err
	}

	switch listing.Verification {
	case enums.VerificationStatusPending:
		return listing, nil
	case enums.VerificationStatusVerified:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "listing is already verified")
	}

	if err := s.repo.UpdateVerification(ctx, listing.ID, enums.VerificationStatusPending); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "request verification")
	}
	listing.Verification = enums.VerificationStatusPending
	return listing, nil
}

func (s *service) ListPendingVerification(ctx context.Context, limit, offset int) ([]models.Listing, error) {
	results, err := s.repo.ListByVerification(ctx, enums.VerificationStatusPending, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending verification")
	}
	return results, nil
}

// SetVerification records an admin review decision. Only verified and
// rejected are valid decisions and only pending listings can be decided.
func (s *service) SetVerification(ctx context.Context, listingID uuid.UUID, status enums.VerificationStatus) (*models.Listing, error) {
	if status != enums.VerificationStatusVerified && status != enums.VerificationStatusRejected {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "decision must be verified or rejected")
	}

	listing, err := s.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.Verification != enums.VerificationStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "listing is not awaiting review")
	}

	if err := s.repo.UpdateVerification(ctx, listing.ID, status); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set verification")
	}
	listing.Verification = status
	return listing, nil
}

func (s *service) loadOwned(ctx context.Context, sellerID, listingID uuid.UUID) (*models.Listing, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	listing, err := s.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.SellerID != sellerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "listing does not belong to user")
	}
	return listing, nil
}
