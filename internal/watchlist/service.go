package watchlist

import (
	"context"
	"errors"

	"github.com/cbieks/authentix/pkg/db/models"
	"github.com/cbieks/authentix/pkg/enums"
	pkgerrors "github.com/cbieks/authentix/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type listingFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
}

// Service exposes business rules for watchlist management.
type Service interface {
	AddItem(ctx context.Context, userID, listingID uuid.UUID) error
	RemoveItem(ctx context.Context, userID, listingID uuid.UUID) error
	ListListings(ctx context.Context, userID uuid.UUID) ([]models.Listing, error)
}

// ServiceParams groups dependencies for the watchlist service.
type ServiceParams struct {
	WatchlistRepo *Repository
	ListingRepo   listingFinder
}

type service struct {
	watchlistRepo *Repository
	listingRepo   listingFinder
}

// NewService builds a watchlist service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.WatchlistRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "watchlist repo required")
	}
	if params.ListingRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "listing repo required")
	}
	return &service{
		watchlistRepo: params.WatchlistRepo,
		listingRepo:   params.ListingRepo,
	}, nil
}

// AddItem ensures the listing is watchable and records the watch.
func (s *service) AddItem(ctx context.Context, userID, listingID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if listingID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "listing id is required")
	}

	listing, err := s.listingRepo.FindByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
	}
	if listing.Status == enums.ListingStatusDraft || listing.Status == enums.ListingStatusRemoved {
		return pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
	}

	if err := s.watchlistRepo.AddItem(ctx, userID, listingID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add watchlist item")
	}
	return nil
}

func (s *service) RemoveItem(ctx context.Context, userID, listingID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if err := s.watchlistRepo.RemoveItem(ctx, userID, listingID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove watchlist item")
	}
	return nil
}

func (s *service) ListListings(ctx context.Context, userID uuid.UUID) ([]models.Listing, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	listings, err := s.watchlistRepo.ListListings(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list watchlist")
	}
	return listings, nil
}
