package addresses

import (
	"context"
	"errors"
	"strings"

	"github.com/cbieks/authentix/pkg/db/models"
	pkgerrors "github.com/cbieks/authentix/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Input carries the address fields shared by create and update.
type Input struct {
	Name       string
	Line1      string
	Line2      *string
	City       string
	State      string
	PostalCode string
	Country    string
	Phone      *string
	IsDefault  bool
}

// Service exposes address CRUD plus the ownership check the purchase flow uses.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input Input) (*models.Address, error)
	Update(ctx context.Context, userID, addressID uuid.UUID, input Input) (*models.Address, error)
	Delete(ctx context.Context, userID, addressID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	GetOwned(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error)
}

// ServiceParams groups dependencies for the address service.
type ServiceParams struct {
	Repo *Repository
}

type service struct {
	repo *Repository
}

// NewService builds an address service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "addresses repo required")
	}
	return &service{repo: params.Repo}, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input Input) (*models.Address, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	if input.IsDefault {
		if err := s.repo.ClearDefault(ctx, userID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear default address")
		}
	}

	created, err := s.repo.Create(ctx, &models.Address{
		UserID:     userID,
		Name:       strings.TrimSpace(input.Name),
		Line1:      strings.TrimSpace(input.Line1),
		Line2:      input.Line2,
		City:       strings.TrimSpace(input.City),
		State:      strings.TrimSpace(input.State),
		PostalCode: strings.TrimSpace(input.PostalCode),
		Country:    strings.TrimSpace(input.Country),
		Phone:      input.Phone,
		IsDefault:  input.IsDefault,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create address")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, userID, addressID uuid.UUID, input Input) (*models.Address, error) {
	address, err := s.GetOwned(ctx, userID, addressID)
	if err != nil {
		return nil, err
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	if input.IsDefault && !address.IsDefault {
		if err := s.repo.ClearDefault(ctx, userID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear default address")
		}
	}

	updates := map[string]any{
		"name":        strings.TrimSpace(input.Name),
		"line1":       strings.TrimSpace(input.Line1),
		"line2":       input.Line2,
		"city":        strings.TrimSpace(input.City),
		"state":       strings.TrimSpace(input.State),
		"postal_code": strings.TrimSpace(input.PostalCode),
		"country":     strings.TrimSpace(input.Country),
		"phone":       input.Phone,
		"is_default":  input.IsDefault,
	}
	if err := s.repo.Update(ctx, address.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update address")
	}
	return s.repo.FindByID(ctx, address.ID)
}

func (s *service) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	address, err := s.GetOwned(ctx, userID, addressID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, address.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete address")
	}
	return nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	results, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list addresses")
	}
	return results, nil
}

// GetOwned loads the address and verifies the caller owns it.
func (s *service) GetOwned(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if addressID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address id is required")
	}
	address, err := s.repo.FindByID(ctx, addressID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}
	if address.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "address does not belong to user")
	}
	return address, nil
}

func validateInput(input Input) error {
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if strings.TrimSpace(input.Line1) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "line1 is required")
	}
	if strings.TrimSpace(input.City) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "city is required")
	}
	if strings.TrimSpace(input.State) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "state is required")
	}
	if strings.TrimSpace(input.PostalCode) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "postal code is required")
	}
	if strings.TrimSpace(input.Country) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "country is required")
	}
	return nil
}
