package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cbieks/authentix/pkg/db/models"
	pkgerrors "github.com/cbieks/authentix/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UpdateProfileInput captures the mutable profile fields. Nil pointers leave
// the current value untouched.
type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
	Bio       *string
	AvatarURL *string
}

// Service exposes profile operations.
type Service interface {
	Me(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*UserDTO, error)
	PublicProfile(ctx context.Context, userID uuid.UUID) (*PublicProfileDTO, error)
	DiscoveryLocation(ctx context.Context, userID uuid.UUID) (*DiscoveryLocationDTO, error)
	UpdateDiscoveryLocation(ctx context.Context, userID uuid.UUID, zipCode, country string) (*DiscoveryLocationDTO, error)
}

// ServiceParams groups dependencies for the user service.
type ServiceParams struct {
	Repo *Repository
}

type service struct {
	repo *Repository
}

// NewService builds a user service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "users repo required")
	}
	return &service{repo: params.Repo}, nil
}

func (s *service) Me(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*UserDTO, error) {
	if _, err := s.load(ctx, userID); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.FirstName != nil {
		if strings.TrimSpace(*input.FirstName) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "first name is required")
		}
		updates["first_name"] = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		if strings.TrimSpace(*input.LastName) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "last name is required")
		}
		updates["last_name"] = strings.TrimSpace(*input.LastName)
	}
	if input.Bio != nil {
		updates["bio"] = *input.Bio
	}
	if input.AvatarURL != nil {
		updates["avatar_url"] = *input.AvatarURL
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, userID, updates); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile")
		}
	}
	return s.Me(ctx, userID)
}

func (s *service) DiscoveryLocation(ctx context.Context, userID uuid.UUID) (*DiscoveryLocationDTO, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return DiscoveryFromModel(user), nil
}

// UpdateDiscoveryLocation stores the coarse location used to bias browse
// results. Blank values clear the stored fields; the country must be a
// two-letter code.
func (s *service) UpdateDiscoveryLocation(ctx context.Context, userID uuid.UUID, zipCode, country string) (*DiscoveryLocationDTO, error) {
	if _, err := s.load(ctx, userID); err != nil {
		return nil, err
	}

	updates := map[string]any{
		"discovery_zip_code":   nil,
		"discovery_country":    nil,
		"discovery_updated_at": time.Now().UTC(),
	}
	if zip := strings.TrimSpace(zipCode); zip != "" {
		updates["discovery_zip_code"] = zip
	}
	if cc := strings.ToUpper(strings.TrimSpace(country)); cc != "" {
		if len(cc) != 2 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "country must be a two-letter code")
		}
		updates["discovery_country"] = cc
	}

	if err := s.repo.Update(ctx, userID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update discovery location")
	}
	return s.DiscoveryLocation(ctx, userID)
}

func (s *service) PublicProfile(ctx context.Context, userID uuid.UUID) (*PublicProfileDTO, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return PublicFromModel(user), nil
}

func (s *service) load(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}
