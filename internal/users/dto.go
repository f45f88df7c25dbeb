package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/cbieks/authentix/pkg/db/models"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID             uuid.UUID  `json:"id"`
	Email          string     `json:"email"`
	Username       string     `json:"username"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Bio            *string    `json:"bio,omitempty"`
	AvatarURL      *string    `json:"avatar_url,omitempty"`
	IsActive       bool       `json:"is_active"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
	PayoutsEnabled bool       `json:"payouts_enabled"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// PublicProfileDTO is the shape exposed to other marketplace users.
type PublicProfileDTO struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Bio       *string   `json:"bio,omitempty"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DiscoveryLocationDTO is the coarse location a user opts into for browse
// personalization.
type DiscoveryLocationDTO struct {
	ZipCode   *string    `json:"zip_code,omitempty"`
	Country   *string    `json:"country,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email        string
	Username     string
	PasswordHash string
	FirstName    string
	LastName     string
	Bio          *string
	IsActive     *bool
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:             u.ID,
		Email:          u.Email,
		Username:       u.Username,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Bio:            u.Bio,
		AvatarURL:      u.AvatarURL,
		IsActive:       u.IsActive,
		LastLoginAt:    u.LastLoginAt,
		PayoutsEnabled: u.StripeConnectAccountID != nil && *u.StripeConnectAccountID != "",
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func PublicFromModel(u *models.User) *PublicProfileDTO {
	if u == nil {
		return nil
	}
	return &PublicProfileDTO{
		ID:        u.ID,
		Username:  u.Username,
		Bio:       u.Bio,
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt,
	}
}

func DiscoveryFromModel(u *models.User) *DiscoveryLocationDTO {
	if u == nil {
		return nil
	}
	return &DiscoveryLocationDTO{
		ZipCode:   u.DiscoveryZipCode,
		Country:   u.DiscoveryCountry,
		UpdatedAt: u.DiscoveryUpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	isActive := true
	if c.IsActive != nil {
		isActive = *c.IsActive
	}

	return &models.User{
		Email:        c.Email,
		Username:     c.Username,
		PasswordHash: c.PasswordHash,
		FirstName:    c.FirstName,
		LastName:     c.LastName,
		Bio:          c.Bio,
		IsActive:     isActive,
	}
}
