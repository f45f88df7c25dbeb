package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/cbieks/authentix/pkg/enums"
)

// User represents the canonical identity entity.
type User struct {
	ID                     uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email                  string         `gorm:"type:text;not null;uniqueIndex"`
	Username               string         `gorm:"column:username;not null;uniqueIndex"`
	PasswordHash           string         `gorm:"column:password_hash;not null"`
	Role                   enums.UserRole `gorm:"column:role;type:user_role;not null;default:'user'"`
	FirstName              string         `gorm:"column:first_name;not null"`
	LastName               string         `gorm:"column:last_name;not null"`
	Bio                    *string        `gorm:"column:bio"`
	AvatarURL              *string        `gorm:"column:avatar_url"`
	IsActive               bool           `gorm:"column:is_active;not null;default:true"`
	LastLoginAt            *time.Time     `gorm:"column:last_login_at"`
	StripeConnectAccountID *string        `gorm:"column:stripe_connect_account_id"`
	DiscoveryZipCode       *string        `gorm:"column:discovery_zip_code"`
	DiscoveryCountry       *string        `gorm:"column:discovery_country"`
	DiscoveryUpdatedAt     *time.Time     `gorm:"column:discovery_updated_at"`
	CreatedAt              time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
