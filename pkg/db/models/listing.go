package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/cbieks/authentix/pkg/enums"
)

// Listing represents a seller's marketplace listing.
type Listing struct {
	ID           uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID     uuid.UUID                `gorm:"column:seller_id;type:uuid;not null;index:listings_seller_id_idx"`
	CategoryID   uuid.UUID                `gorm:"column:category_id;type:uuid;not null;index:listings_category_id_idx"`
	Title        string                   `gorm:"column:title;not null"`
	Description  string                   `gorm:"column:description;not null"`
	Brand        *string                  `gorm:"column:brand"`
	Size         *string                  `gorm:"column:size"`
	Condition    *string                  `gorm:"column:condition"`
	Price        decimal.Decimal          `gorm:"column:price;type:numeric(12,2);not null"`
	Images       pq.StringArray           `gorm:"column:images;type:text[];not null;default:ARRAY[]::text[]"`
	Status       enums.ListingStatus      `gorm:"column:status;type:listing_status;not null;default:'draft'"`
	Verification enums.VerificationStatus `gorm:"column:verification_status;type:verification_status;not null;default:'unverified'"`
	CreatedAt    time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
