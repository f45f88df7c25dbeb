package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cbieks/authentix/pkg/enums"
)

// Order is the ledger row for a single-listing purchase. Amounts are stored
// as decimals with two places; the Stripe charge carries the equivalent
// integer minor units.
type Order struct {
	ID                    uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerID               uuid.UUID         `gorm:"column:buyer_id;type:uuid;not null;index:orders_buyer_id_idx"`
	SellerID              uuid.UUID         `gorm:"column:seller_id;type:uuid;not null;index:orders_seller_id_idx"`
	ListingID             uuid.UUID         `gorm:"column:listing_id;type:uuid;not null;index:orders_listing_id_idx"`
	StripePaymentIntentID string            `gorm:"column:stripe_payment_intent_id;not null;uniqueIndex:orders_stripe_payment_intent_id_key"`
	Status                enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'pending'"`
	Amount                decimal.Decimal   `gorm:"column:amount;type:numeric(12,2);not null"`
	PlatformFee           decimal.Decimal   `gorm:"column:platform_fee;type:numeric(12,2);not null"`
	SellerPayout          decimal.Decimal   `gorm:"column:seller_payout;type:numeric(12,2);not null"`
	ShipName              string            `gorm:"column:ship_name;not null"`
	ShipLine1             string            `gorm:"column:ship_line1;not null"`
	ShipLine2             *string           `gorm:"column:ship_line2"`
	ShipCity              string            `gorm:"column:ship_city;not null"`
	ShipState             string            `gorm:"column:ship_state;not null"`
	ShipPostalCode        string            `gorm:"column:ship_postal_code;not null"`
	ShipCountry           string            `gorm:"column:ship_country;not null"`
	ShipPhone             *string           `gorm:"column:ship_phone"`
	PaidAt                *time.Time        `gorm:"column:paid_at"`
	CreatedAt             time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
