package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is a listing-scoped direct message between two users.
type Message struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ListingID   uuid.UUID  `gorm:"column:listing_id;type:uuid;not null;index:messages_listing_id_idx"`
	SenderID    uuid.UUID  `gorm:"column:sender_id;type:uuid;not null;index:messages_sender_id_idx"`
	RecipientID uuid.UUID  `gorm:"column:recipient_id;type:uuid;not null;index:messages_recipient_id_idx"`
	Body        string     `gorm:"column:body;not null"`
	ReadAt      *time.Time `gorm:"column:read_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
}
