package messages

import (
	"context"
	"time"

	"github.com/cbieks/authentix/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository encapsulates message persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a message repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, message *models.Message) (*models.Message, error) {
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return nil, err
	}
	return message, nil
}

// ListThread returns the full conversation between two users about a listing,
// oldest first.
func (r *Repository) ListThread(ctx context.Context, listingID, userA, userB uuid.UUID) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			userA, userB, userB, userA).
		Order("created_at ASC").
		Find(&messages).
		Error
	return messages, err
}

// ListForUser returns every message sent to or by the user, newest first.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.WithContext(ctx).
		Where("sender_id = ? OR recipient_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&messages).
		Error
	return messages, err
}

// MarkThreadRead stamps unread messages addressed to the reader in a thread.
func (r *Repository) MarkThreadRead(ctx context.Context, listingID, readerID, otherID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("listing_id = ? AND recipient_id = ? AND sender_id = ? AND read_at IS NULL",
			listingID, readerID, otherID).
		Update("read_at", at).
		Error
}

// CountUnread returns the number of unread messages addressed to the user.
func (r *Repository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("recipient_id = ? AND read_at IS NULL", userID).
		Count(&count).
		Error
	return count, err
}
