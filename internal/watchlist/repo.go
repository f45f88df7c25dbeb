package watchlist

import (
	"context"

	"github.com/cbieks/authentix/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository encapsulates watchlist persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a watchlist repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// AddItem inserts a watchlist entry and ignores duplicates.
func (r *Repository) AddItem(ctx context.Context, userID, listingID uuid.UUID) error {
	if userID == uuid.Nil || listingID == uuid.Nil {
		return gorm.ErrInvalidValue
	}

	return r.db.WithContext(ctx).
		Exec(`INSERT INTO watchlist_items (id, user_id, listing_id) VALUES (?, ?, ?) ON CONFLICT (user_id, listing_id) DO NOTHING`,
			uuid.New(), userID, listingID).
		Error
}

// RemoveItem deletes the user-listing watch if it exists.
func (r *Repository) RemoveItem(ctx context.Context, userID, listingID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND listing_id = ?", userID, listingID).
		Delete(&models.WatchlistItem{}).
		Error
}

// ListListings returns the watched listings for a user, newest watch first.
func (r *Repository) ListListings(ctx context.Context, userID uuid.UUID) ([]models.Listing, error) {
	var listings []models.Listing
	err := r.db.WithContext(ctx).
		Table("listings").
		Joins("JOIN watchlist_items wi ON wi.listing_id = listings.id").
		Where("wi.user_id = ?", userID).
		Order("wi.created_at DESC").
		Find(&listings).
		Error
	return listings, err
}

// RecentCategoryIDs returns the distinct categories of the user's most
// recently watched listings, newest watch first.
func (r *Repository) RecentCategoryIDs(ctx context.Context, userID uuid.UUID, limit int) ([]uuid.UUID, error) {
	if limit <= 0 {
		limit = 5
	}
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Table("listings").
		Joins("JOIN watchlist_items wi ON wi.listing_id = listings.id").
		Where("wi.user_id = ?", userID).
		Group("listings.category_id").
		Order("MAX(wi.created_at) DESC").
		Limit(limit).
		Pluck("listings.category_id", &ids).
		Error
	return ids, err
}

// IsWatching reports whether the user already watches the listing.
func (r *Repository) IsWatching(ctx context.Context, userID, listingID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.WatchlistItem{}).
		Where("user_id = ? AND listing_id = ?", userID, listingID).
		Count(&count).
		Error
	return count > 0, err
}
