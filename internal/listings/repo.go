package listings

import (
	"context"
	"time"

	"github.com/cbieks/authentix/pkg/db/models"
	"github.com/cbieks/authentix/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BrowseFilters narrows the public listing feed.
type BrowseFilters struct {
	CategoryID *uuid.UUID
	SellerID   *uuid.UUID
	Search     string
	Limit      int
	Offset     int
}

// Repository defines persistence operations for listings.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, listing *models.Listing) (*models.Listing, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.ListingStatus) error
	UpdateVerification(ctx context.Context, id uuid.UUID, status enums.VerificationStatus) error
	Browse(ctx context.Context, filters BrowseFilters) ([]models.Listing, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Listing, error)
	ListByVerification(ctx context.Context, status enums.VerificationStatus, limit, offset int) ([]models.Listing, error)
	ActiveByCategoryExcluding(ctx context.Context, categoryID, excludeID uuid.UUID, limit int) ([]models.Listing, error)
	ActiveByCategories(ctx context.Context, categoryIDs []uuid.UUID, limit int) ([]models.Listing, error)
	RecentActive(ctx context.Context, limit int) ([]models.Listing, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a listings repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, listing *models.Listing) (*models.Listing, error) {
	if listing.ID == uuid.Nil {
		listing.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(listing).Error; err != nil {
		return nil, err
	}
	return listing, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&listing).Error
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// FindByIDForUpdate loads the listing row under a row-level lock. The lock
// clause is skipped on dialects that do not support it (sqlite in tests).
func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	query := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
	}
	var listing models.Listing
	if err := query.Where("id = ?", id).First(&listing).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.ListingStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *repository) UpdateVerification(ctx context.Context, id uuid.UUID, status enums.VerificationStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"verification_status": status,
			"updated_at":          time.Now().UTC(),
		}).Error
}

func (r *repository) ListByVerification(ctx context.Context, status enums.VerificationStatus, limit, offset int) ([]models.Listing, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var results []models.Listing
	err := r.db.WithContext(ctx).
		Where("verification_status = ?", status).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (r *repository) ActiveByCategoryExcluding(ctx context.Context, categoryID, excludeID uuid.UUID, limit int) ([]models.Listing, error) {
	var results []models.Listing
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.ListingStatusActive).
		Where("category_id = ?", categoryID).
		Where("id <> ?", excludeID).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (r *repository) ActiveByCategories(ctx context.Context, categoryIDs []uuid.UUID, limit int) ([]models.Listing, error) {
	if len(categoryIDs) == 0 {
		return nil, nil
	}
	var results []models.Listing
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.ListingStatusActive).
		Where("category_id IN ?", categoryIDs).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (r *repository) RecentActive(ctx context.Context, limit int) ([]models.Listing, error) {
	var results []models.Listing
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.ListingStatusActive).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (r *repository) Browse(ctx context.Context, filters BrowseFilters) ([]models.Listing, error) {
	query := r.db.WithContext(ctx).
		Where("status = ?", enums.ListingStatusActive)

	if filters.CategoryID != nil {
		query = query.Where("category_id = ?", *filters.CategoryID)
	}
	if filters.SellerID != nil {
		query = query.Where("seller_id = ?", *filters.SellerID)
	}
	if filters.Search != "" {
		pattern := "%" + filters.Search + "%"
		query = query.Where("title LIKE ? OR description LIKE ?", pattern, pattern)
	}

	limit := filters.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var results []models.Listing
	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(filters.Offset).
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (r *repository) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Listing, error) {
	var results []models.Listing
	err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
