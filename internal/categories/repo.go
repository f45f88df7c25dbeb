package categories

import (
	"context"
	"strings"

	"github.com/cbieks/authentix/pkg/db/models"
	"gorm.io/gorm"
)

// Repository encapsulates category persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a category repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns every category ordered by name.
func (r *Repository) List(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&categories).
		Error
	return categories, err
}

// FindBySlug looks up a single category by its URL slug.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).
		Where("slug = ?", strings.ToLower(strings.TrimSpace(slug))).
		First(&category).
		Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}
