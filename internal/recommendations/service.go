package recommendations

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cbieks/authentix/pkg/db/models"
	pkgerrors "github.com/cbieks/authentix/pkg/errors"
)

const (
	// feedLimit caps every recommendation response.
	feedLimit = 8
	// categoryWindow bounds how many watchlist categories seed the feed.
	categoryWindow = 5
)

// ListingCatalog is the slice of the listings repository the recommender reads.
type ListingCatalog interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	ActiveByCategoryExcluding(ctx context.Context, categoryID, excludeID uuid.UUID, limit int) ([]models.Listing, error)
	ActiveByCategories(ctx context.Context, categoryIDs []uuid.UUID, limit int) ([]models.Listing, error)
	RecentActive(ctx context.Context, limit int) ([]models.Listing, error)
}

// WatchActivity surfaces the viewer's recent watchlist categories.
type WatchActivity interface {
	RecentCategoryIDs(ctx context.Context, userID uuid.UUID, limit int) ([]uuid.UUID, error)
}

// Service produces the recommended-listings feed.
type Service interface {
	ForViewer(ctx context.Context, viewerID uuid.UUID, seedListingID *uuid.UUID) ([]models.Listing, error)
}

// ServiceParams groups the recommender's dependencies.
type ServiceParams struct {
	Listings ListingCatalog
	Watches  WatchActivity
}

type service struct {
	listings ListingCatalog
	watches  WatchActivity
}

// NewService builds the recommendation service.
func NewService(params ServiceParams) (Service, error) {
	if params.Listings == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "listing catalog required")
	}
	if params.Watches == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "watch activity source required")
	}
	return &service{listings: params.Listings, watches: params.Watches}, nil
}

// ForViewer picks the most specific signal available. A seed listing wins,
// then the viewer's watchlist categories, then the newest active listings.
// Anonymous viewers pass uuid.Nil and land on the recency tier.
func (s *service) ForViewer(ctx context.Context, viewerID uuid.UUID, seedListingID *uuid.UUID) ([]models.Listing, error) {
	if seedListingID != nil && *seedListingID != uuid.Nil {
		results, err := s.bySeedListing(ctx, *seedListingID)
		if err != nil {
			return nil, err
		}
		if len(results) > 0 {
			return results, nil
		}
	}

	if viewerID != uuid.Nil {
		results, err := s.byWatchedCategories(ctx, viewerID)
		if err != nil {
			return nil, err
		}
		if len(results) > 0 {
			return results, nil
		}
	}

	results, err := s.listings.RecentActive(ctx, feedLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recent listings")
	}
	return results, nil
}

func (s *service) bySeedListing(ctx context.Context, seedID uuid.UUID) ([]models.Listing, error) {
	seed, err := s.listings.FindByID(ctx, seedID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load seed listing")
	}

	results, err := s.listings.ActiveByCategoryExcluding(ctx, seed.CategoryID, seed.ID, feedLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load related listings")
	}
	return results, nil
}

func (s *service) byWatchedCategories(ctx context.Context, viewerID uuid.UUID) ([]models.Listing, error) {
	categoryIDs, err := s.watches.RecentCategoryIDs(ctx, viewerID, categoryWindow)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load watched categories")
	}
	if len(categoryIDs) == 0 {
		return nil, nil
	}

	results, err := s.listings.ActiveByCategories(ctx, categoryIDs, feedLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category listings")
	}
	return results, nil
}
