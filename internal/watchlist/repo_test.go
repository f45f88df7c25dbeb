package watchlist

import (
	"context"
	"testing"

	"github.com/cbieks/authentix/pkg/db/models"
	"github.com/cbieks/authentix/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupWatchlistTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS listings (
			id TEXT PRIMARY KEY,
			seller_id TEXT NOT NULL,
			category_id TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			brand TEXT,
			size TEXT,
			condition TEXT,
			price TEXT NOT NULL,
			images TEXT,
			status TEXT NOT NULL DEFAULT 'draft',
			verification_status TEXT NOT NULL DEFAULT 'unverified',
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS watchlist_items (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			listing_id TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (user_id, listing_id)
		)`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}

	t.Cleanup(func() {
		_ = db.Exec(`DELETE FROM watchlist_items`).Error
		_ = db.Exec(`DELETE FROM listings`).Error
	})

	return db
}

func seedListing(t *testing.T, db *gorm.DB, status enums.ListingStatus) *models.Listing {
	t.Helper()
	listing := &models.Listing{
		ID:         uuid.New(),
		SellerID:   uuid.New(),
		CategoryID: uuid.New(),
		Title:      "Retro Runner",
		Price:      decimal.RequireFromString("45.00"),
		Status:     status,
	}
	require.NoError(t, db.Create(listing).Error)
	return listing
}

func TestRepositoryAddItemIgnoresDuplicates(t *testing.T) {
	db := setupWatchlistTestDB(t)
	repo := NewRepository(db)
	userID := uuid.New()
	listing := seedListing(t, db, enums.ListingStatusActive)

	require.NoError(t, repo.AddItem(context.Background(), userID, listing.ID))
	require.NoError(t, repo.AddItem(context.Background(), userID, listing.ID))

	var count int64
	require.NoError(t, db.Model(&models.WatchlistItem{}).Where("user_id = ?", userID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRepositoryRemoveItem(t *testing.T) {
	db := setupWatchlistTestDB(t)
	repo := NewRepository(db)
	userID := uuid.New()
	listing := seedListing(t, db, enums.ListingStatusActive)

	require.NoError(t, repo.AddItem(context.Background(), userID, listing.ID))
	require.NoError(t, repo.RemoveItem(context.Background(), userID, listing.ID))

	watching, err := repo.IsWatching(context.Background(), userID, listing.ID)
	require.NoError(t, err)
	assert.False(t, watching)
}

func TestRepositoryListListings(t *testing.T) {
	db := setupWatchlistTestDB(t)
	repo := NewRepository(db)
	userID := uuid.New()
	first := seedListing(t, db, enums.ListingStatusActive)
	second := seedListing(t, db, enums.ListingStatusActive)
	unwatched := seedListing(t, db, enums.ListingStatusActive)

	require.NoError(t, repo.AddItem(context.Background(), userID, first.ID))
	require.NoError(t, repo.AddItem(context.Background(), userID, second.ID))

	listings, err := repo.ListListings(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, listings, 2)
	for _, l := range listings {
		assert.NotEqual(t, unwatched.ID, l.ID)
	}
}

func TestRepositoryRecentCategoryIDs(t *testing.T) {
	db := setupWatchlistTestDB(t)
	repo := NewRepository(db)
	userID := uuid.New()
	first := seedListing(t, db, enums.ListingStatusActive)
	second := seedListing(t, db, enums.ListingStatusActive)
	sameCategory := &models.Listing{
		ID:         uuid.New(),
		SellerID:   uuid.New(),
		CategoryID: first.CategoryID,
		Title:      "Retro Runner II",
		Price:      decimal.RequireFromString("55.00"),
		Status:     enums.ListingStatusActive,
	}
	require.NoError(t, db.Create(sameCategory).Error)

	require.NoError(t, repo.AddItem(context.Background(), userID, first.ID))
	require.NoError(t, repo.AddItem(context.Background(), userID, second.ID))
	require.NoError(t, repo.AddItem(context.Background(), userID, sameCategory.ID))

	ids, err := repo.RecentCategoryIDs(context.Background(), userID, 5)
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.Contains(t, ids, first.CategoryID)
	assert.Contains(t, ids, second.CategoryID)
}
