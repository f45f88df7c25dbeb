package listings

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

func setupListingsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`CREATE TABLE IF NOT EXISTS listings (
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
	)`).Error)

	t.Cleanup(func() {
		_ = db.Exec(`DELETE FROM listings`).Error
	})

	return db
}

func seedListing(t *testing.T, db *gorm.DB, sellerID, categoryID uuid.UUID, title string, status enums.ListingStatus) *models.Listing {
	t.Helper()
	listing := &models.Listing{
		ID:          uuid.New(),
		SellerID:    sellerID,
		CategoryID:  categoryID,
		Title:       title,
		Description: "well loved",
		Price:       decimal.RequireFromString("25.00"),
		Status:      status,
	}
	require.NoError(t, db.Create(listing).Error)
	return listing
}

func TestRepositoryBrowseOnlyActive(t *testing.T) {
	db := setupListingsTestDB(t)
	repo := NewRepository(db)
	seller := uuid.New()
	category := uuid.New()

	active := seedListing(t, db, seller, category, "Vintage Denim Jacket", enums.ListingStatusActive)
	seedListing(t, db, seller, category, "Draft Jacket", enums.ListingStatusDraft)
	seedListing(t, db, seller, category, "Sold Jacket", enums.ListingStatusSold)
	seedListing(t, db, seller, category, "Removed Jacket", enums.ListingStatusRemoved)

	results, err := repo.Browse(context.Background(), BrowseFilters{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, active.ID, results[0].ID)
}

func TestRepositoryBrowseFilters(t *testing.T) {
	db := setupListingsTestDB(t)
	repo := NewRepository(db)
	sellerA := uuid.New()
	sellerB := uuid.New()
	shoes := uuid.New()
	coats := uuid.New()

	sneaker := seedListing(t, db, sellerA, shoes, "Retro Sneaker", enums.ListingStatusActive)
	seedListing(t, db, sellerB, coats, "Wool Coat", enums.ListingStatusActive)

	byCategory, err := repo.Browse(context.Background(), BrowseFilters{CategoryID: &shoes})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, sneaker.ID, byCategory[0].ID)

	bySeller, err := repo.Browse(context.Background(), BrowseFilters{SellerID: &sellerB})
	require.NoError(t, err)
	require.Len(t, bySeller, 1)
	assert.Equal(t, "Wool Coat", bySeller[0].Title)

	bySearch, err := repo.Browse(context.Background(), BrowseFilters{Search: "Sneaker"})
	require.NoError(t, err)
	require.Len(t, bySearch, 1)
	assert.Equal(t, sneaker.ID, bySearch[0].ID)
}

func TestRepositoryUpdateStatus(t *testing.T) {
	db := setupListingsTestDB(t)
	repo := NewRepository(db)
	listing := seedListing(t, db, uuid.New(), uuid.New(), "Canvas Tote", enums.ListingStatusActive)

	require.NoError(t, repo.UpdateStatus(context.Background(), listing.ID, enums.ListingStatusSold))

	stored, err := repo.FindByID(context.Background(), listing.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ListingStatusSold, stored.Status)
}

func TestRepositoryListBySeller(t *testing.T) {
	db := setupListingsTestDB(t)
	repo := NewRepository(db)
	seller := uuid.New()

	seedListing(t, db, seller, uuid.New(), "Mine 1", enums.ListingStatusDraft)
	seedListing(t, db, seller, uuid.New(), "Mine 2", enums.ListingStatusActive)
	seedListing(t, db, uuid.New(), uuid.New(), "Theirs", enums.ListingStatusActive)

	mine, err := repo.ListBySeller(context.Background(), seller)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestRepositoryActiveByCategoryExcluding(t *testing.T) {
	db := setupListingsTestDB(t)
	repo := NewRepository(db)
	category := uuid.New()

	seed := seedListing(t, db, uuid.New(), category, "Seed Sneaker", enums.ListingStatusActive)
	sibling := seedListing(t, db, uuid.New(), category, "Sibling Sneaker", enums.ListingStatusActive)
	seedListing(t, db, uuid.New(), category, "Draft Sneaker", enums.ListingStatusDraft)
	seedListing(t, db, uuid.New(), uuid.New(), "Other Category", enums.ListingStatusActive)

	results, err := repo.ActiveByCategoryExcluding(context.Background(), category, seed.ID, 8)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, sibling.ID, results[0].ID)
}

func TestRepositoryActiveByCategories(t *testing.T) {
	db := setupListingsTestDB(t)
	repo := NewRepository(db)
	shoes := uuid.New()
	coats := uuid.New()

	inShoes := seedListing(t, db, uuid.New(), shoes, "Runner", enums.ListingStatusActive)
	seedListing(t, db, uuid.New(), coats, "Parka", enums.ListingStatusActive)

	results, err := repo.ActiveByCategories(context.Background(), []uuid.UUID{shoes}, 8)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, inShoes.ID, results[0].ID)

	empty, err := repo.ActiveByCategories(context.Background(), nil, 8)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRepositoryListByVerification(t *testing.T) {
	db := setupListingsTestDB(t)
	repo := NewRepository(db)

	queued := seedListing(t, db, uuid.New(), uuid.New(), "Queued", enums.ListingStatusActive)
	seedListing(t, db, uuid.New(), uuid.New(), "Untouched", enums.ListingStatusActive)
	require.NoError(t, repo.UpdateVerification(context.Background(), queued.ID, enums.VerificationStatusPending))

	pending, err := repo.ListByVerification(context.Background(), enums.VerificationStatusPending, 0, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, queued.ID, pending[0].ID)
}
