package messages

import (
	"context"
	"testing"
	"time"

	"github.com/cbieks/authentix/pkg/db/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupMessagesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		listing_id TEXT NOT NULL,
		sender_id TEXT NOT NULL,
		recipient_id TEXT NOT NULL,
		body TEXT NOT NULL,
		read_at DATETIME,
		created_at DATETIME
	)`).Error)

	t.Cleanup(func() {
		_ = db.Exec(`DELETE FROM messages`).Error
	})

	return db
}

func seedMessage(t *testing.T, db *gorm.DB, listingID, senderID, recipientID uuid.UUID, body string, created time.Time) *models.Message {
	t.Helper()
	message := &models.Message{
		ID:          uuid.New(),
		ListingID:   listingID,
		SenderID:    senderID,
		RecipientID: recipientID,
		Body:        body,
		CreatedAt:   created,
	}
	require.NoError(t, db.Create(message).Error)
	return message
}

func TestRepositoryListThread(t *testing.T) {
	db := setupMessagesTestDB(t)
	repo := NewRepository(db)

	listingID := uuid.New()
	buyer := uuid.New()
	seller := uuid.New()
	stranger := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)

	seedMessage(t, db, listingID, buyer, seller, "is this still available?", base)
	seedMessage(t, db, listingID, seller, buyer, "yes it is", base.Add(time.Minute))
	seedMessage(t, db, listingID, stranger, seller, "unrelated", base.Add(2*time.Minute))
	seedMessage(t, db, uuid.New(), buyer, seller, "other listing", base.Add(3*time.Minute))

	thread, err := repo.ListThread(context.Background(), listingID, buyer, seller)
	require.NoError(t, err)
	require.Len(t, thread, 2)
	assert.Equal(t, "is this still available?", thread[0].Body)
	assert.Equal(t, "yes it is", thread[1].Body)
}

func TestRepositoryMarkThreadRead(t *testing.T) {
	db := setupMessagesTestDB(t)
	repo := NewRepository(db)

	listingID := uuid.New()
	buyer := uuid.New()
	seller := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)

	incoming := seedMessage(t, db, listingID, buyer, seller, "hello", base)
	outgoing := seedMessage(t, db, listingID, seller, buyer, "hi", base.Add(time.Minute))

	unread, err := repo.CountUnread(context.Background(), seller)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	require.NoError(t, repo.MarkThreadRead(context.Background(), listingID, seller, buyer, time.Now().UTC()))

	var stored models.Message
	require.NoError(t, db.First(&stored, "id = ?", incoming.ID).Error)
	assert.NotNil(t, stored.ReadAt)

	var storedOutgoing models.Message
	require.NoError(t, db.First(&storedOutgoing, "id = ?", outgoing.ID).Error)
	assert.Nil(t, storedOutgoing.ReadAt)

	unread, err = repo.CountUnread(context.Background(), seller)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestRepositoryListForUser(t *testing.T) {
	db := setupMessagesTestDB(t)
	repo := NewRepository(db)

	listingID := uuid.New()
	buyer := uuid.New()
	seller := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)

	seedMessage(t, db, listingID, buyer, seller, "first", base)
	seedMessage(t, db, listingID, seller, buyer, "second", base.Add(time.Minute))
	seedMessage(t, db, listingID, uuid.New(), uuid.New(), "elsewhere", base.Add(2*time.Minute))

	inbox, err := repo.ListForUser(context.Background(), buyer)
	require.NoError(t, err)
	require.Len(t, inbox, 2)
	assert.Equal(t, "second", inbox[0].Body)
}
