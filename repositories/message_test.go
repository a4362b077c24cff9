package repositories

import (
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func Test_Record_And_Replay_Ascending(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository := NewMessageRepository(db, slog.Default(), nil)
	room := "general"
	at := time.Now().UTC()
	diskMessages := []DiskMessage{
		{uuid.New(), room, "id-a", "Alice", "first", at},
		{uuid.New(), room, "id-b", "Bob", "second", at.Add(1 * time.Minute)},
		{uuid.New(), room, "id-c", "Clara", "third", at.Add(2 * time.Minute)},
	}
	for _, dm := range diskMessages {
		req.NoError(repository.StoreMessage(dm))
	}

	// When fetching recent messages
	fetched, err := repository.RecentMessages(room, 50)
	req.NoError(err)

	// Then they come back oldest first
	req.Len(fetched, len(diskMessages))
	req.Equal(diskMessages, fetched)
}

func Test_RecentMessages_Limit_Keeps_Newest(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository := NewMessageRepository(db, slog.Default(), nil)
	room := "x"
	now := time.Now().UTC()

	// Given 60 persisted messages
	for i := 1; i <= 60; i++ {
		req.NoError(repository.StoreMessage(DiskMessage{
			ID:       uuid.New(),
			Room:     room,
			AuthorID: "id",
			Author:   fmt.Sprintf("user_%d", i),
			Content:  fmt.Sprintf("Message %d", i),
			At:       now.Add(time.Duration(i) * time.Minute),
		}))
	}

	// When replaying with the history limit
	fetched, err := repository.RecentMessages(room, 50)
	req.NoError(err)

	// Then exactly the 50 most recent come back, oldest of those first
	req.Len(fetched, 50)
	req.Equal("Message 11", fetched[0].Content)
	req.Equal("Message 60", fetched[49].Content)
}

func Test_RecentMessages_Rooms_Are_Isolated(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository := NewMessageRepository(db, slog.Default(), nil)
	now := time.Now().UTC()
	req.NoError(repository.StoreMessage(DiskMessage{uuid.New(), "alpha", "id-a", "Alice", "in alpha", now}))
	req.NoError(repository.StoreMessage(DiskMessage{uuid.New(), "beta", "id-b", "Bob", "in beta", now}))

	fetched, err := repository.RecentMessages("alpha", 50)
	req.NoError(err)
	req.Len(fetched, 1)
	req.Equal("in alpha", fetched[0].Content)
}

func Test_MessageRepository_Pagination(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repo := NewMessageRepository(db, slog.Default(), lo.ToPtr(4))
	room := "history"
	now := time.Now().UTC()

	// Given 10 messages inserted oldest to newest
	for i := 1; i <= 10; i++ {
		req.NoError(repo.StoreMessage(DiskMessage{
			ID:       uuid.New(),
			Room:     room,
			AuthorID: "id",
			Author:   fmt.Sprintf("user_%d", i),
			Content:  fmt.Sprintf("Message %d", i),
			At:       now.Add(time.Duration(i) * time.Minute),
		}))
	}

	// --- PAGE 1 ---
	msgs1, cursor1, err := repo.GetMessages(room, nil)
	req.NoError(err)
	req.Len(msgs1, 4)
	req.Equal("user_10", msgs1[0].Author) // Newest first
	req.Equal("user_7", msgs1[3].Author)
	req.NotEmpty(cursor1)

	// --- PAGE 2 ---
	msgs2, cursor2, err := repo.GetMessages(room, cursor1)
	req.NoError(err)
	req.Len(msgs2, 4)
	req.Equal("user_6", msgs2[0].Author)
	req.Equal("user_3", msgs2[3].Author)
	req.NotEmpty(cursor2)

	// --- PAGE 3 (end) ---
	msgs3, cursor3, err := repo.GetMessages(room, cursor2)
	req.NoError(err)
	req.Len(msgs3, 2)
	req.Equal("user_2", msgs3[0].Author)
	req.Equal("user_1", msgs3[1].Author)

	// Continuing past the end yields nothing
	msgs4, _, err := repo.GetMessages(room, cursor3)
	req.NoError(err)
	req.Empty(msgs4)
}

func Test_Empty_Body_Is_Persisted(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository := NewMessageRepository(db, slog.Default(), nil)
	req.NoError(repository.StoreMessage(DiskMessage{
		ID: uuid.New(), Room: "general", AuthorID: "id-a", Author: "Alice",
		Content: "", At: time.Now().UTC(),
	}))

	fetched, err := repository.RecentMessages("general", 50)
	req.NoError(err)
	req.Len(fetched, 1)
	req.Empty(fetched[0].Content)
}
