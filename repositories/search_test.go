package repositories

import (
	"chat-rooms/domain/search"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func openTestIndex(t *testing.T) *bluge.Writer {
	t.Helper()
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })
	return writer
}

func Test_Index_And_Search_By_Room(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repo := NewSearchRepository(openTestIndex(t), slog.Default())
	now := time.Now().UTC()

	// Given messages indexed in two rooms
	req.NoError(repo.Index(DiskMessage{uuid.New(), "general", "id-a", "Alice", "the invoice is overdue", now}))
	req.NoError(repo.Index(DiskMessage{uuid.New(), "general", "id-b", "Bob", "lunch anyone", now.Add(time.Minute)}))
	req.NoError(repo.Index(DiskMessage{uuid.New(), "random", "id-c", "Clara", "another invoice here", now.Add(2 * time.Minute)}))

	// When searching for "invoice" in general
	query := search.NewQuery("invoice")
	query.RoomID = "general"
	hits, err := repo.Search(ctx, query)
	req.NoError(err)

	// Then only the general room hit comes back
	req.Len(hits, 1)
	req.Equal("Alice", hits[0].Author)
	req.Equal("the invoice is overdue", hits[0].Content)
	req.Equal("general", hits[0].Room)
}

func Test_Search_Lang_Filter(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repo := NewSearchRepository(openTestIndex(t), slog.Default())
	now := time.Now().UTC()

	req.NoError(repo.Index(DiskMessage{uuid.New(), "general", "id-a", "Alice", "good morning everyone, the meeting starts soon", now}))
	req.NoError(repo.Index(DiskMessage{uuid.New(), "general", "id-b", "Bob", "bonjour tout le monde, la réunion commence bientôt", now}))

	// When filtering on detected language
	query := search.NewQuery("--lang fra")
	query.RoomID = "general"
	hits, err := repo.Search(ctx, query)
	req.NoError(err)

	req.Len(hits, 1)
	req.Equal("Bob", hits[0].Author)
	req.Equal("fra", hits[0].Lang)
}

func Test_Search_Empty_Terms_Matches_All_In_Room(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repo := NewSearchRepository(openTestIndex(t), slog.Default())
	now := time.Now().UTC()

	req.NoError(repo.Index(DiskMessage{uuid.New(), "general", "id-a", "Alice", "hello", now}))
	req.NoError(repo.Index(DiskMessage{uuid.New(), "general", "id-b", "Bob", "world", now}))

	query := search.NewQuery("")
	query.RoomID = "general"
	hits, err := repo.Search(ctx, query)
	req.NoError(err)
	req.Len(hits, 2)
}
