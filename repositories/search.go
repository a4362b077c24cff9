//go:generate go run go.uber.org/mock/mockgen -source=search.go -destination=../mocks/mock_search_repository.go -package=mocks
package repositories

import (
	"chat-rooms/domain/search"
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/blugelabs/bluge"
)

type ISearchRepository interface {
	Index(message DiskMessage) error
	Search(ctx context.Context, query *search.Query) ([]SearchHit, error)
}

// SearchRepository maintains a full-text index of persisted messages.
// It is a best-effort sidecar of the message log: indexing failures are
// logged by callers and never block persistence or broadcast.
type SearchRepository struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewSearchRepository(writer *bluge.Writer, log *slog.Logger) SearchRepository {
	return SearchRepository{writer: writer, log: log}
}

type SearchHit struct {
	ID      string
	Room    string
	Author  string
	Content string
	Lang    string
	At      time.Time
}

// Index adds one message to the full-text index. The detected language is
// stored as a keyword facet so searches can be narrowed with --lang.
func (s SearchRepository) Index(message DiskMessage) error {
	lang := detectLang(message.Content)

	doc := bluge.NewDocument(message.ID.String()).
		AddField(bluge.NewKeywordField("room", message.Room).StoreValue()).
		AddField(bluge.NewKeywordField("author", message.Author).StoreValue()).
		AddField(bluge.NewTextField("content", message.Content).StoreValue()).
		AddField(bluge.NewKeywordField("lang", lang).StoreValue()).
		AddField(bluge.NewDateTimeField("at", message.At)).
		AddField(bluge.NewStoredOnlyField("at_str", []byte(message.At.Format(time.RFC3339Nano))))

	return s.writer.Update(doc.ID(), doc)
}

// Search runs a match query over message bodies, restricted to a room and
// optionally to a detected language.
func (s SearchRepository) Search(ctx context.Context, query *search.Query) ([]SearchHit, error) {
	bq := bluge.NewBooleanQuery()

	if query.Terms != "" {
		bq.AddMust(bluge.NewMatchQuery(query.Terms).SetField("content"))
	} else {
		bq.AddMust(bluge.NewMatchAllQuery())
	}
	if query.RoomID != "" {
		bq.AddMust(bluge.NewTermQuery(query.RoomID).SetField("room"))
	}
	if query.Lang != "" {
		bq.AddMust(bluge.NewTermQuery(query.Lang).SetField("lang"))
	}

	reader, err := s.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	request := bluge.NewTopNSearch(query.Limit, bq)
	iterator, err := reader.Search(ctx, request)
	if err != nil {
		return nil, err
	}

	var hits []SearchHit
	match, err := iterator.Next()
	for err == nil && match != nil {
		var hit SearchHit
		visitErr := match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				hit.ID = string(value)
			case "room":
				hit.Room = string(value)
			case "author":
				hit.Author = string(value)
			case "content":
				hit.Content = string(value)
			case "lang":
				hit.Lang = string(value)
			case "at_str":
				if at, parseErr := time.Parse(time.RFC3339Nano, string(value)); parseErr == nil {
					hit.At = at
				}
			}
			return true
		})
		if visitErr != nil {
			return nil, visitErr
		}
		hits = append(hits, hit)
		match, err = iterator.Next()
	}
	if err != nil {
		return nil, err
	}
	return hits, nil
}

func detectLang(content string) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	info := whatlanggo.Detect(content)
	return whatlanggo.LangToString(info.Lang)
}
