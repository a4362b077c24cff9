//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IMessageRepository interface {
	StoreMessage(message DiskMessage) error
	RecentMessages(room string, limit int) ([]DiskMessage, error)
	GetMessages(room string, cursor *string) ([]DiskMessage, *string, error)
}

type MessageRepository struct {
	db       *badger.DB
	log      *slog.Logger
	pageSize *int
}

// NewMessageRepository builds the durable message log. pageSize bounds
// cursor-based pages served by GetMessages; nil means unbounded pages.
func NewMessageRepository(db *badger.DB, log *slog.Logger, pageSize *int) MessageRepository {
	return MessageRepository{db: db, log: log, pageSize: pageSize}
}

// DiskMessage is the storage-level representation of a chat message.
type DiskMessage struct {
	ID       uuid.UUID
	Room     string
	AuthorID string
	Author   string
	Content  string
	At       time.Time
}

// diskRecord is the JSON value stored under the badger key.
type diskRecord struct {
	ID       string `json:"id"`
	Room     string `json:"room"`
	AuthorID string `json:"author_id"`
	Author   string `json:"author"`
	Content  string `json:"content"`
	At       int64  `json:"at"`
}

// StoreMessage persists a message in BadgerDB.
// The key is formatted as "msg:{room}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two messages
//     arrive at the same nanosecond.
func (m MessageRepository) StoreMessage(message DiskMessage) error {
	key := fmt.Sprintf("msg:%s:%019d:%s",
		message.Room,
		message.At.UnixNano(),
		message.ID,
	)
	bytes, err := json.Marshal(fromDiskMessage(message))
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
}

// RecentMessages returns up to limit messages for the room in ascending
// chronological order. Retrieval is done newest-first on the reverse
// iterator for index efficiency, then reversed, since history is displayed
// oldest-first.
func (m MessageRepository) RecentMessages(room string, limit int) ([]DiskMessage, error) {
	messages, _, err := m.scan(room, nil, limit)
	if err != nil {
		return nil, err
	}
	return lo.Reverse(messages), nil
}

// GetMessages retrieves one newest-first page of messages for a room using a
// prefix scan, resuming after the opaque cursor when one is provided.
// Thanks to the padded timestamp in the key, messages are naturally sorted by time.
func (m MessageRepository) GetMessages(room string, cursor *string) ([]DiskMessage, *string, error) {
	limit := 0
	if m.pageSize != nil {
		limit = *m.pageSize
	}
	return m.scan(room, cursor, limit)
}

func (m MessageRepository) scan(room string, cursor *string, limit int) ([]DiskMessage, *string, error) {
	var byteMessages [][]byte
	var lastKey string
	err := m.db.View(func(txn *badger.Txn) error {
		prefixStr := fmt.Sprintf("msg:%s:", room)
		prefix := []byte(prefixStr)
		prefixLen := len(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Start past the newest possible position msg:{room}:9999999999999999999
			// Then walk backwards collecting messages
			seekKey = append(prefix, []byte("9999999999999999999")...)
		default:
			seekKey = append(prefix, []byte(*cursor)...)
		}

		it.Seek(seekKey)

		if cursor != nil && it.ValidForPrefix(prefix) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(byteMessages) == limit {
				m.log.Debug(fmt.Sprintf("Maximum of %d messages reached", limit))
				break
			}
			item := it.Item()
			// Memorize cursor part of the actual key
			lastKey = string(item.Key()[prefixLen:])
			err := item.Value(func(value []byte) error {
				byteMessages = append(byteMessages, append([]byte(nil), value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	var diskMessages []DiskMessage
	for _, b := range byteMessages {
		var record diskRecord
		if err = json.Unmarshal(b, &record); err != nil {
			return nil, nil, err
		}
		message, err := toDiskMessage(record)
		if err != nil {
			return nil, nil, err
		}
		diskMessages = append(diskMessages, message)
	}
	return diskMessages, &lastKey, nil
}

func fromDiskMessage(message DiskMessage) diskRecord {
	return diskRecord{
		ID:       message.ID.String(),
		Room:     message.Room,
		AuthorID: message.AuthorID,
		Author:   message.Author,
		Content:  message.Content,
		At:       message.At.UnixNano(),
	}
}

func toDiskMessage(record diskRecord) (DiskMessage, error) {
	parsedID, err := uuid.Parse(record.ID)
	if err != nil {
		return DiskMessage{}, err
	}
	return DiskMessage{
		ID:       parsedID,
		Room:     record.Room,
		AuthorID: record.AuthorID,
		Author:   record.Author,
		Content:  record.Content,
		At:       time.Unix(0, record.At).UTC(),
	}, nil
}
