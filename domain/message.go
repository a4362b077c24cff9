// Package domain contains core concepts of the chat system.
// This file defines Message records and related rules.
// Messages are immutable once persisted; the core never edits or deletes them.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message represents an immutable chat record.
type Message struct {
	ID        uuid.UUID // unique identifier
	Room      RoomID
	SenderID  string // opaque user identifier
	Sender    string // display name shown to other members
	Body      string
	CreatedAt time.Time // server-assigned, non-decreasing per room on write
}
