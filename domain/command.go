package domain

import (
	"time"
)

type Command interface {
	RoomID() RoomID
}

// PostMessageCommand is the inbound intent of a joined session.
// An empty Body is a valid message and is broadcast like any other.
type PostMessageCommand struct {
	Room      RoomID
	SessionID SessionID
	SenderID  string
	Sender    string
	Body      string
	CreatedAt time.Time
}

func (p PostMessageCommand) RoomID() RoomID {
	return p.Room
}
