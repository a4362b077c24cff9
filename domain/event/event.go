// Package event defines the delivery payloads pushed to session outbound
// channels. Events are a tagged variant dispatched with explicit type
// switches, never string-keyed reflection.
package event

import (
	"chat-rooms/domain"
	"time"
)

type DomainEvent interface {
	RoomID() domain.RoomID
}

// MessageBroadcast is the steady-state payload delivered to every room
// member except the sender. It deliberately carries no timestamp, unlike
// history replay.
type MessageBroadcast struct {
	Room     domain.RoomID
	Sender   domain.SessionID // originating session, excluded from delivery
	Username string
	Body     string
}

func (m MessageBroadcast) RoomID() domain.RoomID {
	return m.Room
}

// HistoryMessage replays one persisted message to a joining session,
// oldest first. History events carry the server-assigned timestamp.
type HistoryMessage struct {
	Room     domain.RoomID
	Username string
	Body     string
	At       time.Time
}

func (h HistoryMessage) RoomID() domain.RoomID {
	return h.Room
}

// RoomEntered is the synthetic notice sent once, to the joining session only.
type RoomEntered struct {
	Room domain.RoomID
}

func (r RoomEntered) RoomID() domain.RoomID {
	return r.Room
}
