// Package projection builds local views from observed delivery events.
// It never emits events or talks to the transport directly.
package projection

import (
	"chat-rooms/domain"
	"chat-rooms/domain/event"
	"context"
	"sync"
	"time"
)

const defaultTail = 20

// Entry is one observed broadcast. Broadcast payloads carry no timestamp, so
// the timeline records when it observed the event instead.
type Entry struct {
	Room       domain.RoomID
	Username   string
	Body       string
	ObservedAt time.Time
}

// Timeline keeps the tail of recent broadcasts per room. It is a permanent
// router sink, used by the debug page to show live traffic.
type Timeline struct {
	mu   sync.RWMutex
	tail map[domain.RoomID][]Entry
	cap  int
}

func NewTimeline() *Timeline {
	return &Timeline{
		tail: make(map[domain.RoomID][]Entry),
		cap:  defaultTail,
	}
}

func (t *Timeline) Consume(_ context.Context, e event.DomainEvent) error {
	broadcast, ok := e.(event.MessageBroadcast)
	if !ok {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	entries := append(t.tail[broadcast.Room], Entry{
		Room:       broadcast.Room,
		Username:   broadcast.Username,
		Body:       broadcast.Body,
		ObservedAt: time.Now().UTC(),
	})
	if len(entries) > t.cap {
		entries = entries[len(entries)-t.cap:]
	}
	t.tail[broadcast.Room] = entries
	return nil
}

// Recent returns a copy of the room's tail, oldest first.
func (t *Timeline) Recent(roomID domain.RoomID) []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	entries := t.tail[roomID]
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// Snapshot copies every room's tail.
func (t *Timeline) Snapshot() map[domain.RoomID][]Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[domain.RoomID][]Entry, len(t.tail))
	for room, entries := range t.tail {
		copied := make([]Entry, len(entries))
		copy(copied, entries)
		out[room] = copied
	}
	return out
}
