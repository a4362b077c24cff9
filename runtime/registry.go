// Package runtime hosts the membership registry, the session supervisor,
// the broadcast router and the connection session state machine. It
// coordinates the system without containing storage or transport logic.
package runtime

import (
	"chat-rooms/domain"
	"sync"
)

// memberSet holds one room's membership behind its own lock, so join/leave
// traffic in one room never serializes unrelated rooms.
type memberSet struct {
	mu      sync.Mutex
	members map[domain.SessionID]struct{}
	// gone marks a set that was removed from the registry while empty.
	// A Join that raced the removal must retry against a fresh set.
	gone bool
}

// Registry owns the room membership sets: for each room, the set of
// currently connected session identifiers.
type Registry struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*memberSet
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[domain.RoomID]*memberSet)}
}

// Join adds the session to the room's member set. Idempotent if already a
// member. The room entry is initialized on the fly.
func (r *Registry) Join(roomID domain.RoomID, sessionID domain.SessionID) {
	for {
		set := r.roomSet(roomID)

		set.mu.Lock()
		if set.gone {
			set.mu.Unlock()
			continue
		}
		set.members[sessionID] = struct{}{}
		set.mu.Unlock()
		return
	}
}

// Leave removes the session from the room's member set; no-op if absent.
// Empty rooms are removed entirely to prevent memory leaks over time.
func (r *Registry) Leave(roomID domain.RoomID, sessionID domain.SessionID) {
	r.mu.RLock()
	set, ok := r.rooms[roomID]
	r.mu.RUnlock()
	if !ok {
		return
	}

	set.mu.Lock()
	delete(set.members, sessionID)
	empty := len(set.members) == 0
	set.mu.Unlock()

	if !empty {
		return
	}

	// Re-check emptiness under both locks before removing the entry:
	// a concurrent Join may have repopulated the set.
	r.mu.Lock()
	if current, ok := r.rooms[roomID]; ok && current == set {
		set.mu.Lock()
		if len(set.members) == 0 {
			set.gone = true
			delete(r.rooms, roomID)
		}
		set.mu.Unlock()
	}
	r.mu.Unlock()
}

// Members returns a point-in-time copy of the room's member set. Iterating
// the snapshot is safe while joins and leaves continue, and it never
// observes a partially-applied mutation.
func (r *Registry) Members(roomID domain.RoomID) []domain.SessionID {
	r.mu.RLock()
	set, ok := r.rooms[roomID]
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	set.mu.Lock()
	defer set.mu.Unlock()
	snapshot := make([]domain.SessionID, 0, len(set.members))
	for id := range set.members {
		snapshot = append(snapshot, id)
	}
	return snapshot
}

// Rooms reports how many rooms currently have at least one member.
func (r *Registry) Rooms() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

func (r *Registry) roomSet(roomID domain.RoomID) *memberSet {
	r.mu.RLock()
	set, ok := r.rooms[roomID]
	r.mu.RUnlock()
	if ok {
		return set
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if set, ok = r.rooms[roomID]; ok {
		return set
	}
	set = &memberSet{members: make(map[domain.SessionID]struct{})}
	r.rooms[roomID] = set
	return set
}
