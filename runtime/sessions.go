package runtime

import (
	"chat-rooms/contract"
	"chat-rooms/domain"
	"chat-rooms/domain/event"
	"chat-rooms/errors"
	"context"
	"log/slog"
	"sync"
)

// SessionSupervisor owns the sessionID -> outbound channel mapping for every
// live session in the process. The registry may hand the router a stale
// membership snapshot; Deliver absorbs that race instead of escalating it.
type SessionSupervisor struct {
	mu    sync.RWMutex
	sinks map[domain.SessionID]contract.EventSink
	log   *slog.Logger
}

func NewSessionSupervisor(log *slog.Logger) *SessionSupervisor {
	return &SessionSupervisor{
		sinks: make(map[domain.SessionID]contract.EventSink),
		log:   log,
	}
}

// Register attaches a session's outbound channel. Re-registering the same
// session replaces the previous channel.
func (s *SessionSupervisor) Register(sessionID domain.SessionID, sink contract.EventSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sinks[sessionID] = sink
}

// Unregister detaches a session. Idempotent: unknown sessions are a no-op.
func (s *SessionSupervisor) Unregister(sessionID domain.SessionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sinks, sessionID)
}

// Deliver pushes a payload onto the session's outbound channel. A session
// that has already unregistered yields ErrRecipientGone: the caller logs it
// and moves on, it is never an invariant violation.
func (s *SessionSupervisor) Deliver(ctx context.Context, sessionID domain.SessionID, e event.DomainEvent) error {
	s.mu.RLock()
	sink, ok := s.sinks[sessionID]
	s.mu.RUnlock()

	if !ok {
		s.log.Debug("Delivery skipped, recipient gone",
			"session_id", string(sessionID), "room_id", e.RoomID().String())
		return errors.ErrRecipientGone
	}
	return sink.Consume(ctx, e)
}

// Count reports how many sessions are currently registered.
func (s *SessionSupervisor) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sinks)
}
