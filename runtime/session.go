package runtime

import (
	"chat-rooms/contract"
	"chat-rooms/domain"
	"chat-rooms/domain/event"
	"chat-rooms/errors"
	"context"
	"log/slog"
	"sync"
	"time"
)

// ChatSession tracks one connection from handshake to teardown.
//
// The lifecycle is strictly forward: Connecting -> Authenticated -> Joined ->
// Closed. Close is safe on every exit path regardless of how far the session
// got, and runs its teardown exactly once.
type ChatSession struct {
	id       domain.SessionID
	room     domain.RoomID
	identity domain.Identity
	broker   *Broker
	sink     contract.EventSink
	log      *slog.Logger

	mu    sync.Mutex
	state domain.SessionState

	closeOnce sync.Once
}

func NewChatSession(log *slog.Logger, broker *Broker, room domain.RoomID,
	identity domain.Identity) *ChatSession {
	return &ChatSession{
		id:       domain.NewSessionID(),
		room:     room,
		identity: identity,
		broker:   broker,
		log:      log,
		state:    domain.Connecting,
	}
}

func (s *ChatSession) ID() domain.SessionID {
	return s.id
}

func (s *ChatSession) Room() domain.RoomID {
	return s.room
}

func (s *ChatSession) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Authenticate checks the connect-time identity. An unauthenticated
// connection is rejected and closed before it touches any room state.
func (s *ChatSession) Authenticate() error {
	s.mu.Lock()
	if s.state != domain.Connecting {
		s.mu.Unlock()
		return errors.ErrSessionClosed
	}
	if !s.identity.IsAuthenticated {
		s.state = domain.Closed
		s.mu.Unlock()
		return errors.ErrUnauthenticated
	}
	s.state = domain.Authenticated
	s.mu.Unlock()
	return nil
}

// Join registers the session in its room and replays history to the given
// outbound channel, oldest first, followed by the entered notice. If history
// cannot be fetched the join fails and already-acquired registrations are
// rolled back, so a member never misses its replay silently.
func (s *ChatSession) Join(ctx context.Context, sink contract.EventSink) error {
	s.mu.Lock()
	if s.state != domain.Authenticated {
		s.mu.Unlock()
		return errors.ErrSessionClosed
	}
	s.sink = sink
	s.mu.Unlock()

	s.broker.JoinRoom(s.room, s.id, sink)

	history, err := s.broker.RecentMessages(s.room, s.broker.HistoryLimit())
	if err != nil {
		s.Close()
		return err
	}

	for _, message := range history {
		replay := event.HistoryMessage{
			Room:     s.room,
			Username: message.Sender,
			Body:     message.Body,
			At:       message.CreatedAt,
		}
		if err = sink.Consume(ctx, replay); err != nil {
			s.log.Debug("History replay delivery failed",
				"session_id", string(s.id), "error", err)
		}
	}
	s.broker.Monitor().IncrHistoryReplayed(uint64(len(history)))

	// The entered notice goes to this session only, never to the room.
	if err = sink.Consume(ctx, event.RoomEntered{Room: s.room}); err != nil {
		s.log.Debug("Entered notice delivery failed",
			"session_id", string(s.id), "error", err)
	}

	s.mu.Lock()
	s.state = domain.Joined
	s.mu.Unlock()
	return nil
}

// HandleInbound processes one payload from the connection. Payloads arriving
// before the session reaches Joined are silently discarded. A persistence
// failure is returned to the caller but leaves the session alive.
func (s *ChatSession) HandleInbound(ctx context.Context, body string) error {
	if s.State() != domain.Joined {
		s.log.Debug("Inbound payload before join completed, ignoring",
			"session_id", string(s.id), "state", s.State().String())
		return nil
	}

	_, err := s.broker.PostMessage(ctx, domain.PostMessageCommand{
		Room:      s.room,
		SessionID: s.id,
		SenderID:  s.identity.UserID,
		Sender:    s.identity.Username,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	})
	return err
}

// Close tears the session down: leave the room, detach the outbound channel,
// mark Closed. Idempotent, and valid from any state including a session that
// never authenticated or joined.
func (s *ChatSession) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		joined := s.state == domain.Joined || s.sink != nil
		s.state = domain.Closed
		s.mu.Unlock()

		if joined {
			s.broker.LeaveRoom(s.room, s.id)
		}
		s.log.Debug("Session closed",
			"session_id", string(s.id), "room_id", s.room.String())
	})
}
