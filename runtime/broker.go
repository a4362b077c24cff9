package runtime

import (
	"chat-rooms/contract"
	"chat-rooms/domain"
	"chat-rooms/domain/event"
	"chat-rooms/errors"
	"chat-rooms/observability"
	"chat-rooms/repositories"
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Broker is the composition point between persistence, membership and
// routing. Transports talk to the broker; the broker decides what gets
// stored, indexed and fanned out.
type Broker struct {
	log          *slog.Logger
	registry     contract.IRegistry
	sessions     contract.ISessionSupervisor
	router       contract.IBroadcaster
	messages     repositories.IMessageRepository
	search       repositories.ISearchRepository
	monitor      *observability.Monitor
	historyLimit int
}

func NewBroker(log *slog.Logger, registry contract.IRegistry,
	sessions contract.ISessionSupervisor, router contract.IBroadcaster,
	messages repositories.IMessageRepository, search repositories.ISearchRepository,
	monitor *observability.Monitor, historyLimit int) *Broker {
	return &Broker{
		log:          log,
		registry:     registry,
		sessions:     sessions,
		router:       router,
		messages:     messages,
		search:       search,
		monitor:      monitor,
		historyLimit: historyLimit,
	}
}

// JoinRoom makes the session a member of the room and attaches its outbound
// channel so the router can reach it.
func (b *Broker) JoinRoom(roomID domain.RoomID, sessionID domain.SessionID, sink contract.EventSink) {
	b.registry.Join(roomID, sessionID)
	b.sessions.Register(sessionID, sink)
	b.monitor.IncrSessionJoined()
	b.log.Debug("Session joined room",
		"session_id", string(sessionID), "room_id", roomID.String())
}

// LeaveRoom undoes JoinRoom. Safe to call when the session never finished
// joining: both collaborators treat unknown ids as a no-op.
func (b *Broker) LeaveRoom(roomID domain.RoomID, sessionID domain.SessionID) {
	b.registry.Leave(roomID, sessionID)
	b.sessions.Unregister(sessionID)
	b.monitor.IncrSessionLeft()
}

// PostMessage persists the message, then hands it to the router. Persistence
// failure aborts before any fan-out so no member ever sees a message that is
// not on disk. Search indexing is best effort and never blocks the post.
func (b *Broker) PostMessage(_ context.Context, cmd domain.PostMessageCommand) (domain.Message, error) {
	message := domain.Message{
		ID:        uuid.New(),
		Room:      cmd.Room,
		SenderID:  cmd.SenderID,
		Sender:    cmd.Sender,
		Body:      cmd.Body,
		CreatedAt: cmd.CreatedAt,
	}

	disk := repositories.DiskMessage{
		ID:       message.ID,
		Room:     message.Room.String(),
		AuthorID: message.SenderID,
		Author:   message.Sender,
		Content:  message.Body,
		At:       message.CreatedAt,
	}
	if err := b.messages.StoreMessage(disk); err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}

	if b.search != nil {
		if err := b.search.Index(disk); err != nil {
			b.log.Warn("Search indexing failed", "message_id", message.ID.String(), "error", err)
		}
	}

	b.monitor.IncrMessagesPosted()
	b.router.Broadcast(event.MessageBroadcast{
		Room:     message.Room,
		Sender:   cmd.SessionID,
		Username: message.Sender,
		Body:     message.Body,
	})
	return message, nil
}

// RecentMessages returns up to limit persisted messages for the room in
// ascending chronological order, ready for history replay.
func (b *Broker) RecentMessages(roomID domain.RoomID, limit int) ([]domain.Message, error) {
	disk, err := b.messages.RecentMessages(roomID.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	return lo.Map(disk, func(m repositories.DiskMessage, _ int) domain.Message {
		return domain.Message{
			ID:        m.ID,
			Room:      domain.RoomID(m.Room),
			SenderID:  m.AuthorID,
			Sender:    m.Author,
			Body:      m.Content,
			CreatedAt: m.At,
		}
	}), nil
}

func (b *Broker) HistoryLimit() int {
	return b.historyLimit
}

func (b *Broker) Monitor() *observability.Monitor {
	return b.monitor
}
