package test

import (
	"chat-rooms/contract"
	"chat-rooms/domain"
	"chat-rooms/domain/event"
	"chat-rooms/observability"
	"chat-rooms/repositories"
	"chat-rooms/runtime"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

// collectSink records delivered events for later assertions.
type collectSink struct {
	mu     sync.Mutex
	events []event.DomainEvent
}

func (c *collectSink) Consume(_ context.Context, e event.DomainEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

func (c *collectSink) Events() []event.DomainEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]event.DomainEvent, len(c.events))
	copy(out, c.events)
	return out
}

func (c *collectSink) Broadcasts() []event.MessageBroadcast {
	var out []event.MessageBroadcast
	for _, e := range c.Events() {
		if b, ok := e.(event.MessageBroadcast); ok {
			out = append(out, b)
		}
	}
	return out
}

type node struct {
	broker   *runtime.Broker
	messages repositories.IMessageRepository
	log      *slog.Logger
}

func newNode(t *testing.T, historyLimit int) *node {
	t.Helper()
	// Reduced to 16 Mo for testing (avoid 2 Go of storage)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	registry := runtime.NewRegistry()
	sessions := runtime.NewSessionSupervisor(log)
	router := runtime.NewRouter(log, registry, sessions, 64, time.Second)
	monitor := observability.NewMonitor(log)
	router.AddPermanentSinks(monitor)

	messages := repositories.NewMessageRepository(db, log, nil)
	broker := runtime.NewBroker(log, registry, sessions, router,
		messages, nil, monitor, historyLimit)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = router.Run(ctx) }()

	return &node{broker: broker, messages: messages, log: log}
}

func (n *node) join(t *testing.T, room domain.RoomID, username string) (*runtime.ChatSession, *collectSink) {
	t.Helper()
	identity := domain.Identity{
		IsAuthenticated: true,
		UserID:          "uid-" + username,
		Username:        username,
	}
	session := runtime.NewChatSession(n.log, n.broker, room, identity)
	require.NoError(t, session.Authenticate())

	sink := &collectSink{}
	require.NoError(t, session.Join(context.Background(), sink))
	t.Cleanup(session.Close)
	return session, sink
}

// Test_Scenario_RoomExchange is the canonical three-member flow: everyone
// gets an entered notice, a posted message reaches everyone but its sender.
func Test_Scenario_RoomExchange(t *testing.T) {
	req := require.New(t)
	n := newNode(t, 50)
	ctx := context.Background()

	alice, aliceSink := n.join(t, "room-1", "alice")
	_, bobSink := n.join(t, "room-1", "bob")
	_, carolSink := n.join(t, "room-1", "carol")

	// Everyone got their private entered notice
	for _, sink := range []*collectSink{aliceSink, bobSink, carolSink} {
		events := sink.Events()
		req.Len(events, 1)
		req.Equal(event.RoomEntered{Room: "room-1"}, events[0])
	}

	// When alice posts
	req.NoError(alice.HandleInbound(ctx, "hi"))

	// Then bob and carol receive exactly the bare broadcast
	expected := event.MessageBroadcast{
		Room: "room-1", Sender: alice.ID(), Username: "alice", Body: "hi",
	}
	req.Eventually(func() bool {
		return len(bobSink.Broadcasts()) == 1 && len(carolSink.Broadcasts()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	req.Equal(expected, bobSink.Broadcasts()[0])
	req.Equal(expected, carolSink.Broadcasts()[0])

	// And alice never hears her own message back
	req.Empty(aliceSink.Broadcasts())
}

// Test_Scenario_DisconnectedMemberIsSkipped checks that a departed session
// neither receives anything nor disturbs delivery to the remaining members.
func Test_Scenario_DisconnectedMemberIsSkipped(t *testing.T) {
	req := require.New(t)
	n := newNode(t, 50)
	ctx := context.Background()

	alice, _ := n.join(t, "room-1", "alice")
	_, bobSink := n.join(t, "room-1", "bob")
	dave, daveSink := n.join(t, "room-1", "dave")

	// When dave disconnects and alice posts
	dave.Close()
	req.NoError(alice.HandleInbound(ctx, "still here?"))

	// Then bob receives the broadcast, dave stays at his entered notice
	req.Eventually(func() bool {
		return len(bobSink.Broadcasts()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	req.Equal("still here?", bobSink.Broadcasts()[0].Body)
	req.Empty(daveSink.Broadcasts())
}

// Test_Scenario_HistoryReplayCapped seeds more messages than the history
// limit and verifies a new joiner replays exactly the newest 50, oldest
// first, before the entered notice.
func Test_Scenario_HistoryReplayCapped(t *testing.T) {
	req := require.New(t)
	n := newNode(t, 50)

	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 60; i++ {
		req.NoError(n.messages.StoreMessage(repositories.DiskMessage{
			ID:      uuid.New(),
			Room:    "room-1",
			Author:  "alice",
			Content: fmt.Sprintf("Message %d", i+1),
			At:      base.Add(time.Duration(i) * time.Second),
		}))
	}

	_, sink := n.join(t, "room-1", "bob")

	events := sink.Events()
	req.Len(events, 51)

	// The 10 oldest messages fell outside the replay window
	first, ok := events[0].(event.HistoryMessage)
	req.True(ok)
	req.Equal("Message 11", first.Body)

	last, ok := events[49].(event.HistoryMessage)
	req.True(ok)
	req.Equal("Message 60", last.Body)

	// History is ordered oldest first and timestamps are preserved
	for i := 0; i < 50; i++ {
		message, ok := events[i].(event.HistoryMessage)
		req.True(ok)
		req.Equal(fmt.Sprintf("Message %d", i+11), message.Body)
		req.Equal(base.Add(time.Duration(i+10)*time.Second), message.At)
	}

	req.Equal(event.RoomEntered{Room: "room-1"}, events[50])
}

// Test_Scenario_EmptyBodyIsBroadcast: an empty message body is a valid
// message and flows through persistence and fan-out like any other.
func Test_Scenario_EmptyBodyIsBroadcast(t *testing.T) {
	req := require.New(t)
	n := newNode(t, 50)
	ctx := context.Background()

	alice, _ := n.join(t, "room-1", "alice")
	_, bobSink := n.join(t, "room-1", "bob")

	req.NoError(alice.HandleInbound(ctx, ""))

	req.Eventually(func() bool {
		return len(bobSink.Broadcasts()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	req.Equal("", bobSink.Broadcasts()[0].Body)

	// And it is part of durable history for the next joiner
	_, carolSink := n.join(t, "room-1", "carol")
	events := carolSink.Events()
	req.Len(events, 2)
	history, ok := events[0].(event.HistoryMessage)
	req.True(ok)
	req.Equal("", history.Body)
}

var _ contract.EventSink = (*collectSink)(nil)
