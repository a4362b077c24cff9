package runtime

import (
	"chat-rooms/domain"
	"chat-rooms/domain/event"
	"chat-rooms/errors"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSessionSupervisor_DeliverToRegistered(t *testing.T) {
	req := require.New(t)
	supervisor := NewSessionSupervisor(slog.Default())
	session := domain.NewSessionID()
	sink := newRecordSink()

	// Given a registered session
	supervisor.Register(session, sink)

	// When an event is delivered
	payload := event.MessageBroadcast{Room: "lobby", Username: "alice", Body: "hi"}
	err := supervisor.Deliver(context.Background(), session, payload)

	// Then it reaches the session's sink
	req.NoError(err)
	req.Equal([]event.DomainEvent{payload}, sink.Events())
}

func TestSessionSupervisor_DeliverToGoneRecipient(t *testing.T) {
	req := require.New(t)
	supervisor := NewSessionSupervisor(slog.Default())
	session := domain.NewSessionID()

	supervisor.Register(session, newRecordSink())
	supervisor.Unregister(session)

	// When delivering to a session that already left
	err := supervisor.Deliver(context.Background(), session,
		event.MessageBroadcast{Room: "lobby", Username: "alice", Body: "hi"})

	// Then the caller gets the sentinel, nothing worse
	req.ErrorIs(err, errors.ErrRecipientGone)
}

func TestSessionSupervisor_UnregisterIsIdempotent(t *testing.T) {
	req := require.New(t)
	supervisor := NewSessionSupervisor(slog.Default())
	session := domain.NewSessionID()

	supervisor.Register(session, newRecordSink())
	req.Equal(1, supervisor.Count())

	supervisor.Unregister(session)
	supervisor.Unregister(session)

	req.Zero(supervisor.Count())
}
