//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-rooms/domain"
	"chat-rooms/domain/event"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker
// initialization or lifecycle events, avoiding the need for manual naming
// in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is an outbound channel: the mechanism by which delivery events
// reach a specific live session (or a permanent consumer such as the
// timeline projection).
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IRegistry owns the room membership sets.
type IRegistry interface {
	Join(roomID domain.RoomID, sessionID domain.SessionID)
	Leave(roomID domain.RoomID, sessionID domain.SessionID)
	Members(roomID domain.RoomID) []domain.SessionID
	Rooms() int
}

// ISessionSupervisor owns the sessionID -> outbound channel mapping.
type ISessionSupervisor interface {
	Register(sessionID domain.SessionID, sink EventSink)
	Unregister(sessionID domain.SessionID)
	Deliver(ctx context.Context, sessionID domain.SessionID, e event.DomainEvent) error
	Count() int
}

// IBroadcaster fans a room event out to every member except its sender.
type IBroadcaster interface {
	Broadcast(e event.DomainEvent)
}
