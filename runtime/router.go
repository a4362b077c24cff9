package runtime

import (
	"chat-rooms/contract"
	"chat-rooms/domain"
	"chat-rooms/domain/event"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Router fans a room event out to every current member except its sender.
//
// Each room gets its own queue drained by a dedicated goroutine, so delivery
// order within a room matches the order broadcasts were submitted while
// unrelated rooms proceed concurrently. Delivery to an individual session
// that fails never aborts delivery to the remaining members.
type Router struct {
	mu          sync.Mutex
	ctx         context.Context
	started     bool
	queues      map[domain.RoomID]chan event.DomainEvent
	registry    contract.IRegistry
	sessions    contract.ISessionSupervisor
	permanent   []contract.EventSink
	log         *slog.Logger
	bufferSize  int
	sinkTimeout time.Duration
}

func NewRouter(log *slog.Logger, registry contract.IRegistry,
	sessions contract.ISessionSupervisor, bufferSize int,
	sinkTimeout time.Duration) *Router {
	return &Router{
		queues:      make(map[domain.RoomID]chan event.DomainEvent),
		registry:    registry,
		sessions:    sessions,
		log:         log,
		bufferSize:  bufferSize,
		sinkTimeout: sinkTimeout,
	}
}

// AddPermanentSinks attaches consumers that observe every routed event
// (timeline projection, search index, counters). Call before Run.
func (r *Router) AddPermanentSinks(sinks ...contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.permanent = append(r.permanent, sinks...)
}

// Run starts draining the per-room queues and blocks until ctx is canceled.
// Queues created before Run buffer their events and start draining here.
func (r *Router) Run(ctx context.Context) error {
	r.mu.Lock()
	r.ctx = ctx
	r.started = true
	for roomID, queue := range r.queues {
		go r.drain(ctx, roomID, queue)
	}
	r.mu.Unlock()

	<-ctx.Done()
	return ctx.Err()
}

// Broadcast enqueues the event on its room's queue. If the queue is full the
// event is dropped with a warning: delivery is at-most-once by contract.
func (r *Router) Broadcast(e event.DomainEvent) {
	queue := r.queue(e.RoomID())
	select {
	case queue <- e:
	default:
		r.log.Warn(fmt.Sprintf("Broadcast queue full for room %s, dropping event", e.RoomID()))
	}
}

func (r *Router) queue(roomID domain.RoomID) chan event.DomainEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	queue, ok := r.queues[roomID]
	if !ok {
		queue = make(chan event.DomainEvent, r.bufferSize)
		r.queues[roomID] = queue
		if r.started {
			go r.drain(r.ctx, roomID, queue)
		}
	}
	return queue
}

func (r *Router) drain(ctx context.Context, roomID domain.RoomID, queue chan event.DomainEvent) {
	for {
		select {
		case <-ctx.Done():
			r.log.Debug("Stopping room queue", "room_id", roomID.String())
			return
		case e := <-queue:
			r.fanout(ctx, e)
		}
	}
}

// fanout delivers one event to the permanent sinks, then to every member of
// the room except the originating session. The membership snapshot may be
// stale by delivery time; the supervisor absorbs departed recipients.
func (r *Router) fanout(ctx context.Context, e event.DomainEvent) {
	for _, sink := range r.permanent {
		r.consumeWithTimeout(ctx, sink, e)
	}

	broadcast, ok := e.(event.MessageBroadcast)
	if !ok {
		return
	}

	for _, member := range r.registry.Members(broadcast.Room) {
		if member == broadcast.Sender {
			// The originating session never receives its own message back
			continue
		}
		if err := r.sessions.Deliver(ctx, member, e); err != nil {
			r.log.Debug("Delivery failed, continuing with remaining members",
				"session_id", string(member),
				"room_id", broadcast.Room.String(),
				"error", err)
		}
	}
}

func (r *Router) consumeWithTimeout(ctx context.Context, sink contract.EventSink, e event.DomainEvent) {
	sinkCtx := ctx
	if r.sinkTimeout > 0 {
		var cancel context.CancelFunc
		sinkCtx, cancel = context.WithTimeout(ctx, r.sinkTimeout)
		defer cancel()
	}
	if err := sink.Consume(sinkCtx, e); err != nil {
		r.log.Debug("Permanent sink failed", "error", err)
	}
}
