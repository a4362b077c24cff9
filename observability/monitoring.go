// Package observability aggregates process-local chat metrics.
// Counters are atomic; the snapshot is what the heartbeat worker logs and
// the debug page renders.
package observability

import (
	"chat-rooms/domain/event"
	"context"
	"log/slog"
	"runtime"
	"sync/atomic"
)

type Stats struct {
	MessagesPosted   uint64 `json:"messages_posted"`
	BroadcastsRouted uint64 `json:"broadcasts_routed"`
	HistoryReplayed  uint64 `json:"history_replayed"`
	SessionsJoined   uint64 `json:"sessions_joined"`
	SessionsLeft     uint64 `json:"sessions_left"`
	LiveSessions     int    `json:"live_sessions"`
	LiveRooms        int    `json:"live_rooms"`
	AllocMemMb       uint64 `json:"alloc_mem_mb"`
	NumGC            uint32 `json:"num_gc"`
}

type Monitor struct {
	log *slog.Logger

	messagesPosted   uint64
	broadcastsRouted uint64
	historyReplayed  uint64
	sessionsJoined   uint64
	sessionsLeft     uint64
}

func NewMonitor(log *slog.Logger) *Monitor {
	return &Monitor{log: log}
}

func (m *Monitor) IncrMessagesPosted() {
	atomic.AddUint64(&m.messagesPosted, 1)
}

func (m *Monitor) IncrHistoryReplayed(n uint64) {
	atomic.AddUint64(&m.historyReplayed, n)
}

func (m *Monitor) IncrSessionJoined() {
	atomic.AddUint64(&m.sessionsJoined, 1)
}

func (m *Monitor) IncrSessionLeft() {
	atomic.AddUint64(&m.sessionsLeft, 1)
}

// Consume lets the monitor ride the router's permanent sink slot, counting
// every broadcast that leaves the queue.
func (m *Monitor) Consume(_ context.Context, e event.DomainEvent) error {
	if _, ok := e.(event.MessageBroadcast); ok {
		atomic.AddUint64(&m.broadcastsRouted, 1)
	}
	return nil
}

// Snapshot returns the current counters together with Go memory stats.
func (m *Monitor) Snapshot(liveSessions, liveRooms int) Stats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return Stats{
		MessagesPosted:   atomic.LoadUint64(&m.messagesPosted),
		BroadcastsRouted: atomic.LoadUint64(&m.broadcastsRouted),
		HistoryReplayed:  atomic.LoadUint64(&m.historyReplayed),
		SessionsJoined:   atomic.LoadUint64(&m.sessionsJoined),
		SessionsLeft:     atomic.LoadUint64(&m.sessionsLeft),
		LiveSessions:     liveSessions,
		LiveRooms:        liveRooms,
		AllocMemMb:       mem.Alloc / 1024 / 1024,
		NumGC:            mem.NumGC,
	}
}
