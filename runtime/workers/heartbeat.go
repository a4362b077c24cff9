package workers

import (
	"chat-rooms/contract"
	"chat-rooms/observability"
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

// HeartbeatWorker periodically logs a health line: process self stats from
// the OS plus the chat counters. It is the operational pulse of the node.
type HeartbeatWorker struct {
	log      *slog.Logger
	monitor  *observability.Monitor
	registry contract.IRegistry
	sessions contract.ISessionSupervisor
	interval time.Duration
}

func NewHeartbeatWorker(log *slog.Logger, monitor *observability.Monitor,
	registry contract.IRegistry, sessions contract.ISessionSupervisor,
	interval time.Duration) *HeartbeatWorker {
	return &HeartbeatWorker{
		log:      log,
		monitor:  monitor,
		registry: registry,
		sessions: sessions,
		interval: interval,
	}
}

// Run emits one heartbeat per tick until the context is canceled.
func (w *HeartbeatWorker) Run(ctx context.Context) error {
	w.log.Info("Starting heartbeat worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			rss, cpu, status, err := getSelfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}

			stats := w.monitor.Snapshot(w.sessions.Count(), w.registry.Rooms())
			w.log.Info("Heartbeat",
				"pid", os.Getpid(),
				"pid_status", status,
				"cpu_percent", cpu,
				"ram_bytes", rss,
				"live_sessions", stats.LiveSessions,
				"live_rooms", stats.LiveRooms,
				"messages_posted", stats.MessagesPosted,
				"broadcasts_routed", stats.BroadcastsRouted,
				"history_replayed", stats.HistoryReplayed,
			)
		}
	}
}

// getSelfStats retrieves memory, CPU and OS status for the given process.
func getSelfStats(p *process.Process) (uint64, float64, string, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, "", err
	}

	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, "", err
	}

	status, err := p.Status()
	if err != nil {
		return 0, 0, "", err
	}
	return memInfo.RSS, cpuPercent, status, nil
}
