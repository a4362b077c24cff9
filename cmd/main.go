package main

import (
	"chat-rooms/internal"
	"chat-rooms/observability"
	"chat-rooms/projection"
	"chat-rooms/repositories"
	"chat-rooms/runtime"
	"chat-rooms/runtime/workers"
	"chat-rooms/transport/web"
	"chat-rooms/transport/ws"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting. Keeping main() trivial guarantees that every
// defer (database close, index close) executes before the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Storage (BadgerDB) & Search Index (Bluge)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	indexWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return fmt.Errorf("search index opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing search index...")
		_ = indexWriter.Close()
	}()

	// 3. Repositories
	messageRepository := repositories.NewMessageRepository(db, log, config.PageSize)
	userRepository := repositories.NewUserRepository(db)
	searchRepository := repositories.NewSearchRepository(indexWriter, log)

	// 4. Core runtime: registry, session supervisor, router, broker
	registry := runtime.NewRegistry()
	sessions := runtime.NewSessionSupervisor(log)
	router := runtime.NewRouter(log, registry, sessions,
		config.BufferSize, config.SinkTimeout)

	monitor := observability.NewMonitor(log)
	timeline := projection.NewTimeline()
	router.AddPermanentSinks(monitor, timeline)

	broker := runtime.NewBroker(log, registry, sessions, router,
		messageRepository, searchRepository, monitor, config.HistoryLimit)

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 6. Supervised workers: the router drain loops and the heartbeat
	sup := workers.NewSupervisor(log, config.RestartInterval)
	heartbeat := workers.NewHeartbeatWorker(log, monitor, registry, sessions,
		config.HeartbeatInterval)
	go sup.Add(router, heartbeat).Run(ctx)

	// 7. HTTP surface: JSON API + websocket endpoint
	mux := http.NewServeMux()
	web.NewHandler(log, userRepository, messageRepository, searchRepository,
		config.AuthTokenDuration).Register(mux)
	ws.NewHandler(log, broker, config.ConnectionBufferSize).Register(mux)

	if config.DebugPort > 0 {
		internal.StartDebugServer(db, config.DebugPort, func() map[string]any {
			stats := monitor.Snapshot(sessions.Count(), registry.Rooms())
			return map[string]any{
				"live_sessions":     stats.LiveSessions,
				"live_rooms":        stats.LiveRooms,
				"messages_posted":   stats.MessagesPosted,
				"broadcasts_routed": stats.BroadcastsRouted,
				"history_replayed":  stats.HistoryReplayed,
				"alloc_mem_mb":      stats.AllocMemMb,
				"timeline_rooms":    len(timeline.Snapshot()),
			}
		})
		log.Info("Debug inspector started", "port", config.DebugPort)
	}

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: mux}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 8. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 9. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}
