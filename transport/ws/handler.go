package ws

import (
	"chat-rooms/domain"
	"chat-rooms/errors"
	"chat-rooms/runtime"
	"chat-rooms/transport/web"
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	maxMessageSize = 512
	readTimeout    = 60 * time.Second
	pingPeriod     = 45 * time.Second
	writeTimeout   = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Handler struct {
	log                  *slog.Logger
	broker               *runtime.Broker
	connectionBufferSize int
}

func NewHandler(log *slog.Logger, broker *runtime.Broker, connectionBufferSize int) *Handler {
	return &Handler{
		log:                  log,
		broker:               broker,
		connectionBufferSize: connectionBufferSize,
	}
}

// Register wires the chat endpoint onto the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.Handle("GET /ws/chat/{room}", web.WithIdentity(http.HandlerFunc(h.serveRoom)))
}

// serveRoom runs one connection's full lifecycle: authenticate, upgrade,
// join with history replay, then pump until either side goes away.
// Authentication and room validation are checked before the upgrade so a
// rejected client gets a plain HTTP status, not a websocket close frame.
func (h *Handler) serveRoom(w http.ResponseWriter, r *http.Request) {
	roomName := r.PathValue("room")
	if !domain.ValidRoomName(roomName) {
		http.Error(w, errors.ErrInvalidRoomName.Error(), http.StatusBadRequest)
		return
	}

	identity := web.IdentityFromContext(r.Context())
	session := runtime.NewChatSession(h.log, h.broker, domain.RoomID(roomName), identity)
	if err := session.Authenticate(); err != nil {
		http.Error(w, "must be logged in.", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("Websocket upgrade failed", "error", err)
		return
	}

	sink := NewConnectionSink(h.connectionBufferSize)
	defer func() {
		session.Close()
		sink.Close()
		_ = conn.Close()
	}()

	go h.writePump(conn, sink)

	if err = session.Join(r.Context(), sink); err != nil {
		h.log.Error("Join failed", "room", roomName,
			"session_id", string(session.ID()), "error", err)
		return
	}

	h.readPump(r.Context(), conn, session)
}

// readPump consumes client frames until the connection dies. Inbound frames
// are parsed permissively and handed to the session; a persistence failure
// is logged but keeps the connection alive.
func (h *Handler) readPump(ctx context.Context, conn *websocket.Conn, session *runtime.ChatSession) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("Read error", "session_id", string(session.ID()), "error", err)
			}
			return
		}

		if err = session.HandleInbound(ctx, decodeInbound(raw)); err != nil {
			h.log.Warn("Inbound message not processed",
				"session_id", string(session.ID()), "error", err)
		}
	}
}

// writePump drains the session's outbound channel to the peer and keeps the
// connection alive with periodic pings.
func (h *Handler) writePump(conn *websocket.Conn, sink *ConnectionSink) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case e := <-sink.Events():
			frame, err := encodeEvent(e)
			if err != nil {
				h.log.Error("Event encoding failed", "error", err)
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err = conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-sink.Done():
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
