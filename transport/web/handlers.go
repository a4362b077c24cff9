// Package web serves the JSON API: account registration and login, paginated
// room history and full-text search. Live traffic goes through transport/ws.
package web

import (
	"chat-rooms/auth"
	"chat-rooms/domain"
	"chat-rooms/domain/search"
	"chat-rooms/errors"
	"chat-rooms/repositories"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/samber/lo"
)

type Handler struct {
	log           *slog.Logger
	users         repositories.IUserRepository
	messages      repositories.IMessageRepository
	search        repositories.ISearchRepository
	tokenDuration time.Duration
}

func NewHandler(log *slog.Logger, users repositories.IUserRepository,
	messages repositories.IMessageRepository, search repositories.ISearchRepository,
	tokenDuration time.Duration) *Handler {
	return &Handler{
		log:           log,
		users:         users,
		messages:      messages,
		search:        search,
		tokenDuration: tokenDuration,
	}
}

// Register wires the API routes onto the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/register", h.registerUser)
	mux.HandleFunc("POST /api/login", h.login)
	mux.Handle("GET /api/rooms/{room}/messages", RequireAuth(http.HandlerFunc(h.roomMessages)))
	mux.Handle("GET /api/rooms/{room}/search", RequireAuth(http.HandlerFunc(h.searchMessages)))
}

func (h *Handler) registerUser(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := auth.ValidateRegister(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.log.Error("Password hashing failed", "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	userID, err := h.users.CreateUser(req.Email, req.Username, hash)
	if err != nil {
		if err == errors.ErrUserAlreadyExists {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		h.log.Error("User creation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"id":       userID,
		"username": req.Username,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	user, err := h.users.GetUserByEmail(req.Email)
	if err != nil {
		writeError(w, http.StatusUnauthorized, errors.ErrInvalidCredentials.Error())
		return
	}

	match, err := auth.ComparePassword(req.Password, user.PasswordHash)
	if err != nil || !match {
		writeError(w, http.StatusUnauthorized, errors.ErrInvalidCredentials.Error())
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Username, user.Roles, h.tokenDuration)
	if err != nil {
		h.log.Error("Token generation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(h.tokenDuration),
	})
	writeJSON(w, http.StatusOK, map[string]string{
		"token":    token,
		"username": user.Username,
	})
}

type messageView struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type messagesPage struct {
	Room     string        `json:"room"`
	Messages []messageView `json:"messages"`
	Cursor   *string       `json:"cursor,omitempty"`
}

// roomMessages serves one newest-first page of persisted history. The cursor
// is opaque; pass the previous response's cursor to fetch the next page.
func (h *Handler) roomMessages(w http.ResponseWriter, r *http.Request) {
	room := r.PathValue("room")
	if !domain.ValidRoomName(room) {
		writeError(w, http.StatusBadRequest, errors.ErrInvalidRoomName.Error())
		return
	}

	var cursor *string
	if c := r.URL.Query().Get("cursor"); c != "" {
		cursor = &c
	}

	messages, next, err := h.messages.GetMessages(room, cursor)
	if err != nil {
		h.log.Error("History page fetch failed", "room", room, "error", err)
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}

	page := messagesPage{
		Room: room,
		Messages: lo.Map(messages, func(m repositories.DiskMessage, _ int) messageView {
			return messageView{
				ID:        m.ID.String(),
				Username:  m.Author,
				Message:   m.Content,
				Timestamp: m.At.Format("2006-01-02 15:04:05"),
			}
		}),
	}
	if next != nil && *next != "" && len(messages) > 0 {
		page.Cursor = next
	}
	writeJSON(w, http.StatusOK, page)
}

type searchHitView struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Message   string `json:"message"`
	Lang      string `json:"lang,omitempty"`
	Timestamp string `json:"timestamp"`
}

// searchMessages runs a full-text query against the room's indexed messages.
// The q parameter supports command-line style flags: "invoice --lang eng --limit 5".
func (h *Handler) searchMessages(w http.ResponseWriter, r *http.Request) {
	room := r.PathValue("room")
	if !domain.ValidRoomName(room) {
		writeError(w, http.StatusBadRequest, errors.ErrInvalidRoomName.Error())
		return
	}
	if h.search == nil {
		writeError(w, http.StatusNotImplemented, "search disabled")
		return
	}

	query := search.NewQuery(r.URL.Query().Get("q"))
	query.RoomID = room

	hits, err := h.search.Search(r.Context(), query)
	if err != nil {
		h.log.Error("Search failed", "room", room, "error", err)
		writeError(w, http.StatusInternalServerError, "search unavailable")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"room": room,
		"hits": lo.Map(hits, func(hit repositories.SearchHit, _ int) searchHitView {
			return searchHitView{
				ID:        hit.ID,
				Username:  hit.Author,
				Message:   hit.Content,
				Lang:      hit.Lang,
				Timestamp: hit.At.Format("2006-01-02 15:04:05"),
			}
		}),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
