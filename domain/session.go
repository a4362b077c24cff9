package domain

import "github.com/google/uuid"

// SessionID identifies one connection's membership lifetime within one room.
// A session identifier appears in at most one room's membership set at a time.
type SessionID string

func NewSessionID() SessionID {
	return SessionID(uuid.NewString())
}

// Identity is the result of the connect-time authentication check, provided
// by the auth collaborator. The core only reads it, never produces it.
type Identity struct {
	IsAuthenticated bool
	UserID          string
	Username        string
}

// SessionState is the lifecycle of a connection session.
// Connecting -> Authenticated -> Joined -> Closed (terminal).
// Connecting -> Closed directly when authentication fails.
type SessionState int32

const (
	Connecting SessionState = iota
	Authenticated
	Joined
	Closed
)

func (s SessionState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Authenticated:
		return "authenticated"
	case Joined:
		return "joined"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}
