package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	// ErrUnauthenticated is fatal to the connection attempt: the socket is
	// rejected before acceptance, never gracefully closed after it.
	ErrUnauthenticated = fmt.Errorf("must be logged in")

	// ErrPersistence aborts the receive cycle that triggered the write.
	// An unpersisted message is never broadcast.
	ErrPersistence = fmt.Errorf("message could not be durably stored")

	// ErrRecipientGone is expected: the membership snapshot used by the
	// router may be stale by delivery time. Logged, never propagated.
	ErrRecipientGone = fmt.Errorf("recipient session no longer registered")

	ErrSessionClosed      = fmt.Errorf("session is closed")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity requirements")
	ErrInvalidRoomName    = fmt.Errorf("invalid room name")
)
