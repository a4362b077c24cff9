package runtime

import (
	"chat-rooms/domain"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_JoinIsIdempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	session := domain.NewSessionID()

	// When the same session joins the same room twice
	registry.Join("lobby", session)
	registry.Join("lobby", session)

	// Then it appears once in the member set
	req.Equal([]domain.SessionID{session}, registry.Members("lobby"))
}

func TestRegistry_LeaveUnknownIsNoOp(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// When leaving a room that was never joined
	registry.Leave("lobby", domain.NewSessionID())

	// Then nothing blows up and the registry stays empty
	req.Empty(registry.Members("lobby"))
	req.Zero(registry.Rooms())
}

func TestRegistry_EmptyRoomIsRemoved(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	session := domain.NewSessionID()

	registry.Join("lobby", session)
	req.Equal(1, registry.Rooms())

	// When the last member leaves
	registry.Leave("lobby", session)

	// Then the room entry is gone entirely
	req.Zero(registry.Rooms())
	req.Empty(registry.Members("lobby"))
}

func TestRegistry_RoomsAreIsolated(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	first := domain.NewSessionID()
	second := domain.NewSessionID()

	registry.Join("lobby", first)
	registry.Join("games", second)

	// Then each room only sees its own member
	req.Equal([]domain.SessionID{first}, registry.Members("lobby"))
	req.Equal([]domain.SessionID{second}, registry.Members("games"))

	// And leaving one room leaves the other untouched
	registry.Leave("lobby", first)
	req.Empty(registry.Members("lobby"))
	req.Equal([]domain.SessionID{second}, registry.Members("games"))
}

func TestRegistry_MembersIsASnapshot(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	first := domain.NewSessionID()

	registry.Join("lobby", first)
	snapshot := registry.Members("lobby")

	// When membership changes after the snapshot was taken
	registry.Join("lobby", domain.NewSessionID())
	registry.Leave("lobby", first)

	// Then the snapshot still reflects the point-in-time state
	req.Equal([]domain.SessionID{first}, snapshot)
}

func TestRegistry_ConcurrentJoinLeave(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// Hammer join/leave on the same room from many goroutines; every
	// goroutine leaves what it joined, so the room must end up removed.
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session := domain.NewSessionID()
			for j := 0; j < 100; j++ {
				registry.Join("lobby", session)
				registry.Leave("lobby", session)
			}
		}()
	}
	wg.Wait()

	req.Empty(registry.Members("lobby"))
	req.Zero(registry.Rooms())
}
