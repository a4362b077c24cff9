package e2e

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type testChatScenarioSuite struct {
	BaseSuite
}

func TestChatScenarioSuite(t *testing.T) {
	suite.Run(t, &testChatScenarioSuite{})
}

// TestTwoMembersExchange walks the whole happy path against a live node:
// register two accounts, join the same room, exchange a message and verify
// the sender never hears its own message back.
func (s *testChatScenarioSuite) TestTwoMembersExchange() {
	room := fmt.Sprintf("e2e-%s", uuid.NewString()[:8])
	password := "Sup3r-secret-pass!"

	type account struct {
		username string
		token    string
	}
	accounts := make([]account, 0, 2)

	s.Step("Register and login two users")
	for i := 0; i < 2; i++ {
		username := fmt.Sprintf("e2euser%s", uuid.NewString()[:8])
		email := username + "@example.com"

		status := s.PostJSON("/api/register", map[string]string{
			"email": email, "username": username, "password": password,
		}, nil)
		s.Require().Equal(201, status, "registration should succeed")

		var login struct {
			Token string `json:"token"`
		}
		status = s.PostJSON("/api/login", map[string]string{
			"email": email, "password": password,
		}, &login)
		s.Require().Equal(200, status, "login should succeed")
		s.Require().NotEmpty(login.Token)

		accounts = append(accounts, account{username: username, token: login.Token})
	}

	s.Step("Both users join the room")
	alice := s.DialRoom(room, accounts[0].token)
	defer alice.Close()
	frame := s.ReadFrame(alice, 5*time.Second)
	s.Require().Equal(fmt.Sprintf("You have entered Room - %s", room), frame["message"])

	bob := s.DialRoom(room, accounts[1].token)
	defer bob.Close()
	frame = s.ReadFrame(bob, 5*time.Second)
	s.Require().Equal(fmt.Sprintf("You have entered Room - %s", room), frame["message"])

	s.Step("First user sends, second user receives")
	s.SendMessage(alice, "hello from e2e")

	frame = s.ReadFrame(bob, 5*time.Second)
	s.Require().Equal("hello from e2e", frame["message"])
	s.Require().Equal(accounts[0].username, frame["username"])
	// Broadcast frames never carry a timestamp
	s.Require().NotContains(frame, "timestamp")

	s.Step("A late joiner replays the message with a timestamp")
	late := s.DialRoom(room, accounts[1].token)
	defer late.Close()

	frame = s.ReadFrame(late, 5*time.Second)
	s.Require().Equal("hello from e2e", frame["message"])
	s.Require().Equal(accounts[0].username, frame["username"])
	s.Require().NotEmpty(frame["timestamp"])

	frame = s.ReadFrame(late, 5*time.Second)
	s.Require().Equal(fmt.Sprintf("You have entered Room - %s", room), frame["message"])
}
