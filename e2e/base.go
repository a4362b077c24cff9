package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
)

// BaseSuite carries the environment configuration and the HTTP/websocket
// plumbing shared by every end-to-end scenario.
type BaseSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration before running tests.
// Scenarios are skipped entirely when no server address is configured.
func (s *BaseSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)

	if s.Config.ServerAddr == "" {
		s.T().Skip("SERVER_ADDR not set, skipping end-to-end scenarios")
	}
}

// Step prints a colorized header so scenario phases stand out in the log.
func (s *BaseSuite) Step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// PostJSON sends one JSON request to the API and decodes the response body.
func (s *BaseSuite) PostJSON(path string, body any, out any) int {
	payload, err := json.Marshal(body)
	s.Require().NoError(err)

	if s.Config.DebugJSON {
		s.T().Logf("POST %s\nREQUEST:\n%s", path, payload)
	}

	resp, err := http.Post(
		fmt.Sprintf("http://%s%s", s.Config.ServerAddr, path),
		"application/json",
		bytes.NewReader(payload),
	)
	s.Require().NoError(err)
	defer resp.Body.Close()

	if out != nil {
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(out))
		if s.Config.DebugJSON {
			s.T().Logf("RESPONSE [%d]:\n%+v", resp.StatusCode, out)
		}
	}
	return resp.StatusCode
}

// DialRoom opens an authenticated websocket connection to the room.
func (s *BaseSuite) DialRoom(room, token string) *websocket.Conn {
	u := url.URL{
		Scheme:   "ws",
		Host:     s.Config.ServerAddr,
		Path:     fmt.Sprintf("/ws/chat/%s", room),
		RawQuery: url.Values{"token": {token}}.Encode(),
	}

	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	s.Require().NoError(err, "Failed to open websocket to "+u.String())
	return conn
}

// ReadFrame reads one JSON frame from the connection within the deadline.
func (s *BaseSuite) ReadFrame(conn *websocket.Conn, timeout time.Duration) map[string]string {
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(timeout)))
	var frame map[string]string
	s.Require().NoError(conn.ReadJSON(&frame))
	if s.Config.DebugJSON {
		s.T().Logf("FRAME: %+v", frame)
	}
	return frame
}

// SendMessage writes one chat frame on the connection.
func (s *BaseSuite) SendMessage(conn *websocket.Conn, message string) {
	s.Require().NoError(conn.WriteJSON(map[string]string{"message": message}))
}
