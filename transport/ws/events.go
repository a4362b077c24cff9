package ws

import (
	"chat-rooms/domain/event"
	"encoding/json"
	"fmt"
)

const historyTimeLayout = "2006-01-02 15:04:05"

// broadcastPayload is the steady-state frame. No timestamp: only replayed
// history carries one.
type broadcastPayload struct {
	Message  string `json:"message"`
	Username string `json:"username"`
}

type historyPayload struct {
	Message   string `json:"message"`
	Username  string `json:"username"`
	Timestamp string `json:"timestamp"`
}

type noticePayload struct {
	Message string `json:"message"`
}

// inboundPayload is the only frame clients send. Parsing is permissive: a
// missing or malformed message field degrades to the empty string, which is
// a valid message body.
type inboundPayload struct {
	Message string `json:"message"`
}

func encodeEvent(e event.DomainEvent) ([]byte, error) {
	switch evt := e.(type) {
	case event.MessageBroadcast:
		return json.Marshal(broadcastPayload{
			Message:  evt.Body,
			Username: evt.Username,
		})
	case event.HistoryMessage:
		return json.Marshal(historyPayload{
			Message:   evt.Body,
			Username:  evt.Username,
			Timestamp: evt.At.Format(historyTimeLayout),
		})
	case event.RoomEntered:
		return json.Marshal(noticePayload{
			Message: fmt.Sprintf("You have entered Room - %s", evt.Room),
		})
	default:
		return nil, fmt.Errorf("no wire encoding for %T", e)
	}
}

func decodeInbound(raw []byte) string {
	var payload inboundPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	return payload.Message
}
