package chat

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	evChatMessage = "chat message"
	evTyping      = "typing"
	evStopTyping  = "stop typing"
	evUserJoined  = "user joined"
	evUserLeft    = "user left"
)

// wireEvent is the envelope for every event crossing the websocket.
type wireEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type eventKind int

const (
	eventUnknown eventKind = iota
	eventChat
	eventTyping
	eventStopTyping
)

// clientEvent is the decoded form of an inbound event. Event names are
// mapped to a closed set of kinds exactly once, at decode time; names
// outside the set become eventUnknown rather than an error so newer
// clients don't break older servers.
type clientEvent struct {
	kind eventKind
	body string
}

type chatPayload struct {
	Body string `json:"body"`
}

func decodeClientEvent(raw []byte) (clientEvent, error) {
	var we wireEvent
	if err := json.Unmarshal(raw, &we); err != nil {
		return clientEvent{}, fmt.Errorf("parse event: %w", err)
	}

	switch we.Event {
	case evChatMessage:
		var payload chatPayload
		if len(we.Data) > 0 {
			if err := json.Unmarshal(we.Data, &payload); err != nil {
				return clientEvent{}, fmt.Errorf("parse chat message payload: %w", err)
			}
		}
		return clientEvent{kind: eventChat, body: payload.Body}, nil
	case evTyping:
		return clientEvent{kind: eventTyping}, nil
	case evStopTyping:
		return clientEvent{kind: eventStopTyping}, nil
	default:
		return clientEvent{kind: eventUnknown}, nil
	}
}

// ServerEvent is an outbound event fanned out to room members.
type ServerEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type PresencePayload struct {
	Username string `json:"username"`
	Message  string `json:"message"`
}

type ChatMessagePayload struct {
	Username  string    `json:"username"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func userJoinedEvent(username string) *ServerEvent {
	return &ServerEvent{
		Event: evUserJoined,
		Data: PresencePayload{
			Username: username,
			Message:  fmt.Sprintf("%s has joined the chat", username),
		},
	}
}

func userLeftEvent(username string) *ServerEvent {
	return &ServerEvent{
		Event: evUserLeft,
		Data: PresencePayload{
			Username: username,
			Message:  fmt.Sprintf("%s has left the chat", username),
		},
	}
}

func chatMessageEvent(username, body string, timestamp time.Time) *ServerEvent {
	return &ServerEvent{
		Event: evChatMessage,
		Data: ChatMessagePayload{
			Username:  username,
			Message:   body,
			Timestamp: timestamp,
		},
	}
}

// typingEvent and stopTypingEvent carry the bare username as their payload.
func typingEvent(username string) *ServerEvent {
	return &ServerEvent{Event: evTyping, Data: username}
}

func stopTypingEvent(username string) *ServerEvent {
	return &ServerEvent{Event: evStopTyping, Data: username}
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
