package realtime

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event names exchanged over a channel.
const (
	// EventJoinUserRoom is sent by a client to bind its channel to a user.
	EventJoinUserRoom = "join-user-room"
	// EventSendNotification asks the server to push an ad-hoc message to a user.
	EventSendNotification = "send-notification"
	// EventNewNotification carries a notification to its recipient.
	EventNewNotification = "new-notification"
	// EventError reports a rejected client event.
	EventError = "error"
)

// Event is the frame format in both directions.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

// EncodeEvent marshals name and data into a frame.
func EncodeEvent(name string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", name, err)
	}
	frame, err := json.Marshal(Event{Name: name, Data: raw})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s event: %w", name, err)
	}
	return frame, nil
}

// DecodeEvent parses a frame received from a client.
func DecodeEvent(frame []byte) (Event, error) {
	var evt Event
	if err := json.Unmarshal(frame, &evt); err != nil {
		return Event{}, fmt.Errorf("malformed event: %w", err)
	}
	if evt.Name == "" {
		return Event{}, fmt.Errorf("malformed event: missing name")
	}
	return evt, nil
}

// ErrorPayload is the data of an EventError frame.
type ErrorPayload struct {
	Message string `json:"message"`
}

// DirectMessage is the data of a client's EventSendNotification frame.
type DirectMessage struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

// DirectMessagePayload is what the recipient of a DirectMessage receives.
type DirectMessagePayload struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
