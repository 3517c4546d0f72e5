package websocket

import (
	"encoding/json"
	"time"
)

// MessageType identifies the type of WebSocket message.
type MessageType string

const (
	// Server -> Client change types
	TypeContactCreated MessageType = "contact.created"
	TypeContactUpdated MessageType = "contact.updated"
	TypeContactDeleted MessageType = "contact.deleted"
	TypeEventCreated   MessageType = "event.created"
	TypeEventUpdated   MessageType = "event.updated"
	TypeEventDeleted   MessageType = "event.deleted"
	TypeEventUpcoming  MessageType = "event.upcoming"

	// Client -> Server command types
	TypePing MessageType = "ping"

	// Server -> Client response types
	TypeConnected MessageType = "connected"
	TypePong      MessageType = "pong"
	TypeError     MessageType = "error"
)

// Message represents a WebSocket message envelope.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   any         `json:"payload,omitempty"`
}

// NewMessage creates a new message with the current timestamp.
func NewMessage(msgType MessageType, payload any) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// JSON serializes the message to JSON bytes.
func (m Message) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// ClientMessage is a command sent by a client.
type ClientMessage struct {
	Type MessageType `json:"type"`
}

// ConnectedPayload is the payload for connected messages.
type ConnectedPayload struct {
	OwnerID string `json:"ownerId"`
}

// UpcomingPayload is the payload for event.upcoming reminders.
type UpcomingPayload struct {
	EventID     string    `json:"eventId"`
	Title       string    `json:"title"`
	ContactID   string    `json:"userId"`
	ContactName string    `json:"userName"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	StartsIn    string    `json:"startsIn"`
}

// ErrorPayload is the payload for error messages.
type ErrorPayload struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	OriginalType string `json:"originalType,omitempty"`
}
