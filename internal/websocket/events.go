package websocket

import (
	"log/slog"
)

// Broadcaster encodes messages and hands them to the hub for one owner.
type Broadcaster struct {
	hub    *Hub
	logger *slog.Logger
}

// NewBroadcaster creates a new broadcaster.
func NewBroadcaster(hub *Hub, logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{hub: hub, logger: logger}
}

// Publish sends a change notification to the owner's connections. change is
// one of the contact.* or event.* message types.
func (b *Broadcaster) Publish(ownerID, change string, payload any) {
	b.send(ownerID, NewMessage(MessageType(change), payload))
}

// BroadcastUpcoming sends an event.upcoming reminder to the owner.
func (b *Broadcaster) BroadcastUpcoming(ownerID string, payload UpcomingPayload) {
	b.send(ownerID, NewMessage(TypeEventUpcoming, payload))
}

func (b *Broadcaster) send(ownerID string, msg Message) {
	data, err := msg.JSON()
	if err != nil {
		b.logger.Error("encoding websocket message", slog.String("type", string(msg.Type)), slog.Any("error", err))
		return
	}
	b.hub.SendTo(ownerID, data)
}
