package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	ws "github.com/roster-scheduler/backend/internal/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 65536
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The token, not the origin, authorizes the connection.
		return true
	},
}

// WebSocketUpgrade returns a handler that upgrades HTTP connections to
// WebSocket and subscribes them to the authenticated owner's feed.
func WebSocketUpgrade(hub *ws.Hub, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := ownerID(r)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", slog.Any("error", err))
			return
		}

		client := ws.NewClient(owner)
		hub.Register(client)

		// Replies to this connection only. The write pump is the sole writer.
		replies := make(chan []byte, 8)
		if msg, err := ws.NewMessage(ws.TypeConnected, ws.ConnectedPayload{OwnerID: owner}).JSON(); err == nil {
			replies <- msg
		}

		go writePump(conn, client, replies)
		go readPump(conn, client, hub, replies, logger)
	}
}

// writePump pumps messages from the hub and direct replies to the connection.
func writePump(conn *websocket.Conn, client *ws.Client, replies <-chan []byte) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case message := <-replies:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads client commands until the connection closes.
func readPump(conn *websocket.Conn, client *ws.Client, hub *ws.Hub, replies chan<- []byte, logger *slog.Logger) {
	defer func() {
		hub.Unregister(client)
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Debug("websocket read failed",
					slog.String("owner_id", client.OwnerID()),
					slog.Any("error", err),
				)
			}
			return
		}

		reply := handleClientMessage(message)
		if reply == nil {
			continue
		}
		select {
		case replies <- reply:
		default:
			// Client is not draining its replies.
		}
	}
}

// handleClientMessage returns the reply to a client command, or nil.
func handleClientMessage(message []byte) []byte {
	var cmd ws.ClientMessage
	if err := json.Unmarshal(message, &cmd); err != nil {
		return mustJSON(ws.NewMessage(ws.TypeError, ws.ErrorPayload{
			Code:    "invalid_message",
			Message: "Message must be a JSON object with a type",
		}))
	}

	switch cmd.Type {
	case ws.TypePing:
		return mustJSON(ws.NewMessage(ws.TypePong, nil))
	default:
		return mustJSON(ws.NewMessage(ws.TypeError, ws.ErrorPayload{
			Code:         "unknown_type",
			Message:      "Unknown message type",
			OriginalType: string(cmd.Type),
		}))
	}
}

func mustJSON(m ws.Message) []byte {
	data, err := m.JSON()
	if err != nil {
		return nil
	}
	return data
}
