package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/roster-scheduler/backend/internal/api/middleware"
	"github.com/roster-scheduler/backend/internal/storage"
	"github.com/roster-scheduler/backend/internal/websocket"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status      string    `json:"status"`
	DBConnected bool      `json:"dbConnected"`
	Timestamp   time.Time `json:"timestamp"`
	Uptime      string    `json:"uptime"`
}

// HealthCheck returns a handler that performs a health check.
func HealthCheck(db *storage.DB, started time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dbConnected := db.PingContext(r.Context()) == nil

		status := "healthy"
		code := http.StatusOK
		if !dbConnected {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		middleware.WriteSuccess(w, code, "Server is running", HealthResponse{
			Status:      status,
			DBConnected: dbConnected,
			Timestamp:   time.Now().UTC(),
			Uptime:      time.Since(started).Round(time.Second).String(),
		})
	}
}

// StatusResponse represents the system status response.
type StatusResponse struct {
	Version          string `json:"version"`
	OwnersCount      int    `json:"ownersCount"`
	ContactsCount    int    `json:"contactsCount"`
	EventsCount      int    `json:"eventsCount"`
	ConnectedClients int    `json:"connectedClients"`
	SchemaVersion    uint   `json:"schemaVersion"`
}

// Status returns a handler that provides aggregate system counters. A failing
// store answers 500 instead of reporting zero counts.
func Status(db *storage.DB, hub *websocket.Hub, version string, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var resp StatusResponse
		resp.Version = version
		resp.ConnectedClients = hub.ClientCount()

		counters := []struct {
			query string
			dest  any
		}{
			{"SELECT COUNT(*) FROM owners", &resp.OwnersCount},
			{"SELECT COUNT(*) FROM contacts", &resp.ContactsCount},
			{"SELECT COUNT(*) FROM events", &resp.EventsCount},
			{"SELECT version FROM schema_migrations LIMIT 1", &resp.SchemaVersion},
		}
		for _, c := range counters {
			if err := db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
				logger.Error("status query failed", slog.String("query", c.query), slog.Any("error", err))
				middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to read server status")
				return
			}
		}

		middleware.WriteSuccess(w, http.StatusOK, "API server is running", resp)
	}
}
