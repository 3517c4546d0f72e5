// Package api provides HTTP routing and handlers for the REST API.
package api

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"

	"github.com/roster-scheduler/backend/internal/api/handlers"
	"github.com/roster-scheduler/backend/internal/api/middleware"
	"github.com/roster-scheduler/backend/internal/calendar"
	"github.com/roster-scheduler/backend/internal/service"
	"github.com/roster-scheduler/backend/internal/storage"
	"github.com/roster-scheduler/backend/internal/websocket"
)

// Dependencies are the components the router dispatches to.
type Dependencies struct {
	DB       *storage.DB
	Hub      *websocket.Hub
	Auth     *service.AuthService
	Contacts *service.ContactService
	Events   *service.EventService
	Exporter *calendar.Exporter

	// AuthLimiter throttles login and registration. Nil disables throttling.
	AuthLimiter *middleware.RateLimiter

	Logger    *slog.Logger
	StaticDir string
	Version   string
}

// NewRouter creates and configures the HTTP router with all API routes.
func NewRouter(deps Dependencies) *mux.Router {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	started := time.Now()

	r := mux.NewRouter()

	// Apply global middleware
	r.Use(middleware.Logging(logger))
	r.Use(middleware.ErrorRecovery(logger))

	r.HandleFunc("/api", handlers.Status(deps.DB, deps.Hub, deps.Version, deps.Logger)).Methods("GET")

	// API subrouter
	api := r.PathPrefix("/api").Subrouter()
	api.NotFoundHandler = middleware.NotFound()
	api.MethodNotAllowedHandler = middleware.MethodNotAllowed()

	// Health and status endpoints
	api.HandleFunc("/health", handlers.HealthCheck(deps.DB, started)).Methods("GET")
	api.HandleFunc("/status", handlers.Status(deps.DB, deps.Hub, deps.Version, deps.Logger)).Methods("GET")

	// Public auth endpoints
	public := api.PathPrefix("/auth").Subrouter()
	if deps.AuthLimiter != nil {
		public.Use(deps.AuthLimiter.Middleware)
	}
	public.HandleFunc("/register", handlers.Register(deps.Auth, logger)).Methods("POST")
	public.HandleFunc("/login", handlers.Login(deps.Auth, logger)).Methods("POST")

	// Everything below requires a token
	private := api.NewRoute().Subrouter()
	private.Use(middleware.RequireAuth(deps.Auth, logger))

	private.HandleFunc("/auth/logout", handlers.Logout()).Methods("POST")
	private.HandleFunc("/auth/me", handlers.Me(deps.Auth, logger)).Methods("GET")
	private.HandleFunc("/auth/profile", handlers.UpdateProfile(deps.Auth, logger)).Methods("PUT")
	private.HandleFunc("/auth/change-password", handlers.ChangePassword(deps.Auth, logger)).Methods("PUT")

	// WebSocket endpoint
	private.HandleFunc("/ws", handlers.WebSocketUpgrade(deps.Hub, logger)).Methods("GET")

	// Contact endpoints
	private.HandleFunc("/users", handlers.ListContacts(deps.Contacts, logger)).Methods("GET")
	private.HandleFunc("/users", handlers.CreateContact(deps.Contacts, logger)).Methods("POST")
	private.HandleFunc("/users/{id}", handlers.GetContact(deps.Contacts, logger)).Methods("GET")
	private.HandleFunc("/users/{id}", handlers.UpdateContact(deps.Contacts, logger)).Methods("PUT")
	private.HandleFunc("/users/{id}", handlers.DeleteContact(deps.Contacts, logger)).Methods("DELETE")

	// Event endpoints. The export route must precede /events/{id}.
	private.HandleFunc("/events/export.ics", handlers.ExportEvents(deps.Events, deps.Exporter, logger)).Methods("GET")
	private.HandleFunc("/events", handlers.ListEvents(deps.Events, logger)).Methods("GET")
	private.HandleFunc("/events", handlers.CreateEvent(deps.Events, logger)).Methods("POST")
	private.HandleFunc("/events/{id}", handlers.GetEvent(deps.Events, logger)).Methods("GET")
	private.HandleFunc("/events/{id}", handlers.UpdateEvent(deps.Events, logger)).Methods("PUT")
	private.HandleFunc("/events/{id}", handlers.DeleteEvent(deps.Events, logger)).Methods("DELETE")

	// Serve static frontend files
	if deps.StaticDir != "" {
		if info, err := os.Stat(deps.StaticDir); err == nil && info.IsDir() {
			r.PathPrefix("/").Handler(http.FileServer(http.Dir(deps.StaticDir)))
		}
	}

	return r
}
