package handlers

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/roster-scheduler/backend/internal/api/middleware"
	"github.com/roster-scheduler/backend/internal/calendar"
	"github.com/roster-scheduler/backend/internal/service"
)

// ListEvents returns the owner's events, optionally filtered by ?userId=.
func ListEvents(svc *service.EventService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events, err := svc.List(r.Context(), ownerID(r), r.URL.Query().Get("userId"))
		if err != nil {
			middleware.WriteAppError(w, r, logger, err)
			return
		}
		middleware.WriteSuccess(w, http.StatusOK, "", events)
	}
}

// GetEvent returns one event with its contact.
func GetEvent(svc *service.EventService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ev, err := svc.Get(r.Context(), mux.Vars(r)["id"], ownerID(r))
		if err != nil {
			middleware.WriteAppError(w, r, logger, err)
			return
		}
		middleware.WriteSuccess(w, http.StatusOK, "", ev)
	}
}

// CreateEvent schedules an event for one of the owner's contacts.
func CreateEvent(svc *service.EventService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.EventInput
		if !decodeJSON(w, r, &in) {
			return
		}

		ev, err := svc.Create(r.Context(), ownerID(r), in)
		if err != nil {
			middleware.WriteAppError(w, r, logger, err)
			return
		}
		middleware.WriteSuccess(w, http.StatusCreated, "Event created successfully", ev)
	}
}

// UpdateEvent reschedules or edits an event.
func UpdateEvent(svc *service.EventService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.EventInput
		if !decodeJSON(w, r, &in) {
			return
		}

		ev, err := svc.Update(r.Context(), mux.Vars(r)["id"], ownerID(r), in)
		if err != nil {
			middleware.WriteAppError(w, r, logger, err)
			return
		}
		middleware.WriteSuccess(w, http.StatusOK, "Event updated successfully", ev)
	}
}

// DeleteEvent removes an event.
func DeleteEvent(svc *service.EventService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), mux.Vars(r)["id"], ownerID(r)); err != nil {
			middleware.WriteAppError(w, r, logger, err)
			return
		}
		middleware.WriteSuccess(w, http.StatusOK, "Event deleted successfully", nil)
	}
}

// ExportEvents serves the owner's events as an iCalendar file, optionally
// filtered by ?userId=.
func ExportEvents(svc *service.EventService, exporter *calendar.Exporter, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events, err := svc.List(r.Context(), ownerID(r), r.URL.Query().Get("userId"))
		if err != nil {
			middleware.WriteAppError(w, r, logger, err)
			return
		}

		// Encode fully before writing so a failure can still become a 500.
		var buf bytes.Buffer
		if err := exporter.Export(&buf, "Scheduled events", events); err != nil {
			middleware.WriteAppError(w, r, logger, err)
			return
		}

		w.Header().Set("Content-Type", calendar.ContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="events.ics"`)
		w.WriteHeader(http.StatusOK)
		w.Write(buf.Bytes())
	}
}
