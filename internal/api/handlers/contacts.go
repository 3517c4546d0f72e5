package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/roster-scheduler/backend/internal/api/middleware"
	"github.com/roster-scheduler/backend/internal/service"
)

// ListContacts returns the owner's contacts with event statistics.
func ListContacts(svc *service.ContactService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		contacts, err := svc.ListWithStats(r.Context(), ownerID(r))
		if err != nil {
			middleware.WriteAppError(w, r, logger, err)
			return
		}
		middleware.WriteSuccess(w, http.StatusOK, "", contacts)
	}
}

// GetContact returns a contact together with its events.
func GetContact(svc *service.ContactService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := svc.Profile(r.Context(), mux.Vars(r)["id"], ownerID(r))
		if err != nil {
			middleware.WriteAppError(w, r, logger, err)
			return
		}
		middleware.WriteSuccess(w, http.StatusOK, "", profile)
	}
}

// CreateContact adds a contact to the owner's roster.
func CreateContact(svc *service.ContactService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.ContactInput
		if !decodeJSON(w, r, &in) {
			return
		}

		contact, err := svc.Create(r.Context(), ownerID(r), in)
		if err != nil {
			middleware.WriteAppError(w, r, logger, err)
			return
		}
		middleware.WriteSuccess(w, http.StatusCreated, "User created successfully", contact)
	}
}

// UpdateContact replaces a contact's fields.
func UpdateContact(svc *service.ContactService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.ContactInput
		if !decodeJSON(w, r, &in) {
			return
		}

		contact, err := svc.Update(r.Context(), mux.Vars(r)["id"], ownerID(r), in)
		if err != nil {
			middleware.WriteAppError(w, r, logger, err)
			return
		}
		middleware.WriteSuccess(w, http.StatusOK, "User updated successfully", contact)
	}
}

// DeleteContact removes a contact and all of its events.
func DeleteContact(svc *service.ContactService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), mux.Vars(r)["id"], ownerID(r)); err != nil {
			middleware.WriteAppError(w, r, logger, err)
			return
		}
		middleware.WriteSuccess(w, http.StatusOK, "User deleted successfully", nil)
	}
}
