// Package handlers provides HTTP request handlers for the API endpoints.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/roster-scheduler/backend/internal/api/middleware"
	"github.com/roster-scheduler/backend/internal/auth"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// decodeJSON reads the request body into v. On failure it writes a 400 and
// returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		msg := "Invalid request body"
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			msg = "Request body too large"
		case errors.Is(err, io.EOF):
			msg = "Request body is required"
		}
		middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, msg)
		return false
	}
	return true
}

// ownerID returns the id of the authenticated owner. Routes behind
// RequireAuth always have one.
func ownerID(r *http.Request) string {
	owner, ok := auth.OwnerFromContext(r.Context())
	if !ok {
		return ""
	}
	return owner.ID
}
