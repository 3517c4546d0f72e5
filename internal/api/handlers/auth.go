package handlers

import (
	"log/slog"
	"net/http"

	"github.com/roster-scheduler/backend/internal/api/middleware"
	"github.com/roster-scheduler/backend/internal/service"
)

// Register creates an owner account and returns a session token.
func Register(svc *service.AuthService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.RegisterInput
		if !decodeJSON(w, r, &in) {
			return
		}

		result, err := svc.Register(r.Context(), in)
		if err != nil {
			middleware.WriteAppError(w, r, logger, err)
			return
		}
		middleware.WriteSuccess(w, http.StatusCreated, "User registered successfully", result)
	}
}

// Login exchanges credentials for a session token.
func Login(svc *service.AuthService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.LoginInput
		if !decodeJSON(w, r, &in) {
			return
		}

		result, err := svc.Login(r.Context(), in)
		if err != nil {
			middleware.WriteAppError(w, r, logger, err)
			return
		}
		middleware.WriteSuccess(w, http.StatusOK, "Login successful", result)
	}
}

// Logout acknowledges a logout. Tokens are stateless and expire on their own.
func Logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteSuccess(w, http.StatusOK, "Logout successful", nil)
	}
}

// Me returns the authenticated owner.
func Me(svc *service.AuthService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := svc.Me(r.Context(), ownerID(r))
		if err != nil {
			middleware.WriteAppError(w, r, logger, err)
			return
		}
		middleware.WriteSuccess(w, http.StatusOK, "", owner)
	}
}

// UpdateProfile changes the authenticated owner's name and email.
func UpdateProfile(svc *service.AuthService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.ProfileInput
		if !decodeJSON(w, r, &in) {
			return
		}

		owner, err := svc.UpdateProfile(r.Context(), ownerID(r), in)
		if err != nil {
			middleware.WriteAppError(w, r, logger, err)
			return
		}
		middleware.WriteSuccess(w, http.StatusOK, "Profile updated successfully", owner)
	}
}

// ChangePassword verifies the current password and replaces it.
func ChangePassword(svc *service.AuthService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.ChangePasswordInput
		if !decodeJSON(w, r, &in) {
			return
		}

		owner, err := svc.ChangePassword(r.Context(), ownerID(r), in)
		if err != nil {
			middleware.WriteAppError(w, r, logger, err)
			return
		}
		middleware.WriteSuccess(w, http.StatusOK, "Password changed successfully", owner)
	}
}
