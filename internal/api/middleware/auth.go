package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/roster-scheduler/backend/internal/apperr"
	"github.com/roster-scheduler/backend/internal/auth"
	"github.com/roster-scheduler/backend/internal/storage/models"
)

// Authenticator resolves a bearer token to the owner it was issued to.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Owner, error)
}

// RequireAuth returns middleware that rejects requests without a valid token
// and stores the authenticated owner in the request context.
//
// Browsers cannot set headers on a WebSocket handshake, so upgrade requests
// may pass the token as the "token" query parameter instead.
func RequireAuth(authenticator Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" && websocket.IsWebSocketUpgrade(r) {
				token = r.URL.Query().Get("token")
			}
			if token == "" {
				WriteError(w, http.StatusUnauthorized, ErrUnauthorized, "Access token required")
				return
			}

			owner, err := authenticator.Authenticate(r.Context(), token)
			if err != nil {
				if apperr.KindOf(err) == apperr.KindUnauthorized {
					logger.Debug("authentication rejected",
						slog.String("path", r.URL.Path),
						slog.String("remote", clientIP(r)),
					)
				}
				WriteAppError(w, r, logger, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithOwner(r.Context(), owner)))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
