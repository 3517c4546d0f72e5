package auth

import (
	"context"

	"github.com/roster-scheduler/backend/internal/storage/models"
)

type ownerKey struct{}

// WithOwner returns a copy of ctx carrying the authenticated owner.
func WithOwner(ctx context.Context, owner *models.Owner) context.Context {
	return context.WithValue(ctx, ownerKey{}, owner)
}

// OwnerFromContext returns the authenticated owner, if any.
func OwnerFromContext(ctx context.Context) (*models.Owner, bool) {
	owner, ok := ctx.Value(ownerKey{}).(*models.Owner)
	return owner, ok && owner != nil
}
