// Package service holds the owner-scoped business rules for contacts, events
// and accounts. Every operation takes the requesting owner's id and returns
// either a result or an *apperr.Error.
package service

import (
	"errors"
	"log/slog"
	"time"

	"github.com/roster-scheduler/backend/internal/apperr"
	"github.com/roster-scheduler/backend/internal/storage"
)

// Change types announced to an owner's live connections.
const (
	ChangeContactCreated = "contact.created"
	ChangeContactUpdated = "contact.updated"
	ChangeContactDeleted = "contact.deleted"
	ChangeEventCreated   = "event.created"
	ChangeEventUpdated   = "event.updated"
	ChangeEventDeleted   = "event.deleted"
)

// Publisher delivers a committed change to the owner's subscribers.
type Publisher interface {
	Publish(ownerID, change string, payload any)
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, string, any) {}

// Options configures the services.
type Options struct {
	Publisher Publisher
	Logger    *slog.Logger
	Now       func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Publisher == nil {
		o.Publisher = nopPublisher{}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// storeErr converts a storage failure into a typed failure. Not-found and
// duplicate errors use the given messages; a dangling reference counts as
// not found. Everything else is internal.
func storeErr(err error, notFound, duplicate string) error {
	var appErr *apperr.Error
	switch {
	case errors.As(err, &appErr):
		return err
	case (errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrForeignKey)) && notFound != "":
		return apperr.NotFound(notFound)
	case errors.Is(err, storage.ErrDuplicate) && duplicate != "":
		return apperr.Conflict(duplicate)
	default:
		return apperr.Internal(err, "An unexpected error occurred")
	}
}

// dbTime normalizes a clock reading for comparison with stored times, which
// are UTC with whole seconds so they compare correctly as text. Client input
// is never passed through it; EventInput.validate refuses fractional seconds.
func dbTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}
