package service

import (
	"context"

	"github.com/roster-scheduler/backend/internal/apperr"
	"github.com/roster-scheduler/backend/internal/storage"
	"github.com/roster-scheduler/backend/internal/storage/models"
)

const (
	msgContactNotFound = "User not found"
	msgEventNotFound   = "Event not found"
)

// Authorizer resolves resources on behalf of an owner. A resource that is
// missing and one that belongs to another owner produce the same not-found
// failure, so callers cannot probe for other owners' ids.
type Authorizer struct {
	contacts *storage.ContactRepository
	events   *storage.EventRepository
}

// NewAuthorizer creates an authorizer over the given repositories.
func NewAuthorizer(contacts *storage.ContactRepository, events *storage.EventRepository) *Authorizer {
	return &Authorizer{contacts: contacts, events: events}
}

// Contact returns the contact if ownerID owns it.
func (a *Authorizer) Contact(ctx context.Context, contactID, ownerID string) (*models.Contact, error) {
	if contactID == "" || ownerID == "" {
		return nil, apperr.NotFound(msgContactNotFound)
	}

	c, err := a.contacts.GetByID(ctx, contactID, ownerID)
	if err != nil {
		return nil, storeErr(err, msgContactNotFound, "")
	}
	return c, nil
}

// Event returns the event if its contact is owned by ownerID.
func (a *Authorizer) Event(ctx context.Context, eventID, ownerID string) (*models.EventWithContact, error) {
	if eventID == "" || ownerID == "" {
		return nil, apperr.NotFound(msgEventNotFound)
	}

	ev, err := a.events.GetWithContact(ctx, eventID)
	if err != nil {
		return nil, storeErr(err, msgEventNotFound, "")
	}
	if ev.OwnerID() != ownerID {
		return nil, apperr.NotFound(msgEventNotFound)
	}
	return ev, nil
}
