package service

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roster-scheduler/backend/internal/apperr"
	"github.com/roster-scheduler/backend/internal/storage"
	"github.com/roster-scheduler/backend/internal/storage/models"
)

const (
	msgContactExists = "User with this email already exists"
	msgEmailTaken    = "Email is already taken"

	// statsConcurrency bounds the per-contact stat queries of one listing.
	statsConcurrency = 4
)

// ContactService manages an owner's roster.
type ContactService struct {
	contacts  *storage.ContactRepository
	events    *storage.EventRepository
	authz     *Authorizer
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewContactService creates a contact service.
func NewContactService(contacts *storage.ContactRepository, events *storage.EventRepository, authz *Authorizer, opts Options) *ContactService {
	opts = opts.withDefaults()
	return &ContactService{
		contacts:  contacts,
		events:    events,
		authz:     authz,
		publisher: opts.Publisher,
		logger:    opts.Logger,
		now:       opts.Now,
	}
}

// Create adds a contact to the owner's roster. The email must be unique
// within that roster.
func (s *ContactService) Create(ctx context.Context, ownerID string, in ContactInput) (*models.Contact, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}

	c := &models.Contact{
		OwnerID:     ownerID,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Email:       in.Email,
		PhoneNumber: in.PhoneNumber,
	}

	err := s.contacts.Transaction(ctx, func(ctx context.Context) error {
		taken, err := s.contacts.EmailTaken(ctx, ownerID, in.Email, "")
		if err != nil {
			return storeErr(err, "", "")
		}
		if taken {
			return apperr.Conflict(msgContactExists)
		}
		if err := s.contacts.Create(ctx, c); err != nil {
			return storeErr(err, "", msgContactExists)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("contact created", slog.String("owner_id", ownerID), slog.String("contact_id", c.ID))
	s.publisher.Publish(ownerID, ChangeContactCreated, c)
	return c, nil
}

// ListWithStats returns the owner's contacts, each with its total number of
// events and the start of its next upcoming event.
func (s *ContactService) ListWithStats(ctx context.Context, ownerID string) ([]models.ContactWithStats, error) {
	contacts, err := s.contacts.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, storeErr(err, "", "")
	}

	now := dbTime(s.now())
	result := make([]models.ContactWithStats, len(contacts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(statsConcurrency)
	for i := range contacts {
		i := i
		result[i].Contact = contacts[i]
		g.Go(func() error {
			count, err := s.events.CountByContact(gctx, contacts[i].ID)
			if err != nil {
				return err
			}
			next, err := s.events.NextStart(gctx, contacts[i].ID, now)
			if err != nil {
				return err
			}
			result[i].EventsCount = count
			result[i].NextEventDate = next
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, storeErr(err, "", "")
	}

	return result, nil
}

// Profile returns a contact together with all of its events.
func (s *ContactService) Profile(ctx context.Context, contactID, ownerID string) (*models.ContactProfile, error) {
	c, err := s.authz.Contact(ctx, contactID, ownerID)
	if err != nil {
		return nil, err
	}

	events, err := s.events.ListByContact(ctx, c.ID)
	if err != nil {
		return nil, storeErr(err, "", "")
	}
	if events == nil {
		events = []models.Event{}
	}

	return &models.ContactProfile{User: *c, Events: events}, nil
}

// Update replaces the writable fields of an owned contact.
func (s *ContactService) Update(ctx context.Context, contactID, ownerID string, in ContactInput) (*models.Contact, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}

	var c *models.Contact
	err := s.contacts.Transaction(ctx, func(ctx context.Context) error {
		existing, err := s.authz.Contact(ctx, contactID, ownerID)
		if err != nil {
			return err
		}

		taken, err := s.contacts.EmailTaken(ctx, ownerID, in.Email, existing.ID)
		if err != nil {
			return storeErr(err, "", "")
		}
		if taken {
			return apperr.Conflict(msgEmailTaken)
		}

		existing.FirstName = in.FirstName
		existing.LastName = in.LastName
		existing.Email = in.Email
		existing.PhoneNumber = in.PhoneNumber
		if err := s.contacts.Update(ctx, existing); err != nil {
			return storeErr(err, msgContactNotFound, msgEmailTaken)
		}
		c = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ownerID, ChangeContactUpdated, c)
	return c, nil
}

// Delete removes an owned contact and every event scheduled for it. Both
// deletes commit together.
func (s *ContactService) Delete(ctx context.Context, contactID, ownerID string) error {
	var removed int64
	err := s.contacts.Transaction(ctx, func(ctx context.Context) error {
		c, err := s.authz.Contact(ctx, contactID, ownerID)
		if err != nil {
			return err
		}

		removed, err = s.events.DeleteByContact(ctx, c.ID)
		if err != nil {
			return storeErr(err, "", "")
		}
		if err := s.contacts.Delete(ctx, c.ID, ownerID); err != nil {
			return storeErr(err, msgContactNotFound, "")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("contact deleted",
		slog.String("owner_id", ownerID),
		slog.String("contact_id", contactID),
		slog.Int64("events_removed", removed),
	)
	s.publisher.Publish(ownerID, ChangeContactDeleted, map[string]string{"id": contactID})
	return nil
}
