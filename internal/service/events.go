package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/roster-scheduler/backend/internal/apperr"
	"github.com/roster-scheduler/backend/internal/schedule"
	"github.com/roster-scheduler/backend/internal/storage"
	"github.com/roster-scheduler/backend/internal/storage/models"
)

const msgEventOverlap = "Event time overlaps with existing event"

// EventService manages events scheduled for an owner's contacts. Every write
// passes the ownership check and the overlap check inside one transaction.
type EventService struct {
	events    *storage.EventRepository
	authz     *Authorizer
	overlap   *schedule.OverlapChecker
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewEventService creates an event service.
func NewEventService(events *storage.EventRepository, authz *Authorizer, opts Options) *EventService {
	opts = opts.withDefaults()
	return &EventService{
		events:    events,
		authz:     authz,
		overlap:   schedule.NewOverlapChecker(events.FindOverlapping),
		publisher: opts.Publisher,
		logger:    opts.Logger,
		now:       opts.Now,
	}
}

// List returns the owner's events ordered by start time, optionally narrowed
// to one contact.
func (s *EventService) List(ctx context.Context, ownerID, contactID string) ([]models.EventWithContact, error) {
	events, err := s.events.ListByOwner(ctx, ownerID, contactID)
	if err != nil {
		return nil, storeErr(err, "", "")
	}
	if events == nil {
		events = []models.EventWithContact{}
	}
	return events, nil
}

// Get returns one owned event.
func (s *EventService) Get(ctx context.Context, eventID, ownerID string) (*models.EventWithContact, error) {
	return s.authz.Event(ctx, eventID, ownerID)
}

// Create schedules a new event for one of the owner's contacts. The slot must
// not overlap another event of that contact.
func (s *EventService) Create(ctx context.Context, ownerID string, in EventInput) (*models.EventWithContact, error) {
	in.normalize()
	if err := in.validate(s.now()); err != nil {
		return nil, err
	}

	var created *models.EventWithContact
	err := s.events.Transaction(ctx, func(ctx context.Context) error {
		contact, err := s.authz.Contact(ctx, in.ContactID, ownerID)
		if err != nil {
			return err
		}

		if err := s.ensureFree(ctx, contact.ID, in.StartDate, in.EndDate, ""); err != nil {
			return err
		}

		ev := models.Event{
			ContactID:   contact.ID,
			Title:       in.Title,
			Description: in.Description,
			StartDate:   in.StartDate,
			EndDate:     in.EndDate,
		}
		if err := s.events.Create(ctx, &ev); err != nil {
			return storeErr(err, msgContactNotFound, "")
		}
		created = withContact(ev, contact)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("event created",
		slog.String("owner_id", ownerID),
		slog.String("event_id", created.ID),
		slog.String("contact_id", created.ContactID),
	)
	s.publisher.Publish(ownerID, ChangeEventCreated, created)
	return created, nil
}

// Update replaces an owned event. The event may move to another contact of
// the same owner; its new slot is checked against that contact's other events.
func (s *EventService) Update(ctx context.Context, eventID, ownerID string, in EventInput) (*models.EventWithContact, error) {
	in.normalize()
	if err := in.validate(time.Time{}); err != nil {
		return nil, err
	}

	var updated *models.EventWithContact
	err := s.events.Transaction(ctx, func(ctx context.Context) error {
		contact, err := s.authz.Contact(ctx, in.ContactID, ownerID)
		if err != nil {
			return err
		}

		existing, err := s.authz.Event(ctx, eventID, ownerID)
		if err != nil {
			return err
		}

		if err := s.ensureFree(ctx, contact.ID, in.StartDate, in.EndDate, existing.ID); err != nil {
			return err
		}

		ev := existing.Event
		ev.ContactID = contact.ID
		ev.Title = in.Title
		ev.Description = in.Description
		ev.StartDate = in.StartDate
		ev.EndDate = in.EndDate
		if err := s.events.Update(ctx, &ev); err != nil {
			return storeErr(err, msgEventNotFound, "")
		}
		updated = withContact(ev, contact)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ownerID, ChangeEventUpdated, updated)
	return updated, nil
}

// Delete removes an owned event.
func (s *EventService) Delete(ctx context.Context, eventID, ownerID string) error {
	err := s.events.Transaction(ctx, func(ctx context.Context) error {
		ev, err := s.authz.Event(ctx, eventID, ownerID)
		if err != nil {
			return err
		}
		if err := s.events.Delete(ctx, ev.ID); err != nil {
			return storeErr(err, msgEventNotFound, "")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publisher.Publish(ownerID, ChangeEventDeleted, map[string]string{"id": eventID})
	return nil
}

func (s *EventService) ensureFree(ctx context.Context, contactID string, start, end time.Time, excludeID string) error {
	conflict, err := s.overlap.CheckOverlap(ctx, contactID, start, end, excludeID)
	if err != nil {
		return storeErr(err, "", "")
	}
	if conflict != nil {
		s.logger.Debug("event overlap rejected",
			slog.String("contact_id", contactID),
			slog.String("conflicting_event_id", conflict.ID),
		)
		return apperr.Conflict(msgEventOverlap)
	}
	return nil
}

func withContact(ev models.Event, c *models.Contact) *models.EventWithContact {
	return &models.EventWithContact{
		Event: ev,
		Contact: models.ContactRef{
			ID:        c.ID,
			FirstName: c.FirstName,
			LastName:  c.LastName,
			Email:     c.Email,
			OwnerID:   c.OwnerID,
		},
	}
}
