// Package seed populates an empty database with a demo owner, a few contacts
// and a non-overlapping schedule for each of them.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roster-scheduler/backend/internal/apperr"
	"github.com/roster-scheduler/backend/internal/service"
)

// Demo account credentials.
const (
	DemoEmail    = "demo@example.com"
	DemoPassword = "demo123"
)

// Result summarizes what a seed run created.
type Result struct {
	OwnerID  string
	Contacts int
	Events   int
	// Skipped is set when the demo account already existed.
	Skipped bool
}

type demoContact struct {
	first, last, email, phone string
}

var demoContacts = []demoContact{
	{"Ada", "Lovelace", "ada@example.com", "+44 20 7946 0001"},
	{"Grace", "Hopper", "grace@example.com", "+1 202 555 0142"},
	{"Alan", "Turing", "alan@example.com", ""},
}

type demoEvent struct {
	title    string
	dayOff   int
	hour     int
	duration time.Duration
}

// Per contact; the slots never overlap within one contact.
var demoEvents = []demoEvent{
	{"Kickoff meeting", 1, 9, time.Hour},
	{"Design review", 1, 14, 90 * time.Minute},
	{"One-on-one", 2, 10, 30 * time.Minute},
	{"Planning session", 3, 13, 2 * time.Hour},
}

// Seeder creates demo data through the services so every business rule
// applies to it.
type Seeder struct {
	auth     *service.AuthService
	contacts *service.ContactService
	events   *service.EventService
	logger   *slog.Logger
	now      func() time.Time
}

// NewSeeder creates a seeder.
func NewSeeder(auth *service.AuthService, contacts *service.ContactService, events *service.EventService, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{
		auth:     auth,
		contacts: contacts,
		events:   events,
		logger:   logger.With(slog.String("component", "seed")),
		now:      time.Now,
	}
}

// Run creates the demo data. It does nothing if the demo account exists.
func (s *Seeder) Run(ctx context.Context) (*Result, error) {
	session, err := s.auth.Register(ctx, service.RegisterInput{
		Email:     DemoEmail,
		Password:  DemoPassword,
		FirstName: "Demo",
		LastName:  "Owner",
	})
	if errors.Is(err, apperr.ErrConflict) {
		s.logger.Info("demo account exists, skipping seed", slog.String("email", DemoEmail))
		return &Result{Skipped: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("registering demo owner: %w", err)
	}

	res := &Result{OwnerID: session.User.ID}
	base := s.now().UTC().Truncate(24 * time.Hour)

	for _, dc := range demoContacts {
		in := service.ContactInput{
			FirstName: dc.first,
			LastName:  dc.last,
			Email:     dc.email,
		}
		if dc.phone != "" {
			phone := dc.phone
			in.PhoneNumber = &phone
		}

		contact, err := s.contacts.Create(ctx, res.OwnerID, in)
		if err != nil {
			return nil, fmt.Errorf("creating contact %s: %w", dc.email, err)
		}
		res.Contacts++

		for _, de := range demoEvents {
			start := base.AddDate(0, 0, de.dayOff).Add(time.Duration(de.hour) * time.Hour)
			desc := fmt.Sprintf("%s with %s %s", de.title, dc.first, dc.last)
			if _, err := s.events.Create(ctx, res.OwnerID, service.EventInput{
				Title:       de.title,
				Description: &desc,
				StartDate:   start,
				EndDate:     start.Add(de.duration),
				ContactID:   contact.ID,
			}); err != nil {
				return nil, fmt.Errorf("creating event %q for %s: %w", de.title, dc.email, err)
			}
			res.Events++
		}
	}

	s.logger.Info("seed complete",
		slog.String("owner_id", res.OwnerID),
		slog.Int("contacts", res.Contacts),
		slog.Int("events", res.Events),
	)
	return res, nil
}
