// Package reminder announces events that are about to start to their owners.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/roster-scheduler/backend/internal/storage/models"
	"github.com/roster-scheduler/backend/internal/websocket"
)

// DefaultSpec runs the reminder scan every minute.
const DefaultSpec = "@every 1m"

// UpcomingLister returns events starting in [from, to) with their contacts.
type UpcomingLister interface {
	ListStartingBetween(ctx context.Context, from, to time.Time) ([]models.EventWithContact, error)
}

// Notifier delivers a reminder to an owner.
type Notifier interface {
	BroadcastUpcoming(ownerID string, payload websocket.UpcomingPayload)
}

// Scheduler periodically finds events starting within the lead time and
// notifies each owner once per event start.
type Scheduler struct {
	cron     *cron.Cron
	spec     string
	lead     time.Duration
	events   UpcomingLister
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.Mutex
	notified map[string]time.Time
}

// NewScheduler creates a reminder scheduler. An empty spec uses DefaultSpec.
func NewScheduler(events UpcomingLister, notifier Notifier, spec string, lead time.Duration, logger *slog.Logger) *Scheduler {
	if spec == "" {
		spec = DefaultSpec
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:     cron.New(),
		spec:     spec,
		lead:     lead,
		events:   events,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "reminder")),
		now:      time.Now,
		notified: make(map[string]time.Time),
	}
}

// Start registers the scan job and starts the cron runner.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, func() {
		if _, err := s.RunOnce(context.Background()); err != nil {
			s.logger.Error("reminder scan failed", slog.Any("error", err))
		}
	}); err != nil {
		return fmt.Errorf("scheduling reminders %q: %w", s.spec, err)
	}

	s.cron.Start()
	s.logger.Info("reminder scheduler started", slog.String("spec", s.spec), slog.Duration("lead", s.lead))
	return nil
}

// Stop waits for a running scan to finish and stops the scheduler.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("reminder scheduler stopped")
}

// RunOnce scans for upcoming events and sends reminders that have not been
// sent yet. It returns the number of reminders sent.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	now := s.now().UTC().Truncate(time.Second)

	events, err := s.events.ListStartingBetween(ctx, now, now.Add(s.lead))
	if err != nil {
		return 0, fmt.Errorf("listing upcoming events: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Forget events that have started; a rescheduled event gets a new reminder.
	for id, start := range s.notified {
		if start.Before(now) {
			delete(s.notified, id)
		}
	}

	sent := 0
	for _, ev := range events {
		if start, ok := s.notified[ev.ID]; ok && start.Equal(ev.StartDate) {
			continue
		}
		s.notifier.BroadcastUpcoming(ev.OwnerID(), websocket.UpcomingPayload{
			EventID:     ev.ID,
			Title:       ev.Title,
			ContactID:   ev.ContactID,
			ContactName: strings.TrimSpace(ev.Contact.FirstName + " " + ev.Contact.LastName),
			StartDate:   ev.StartDate,
			EndDate:     ev.EndDate,
			StartsIn:    ev.StartDate.Sub(now).Round(time.Minute).String(),
		})
		s.notified[ev.ID] = ev.StartDate
		sent++
	}

	if sent > 0 {
		s.logger.Info("reminders sent", slog.Int("count", sent))
	}
	return sent, nil
}
