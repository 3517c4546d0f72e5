// Package schedule decides whether a proposed time slot collides with a
// contact's existing events.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/roster-scheduler/backend/internal/storage/models"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether the interval is non-empty.
func (i Interval) Valid() bool {
	return i.End.After(i.Start)
}

// Overlaps reports whether i and o share any instant. Touching endpoints do
// not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

// FindFunc returns the events of contactID intersecting [start, end), skipping
// excludeID, ordered by start time.
type FindFunc func(ctx context.Context, contactID string, start, end time.Time, excludeID string) ([]models.Event, error)

// OverlapChecker detects events that collide with a proposed slot.
type OverlapChecker struct {
	findOverlapping FindFunc
}

// NewOverlapChecker creates a new overlap checker backed by findFunc.
func NewOverlapChecker(findFunc FindFunc) *OverlapChecker {
	return &OverlapChecker{
		findOverlapping: findFunc,
	}
}

// CheckOverlap returns the earliest-starting event of contactID that overlaps
// [start, end), or nil when the slot is free. excludeID names an event to
// ignore, normally the one being updated.
func (c *OverlapChecker) CheckOverlap(ctx context.Context, contactID string, start, end time.Time, excludeID string) (*models.Event, error) {
	found, err := c.findOverlapping(ctx, contactID, start, end, excludeID)
	if err != nil {
		return nil, fmt.Errorf("checking overlap: %w", err)
	}

	proposed := Interval{Start: start, End: end}
	for i := range found {
		// The store filter is authoritative; this guards against a finder
		// that returns a superset.
		if found[i].ID == excludeID {
			continue
		}
		if proposed.Overlaps(Interval{Start: found[i].StartDate, End: found[i].EndDate}) {
			ev := found[i]
			return &ev, nil
		}
	}
	return nil, nil
}
