package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/roster-scheduler/backend/internal/storage/models"
)

var base = time.Date(2030, 1, 15, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return base.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func TestIntervalOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"identical", Interval{at(10, 0), at(11, 0)}, Interval{at(10, 0), at(11, 0)}, true},
		{"partial tail", Interval{at(10, 0), at(11, 0)}, Interval{at(10, 30), at(11, 30)}, true},
		{"partial head", Interval{at(10, 30), at(11, 30)}, Interval{at(10, 0), at(11, 0)}, true},
		{"contained", Interval{at(9, 0), at(12, 0)}, Interval{at(10, 0), at(11, 0)}, true},
		{"containing", Interval{at(10, 0), at(11, 0)}, Interval{at(9, 0), at(12, 0)}, true},
		{"adjacent after", Interval{at(10, 0), at(11, 0)}, Interval{at(11, 0), at(12, 0)}, false},
		{"adjacent before", Interval{at(11, 0), at(12, 0)}, Interval{at(10, 0), at(11, 0)}, false},
		{"disjoint", Interval{at(8, 0), at(9, 0)}, Interval{at(10, 0), at(11, 0)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(tt.b); got != tt.want {
				t.Errorf("Overlaps() = %v, want %v", got, tt.want)
			}
			if got := tt.b.Overlaps(tt.a); got != tt.want {
				t.Errorf("Overlaps() is not symmetric: got %v, want %v", got, tt.want)
			}
		})
	}
}

// Every pair of quarter-hour aligned intervals in a four hour window is
// checked against the arithmetic definition s1 < e2 && s2 < e1.
func TestIntervalOverlapsMatchesDefinition(t *testing.T) {
	const slots = 16
	step := 15 * time.Minute

	for s1 := 0; s1 < slots; s1++ {
		for e1 := s1 + 1; e1 <= slots; e1++ {
			for s2 := 0; s2 < slots; s2++ {
				for e2 := s2 + 1; e2 <= slots; e2++ {
					a := Interval{base.Add(time.Duration(s1) * step), base.Add(time.Duration(e1) * step)}
					b := Interval{base.Add(time.Duration(s2) * step), base.Add(time.Duration(e2) * step)}

					want := s1 < e2 && s2 < e1
					if got := a.Overlaps(b); got != want {
						t.Fatalf("[%d,%d) vs [%d,%d): Overlaps() = %v, want %v", s1, e1, s2, e2, got, want)
					}
					if e1 == s2 && a.Overlaps(b) {
						t.Fatalf("[%d,%d) vs [%d,%d): adjacent intervals reported as overlapping", s1, e1, s2, e2)
					}
				}
			}
		}
	}
}

func TestIntervalValid(t *testing.T) {
	if !(Interval{at(10, 0), at(11, 0)}).Valid() {
		t.Error("expected forward interval to be valid")
	}
	if (Interval{at(10, 0), at(10, 0)}).Valid() {
		t.Error("expected empty interval to be invalid")
	}
	if (Interval{at(11, 0), at(10, 0)}).Valid() {
		t.Error("expected reversed interval to be invalid")
	}
}

// allEvents returns a finder that ignores the interval and returns every
// event of the contact, so the checker's own filtering is exercised.
func allEvents(events []models.Event) FindFunc {
	return func(ctx context.Context, contactID string, start, end time.Time, excludeID string) ([]models.Event, error) {
		var out []models.Event
		for _, ev := range events {
			if ev.ContactID == contactID {
				out = append(out, ev)
			}
		}
		return out, nil
	}
}

func TestCheckOverlap(t *testing.T) {
	events := []models.Event{
		{ID: "e1", ContactID: "c1", Title: "Standup", StartDate: at(10, 0), EndDate: at(11, 0)},
		{ID: "e2", ContactID: "c1", Title: "Review", StartDate: at(13, 0), EndDate: at(14, 0)},
		{ID: "e3", ContactID: "c2", Title: "Other", StartDate: at(10, 0), EndDate: at(18, 0)},
	}
	checker := NewOverlapChecker(allEvents(events))

	tests := []struct {
		name      string
		contactID string
		start     time.Time
		end       time.Time
		excludeID string
		wantID    string
	}{
		{"overlaps first", "c1", at(10, 30), at(11, 30), "", "e1"},
		{"touches end of first", "c1", at(11, 0), at(12, 0), "", ""},
		{"touches start of second", "c1", at(12, 0), at(13, 0), "", ""},
		{"spans both returns earliest", "c1", at(9, 0), at(15, 0), "", "e1"},
		{"same slot excluding itself", "c1", at(10, 0), at(11, 0), "e1", ""},
		{"excluded but hits second", "c1", at(10, 0), at(13, 30), "e1", "e2"},
		{"other contact ignored", "c3", at(10, 0), at(11, 0), "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := checker.CheckOverlap(context.Background(), tt.contactID, tt.start, tt.end, tt.excludeID)
			if err != nil {
				t.Fatalf("CheckOverlap() error = %v", err)
			}
			if tt.wantID == "" {
				if got != nil {
					t.Fatalf("CheckOverlap() = %s, want no conflict", got.ID)
				}
				return
			}
			if got == nil {
				t.Fatalf("CheckOverlap() = nil, want %s", tt.wantID)
			}
			if got.ID != tt.wantID {
				t.Errorf("CheckOverlap() = %s, want %s", got.ID, tt.wantID)
			}
		})
	}
}

func TestCheckOverlapFinderError(t *testing.T) {
	storeErr := errors.New("disk I/O error")
	checker := NewOverlapChecker(func(ctx context.Context, contactID string, start, end time.Time, excludeID string) ([]models.Event, error) {
		return nil, storeErr
	})

	_, err := checker.CheckOverlap(context.Background(), "c1", at(10, 0), at(11, 0), "")
	if !errors.Is(err, storeErr) {
		t.Fatalf("CheckOverlap() error = %v, want wrapped %v", err, storeErr)
	}
}
