package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roster-scheduler/backend/internal/storage/models"
)

// EventRepository provides data access for events. Events carry no owner
// column; owner-scoped queries join through contacts.
type EventRepository struct {
	BaseRepository
}

// NewEventRepository creates a new event repository.
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

const (
	eventColumns = `e.id, e.contact_id, e.title, e.description, e.start_at, e.end_at, e.created_at, e.updated_at`

	eventWithContactColumns = eventColumns + `, c.id, c.first_name, c.last_name, c.email, c.owner_id`
)

// Create inserts a new event.
func (r *EventRepository) Create(ctx context.Context, e *models.Event) error {
	e.ID = GenerateID()
	e.CreatedAt = r.Now()
	e.UpdatedAt = e.CreatedAt

	_, err := r.Conn(ctx).ExecContext(ctx, `
		INSERT INTO events (
			id, contact_id, title, description, start_at, end_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.ID, e.ContactID, e.Title, e.Description, e.StartDate, e.EndDate,
		e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting event: %w", mapErr(err))
	}

	return nil
}

// GetWithContact retrieves an event joined with its contact.
// ErrNotFound is returned if the event or its contact does not exist.
func (r *EventRepository) GetWithContact(ctx context.Context, id string) (*models.EventWithContact, error) {
	row := r.Conn(ctx).QueryRowContext(ctx, `
		SELECT `+eventWithContactColumns+`
		FROM events e
		JOIN contacts c ON c.id = e.contact_id
		WHERE e.id = ?
	`, id)

	ev, err := scanEventWithContact(row)
	if err != nil {
		return nil, fmt.Errorf("querying event: %w", mapErr(err))
	}
	return ev, nil
}

// ListByOwner retrieves the events of all contacts owned by ownerID, optionally
// narrowed to one contact, ordered by start time.
func (r *EventRepository) ListByOwner(ctx context.Context, ownerID, contactID string) ([]models.EventWithContact, error) {
	query := `
		SELECT ` + eventWithContactColumns + `
		FROM events e
		JOIN contacts c ON c.id = e.contact_id
		WHERE c.owner_id = ?`
	args := []any{ownerID}

	if contactID != "" {
		query += " AND e.contact_id = ?"
		args = append(args, contactID)
	}
	query += " ORDER BY e.start_at, e.id"

	rows, err := r.Conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var events []models.EventWithContact
	for rows.Next() {
		ev, err := scanEventWithContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, *ev)
	}
	return events, rows.Err()
}

// ListStartingBetween retrieves events whose start lies in [from, to),
// joined with their contacts.
func (r *EventRepository) ListStartingBetween(ctx context.Context, from, to time.Time) ([]models.EventWithContact, error) {
	rows, err := r.Conn(ctx).QueryContext(ctx, `
		SELECT `+eventWithContactColumns+`
		FROM events e
		JOIN contacts c ON c.id = e.contact_id
		WHERE e.start_at >= ? AND e.start_at < ?
		ORDER BY e.start_at
	`, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("querying upcoming events: %w", err)
	}
	defer rows.Close()

	var events []models.EventWithContact
	for rows.Next() {
		ev, err := scanEventWithContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, *ev)
	}
	return events, rows.Err()
}

// ListByContact retrieves all events of a contact ordered by start time.
func (r *EventRepository) ListByContact(ctx context.Context, contactID string) ([]models.Event, error) {
	rows, err := r.Conn(ctx).QueryContext(ctx, `
		SELECT `+eventColumns+`
		FROM events e
		WHERE e.contact_id = ?
		ORDER BY e.start_at, e.id
	`, contactID)
	if err != nil {
		return nil, fmt.Errorf("querying contact events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// CountByContact returns the number of events of a contact.
func (r *EventRepository) CountByContact(ctx context.Context, contactID string) (int, error) {
	var count int
	err := r.Conn(ctx).QueryRowContext(ctx, `
		SELECT COUNT(*) FROM events WHERE contact_id = ?
	`, contactID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting contact events: %w", err)
	}
	return count, nil
}

// NextStart returns the earliest event start of a contact at or after now,
// or nil if the contact has no upcoming events.
func (r *EventRepository) NextStart(ctx context.Context, contactID string, now time.Time) (*time.Time, error) {
	var start time.Time
	err := r.Conn(ctx).QueryRowContext(ctx, `
		SELECT start_at FROM events
		WHERE contact_id = ? AND start_at >= ?
		ORDER BY start_at
		LIMIT 1
	`, contactID, now.UTC()).Scan(&start)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying next event: %w", err)
	}
	return &start, nil
}

// FindOverlapping returns events of a contact whose [start, end) intersects
// [start, end), excluding excludeID, ordered by start time.
func (r *EventRepository) FindOverlapping(ctx context.Context, contactID string, start, end time.Time, excludeID string) ([]models.Event, error) {
	rows, err := r.Conn(ctx).QueryContext(ctx, `
		SELECT `+eventColumns+`
		FROM events e
		WHERE e.contact_id = ?
		  AND e.id != ?
		  AND e.start_at < ?
		  AND e.end_at > ?
		ORDER BY e.start_at, e.id
	`, contactID, excludeID, end.UTC(), start.UTC())
	if err != nil {
		return nil, fmt.Errorf("querying overlapping events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// Update updates an existing event, including a move to another contact.
func (r *EventRepository) Update(ctx context.Context, e *models.Event) error {
	e.UpdatedAt = r.Now()

	result, err := r.Conn(ctx).ExecContext(ctx, `
		UPDATE events SET
			contact_id = ?, title = ?, description = ?, start_at = ?, end_at = ?, updated_at = ?
		WHERE id = ?
	`,
		e.ContactID, e.Title, e.Description, e.StartDate, e.EndDate, e.UpdatedAt, e.ID,
	)
	if err != nil {
		return fmt.Errorf("updating event: %w", mapErr(err))
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("event %s: %w", e.ID, ErrNotFound)
	}

	return nil
}

// Delete removes an event by ID.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	result, err := r.Conn(ctx).ExecContext(ctx, "DELETE FROM events WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting event: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("event %s: %w", id, ErrNotFound)
	}

	return nil
}

// DeleteByContact removes all events of a contact and returns how many were removed.
func (r *EventRepository) DeleteByContact(ctx context.Context, contactID string) (int64, error) {
	result, err := r.Conn(ctx).ExecContext(ctx, "DELETE FROM events WHERE contact_id = ?", contactID)
	if err != nil {
		return 0, fmt.Errorf("deleting events for contact: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEventWithContact(row rowScanner) (*models.EventWithContact, error) {
	ev := &models.EventWithContact{}
	err := row.Scan(
		&ev.ID, &ev.ContactID, &ev.Title, &ev.Description, &ev.StartDate, &ev.EndDate,
		&ev.CreatedAt, &ev.UpdatedAt,
		&ev.Contact.ID, &ev.Contact.FirstName, &ev.Contact.LastName, &ev.Contact.Email,
		&ev.Contact.OwnerID,
	)
	if err != nil {
		return nil, err
	}
	return ev, nil
}

func scanEvents(rows *sql.Rows) ([]models.Event, error) {
	var events []models.Event
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(
			&e.ID, &e.ContactID, &e.Title, &e.Description, &e.StartDate, &e.EndDate,
			&e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
