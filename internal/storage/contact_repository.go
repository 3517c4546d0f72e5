package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roster-scheduler/backend/internal/storage/models"
)

// ContactRepository provides data access for contacts. Every read and write is
// keyed by owner: a contact owned by someone else behaves exactly like a
// missing one.
type ContactRepository struct {
	BaseRepository
}

// NewContactRepository creates a new contact repository.
func NewContactRepository(db *DB) *ContactRepository {
	return &ContactRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

const contactColumns = `id, owner_id, first_name, last_name, email, phone_number, created_at, updated_at`

// Create inserts a new contact. ErrDuplicate is returned if the owner already
// has a contact with the same email.
func (r *ContactRepository) Create(ctx context.Context, c *models.Contact) error {
	c.ID = GenerateID()
	c.CreatedAt = r.Now()
	c.UpdatedAt = c.CreatedAt

	_, err := r.Conn(ctx).ExecContext(ctx, `
		INSERT INTO contacts (`+contactColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.ID, c.OwnerID, c.FirstName, c.LastName, c.Email, c.PhoneNumber,
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting contact: %w", mapErr(err))
	}

	return nil
}

// GetByID retrieves a contact by ID within one owner's roster.
// ErrNotFound is returned if it is absent or owned by someone else.
func (r *ContactRepository) GetByID(ctx context.Context, id, ownerID string) (*models.Contact, error) {
	c := &models.Contact{}
	err := r.Conn(ctx).QueryRowContext(ctx, `
		SELECT `+contactColumns+`
		FROM contacts WHERE id = ? AND owner_id = ?
	`, id, ownerID).Scan(
		&c.ID, &c.OwnerID, &c.FirstName, &c.LastName, &c.Email, &c.PhoneNumber,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("querying contact: %w", mapErr(err))
	}
	return c, nil
}

// ListByOwner retrieves all contacts of an owner ordered by name.
func (r *ContactRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Contact, error) {
	rows, err := r.Conn(ctx).QueryContext(ctx, `
		SELECT `+contactColumns+`
		FROM contacts
		WHERE owner_id = ?
		ORDER BY first_name, last_name, created_at
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying contacts: %w", err)
	}
	defer rows.Close()

	return scanContacts(rows)
}

func scanContacts(rows *sql.Rows) ([]models.Contact, error) {
	var contacts []models.Contact
	for rows.Next() {
		var c models.Contact
		if err := rows.Scan(
			&c.ID, &c.OwnerID, &c.FirstName, &c.LastName, &c.Email, &c.PhoneNumber,
			&c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// EmailTaken reports whether the owner has a contact other than excludeID
// using email. Pass an empty excludeID on create.
func (r *ContactRepository) EmailTaken(ctx context.Context, ownerID, email, excludeID string) (bool, error) {
	var count int
	err := r.Conn(ctx).QueryRowContext(ctx, `
		SELECT COUNT(*) FROM contacts WHERE owner_id = ? AND email = ? AND id != ?
	`, ownerID, email, excludeID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking contact email: %w", err)
	}
	return count > 0, nil
}

// Update updates an existing contact of c.OwnerID.
// ErrNotFound is returned if no such contact belongs to that owner.
func (r *ContactRepository) Update(ctx context.Context, c *models.Contact) error {
	c.UpdatedAt = r.Now()

	result, err := r.Conn(ctx).ExecContext(ctx, `
		UPDATE contacts SET
			first_name = ?, last_name = ?, email = ?, phone_number = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?
	`,
		c.FirstName, c.LastName, c.Email, c.PhoneNumber, c.UpdatedAt, c.ID, c.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("updating contact: %w", mapErr(err))
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("contact %s: %w", c.ID, ErrNotFound)
	}

	return nil
}

// Delete removes a contact of ownerID.
// ErrNotFound is returned if no such contact belongs to that owner.
func (r *ContactRepository) Delete(ctx context.Context, id, ownerID string) error {
	result, err := r.Conn(ctx).ExecContext(ctx, "DELETE FROM contacts WHERE id = ? AND owner_id = ?", id, ownerID)
	if err != nil {
		return fmt.Errorf("deleting contact: %w", mapErr(err))
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("contact %s: %w", id, ErrNotFound)
	}

	return nil
}
