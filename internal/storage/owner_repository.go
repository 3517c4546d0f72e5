package storage

import (
	"context"
	"fmt"

	"github.com/roster-scheduler/backend/internal/storage/models"
)

// OwnerRepository provides data access for owner accounts.
type OwnerRepository struct {
	BaseRepository
}

// NewOwnerRepository creates a new owner repository.
func NewOwnerRepository(db *DB) *OwnerRepository {
	return &OwnerRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

const ownerColumns = `id, email, password_hash, first_name, last_name, role, active, created_at, updated_at`

// Create inserts a new owner. ErrDuplicate is returned if the email is taken.
func (r *OwnerRepository) Create(ctx context.Context, owner *models.Owner) error {
	owner.ID = GenerateID()
	owner.CreatedAt = r.Now()
	owner.UpdatedAt = owner.CreatedAt
	if owner.Role == "" {
		owner.Role = models.RoleUser
	}

	_, err := r.Conn(ctx).ExecContext(ctx, `
		INSERT INTO owners (`+ownerColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		owner.ID, owner.Email, owner.PasswordHash, owner.FirstName, owner.LastName,
		owner.Role, owner.Active, owner.CreatedAt, owner.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting owner: %w", mapErr(err))
	}

	return nil
}

// GetByID retrieves an owner by ID. ErrNotFound is returned if absent.
func (r *OwnerRepository) GetByID(ctx context.Context, id string) (*models.Owner, error) {
	owner := &models.Owner{}
	err := r.Conn(ctx).QueryRowContext(ctx, `
		SELECT `+ownerColumns+` FROM owners WHERE id = ?
	`, id).Scan(
		&owner.ID, &owner.Email, &owner.PasswordHash, &owner.FirstName, &owner.LastName,
		&owner.Role, &owner.Active, &owner.CreatedAt, &owner.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("querying owner: %w", mapErr(err))
	}
	return owner, nil
}

// GetByEmail retrieves an owner by email. ErrNotFound is returned if absent.
func (r *OwnerRepository) GetByEmail(ctx context.Context, email string) (*models.Owner, error) {
	owner := &models.Owner{}
	err := r.Conn(ctx).QueryRowContext(ctx, `
		SELECT `+ownerColumns+` FROM owners WHERE email = ?
	`, email).Scan(
		&owner.ID, &owner.Email, &owner.PasswordHash, &owner.FirstName, &owner.LastName,
		&owner.Role, &owner.Active, &owner.CreatedAt, &owner.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("querying owner by email: %w", mapErr(err))
	}
	return owner, nil
}

// EmailTaken reports whether another owner than excludeID uses email.
func (r *OwnerRepository) EmailTaken(ctx context.Context, email, excludeID string) (bool, error) {
	var count int
	err := r.Conn(ctx).QueryRowContext(ctx, `
		SELECT COUNT(*) FROM owners WHERE email = ? AND id != ?
	`, email, excludeID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking owner email: %w", err)
	}
	return count > 0, nil
}

// Update writes the profile fields and password hash of an existing owner.
func (r *OwnerRepository) Update(ctx context.Context, owner *models.Owner) error {
	owner.UpdatedAt = r.Now()

	result, err := r.Conn(ctx).ExecContext(ctx, `
		UPDATE owners SET
			email = ?, password_hash = ?, first_name = ?, last_name = ?,
			role = ?, active = ?, updated_at = ?
		WHERE id = ?
	`,
		owner.Email, owner.PasswordHash, owner.FirstName, owner.LastName,
		owner.Role, owner.Active, owner.UpdatedAt, owner.ID,
	)
	if err != nil {
		return fmt.Errorf("updating owner: %w", mapErr(err))
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("owner %s: %w", owner.ID, ErrNotFound)
	}

	return nil
}
