package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/roster-scheduler/backend/internal/apperr"
	"github.com/roster-scheduler/backend/internal/auth"
	"github.com/roster-scheduler/backend/internal/storage"
	"github.com/roster-scheduler/backend/internal/storage/models"
)

const (
	msgOwnerExists        = "User with this email already exists"
	msgBadCredentials     = "Invalid email or password"
	msgAccountDeactivated = "Account is deactivated"
	msgInvalidToken       = "Invalid or expired token"
	msgOwnerNotFound      = "User not found"
)

// AuthResult is returned by register and login.
type AuthResult struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
	User      *models.Owner `json:"user"`
}

// AuthService manages owner accounts and sessions.
type AuthService struct {
	owners *storage.OwnerRepository
	tokens *auth.TokenManager
	hasher *auth.Hasher
	logger *slog.Logger
}

// NewAuthService creates an auth service.
func NewAuthService(owners *storage.OwnerRepository, tokens *auth.TokenManager, hasher *auth.Hasher, opts Options) *AuthService {
	opts = opts.withDefaults()
	return &AuthService{
		owners: owners,
		tokens: tokens,
		hasher: hasher,
		logger: opts.Logger,
	}
}

// Register creates an active owner account and signs it in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperr.Internal(err, "An unexpected error occurred")
	}

	owner := &models.Owner{
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         models.RoleUser,
		Active:       true,
	}

	err = s.owners.Transaction(ctx, func(ctx context.Context) error {
		taken, err := s.owners.EmailTaken(ctx, owner.Email, "")
		if err != nil {
			return storeErr(err, "", "")
		}
		if taken {
			return apperr.Conflict(msgOwnerExists)
		}
		if err := s.owners.Create(ctx, owner); err != nil {
			return storeErr(err, "", msgOwnerExists)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("owner registered", slog.String("owner_id", owner.ID))
	return s.session(owner)
}

// Login verifies credentials and signs the owner in. Unknown emails and wrong
// passwords fail identically.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	owner, err := s.owners.GetByEmail(ctx, in.Email)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.Unauthorized(msgBadCredentials)
	}
	if err != nil {
		return nil, storeErr(err, "", "")
	}

	if err := s.hasher.Compare(owner.PasswordHash, in.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, apperr.Unauthorized(msgBadCredentials)
		}
		return nil, apperr.Internal(err, "An unexpected error occurred")
	}
	if !owner.Active {
		return nil, apperr.Unauthorized(msgAccountDeactivated)
	}

	return s.session(owner)
}

// Authenticate resolves a bearer token to an active owner.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.Owner, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, apperr.Unauthorized(msgInvalidToken)
	}

	owner, err := s.owners.GetByID(ctx, claims.OwnerID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.Unauthorized(msgInvalidToken)
	}
	if err != nil {
		return nil, storeErr(err, "", "")
	}
	if !owner.Active {
		return nil, apperr.Unauthorized(msgAccountDeactivated)
	}
	return owner, nil
}

// Me returns the owner's own account.
func (s *AuthService) Me(ctx context.Context, ownerID string) (*models.Owner, error) {
	owner, err := s.owners.GetByID(ctx, ownerID)
	if err != nil {
		return nil, storeErr(err, msgOwnerNotFound, "")
	}
	return owner, nil
}

// UpdateProfile changes the owner's name and email.
func (s *AuthService) UpdateProfile(ctx context.Context, ownerID string, in ProfileInput) (*models.Owner, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var owner *models.Owner
	err := s.owners.Transaction(ctx, func(ctx context.Context) error {
		var err error
		owner, err = s.owners.GetByID(ctx, ownerID)
		if err != nil {
			return storeErr(err, msgOwnerNotFound, "")
		}
		if err := s.checkEmail(ctx, in.Email, ownerID); err != nil {
			return err
		}

		owner.FirstName = in.FirstName
		owner.LastName = in.LastName
		owner.Email = in.Email
		if err := s.owners.Update(ctx, owner); err != nil {
			return storeErr(err, msgOwnerNotFound, msgEmailTaken)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return owner, nil
}

// ChangePassword verifies the current password, then updates the profile
// fields and replaces the password.
func (s *AuthService) ChangePassword(ctx context.Context, ownerID string, in ChangePasswordInput) (*models.Owner, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		return nil, apperr.Internal(err, "An unexpected error occurred")
	}

	var owner *models.Owner
	err = s.owners.Transaction(ctx, func(ctx context.Context) error {
		var err error
		owner, err = s.owners.GetByID(ctx, ownerID)
		if err != nil {
			return storeErr(err, msgOwnerNotFound, "")
		}

		if err := s.hasher.Compare(owner.PasswordHash, in.CurrentPassword); err != nil {
			if errors.Is(err, auth.ErrPasswordMismatch) {
				return apperr.Validation(apperr.FieldError{
					Field:   "currentPassword",
					Message: "Current password is incorrect",
				})
			}
			return apperr.Internal(err, "An unexpected error occurred")
		}

		if in.Email != owner.Email {
			if err := s.checkEmail(ctx, in.Email, ownerID); err != nil {
				return err
			}
		}

		owner.FirstName = in.FirstName
		owner.LastName = in.LastName
		owner.Email = in.Email
		owner.PasswordHash = hash
		if err := s.owners.Update(ctx, owner); err != nil {
			return storeErr(err, msgOwnerNotFound, msgEmailTaken)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("owner password changed", slog.String("owner_id", ownerID))
	return owner, nil
}

func (s *AuthService) checkEmail(ctx context.Context, email, ownerID string) error {
	taken, err := s.owners.EmailTaken(ctx, email, ownerID)
	if err != nil {
		return storeErr(err, "", "")
	}
	if taken {
		return apperr.Conflict(msgEmailTaken)
	}
	return nil
}

func (s *AuthService) session(owner *models.Owner) (*AuthResult, error) {
	token, expires, err := s.tokens.Issue(owner.ID, owner.Email)
	if err != nil {
		return nil, apperr.Internal(err, "An unexpected error occurred")
	}
	return &AuthResult{Token: token, ExpiresAt: expires, User: owner}, nil
}
