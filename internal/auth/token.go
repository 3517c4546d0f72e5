// Package auth issues and verifies owner bearer tokens and hashes passwords.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

// MinSecretLength is the shortest accepted HMAC signing secret, in bytes.
const MinSecretLength = 32

const issuer = "roster-scheduler"

var (
	// ErrInvalidToken is returned for malformed, forged or expired tokens.
	ErrInvalidToken = errors.New("auth: invalid or expired token")

	// ErrWeakSecret is returned when the signing secret is too short.
	ErrWeakSecret = errors.New("auth: signing secret must be at least 32 bytes")
)

// Claims is the identity carried by a verified token.
type Claims struct {
	OwnerID   string
	Email     string
	ExpiresAt time.Time
}

type customClaims struct {
	Email string `json:"email,omitempty"`
}

// TokenManager signs and verifies HS256 JWTs.
type TokenManager struct {
	secret []byte
	signer jose.Signer
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a token manager with the given secret and token lifetime.
func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("auth: token ttl must be positive, got %s", ttl)
	}

	key := []byte(secret)
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.HS256, Key: key},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating token signer: %w", err)
	}

	return &TokenManager{
		secret: key,
		signer: signer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue creates a signed token for the owner.
func (m *TokenManager) Issue(ownerID, email string) (string, time.Time, error) {
	now := m.now()
	expires := now.Add(m.ttl)

	token, err := jwt.Signed(m.signer).
		Claims(jwt.Claims{
			Issuer:   issuer,
			Subject:  ownerID,
			IssuedAt: jwt.NewNumericDate(now),
			Expiry:   jwt.NewNumericDate(expires),
		}).
		Claims(customClaims{Email: email}).
		Serialize()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}

	return token, expires, nil
}

// Verify checks the signature and expiry of raw and returns its claims.
func (m *TokenManager) Verify(raw string) (*Claims, error) {
	tok, err := jwt.ParseSigned(raw, []jose.SignatureAlgorithm{jose.HS256})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	var std jwt.Claims
	var custom customClaims
	if err := tok.Claims(m.secret, &std, &custom); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if err := std.ValidateWithLeeway(jwt.Expected{Issuer: issuer, Time: m.now()}, 0); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if std.Subject == "" || std.Expiry == nil {
		return nil, ErrInvalidToken
	}

	return &Claims{
		OwnerID:   std.Subject,
		Email:     custom.Email,
		ExpiresAt: std.Expiry.Time(),
	}, nil
}
