// Package token signs and verifies the bearer credentials the platform
// issues at registration, login, and refresh.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"investgate/pkg/domain"
	dErrors "investgate/pkg/domain-errors"
)

// Claims carries subject identity and role inside the signed credential.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Verified is the decoded result of a successful verification. The role is
// the one baked into the credential at issue time; callers still confirm it
// against the user directory before trusting it.
type Verified struct {
	UserID    domain.UserID
	Role      domain.Role
	JTI       string
	ExpiresAt time.Time
}

// Codec issues and verifies HS256-signed credentials.
type Codec struct {
	signingKey []byte
	issuer     string
	now        func() time.Time
}

// Option customizes a Codec. Used by tests to pin the clock.
type Option func(*Codec)

// WithClock overrides the time source used for issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

func NewCodec(signingKey, issuer string, opts ...Option) *Codec {
	c := &Codec{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Issue produces a signed credential for the subject with the given
// lifetime. The credential is never mutated after issue; it expires by
// declared lifetime only.
func (c *Codec) Issue(userID domain.UserID, role domain.Role, lifetime time.Duration) (string, error) {
	now := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    c.issuer,
			ID:        uuid.NewString(),
		},
	})

	signed, err := token.SignedString(c.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign credential")
	}
	return signed, nil
}

// Verify checks signature, shape, and expiry. Every failure collapses to a
// single unauthorized error so callers cannot distinguish expired from
// forged; the underlying cause stays available for server logs via Unwrap.
// A valid signature with an unknown subject is NOT an error here; that
// verdict belongs to the user directory.
func (c *Codec) Verify(tokenString string) (*Verified, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return c.signingKey, nil
	}, jwt.WithTimeFunc(c.now))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "Invalid or expired token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "Invalid or expired token")
	}

	userID, err := domain.ParseUserID(claims.Subject)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "Invalid or expired token")
	}
	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "Invalid or expired token")
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return &Verified{
		UserID:    userID,
		Role:      role,
		JTI:       claims.ID,
		ExpiresAt: expiresAt,
	}, nil
}

// IsExpired reports whether a verification failure was caused by expiry.
// Only server-side logging may branch on this; client responses must not.
func IsExpired(err error) bool {
	return errors.Is(err, jwt.ErrTokenExpired)
}
