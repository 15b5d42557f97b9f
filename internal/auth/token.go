// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// DefaultAccessTokenTTL is used when no TTL is configured.
const DefaultAccessTokenTTL = 15 * time.Minute

const tokenIssuerName = "gatewarden"

// AccessClaims are the verified claims carried by an access token. The
// subject is the owning user's ULID; it is the only transport of identity,
// so a corrupt subject aborts authentication instead of degrading to an
// anonymous identity.
type AccessClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// ExpiredAt reports whether the claims are expired at the given instant.
// Expiry is strict: a token is already expired at exactly its exp time.
func (c *AccessClaims) ExpiredAt(now time.Time) bool {
	if c.ExpiresAt == nil {
		return true
	}
	return !now.Before(c.ExpiresAt.Time)
}

// UserID parses the subject claim as a ULID. A subject that does not parse
// fails with ErrMalformedToken.
func (c *AccessClaims) UserID() (ulid.ULID, error) {
	sub := strings.TrimSpace(c.Subject)
	if sub == "" {
		return ulid.ULID{}, ErrMalformedToken
	}
	id, err := ulid.Parse(sub)
	if err != nil {
		return ulid.ULID{}, ErrMalformedToken
	}
	return id, nil
}

// TokenIssuer signs and parses access tokens with an HMAC-SHA256 keyed MAC
// over the canonical JWT encoding. Verification is stateless: no store
// lookup happens at parse time, so revoking credentials does not invalidate
// already-issued access tokens. That is deliberate - access tokens are
// short-lived, and the refresh token is the long-lived revocable credential.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// TokenIssuerOption configures a TokenIssuer.
type TokenIssuerOption func(*TokenIssuer)

// WithAccessTokenTTL overrides the access token lifetime.
func WithAccessTokenTTL(ttl time.Duration) TokenIssuerOption {
	return func(ti *TokenIssuer) {
		if ttl > 0 {
			ti.ttl = ttl
		}
	}
}

// WithTokenClock overrides the time source (useful for tests).
func WithTokenClock(fn func() time.Time) TokenIssuerOption {
	return func(ti *TokenIssuer) {
		if fn != nil {
			ti.now = fn
		}
	}
}

// NewTokenIssuer creates a TokenIssuer from a shared secret.
func NewTokenIssuer(secret string, opts ...TokenIssuerOption) (*TokenIssuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, oops.Code("AUTH_MISSING_SECRET").Errorf("token secret is required")
	}
	ti := &TokenIssuer{
		secret: []byte(secret),
		ttl:    DefaultAccessTokenTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(ti)
	}
	return ti, nil
}

// TTL returns the configured access token lifetime.
func (ti *TokenIssuer) TTL() time.Duration {
	return ti.ttl
}

// Issue signs an access token for the user. Claims carry the user ID as
// subject plus the username and the single deterministic role.
func (ti *TokenIssuer) Issue(userID ulid.ULID, username, role string) (string, time.Time, error) {
	if username == "" {
		return "", time.Time{}, oops.Code("AUTH_ISSUE_FAILED").Errorf("username is required")
	}

	now := ti.now().UTC()
	expiresAt := now.Add(ti.ttl)
	claims := AccessClaims{
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuerName,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ti.secret)
	if err != nil {
		return "", time.Time{}, oops.Code("AUTH_ISSUE_FAILED").
			With("operation", "sign token").
			Wrap(err)
	}
	return signed, expiresAt, nil
}

// Parse verifies the token signature before trusting any claim. Expiry is
// NOT checked here; callers use Expired or ExpiredAt so the boundary stays
// explicit. A token whose signature verifies but whose subject does not
// parse as a ULID fails with ErrMalformedToken.
func (ti *TokenIssuer) Parse(token string) (*AccessClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	parsed, err := parser.ParseWithClaims(token, &AccessClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return ti.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*AccessClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != tokenIssuerName {
		return nil, ErrInvalidToken
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return nil, ErrInvalidToken
	}
	// Signature verified; now require a trustworthy subject.
	if _, err := claims.UserID(); err != nil {
		return nil, ErrMalformedToken
	}
	return claims, nil
}

// Expired reports whether the claims are expired against the issuer clock.
func (ti *TokenIssuer) Expired(claims *AccessClaims) bool {
	return claims.ExpiredAt(ti.now().UTC())
}

// Authenticate parses and validates a bearer token in one step, returning
// its claims only when the signature verifies and the token is unexpired.
func (ti *TokenIssuer) Authenticate(token string) (*AccessClaims, error) {
	claims, err := ti.Parse(token)
	if err != nil {
		return nil, err
	}
	if ti.Expired(claims) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
