// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Refresh token configuration.
const (
	RefreshTokenBytes      = 32                 // 32 bytes = 64 hex chars, 256 bits entropy
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour // one week
)

// RefreshSession is the single currently-valid refresh credential for a
// user. It lives only in the token store; the opaque token value is the
// lookup key because the refresh endpoint receives no user id.
type RefreshSession struct {
	UserID    ulid.ULID
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// NewRefreshSession creates a RefreshSession with a fresh random token.
func NewRefreshSession(userID ulid.ULID, ttl time.Duration) (*RefreshSession, error) {
	if userID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("SESSION_INVALID_USER").Errorf("user ID cannot be zero")
	}
	if ttl <= 0 {
		return nil, oops.Code("SESSION_INVALID_TTL").Errorf("refresh TTL must be positive")
	}

	token, err := GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &RefreshSession{
		UserID:    userID,
		Token:     token,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}, nil
}

// IsExpired returns true if the session has expired.
func (s *RefreshSession) IsExpired() bool {
	return s.IsExpiredAt(time.Now())
}

// IsExpiredAt returns true if the session would be expired at the given
// time. Useful for testing with deterministic time values.
func (s *RefreshSession) IsExpiredAt(t time.Time) bool {
	return t.After(s.ExpiresAt)
}

// GenerateRefreshToken creates an unguessable opaque token value.
func GenerateRefreshToken() (string, error) {
	buf := make([]byte, RefreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", oops.Code("SESSION_TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", RefreshTokenBytes).
			Wrap(err)
	}
	return hex.EncodeToString(buf), nil
}

// RefreshTokenStore is a keyed store with per-entry TTL holding at most one
// live RefreshSession per user. The primary key is the token value; a
// user-to-token index lets Put and DeleteByUser find the previous entry.
type RefreshTokenStore interface {
	// Put stores the session, atomically replacing any previous session for
	// the same user. Last writer wins: under concurrent logins only the most
	// recently stored token stays valid - earlier ones silently die.
	Put(ctx context.Context, session *RefreshSession) error

	// Get retrieves a session by token value. Returns ErrNotFound when the
	// token is unknown or past its expiry.
	Get(ctx context.Context, token string) (*RefreshSession, error)

	// DeleteByUser removes the user's current session, if any. Deleting a
	// user with no session is not an error.
	DeleteByUser(ctx context.Context, userID ulid.ULID) error

	// DeleteExpired removes all expired sessions and returns the count of
	// deleted records.
	DeleteExpired(ctx context.Context) (int64, error)
}
