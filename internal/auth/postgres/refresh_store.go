// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/gatewarden/gatewarden/internal/auth"
)

// RefreshStore implements auth.RefreshTokenStore on PostgreSQL. The token
// value is the primary key; a unique index on user_id lets a single upsert
// atomically replace the user's previous session, so last writer wins under
// concurrent logins.
type RefreshStore struct {
	pool pool
}

// NewRefreshStore creates a new RefreshStore.
func NewRefreshStore(pool pool) *RefreshStore {
	return &RefreshStore{pool: pool}
}

// Put stores the session, replacing any previous session for the user.
func (s *RefreshStore) Put(ctx context.Context, session *auth.RefreshSession) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO refresh_sessions (token, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET token = EXCLUDED.token, expires_at = EXCLUDED.expires_at, created_at = EXCLUDED.created_at
	`,
		session.Token,
		session.UserID.String(),
		session.ExpiresAt,
		session.CreatedAt,
	)
	if err != nil {
		return oops.Code("REFRESH_PUT_FAILED").
			With("operation", "upsert refresh session").
			With("user_id", session.UserID.String()).
			Wrap(err)
	}
	return nil
}

// Get retrieves a session by token value. Expired entries are filtered in
// the query, so they behave exactly like missing ones.
func (s *RefreshStore) Get(ctx context.Context, token string) (*auth.RefreshSession, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT token, user_id, expires_at, created_at
		FROM refresh_sessions
		WHERE token = $1 AND expires_at > now()
	`, token)

	var (
		tokenVal  string
		userIDStr string
		expiresAt time.Time
		createdAt time.Time
	)
	err := row.Scan(&tokenVal, &userIDStr, &expiresAt, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("REFRESH_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("REFRESH_GET_FAILED").
			With("operation", "get refresh session by token").
			Wrap(err)
	}

	userID, err := ulid.Parse(userIDStr)
	if err != nil {
		return nil, oops.Code("REFRESH_INVALID_USER_ID").
			With("operation", "parse user id").
			With("user_id", userIDStr).
			Wrap(err)
	}

	return &auth.RefreshSession{
		UserID:    userID,
		Token:     tokenVal,
		ExpiresAt: expiresAt,
		CreatedAt: createdAt,
	}, nil
}

// DeleteByUser removes the user's current session, if any.
func (s *RefreshStore) DeleteByUser(ctx context.Context, userID ulid.ULID) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM refresh_sessions WHERE user_id = $1
	`, userID.String())
	if err != nil {
		return oops.Code("REFRESH_DELETE_FAILED").
			With("operation", "delete refresh session by user").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return nil
}

// DeleteExpired removes all expired sessions and returns the count of
// deleted records.
func (s *RefreshStore) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := s.pool.Exec(ctx, `
		DELETE FROM refresh_sessions WHERE expires_at <= now()
	`)
	if err != nil {
		return 0, oops.Code("REFRESH_SWEEP_FAILED").
			With("operation", "delete expired refresh sessions").
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// Compile-time interface check.
var _ auth.RefreshTokenStore = (*RefreshStore)(nil)
