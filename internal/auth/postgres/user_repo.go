// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

// Package postgres implements the auth storage contracts on PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/gatewarden/gatewarden/internal/auth"
)

// Constraint names from the users migration. The insert-time unique
// violation is the authoritative duplicate signal; these names decide which
// duplicate sentinel to surface.
const (
	emailConstraint    = "users_email_key"
	usernameConstraint = "users_username_key"
)

// pool abstracts the pgxpool methods the repositories use, so tests can
// substitute pgxmock.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserRepository implements auth.UserRepository using PostgreSQL.
type UserRepository struct {
	pool pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create stores a new user. A unique-constraint violation on email or
// username is translated into the matching duplicate sentinel so callers
// see the same outcome whether the pre-check or the insert detected it.
func (r *UserRepository) Create(ctx context.Context, user *auth.User) error {
	rolesJSON, err := json.Marshal(user.Roles)
	if err != nil {
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "marshal roles").
			Wrap(err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO users (id, email, username, password_hash, provider, roles, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		user.ID.String(),
		user.Email,
		user.Username,
		user.PasswordHash,
		string(user.Provider),
		rolesJSON,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if dup := duplicateError(err); dup != nil {
			return dup
		}
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("username", user.Username).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, username, password_hash, provider, roles, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id.String())

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_ID_FAILED").
			With("operation", "get user by id").
			With("id", id.String()).
			Wrap(err)
	}
	return user, nil
}

// GetByEmail retrieves a user by email (case-insensitive).
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, username, password_hash, provider, roles, created_at, updated_at
		FROM users
		WHERE email = LOWER($1)
	`, email)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_EMAIL_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}
	return user, nil
}

// ExistsByEmail reports whether a user with the email exists.
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE email = LOWER($1))
	`, email).Scan(&exists)
	if err != nil {
		return false, oops.Code("USER_EXISTS_FAILED").
			With("operation", "check email exists").
			Wrap(err)
	}
	return exists, nil
}

// ExistsByUsername reports whether a user with the username exists
// (case-insensitive).
func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE LOWER(username) = LOWER($1))
	`, username).Scan(&exists)
	if err != nil {
		return false, oops.Code("USER_EXISTS_FAILED").
			With("operation", "check username exists").
			Wrap(err)
	}
	return exists, nil
}

// Update updates an existing user's mutable fields. Email, username, and
// provider are fixed at creation and never written here.
func (r *UserRepository) Update(ctx context.Context, user *auth.User) error {
	rolesJSON, err := json.Marshal(user.Roles)
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").
			With("operation", "marshal roles").
			Wrap(err)
	}

	result, err := r.pool.Exec(ctx, `
		UPDATE users SET password_hash = $2, roles = $3, updated_at = $4
		WHERE id = $1
	`,
		user.ID.String(),
		user.PasswordHash,
		rolesJSON,
		user.UpdatedAt,
	)
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").
			With("operation", "update user").
			With("id", user.ID.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("id", user.ID.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// Delete removes a user.
func (r *UserRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := r.pool.Exec(ctx, `
		DELETE FROM users WHERE id = $1
	`, id.String())
	if err != nil {
		return oops.Code("USER_DELETE_FAILED").
			With("operation", "delete user").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// duplicateError maps a unique-constraint violation to the matching
// duplicate sentinel, or returns nil for any other error.
func duplicateError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return nil
	}
	switch pgErr.ConstraintName {
	case emailConstraint:
		return auth.ErrDuplicateEmail
	case usernameConstraint:
		return auth.ErrDuplicateUsername
	default:
		return nil
	}
}

// scanUser scans a single row into a User. Callers are responsible for
// handling pgx.ErrNoRows.
func scanUser(row pgx.Row) (*auth.User, error) {
	var (
		idStr     string
		email     string
		username  string
		hash      string
		provider  string
		rolesJSON []byte
		createdAt time.Time
		updatedAt time.Time
	)

	err := row.Scan(&idStr, &email, &username, &hash, &provider, &rolesJSON, &createdAt, &updatedAt)
	if err != nil {
		// Propagate pgx.ErrNoRows unchanged for callers to handle with context.
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("USER_SCAN_FAILED").
			With("operation", "scan user").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("USER_INVALID_ID").
			With("operation", "parse user id").
			With("id", idStr).
			Wrap(err)
	}

	var roles []string
	if len(rolesJSON) > 0 {
		if err := json.Unmarshal(rolesJSON, &roles); err != nil {
			return nil, oops.Code("USER_INVALID_ROLES").
				With("operation", "unmarshal roles").
				Wrap(err)
		}
	}

	return &auth.User{
		ID:           id,
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		Provider:     auth.Provider(provider),
		Roles:        roles,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}, nil
}

// Compile-time interface check.
var _ auth.UserRepository = (*UserRepository)(nil)
