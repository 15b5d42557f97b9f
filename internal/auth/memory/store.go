// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

// Package memory provides in-memory implementations of the auth storage
// contracts, used by tests and single-process development mode.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/gatewarden/gatewarden/internal/auth"
)

// UserRepository implements auth.UserRepository with mutex-guarded maps.
// Uniqueness of email and username is enforced at insert, mirroring the
// database constraints the postgres implementation relies on.
type UserRepository struct {
	mu      sync.RWMutex
	byID    map[ulid.ULID]*auth.User
	byEmail map[string]ulid.ULID
	byName  map[string]ulid.ULID
}

// NewUserRepository creates an empty UserRepository.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[ulid.ULID]*auth.User),
		byEmail: make(map[string]ulid.ULID),
		byName:  make(map[string]ulid.ULID),
	}
}

// Create stores a new user, enforcing email and username uniqueness.
func (r *UserRepository) Create(_ context.Context, user *auth.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	emailKey := auth.NormalizeEmail(user.Email)
	nameKey := strings.ToLower(user.Username)
	if _, ok := r.byEmail[emailKey]; ok {
		return auth.ErrDuplicateEmail
	}
	if _, ok := r.byName[nameKey]; ok {
		return auth.ErrDuplicateUsername
	}

	clone := *user
	r.byID[user.ID] = &clone
	r.byEmail[emailKey] = user.ID
	r.byName[nameKey] = user.ID
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(_ context.Context, id ulid.ULID) (*auth.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

// GetByEmail retrieves a user by email (case-insensitive).
func (r *UserRepository) GetByEmail(_ context.Context, email string) (*auth.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[auth.NormalizeEmail(email)]
	if !ok {
		return nil, auth.ErrNotFound
	}
	clone := *r.byID[id]
	return &clone, nil
}

// ExistsByEmail reports whether a user with the email exists.
func (r *UserRepository) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byEmail[auth.NormalizeEmail(email)]
	return ok, nil
}

// ExistsByUsername reports whether a user with the username exists.
func (r *UserRepository) ExistsByUsername(_ context.Context, username string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byName[strings.ToLower(username)]
	return ok, nil
}

// Update updates an existing user. Email, username, and provider are
// immutable, so only the remaining fields are replaced.
func (r *UserRepository) Update(_ context.Context, user *auth.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[user.ID]
	if !ok {
		return auth.ErrNotFound
	}
	existing.PasswordHash = user.PasswordHash
	existing.Roles = append([]string(nil), user.Roles...)
	existing.UpdatedAt = user.UpdatedAt
	return nil
}

// Delete removes a user.
func (r *UserRepository) Delete(_ context.Context, id ulid.ULID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return auth.ErrNotFound
	}
	delete(r.byEmail, auth.NormalizeEmail(user.Email))
	delete(r.byName, strings.ToLower(user.Username))
	delete(r.byID, id)
	return nil
}

// RefreshStore implements auth.RefreshTokenStore in memory. Entries are
// keyed by token value with a user index for replacement; expiry is
// checked on read, so a stale entry behaves exactly like a missing one.
type RefreshStore struct {
	mu      sync.RWMutex
	byToken map[string]*auth.RefreshSession
	byUser  map[ulid.ULID]string
	now     func() time.Time
}

// NewRefreshStore creates an empty RefreshStore.
func NewRefreshStore() *RefreshStore {
	return &RefreshStore{
		byToken: make(map[string]*auth.RefreshSession),
		byUser:  make(map[ulid.ULID]string),
		now:     time.Now,
	}
}

// NewRefreshStoreWithClock creates a RefreshStore with a fixed time source
// for tests.
func NewRefreshStoreWithClock(now func() time.Time) *RefreshStore {
	s := NewRefreshStore()
	if now != nil {
		s.now = now
	}
	return s
}

// Put stores the session, replacing any previous session for the user.
func (s *RefreshStore) Put(_ context.Context, session *auth.RefreshSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.byUser[session.UserID]; ok {
		delete(s.byToken, prev)
	}
	clone := *session
	s.byToken[session.Token] = &clone
	s.byUser[session.UserID] = session.Token
	return nil
}

// Get retrieves a session by token value; unknown and expired tokens are
// both auth.ErrNotFound.
func (s *RefreshStore) Get(_ context.Context, token string) (*auth.RefreshSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.byToken[token]
	if !ok {
		return nil, auth.ErrNotFound
	}
	if session.IsExpiredAt(s.now()) {
		return nil, auth.ErrNotFound
	}
	clone := *session
	return &clone, nil
}

// DeleteByUser removes the user's current session, if any.
func (s *RefreshStore) DeleteByUser(_ context.Context, userID ulid.ULID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.byUser[userID]
	if !ok {
		return nil
	}
	delete(s.byToken, token)
	delete(s.byUser, userID)
	return nil
}

// DeleteExpired removes all expired sessions.
func (s *RefreshStore) DeleteExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var removed int64
	for token, session := range s.byToken {
		if session.IsExpiredAt(now) {
			delete(s.byToken, token)
			delete(s.byUser, session.UserID)
			removed++
		}
	}
	return removed, nil
}

// Compile-time interface checks.
var (
	_ auth.UserRepository    = (*UserRepository)(nil)
	_ auth.RefreshTokenStore = (*RefreshStore)(nil)
)
