// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatewarden/gatewarden/internal/auth"
	"github.com/gatewarden/gatewarden/internal/auth/memory"
)

func newLocalUser(t *testing.T, email, username string) *auth.User {
	t.Helper()
	user, err := auth.NewUser(email, username, "$argon2id$v=19$m=65536,t=1,p=4$salt$hash", auth.ProviderLocal)
	require.NoError(t, err)
	return user
}

func TestUserRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("create and read back", func(t *testing.T) {
		repo := memory.NewUserRepository()
		user := newLocalUser(t, "alice@example.com", "alice")

		require.NoError(t, repo.Create(ctx, user))

		got, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.Email, got.Email)

		got, err = repo.GetByEmail(ctx, "ALICE@example.COM")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		repo := memory.NewUserRepository()
		require.NoError(t, repo.Create(ctx, newLocalUser(t, "alice@example.com", "alice")))

		err := repo.Create(ctx, newLocalUser(t, "Alice@Example.com", "other"))
		assert.ErrorIs(t, err, auth.ErrDuplicateEmail)
	})

	t.Run("duplicate username rejected case-insensitively", func(t *testing.T) {
		repo := memory.NewUserRepository()
		require.NoError(t, repo.Create(ctx, newLocalUser(t, "alice@example.com", "alice")))

		err := repo.Create(ctx, newLocalUser(t, "other@example.com", "ALICE"))
		assert.ErrorIs(t, err, auth.ErrDuplicateUsername)
	})

	t.Run("stored user is isolated from caller mutation", func(t *testing.T) {
		repo := memory.NewUserRepository()
		user := newLocalUser(t, "alice@example.com", "alice")
		require.NoError(t, repo.Create(ctx, user))

		user.PasswordHash = "mutated"

		got, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.NotEqual(t, "mutated", got.PasswordHash)
	})
}

func TestUserRepository_Lookups(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepository()
	user := newLocalUser(t, "alice@example.com", "alice")
	require.NoError(t, repo.Create(ctx, user))

	t.Run("missing ID", func(t *testing.T) {
		_, err := repo.GetByID(ctx, ulid.Make())
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("missing email", func(t *testing.T) {
		_, err := repo.GetByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("exists checks", func(t *testing.T) {
		ok, err := repo.ExistsByEmail(ctx, "Alice@Example.com")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.ExistsByUsername(ctx, "ALICE")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.ExistsByUsername(ctx, "bob")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestUserRepository_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("updates mutable fields only", func(t *testing.T) {
		repo := memory.NewUserRepository()
		user := newLocalUser(t, "alice@example.com", "alice")
		require.NoError(t, repo.Create(ctx, user))

		user.PasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$new$hash"
		user.Roles = []string{"admin", "user"}
		user.UpdatedAt = time.Now().UTC().Add(time.Minute)
		require.NoError(t, repo.Update(ctx, user))

		got, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.PasswordHash, got.PasswordHash)
		assert.Equal(t, []string{"admin", "user"}, got.Roles)
	})

	t.Run("unknown user fails", func(t *testing.T) {
		repo := memory.NewUserRepository()
		err := repo.Update(ctx, newLocalUser(t, "ghost@example.com", "ghost"))
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})
}

func TestUserRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepository()
	user := newLocalUser(t, "alice@example.com", "alice")
	require.NoError(t, repo.Create(ctx, user))

	require.NoError(t, repo.Delete(ctx, user.ID))

	_, err := repo.GetByID(ctx, user.ID)
	assert.ErrorIs(t, err, auth.ErrNotFound)

	// Indexes are released too: the identity can be registered again.
	require.NoError(t, repo.Create(ctx, newLocalUser(t, "alice@example.com", "alice")))

	assert.ErrorIs(t, repo.Delete(ctx, user.ID), auth.ErrNotFound)
}

func newSession(t *testing.T, userID ulid.ULID, token string, expiresAt time.Time) *auth.RefreshSession {
	t.Helper()
	return &auth.RefreshSession{
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt,
		CreatedAt: expiresAt.Add(-time.Hour),
	}
}

func TestRefreshStore(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("put and get", func(t *testing.T) {
		store := memory.NewRefreshStoreWithClock(func() time.Time { return base })
		userID := ulid.Make()
		require.NoError(t, store.Put(ctx, newSession(t, userID, "token-a", base.Add(time.Hour))))

		got, err := store.Get(ctx, "token-a")
		require.NoError(t, err)
		assert.Equal(t, userID, got.UserID)
	})

	t.Run("unknown token", func(t *testing.T) {
		store := memory.NewRefreshStore()
		_, err := store.Get(ctx, "nope")
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("expired token behaves like a missing one", func(t *testing.T) {
		clock := base
		store := memory.NewRefreshStoreWithClock(func() time.Time { return clock })
		require.NoError(t, store.Put(ctx, newSession(t, ulid.Make(), "token-a", base.Add(time.Hour))))

		clock = base.Add(2 * time.Hour)
		_, err := store.Get(ctx, "token-a")
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("put replaces the previous session for the user", func(t *testing.T) {
		store := memory.NewRefreshStoreWithClock(func() time.Time { return base })
		userID := ulid.Make()
		require.NoError(t, store.Put(ctx, newSession(t, userID, "token-old", base.Add(time.Hour))))
		require.NoError(t, store.Put(ctx, newSession(t, userID, "token-new", base.Add(time.Hour))))

		_, err := store.Get(ctx, "token-old")
		assert.ErrorIs(t, err, auth.ErrNotFound)

		got, err := store.Get(ctx, "token-new")
		require.NoError(t, err)
		assert.Equal(t, userID, got.UserID)
	})

	t.Run("delete by user", func(t *testing.T) {
		store := memory.NewRefreshStoreWithClock(func() time.Time { return base })
		userID := ulid.Make()
		require.NoError(t, store.Put(ctx, newSession(t, userID, "token-a", base.Add(time.Hour))))

		require.NoError(t, store.DeleteByUser(ctx, userID))
		_, err := store.Get(ctx, "token-a")
		assert.ErrorIs(t, err, auth.ErrNotFound)

		// Deleting again is a no-op.
		require.NoError(t, store.DeleteByUser(ctx, userID))
	})

	t.Run("delete expired sweeps only stale sessions", func(t *testing.T) {
		clock := base
		store := memory.NewRefreshStoreWithClock(func() time.Time { return clock })
		require.NoError(t, store.Put(ctx, newSession(t, ulid.Make(), "stale-1", base.Add(time.Minute))))
		require.NoError(t, store.Put(ctx, newSession(t, ulid.Make(), "stale-2", base.Add(2*time.Minute))))
		require.NoError(t, store.Put(ctx, newSession(t, ulid.Make(), "live", base.Add(time.Hour))))

		clock = base.Add(30 * time.Minute)
		removed, err := store.DeleteExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), removed)

		_, err = store.Get(ctx, "live")
		assert.NoError(t, err)
	})
}
