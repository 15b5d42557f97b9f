// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package auth_test

import (
	"context"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"

	"github.com/gatewarden/gatewarden/internal/auth"
)

func TestContextIdentity(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		id := ulid.Make()
		ctx := auth.ContextWithIdentity(context.Background(), id, "alice", "user")

		gotID, ok := auth.UserIDFromContext(ctx)
		assert.True(t, ok)
		assert.Equal(t, id, gotID)

		name, ok := auth.UsernameFromContext(ctx)
		assert.True(t, ok)
		assert.Equal(t, "alice", name)

		role, ok := auth.RoleFromContext(ctx)
		assert.True(t, ok)
		assert.Equal(t, "user", role)
	})

	t.Run("empty context has no identity", func(t *testing.T) {
		ctx := context.Background()

		_, ok := auth.UserIDFromContext(ctx)
		assert.False(t, ok)
		_, ok = auth.UsernameFromContext(ctx)
		assert.False(t, ok)
		_, ok = auth.RoleFromContext(ctx)
		assert.False(t, ok)
	})

	t.Run("zero user ID is not an identity", func(t *testing.T) {
		ctx := auth.ContextWithIdentity(context.Background(), ulid.ULID{}, "", "")
		_, ok := auth.UserIDFromContext(ctx)
		assert.False(t, ok)
	})
}
