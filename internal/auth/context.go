// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package auth

import (
	"context"

	"github.com/oklog/ulid/v2"
)

type ctxKey int

const (
	userIDKey ctxKey = iota
	usernameKey
	roleKey
)

// ContextWithIdentity stores the authenticated identity in the context.
func ContextWithIdentity(ctx context.Context, userID ulid.ULID, username, role string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	ctx = context.WithValue(ctx, usernameKey, username)
	ctx = context.WithValue(ctx, roleKey, role)
	return ctx
}

// UserIDFromContext extracts the authenticated user ID from context.
func UserIDFromContext(ctx context.Context) (ulid.ULID, bool) {
	id, ok := ctx.Value(userIDKey).(ulid.ULID)
	if !ok || id.Compare(ulid.ULID{}) == 0 {
		return ulid.ULID{}, false
	}
	return id, true
}

// UsernameFromContext extracts the authenticated username from context.
func UsernameFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(usernameKey).(string)
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

// RoleFromContext extracts the authenticated role from context.
func RoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(roleKey).(string)
	if !ok || role == "" {
		return "", false
	}
	return role, true
}
