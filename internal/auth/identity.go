// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Username-synthesis bounds for federated sign-in.
const (
	maxUsernameSuffix      = 100
	federatedCreateRetries = 5
)

// IdentityResolver finds or creates user identities. Existence pre-checks
// are an optimization only: under concurrent registration the authoritative
// rejection comes from the storage layer's uniqueness constraint at insert,
// which the UserRepository surfaces as ErrDuplicateEmail or
// ErrDuplicateUsername.
type IdentityResolver struct {
	users  UserRepository
	hasher PasswordHasher
}

// NewIdentityResolver creates an IdentityResolver.
func NewIdentityResolver(users UserRepository, hasher PasswordHasher) (*IdentityResolver, error) {
	if users == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("user repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("password hasher is required")
	}
	return &IdentityResolver{users: users, hasher: hasher}, nil
}

// RegisterLocal creates a local-credential user with the default role set.
// Duplicate email or username fails with the matching sentinel whether the
// pre-check or the insert constraint detects it.
func (r *IdentityResolver) RegisterLocal(ctx context.Context, email, username, password string) (*User, error) {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}

	exists, err := r.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "check email exists").
			Wrap(err)
	}
	if exists {
		return nil, ErrDuplicateEmail
	}
	exists, err = r.users.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "check username exists").
			Wrap(err)
	}
	if exists {
		return nil, ErrDuplicateUsername
	}

	hash, err := r.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	user, err := NewUser(email, username, hash, ProviderLocal)
	if err != nil {
		return nil, err
	}

	// The insert constraint is the final arbiter of uniqueness; a race past
	// the pre-checks surfaces here as the same duplicate sentinel.
	if err := r.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateEmail) || errors.Is(err, ErrDuplicateUsername) {
			return nil, err
		}
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "insert user").
			With("username", username).
			Wrap(err)
	}
	return user, nil
}

// FindOrCreateFederated looks up a user by email, creating a federated
// identity on first sign-in. The username is synthesized from the email
// local part, with an increasing numeric suffix on collision. Insert races
// on the username retry synthesis; a duplicate email at insert means a
// concurrent first login won, so the winner is reused.
func (r *IdentityResolver) FindOrCreateFederated(ctx context.Context, email, displayName string) (*User, error) {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}

	user, err := r.users.GetByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, oops.Code("AUTH_FEDERATED_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}

	var created *User
	backoff := retry.WithMaxRetries(federatedCreateRetries, retry.NewConstant(10*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		username, err := r.nextFreeUsername(ctx, email)
		if err != nil {
			return err
		}
		candidate, err := NewUser(email, username, "", ProviderGoogle)
		if err != nil {
			return err
		}
		if err := r.users.Create(ctx, candidate); err != nil {
			if errors.Is(err, ErrDuplicateUsername) {
				// Lost the username race; synthesize again.
				return retry.RetryableError(err)
			}
			if errors.Is(err, ErrDuplicateEmail) {
				// A concurrent first login created this account; reuse it.
				winner, getErr := r.users.GetByEmail(ctx, email)
				if getErr != nil {
					return oops.Code("AUTH_FEDERATED_FAILED").
						With("operation", "reread winner after duplicate email").
						Wrap(getErr)
				}
				created = winner
				return nil
			}
			return oops.Code("AUTH_FEDERATED_FAILED").
				With("operation", "insert federated user").
				Wrap(err)
		}
		created = candidate
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// nextFreeUsername synthesizes a username from the email local part,
// appending 1, 2, ... until an unused name is found.
func (r *IdentityResolver) nextFreeUsername(ctx context.Context, email string) (string, error) {
	base := usernameFromEmail(email)

	candidate := base
	for suffix := 1; suffix <= maxUsernameSuffix; suffix++ {
		exists, err := r.users.ExistsByUsername(ctx, candidate)
		if err != nil {
			return "", oops.Code("AUTH_FEDERATED_FAILED").
				With("operation", "check username exists").
				Wrap(err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = suffixed(base, suffix)
	}
	return "", oops.Code("AUTH_USERNAME_EXHAUSTED").
		With("base", base).
		Errorf("could not find a free username after %d attempts", maxUsernameSuffix)
}

// usernameFromEmail derives a valid username base from the email local
// part: invalid characters are dropped, a leading non-letter is prefixed,
// and the result is clamped to the username length bounds.
func usernameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")

	var b strings.Builder
	for _, r := range local {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		}
	}
	base := b.String()

	if base == "" || !(base[0] >= 'a' && base[0] <= 'z' || base[0] >= 'A' && base[0] <= 'Z') {
		base = "user" + base
	}
	if len(base) > MaxUsernameLength {
		base = base[:MaxUsernameLength]
	}
	for len(base) < MinUsernameLength {
		base += "0"
	}
	return base
}

// suffixed appends a numeric suffix, truncating the base so the result
// stays within the username length bound.
func suffixed(base string, n int) string {
	tail := fmt.Sprintf("%d", n)
	if len(base)+len(tail) > MaxUsernameLength {
		base = base[:MaxUsernameLength-len(tail)]
	}
	return base + tail
}
