// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package auth

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Provider identifies where a user's credentials live.
type Provider string

// Supported identity providers.
const (
	ProviderLocal  Provider = "local"
	ProviderGoogle Provider = "google"
)

// DefaultRole is assigned to every user at creation.
const DefaultRole = "user"

// Username validation constraints.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 20
)

// usernameRegex matches usernames that:
// - Start with a letter (a-z, A-Z)
// - Contain only letters, numbers, and underscores
var usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// emailRegex is a light sanity check; the unique constraint is the real
// arbiter of identity.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// User represents an identity record. Email, username, and provider are
// immutable after creation; a local user always has a password hash and a
// federated user never does.
type User struct {
	ID           ulid.ULID
	Email        string
	Username     string
	PasswordHash string
	Provider     Provider
	Roles        []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser creates a validated User. For ProviderLocal the passwordHash must
// be non-empty; for federated providers it must be empty.
func NewUser(email, username, passwordHash string, provider Provider) (*User, error) {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	switch provider {
	case ProviderLocal:
		if passwordHash == "" {
			return nil, oops.Code("AUTH_MISSING_PASSWORD").
				Errorf("local users require a password hash")
		}
	case ProviderGoogle:
		if passwordHash != "" {
			return nil, oops.Code("AUTH_UNEXPECTED_PASSWORD").
				With("provider", string(provider)).
				Errorf("federated users cannot carry a password hash")
		}
	default:
		return nil, oops.Code("AUTH_UNKNOWN_PROVIDER").
			With("provider", string(provider)).
			Errorf("unknown identity provider")
	}

	now := time.Now().UTC()
	return &User{
		ID:           ulid.Make(),
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		Provider:     provider,
		Roles:        []string{DefaultRole},
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// PrimaryRole returns the deterministic single role used in token claims:
// the lexicographically smallest entry of the role set.
func (u *User) PrimaryRole() string {
	if len(u.Roles) == 0 {
		return DefaultRole
	}
	roles := make([]string, len(u.Roles))
	copy(roles, u.Roles)
	sort.Strings(roles)
	return roles[0]
}

// NormalizeEmail lowercases and trims an email address so uniqueness checks
// are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks basic email shape.
func ValidateEmail(email string) error {
	if email == "" {
		return oops.Code("AUTH_INVALID_EMAIL").Errorf("email cannot be empty")
	}
	if !emailRegex.MatchString(email) {
		return oops.Code("AUTH_INVALID_EMAIL").
			With("email", email).
			Errorf("email is not valid")
	}
	return nil
}

// ValidateUsername validates a username against rules.
// Username requirements:
// - Length: MinUsernameLength to MaxUsernameLength characters
// - Must start with a letter
// - Can contain only letters (a-z, A-Z), numbers (0-9), and underscores (_)
func ValidateUsername(username string) error {
	if username == "" {
		return oops.Code("AUTH_INVALID_USERNAME").Errorf("username cannot be empty")
	}
	if len(username) < MinUsernameLength {
		return oops.Code("AUTH_INVALID_USERNAME").
			With("min", MinUsernameLength).
			Errorf("username must be at least %d characters", MinUsernameLength)
	}
	if len(username) > MaxUsernameLength {
		return oops.Code("AUTH_INVALID_USERNAME").
			With("max", MaxUsernameLength).
			Errorf("username must be at most %d characters", MaxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return oops.Code("AUTH_INVALID_USERNAME").
			Errorf("username must start with a letter and contain only letters, numbers, and underscores")
	}
	return nil
}

// UserRepository manages user persistence. Save-time uniqueness of email
// and username is enforced by the storage layer; ExistsBy* checks are an
// optimization, never a correctness guarantee.
type UserRepository interface {
	// Create stores a new user. A storage-level uniqueness violation is
	// surfaced as ErrDuplicateEmail or ErrDuplicateUsername.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)

	// GetByEmail retrieves a user by email (case-insensitive).
	GetByEmail(ctx context.Context, email string) (*User, error)

	// ExistsByEmail reports whether a user with the email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// ExistsByUsername reports whether a user with the username exists.
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// Update updates an existing user.
	Update(ctx context.Context, user *User) error

	// Delete removes a user.
	Delete(ctx context.Context, id ulid.ULID) error
}
