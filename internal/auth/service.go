// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/gatewarden/gatewarden/pkg/errutil"
)

// Service is the session orchestrator: a stateless facade over the
// persisted User and RefreshSession data that composes credential
// verification, identity resolution, token issuance, and refresh-session
// rotation into the register/login/refresh/profile operations.
type Service struct {
	users    UserRepository
	resolver *IdentityResolver
	hasher   PasswordHasher
	issuer   *TokenIssuer
	sessions RefreshTokenStore
	verifier FederatedIdentityVerifier
	sink     EventSink
	logger   *slog.Logger

	refreshTTL time.Duration
	now        func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithFederatedVerifier enables federated login through the given verifier.
func WithFederatedVerifier(verifier FederatedIdentityVerifier) ServiceOption {
	return func(s *Service) { s.verifier = verifier }
}

// WithEventSink enables best-effort domain event emission.
func WithEventSink(sink EventSink) ServiceOption {
	return func(s *Service) { s.sink = sink }
}

// WithLogger overrides the logger used for best-effort failure reporting.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRefreshTTL overrides the refresh session lifetime.
func WithRefreshTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.refreshTTL = ttl
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService creates a Service. The repository, hasher, token issuer, and
// refresh token store are required; the verifier and event sink are
// optional capabilities.
func NewService(users UserRepository, hasher PasswordHasher, issuer *TokenIssuer, sessions RefreshTokenStore, opts ...ServiceOption) (*Service, error) {
	if users == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("user repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("password hasher is required")
	}
	if issuer == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("token issuer is required")
	}
	if sessions == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("refresh token store is required")
	}

	resolver, err := NewIdentityResolver(users, hasher)
	if err != nil {
		return nil, err
	}

	svc := &Service{
		users:      users,
		resolver:   resolver,
		hasher:     hasher,
		issuer:     issuer,
		sessions:   sessions,
		logger:     slog.Default(),
		refreshTTL: DefaultRefreshTokenTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Session is the result of a successful login.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64 // access token lifetime in seconds
	Username     string
}

// Refreshed is the result of a successful access-token refresh.
type Refreshed struct {
	AccessToken string
	ExpiresIn   int64
}

// Profile is the read-only projection exposed for a user. No password or
// provider data leaves the core.
type Profile struct {
	ID        ulid.ULID
	Username  string
	Email     string
	CreatedAt time.Time
}

// dummyPasswordHash is used when a user doesn't exist to prevent timing
// attacks. We still run password verification to make response time
// consistent. This is NOT a real credential - it's a fake hash that will
// never match any password.
//
//nolint:gosec // G101: intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Register creates a local user. Duplicate email or username propagate
// unchanged; on success a UserRegistered event is emitted best-effort.
func (s *Service) Register(ctx context.Context, email, username, password string) error {
	user, err := s.resolver.RegisterLocal(ctx, email, username, password)
	if err != nil {
		return err
	}

	s.publish(ctx, TopicUserRegistered, UserRegistered{
		EventID:   uuid.New(),
		UserID:    user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Timestamp: s.now().UTC(),
	})
	return nil
}

// Login authenticates local credentials and creates a session. Unknown
// email and wrong password return the same ErrInvalidCredentials; password
// verification runs against a dummy hash when the user does not exist so
// response timing does not enumerate accounts.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, lookupErr := s.users.GetByEmail(ctx, NormalizeEmail(email))

	targetHash := dummyPasswordHash
	userExists := false

	if lookupErr != nil {
		if !errors.Is(lookupErr, ErrNotFound) {
			return nil, oops.Code("AUTH_LOGIN_FAILED").
				With("operation", "get user by email").
				Wrap(lookupErr)
		}
	} else {
		userExists = true
		if user.Provider != ProviderLocal {
			// Deliberate product choice: the mismatch names the provider the
			// account actually uses, which does leak provider identity for
			// existing accounts.
			return nil, oops.Code("AUTH_PROVIDER_MISMATCH").
				With("provider", string(user.Provider)).
				Wrap(ErrProviderMismatch)
		}
		targetHash = user.PasswordHash
	}

	// Always verify so timing stays flat whether or not the user exists.
	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil {
		if !userExists {
			return nil, ErrInvalidCredentials
		}
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			Wrap(verifyErr)
	}
	if !userExists || !valid {
		return nil, ErrInvalidCredentials
	}

	// Transparent re-hash when the stored digest predates the current
	// algorithm. Login succeeds even if the update fails.
	if s.hasher.NeedsUpgrade(user.PasswordHash) {
		if newHash, hashErr := s.hasher.Hash(password); hashErr == nil {
			user.PasswordHash = newHash
			user.UpdatedAt = s.now().UTC()
			_ = s.users.Update(ctx, user) //nolint:errcheck // Best effort
		}
	}

	return s.createSession(ctx, user)
}

// FederatedLogin verifies a provider ID token and creates a session for the
// attested identity, creating the user on first sign-in.
func (s *Service) FederatedLogin(ctx context.Context, idToken string) (*Session, error) {
	if s.verifier == nil {
		return nil, oops.Code("AUTH_NO_VERIFIER").Errorf("federated login is not configured")
	}

	identity, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		if errors.Is(err, ErrVerificationFailed) {
			return nil, ErrInvalidCredentials
		}
		return nil, oops.Code("AUTH_FEDERATED_LOGIN_FAILED").
			With("operation", "verify id token").
			Wrap(err)
	}
	if identity.Email == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.resolver.FindOrCreateFederated(ctx, identity.Email, identity.DisplayName)
	if err != nil {
		return nil, err
	}
	if user.Provider != ProviderGoogle {
		// Symmetric to the local-login check: the account predates federated
		// sign-in and holds local credentials.
		return nil, oops.Code("AUTH_PROVIDER_MISMATCH").
			With("provider", string(user.Provider)).
			Wrap(ErrProviderMismatch)
	}

	return s.createSession(ctx, user)
}

// createSession mints the access token, rotates the refresh session, and
// emits UserLoggedIn. Storing the new refresh session overwrites any prior
// one for this user: last writer wins, earlier tokens become silently
// unusable.
func (s *Service) createSession(ctx context.Context, user *User) (*Session, error) {
	accessToken, _, err := s.issuer.Issue(user.ID, user.Username, user.PrimaryRole())
	if err != nil {
		return nil, err
	}

	refresh, err := NewRefreshSession(user.ID, s.refreshTTL)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Put(ctx, refresh); err != nil {
		return nil, oops.Code("AUTH_SESSION_CREATE_FAILED").
			With("operation", "store refresh session").
			With("user_id", user.ID.String()).
			Wrap(err)
	}

	s.publish(ctx, TopicUserLoggedIn, UserLoggedIn{
		EventID:   uuid.New(),
		UserID:    user.ID,
		Username:  user.Username,
		Timestamp: s.now().UTC(),
	})

	return &Session{
		AccessToken:  accessToken,
		RefreshToken: refresh.Token,
		ExpiresIn:    int64(s.issuer.TTL().Seconds()),
		Username:     user.Username,
	}, nil
}

// Refresh exchanges a refresh token for a new access token. The refresh
// token itself is not rotated: it stays valid until TTL, logout, or a later
// login overwrites it. (Rotating on every refresh would tighten revocation
// granularity; the non-rotating baseline is kept on purpose.)
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Refreshed, error) {
	if refreshToken == "" {
		return nil, ErrInvalidRefreshToken
	}

	session, err := s.sessions.Get(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, oops.Code("AUTH_REFRESH_FAILED").
			With("operation", "get refresh session").
			Wrap(err)
	}
	// Defends against any store that indexes by user first: the returned
	// entry must belong to the presented token.
	if session.Token != refreshToken {
		return nil, ErrInvalidRefreshToken
	}
	if session.IsExpiredAt(s.now()) {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// The user record was deleted after the session was created.
			return nil, ErrUserNotFound
		}
		return nil, oops.Code("AUTH_REFRESH_FAILED").
			With("operation", "get user by id").
			With("user_id", session.UserID.String()).
			Wrap(err)
	}

	accessToken, _, err := s.issuer.Issue(user.ID, user.Username, user.PrimaryRole())
	if err != nil {
		return nil, err
	}
	return &Refreshed{
		AccessToken: accessToken,
		ExpiresIn:   int64(s.issuer.TTL().Seconds()),
	}, nil
}

// Profile returns the read-only projection for a user.
func (s *Service) Profile(ctx context.Context, userID ulid.ULID) (*Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, oops.Code("AUTH_PROFILE_FAILED").
			With("operation", "get user by id").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return &Profile{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}, nil
}

// Logout revokes the user's refresh session. Already-issued access tokens
// stay valid until they expire.
func (s *Service) Logout(ctx context.Context, userID ulid.ULID) error {
	if err := s.sessions.DeleteByUser(ctx, userID); err != nil {
		return oops.Code("AUTH_LOGOUT_FAILED").
			With("operation", "delete refresh session").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return nil
}

// publish emits a domain event best-effort. The primary state change is
// already committed when this runs; a publish failure is logged and never
// fails, rolls back, or delays the operation.
func (s *Service) publish(ctx context.Context, topic string, event any) {
	if s.sink == nil {
		return
	}
	if err := s.sink.Publish(ctx, topic, event); err != nil {
		errutil.LogError(s.logger, "event publish failed", err)
	}
}
