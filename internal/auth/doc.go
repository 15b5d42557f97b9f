// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

// Package auth implements the token lifecycle and login decision engine.
//
// # Domain Types
//
// Domain types (User, RefreshSession) should be created using their
// constructors:
//   - NewUser - creates a User with validated email, username, and provider
//   - NewRefreshSession - creates a RefreshSession with a fresh opaque token
//
// Direct struct initialization bypasses validation and may create invalid
// state. Repository implementations receive pre-validated types from these
// constructors.
//
// # Services
//
// Service types coordinate domain operations:
//   - IdentityResolver - finds or creates user identities
//   - Service - register, login, federated login, refresh, profile, logout
//
// Services are created with New* constructors that validate dependencies.
// Collaborators (UserRepository, RefreshTokenStore, TokenIssuer, EventSink,
// FederatedIdentityVerifier) are supplied explicitly; the package holds no
// global state.
package auth
