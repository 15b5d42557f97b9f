// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package auth

import "errors"

// Sentinel errors for the authentication domain. Callers branch with
// errors.Is; anything not matching one of these is a dependency failure
// (storage, token store, verifier transport) and maps to a 5xx-class
// outcome rather than an input rejection.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateEmail is returned when the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrDuplicateUsername is returned when the username is already taken.
	ErrDuplicateUsername = errors.New("username already taken")

	// ErrInvalidCredentials covers unknown email and wrong password.
	// The message never reveals which cause applied.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrProviderMismatch is returned when an account exists under a
	// different identity provider than the login path used.
	ErrProviderMismatch = errors.New("account registered with a different provider")

	// ErrInvalidRefreshToken is returned for unknown, expired, or revoked
	// refresh tokens.
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")

	// ErrUserNotFound is returned when a user record referenced by a valid
	// credential no longer exists.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidToken indicates an access token failed signature or shape
	// validation.
	ErrInvalidToken = errors.New("invalid token")

	// ErrMalformedToken indicates a token whose signature verified but whose
	// claims cannot be trusted (for example an unparsable subject).
	ErrMalformedToken = errors.New("malformed token")

	// ErrVerificationFailed indicates the federated identity provider
	// rejected the presented ID token.
	ErrVerificationFailed = errors.New("identity provider verification failed")
)
