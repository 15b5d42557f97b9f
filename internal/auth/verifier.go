// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samber/oops"
)

// FederatedIdentity is the verified payload returned by an identity
// provider for a valid ID token.
type FederatedIdentity struct {
	Email       string
	DisplayName string
}

// FederatedIdentityVerifier verifies a provider-issued ID token and
// extracts the identity it attests to.
type FederatedIdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (*FederatedIdentity, error)
}

// DefaultGoogleTokenInfoURL is Google's ID-token introspection endpoint.
const DefaultGoogleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// GoogleVerifier validates Google ID tokens against the tokeninfo endpoint.
// The endpoint checks the token signature against Google's rotating keys;
// this client additionally pins the audience to the configured OAuth client
// ID so tokens minted for other applications are rejected.
type GoogleVerifier struct {
	client   *http.Client
	endpoint string
	audience string
}

// GoogleVerifierOption configures a GoogleVerifier.
type GoogleVerifierOption func(*GoogleVerifier)

// WithHTTPClient overrides the HTTP client (useful for tests).
func WithHTTPClient(client *http.Client) GoogleVerifierOption {
	return func(v *GoogleVerifier) {
		if client != nil {
			v.client = client
		}
	}
}

// WithTokenInfoURL overrides the introspection endpoint.
func WithTokenInfoURL(endpoint string) GoogleVerifierOption {
	return func(v *GoogleVerifier) {
		if endpoint != "" {
			v.endpoint = endpoint
		}
	}
}

// NewGoogleVerifier creates a GoogleVerifier for the given OAuth client ID.
func NewGoogleVerifier(audience string, opts ...GoogleVerifierOption) (*GoogleVerifier, error) {
	if strings.TrimSpace(audience) == "" {
		return nil, oops.Code("AUTH_MISSING_AUDIENCE").Errorf("google client ID is required")
	}
	v := &GoogleVerifier{
		client:   &http.Client{Timeout: 10 * time.Second},
		endpoint: DefaultGoogleTokenInfoURL,
		audience: audience,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// tokenInfoResponse is the subset of the tokeninfo payload this service
// consumes.
type tokenInfoResponse struct {
	Audience      string `json:"aud"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	Expiry        string `json:"exp"`
}

// Verify checks the ID token with Google and returns the attested identity.
// Any rejection by the endpoint, a missing email, or an audience mismatch
// yields ErrVerificationFailed; transport errors pass through as dependency
// failures.
func (v *GoogleVerifier) Verify(ctx context.Context, idToken string) (*FederatedIdentity, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return nil, ErrVerificationFailed
	}

	reqURL := fmt.Sprintf("%s?id_token=%s", v.endpoint, url.QueryEscape(idToken))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, oops.Code("AUTH_VERIFY_FAILED").
			With("operation", "build tokeninfo request").
			Wrap(err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, oops.Code("AUTH_VERIFY_FAILED").
			With("operation", "call tokeninfo endpoint").
			Wrap(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// The endpoint rejects invalid and expired tokens with 4xx.
		return nil, ErrVerificationFailed
	}

	var info tokenInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, oops.Code("AUTH_VERIFY_FAILED").
			With("operation", "decode tokeninfo response").
			Wrap(err)
	}

	if info.Audience != v.audience {
		return nil, ErrVerificationFailed
	}
	if info.Email == "" || info.EmailVerified != "true" {
		return nil, ErrVerificationFailed
	}

	return &FederatedIdentity{
		Email:       info.Email,
		DisplayName: info.Name,
	}, nil
}
