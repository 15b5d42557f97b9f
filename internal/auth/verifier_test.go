// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package auth_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatewarden/gatewarden/internal/auth"
)

const testAudience = "client-id.apps.googleusercontent.com"

func newTokenInfoServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func newVerifier(t *testing.T, endpoint string) *auth.GoogleVerifier {
	t.Helper()
	verifier, err := auth.NewGoogleVerifier(testAudience, auth.WithTokenInfoURL(endpoint))
	require.NoError(t, err)
	return verifier
}

func TestNewGoogleVerifier(t *testing.T) {
	t.Run("requires an audience", func(t *testing.T) {
		_, err := auth.NewGoogleVerifier("")
		assert.Error(t, err)
		_, err = auth.NewGoogleVerifier("   ")
		assert.Error(t, err)
	})
}

func TestGoogleVerifier_Verify(t *testing.T) {
	ctx := context.Background()

	t.Run("valid token yields identity", func(t *testing.T) {
		srv := newTokenInfoServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "the-id-token", r.URL.Query().Get("id_token"))
			fmt.Fprintf(w, `{"aud":%q,"email":"carol@x.com","email_verified":"true","name":"Carol","exp":"1767225600"}`, testAudience)
		})

		identity, err := newVerifier(t, srv.URL).Verify(ctx, "the-id-token")
		require.NoError(t, err)
		assert.Equal(t, "carol@x.com", identity.Email)
		assert.Equal(t, "Carol", identity.DisplayName)
	})

	t.Run("empty token fails without a network call", func(t *testing.T) {
		srv := newTokenInfoServer(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("unexpected request")
		})

		_, err := newVerifier(t, srv.URL).Verify(ctx, "  ")
		assert.ErrorIs(t, err, auth.ErrVerificationFailed)
	})

	t.Run("endpoint rejection fails verification", func(t *testing.T) {
		srv := newTokenInfoServer(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"invalid_token"}`, http.StatusBadRequest)
		})

		_, err := newVerifier(t, srv.URL).Verify(ctx, "expired-token")
		assert.ErrorIs(t, err, auth.ErrVerificationFailed)
	})

	t.Run("audience mismatch fails verification", func(t *testing.T) {
		srv := newTokenInfoServer(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"aud":"another-app","email":"carol@x.com","email_verified":"true"}`)
		})

		_, err := newVerifier(t, srv.URL).Verify(ctx, "wrong-audience-token")
		assert.ErrorIs(t, err, auth.ErrVerificationFailed)
	})

	t.Run("unverified email fails verification", func(t *testing.T) {
		srv := newTokenInfoServer(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, `{"aud":%q,"email":"carol@x.com","email_verified":"false"}`, testAudience)
		})

		_, err := newVerifier(t, srv.URL).Verify(ctx, "unverified-token")
		assert.ErrorIs(t, err, auth.ErrVerificationFailed)
	})

	t.Run("missing email fails verification", func(t *testing.T) {
		srv := newTokenInfoServer(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, `{"aud":%q,"email_verified":"true"}`, testAudience)
		})

		_, err := newVerifier(t, srv.URL).Verify(ctx, "no-email-token")
		assert.ErrorIs(t, err, auth.ErrVerificationFailed)
	})

	t.Run("transport failure is not a verification failure", func(t *testing.T) {
		srv := newTokenInfoServer(t, func(w http.ResponseWriter, r *http.Request) {})
		srv.Close()

		_, err := newVerifier(t, srv.URL).Verify(ctx, "any-token")
		require.Error(t, err)
		assert.NotErrorIs(t, err, auth.ErrVerificationFailed)
	})

	t.Run("malformed response body is not a verification failure", func(t *testing.T) {
		srv := newTokenInfoServer(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "not json")
		})

		_, err := newVerifier(t, srv.URL).Verify(ctx, "any-token")
		require.Error(t, err)
		assert.NotErrorIs(t, err, auth.ErrVerificationFailed)
	})
}
