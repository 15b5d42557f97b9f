// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

// Package httpapi exposes the authentication service over HTTP/JSON.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/samber/oops"

	"github.com/gatewarden/gatewarden/internal/auth"
	"github.com/gatewarden/gatewarden/internal/observability"
)

// ReadyProbe reports whether downstream dependencies can serve traffic,
// for example by pinging the database pool.
type ReadyProbe func(ctx context.Context) error

// API is the HTTP layer over the authentication service.
type API struct {
	mux     *http.ServeMux
	svc     *auth.Service
	issuer  *auth.TokenIssuer
	metrics *observability.Metrics
	logger  *slog.Logger
	probe   ReadyProbe
	version string
}

// Option configures optional API collaborators.
type Option func(*API)

// WithMetrics wires request and outcome counters into the API.
func WithMetrics(m *observability.Metrics) Option {
	return func(a *API) { a.metrics = m }
}

// WithLogger sets the request logger. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) { a.logger = logger }
}

// WithReadyProbe sets the readiness probe backing /readyz.
func WithReadyProbe(probe ReadyProbe) Option {
	return func(a *API) { a.probe = probe }
}

// WithVersion sets the version string reported by /healthz.
func WithVersion(version string) Option {
	return func(a *API) { a.version = version }
}

// New builds the API and registers its routes.
func New(svc *auth.Service, issuer *auth.TokenIssuer, opts ...Option) (*API, error) {
	if svc == nil {
		return nil, oops.Code("API_NIL_DEPENDENCY").Errorf("auth service is required")
	}
	if issuer == nil {
		return nil, oops.Code("API_NIL_DEPENDENCY").Errorf("token issuer is required")
	}

	a := &API{
		mux:     http.NewServeMux(),
		svc:     svc,
		issuer:  issuer,
		logger:  slog.Default(),
		version: "dev",
	}
	for _, opt := range opts {
		opt(a)
	}

	a.mux.HandleFunc("POST /api/auth/register", a.handleRegister)
	a.mux.HandleFunc("POST /api/auth/login", a.handleLogin)
	a.mux.HandleFunc("POST /api/auth/google", a.handleGoogleLogin)
	a.mux.HandleFunc("POST /api/auth/refresh", a.handleRefresh)
	a.mux.Handle("POST /api/auth/logout", a.requireAuth(http.HandlerFunc(a.handleLogout)))
	a.mux.Handle("GET /api/auth/profile", a.requireAuth(http.HandlerFunc(a.handleProfile)))

	a.mux.HandleFunc("GET /healthz", a.handleHealthz)
	a.mux.HandleFunc("GET /readyz", a.handleReadyz)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "resource not found")
	})

	return a, nil
}

// Handler returns the full middleware-wrapped handler for the server.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.instrument(h)
	h = MaxBodyBytes(h, 1<<20)
	h = SecurityHeaders(h)
	h = Logging(a.logger, h)
	return h
}

func (a *API) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "gatewarden",
		"version": a.version,
	})
}

func (a *API) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if a.probe != nil {
		if err := a.probe(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status": "not_ready",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	//nolint:errcheck // response already committed, client may disconnect
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

// decodeJSON reads a single JSON document from the request body, rejecting
// unknown fields and trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// writeServiceError translates domain errors into HTTP status codes. Errors
// without a known sentinel or validation code are reported as opaque 500s
// so storage failures never leak detail to the client.
func (a *API) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrDuplicateEmail),
		errors.Is(err, auth.ErrDuplicateUsername),
		errors.Is(err, auth.ErrProviderMismatch):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrMalformedToken):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrUserNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case isValidationError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		a.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// Validation failures carry stable codes from the core; anything else is
// treated as an internal fault.
var validationCodes = map[string]bool{
	"AUTH_INVALID_EMAIL":    true,
	"AUTH_INVALID_USERNAME": true,
	"AUTH_EMPTY_PASSWORD":   true,
	"AUTH_NO_VERIFIER":      true,
}

func isValidationError(err error) bool {
	if errors.Is(err, auth.ErrEmptyPassword) {
		return true
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return false
	}
	code, ok := oopsErr.Code().(string)
	if !ok {
		return false
	}
	return validationCodes[code]
}
