// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gatewarden/gatewarden/internal/auth"
)

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type federatedLoginRequest struct {
	IDToken string `json:"id_token"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type sessionResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	Username     string `json:"username"`
}

type refreshResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type profileResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

const tokenTypeBearer = "Bearer"

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err := a.svc.Register(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		a.countRegistration("failure")
		a.writeServiceError(w, r, err)
		return
	}

	a.countRegistration("success")
	writeJSON(w, http.StatusCreated, map[string]any{
		"status": "registered",
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := a.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		a.countLogin("local", "failure")
		a.writeServiceError(w, r, err)
		return
	}

	a.countLogin("local", "success")
	writeJSON(w, http.StatusOK, newSessionResponse(session))
}

func (a *API) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req federatedLoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.IDToken) == "" {
		writeError(w, http.StatusBadRequest, "id_token is required")
		return
	}

	session, err := a.svc.FederatedLogin(r.Context(), req.IDToken)
	if err != nil {
		a.countLogin("google", "failure")
		a.writeServiceError(w, r, err)
		return
	}

	a.countLogin("google", "success")
	writeJSON(w, http.StatusOK, newSessionResponse(session))
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	refreshed, err := a.svc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		a.countRefresh("failure")
		a.writeServiceError(w, r, err)
		return
	}

	a.countRefresh("success")
	writeJSON(w, http.StatusOK, refreshResponse{
		AccessToken: refreshed.AccessToken,
		TokenType:   tokenTypeBearer,
		ExpiresIn:   refreshed.ExpiresIn,
	})
}

func (a *API) handleProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	profile, err := a.svc.Profile(r.Context(), userID)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{
		ID:        profile.ID.String(),
		Username:  profile.Username,
		Email:     profile.Email,
		CreatedAt: profile.CreatedAt,
	})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := a.svc.Logout(r.Context(), userID); err != nil {
		a.writeServiceError(w, r, err)
		return
	}

	if a.metrics != nil {
		a.metrics.SessionsRevoked.Inc()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "logged_out",
	})
}

func newSessionResponse(session *auth.Session) sessionResponse {
	return sessionResponse{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		TokenType:    tokenTypeBearer,
		ExpiresIn:    session.ExpiresIn,
		Username:     session.Username,
	}
}

func (a *API) countLogin(provider, status string) {
	if a.metrics != nil {
		a.metrics.LoginsTotal.WithLabelValues(provider, status).Inc()
	}
}

func (a *API) countRegistration(status string) {
	if a.metrics != nil {
		a.metrics.RegistrationsTotal.WithLabelValues(status).Inc()
	}
}

func (a *API) countRefresh(status string) {
	if a.metrics != nil {
		a.metrics.RefreshesTotal.WithLabelValues(status).Inc()
	}
}
