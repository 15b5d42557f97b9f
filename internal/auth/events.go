// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Event topics published by the session orchestrator.
const (
	TopicUserRegistered = "auth.user.registered"
	TopicUserLoggedIn   = "auth.user.logged_in"
)

// UserRegistered is emitted after a new local user is persisted.
type UserRegistered struct {
	EventID   uuid.UUID `json:"event_id"`
	UserID    ulid.ULID `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Timestamp time.Time `json:"timestamp"`
}

// UserLoggedIn is emitted after a session is created, for both local and
// federated logins.
type UserLoggedIn struct {
	EventID   uuid.UUID `json:"event_id"`
	UserID    ulid.ULID `json:"user_id"`
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
}

// EventSink receives domain events. Publication is fire-and-forget: the
// primary state change is already committed when Publish is attempted, so a
// failure is logged by the caller and never propagated, retried, or allowed
// to alter the primary result. Consumers must tolerate occasional loss.
type EventSink interface {
	Publish(ctx context.Context, topic string, event any) error
}
