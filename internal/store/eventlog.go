// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package store

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/gatewarden/gatewarden/internal/events"
)

// pool is the subset of pgxpool.Pool the event log needs. Declared so tests
// can substitute pgxmock.
type pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// EventLog archives published authentication events in PostgreSQL. It is an
// observer, not a source of truth: rows are written best-effort off the bus
// and the login path never waits on them.
type EventLog struct {
	pool   pool
	logger *slog.Logger
}

// NewEventLog creates an EventLog writing through the given pool.
func NewEventLog(pool pool, logger *slog.Logger) *EventLog {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventLog{pool: pool, logger: logger}
}

// Append persists one event envelope.
func (l *EventLog) Append(ctx context.Context, env events.Envelope) error {
	payload, err := json.Marshal(env.Payload)
	if err != nil {
		return oops.Code("EVENTLOG_ENCODE_FAILED").
			With("topic", env.Topic).
			Wrap(err)
	}

	_, err = l.pool.Exec(ctx, `
		INSERT INTO auth_events (id, topic, payload, created_at)
		VALUES ($1, $2, $3, $4)
	`, env.ID, env.Topic, payload, env.Timestamp)
	if err != nil {
		return oops.Code("EVENTLOG_APPEND_FAILED").
			With("topic", env.Topic).
			With("event_id", env.ID.String()).
			Wrap(err)
	}
	return nil
}

// Recent returns up to limit archived events for a topic, newest first. An
// empty topic returns events from every topic.
func (l *EventLog) Recent(ctx context.Context, topic string, limit int) ([]events.Envelope, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if topic == "" {
		rows, err = l.pool.Query(ctx, `
			SELECT id, topic, payload, created_at
			FROM auth_events
			ORDER BY created_at DESC
			LIMIT $1
		`, limit)
	} else {
		rows, err = l.pool.Query(ctx, `
			SELECT id, topic, payload, created_at
			FROM auth_events
			WHERE topic = $1
			ORDER BY created_at DESC
			LIMIT $2
		`, topic, limit)
	}
	if err != nil {
		return nil, oops.Code("EVENTLOG_QUERY_FAILED").
			With("topic", topic).
			Wrap(err)
	}
	defer rows.Close()

	var out []events.Envelope
	for rows.Next() {
		var (
			env     events.Envelope
			payload []byte
		)
		if err := rows.Scan(&env.ID, &env.Topic, &payload, &env.Timestamp); err != nil {
			return nil, oops.Code("EVENTLOG_SCAN_FAILED").Wrap(err)
		}
		env.Payload = json.RawMessage(payload)
		out = append(out, env)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("EVENTLOG_QUERY_FAILED").Wrap(err)
	}
	return out, nil
}

// Run subscribes to every topic on the bus and archives events until the
// context ends. Append failures are logged and skipped; archival must never
// disturb the publishers.
func (l *EventLog) Run(ctx context.Context, bus *events.Bus) {
	ch := bus.Subscribe(ctx, "")
	for env := range ch {
		if err := l.Append(ctx, env); err != nil {
			l.logger.Warn("event archive write failed",
				"topic", env.Topic,
				"event_id", env.ID.String(),
				"error", err)
		}
	}
}
