// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

// Package events provides an in-process fan-out bus for domain events.
// Delivery is best-effort: publishing never blocks the caller, and a slow
// subscriber drops events rather than stalling the login path.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gatewarden/gatewarden/internal/auth"
)

const subscriberBuffer = 16

// Envelope wraps a published event with its topic and delivery metadata.
type Envelope struct {
	ID        uuid.UUID `json:"id"`
	Topic     string    `json:"topic"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// Bus fan-outs published events to all active subscribers.
type Bus struct {
	mu   sync.RWMutex
	subs map[int]subscriber
	next int
	now  func() time.Time
}

type subscriber struct {
	topic string // empty subscribes to every topic
	ch    chan Envelope
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[int]subscriber),
		now:  time.Now,
	}
}

// Subscribe registers a subscriber for a topic and returns the channel that
// will receive matching events. An empty topic receives everything. The
// channel is closed when the provided context ends.
func (b *Bus) Subscribe(ctx context.Context, topic string) <-chan Envelope {
	ch := make(chan Envelope, subscriberBuffer)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = subscriber{topic: topic, ch: ch}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, id)
		close(ch)
		b.mu.Unlock()
	}()

	return ch
}

// Publish fan-outs the event to all matching subscribers. It never blocks
// and never fails; it satisfies auth.EventSink.
func (b *Bus) Publish(_ context.Context, topic string, event any) error {
	env := Envelope{
		ID:        uuid.New(),
		Topic:     topic,
		Payload:   event,
		Timestamp: b.now().UTC(),
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if sub.topic != "" && sub.topic != topic {
			continue
		}
		select {
		case sub.ch <- env:
		default:
			// Drop when subscriber is slow to avoid blocking.
		}
	}
	return nil
}

var _ auth.EventSink = (*Bus)(nil)
