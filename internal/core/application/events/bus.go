// Package events provides the in-process domain event bus.
//
// Aggregates raise events, command handlers publish them after a successful
// commit, and subscribers (SMS, unlock channel, event stream) react. The bus
// is how the payment and delivery sides talk to each other without importing
// one another.
package events

import (
	"context"
	"log/slog"
	"sync"

	"parcellocker/internal/core/domain/model/kernel"
)

// AllEvents subscribes a handler to every event name.
const AllEvents = "*"

// Handler reacts to one event. A returned error is logged and does not stop
// delivery to the remaining handlers.
type Handler func(ctx context.Context, event kernel.DomainEvent) error

type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *slog.Logger
}

func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
		logger:   logger.With("component", "event-bus"),
	}
}

// Subscribe registers h for events named name, or for all events with AllEvents.
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

// Publish delivers events synchronously, in order, to their subscribers.
func (b *Bus) Publish(ctx context.Context, events ...kernel.DomainEvent) {
	for _, event := range events {
		for _, h := range b.subscribers(event.EventName()) {
			if err := b.dispatch(ctx, h, event); err != nil {
				b.logger.ErrorContext(ctx, "event handler failed",
					"event", event.EventName(),
					"error", err,
				)
			}
		}
	}
}

func (b *Bus) subscribers(name string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Handler, 0, len(b.handlers[name])+len(b.handlers[AllEvents]))
	out = append(out, b.handlers[name]...)
	out = append(out, b.handlers[AllEvents]...)
	return out
}

func (b *Bus) dispatch(ctx context.Context, h Handler, event kernel.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.ErrorContext(ctx, "event handler panicked", "event", event.EventName(), "panic", r)
		}
	}()
	return h(ctx, event)
}
