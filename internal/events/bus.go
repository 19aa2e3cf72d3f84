package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/phrazzld/tasklist-api/internal/platform/logger"
)

// InMemoryEventBus delivers events to listeners registered for their type.
type InMemoryEventBus struct {
	mu        sync.RWMutex
	listeners map[string][]Listener
	logger    *slog.Logger
}

var _ Dispatcher = (*InMemoryEventBus)(nil)

// NewInMemoryEventBus creates an empty bus. If logger is nil, slog.Default() is used.
func NewInMemoryEventBus(logger *slog.Logger) *InMemoryEventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &InMemoryEventBus{
		listeners: make(map[string][]Listener),
		logger:    logger.With("component", "event_bus"),
	}
}

// Listen registers l for eventType. Listeners run in registration order.
func (b *InMemoryEventBus) Listen(eventType string, l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[eventType] = append(b.listeners[eventType], l)
	b.logger.Debug("registered event listener",
		"event_type", eventType,
		"listener_count", len(b.listeners[eventType]))
}

// Dispatch runs every listener for the event's type before returning.
// A listener that fails or panics is logged and the remaining listeners
// still run.
func (b *InMemoryEventBus) Dispatch(ctx context.Context, event Event) {
	log := logger.FromContextOrDefault(ctx, b.logger)

	b.mu.RLock()
	listeners := append([]Listener(nil), b.listeners[event.EventType()]...)
	b.mu.RUnlock()

	if len(listeners) == 0 {
		log.Debug("no listeners registered for event",
			"event_id", event.EventID(),
			"event_type", event.EventType())
		return
	}

	for i, l := range listeners {
		if err := b.invoke(ctx, l, event); err != nil {
			log.Error("event listener failed",
				"error", err,
				"listener_index", i,
				"event_id", event.EventID(),
				"event_type", event.EventType())
		}
	}
}

func (b *InMemoryEventBus) invoke(ctx context.Context, l Listener, event Event) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("listener panicked: %v", p)
		}
	}()
	return l.Handle(ctx, event)
}
