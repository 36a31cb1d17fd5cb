// Package eventbus delivers playback notifications to subscribers.
package eventbus

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/tejashwikalptaru/goplayer/internal/domain"
	"github.com/tejashwikalptaru/goplayer/internal/ports"
)

// SyncEventBus delivers each notification on the publisher's goroutine, in
// subscription order, before Publish returns. The controller publishes from its
// owner goroutine, so subscribers observe notifications in the order the
// state changed.
//
// A panicking handler or filter is logged and skipped; the remaining
// subscribers still run.
type SyncEventBus struct {
	logger *slog.Logger

	mu     sync.RWMutex
	subs   []subscription
	nextID uint64
	closed bool
}

// subscription is one registered handler. An empty topic matches every type.
type subscription struct {
	id      domain.SubscriptionID
	topic   domain.EventType
	filter  domain.EventFilter
	handler domain.EventHandler
}

func (s subscription) wants(eventType domain.EventType) bool {
	return s.topic == "" || s.topic == eventType
}

// NewSyncEventBus creates an empty bus that logs nowhere until SetLogger is called.
func NewSyncEventBus() *SyncEventBus {
	return &SyncEventBus{logger: slog.New(slog.DiscardHandler)}
}

// SetLogger sets the logger for this event bus.
func (bus *SyncEventBus) SetLogger(logger *slog.Logger) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.logger = logger
}

// Publish delivers event to every subscriber of its type and to the
// catch-all subscribers, in the order they subscribed.
func (bus *SyncEventBus) Publish(event domain.Event) {
	if event == nil {
		return
	}
	eventType := event.Type()

	bus.mu.RLock()
	if bus.closed {
		bus.mu.RUnlock()
		return
	}
	// Handlers may (un)subscribe; deliver to the set seen at publish time
	targets := make([]subscription, 0, len(bus.subs))
	for _, sub := range bus.subs {
		if sub.wants(eventType) {
			targets = append(targets, sub)
		}
	}
	logger := bus.logger
	bus.mu.RUnlock()

	logger.Debug("notification published",
		slog.String("event_type", string(eventType)),
		slog.Int("subscribers", len(targets)))

	for _, sub := range targets {
		bus.deliver(logger, sub, event)
	}
}

func (bus *SyncEventBus) deliver(logger *slog.Logger, sub subscription, event domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("event subscriber panicked",
				slog.Any("panic", r),
				slog.String("subscription", string(sub.id)),
				slog.String("event_type", string(event.Type())))
		}
	}()

	if sub.filter != nil && !sub.filter(event) {
		return
	}
	sub.handler(event)
}

// Subscribe registers handler for notifications of eventType.
func (bus *SyncEventBus) Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID {
	return bus.add(eventType, nil, handler)
}

// SubscribeFiltered registers handler for the notifications of eventType that pass filter.
func (bus *SyncEventBus) SubscribeFiltered(eventType domain.EventType, filter domain.EventFilter, handler domain.EventHandler) domain.SubscriptionID {
	return bus.add(eventType, filter, handler)
}

// SubscribeAll registers handler for every notification.
func (bus *SyncEventBus) SubscribeAll(handler domain.EventHandler) domain.SubscriptionID {
	return bus.add("", nil, handler)
}

// add registers a subscription. Subscribing to a closed bus is logged and
// yields an empty id; the handler is never called.
func (bus *SyncEventBus) add(topic domain.EventType, filter domain.EventFilter, handler domain.EventHandler) domain.SubscriptionID {
	if handler == nil {
		panic("event handler cannot be nil")
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		bus.logger.Warn("subscribe on closed event bus", slog.String("event_type", string(topic)))
		return ""
	}

	bus.nextID++
	id := domain.SubscriptionID(fmt.Sprintf("sub-%d", bus.nextID))
	bus.subs = append(bus.subs, subscription{id: id, topic: topic, filter: filter, handler: handler})
	return id
}

// Unsubscribe removes a subscription. Unknown ids are ignored.
func (bus *SyncEventBus) Unsubscribe(id domain.SubscriptionID) {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	// Delete keeps the remaining subscribers in order
	bus.subs = slices.DeleteFunc(bus.subs, func(s subscription) bool { return s.id == id })
}

// HasSubscribers reports whether a notification of eventType would reach anyone.
func (bus *SyncEventBus) HasSubscribers(eventType domain.EventType) bool {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	return slices.ContainsFunc(bus.subs, func(s subscription) bool { return s.wants(eventType) })
}

// SubscriberCount returns the number of live subscriptions.
func (bus *SyncEventBus) SubscriberCount() int {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	return len(bus.subs)
}

// Close drops every subscription. Closing twice returns domain.ErrClosed.
func (bus *SyncEventBus) Close() error {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		return fmt.Errorf("event bus: %w", domain.ErrClosed)
	}
	bus.closed = true
	bus.subs = nil
	return nil
}

var _ ports.EventBus = (*SyncEventBus)(nil)
