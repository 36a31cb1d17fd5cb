package ports

import (
	"github.com/tejashwikalptaru/goplayer/internal/domain"
)

// EventBus carries the controller's notifications to their consumers (a GUI,
// the settings collaborator, a headless runner). Publishers never know who listens.
//
// Implementations must be safe for concurrent use. Handlers may run on the
// controller's owner goroutine and must not call blocking Controller methods.
//
//	id := bus.SubscribeFiltered(domain.EventStateChanged,
//	    domain.EnteredState(domain.StateError),
//	    func(event domain.Event) { view.ShowError(event.(domain.StateChangedEvent).State) })
//	defer bus.Unsubscribe(id)
type EventBus interface {
	// Publish delivers event to every matching subscriber before returning.
	Publish(event domain.Event)

	// Subscribe registers handler for one notification type.
	Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID

	// SubscribeFiltered registers handler for the notifications of eventType that
	// pass filter. A nil filter behaves like Subscribe.
	SubscribeFiltered(eventType domain.EventType, filter domain.EventFilter, handler domain.EventHandler) domain.SubscriptionID

	// SubscribeAll registers handler for every notification.
	SubscribeAll(handler domain.EventHandler) domain.SubscriptionID

	// Unsubscribe removes a subscription; unknown ids are ignored.
	Unsubscribe(id domain.SubscriptionID)

	// HasSubscribers reports whether a notification of eventType would reach anyone.
	HasSubscribers(eventType domain.EventType) bool

	// Close drops all subscriptions. Publishing afterwards is a no-op.
	Close() error
}
