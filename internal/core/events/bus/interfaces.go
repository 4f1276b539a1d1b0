package bus

import "time"

// Wildcard subscribes a handler to every event delivered on a topic.
const Wildcard = "*"

// EventBus is an in-process pub/sub bus with named event channels.
//
// Key characteristics:
// - Name-based fan-out: handlers subscribe by Event.Name() or Wildcard.
// - Topics scope subscriptions; the default topic is "" (empty string).
// - Synchronous delivery in the publisher goroutine, highest priority first;
//   handlers with equal priority run in subscription order.
// - Every handler runs; their errors are joined and returned from Publish.
// - Metrics are produced only when observers are registered.
type EventBus interface {
	// Publish delivers the event to the subscribers of event.Name() in the default topic.
	Publish(event Event) error
	// PublishToTopic delivers the event to the subscribers of a topic.
	PublishToTopic(topic string, event Event) error

	// Subscribe registers a handler for an event name in the default topic.
	Subscribe(eventName string, handler EventHandler, opts ...SubscribeOption) (Subscription, error)
	// SubscribeTopic registers a handler for an event name within a topic.
	SubscribeTopic(topic, eventName string, handler EventHandler, opts ...SubscribeOption) (Subscription, error)
	// Unsubscribe cancels the given Subscription. It is safe to call with nil.
	Unsubscribe(Subscription) error

	// CreateTopic declares a topic. Repeat declarations are idempotent.
	CreateTopic(name string) error
	// GetTopics returns a snapshot list of known topics.
	GetTopics() []TopicInfo

	AddObserver(obs EventBusObserver)
	RemoveObserver(obs EventBusObserver)
	// GetMetrics returns a snapshot of the counters kept while observers are registered.
	GetMetrics() EventBusMetrics
}

// Event is an immutable message describing one firing of a named event.
//
// Fields:
// - Name: routing key used to select handlers.
// - Target: identifier of the component the event was fired for.
// - Timestamp: when the event was created.
// - File, Line: source location that created the event.
// - Params: payload; callers receive a copy.
type Event interface {
	Name() string
	Target() string
	Timestamp() time.Time
	File() string
	Line() int
	Params() map[string]any
	Param(key string) (any, bool)
}

type (
	// EventHandler is invoked per delivered event.
	EventHandler func(event Event) error
	// SubscribeOption customizes a subscription.
	SubscribeOption func(*subscription)
)

// WithPriority orders handlers; higher runs first. The default is 1.
func WithPriority(priority int) SubscribeOption {
	return func(s *subscription) { s.priority = priority }
}

// Subscription is a registered handler bound to an event name.
type Subscription interface {
	ID() string
	EventName() string
	Priority() int
	IsActive() bool
	// Cancel de-registers the handler. Multiple calls are safe.
	Cancel() error
}

// EventBusObserver is notified about deliveries and errors.
type EventBusObserver interface {
	OnPublish(topic, eventName string, event Event)
	OnDelivered(topic, eventName string, handlers int, err error, durationMicros int64)
}

type EventBusMetrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	SubscribersActive uint64
	Topics            uint64
}

type TopicInfo struct {
	Name       string
	EventNames int
	Subs       int
}
