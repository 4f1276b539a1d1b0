package bus

import (
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const defaultPriority = 1

// subscription implements Subscription interface.
type subscription struct {
	id        string
	eventName string
	handler   EventHandler
	priority  int
	seq       uint64
	active    atomic.Bool
	cancel    func()
}

func (s *subscription) ID() string        { return s.id }
func (s *subscription) EventName() string { return s.eventName }
func (s *subscription) Priority() int     { return s.priority }
func (s *subscription) IsActive() bool    { return s.active.Load() }
func (s *subscription) Cancel() error {
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

// inMemoryBus is a thread-safe implementation of EventBus with topics and observers.
type inMemoryBus struct {
	mu sync.RWMutex
	// handlers: topic -> eventName -> subID -> subscription
	handlers  map[string]map[string]map[string]*subscription
	topics    map[string]struct{}
	seq       uint64
	metrics   EventBusMetrics
	observers map[EventBusObserver]struct{}
}

// New creates a new EventBus instance.
func New() EventBus {
	return &inMemoryBus{
		handlers:  make(map[string]map[string]map[string]*subscription),
		topics:    make(map[string]struct{}),
		observers: make(map[EventBusObserver]struct{}),
	}
}

func (b *inMemoryBus) Publish(event Event) error {
	return b.deliver("", event)
}

func (b *inMemoryBus) PublishToTopic(topic string, event Event) error {
	return b.deliver(topic, event)
}

func (b *inMemoryBus) Subscribe(eventName string, handler EventHandler, opts ...SubscribeOption) (Subscription, error) {
	return b.SubscribeTopic("", eventName, handler, opts...)
}

func (b *inMemoryBus) SubscribeTopic(topic, eventName string, handler EventHandler, opts ...SubscribeOption) (Subscription, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	if eventName == "" {
		return nil, ErrEmptyEventName
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureTopicLocked(topic)
	if b.handlers[topic][eventName] == nil {
		b.handlers[topic][eventName] = make(map[string]*subscription)
	}

	b.seq++
	id := uuid.NewString()
	s := &subscription{id: id, eventName: eventName, handler: handler, priority: defaultPriority, seq: b.seq}
	s.active.Store(true)
	for _, opt := range opts {
		opt(s)
	}
	s.cancel = func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if mm, ok := b.handlers[topic][eventName]; ok {
			delete(mm, id)
		}
		s.active.Store(false)
	}
	b.handlers[topic][eventName][id] = s
	return s, nil
}

func (b *inMemoryBus) Unsubscribe(sub Subscription) error {
	if sub == nil {
		return nil
	}
	return sub.Cancel()
}

func (b *inMemoryBus) CreateTopic(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureTopicLocked(name)
	return nil
}

func (b *inMemoryBus) AddObserver(obs EventBusObserver) {
	b.mu.Lock()
	b.observers[obs] = struct{}{}
	b.mu.Unlock()
}

func (b *inMemoryBus) RemoveObserver(obs EventBusObserver) {
	b.mu.Lock()
	delete(b.observers, obs)
	b.mu.Unlock()
}

func (b *inMemoryBus) GetMetrics() EventBusMetrics {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.metrics
}

func (b *inMemoryBus) GetTopics() []TopicInfo {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]TopicInfo, 0, len(b.topics))
	for name := range b.topics {
		info := TopicInfo{Name: name}
		if hm := b.handlers[name]; hm != nil {
			info.EventNames = len(hm)
			for _, m := range hm {
				info.Subs += len(m)
			}
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (b *inMemoryBus) ensureTopicLocked(topic string) {
	b.topics[topic] = struct{}{}
	if b.handlers[topic] == nil {
		b.handlers[topic] = make(map[string]map[string]*subscription)
	}
}

// listenersLocked returns the named and wildcard subscriptions of a topic in delivery order.
func (b *inMemoryBus) listenersLocked(topic, name string) []*subscription {
	inner := b.handlers[topic]
	if inner == nil {
		return nil
	}
	subs := make([]*subscription, 0, len(inner[name])+len(inner[Wildcard]))
	for _, s := range inner[name] {
		subs = append(subs, s)
	}
	if name != Wildcard {
		for _, s := range inner[Wildcard] {
			subs = append(subs, s)
		}
	}
	sort.Slice(subs, func(i, j int) bool {
		if subs[i].priority != subs[j].priority {
			return subs[i].priority > subs[j].priority
		}
		return subs[i].seq < subs[j].seq
	})
	return subs
}

func (b *inMemoryBus) deliver(topic string, event Event) error {
	if event == nil {
		return ErrNilEvent
	}
	start := time.Now()
	name := event.Name()

	b.mu.RLock()
	subs := b.listenersLocked(topic, name)
	observers := make([]EventBusObserver, 0, len(b.observers))
	for obs := range b.observers {
		observers = append(observers, obs)
	}
	b.mu.RUnlock()

	for _, obs := range observers {
		obs.OnPublish(topic, name, event)
	}

	var all error
	for _, s := range subs {
		if !s.active.Load() {
			continue
		}
		if err := s.handler(event); err != nil {
			all = errors.Join(all, err)
		}
	}

	if len(observers) > 0 {
		dur := time.Since(start).Microseconds()
		for _, obs := range observers {
			obs.OnDelivered(topic, name, len(subs), all, dur)
		}
		b.mu.Lock()
		b.metrics.Published++
		b.metrics.DeliveredHandlers += uint64(len(subs))
		if all != nil {
			b.metrics.Errors++
		}
		b.metrics.Topics = uint64(len(b.topics))
		var active uint64
		for _, et := range b.handlers {
			for _, m := range et {
				active += uint64(len(m))
			}
		}
		b.metrics.SubscribersActive = active
		b.mu.Unlock()
	}
	return all
}
