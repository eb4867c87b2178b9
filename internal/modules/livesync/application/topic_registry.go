package application

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"ventasWs/internal/modules/livesync/domain"
	realtime "ventasWs/internal/modules/realtime/domain"
	"ventasWs/internal/shared/normalization"
)

type subscription struct {
	handler domain.Handler
	removed atomic.Bool
}

// TopicRegistry demultiplexes the incoming event stream into per entity type
// subscriber sets plus the wildcard set.
type TopicRegistry struct {
	mu     sync.RWMutex
	topics map[string][]*subscription
}

func NewTopicRegistry() *TopicRegistry {
	return &TopicRegistry{topics: make(map[string][]*subscription)}
}

// Subscribe registers handler under topic and returns the function removing it.
// The returned function may be called any number of times.
func (r *TopicRegistry) Subscribe(topic string, handler domain.Handler) func() {
	topic = normalization.CanonicalEntity(topic)
	if topic == "" || handler == nil {
		slog.Warn("livesync subscribe ignored", slog.String("topic", topic), slog.Bool("nilHandler", handler == nil))
		return func() {}
	}
	sub := &subscription{handler: handler}

	r.mu.Lock()
	r.topics[topic] = append(r.topics[topic], sub)
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { r.remove(topic, sub) })
	}
}

// SubscribeFunc is Subscribe for a plain function.
func (r *TopicRegistry) SubscribeFunc(topic string, fn func(realtime.ChangeEvent) error) func() {
	if fn == nil {
		return r.Subscribe(topic, nil)
	}
	return r.Subscribe(topic, domain.HandlerFunc(fn))
}

func (r *TopicRegistry) remove(topic string, sub *subscription) {
	sub.removed.Store(true)
	r.mu.Lock()
	defer r.mu.Unlock()
	subs := r.topics[topic]
	for i, candidate := range subs {
		if candidate != sub {
			continue
		}
		next := make([]*subscription, 0, len(subs)-1)
		next = append(next, subs[:i]...)
		next = append(next, subs[i+1:]...)
		if len(next) == 0 {
			delete(r.topics, topic)
		} else {
			r.topics[topic] = next
		}
		return
	}
}

// Dispatch delivers event to the subscribers of its entity type and to the
// wildcard subscribers, synchronously. A failing or panicking handler is
// logged and does not stop delivery to the others.
func (r *TopicRegistry) Dispatch(event realtime.ChangeEvent) {
	topic := event.Topic()
	if topic == "" || topic == realtime.WildcardTopic {
		slog.Warn("livesync event without entity type dropped", slog.String("action", string(event.Action)))
		return
	}

	r.mu.RLock()
	targets := make([]*subscription, 0, len(r.topics[topic])+len(r.topics[realtime.WildcardTopic]))
	targets = append(targets, r.topics[topic]...)
	targets = append(targets, r.topics[realtime.WildcardTopic]...)
	r.mu.RUnlock()

	for _, sub := range targets {
		if sub.removed.Load() {
			continue
		}
		if err := invoke(sub.handler, event); err != nil {
			slog.Warn("livesync handler failed", slog.String("topic", topic), slog.String("action", string(event.Action)), slog.Any("error", err))
		}
	}
}

func invoke(handler domain.Handler, event realtime.ChangeEvent) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panic: %v", rec)
		}
	}()
	return handler.Handle(event)
}

// Topics lists the topics with at least one subscriber.
func (r *TopicRegistry) Topics() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	topics := make([]string, 0, len(r.topics))
	for topic := range r.topics {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}

// Len reports the number of subscribers registered under topic.
func (r *TopicRegistry) Len(topic string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.topics[normalization.CanonicalEntity(topic)])
}

var _ domain.Dispatcher = (*TopicRegistry)(nil)
