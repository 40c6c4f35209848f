// Package events is the in-process publish/subscribe bus that fans glucose
// updates out to streaming clients, the gRPC watchers and the notifier.
package events

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"liyu1981.xyz/glucose-watch-service/pkg/common"
)

const TopicDexcomDataUpdated string = "dexcom-data-updated"

const (
	DefaultBuffer         = 64
	DefaultMaxSubscribers = 256
)

var ErrTooManySubscribers = errors.New("events: too many subscribers")

type Event struct {
	Topic   string
	Payload any
}

type Options struct {
	// MaxSubscribers bounds concurrent subscriptions across all topics. 0 means unbounded.
	MaxSubscribers int
	// Buffer is the per subscription queue length. A channel subscriber that
	// falls this far behind is dropped. Handler subscriptions queue without
	// bound instead.
	Buffer int
}

type Bus struct {
	mu    sync.RWMutex
	subs  map[string][]*Subscription
	count int

	// serializes publishes so every subscriber sees the same order
	pubMu sync.Mutex

	opts   Options
	logger *zap.Logger
}

func NewBus(opts Options) *Bus {
	if opts.Buffer <= 0 {
		opts.Buffer = DefaultBuffer
	}
	if opts.MaxSubscribers < 0 {
		opts.MaxSubscribers = 0
	}
	return &Bus{
		subs:   make(map[string][]*Subscription),
		opts:   opts,
		logger: common.GetLoggerWith(common.LoggerNameEventBus),
	}
}

type Subscription struct {
	ID    string
	Topic string

	bus *Bus
	ch  chan Event

	mu      sync.Mutex
	closed  bool
	dropped bool

	// set for SubscribeFunc subscriptions, which are never dropped
	queue []Event
	wake  chan struct{}
}

// C is closed when the subscription ends, either by Unsubscribe or because
// the subscriber fell behind.
func (s *Subscription) C() <-chan Event {
	return s.ch
}

// Dropped reports whether the bus ended this subscription on overflow.
func (s *Subscription) Dropped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Unsubscribe is idempotent. Once it returns no further event is delivered.
func (s *Subscription) Unsubscribe() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.ch)
		for range s.ch {
		}
		s.queue = nil
		s.signal()
	}
	s.mu.Unlock()

	s.bus.remove(s)
}

// deliver returns false when the subscription overflowed and was closed.
func (s *Subscription) deliver(ev Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return true
	}
	if s.wake != nil {
		s.queue = append(s.queue, ev)
		s.signal()
		return true
	}
	select {
	case s.ch <- ev:
		return true
	default:
		s.closed = true
		s.dropped = true
		close(s.ch)
		return false
	}
}

func (s *Subscription) signal() {
	if s.wake == nil {
		return
	}
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// next blocks until an event is queued and returns false once the
// subscription is closed.
func (s *Subscription) next() (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.queue) == 0 && !s.closed {
		s.mu.Unlock()
		<-s.wake
		s.mu.Lock()
	}
	if s.closed {
		return Event{}, false
	}

	ev := s.queue[0]
	s.queue[0] = Event{}
	s.queue = s.queue[1:]
	return ev, true
}

// Pending is the number of events queued for a handler subscription.
func (s *Subscription) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

func (b *Bus) Subscribe(topic string) (*Subscription, error) {
	return b.subscribe(topic, false)
}

func (b *Bus) subscribe(topic string, queued bool) (*Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.opts.MaxSubscribers > 0 && b.count >= b.opts.MaxSubscribers {
		return nil, ErrTooManySubscribers
	}

	sub := &Subscription{
		ID:    uuid.NewString(),
		Topic: topic,
		bus:   b,
		ch:    make(chan Event, b.opts.Buffer),
	}
	if queued {
		sub.wake = make(chan struct{}, 1)
	}
	b.subs[topic] = append(b.subs[topic], sub)
	b.count++

	b.logger.Debug("Subscribed", zap.String("topic", topic), zap.String("subscription", sub.ID))
	return sub, nil
}

// SubscribeFunc runs handler for every event on a dedicated goroutine. Events
// wait in a per-handler queue, so a slow handler delays only itself and is
// never dropped. A panicking handler is logged and does not end the
// subscription.
func (b *Bus) SubscribeFunc(topic string, handler func(Event)) (*Subscription, error) {
	sub, err := b.subscribe(topic, true)
	if err != nil {
		return nil, err
	}

	go func() {
		for {
			ev, ok := sub.next()
			if !ok {
				return
			}
			b.dispatch(sub, handler, ev)
		}
	}()

	return sub, nil
}

func (b *Bus) dispatch(sub *Subscription, handler func(Event), ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Subscriber handler panicked",
				zap.String("topic", ev.Topic),
				zap.String("subscription", sub.ID),
				zap.String("panic", fmt.Sprint(r)),
			)
		}
	}()
	handler(ev)
}

// Publish delivers payload to every current subscriber of topic in
// registration order and returns how many received it. Nothing is kept for
// subscribers that register later.
func (b *Bus) Publish(topic string, payload any) int {
	b.pubMu.Lock()
	defer b.pubMu.Unlock()

	b.mu.RLock()
	subs := make([]*Subscription, len(b.subs[topic]))
	copy(subs, b.subs[topic])
	b.mu.RUnlock()

	ev := Event{Topic: topic, Payload: payload}
	delivered := 0
	var overflowed []*Subscription
	for _, sub := range subs {
		if sub.deliver(ev) {
			delivered++
		} else {
			overflowed = append(overflowed, sub)
		}
	}

	for _, sub := range overflowed {
		b.logger.Warn("Dropped slow subscriber", zap.String("topic", topic), zap.String("subscription", sub.ID))
		b.remove(sub)
	}

	return delivered
}

func (b *Bus) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

// Close ends every subscription. Used at shutdown.
func (b *Bus) Close() {
	b.mu.RLock()
	var all []*Subscription
	for _, subs := range b.subs {
		all = append(all, subs...)
	}
	b.mu.RUnlock()

	for _, sub := range all {
		sub.Unsubscribe()
	}
}

func (b *Bus) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[sub.Topic]
	for i, s := range subs {
		if s == sub {
			b.subs[sub.Topic] = append(subs[:i:i], subs[i+1:]...)
			b.count--
			if len(b.subs[sub.Topic]) == 0 {
				delete(b.subs, sub.Topic)
			}
			return
		}
	}
}
