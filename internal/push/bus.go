// Package push implements the coordinator's one-way notification channels:
// tab-scoped pushes to a content script and unscoped broadcasts to any UI
// surface that happens to be listening. Delivery is best-effort by contract;
// a missing or slow listener is an expected outcome, never an error.
package push

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sujayx07/TurthScope-GenAI-GCP-integrate/internal/logging"
	"github.com/sujayx07/TurthScope-GenAI-GCP-integrate/internal/protocol"
)

// DefaultBuffer is the per-subscriber event buffer. A subscriber that falls
// this far behind starts losing events, which the contract permits.
const DefaultBuffer = 64

// Envelope wraps a delivered event with correlation metadata.
type Envelope struct {
	ID    string
	At    time.Time
	Event protocol.Event
}

// Subscription receives envelopes from the bus until closed.
type Subscription struct {
	bus    *Bus
	ch     chan Envelope
	tabID  int
	hasTab bool
	all    bool
	once   sync.Once
}

// Events returns the subscription's delivery channel. The channel is closed
// when the subscription is closed.
func (s *Subscription) Events() <-chan Envelope {
	return s.ch
}

// Close detaches the subscription from the bus.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.bus.remove(s)
		close(s.ch)
	})
}

// Bus is the process-wide notification fan-out.
type Bus struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	buffer int
}

// NewBus creates a bus with the default subscriber buffer.
func NewBus() *Bus {
	return &Bus{
		subs:   make(map[*Subscription]struct{}),
		buffer: DefaultBuffer,
	}
}

// SubscribeTab attaches a listener for broadcasts plus pushes scoped to the
// given tab. This is what a content script's bridge connection uses.
func (b *Bus) SubscribeTab(tabID int) *Subscription {
	return b.subscribe(&Subscription{tabID: tabID, hasTab: true})
}

// SubscribeBroadcast attaches a listener for broadcasts only: popup and side
// panel surfaces, which have no tab of their own.
func (b *Bus) SubscribeBroadcast() *Subscription {
	return b.subscribe(&Subscription{})
}

// SubscribeAll attaches a listener for every envelope regardless of scope.
func (b *Bus) SubscribeAll() *Subscription {
	return b.subscribe(&Subscription{all: true})
}

func (b *Bus) subscribe(s *Subscription) *Subscription {
	s.bus = b
	s.ch = make(chan Envelope, b.buffer)
	b.mu.Lock()
	b.subs[s] = struct{}{}
	b.mu.Unlock()
	return s
}

func (b *Bus) remove(s *Subscription) {
	b.mu.Lock()
	delete(b.subs, s)
	b.mu.Unlock()
}

// Push delivers a tab-scoped event to subscribers of that tab. Returns the
// number of subscribers the event reached; zero is not an error.
func (b *Bus) Push(tabID int, ev protocol.Event) int {
	env := Envelope{ID: uuid.NewString(), At: time.Now(), Event: ev}

	b.mu.Lock()
	defer b.mu.Unlock()
	delivered := 0
	for s := range b.subs {
		if !s.all && !(s.hasTab && s.tabID == tabID) {
			continue
		}
		if b.offer(s, env) {
			delivered++
		}
	}
	logging.PushDebug("push %s tab=%d delivered=%d", ev.Type(), tabID, delivered)
	return delivered
}

// Broadcast delivers an unscoped event to every subscriber. Returns the
// number of subscribers reached; zero is not an error.
func (b *Bus) Broadcast(ev protocol.Event) int {
	env := Envelope{ID: uuid.NewString(), At: time.Now(), Event: ev}

	b.mu.Lock()
	defer b.mu.Unlock()
	delivered := 0
	for s := range b.subs {
		if b.offer(s, env) {
			delivered++
		}
	}
	logging.PushDebug("broadcast %s delivered=%d", ev.Type(), delivered)
	return delivered
}

// offer attempts a non-blocking delivery. A full buffer drops the envelope
// for that subscriber rather than stalling the coordinator.
func (b *Bus) offer(s *Subscription, env Envelope) bool {
	select {
	case s.ch <- env:
		return true
	default:
		logging.Get(logging.CategoryPush).Warn("subscriber buffer full, dropping %s", env.Event.Type())
		return false
	}
}

// SubscriberCount reports how many subscriptions are currently attached.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
