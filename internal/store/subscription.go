package store

import (
	"sync"

	"expenso/internal/core"
)

// Subscription is a standing watch on a transaction scope. Snapshots()
// yields complete result sets; a pending undelivered snapshot is replaced
// when a newer one arrives, so a slow consumer only ever sees the latest
// state. After Close returns, no further snapshot or error is delivered.
type Subscription struct {
	scope Scope

	mu        sync.Mutex
	closed    bool
	snapshots chan []core.Transaction
	errs      chan error
	onClose   func()
}

func newSubscription(scope Scope, onClose func()) *Subscription {
	return &Subscription{
		scope:     scope,
		snapshots: make(chan []core.Transaction, 1),
		errs:      make(chan error, 1),
		onClose:   onClose,
	}
}

// Scope returns the scope this subscription was opened with.
func (s *Subscription) Scope() Scope {
	return s.scope
}

// Snapshots returns the channel of full result sets.
func (s *Subscription) Snapshots() <-chan []core.Transaction {
	return s.snapshots
}

// Errs returns the channel of subscription errors. An error does not end
// the subscription; the consumer keeps its last snapshot.
func (s *Subscription) Errs() <-chan error {
	return s.errs
}

// Close tears the subscription down. It is unconditional and idempotent.
func (s *Subscription) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.snapshots)
	close(s.errs)
	s.mu.Unlock()

	if s.onClose != nil {
		s.onClose()
	}
}

// deliver hands a snapshot to the consumer without ever blocking the
// publisher: a stale pending snapshot is dropped first.
func (s *Subscription) deliver(list []core.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case <-s.snapshots:
	default:
	}
	s.snapshots <- list
}

// deliverErr reports a subscription error, dropping older pending errors.
func (s *Subscription) deliverErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case <-s.errs:
	default:
	}
	s.errs <- err
}

// Hub fans mutations out to active subscriptions. Stores embed one and
// call Changed after every committed write.
type Hub struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[*Subscription]struct{})}
}

// Subscribe registers a new subscription and primes it with the initial
// result set.
func (h *Hub) Subscribe(scope Scope, initial []core.Transaction) *Subscription {
	var sub *Subscription
	sub = newSubscription(scope, func() {
		h.mu.Lock()
		delete(h.subs, sub)
		h.mu.Unlock()
	})

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	sub.deliver(initial)
	return sub
}

// Changed notifies every subscription whose scope includes ownerID.
// load must return the complete current result set for a scope; a load
// failure is surfaced on the subscription's error channel and the last
// snapshot stays in place.
func (h *Hub) Changed(ownerID string, load func(Scope) ([]core.Transaction, error)) {
	h.mu.Lock()
	targets := make([]*Subscription, 0, len(h.subs))
	for sub := range h.subs {
		if sub.scope.Includes(ownerID) {
			targets = append(targets, sub)
		}
	}
	h.mu.Unlock()

	for _, sub := range targets {
		list, err := load(sub.scope)
		if err != nil {
			sub.deliverErr(err)
			continue
		}
		sub.deliver(list)
	}
}
