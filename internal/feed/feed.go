// Package feed maintains a live, owner-scoped view of the transaction
// collection. Each store notification carries the complete result set for
// the scope; the feed replaces its list wholesale and re-sorts it, so
// consumers always read a coherent snapshot and never apply diffs.
package feed

import (
	"context"
	"sort"
	"sync"

	"expenso/internal/core"
	"expenso/internal/store"
)

// Feed owns the in-memory transaction list for one scope. Consumers only
// ever receive copies; the backing list is never handed out for mutation.
type Feed struct {
	scope store.Scope
	sub   *store.Subscription

	mu       sync.Mutex
	list     []core.Transaction
	lastErr  error
	onChange func()
	closed   bool

	done chan struct{}
}

// Open establishes the subscription and starts consuming notifications.
// The initial snapshot is applied before Open returns, so Snapshot() is
// immediately meaningful.
func Open(ctx context.Context, watcher store.TransactionWatcher, scope store.Scope) (*Feed, error) {
	sub, err := watcher.Watch(ctx, scope)
	if err != nil {
		return nil, err
	}

	f := &Feed{
		scope: scope,
		sub:   sub,
		done:  make(chan struct{}),
	}

	// The subscription is primed with the current result set.
	if initial, ok := <-sub.Snapshots(); ok {
		f.apply(initial)
	}

	go f.run()
	return f, nil
}

// OnChange registers a hook invoked after every applied snapshot, e.g.
// for cache invalidation. Must be set before concurrent use.
func (f *Feed) OnChange(fn func()) {
	f.mu.Lock()
	f.onChange = fn
	f.mu.Unlock()
}

// Scope returns the owner scope this feed observes.
func (f *Feed) Scope() store.Scope {
	return f.scope
}

// Snapshot returns a copy of the current list, sorted by date descending.
func (f *Feed) Snapshot() []core.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]core.Transaction, len(f.list))
	copy(out, f.list)
	return out
}

// Err returns the most recent subscription error, or nil. A non-nil
// error means Snapshot() is stale but still available.
func (f *Feed) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// Close tears the subscription down. No notification mutates the feed
// after Close returns; the last list stays readable.
func (f *Feed) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	f.mu.Unlock()

	f.sub.Close()
	<-f.done
}

func (f *Feed) run() {
	defer close(f.done)
	for {
		select {
		case snap, ok := <-f.sub.Snapshots():
			if !ok {
				return
			}
			f.apply(snap)
		case err, ok := <-f.sub.Errs():
			if !ok {
				return
			}
			f.mu.Lock()
			if !f.closed {
				// Keep the stale list; only record the error.
				f.lastErr = err
			}
			f.mu.Unlock()
		}
	}
}

func (f *Feed) apply(snap []core.Transaction) {
	sorted := make([]core.Transaction, len(snap))
	copy(sorted, snap)
	// Total order: stores do not promise a snapshot order, and a stable
	// sort alone would let same-date rows reshuffle between notifications.
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.Date.Equal(b.Date.Time) {
			return a.Date.After(b.Date.Time)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.list = sorted
	f.lastErr = nil
	cb := f.onChange
	f.mu.Unlock()

	if cb != nil {
		cb()
	}
}
