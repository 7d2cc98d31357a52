// Package notify implements the auction change counter. Clients compare the
// counter against the last value they saw to decide whether to refetch state;
// no payload travels with a change.
package notify

import (
	"context"
	"sync"
)

// Initial is the version a fresh Notifier reports.
const Initial int64 = 1

// Notifier is a monotonically increasing version counter with push
// subscriptions. It is safe for concurrent use.
type Notifier struct {
	mu      sync.Mutex
	version int64
	subs    map[chan int64]struct{}
}

// New returns a Notifier starting at Initial.
func New() *Notifier {
	return &Notifier{
		version: Initial,
		subs:    make(map[chan int64]struct{}),
	}
}

// Version returns the current version.
func (n *Notifier) Version() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.version
}

// Bump increments the version and hands the new value to every subscriber.
// It never blocks: a subscriber that has not consumed the previous value has
// it replaced by the newer one.
func (n *Notifier) Bump() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.version++
	for ch := range n.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- n.version:
		default:
		}
	}
	return n.version
}

// Subscribe registers for version changes. The returned cancel func must be
// called to release the subscription; it closes the channel.
func (n *Notifier) Subscribe() (<-chan int64, func()) {
	ch := make(chan int64, 1)

	n.mu.Lock()
	n.subs[ch] = struct{}{}
	n.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs, ch)
			close(ch)
			n.mu.Unlock()
		})
	}
}

// Subscribers reports the number of live subscriptions.
func (n *Notifier) Subscribers() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}

// Wait returns as soon as the version differs from since. If it already
// differs, Wait returns immediately. When ctx ends first, the current
// version is returned together with ctx.Err().
func (n *Notifier) Wait(ctx context.Context, since int64) (int64, error) {
	ch, cancel := n.Subscribe()
	defer cancel()

	if v := n.Version(); v != since {
		return v, nil
	}

	select {
	case v := <-ch:
		return v, nil
	case <-ctx.Done():
		return n.Version(), ctx.Err()
	}
}
