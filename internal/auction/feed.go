package auction

import (
	"context"
	"sync"
)

// Feed delivers closed lots to one follower in the order they closed. The
// queue is unbounded, so a slow follower falls behind but never skips a lot.
type Feed struct {
	mu     sync.Mutex
	queue  []Action
	ready  chan struct{}
	detach func()
}

func newFeed() *Feed {
	return &Feed{ready: make(chan struct{}, 1)}
}

func (f *Feed) push(a Action) {
	f.mu.Lock()
	f.queue = append(f.queue, a)
	f.mu.Unlock()

	select {
	case f.ready <- struct{}{}:
	default:
	}
}

// Next blocks until a lot closes or ctx is done.
func (f *Feed) Next(ctx context.Context) (Action, error) {
	for {
		f.mu.Lock()
		if len(f.queue) > 0 {
			a := f.queue[0]
			f.queue = f.queue[1:]
			f.mu.Unlock()
			return a, nil
		}
		f.mu.Unlock()

		select {
		case <-ctx.Done():
			return Action{}, ctx.Err()
		case <-f.ready:
		}
	}
}

// Close stops delivery. Lots still queued are discarded.
func (f *Feed) Close() {
	if f.detach != nil {
		f.detach()
	}
}

// feeds fans closed lots out to every attached Feed.
type feeds struct {
	mu  sync.Mutex
	set map[*Feed]struct{}
}

func (fs *feeds) attach() *Feed {
	f := newFeed()
	fs.mu.Lock()
	if fs.set == nil {
		fs.set = make(map[*Feed]struct{})
	}
	fs.set[f] = struct{}{}
	fs.mu.Unlock()

	f.detach = func() {
		fs.mu.Lock()
		delete(fs.set, f)
		fs.mu.Unlock()
	}
	return f
}

func (fs *feeds) publish(actions []Action) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for f := range fs.set {
		for _, a := range actions {
			f.push(a)
		}
	}
}
