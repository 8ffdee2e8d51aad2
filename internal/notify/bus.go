// Package notify provides the change notification bus.
//
// The bus carries no payload. A publish means "something changed, re-read
// what you need"; subscribers drop their cached reads and re-fetch lazily.
package notify

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Listener is called on every publish. A returned error or a panic is
// reported by Publish but does not stop other listeners.
type Listener func() error

type subscription struct {
	id int64
	fn Listener
}

// Bus is an in-process publish/subscribe registry.
// Safe for concurrent use.
type Bus struct {
	mu     sync.Mutex
	nextID int64
	subs   []subscription
	logger *slog.Logger
}

// NewBus creates an empty bus. A nil logger uses slog.Default().
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{logger: logger}
}

// Subscribe registers fn and returns a function that removes it.
// The returned function is safe to call more than once.
func (b *Bus) Subscribe(fn Listener) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bus) remove(id int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Len returns the number of current subscribers.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Publish calls every current listener synchronously, in subscription order.
// Listeners subscribed or removed during a publish take effect on the next one.
// Errors and recovered panics from all listeners are joined and returned.
func (b *Bus) Publish() error {
	b.mu.Lock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	var errs []error
	for _, s := range subs {
		if err := call(s.fn); err != nil {
			b.logger.Warn("change listener failed", "listener", s.id, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func call(fn Listener) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panic: %v", r)
		}
	}()
	return fn()
}
