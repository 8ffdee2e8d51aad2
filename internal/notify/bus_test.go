package notify

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublish_CallsListenersInOrder(t *testing.T) {
	bus := NewBus(nil)
	var calls []int

	for i := 1; i <= 3; i++ {
		n := i
		bus.Subscribe(func() error {
			calls = append(calls, n)
			return nil
		})
	}

	require.NoError(t, bus.Publish())
	assert.Equal(t, []int{1, 2, 3}, calls)
}

func TestPublish_NoListeners(t *testing.T) {
	bus := NewBus(nil)
	assert.NoError(t, bus.Publish())
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus(nil)
	count := 0
	unsub := bus.Subscribe(func() error {
		count++
		return nil
	})

	require.NoError(t, bus.Publish())
	unsub()
	unsub() // second call is a no-op
	require.NoError(t, bus.Publish())

	assert.Equal(t, 1, count)
	assert.Equal(t, 0, bus.Len())
}

func TestUnsubscribe_KeepsOthers(t *testing.T) {
	bus := NewBus(nil)
	var calls []string
	bus.Subscribe(func() error { calls = append(calls, "a"); return nil })
	unsubB := bus.Subscribe(func() error { calls = append(calls, "b"); return nil })
	bus.Subscribe(func() error { calls = append(calls, "c"); return nil })

	unsubB()
	require.NoError(t, bus.Publish())
	assert.Equal(t, []string{"a", "c"}, calls)
}

func TestPublish_IsolatesFailingListeners(t *testing.T) {
	bus := NewBus(nil)
	errBoom := errors.New("boom")
	var calls []string

	bus.Subscribe(func() error { calls = append(calls, "first"); return errBoom })
	bus.Subscribe(func() error { calls = append(calls, "second"); panic("view crashed") })
	bus.Subscribe(func() error { calls = append(calls, "third"); return nil })

	err := bus.Publish()

	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "view crashed")
	assert.Equal(t, []string{"first", "second", "third"}, calls)
}

func TestSubscribeDuringPublish(t *testing.T) {
	bus := NewBus(nil)
	late := 0
	bus.Subscribe(func() error {
		bus.Subscribe(func() error { late++; return nil })
		return nil
	})

	require.NoError(t, bus.Publish())
	assert.Equal(t, 0, late, "listener added mid-publish runs on the next publish")

	require.NoError(t, bus.Publish())
	assert.Equal(t, 1, late)
}

func TestConcurrentSubscribePublish(t *testing.T) {
	bus := NewBus(nil)
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			unsub := bus.Subscribe(func() error { return nil })
			unsub()
		}()
		go func() {
			defer wg.Done()
			_ = bus.Publish()
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, bus.Len())
}
