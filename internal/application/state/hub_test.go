package state

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestHub_PublishInOrder(t *testing.T) {
	hub := NewHub[int](zap.NewNop())

	var got []string
	hub.Subscribe(func(v int) { got = append(got, "a") })
	hub.Subscribe(func(v int) { got = append(got, "b") })

	hub.Publish(1)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := NewHub[string](nil)

	calls := 0
	unsubscribe := hub.Subscribe(func(string) { calls++ })
	hub.Publish("x")

	unsubscribe()
	unsubscribe()
	hub.Publish("y")

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, hub.Len())
}

func TestHub_PanickingListener(t *testing.T) {
	core, recorded := observer.New(zapcore.ErrorLevel)
	hub := NewHub[int](zap.New(core))

	var received int
	hub.Subscribe(func(int) { panic("listener bug") })
	hub.Subscribe(func(v int) { received = v })

	assert.NotPanics(t, func() { hub.Publish(42) })
	assert.Equal(t, 42, received)
	require.Equal(t, 1, recorded.FilterMessage("state listener panicked").Len())
}

func TestHub_UnsubscribeDuringPublish(t *testing.T) {
	hub := NewHub[int](nil)

	var unsubscribe func()
	calls := 0
	unsubscribe = hub.Subscribe(func(int) {
		calls++
		unsubscribe()
	})
	hub.Subscribe(func(int) {})

	hub.Publish(1)
	hub.Publish(2)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, hub.Len())
}

func TestHub_ConcurrentUse(t *testing.T) {
	hub := NewHub[int](nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			unsubscribe := hub.Subscribe(func(int) {})
			unsubscribe()
		}()
		go func(v int) {
			defer wg.Done()
			hub.Publish(v)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, hub.Len())
}
