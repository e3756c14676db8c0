package reactive

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueUninitialized(t *testing.T) {
	v := New[int]()

	got, ok := v.Get()
	assert.False(t, ok)
	assert.Zero(t, got)
	assert.False(t, v.IsInitialized())

	calls := 0
	cancel := v.Observe(func(int) { calls++ })
	defer cancel()
	assert.Equal(t, 0, calls, "uninitialized value must not deliver on subscribe")
}

func TestValueDeliversCurrentOnSubscribe(t *testing.T) {
	v := Of("ready")

	var got []string
	cancel := v.Observe(func(s string) { got = append(got, s) })
	defer cancel()

	assert.Equal(t, []string{"ready"}, got)

	v.Set("next")
	assert.Equal(t, []string{"ready", "next"}, got)
}

func TestValueNotifiesInSubscriptionOrder(t *testing.T) {
	v := New[int]()

	var order []string
	c1 := v.Observe(func(int) { order = append(order, "first") })
	c2 := v.Observe(func(int) { order = append(order, "second") })
	defer c1()
	defer c2()

	v.Set(1)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestValueCancelStopsDelivery(t *testing.T) {
	v := New[int]()

	calls := 0
	cancel := v.Observe(func(int) { calls++ })
	v.Set(1)
	cancel()
	cancel()
	v.Set(2)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, v.ObserverCount())
}

func TestValueHooks(t *testing.T) {
	active, inactive := 0, 0
	v := NewWithHooks[bool](Hooks{
		OnActive:   func() { active++ },
		OnInactive: func() { inactive++ },
	})

	c1 := v.Observe(func(bool) {})
	c2 := v.Observe(func(bool) {})
	assert.Equal(t, 1, active)
	assert.True(t, v.HasActiveObservers())

	c1()
	assert.Equal(t, 0, inactive, "still one observer attached")

	c2()
	assert.Equal(t, 1, inactive)
	assert.False(t, v.HasActiveObservers())

	c3 := v.Observe(func(bool) {})
	assert.Equal(t, 2, active)
	c3()
	assert.Equal(t, 2, inactive)
}

func TestValueActivationPublishSeenOnce(t *testing.T) {
	var v *Value[bool]
	v = NewWithHooks[bool](Hooks{
		OnActive: func() { v.Set(true) },
	})

	var got []bool
	cancel := v.Observe(func(b bool) { got = append(got, b) })
	defer cancel()

	require.Len(t, got, 1, "value published during activation must be delivered once")
	assert.True(t, got[0])
}

func TestValueHooksAlternateAcrossGoroutines(t *testing.T) {
	var (
		mu         sync.Mutex
		events     []string
		registered int
	)
	record := func(e string, delta int) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
		registered += delta
	}

	inInactive := make(chan struct{})
	release := make(chan struct{})
	first := true
	v := NewWithHooks[bool](Hooks{
		OnActive: func() { record("active", 1) },
		OnInactive: func() {
			if first {
				first = false
				close(inInactive)
				<-release
			}
			record("inactive", -1)
		},
	})

	cancelA := v.Observe(func(bool) {})
	done := make(chan struct{})
	go func() {
		cancelA()
		close(done)
	}()

	// B attaches while A's deactivation is still running
	<-inInactive
	cancelB := v.Observe(func(bool) {})
	close(release)
	<-done

	mu.Lock()
	assert.Equal(t, []string{"active", "inactive", "active"}, events)
	assert.Equal(t, 1, registered)
	mu.Unlock()

	cancelB()
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"active", "inactive", "active", "inactive"}, events)
	assert.Zero(t, registered)
}

func TestValueReentrantObserveFromHook(t *testing.T) {
	var v *Value[int]
	var inner func()
	v = NewWithHooks[int](Hooks{
		OnActive: func() {
			if inner == nil {
				inner = v.Observe(func(int) {})
			}
		},
	})

	cancel := v.Observe(func(int) {})
	assert.Equal(t, 2, v.ObserverCount())
	cancel()
	inner()
	assert.False(t, v.HasActiveObservers())
}
