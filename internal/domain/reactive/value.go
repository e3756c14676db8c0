package reactive

import (
	"sync"
)

// Hooks are invoked when a value gains its first or loses its last observer
type Hooks struct {
	OnActive   func()
	OnInactive func()
}

type observer[T any] struct {
	id   uint64
	fn   func(T)
	seen uint64
}

// Value is an observable, last-value-cached feed item
type Value[T any] struct {
	mu          sync.Mutex
	value       T
	initialized bool
	version     uint64
	observers   []*observer[T]
	nextID      uint64
	hooks       Hooks

	// active is the state the hooks last reported; hooksRunning marks the
	// goroutine currently calling them
	active       bool
	hooksRunning bool
}

// New creates an uninitialized value
func New[T any]() *Value[T] {
	return &Value[T]{}
}

// NewWithHooks creates an uninitialized value with activation hooks
func NewWithHooks[T any](hooks Hooks) *Value[T] {
	return &Value[T]{hooks: hooks}
}

// Of creates a value that is already initialized with v
func Of[T any](v T) *Value[T] {
	return &Value[T]{value: v, initialized: true, version: 1}
}

// Set publishes v and notifies observers that have not seen it yet
func (v *Value[T]) Set(val T) {
	v.mu.Lock()
	v.value = val
	v.initialized = true
	v.version++
	pending := v.collect(val)
	v.mu.Unlock()

	for _, fn := range pending {
		fn(val)
	}
}

// collect marks the current version as seen and returns the callbacks to run (must hold lock)
func (v *Value[T]) collect(val T) []func(T) {
	pending := make([]func(T), 0, len(v.observers))
	for _, o := range v.observers {
		if o.seen < v.version {
			o.seen = v.version
			pending = append(pending, o.fn)
		}
	}
	return pending
}

// Get returns the current value and whether it has ever been set
func (v *Value[T]) Get() (T, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.value, v.initialized
}

// IsInitialized reports whether a value has been published
func (v *Value[T]) IsInitialized() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.initialized
}

// ObserverCount returns the number of attached observers
func (v *Value[T]) ObserverCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.observers)
}

// HasActiveObservers reports whether at least one observer is attached
func (v *Value[T]) HasActiveObservers() bool {
	return v.ObserverCount() > 0
}

// Observe attaches fn and returns a function that detaches it.
// If the value is initialized, fn receives the current item before Observe returns.
// The returned cancel function is safe to call more than once.
func (v *Value[T]) Observe(fn func(T)) (cancel func()) {
	v.mu.Lock()
	v.nextID++
	o := &observer[T]{id: v.nextID, fn: fn}
	v.observers = append(v.observers, o)
	v.mu.Unlock()

	v.runHooks()

	v.mu.Lock()
	deliver := v.initialized && o.seen < v.version && v.attached(o.id)
	var current T
	if deliver {
		o.seen = v.version
		current = v.value
	}
	v.mu.Unlock()
	if deliver {
		fn(current)
	}

	var once sync.Once
	return func() {
		once.Do(func() { v.detach(o.id) })
	}
}

// attached reports whether the observer id is still registered (must hold lock)
func (v *Value[T]) attached(id uint64) bool {
	for _, o := range v.observers {
		if o.id == id {
			return true
		}
	}
	return false
}

func (v *Value[T]) detach(id uint64) {
	v.mu.Lock()
	removed := false
	for i, o := range v.observers {
		if o.id == id {
			v.observers = append(v.observers[:i], v.observers[i+1:]...)
			removed = true
			break
		}
	}
	v.mu.Unlock()

	if removed {
		v.runHooks()
	}
}

// runHooks brings the hooks in line with the observer count. Only one
// goroutine calls hooks at a time, so OnActive and OnInactive strictly
// alternate; a caller that finds hooks running leaves the catch-up to the
// running goroutine.
func (v *Value[T]) runHooks() {
	v.mu.Lock()
	if v.hooksRunning {
		v.mu.Unlock()
		return
	}
	v.hooksRunning = true
	for {
		want := len(v.observers) > 0
		if want == v.active {
			v.hooksRunning = false
			v.mu.Unlock()
			return
		}
		v.active = want
		v.mu.Unlock()

		if want && v.hooks.OnActive != nil {
			v.hooks.OnActive()
		} else if !want && v.hooks.OnInactive != nil {
			v.hooks.OnInactive()
		}

		v.mu.Lock()
	}
}
