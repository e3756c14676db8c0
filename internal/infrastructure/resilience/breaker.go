package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned without calling through while the breaker is open
var ErrOpen = errors.New("circuit breaker is open")

// State is the breaker position
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Settings configures when the breaker opens and how long it stays open
type Settings struct {
	// Threshold is the number of consecutive failures that opens the breaker
	Threshold uint32
	// Cooldown is how long the breaker rejects calls before letting a trial call through
	Cooldown time.Duration
	// OnStateChange is called with the breaker lock released
	OnStateChange func(name string, from, to State)
}

// Breaker guards calls to a collaborator that may be down
type Breaker struct {
	name     string
	settings Settings
	now      func() time.Time

	mu       sync.Mutex
	state    State
	failures uint32
	openedAt time.Time
	probing  bool
}

// New creates a closed breaker
func New(name string, settings Settings) *Breaker {
	if settings.Threshold == 0 {
		settings.Threshold = 5
	}
	if settings.Cooldown == 0 {
		settings.Cooldown = 30 * time.Second
	}
	return &Breaker{name: name, settings: settings, now: time.Now}
}

// WithClock replaces the time source
func (b *Breaker) WithClock(now func() time.Time) *Breaker {
	b.now = now
	return b
}

// Name returns the breaker name
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current state; an open breaker past its cooldown reports half-open
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && !b.now().Before(b.openedAt.Add(b.settings.Cooldown)) {
		return StateHalfOpen
	}
	return b.state
}

// Do calls fn unless the breaker is open. In half-open state a single trial call is
// let through at a time; its outcome closes or reopens the breaker.
func (b *Breaker) Do(fn func() error) error {
	if err := b.acquire(); err != nil {
		return err
	}
	err := fn()
	b.release(err == nil)
	return err
}

func (b *Breaker) acquire() error {
	b.mu.Lock()
	var from State
	changed := false
	defer func() {
		b.mu.Unlock()
		if changed {
			b.notify(from, StateHalfOpen)
		}
	}()

	switch b.state {
	case StateOpen:
		if b.now().Before(b.openedAt.Add(b.settings.Cooldown)) {
			return ErrOpen
		}
		from, changed = b.state, true
		b.state = StateHalfOpen
		b.probing = true
	case StateHalfOpen:
		if b.probing {
			return ErrOpen
		}
		b.probing = true
	}
	return nil
}

func (b *Breaker) release(ok bool) {
	b.mu.Lock()
	from := b.state
	to := from

	switch {
	case ok:
		b.failures = 0
		to = StateClosed
	case from == StateHalfOpen:
		to = StateOpen
	default:
		b.failures++
		if b.failures >= b.settings.Threshold {
			to = StateOpen
		}
	}
	if from == StateHalfOpen {
		b.probing = false
	}
	if to == StateOpen && from != StateOpen {
		b.openedAt = b.now()
		b.failures = 0
	}
	b.state = to
	b.mu.Unlock()

	if to != from {
		b.notify(from, to)
	}
}

func (b *Breaker) notify(from, to State) {
	if b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.name, from, to)
	}
}
