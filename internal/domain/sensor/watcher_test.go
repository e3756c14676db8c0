package sensor

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/permcontroller/internal/domain/permgroup"
)

type fakePrivacy struct {
	mu        sync.Mutex
	enabled   map[Sensor]bool
	listeners map[int]func(Sensor, bool)
	next      int
}

func newFakePrivacy() *fakePrivacy {
	return &fakePrivacy{enabled: map[Sensor]bool{}, listeners: map[int]func(Sensor, bool){}}
}

func (f *fakePrivacy) IsSensorPrivacyEnabled(s Sensor) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enabled[s]
}

func (f *fakePrivacy) AddSensorPrivacyListener(s Sensor, fn func(Sensor, bool)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	id := f.next
	f.listeners[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.listeners, id)
	}
}

func (f *fakePrivacy) toggle(s Sensor, enabled bool) {
	f.mu.Lock()
	f.enabled[s] = enabled
	fns := make([]func(Sensor, bool), 0, len(f.listeners))
	for _, fn := range f.listeners {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(s, enabled)
	}
}

func (f *fakePrivacy) listenerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}

type fakeLocation struct {
	enabled   bool
	listeners []func(bool)
	removed   int
}

func (f *fakeLocation) IsLocationEnabled() bool { return f.enabled }

func (f *fakeLocation) AddLocationListener(fn func(bool)) func() {
	f.listeners = append(f.listeners, fn)
	return func() { f.removed++ }
}

func TestSensorForGroup(t *testing.T) {
	s, ok := SensorForGroup(permgroup.Camera)
	assert.True(t, ok)
	assert.Equal(t, Camera, s)

	s, ok = SensorForGroup(permgroup.Microphone)
	assert.True(t, ok)
	assert.Equal(t, Microphone, s)

	_, ok = SensorForGroup(permgroup.Contacts)
	assert.False(t, ok)

	assert.True(t, ShouldDisplayCardIfBlocked(permgroup.Location))
	assert.True(t, ShouldDisplayCardIfBlocked(permgroup.Camera))
	assert.False(t, ShouldDisplayCardIfBlocked(permgroup.SMS))
}

func TestNewWatcherUnsupportedGroup(t *testing.T) {
	_, err := NewWatcher(permgroup.Contacts, newFakePrivacy(), &fakeLocation{}, nil)
	assert.ErrorIs(t, err, ErrNoSensor)

	_, err = NewWatcher(permgroup.Location, nil, nil, nil)
	assert.ErrorIs(t, err, ErrNoSensor)
}

func TestWatcherInitialBlocked(t *testing.T) {
	p := newFakePrivacy()
	p.enabled[Camera] = true

	w, err := NewWatcher(permgroup.Camera, p, nil, nil)
	require.NoError(t, err)

	blocked, ok := w.Blocked()
	assert.True(t, ok)
	assert.True(t, blocked)
}

func TestWatcherInitialUnblockedStaysUnknown(t *testing.T) {
	p := newFakePrivacy()

	w, err := NewWatcher(permgroup.Microphone, p, nil, nil)
	require.NoError(t, err)

	var got []bool
	cancel := w.Observe(func(b bool) { got = append(got, b) })
	defer cancel()

	_, ok := w.Blocked()
	assert.False(t, ok, "an unblocked check does not publish")
	assert.Empty(t, got)
}

func TestWatcherCurrentDoesNotPublish(t *testing.T) {
	p := newFakePrivacy()
	p.enabled[Camera] = true
	w, err := NewWatcher(permgroup.Camera, p, nil, nil)
	require.NoError(t, err)

	p.enabled[Camera] = false
	assert.False(t, w.Current())
	blocked, ok := w.Blocked()
	assert.True(t, ok)
	assert.True(t, blocked, "unobserved status keeps the last published value")
}

func TestWatcherListenerLifecycle(t *testing.T) {
	p := newFakePrivacy()
	w, err := NewWatcher(permgroup.Camera, p, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, p.listenerCount())

	var got []bool
	c1 := w.Observe(func(b bool) { got = append(got, b) })
	c2 := w.Observe(func(bool) {})
	assert.Equal(t, 1, p.listenerCount())
	assert.True(t, w.Listening())

	p.toggle(Camera, true)
	p.toggle(Camera, false)
	assert.Equal(t, []bool{true, false}, got)

	c1()
	assert.Equal(t, 1, p.listenerCount())
	c2()
	assert.Equal(t, 0, p.listenerCount())
	assert.False(t, w.Listening())

	p.toggle(Camera, true)
	assert.Equal(t, []bool{true, false}, got)
}

func TestWatcherReactivationRechecks(t *testing.T) {
	p := newFakePrivacy()
	w, err := NewWatcher(permgroup.Camera, p, nil, nil)
	require.NoError(t, err)

	cancel := w.Observe(func(bool) {})
	cancel()

	p.enabled[Camera] = true
	var got []bool
	cancel = w.Observe(func(b bool) { got = append(got, b) })
	defer cancel()

	assert.Equal(t, []bool{true}, got)
}

func TestWatcherLocation(t *testing.T) {
	loc := &fakeLocation{enabled: false}
	w, err := NewWatcher(permgroup.Location, nil, loc, nil)
	require.NoError(t, err)

	blocked, ok := w.Blocked()
	require.True(t, ok)
	assert.True(t, blocked)

	var got []bool
	cancel := w.Observe(func(b bool) { got = append(got, b) })
	require.Len(t, loc.listeners, 1)

	loc.listeners[0](true)
	assert.Equal(t, []bool{true, false}, got)

	cancel()
	assert.Equal(t, 1, loc.removed)
}
