// Package savedstate keeps per-screen state that outlives individual observers.
package savedstate

import (
	"sync"

	"github.com/GriffinCanCode/permcontroller/internal/domain/reactive"
)

// Keys used by the permission apps screen
const (
	KeyShowSystem     = "showSystem"
	KeyHasSystemApps  = "hasSystem"
	KeyShowAlways     = "showAlways"
	KeyCreationLogged = "creationLogged"
)

// Handle stores observable boolean values by key
type Handle struct {
	mu     sync.Mutex
	values map[string]*reactive.Value[bool]
}

// New creates an empty handle
func New() *Handle {
	return &Handle{values: make(map[string]*reactive.Value[bool])}
}

// NewPermissionAppsState creates a handle pre-populated with the screen defaults
func NewPermissionAppsState() *Handle {
	h := New()
	h.Bool(KeyShowSystem, false)
	h.Bool(KeyHasSystemApps, true)
	h.Bool(KeyShowAlways, false)
	h.Bool(KeyCreationLogged, false)
	return h
}

// Bool returns the observable value for key, creating it with def if missing
func (h *Handle) Bool(key string, def bool) *reactive.Value[bool] {
	h.mu.Lock()
	defer h.mu.Unlock()

	if v, ok := h.values[key]; ok {
		return v
	}
	v := reactive.Of(def)
	h.values[key] = v
	return v
}

// Get returns the current value for key
func (h *Handle) Get(key string) (bool, bool) {
	h.mu.Lock()
	v, ok := h.values[key]
	h.mu.Unlock()
	if !ok {
		return false, false
	}
	return v.Get()
}

// Set publishes value under key, creating the entry if needed
func (h *Handle) Set(key string, value bool) {
	h.Bool(key, value).Set(value)
}

// SetIfChanged publishes value only when it differs from the stored one.
// Returns true if a publish happened.
func (h *Handle) SetIfChanged(key string, value bool) bool {
	if cur, ok := h.Get(key); ok && cur == value {
		return false
	}
	h.Set(key, value)
	return true
}

// Keys returns the stored keys
func (h *Handle) Keys() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	keys := make([]string, 0, len(h.values))
	for k := range h.values {
		keys = append(keys, k)
	}
	return keys
}
