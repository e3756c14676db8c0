package sensor

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/permcontroller/internal/domain/permgroup"
	"github.com/GriffinCanCode/permcontroller/internal/domain/reactive"
)

// Sensor identifies a hardware sensor guarded by a privacy toggle
type Sensor int

const (
	Microphone Sensor = 1
	Camera     Sensor = 2
)

// String returns the sensor name
func (s Sensor) String() string {
	switch s {
	case Microphone:
		return "microphone"
	case Camera:
		return "camera"
	default:
		return fmt.Sprintf("sensor(%d)", int(s))
	}
}

// ErrNoSensor is returned for groups without a blockable sensor or setting
var ErrNoSensor = errors.New("permission group has no sensor toggle")

// PrivacyManager is the platform sensor privacy facility
type PrivacyManager interface {
	IsSensorPrivacyEnabled(sensor Sensor) bool
	AddSensorPrivacyListener(sensor Sensor, fn func(sensor Sensor, enabled bool)) (remove func())
}

// LocationSettings is the platform location master switch
type LocationSettings interface {
	IsLocationEnabled() bool
	AddLocationListener(fn func(enabled bool)) (remove func())
}

// SensorForGroup returns the sensor toggled for a permission group
func SensorForGroup(group string) (Sensor, bool) {
	switch group {
	case permgroup.Camera:
		return Camera, true
	case permgroup.Microphone:
		return Microphone, true
	default:
		return 0, false
	}
}

// ShouldDisplayCardIfBlocked reports whether a group screen shows a blocked-sensor card
func ShouldDisplayCardIfBlocked(group string) bool {
	_, ok := SensorForGroup(group)
	return ok || group == permgroup.Location
}

// Watcher publishes whether the sensor behind a permission group is blocked.
// Listener registration is held only while the status has observers.
type Watcher struct {
	group      string
	isLocation bool
	sensor     Sensor
	privacy    PrivacyManager
	location   LocationSettings
	logger     *zap.Logger

	status *reactive.Value[bool]

	mu     sync.Mutex
	remove func() // Protected by mu
}

// NewWatcher creates a watcher for group and performs the initial check
func NewWatcher(group string, privacy PrivacyManager, location LocationSettings, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Watcher{
		group:      group,
		isLocation: group == permgroup.Location,
		privacy:    privacy,
		location:   location,
		logger:     logger.Named("sensor"),
	}

	if w.isLocation {
		if location == nil {
			return nil, fmt.Errorf("%s: location settings unavailable: %w", group, ErrNoSensor)
		}
	} else {
		s, ok := SensorForGroup(group)
		if !ok || privacy == nil {
			return nil, fmt.Errorf("%s: %w", group, ErrNoSensor)
		}
		w.sensor = s
	}

	w.status = reactive.NewWithHooks[bool](reactive.Hooks{
		OnActive:   w.onActive,
		OnInactive: w.onInactive,
	})
	w.Check()
	return w, nil
}

// Status returns the observable blocked status; it stays uninitialized until
// the sensor is first seen blocked or a listener reports a change.
func (w *Watcher) Status() *reactive.Value[bool] {
	return w.status
}

// Observe attaches fn to the blocked status
func (w *Watcher) Observe(fn func(blocked bool)) (cancel func()) {
	return w.status.Observe(fn)
}

// Blocked returns the last published status and whether one exists
func (w *Watcher) Blocked() (bool, bool) {
	return w.status.Get()
}

// Listening reports whether a platform listener is registered
func (w *Watcher) Listening() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.remove != nil
}

// Current queries the platform without publishing
func (w *Watcher) Current() bool {
	if w.isLocation {
		return !w.location.IsLocationEnabled()
	}
	return w.privacy.IsSensorPrivacyEnabled(w.sensor)
}

// Check queries the platform once and publishes only a blocked result.
// An unblocked result is left to the change listeners.
func (w *Watcher) Check() {
	if w.Current() {
		w.status.Set(true)
	}
}

func (w *Watcher) onActive() {
	w.Check()

	var remove func()
	if w.isLocation {
		remove = w.location.AddLocationListener(func(enabled bool) {
			w.status.Set(!enabled)
		})
	} else {
		remove = w.privacy.AddSensorPrivacyListener(w.sensor, func(_ Sensor, enabled bool) {
			w.status.Set(enabled)
		})
	}

	w.mu.Lock()
	w.remove = remove
	w.mu.Unlock()
	w.logger.Debug("Listening for sensor status", zap.String("group", w.group))
}

func (w *Watcher) onInactive() {
	w.mu.Lock()
	remove := w.remove
	w.remove = nil
	w.mu.Unlock()

	if remove != nil {
		remove()
	}
	w.logger.Debug("Stopped listening for sensor status", zap.String("group", w.group))
}
