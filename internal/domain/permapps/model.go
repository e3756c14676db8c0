package permapps

import (
	"errors"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/permcontroller/internal/domain/permgroup"
	"github.com/GriffinCanCode/permcontroller/internal/domain/pkginfo"
	"github.com/GriffinCanCode/permcontroller/internal/domain/reactive"
	"github.com/GriffinCanCode/permcontroller/internal/domain/savedstate"
	"github.com/GriffinCanCode/permcontroller/internal/domain/sensor"
	"github.com/GriffinCanCode/permcontroller/internal/domain/usage"
	"github.com/GriffinCanCode/permcontroller/internal/infrastructure/telemetry"
)

var (
	// ErrUnknownGroup is returned for permission group names the controller does not know
	ErrUnknownGroup = errors.New("unknown permission group")
	// ErrSensorStatusUnsupported is returned for sensor status below SDK S
	ErrSensorStatusUnsupported = errors.New("sensor status requires SDK level S")
)

// Sources provides the upstream feeds
type Sources interface {
	GroupUiInfo(group string) *reactive.Value[[]permgroup.AppUiInfo]
	FullStorage() *reactive.Value[[]permgroup.FullStorageState]
	AllPackages() *reactive.Value[[]*pkginfo.Snapshot]
}

// Recorder receives recompute measurements; implemented by monitoring.Metrics
type Recorder interface {
	RecordRecompute(group string, duration time.Duration)
}

// Env holds the collaborators shared by every model
type Env struct {
	Sources    Sources
	Repository *pkginfo.Repository
	Privacy    sensor.PrivacyManager
	Location   sensor.LocationSettings
	Policy     LocationPolicy
	Sink       telemetry.Sink
	SDK        int
	FormFactor usage.FormFactor
	Now        func() time.Time
	Logger     *zap.Logger
}

// Model holds the state of one permission group screen
type Model struct {
	group   string
	env     Env
	state   *savedstate.Handle
	logger  *zap.Logger
	metrics Recorder

	uiInfo      *reactive.Value[[]permgroup.AppUiInfo]
	fullStorage *reactive.Value[[]permgroup.FullStorageState] // nil unless Storage
	categorized *reactive.Value[CategorizedView]

	// update serializes recomputes; observers of published values run while it is held
	update sync.Mutex

	mu         sync.RWMutex
	fullAccess []permgroup.FullStorageState
	watcher    *sensor.Watcher
	cancels    []func()
	closed     bool
}

// NewModel creates the model for group and subscribes it to its inputs.
// A nil state gets the screen defaults.
func NewModel(group string, state *savedstate.Handle, env Env) (*Model, error) {
	if !permgroup.IsKnown(group) {
		return nil, ErrUnknownGroup
	}
	if state == nil {
		state = savedstate.NewPermissionAppsState()
	}
	if env.Logger == nil {
		env.Logger = zap.NewNop()
	}
	if env.Now == nil {
		env.Now = time.Now
	}

	m := &Model{
		group:       group,
		env:         env,
		state:       state,
		logger:      env.Logger.Named("permapps").With(zap.String("group", group)),
		uiInfo:      env.Sources.GroupUiInfo(group),
		categorized: reactive.New[CategorizedView](),
		fullAccess:  []permgroup.FullStorageState{},
	}

	if group == permgroup.Storage {
		m.fullStorage = env.Sources.FullStorage()
		m.cancels = append(m.cancels, m.fullStorage.Observe(m.onFullStorage))
	}
	m.cancels = append(m.cancels,
		m.uiInfo.Observe(func([]permgroup.AppUiInfo) { m.recomputeIfReady() }),
		m.state.Bool(savedstate.KeyShowSystem, false).Observe(func(bool) { m.recomputeIfReady() }),
	)

	return m, nil
}

// WithMetrics attaches a recompute recorder
func (m *Model) WithMetrics(r Recorder) *Model {
	m.metrics = r
	return m
}

// Group returns the permission group name
func (m *Model) Group() string {
	return m.group
}

// Categorized returns the observable categorized view
func (m *Model) Categorized() *reactive.Value[CategorizedView] {
	return m.categorized
}

// ShowSystem returns the observable "show system apps" toggle
func (m *Model) ShowSystem() *reactive.Value[bool] {
	return m.state.Bool(savedstate.KeyShowSystem, false)
}

// HasSystemApps returns the observable flag telling whether any shown app is a system app
func (m *Model) HasSystemApps() *reactive.Value[bool] {
	return m.state.Bool(savedstate.KeyHasSystemApps, true)
}

// ShowAlwaysAllowed returns the observable "show always-allowed string" flag
func (m *Model) ShowAlwaysAllowed() *reactive.Value[bool] {
	return m.state.Bool(savedstate.KeyShowAlways, false)
}

// UpdateShowSystem sets the toggle; an unchanged value publishes nothing.
// It must not be called synchronously from an observer of this model.
func (m *Model) UpdateShowSystem(show bool) {
	m.state.SetIfChanged(savedstate.KeyShowSystem, show)
}

// CreationLogged reports whether the screen view has been logged
func (m *Model) CreationLogged() bool {
	v, _ := m.state.Get(savedstate.KeyCreationLogged)
	return v
}

// SetCreationLogged records whether the screen view has been logged
func (m *Model) SetCreationLogged(logged bool) {
	m.state.Set(savedstate.KeyCreationLogged, logged)
}

// PackageHasFullStorage reports whether the package holds full storage access.
// Only populated for the Storage group.
func (m *Model) PackageHasFullStorage(packageName string, user pkginfo.UserHandle) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.fullAccess {
		if s.PackageName == packageName && s.User == user {
			return true
		}
	}
	return false
}

// ArePackagesLoaded reports whether the package list has been delivered
func (m *Model) ArePackagesLoaded() bool {
	return m.env.Sources.AllPackages().IsInitialized()
}

// SensorStatus returns the blocked-status watcher, creating it on first use
func (m *Model) SensorStatus() (*sensor.Watcher, error) {
	if m.env.SDK < permgroup.SDKLevelS {
		return nil, ErrSensorStatusUnsupported
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.watcher == nil {
		w, err := sensor.NewWatcher(m.group, m.env.Privacy, m.env.Location, m.env.Logger)
		if err != nil {
			return nil, err
		}
		m.watcher = w
	}
	return m.watcher, nil
}

// Close detaches the model from its inputs
func (m *Model) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	cancels := m.cancels
	m.cancels = nil
	m.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

func (m *Model) onFullStorage(states []permgroup.FullStorageState) {
	granted := grantedOnly(states)

	m.mu.Lock()
	changed := !slices.Equal(granted, m.fullAccess)
	if changed {
		m.fullAccess = granted
	}
	m.mu.Unlock()

	// The first delivery always recomputes so a feed that starts out empty
	// still releases a view that was waiting on it.
	if changed || m.firstStorageDelivery() {
		if m.uiInfo.IsInitialized() {
			m.recompute()
		}
	}
}

func (m *Model) firstStorageDelivery() bool {
	_, published := m.categorized.Get()
	return !published
}

// recomputeIfReady runs a recompute when the full-storage feed is not required or present
func (m *Model) recomputeIfReady() {
	if m.fullStorage != nil && !m.fullStorage.IsInitialized() {
		return
	}
	m.recompute()
}

func (m *Model) recompute() {
	m.update.Lock()
	defer m.update.Unlock()

	start := time.Now()

	entries, ok := m.uiInfo.Get()
	if !ok {
		return
	}
	if entries == nil {
		m.categorized.Set(NewCategorizedView())
		return
	}

	showSystem, _ := m.state.Get(savedstate.KeyShowSystem)

	m.mu.RLock()
	fullAccess := m.fullAccess
	m.mu.RUnlock()

	view, hasSystem := Categorize(Inputs{
		Group:      m.group,
		SDK:        m.env.SDK,
		ShowSystem: showSystem,
		Entries:    entries,
		FullAccess: fullAccess,
	})

	m.state.SetIfChanged(savedstate.KeyHasSystemApps, hasSystem)
	m.state.Set(savedstate.KeyShowAlways, view.ShowAlwaysAllowed)
	m.categorized.Set(view)

	if m.metrics != nil {
		m.metrics.RecordRecompute(m.group, time.Since(start))
	}
	m.logger.Debug("Recomputed categorized view",
		zap.Int("entries", len(entries)),
		zap.Int("listed", view.Len()),
		zap.Bool("show_system", showSystem),
	)
}
