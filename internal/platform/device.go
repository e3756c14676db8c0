package platform

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/permcontroller/internal/domain/permgroup"
	"github.com/GriffinCanCode/permcontroller/internal/domain/pkginfo"
	"github.com/GriffinCanCode/permcontroller/internal/domain/sensor"
	"github.com/GriffinCanCode/permcontroller/internal/domain/usage"
)

// ErrUnknownPackage is returned when mutating a package that is not installed
var ErrUnknownPackage = errors.New("unknown package")

// Config describes a simulated device
type Config struct {
	SDK                            int
	Features                       []string
	PermissionGroups               map[string]string
	LocationProviders              []string
	LocationControllerExtraPackage string
}

// Device is an in-memory device: installed packages, grant state,
// sensor privacy toggles and the location setting
type Device struct {
	sdk        int
	formFactor usage.FormFactor
	groups     map[string]string
	providers  map[string]bool
	extraPkg   string
	logger     *zap.Logger

	mu              sync.RWMutex
	packages        map[permgroup.PackageUser]pkginfo.Record
	askGroups       map[permgroup.PackageUser]map[string]bool
	sensorPrivacy   map[sensor.Sensor]bool
	locationEnabled bool

	lmu             sync.Mutex
	nextListener    int
	changeListeners map[int]func()
	sensorListeners map[int]sensorListener
	locListeners    map[int]func(bool)
}

type sensorListener struct {
	sensor sensor.Sensor
	fn     func(sensor.Sensor, bool)
}

// NewDevice creates an empty device with location enabled and no sensor blocked
func NewDevice(cfg Config, logger *zap.Logger) *Device {
	if logger == nil {
		logger = zap.NewNop()
	}
	groups := cfg.PermissionGroups
	if groups == nil {
		groups = DefaultPermissionGroups()
	}
	providers := make(map[string]bool, len(cfg.LocationProviders))
	for _, p := range cfg.LocationProviders {
		providers[p] = true
	}

	return &Device{
		sdk:             cfg.SDK,
		formFactor:      usage.FormFactorFromFeatures(cfg.Features),
		groups:          groups,
		providers:       providers,
		extraPkg:        cfg.LocationControllerExtraPackage,
		logger:          logger.Named("device"),
		packages:        make(map[permgroup.PackageUser]pkginfo.Record),
		askGroups:       make(map[permgroup.PackageUser]map[string]bool),
		sensorPrivacy:   make(map[sensor.Sensor]bool),
		locationEnabled: true,
		changeListeners: make(map[int]func()),
		sensorListeners: make(map[int]sensorListener),
		locListeners:    make(map[int]func(bool)),
	}
}

// SDK returns the platform SDK level
func (d *Device) SDK() int {
	return d.sdk
}

// FormFactor returns the device form factor
func (d *Device) FormFactor() usage.FormFactor {
	return d.formFactor
}

// GroupOf returns the permission group of perm
func (d *Device) GroupOf(perm string) (string, bool) {
	g, ok := d.groups[perm]
	return g, ok
}

// Install adds or replaces a package for user
func (d *Device) Install(user pkginfo.UserHandle, rec pkginfo.Record) error {
	if _, err := pkginfo.NewSnapshot(rec, d.sdk); err != nil {
		return fmt.Errorf("failed to install package: %w", err)
	}
	rec = cloneRecord(rec)
	rec.ApplicationInfo.UID = user.UID(rec.ApplicationInfo.UID)

	d.mu.Lock()
	d.packages[permgroup.PackageUser{PackageName: rec.PackageName, User: user}] = rec
	d.mu.Unlock()

	d.logger.Debug("Installed package", zap.String("package", rec.PackageName), zap.Stringer("user", user))
	d.notifyChanged()
	return nil
}

// Uninstall removes a package for user
func (d *Device) Uninstall(packageName string, user pkginfo.UserHandle) error {
	key := permgroup.PackageUser{PackageName: packageName, User: user}

	d.mu.Lock()
	if _, ok := d.packages[key]; !ok {
		d.mu.Unlock()
		return fmt.Errorf("%s: %w", key, ErrUnknownPackage)
	}
	delete(d.packages, key)
	delete(d.askGroups, key)
	d.mu.Unlock()

	d.notifyChanged()
	return nil
}

// SetGrantState moves every requested permission of group to match state
func (d *Device) SetGrantState(packageName string, user pkginfo.UserHandle, group string, state permgroup.GrantState) error {
	key := permgroup.PackageUser{PackageName: packageName, User: user}

	d.mu.Lock()
	rec, ok := d.packages[key]
	if !ok {
		d.mu.Unlock()
		return fmt.Errorf("%s: %w", key, ErrUnknownPackage)
	}

	flags := append([]int{}, rec.RequestedPermissionsFlags...)
	for i, perm := range rec.RequestedPermissions {
		if d.groups[perm] != group {
			continue
		}
		grant := false
		switch state {
		case permgroup.StateAllowed, permgroup.StateAllowedAlways:
			grant = true
		case permgroup.StateAllowedForegroundOnly:
			grant = perm != PermBackgroundLocation
		}
		if grant {
			flags[i] |= pkginfo.FlagRequestedPermissionGranted
		} else {
			flags[i] &^= pkginfo.FlagRequestedPermissionGranted
		}
	}
	rec.RequestedPermissionsFlags = flags
	d.packages[key] = rec

	if state == permgroup.StateAsk {
		if d.askGroups[key] == nil {
			d.askGroups[key] = make(map[string]bool)
		}
		d.askGroups[key][group] = true
	} else if d.askGroups[key] != nil {
		delete(d.askGroups[key], group)
	}
	d.mu.Unlock()

	d.logger.Info("Changed grant state",
		zap.String("package", packageName),
		zap.Stringer("user", user),
		zap.String("group", group),
		zap.Stringer("state", state),
	)
	d.notifyChanged()
	return nil
}

// SetPermissionGranted grants or revokes a single requested permission
func (d *Device) SetPermissionGranted(packageName string, user pkginfo.UserHandle, perm string, granted bool) error {
	key := permgroup.PackageUser{PackageName: packageName, User: user}

	d.mu.Lock()
	rec, ok := d.packages[key]
	if !ok {
		d.mu.Unlock()
		return fmt.Errorf("%s: %w", key, ErrUnknownPackage)
	}
	found := false
	flags := append([]int{}, rec.RequestedPermissionsFlags...)
	for i, name := range rec.RequestedPermissions {
		if name != perm {
			continue
		}
		found = true
		if granted {
			flags[i] |= pkginfo.FlagRequestedPermissionGranted
		} else {
			flags[i] &^= pkginfo.FlagRequestedPermissionGranted
		}
	}
	if !found {
		d.mu.Unlock()
		return fmt.Errorf("%s does not request %s", key, perm)
	}
	rec.RequestedPermissionsFlags = flags
	d.packages[key] = rec
	d.mu.Unlock()

	d.notifyChanged()
	return nil
}

// IsAskEveryTime reports whether group of the package is set to ask every time
func (d *Device) IsAskEveryTime(key permgroup.PackageUser, group string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.askGroups[key][group]
}

// Snapshots projects every installed package, ordered by user then package name.
// Records that fail to project are logged and skipped.
func (d *Device) Snapshots() []*pkginfo.Snapshot {
	d.mu.RLock()
	keys := make([]permgroup.PackageUser, 0, len(d.packages))
	for k := range d.packages {
		keys = append(keys, k)
	}
	records := make(map[permgroup.PackageUser]pkginfo.Record, len(d.packages))
	for k, r := range d.packages {
		records[k] = r
	}
	d.mu.RUnlock()

	sortKeys(keys)
	out := make([]*pkginfo.Snapshot, 0, len(keys))
	for _, k := range keys {
		s, err := pkginfo.NewSnapshot(records[k], d.sdk)
		if err != nil {
			d.logger.Error("Skipping malformed package", zap.String("package", k.PackageName), zap.Error(err))
			continue
		}
		out = append(out, s)
	}
	return out
}

// PackageInfo implements pkginfo.Querier
func (d *Device) PackageInfo(_ context.Context, packageName string, user pkginfo.UserHandle) (*pkginfo.Record, error) {
	d.mu.RLock()
	rec, ok := d.packages[permgroup.PackageUser{PackageName: packageName, User: user}]
	d.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s for user %s: %w", packageName, user, pkginfo.ErrNameNotFound)
	}
	rec = cloneRecord(rec)
	return &rec, nil
}

// ApplicationInfo implements pkginfo.Querier
func (d *Device) ApplicationInfo(ctx context.Context, packageName string, user pkginfo.UserHandle) (*pkginfo.ApplicationInfo, error) {
	rec, err := d.PackageInfo(ctx, packageName, user)
	if err != nil {
		return nil, err
	}
	return rec.ApplicationInfo, nil
}

// IsSensorPrivacyEnabled implements sensor.PrivacyManager
func (d *Device) IsSensorPrivacyEnabled(s sensor.Sensor) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.sensorPrivacy[s]
}

// AddSensorPrivacyListener implements sensor.PrivacyManager
func (d *Device) AddSensorPrivacyListener(s sensor.Sensor, fn func(sensor.Sensor, bool)) func() {
	d.lmu.Lock()
	defer d.lmu.Unlock()

	id := d.nextListener
	d.nextListener++
	d.sensorListeners[id] = sensorListener{sensor: s, fn: fn}
	return d.remover(func() { delete(d.sensorListeners, id) })
}

// SetSensorPrivacy blocks or unblocks a sensor and notifies listeners
func (d *Device) SetSensorPrivacy(s sensor.Sensor, enabled bool) {
	d.mu.Lock()
	d.sensorPrivacy[s] = enabled
	d.mu.Unlock()

	d.lmu.Lock()
	var fns []func(sensor.Sensor, bool)
	for _, id := range sortedIDs(d.sensorListeners) {
		if l := d.sensorListeners[id]; l.sensor == s {
			fns = append(fns, l.fn)
		}
	}
	d.lmu.Unlock()

	d.logger.Info("Sensor privacy changed", zap.Stringer("sensor", s), zap.Bool("enabled", enabled))
	for _, fn := range fns {
		fn(s, enabled)
	}
}

// IsLocationEnabled implements sensor.LocationSettings
func (d *Device) IsLocationEnabled() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.locationEnabled
}

// AddLocationListener implements sensor.LocationSettings
func (d *Device) AddLocationListener(fn func(bool)) func() {
	d.lmu.Lock()
	defer d.lmu.Unlock()

	id := d.nextListener
	d.nextListener++
	d.locListeners[id] = fn
	return d.remover(func() { delete(d.locListeners, id) })
}

// SetLocationEnabled toggles the location setting and notifies listeners
func (d *Device) SetLocationEnabled(enabled bool) {
	d.mu.Lock()
	d.locationEnabled = enabled
	d.mu.Unlock()

	d.lmu.Lock()
	fns := make([]func(bool), 0, len(d.locListeners))
	for _, id := range sortedIDs(d.locListeners) {
		fns = append(fns, d.locListeners[id])
	}
	d.lmu.Unlock()

	d.logger.Info("Location setting changed", zap.Bool("enabled", enabled))
	for _, fn := range fns {
		fn(enabled)
	}
}

// ListenerCount returns the number of registered sensor and location listeners
func (d *Device) ListenerCount() int {
	d.lmu.Lock()
	defer d.lmu.Unlock()
	return len(d.sensorListeners) + len(d.locListeners)
}

// IsLocationProvider implements permapps.LocationPolicy
func (d *Device) IsLocationProvider(packageName string) bool {
	return d.providers[packageName]
}

// IsLocationControllerExtraPackage implements permapps.LocationPolicy
func (d *Device) IsLocationControllerExtraPackage(packageName string) bool {
	return d.extraPkg != "" && d.extraPkg == packageName
}

// OnChange registers fn to run after every package or grant change
func (d *Device) OnChange(fn func()) func() {
	d.lmu.Lock()
	defer d.lmu.Unlock()

	id := d.nextListener
	d.nextListener++
	d.changeListeners[id] = fn
	return d.remover(func() { delete(d.changeListeners, id) })
}

func (d *Device) notifyChanged() {
	d.lmu.Lock()
	fns := make([]func(), 0, len(d.changeListeners))
	for _, id := range sortedIDs(d.changeListeners) {
		fns = append(fns, d.changeListeners[id])
	}
	d.lmu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (d *Device) remover(del func()) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			d.lmu.Lock()
			del()
			d.lmu.Unlock()
		})
	}
}

func sortedIDs[V any](m map[int]V) []int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func sortKeys(keys []permgroup.PackageUser) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].User != keys[j].User {
			return keys[i].User < keys[j].User
		}
		return keys[i].PackageName < keys[j].PackageName
	})
}

func cloneRecord(rec pkginfo.Record) pkginfo.Record {
	out := rec
	out.Permissions = append([]pkginfo.PermissionRecord(nil), rec.Permissions...)
	out.RequestedPermissions = append([]string(nil), rec.RequestedPermissions...)
	out.RequestedPermissionsFlags = append([]int(nil), rec.RequestedPermissionsFlags...)
	out.Attributions = append([]pkginfo.Attribution(nil), rec.Attributions...)
	if rec.ApplicationInfo != nil {
		ai := *rec.ApplicationInfo
		out.ApplicationInfo = &ai
	}
	return out
}
