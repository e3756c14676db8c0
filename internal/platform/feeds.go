package platform

import (
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/permcontroller/internal/domain/permgroup"
	"github.com/GriffinCanCode/permcontroller/internal/domain/pkginfo"
	"github.com/GriffinCanCode/permcontroller/internal/domain/reactive"
)

// Feeds publishes the device's package state as observable values.
// Every device change republishes all feeds.
type Feeds struct {
	device *Device
	logger *zap.Logger

	all         *reactive.Value[[]*pkginfo.Snapshot]
	fullStorage *reactive.Value[[]permgroup.FullStorageState]

	// pub serializes publishes so feeds never go backwards
	pub sync.Mutex

	mu      sync.Mutex
	groups  map[string]*reactive.Value[[]permgroup.AppUiInfo]
	current []*pkginfo.Snapshot
	loaded  bool
	stop    func()
}

// NewFeeds creates feeds over device. Nothing is published until Start.
func NewFeeds(device *Device, logger *zap.Logger) *Feeds {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Feeds{
		device:      device,
		logger:      logger.Named("feeds"),
		all:         reactive.New[[]*pkginfo.Snapshot](),
		fullStorage: reactive.New[[]permgroup.FullStorageState](),
		groups:      make(map[string]*reactive.Value[[]permgroup.AppUiInfo]),
	}
}

// Start publishes the current state and follows device changes
func (f *Feeds) Start() {
	f.mu.Lock()
	if f.stop != nil {
		f.mu.Unlock()
		return
	}
	f.stop = f.device.OnChange(f.Publish)
	f.mu.Unlock()

	f.Publish()
}

// Stop detaches from the device; published values stay
func (f *Feeds) Stop() {
	f.mu.Lock()
	stop := f.stop
	f.stop = nil
	f.mu.Unlock()

	if stop != nil {
		stop()
	}
}

// AllPackages implements permapps.Sources
func (f *Feeds) AllPackages() *reactive.Value[[]*pkginfo.Snapshot] {
	return f.all
}

// FullStorage implements permapps.Sources
func (f *Feeds) FullStorage() *reactive.Value[[]permgroup.FullStorageState] {
	return f.fullStorage
}

// GroupUiInfo implements permapps.Sources. A group feed requested after the
// first publish is filled immediately.
func (f *Feeds) GroupUiInfo(group string) *reactive.Value[[]permgroup.AppUiInfo] {
	f.mu.Lock()
	v, ok := f.groups[group]
	if !ok {
		v = reactive.New[[]permgroup.AppUiInfo]()
		f.groups[group] = v
	}
	f.mu.Unlock()

	if !ok {
		f.fill(group, v)
	}
	return v
}

// fill publishes the first value of a lazily created group feed. It holds pub
// so a concurrent Publish cannot be overwritten with older snapshots.
func (f *Feeds) fill(group string, v *reactive.Value[[]permgroup.AppUiInfo]) {
	f.pub.Lock()
	defer f.pub.Unlock()

	if v.IsInitialized() {
		return
	}
	f.mu.Lock()
	loaded := f.loaded
	snapshots := f.current
	f.mu.Unlock()

	if loaded {
		v.Set(f.groupEntries(group, snapshots))
	}
}

// Publish derives and publishes every feed from the device
func (f *Feeds) Publish() {
	f.pub.Lock()
	defer f.pub.Unlock()

	snapshots := f.device.Snapshots()

	f.mu.Lock()
	f.current = snapshots
	f.loaded = true
	groups := make(map[string]*reactive.Value[[]permgroup.AppUiInfo], len(f.groups))
	for g, v := range f.groups {
		groups[g] = v
	}
	f.mu.Unlock()

	f.all.Set(snapshots)
	f.fullStorage.Set(f.fullStorageEntries(snapshots))
	for _, g := range permgroup.Known {
		if v, ok := groups[g]; ok {
			v.Set(f.groupEntries(g, snapshots))
		}
	}

	f.logger.Debug("Published package feeds",
		zap.Int("packages", len(snapshots)),
		zap.Int("groups", len(groups)),
	)
}

func (f *Feeds) groupEntries(group string, snapshots []*pkginfo.Snapshot) []permgroup.AppUiInfo {
	entries := []permgroup.AppUiInfo{}
	for _, s := range snapshots {
		key := permgroup.PackageUser{PackageName: s.PackageName, User: s.User()}
		info, ok := UiInfoFor(s, group, f.device.groups, f.device.IsAskEveryTime(key, group))
		if !ok {
			continue
		}
		entries = append(entries, permgroup.AppUiInfo{Key: key, Info: info})
	}
	return entries
}

func (f *Feeds) fullStorageEntries(snapshots []*pkginfo.Snapshot) []permgroup.FullStorageState {
	states := []permgroup.FullStorageState{}
	for _, s := range snapshots {
		if st, ok := FullStorageStateFor(s); ok {
			states = append(states, st)
		}
	}
	return states
}
