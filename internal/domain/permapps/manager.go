package permapps

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/permcontroller/internal/domain/permgroup"
	"github.com/GriffinCanCode/permcontroller/internal/domain/savedstate"
)

// Manager owns one model per permission group
type Manager struct {
	env     Env
	metrics Recorder
	logger  *zap.Logger

	mu     sync.Mutex
	models map[string]*Model
}

// NewManager creates a model manager
func NewManager(env Env) *Manager {
	logger := env.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		env:    env,
		logger: logger.Named("permapps"),
		models: make(map[string]*Model),
	}
}

// WithMetrics attaches a recompute recorder to every model created afterwards
func (mgr *Manager) WithMetrics(r Recorder) *Manager {
	mgr.metrics = r
	return mgr
}

// Model returns the model for group, creating it on first use
func (mgr *Manager) Model(group string) (*Model, error) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	if m, ok := mgr.models[group]; ok {
		return m, nil
	}

	m, err := NewModel(group, savedstate.NewPermissionAppsState(), mgr.env)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", group, err)
	}
	if mgr.metrics != nil {
		m.WithMetrics(mgr.metrics)
	}
	mgr.models[group] = m
	mgr.logger.Info("Created permission apps model", zap.String("group", group))
	return m, nil
}

// Groups returns the groups that have a model, sorted
func (mgr *Manager) Groups() []string {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	groups := make([]string, 0, len(mgr.models))
	for g := range mgr.models {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}

// Close releases every model
func (mgr *Manager) Close() {
	mgr.mu.Lock()
	models := mgr.models
	mgr.models = make(map[string]*Model)
	mgr.mu.Unlock()

	for _, m := range models {
		m.Close()
	}
}

// KnownGroups lists the groups a model can be created for
func KnownGroups() []string {
	return append([]string(nil), permgroup.Known...)
}
