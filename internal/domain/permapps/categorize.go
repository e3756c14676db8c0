package permapps

import (
	"github.com/GriffinCanCode/permcontroller/internal/domain/permgroup"
)

// Inputs is everything a recompute reads
type Inputs struct {
	Group      string
	SDK        int
	ShowSystem bool
	Entries    []permgroup.AppUiInfo
	FullAccess []permgroup.FullStorageState
}

// Categorize derives the view for in. It is a pure function of its inputs:
// entries are placed in feed order, so equal inputs give equal views.
// The second result reports whether any shown entry belongs to a system app.
func Categorize(in Inputs) (CategorizedView, bool) {
	view := NewCategorizedView()

	hasSystem := false
	for _, e := range in.Entries {
		if e.Info.IsSystem && e.Info.ShouldShow {
			hasSystem = true
			break
		}
	}

	override := permgroup.StorageOverrideApplies(in.SDK, in.Group)

	for _, e := range in.Entries {
		if !e.Info.ShouldShow {
			continue
		}
		if e.Info.IsSystem && !in.ShowSystem {
			continue
		}

		state := e.Info.GrantState
		if state == permgroup.StateAllowedAlways || state == permgroup.StateAllowedForegroundOnly {
			view.ShowAlwaysAllowed = true
		}

		category := permgroup.CategoryFor(state)
		if override && hasFullAccess(in.FullAccess, e.Key) {
			category = permgroup.CategoryAllowed
		}
		view.Buckets[category] = append(view.Buckets[category], e.Key)
	}

	return view, hasSystem
}

// hasFullAccess reports whether key holds non-legacy, granted full storage access
func hasFullAccess(states []permgroup.FullStorageState, key permgroup.PackageUser) bool {
	for _, s := range states {
		if s.IsGranted && !s.IsLegacy && s.Key() == key {
			return true
		}
	}
	return false
}

// grantedOnly keeps the granted entries of a full-storage feed value
func grantedOnly(states []permgroup.FullStorageState) []permgroup.FullStorageState {
	out := make([]permgroup.FullStorageState, 0, len(states))
	for _, s := range states {
		if s.IsGranted {
			out = append(out, s)
		}
	}
	return out
}
