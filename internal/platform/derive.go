package platform

import (
	"github.com/GriffinCanCode/permcontroller/internal/domain/permgroup"
	"github.com/GriffinCanCode/permcontroller/internal/domain/pkginfo"
)

// UiInfoFor derives the group UI state of a package.
// Returns false when the package requests nothing in the group.
func UiInfoFor(s *pkginfo.Snapshot, group string, groups map[string]string, ask bool) (permgroup.UiInfo, bool) {
	var (
		requested  bool
		explicit   bool
		foreground bool
		background bool
	)
	for i, perm := range s.RequestedPermissions {
		if groups[perm] != group {
			continue
		}
		requested = true
		flags := s.RequestedPermissionsFlags[i]
		if flags&pkginfo.FlagRequestedPermissionImplicit == 0 {
			explicit = true
		}
		if flags&pkginfo.FlagRequestedPermissionGranted == 0 {
			continue
		}
		if perm == PermBackgroundLocation {
			background = true
		} else {
			foreground = true
		}
	}
	if !requested {
		return permgroup.UiInfo{}, false
	}

	info := permgroup.UiInfo{
		IsSystem:   s.IsSystem(),
		ShouldShow: s.Enabled && !s.IsInstantApp && explicit,
	}
	switch {
	case foreground && background:
		info.GrantState = permgroup.StateAllowedAlways
	case foreground && group == permgroup.Location && s.Requests(PermBackgroundLocation):
		info.GrantState = permgroup.StateAllowedForegroundOnly
	case foreground:
		info.GrantState = permgroup.StateAllowed
	case ask:
		info.GrantState = permgroup.StateAsk
	default:
		info.GrantState = permgroup.StateDenied
	}
	return info, true
}

// FullStorageStateFor derives the full storage access of a package.
// Returns false for packages that can never hold full storage access.
func FullStorageStateFor(s *pkginfo.Snapshot) (permgroup.FullStorageState, bool) {
	state := permgroup.FullStorageState{
		PackageName: s.PackageName,
		User:        s.User(),
	}
	switch {
	case s.Requests(PermManageExternalStorage):
		state.IsGranted = s.IsGranted(PermManageExternalStorage)
	case s.TargetSDKVersion < legacyStorageTargetSDK && s.Requests(PermReadExternalStorage):
		state.IsLegacy = true
		state.IsGranted = s.IsGranted(PermReadExternalStorage)
	default:
		return permgroup.FullStorageState{}, false
	}
	return state, true
}
