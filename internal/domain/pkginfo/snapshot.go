package pkginfo

import (
	"errors"
	"fmt"
	"time"
)

// Bits of Record.RequestedPermissionsFlags
const (
	FlagRequestedPermissionRequired = 1 << 0
	FlagRequestedPermissionGranted  = 1 << 1
	FlagRequestedPermissionImplicit = 1 << 2
)

// Bits of ApplicationInfo.Flags
const (
	AppFlagSystem           = 1 << 0
	AppFlagUpdatedSystemApp = 1 << 7
)

// DeviceIDDefault is the device id of the physical device itself
const DeviceIDDefault = 0

// sdkAttributions is the first SDK level that reports attribution tags (S)
const sdkAttributions = 31

var (
	// ErrFlagsMismatch is returned when requested permissions and flags differ in length
	ErrFlagsMismatch = errors.New("requested permissions and flags have different lengths")
	// ErrMissingApplicationInfo is returned for records without application info
	ErrMissingApplicationInfo = errors.New("package record has no application info")
)

// ApplicationInfo is the subset of platform application info the controller reads
type ApplicationInfo struct {
	UID                     int  `json:"uid" yaml:"uid" toml:"uid"`
	TargetSDKVersion        int  `json:"target_sdk" yaml:"target_sdk" toml:"target_sdk"`
	Flags                   int  `json:"flags" yaml:"flags" toml:"flags"`
	Enabled                 bool `json:"enabled" yaml:"enabled" toml:"enabled"`
	IsInstantApp            bool `json:"instant_app" yaml:"instant_app" toml:"instant_app"`
	AttributionsUserVisible bool `json:"attributions_user_visible" yaml:"attributions_user_visible" toml:"attributions_user_visible"`
}

// PermissionRecord is a permission defined by a package
type PermissionRecord struct {
	Name        string `json:"name" yaml:"name" toml:"name"`
	Group       string `json:"group,omitempty" yaml:"group" toml:"group"`
	Protection  int    `json:"protection" yaml:"protection" toml:"protection"`
	Flags       int    `json:"flags" yaml:"flags" toml:"flags"`
	Description string `json:"description,omitempty" yaml:"description" toml:"description"`
}

// Attribution is a named attribution tag declared in a manifest
type Attribution struct {
	Tag   string `json:"tag" yaml:"tag" toml:"tag"`
	Label int    `json:"label" yaml:"label" toml:"label"`
}

// Record is a full system package record as returned by a package query
type Record struct {
	PackageName               string             `json:"package_name" yaml:"package_name" toml:"package_name"`
	Permissions               []PermissionRecord `json:"permissions,omitempty" yaml:"permissions" toml:"permissions"`
	RequestedPermissions      []string           `json:"requested_permissions" yaml:"requested_permissions" toml:"requested_permissions"`
	RequestedPermissionsFlags []int              `json:"requested_permissions_flags" yaml:"requested_permissions_flags" toml:"requested_permissions_flags"`
	ApplicationInfo           *ApplicationInfo   `json:"application_info" yaml:"application_info" toml:"application_info"`
	FirstInstallTime          time.Time          `json:"first_install_time" yaml:"first_install_time" toml:"first_install_time"`
	LastUpdateTime            time.Time          `json:"last_update_time" yaml:"last_update_time" toml:"last_update_time"`
	Attributions              []Attribution      `json:"attributions,omitempty" yaml:"attributions" toml:"attributions"`
}

// PermInfo is a lightweight view of a permission defined by a package
type PermInfo struct {
	Name        string `json:"name"`
	PackageName string `json:"package_name"`
	Group       string `json:"group,omitempty"`
	Protection  int    `json:"protection"`
	Flags       int    `json:"flags"`
	IsSystem    bool   `json:"is_system"`
}

// Snapshot is an immutable projection of a package at query time
type Snapshot struct {
	PackageName               string         `json:"package_name"`
	Permissions               []PermInfo     `json:"permissions"`
	RequestedPermissions      []string       `json:"requested_permissions"`
	RequestedPermissionsFlags []int          `json:"requested_permissions_flags"`
	UID                       int            `json:"uid"`
	TargetSDKVersion          int            `json:"target_sdk"`
	IsInstantApp              bool           `json:"instant_app"`
	Enabled                   bool           `json:"enabled"`
	AppFlags                  int            `json:"app_flags"`
	FirstInstallTime          time.Time      `json:"first_install_time"`
	LastUpdateTime            time.Time      `json:"last_update_time"`
	AttributionsUserVisible   bool           `json:"attributions_user_visible"`
	AttributionTagsToLabels   map[string]int `json:"attribution_tags_to_labels"`
	DeviceID                  int            `json:"device_id"`
}

// NewSnapshot projects rec into a Snapshot. Attribution data is only read on
// platforms that report it.
func NewSnapshot(rec Record, sdk int) (*Snapshot, error) {
	if rec.ApplicationInfo == nil {
		return nil, fmt.Errorf("%s: %w", rec.PackageName, ErrMissingApplicationInfo)
	}
	if len(rec.RequestedPermissions) != len(rec.RequestedPermissionsFlags) {
		return nil, fmt.Errorf("%s: %w (%d names, %d flags)", rec.PackageName, ErrFlagsMismatch,
			len(rec.RequestedPermissions), len(rec.RequestedPermissionsFlags))
	}

	ai := rec.ApplicationInfo
	isSystem := ai.Flags&AppFlagSystem != 0

	perms := make([]PermInfo, 0, len(rec.Permissions))
	for _, p := range rec.Permissions {
		perms = append(perms, PermInfo{
			Name:        p.Name,
			PackageName: rec.PackageName,
			Group:       p.Group,
			Protection:  p.Protection,
			Flags:       p.Flags,
			IsSystem:    isSystem,
		})
	}

	s := &Snapshot{
		PackageName:               rec.PackageName,
		Permissions:               perms,
		RequestedPermissions:      append([]string{}, rec.RequestedPermissions...),
		RequestedPermissionsFlags: append([]int{}, rec.RequestedPermissionsFlags...),
		UID:                       ai.UID,
		TargetSDKVersion:          ai.TargetSDKVersion,
		IsInstantApp:              ai.IsInstantApp,
		Enabled:                   ai.Enabled,
		AppFlags:                  ai.Flags,
		FirstInstallTime:          rec.FirstInstallTime,
		LastUpdateTime:            rec.LastUpdateTime,
		AttributionTagsToLabels:   map[string]int{},
		DeviceID:                  DeviceIDDefault,
	}
	if sdk >= sdkAttributions {
		s.AttributionsUserVisible = ai.AttributionsUserVisible
		s.AttributionTagsToLabels = BuildAttributionTagsToLabels(rec.Attributions)
	}
	return s, nil
}

// NewDeviceSnapshot projects rec with the grant flags of a specific (possibly virtual) device
func NewDeviceSnapshot(rec Record, sdk int, deviceID int, flags []int) (*Snapshot, error) {
	s, err := NewSnapshot(rec, sdk)
	if err != nil {
		return nil, err
	}
	if len(flags) != len(s.RequestedPermissions) {
		return nil, fmt.Errorf("%s on device %d: %w", rec.PackageName, deviceID, ErrFlagsMismatch)
	}
	s.DeviceID = deviceID
	s.RequestedPermissionsFlags = append([]int{}, flags...)
	return s, nil
}

// BuildAttributionTagsToLabels maps each attribution tag to its label resource
func BuildAttributionTagsToLabels(attributions []Attribution) map[string]int {
	labels := make(map[string]int, len(attributions))
	for _, a := range attributions {
		labels[a.Tag] = a.Label
	}
	return labels
}

// GrantedPermissions returns the requested permissions whose flag has the granted bit
func (s *Snapshot) GrantedPermissions() []string {
	granted := []string{}
	for i, name := range s.RequestedPermissions {
		if s.RequestedPermissionsFlags[i]&FlagRequestedPermissionGranted != 0 {
			granted = append(granted, name)
		}
	}
	return granted
}

// Requests reports whether the package requests perm
func (s *Snapshot) Requests(perm string) bool {
	return s.indexOf(perm) >= 0
}

// IsGranted reports whether perm is requested and granted
func (s *Snapshot) IsGranted(perm string) bool {
	i := s.indexOf(perm)
	return i >= 0 && s.RequestedPermissionsFlags[i]&FlagRequestedPermissionGranted != 0
}

func (s *Snapshot) indexOf(perm string) int {
	for i, name := range s.RequestedPermissions {
		if name == perm {
			return i
		}
	}
	return -1
}

// IsSystem reports whether the package is part of the system image
func (s *Snapshot) IsSystem() bool {
	return s.AppFlags&AppFlagSystem != 0
}

// User returns the user the package is installed for
func (s *Snapshot) User() UserHandle {
	return UserForUID(s.UID)
}
