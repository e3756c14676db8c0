// Package fixture loads simulated device descriptions from YAML or TOML files.
package fixture

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/permcontroller/internal/domain/permgroup"
	"github.com/GriffinCanCode/permcontroller/internal/domain/pkginfo"
	"github.com/GriffinCanCode/permcontroller/internal/domain/sensor"
	"github.com/GriffinCanCode/permcontroller/internal/platform"
)

// ErrUnsupportedFormat is returned for fixture files that are neither YAML nor TOML
var ErrUnsupportedFormat = errors.New("unsupported fixture format")

// Format is a fixture encoding
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// Fixture describes a device and its installed packages
type Fixture struct {
	SDK                            int      `yaml:"sdk" toml:"sdk"`
	Features                       []string `yaml:"features" toml:"features"`
	LocationProviders              []string `yaml:"location_providers" toml:"location_providers"`
	LocationControllerExtraPackage string   `yaml:"location_controller_extra_package" toml:"location_controller_extra_package"`
	LocationEnabled                *bool    `yaml:"location_enabled" toml:"location_enabled"`
	CameraBlocked                  bool     `yaml:"camera_blocked" toml:"camera_blocked"`
	MicrophoneBlocked              bool     `yaml:"microphone_blocked" toml:"microphone_blocked"`
	Users                          []User   `yaml:"users" toml:"users"`
}

// User lists the packages installed for one device user
type User struct {
	ID       int       `yaml:"id" toml:"id"`
	Packages []Package `yaml:"packages" toml:"packages"`
}

// Package is one installed app
type Package struct {
	Name        string       `yaml:"name" toml:"name"`
	AppID       int          `yaml:"app_id" toml:"app_id"`
	TargetSDK   int          `yaml:"target_sdk" toml:"target_sdk"`
	System      bool         `yaml:"system" toml:"system"`
	Disabled    bool         `yaml:"disabled" toml:"disabled"`
	Instant     bool         `yaml:"instant" toml:"instant"`
	Permissions []Permission `yaml:"permissions" toml:"permissions"`
	AskGroups   []string     `yaml:"ask_groups" toml:"ask_groups"`
}

// Permission is one requested permission and its grant
type Permission struct {
	Name     string `yaml:"name" toml:"name"`
	Granted  bool   `yaml:"granted" toml:"granted"`
	Implicit bool   `yaml:"implicit" toml:"implicit"`
}

// FormatForPath picks the format from the file extension
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
}

// Load reads and decodes a fixture file
func Load(path string) (*Fixture, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	return Decode(data, format)
}

// Decode parses fixture data in the given format
func Decode(data []byte, format Format) (*Fixture, error) {
	var f Fixture
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse YAML fixture: %w", err)
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse TOML fixture: %w", err)
		}
	default:
		return nil, fmt.Errorf("%q: %w", format, ErrUnsupportedFormat)
	}
	return &f, nil
}

// Encode writes f in the given format
func Encode(f *Fixture, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(f)
	case FormatTOML:
		return toml.Marshal(f)
	default:
		return nil, fmt.Errorf("%q: %w", format, ErrUnsupportedFormat)
	}
}

// Device builds a simulated device. A fixture without an SDK level uses defaultSDK.
func (f *Fixture) Device(defaultSDK int, logger *zap.Logger) (*platform.Device, error) {
	sdk := f.SDK
	if sdk == 0 {
		sdk = defaultSDK
	}

	d := platform.NewDevice(platform.Config{
		SDK:                            sdk,
		Features:                       f.Features,
		LocationProviders:              f.LocationProviders,
		LocationControllerExtraPackage: f.LocationControllerExtraPackage,
	}, logger)

	for _, u := range f.Users {
		user := pkginfo.UserHandle(u.ID)
		for _, p := range u.Packages {
			if err := d.Install(user, p.record()); err != nil {
				return nil, fmt.Errorf("user %d: %w", u.ID, err)
			}
			for _, group := range p.AskGroups {
				if !permgroup.IsKnown(group) {
					return nil, fmt.Errorf("%s: ask group %q: unknown permission group", p.Name, group)
				}
				if err := d.SetGrantState(p.Name, user, group, permgroup.StateAsk); err != nil {
					return nil, err
				}
			}
		}
	}

	if f.LocationEnabled != nil {
		d.SetLocationEnabled(*f.LocationEnabled)
	}
	d.SetSensorPrivacy(sensor.Camera, f.CameraBlocked)
	d.SetSensorPrivacy(sensor.Microphone, f.MicrophoneBlocked)
	return d, nil
}

func (p Package) record() pkginfo.Record {
	rec := pkginfo.Record{
		PackageName:               p.Name,
		RequestedPermissions:      make([]string, 0, len(p.Permissions)),
		RequestedPermissionsFlags: make([]int, 0, len(p.Permissions)),
		ApplicationInfo: &pkginfo.ApplicationInfo{
			UID:              p.AppID,
			TargetSDKVersion: p.TargetSDK,
			Enabled:          !p.Disabled,
			IsInstantApp:     p.Instant,
		},
	}
	if p.System {
		rec.ApplicationInfo.Flags |= pkginfo.AppFlagSystem
	}
	for _, perm := range p.Permissions {
		flags := 0
		if perm.Granted {
			flags |= pkginfo.FlagRequestedPermissionGranted
		}
		if perm.Implicit {
			flags |= pkginfo.FlagRequestedPermissionImplicit
		}
		rec.RequestedPermissions = append(rec.RequestedPermissions, perm.Name)
		rec.RequestedPermissionsFlags = append(rec.RequestedPermissionsFlags, flags)
	}
	return rec
}
