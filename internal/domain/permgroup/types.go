package permgroup

import (
	"fmt"

	"github.com/GriffinCanCode/permcontroller/internal/domain/pkginfo"
)

// GrantState is the aggregate grant state of a permission group for one app
type GrantState int

const (
	StateAllowed GrantState = iota
	StateAllowedForegroundOnly
	StateAllowedAlways
	StateDenied
	StateAsk
)

// String returns the string representation of the grant state
func (s GrantState) String() string {
	switch s {
	case StateAllowed:
		return "allowed"
	case StateAllowedForegroundOnly:
		return "allowed_foreground_only"
	case StateAllowedAlways:
		return "allowed_always"
	case StateDenied:
		return "denied"
	case StateAsk:
		return "ask"
	default:
		return "unknown"
	}
}

// ParseGrantState converts a string produced by String back into a GrantState
func ParseGrantState(s string) (GrantState, error) {
	for st := StateAllowed; st <= StateAsk; st++ {
		if st.String() == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown grant state %q", s)
}

// Category is the bucket an app is listed under on a permission group screen
type Category string

const (
	CategoryAllowed           Category = "allowed"
	CategoryAllowedForeground Category = "allowed_foreground"
	CategoryAsk               Category = "ask"
	CategoryDenied            Category = "denied"
)

// Categories lists every category in display order
var Categories = []Category{
	CategoryAllowed,
	CategoryAllowedForeground,
	CategoryAsk,
	CategoryDenied,
}

// CategoryFor maps a grant state to its category
func CategoryFor(state GrantState) Category {
	switch state {
	case StateAllowedForegroundOnly:
		return CategoryAllowedForeground
	case StateAllowed, StateAllowedAlways:
		return CategoryAllowed
	case StateDenied:
		return CategoryDenied
	default:
		return CategoryAsk
	}
}

// PackageUser identifies a package installed for a specific user
type PackageUser struct {
	PackageName string             `json:"package_name" yaml:"package_name" toml:"package_name"`
	User        pkginfo.UserHandle `json:"user" yaml:"user" toml:"user"`
}

// String returns the "user/package" form used in logs
func (p PackageUser) String() string {
	return fmt.Sprintf("%d/%s", p.User, p.PackageName)
}

// UiInfo is the UI-facing state of one permission group for one app
type UiInfo struct {
	GrantState GrantState `json:"grant_state"`
	IsSystem   bool       `json:"is_system"`
	ShouldShow bool       `json:"should_show"`
}

// AppUiInfo is one element of the ordered per-group feed
type AppUiInfo struct {
	Key  PackageUser `json:"key"`
	Info UiInfo      `json:"info"`
}

// FullStorageState describes whether an app holds unrestricted storage access
type FullStorageState struct {
	PackageName string             `json:"package_name"`
	User        pkginfo.UserHandle `json:"user"`
	IsGranted   bool               `json:"is_granted"`
	IsLegacy    bool               `json:"is_legacy"`
}

// Key returns the package/user pair this state belongs to
func (f FullStorageState) Key() PackageUser {
	return PackageUser{PackageName: f.PackageName, User: f.User}
}
