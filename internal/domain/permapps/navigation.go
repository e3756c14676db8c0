package permapps

import (
	"github.com/GriffinCanCode/permcontroller/internal/domain/permgroup"
	"github.com/GriffinCanCode/permcontroller/internal/domain/pkginfo"
)

// LocationPolicy identifies packages that get special handling on the Location screen
type LocationPolicy interface {
	IsLocationProvider(packageName string) bool
	IsLocationControllerExtraPackage(packageName string) bool
}

// RouteKind is the destination of a tap on an app row
type RouteKind string

const (
	RouteAppPermission             RouteKind = "app_permission"
	RouteLocationProviderIntercept RouteKind = "location_provider_intercept"
	RouteLocationControllerExtra   RouteKind = "location_controller_extra_settings"
)

// Route is the result of navigating to an app's permission detail
type Route struct {
	Kind        RouteKind          `json:"kind"`
	Group       string             `json:"group"`
	PackageName string             `json:"package_name"`
	User        pkginfo.UserHandle `json:"user"`
}

// NavigateToAppPermission resolves where a tap on packageName leads.
// Location providers and the location controller extra package are redirected
// before the generic app permission route.
func (m *Model) NavigateToAppPermission(packageName string, user pkginfo.UserHandle) Route {
	route := Route{
		Kind:        RouteAppPermission,
		Group:       m.group,
		PackageName: packageName,
		User:        user,
	}

	if m.group != permgroup.Location || m.env.Policy == nil {
		return route
	}

	switch {
	case m.env.Policy.IsLocationProvider(packageName):
		route.Kind = RouteLocationProviderIntercept
	case m.env.Policy.IsLocationControllerExtraPackage(packageName):
		route.Kind = RouteLocationControllerExtra
	}
	return route
}
