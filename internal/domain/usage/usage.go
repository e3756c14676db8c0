package usage

import (
	"time"

	"github.com/GriffinCanCode/permcontroller/internal/domain/pkginfo"
)

// Aggregation windows for permission usage
const (
	FilterBeginDaysHandheld = 7
	FilterBeginDaysOther    = 1
)

// sdkUsage is the first SDK level with per-group usage history (S)
const sdkUsage = 31

// GroupUsage is the access history of one permission group by one app
type GroupUsage struct {
	Group          string             `json:"group"`
	User           pkginfo.UserHandle `json:"user"`
	LastAccessTime time.Time          `json:"last_access_time"`
}

// AppPermissionUsage is the access history of one app across groups
type AppPermissionUsage struct {
	PackageName string       `json:"package_name"`
	Groups      []GroupUsage `json:"groups"`
}

// FilterBegin returns the start of the usage window ending at now
func FilterBegin(now time.Time, ff FormFactor) time.Time {
	days := FilterBeginDaysOther
	if ff.IsHandheld() {
		days = FilterBeginDaysHandheld
	}
	begin := now.Add(-time.Duration(days) * 24 * time.Hour)
	if begin.Before(time.Unix(0, 0)) {
		return time.Unix(0, 0)
	}
	return begin
}

// AccessKey builds the key used by LastAccessTimes
func AccessKey(user pkginfo.UserHandle, packageName string) string {
	return user.String() + packageName
}

// LastAccessTimes returns the last access of group per user+package inside the usage window.
// Platforms without usage history yield an empty map.
func LastAccessTimes(group string, usages []AppPermissionUsage, now time.Time, ff FormFactor, sdk int) map[string]time.Time {
	access := make(map[string]time.Time)
	if sdk < sdkUsage {
		return access
	}

	begin := FilterBegin(now, ff)
	for _, app := range usages {
		for _, g := range app.Groups {
			if g.Group != group {
				continue
			}
			if g.LastAccessTime.IsZero() || g.LastAccessTime.Before(begin) {
				continue
			}
			access[AccessKey(g.User, app.PackageName)] = g.LastAccessTime
		}
	}
	return access
}
