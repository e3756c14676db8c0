package permapps

import (
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/GriffinCanCode/permcontroller/internal/domain/usage"
)

// Preference is one row of the app list
type Preference struct {
	Key   string `json:"key"`
	Title string `json:"title"`
}

// NewCollator returns a collator for sorting rows in the given locale.
// Case differences are significant.
func NewCollator(tag language.Tag) *collate.Collator {
	return collate.New(tag)
}

// ComparePreference orders rows by title under the collator, then by key
func (m *Model) ComparePreference(c *collate.Collator, lhs, rhs Preference) int {
	if r := c.CompareString(lhs.Title, rhs.Title); r != 0 {
		return r
	}
	return strings.Compare(lhs.Key, rhs.Key)
}

// FilterTimeBegin returns the start of the usage window for this device
func (m *Model) FilterTimeBegin() time.Time {
	return usage.FilterBegin(m.env.Now(), m.env.FormFactor)
}

// ExtractGroupUsageLastAccessTime maps user+package to last access time in this group
func (m *Model) ExtractGroupUsageLastAccessTime(usages []usage.AppPermissionUsage) map[string]time.Time {
	return usage.LastAccessTimes(m.group, usages, m.env.Now(), m.env.FormFactor, m.env.SDK)
}

// PreferenceSummary returns the summary line of a row
func (m *Model) PreferenceSummary(strs usage.Strings, ts usage.SummaryTimestamp) string {
	return usage.Summary(strs, ts)
}
