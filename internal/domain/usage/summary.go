package usage

import (
	"fmt"
	"time"

	"github.com/GriffinCanCode/permcontroller/internal/domain/permgroup"
)

// SummaryKind selects the wording of a last-access summary
type SummaryKind int

const (
	SummaryNone SummaryKind = iota
	Summary24hSensorToday
	Summary24hSensorYesterday
	Summary24hContentProvider
	Summary7dSensor
	Summary7dContentProvider
)

// SummaryTimestamp carries the formatted time, the summary kind and the formatted date
type SummaryTimestamp struct {
	Time string      `json:"time"`
	Kind SummaryKind `json:"kind"`
	Date string      `json:"date"`
}

// Strings holds the localized summary templates
type Strings struct {
	ContentProvider24h string
	ContentProvider7d  string
	Access24h          string // %[1]s = time
	Access24hYesterday string // %[1]s = time
	Access7d           string // %[1]s = date, %[2]s = time
}

// DefaultStrings are the English templates
var DefaultStrings = Strings{
	ContentProvider24h: "Used in the past 24 hours",
	ContentProvider7d:  "Used in the past 7 days",
	Access24h:          "Last access: %[1]s",
	Access24hYesterday: "Last access: yesterday at %[1]s",
	Access7d:           "Last access: %[1]s at %[2]s",
}

// Summary returns the summary line for ts; unknown kinds yield ""
func Summary(strs Strings, ts SummaryTimestamp) string {
	switch ts.Kind {
	case Summary24hContentProvider:
		return strs.ContentProvider24h
	case Summary7dContentProvider:
		return strs.ContentProvider7d
	case Summary24hSensorToday:
		return fmt.Sprintf(strs.Access24h, ts.Time)
	case Summary24hSensorYesterday:
		return fmt.Sprintf(strs.Access24hYesterday, ts.Time)
	case Summary7dSensor:
		return fmt.Sprintf(strs.Access7d, ts.Date, ts.Time)
	default:
		return ""
	}
}

// IsSensorGroup reports whether accesses of group are shown with timestamps
func IsSensorGroup(group string) bool {
	switch group {
	case permgroup.Camera, permgroup.Microphone, permgroup.Location:
		return true
	default:
		return false
	}
}

// TimestampFor classifies lastAccess relative to now. Sensor groups get a time
// (and date beyond yesterday); other groups get a coarse content-provider
// summary. Accesses older than 7 days yield SummaryNone.
func TimestampFor(group string, lastAccess, now time.Time) SummaryTimestamp {
	if lastAccess.IsZero() || lastAccess.After(now) {
		return SummaryTimestamp{}
	}

	ts := SummaryTimestamp{
		Time: lastAccess.Format("15:04"),
		Date: lastAccess.Format("Jan 2"),
	}
	age := now.Sub(lastAccess)
	sensor := IsSensorGroup(group)

	switch {
	case age <= 24*time.Hour && sensor:
		if sameDay(lastAccess, now) {
			ts.Kind = Summary24hSensorToday
		} else {
			ts.Kind = Summary24hSensorYesterday
		}
	case age <= 24*time.Hour:
		ts.Kind = Summary24hContentProvider
	case age <= 7*24*time.Hour && sensor:
		ts.Kind = Summary7dSensor
	case age <= 7*24*time.Hour:
		ts.Kind = Summary7dContentProvider
	}
	return ts
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}
