package telemetry

import (
	"context"
	"errors"
	"time"
)

// AtomPermissionAppsViewed names the screen-view event of a permission group screen
const AtomPermissionAppsViewed = "permission_apps_fragment_viewed"

// Category is the listing category reported in screen-view events
type Category int32

const (
	CategoryUndefined         Category = 0
	CategoryAllowed           Category = 1
	CategoryAllowedForeground Category = 2
	CategoryDenied            Category = 3
)

// String returns the string representation of the category
func (c Category) String() string {
	switch c {
	case CategoryAllowed:
		return "allowed"
	case CategoryAllowedForeground:
		return "allowed_foreground"
	case CategoryDenied:
		return "denied"
	default:
		return "undefined"
	}
}

// CategoryFromFlags picks the first matching category, in allowed, foreground, denied order
func CategoryFromFlags(isAllowed, isAllowedForeground, isDenied bool) Category {
	switch {
	case isAllowed:
		return CategoryAllowed
	case isAllowedForeground:
		return CategoryAllowedForeground
	case isDenied:
		return CategoryDenied
	default:
		return CategoryUndefined
	}
}

// Event is one statistics record
type Event struct {
	Atom        string    `json:"atom"`
	SessionID   int64     `json:"session_id"`
	ViewID      int64     `json:"view_id"`
	GroupName   string    `json:"permission_group_name"`
	UID         int       `json:"uid"`
	PackageName string    `json:"package_name"`
	Category    Category  `json:"category"`
	Timestamp   time.Time `json:"timestamp"`
}

// Sink receives statistics events
type Sink interface {
	Write(ctx context.Context, event Event) error
}

// Multi writes every event to all sinks and joins their errors
type Multi []Sink

// Write implements Sink
func (m Multi) Write(ctx context.Context, event Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
