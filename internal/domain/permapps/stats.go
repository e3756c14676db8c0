package permapps

import (
	"context"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/permcontroller/internal/domain/permgroup"
	"github.com/GriffinCanCode/permcontroller/internal/domain/pkginfo"
	"github.com/GriffinCanCode/permcontroller/internal/infrastructure/telemetry"
)

// AppView describes one listed app at the time the screen was shown
type AppView struct {
	PackageName         string
	User                pkginfo.UserHandle
	SessionID           int64
	ViewID              int64
	IsAllowed           bool
	IsAllowedForeground bool
	IsDenied            bool
}

// LogAppViewed writes the screen-view event for one app.
// Packages that are no longer installed are skipped without error.
func (m *Model) LogAppViewed(ctx context.Context, v AppView) (bool, error) {
	if m.env.Sink == nil || m.env.Repository == nil {
		return false, nil
	}

	uid, ok := m.env.Repository.PackageUID(ctx, v.PackageName, v.User)
	if !ok {
		return false, nil
	}

	event := telemetry.Event{
		Atom:        telemetry.AtomPermissionAppsViewed,
		SessionID:   v.SessionID,
		ViewID:      v.ViewID,
		GroupName:   m.group,
		UID:         uid,
		PackageName: v.PackageName,
		Category:    telemetry.CategoryFromFlags(v.IsAllowed, v.IsAllowedForeground, v.IsDenied),
		Timestamp:   m.env.Now(),
	}
	if err := m.env.Sink.Write(ctx, event); err != nil {
		m.logger.Warn("Failed to write screen view event",
			zap.String("package", v.PackageName),
			zap.Error(err),
		)
		return false, err
	}

	m.logger.Info("Permission apps screen created",
		zap.Int64("session_id", v.SessionID),
		zap.Int("uid", uid),
		zap.String("package", v.PackageName),
		zap.Stringer("category", event.Category),
	)
	return true, nil
}

// LogScreenViewed writes one event per listed app the first time it is called
// for this screen, using viewID for every event. It returns the number of
// events written.
func (m *Model) LogScreenViewed(ctx context.Context, sessionID, viewID int64) (int, error) {
	if m.CreationLogged() {
		return 0, nil
	}
	view, ok := m.categorized.Get()
	if !ok {
		return 0, nil
	}

	written := 0
	for _, c := range permgroup.Categories {
		for _, key := range view.Bucket(c) {
			logged, err := m.LogAppViewed(ctx, AppView{
				PackageName:         key.PackageName,
				User:                key.User,
				SessionID:           sessionID,
				ViewID:              viewID,
				IsAllowed:           c == permgroup.CategoryAllowed,
				IsAllowedForeground: c == permgroup.CategoryAllowedForeground,
				IsDenied:            c == permgroup.CategoryDenied,
			})
			if err != nil {
				return written, err
			}
			if logged {
				written++
			}
		}
	}

	m.SetCreationLogged(true)
	return written, nil
}
