package pkginfo

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// ErrNameNotFound is returned by a Querier for packages that are not installed
var ErrNameNotFound = errors.New("package name not found")

// Querier is the platform package query facility
type Querier interface {
	PackageInfo(ctx context.Context, packageName string, user UserHandle) (*Record, error)
	ApplicationInfo(ctx context.Context, packageName string, user UserHandle) (*ApplicationInfo, error)
}

// Repository answers package lookups, treating missing packages as absent results
type Repository struct {
	querier Querier
	sdk     int
	logger  *zap.Logger
}

// NewRepository creates a package repository
func NewRepository(querier Querier, sdk int, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{
		querier: querier,
		sdk:     sdk,
		logger:  logger.Named("pkginfo"),
	}
}

// ApplicationInfo fetches the current application info for s.
// Returns false if the package no longer exists.
func (r *Repository) ApplicationInfo(ctx context.Context, s *Snapshot) (*ApplicationInfo, bool) {
	ai, err := r.querier.ApplicationInfo(ctx, s.PackageName, s.User())
	if err != nil {
		if !errors.Is(err, ErrNameNotFound) {
			r.logger.Warn("Application info query failed",
				zap.String("package", s.PackageName),
				zap.Int("uid", s.UID),
				zap.Error(err),
			)
		}
		return nil, false
	}
	return ai, true
}

// PackageInfo fetches the full package record for s.
// Returns false if the package no longer exists.
func (r *Repository) PackageInfo(ctx context.Context, s *Snapshot) (*Record, bool) {
	return r.record(ctx, s.PackageName, s.User(), s.UID)
}

// Snapshot queries the platform and projects the result
func (r *Repository) Snapshot(ctx context.Context, packageName string, user UserHandle) (*Snapshot, bool) {
	rec, ok := r.record(ctx, packageName, user, -1)
	if !ok {
		return nil, false
	}
	s, err := NewSnapshot(*rec, r.sdk)
	if err != nil {
		r.logger.Error("Malformed package record", zap.String("package", packageName), zap.Error(err))
		return nil, false
	}
	return s, true
}

// PackageUID returns the uid of packageName for user
func (r *Repository) PackageUID(ctx context.Context, packageName string, user UserHandle) (int, bool) {
	ai, err := r.querier.ApplicationInfo(ctx, packageName, user)
	if err != nil {
		return 0, false
	}
	return ai.UID, true
}

func (r *Repository) record(ctx context.Context, packageName string, user UserHandle, uid int) (*Record, bool) {
	rec, err := r.querier.PackageInfo(ctx, packageName, user)
	if err != nil {
		r.logger.Error("Failed to get real package info",
			zap.String("package", packageName),
			zap.Int("uid", uid),
			zap.Stringer("user", user),
			zap.Error(err),
		)
		return nil, false
	}
	return rec, true
}
