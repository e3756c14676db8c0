package platform

import (
	"go.uber.org/zap"

	"github.com/GriffinCanCode/permcontroller/internal/domain/permapps"
	"github.com/GriffinCanCode/permcontroller/internal/domain/pkginfo"
	"github.com/GriffinCanCode/permcontroller/internal/infrastructure/telemetry"
)

// Env returns the collaborators a permission apps model needs, all backed by
// this device and its feeds
func (f *Feeds) Env(sink telemetry.Sink, logger *zap.Logger) permapps.Env {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := f.device
	return permapps.Env{
		Sources:    f,
		Repository: pkginfo.NewRepository(d, d.SDK(), logger),
		Privacy:    d,
		Location:   d,
		Policy:     d,
		Sink:       sink,
		SDK:        d.SDK(),
		FormFactor: d.FormFactor(),
		Logger:     logger,
	}
}

// Device returns the device the feeds publish
func (f *Feeds) Device() *Device {
	return f.device
}
