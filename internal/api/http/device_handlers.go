package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/permcontroller/internal/domain/permgroup"
	"github.com/GriffinCanCode/permcontroller/internal/domain/sensor"
	"github.com/GriffinCanCode/permcontroller/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/permcontroller/internal/platform"
)

// SetGrantState changes the grant state of a group for one app
func (h *Handlers) SetGrantState(c *gin.Context) {
	var req struct {
		User  int    `json:"user"`
		State string `json:"state" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	group := c.Param("group")
	if !permgroup.IsKnown(group) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown permission group: " + group})
		return
	}
	state, err := permgroup.ParseGrantState(req.State)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, ok := userValue(c, req.User)
	if !ok {
		return
	}

	pkg := c.Param("package")
	timer := h.timer("set_grant_state")
	err = h.device.SetGrantState(pkg, user, group, state)
	timer.stop(err)
	if err != nil {
		writeDeviceError(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordGrantChange(group, state.String())
	}

	c.JSON(http.StatusOK, gin.H{
		"package": pkg,
		"user":    user,
		"group":   group,
		"state":   state.String(),
	})
}

// SetPermission grants or revokes a single permission of one app
func (h *Handlers) SetPermission(c *gin.Context) {
	var req struct {
		User    int   `json:"user"`
		Granted *bool `json:"granted" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	user, ok := userValue(c, req.User)
	if !ok {
		return
	}

	pkg, perm := c.Param("package"), c.Param("permission")
	timer := h.timer("set_permission")
	err := h.device.SetPermissionGranted(pkg, user, perm, *req.Granted)
	timer.stop(err)
	if err != nil {
		writeDeviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"package":    pkg,
		"user":       user,
		"permission": perm,
		"granted":    *req.Granted,
	})
}

// UninstallPackage removes an app for one user
func (h *Handlers) UninstallPackage(c *gin.Context) {
	user, ok := userParam(c)
	if !ok {
		return
	}

	pkg := c.Param("package")
	timer := h.timer("uninstall")
	err := h.device.Uninstall(pkg, user)
	timer.stop(err)
	if err != nil {
		writeDeviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"package":     pkg,
		"user":        user,
		"uninstalled": true,
	})
}

// SetSensorPrivacy toggles the privacy switch of the camera or microphone
func (h *Handlers) SetSensorPrivacy(c *gin.Context) {
	var req struct {
		Enabled *bool `json:"enabled" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	var s sensor.Sensor
	switch name := c.Param("sensor"); name {
	case sensor.Camera.String():
		s = sensor.Camera
	case sensor.Microphone.String():
		s = sensor.Microphone
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown sensor: " + name})
		return
	}

	timer := h.timer("set_sensor_privacy")
	h.device.SetSensorPrivacy(s, *req.Enabled)
	timer.stop(nil)

	c.JSON(http.StatusOK, gin.H{
		"sensor":  s.String(),
		"enabled": *req.Enabled,
	})
}

// GetLocation returns the device location setting
func (h *Handlers) GetLocation(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"enabled": h.device.IsLocationEnabled()})
}

// SetLocation toggles the device location setting
func (h *Handlers) SetLocation(c *gin.Context) {
	var req struct {
		Enabled *bool `json:"enabled" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	timer := h.timer("set_location")
	h.device.SetLocationEnabled(*req.Enabled)
	timer.stop(nil)

	c.JSON(http.StatusOK, gin.H{"enabled": *req.Enabled})
}

type deviceTimer struct {
	t *monitoring.Timer
}

func (h *Handlers) timer(op string) deviceTimer {
	if h.metrics == nil {
		return deviceTimer{}
	}
	return deviceTimer{t: monitoring.NewTimer(h.metrics, op)}
}

func (d deviceTimer) stop(err error) {
	if d.t != nil {
		d.t.Stop(err)
	}
}

func writeDeviceError(c *gin.Context, err error) {
	if errors.Is(err, platform.ErrUnknownPackage) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
