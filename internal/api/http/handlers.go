package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/permcontroller/internal/domain/permapps"
	"github.com/GriffinCanCode/permcontroller/internal/domain/pkginfo"
	"github.com/GriffinCanCode/permcontroller/internal/domain/sensor"
	"github.com/GriffinCanCode/permcontroller/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/permcontroller/internal/platform"
)

const version = "0.1.0"

// Handlers contains all HTTP handlers
type Handlers struct {
	manager *permapps.Manager
	feeds   *platform.Feeds
	device  *platform.Device
	metrics *monitoring.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewHandlers creates a new handler set
func NewHandlers(manager *permapps.Manager, feeds *platform.Feeds, metrics *monitoring.Metrics, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		manager: manager,
		feeds:   feeds,
		device:  feeds.Device(),
		metrics: metrics,
		logger:  logger.Named("api"),
		now:     time.Now,
	}
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "permission-controller",
		"version": version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "healthy",
		"sdk":             h.device.SDK(),
		"form_factor":     h.device.FormFactor(),
		"packages_loaded": h.feeds.AllPackages().IsInitialized(),
		"models":          h.manager.Groups(),
	})
}

// ListGroups lists the permission groups and the ones with an open model
func (h *Handlers) ListGroups(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"groups": permapps.KnownGroups(),
		"active": h.manager.Groups(),
	})
}

// GetGroup returns the categorized app list of a group. Until the inputs have
// been delivered the view is withheld and ready is false.
func (h *Handlers) GetGroup(c *gin.Context) {
	m, ok := h.model(c)
	if !ok {
		return
	}

	view, ready := m.Categorized().Get()
	if !ready {
		c.JSON(http.StatusAccepted, gin.H{
			"group": m.Group(),
			"ready": false,
		})
		return
	}

	showSystem, _ := m.ShowSystem().Get()
	hasSystem, _ := m.HasSystemApps().Get()
	c.JSON(http.StatusOK, gin.H{
		"group":           m.Group(),
		"ready":           true,
		"view":            view,
		"show_system":     showSystem,
		"has_system_apps": hasSystem,
	})
}

// SetShowSystem updates the "show system apps" toggle of a group
func (h *Handlers) SetShowSystem(c *gin.Context) {
	var req struct {
		Show *bool `json:"show" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	m, ok := h.model(c)
	if !ok {
		return
	}
	m.UpdateShowSystem(*req.Show)

	c.JSON(http.StatusOK, gin.H{
		"group":       m.Group(),
		"show_system": *req.Show,
	})
}

// GetFullStorage reports whether a package holds full storage access
func (h *Handlers) GetFullStorage(c *gin.Context) {
	pkg := c.Query("package")
	if pkg == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "package is required"})
		return
	}
	user, ok := userParam(c)
	if !ok {
		return
	}
	m, ok := h.model(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"package":          pkg,
		"user":             user,
		"has_full_storage": m.PackageHasFullStorage(pkg, user),
	})
}

// PackagesLoaded reports whether the package list has been delivered
func (h *Handlers) PackagesLoaded(c *gin.Context) {
	m, ok := h.model(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"loaded": m.ArePackagesLoaded()})
}

// SensorStatus returns the blocked status of the group's sensor or setting,
// read from the platform. The published status is only kept current while
// the stream has observers.
func (h *Handlers) SensorStatus(c *gin.Context) {
	m, ok := h.model(c)
	if !ok {
		return
	}

	w, err := m.SensorStatus()
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, permapps.ErrSensorStatusUnsupported) || errors.Is(err, sensor.ErrNoSensor) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	blocked := w.Current()
	c.JSON(http.StatusOK, gin.H{
		"group":        m.Group(),
		"blocked":      blocked,
		"known":        true,
		"display_card": blocked && sensor.ShouldDisplayCardIfBlocked(m.Group()),
	})
}

// Route resolves where a tap on an app row leads
func (h *Handlers) Route(c *gin.Context) {
	user, ok := userParam(c)
	if !ok {
		return
	}
	m, ok := h.model(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, m.NavigateToAppPermission(c.Param("package"), user))
}

// model resolves the :group parameter, writing a 404 for unknown groups
func (h *Handlers) model(c *gin.Context) (*permapps.Model, bool) {
	m, err := h.manager.Model(c.Param("group"))
	if err != nil {
		if errors.Is(err, permapps.ErrUnknownGroup) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return nil, false
	}
	if h.metrics != nil {
		h.metrics.SetModelsActive(len(h.manager.Groups()))
	}
	return m, true
}

// userParam parses the optional user query parameter; it defaults to the system user
func userParam(c *gin.Context) (pkginfo.UserHandle, bool) {
	raw := c.Query("user")
	if raw == "" {
		return pkginfo.UserSystem, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user: " + raw})
		return 0, false
	}
	return pkginfo.UserHandle(n), true
}

// userValue validates a user id taken from a request body
func userValue(c *gin.Context, n int) (pkginfo.UserHandle, bool) {
	if n < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user: " + strconv.Itoa(n)})
		return 0, false
	}
	return pkginfo.UserHandle(n), true
}
