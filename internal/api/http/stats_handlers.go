package http

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/GriffinCanCode/permcontroller/internal/domain/permapps"
	"github.com/GriffinCanCode/permcontroller/internal/domain/usage"
	"github.com/GriffinCanCode/permcontroller/internal/shared/id"
)

// LogScreenViews writes the screen-view telemetry of a group screen. Only the
// first call per screen writes events; later calls report zero.
func (h *Handlers) LogScreenViews(c *gin.Context) {
	var req struct {
		SessionID int64 `json:"session_id"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
			return
		}
	}

	m, ok := h.model(c)
	if !ok {
		return
	}
	if !m.Categorized().IsInitialized() {
		c.JSON(http.StatusAccepted, gin.H{
			"group": m.Group(),
			"ready": false,
		})
		return
	}

	sessionID := req.SessionID
	if sessionID == 0 {
		sessionID = id.NewSessionID()
	}
	viewID := id.NewViewID()

	written, err := m.LogScreenViewed(c.Request.Context(), sessionID, viewID)
	if err != nil {
		h.logger.Error("Failed to log screen view",
			zap.String("group", m.Group()),
			zap.Int64("session_id", sessionID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"group":      m.Group(),
		"ready":      true,
		"session_id": sessionID,
		"view_id":    viewID,
		"written":    written,
	})
}

type accessSummary struct {
	LastAccess time.Time `json:"last_access"`
	Summary    string    `json:"summary"`
}

// UsageSummary turns permission usage records into the per-row summary lines of a group
func (h *Handlers) UsageSummary(c *gin.Context) {
	var req struct {
		Usages []usage.AppPermissionUsage `json:"usages"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	m, ok := h.model(c)
	if !ok {
		return
	}

	now := h.now()
	summaries := make(map[string]accessSummary)
	for key, last := range m.ExtractGroupUsageLastAccessTime(req.Usages) {
		ts := usage.TimestampFor(m.Group(), last, now)
		summaries[key] = accessSummary{
			LastAccess: last,
			Summary:    m.PreferenceSummary(usage.DefaultStrings, ts),
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"group":        m.Group(),
		"filter_begin": m.FilterTimeBegin(),
		"summaries":    summaries,
	})
}

// SortPreferences orders app rows the way the group screen lists them
func (h *Handlers) SortPreferences(c *gin.Context) {
	var req struct {
		Locale      string                `json:"locale"`
		Preferences []permapps.Preference `json:"preferences"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	tag := language.English
	if req.Locale != "" {
		parsed, err := language.Parse(req.Locale)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid locale: " + err.Error()})
			return
		}
		tag = parsed
	}

	m, ok := h.model(c)
	if !ok {
		return
	}

	collator := permapps.NewCollator(tag)
	prefs := slices.Clone(req.Preferences)
	slices.SortStableFunc(prefs, func(a, b permapps.Preference) int {
		return m.ComparePreference(collator, a, b)
	})

	c.JSON(http.StatusOK, gin.H{
		"group":       m.Group(),
		"locale":      tag.String(),
		"preferences": prefs,
	})
}

// GetStats returns the JSON metrics snapshot
func (h *Handlers) GetStats(c *gin.Context) {
	if h.metrics == nil {
		c.JSON(http.StatusOK, gin.H{"models": h.manager.Groups()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"timestamp": h.now(),
		"metrics":   h.metrics.Snapshot(),
		"models":    h.manager.Groups(),
	})
}
