package http

import "github.com/gin-gonic/gin"

// Register mounts every REST endpoint on r
func (h *Handlers) Register(r gin.IRoutes) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/stats", h.GetStats)

	// Permission group screens
	r.GET("/groups", h.ListGroups)
	r.GET("/groups/:group", h.GetGroup)
	r.PUT("/groups/:group/show-system", h.SetShowSystem)
	r.GET("/groups/:group/full-storage", h.GetFullStorage)
	r.GET("/groups/:group/loaded", h.PackagesLoaded)
	r.GET("/groups/:group/sensor-status", h.SensorStatus)
	r.GET("/groups/:group/apps/:package/route", h.Route)
	r.POST("/groups/:group/usage-summary", h.UsageSummary)
	r.POST("/groups/:group/preferences/sort", h.SortPreferences)
	r.POST("/groups/:group/screen-views", h.LogScreenViews)

	// Device state
	r.PUT("/groups/:group/apps/:package/grant", h.SetGrantState)
	r.PUT("/packages/:package/permissions/:permission", h.SetPermission)
	r.DELETE("/packages/:package", h.UninstallPackage)
	r.PUT("/sensors/:sensor/privacy", h.SetSensorPrivacy)
	r.GET("/location", h.GetLocation)
	r.PUT("/location", h.SetLocation)
}
