package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GriffinCanCode/permcontroller/internal/domain/permapps"
	"github.com/GriffinCanCode/permcontroller/internal/domain/permgroup"
	"github.com/GriffinCanCode/permcontroller/internal/domain/pkginfo"
	"github.com/GriffinCanCode/permcontroller/internal/domain/sensor"
	"github.com/GriffinCanCode/permcontroller/internal/infrastructure/fixture"
	"github.com/GriffinCanCode/permcontroller/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/permcontroller/internal/infrastructure/telemetry"
	"github.com/GriffinCanCode/permcontroller/internal/platform"
)

const testDevice = `
sdk: 31
location_providers:
  - com.example.gnss
location_controller_extra_package: com.example.locationextra
location_enabled: false
camera_blocked: true
users:
  - id: 0
    packages:
      - name: com.example.camera
        app_id: 10001
        target_sdk: 34
        permissions:
          - name: android.permission.CAMERA
            granted: true
      - name: com.example.maps
        app_id: 10002
        target_sdk: 34
        permissions:
          - name: android.permission.ACCESS_FINE_LOCATION
            granted: true
          - name: android.permission.ACCESS_BACKGROUND_LOCATION
      - name: com.example.files
        app_id: 10003
        target_sdk: 30
        permissions:
          - name: android.permission.READ_EXTERNAL_STORAGE
          - name: android.permission.MANAGE_EXTERNAL_STORAGE
            granted: true
      - name: com.android.systemui
        app_id: 10004
        target_sdk: 34
        system: true
        permissions:
          - name: android.permission.CAMERA
      - name: com.example.chat
        app_id: 10005
        target_sdk: 34
        ask_groups:
          - android.permission-group.CAMERA
        permissions:
          - name: android.permission.CAMERA
          - name: android.permission.RECORD_AUDIO
            granted: true
  - id: 10
    packages:
      - name: com.example.camera
        app_id: 10001
        target_sdk: 34
        permissions:
          - name: android.permission.CAMERA
`

var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

type testServer struct {
	router  *gin.Engine
	device  *platform.Device
	metrics *monitoring.Metrics
	stats   *observer.ObservedLogs
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f, err := fixture.Decode([]byte(testDevice), fixture.FormatYAML)
	require.NoError(t, err)
	device, err := f.Device(34, nil)
	require.NoError(t, err)

	feeds := platform.NewFeeds(device, nil)
	feeds.Start()
	t.Cleanup(feeds.Stop)

	core, logs := observer.New(zap.InfoLevel)
	metrics := monitoring.NewMetrics()

	env := feeds.Env(telemetry.Multi{
		telemetry.NewLogSink(zap.New(core)),
		telemetry.NewMetricsSink(metrics),
	}, nil)
	env.Now = func() time.Time { return fixedNow }

	manager := permapps.NewManager(env).WithMetrics(metrics)
	t.Cleanup(manager.Close)

	h := NewHandlers(manager, feeds, metrics, nil)
	h.now = func() time.Time { return fixedNow }

	router := gin.New()
	h.Register(router)

	return &testServer{router: router, device: device, metrics: metrics, stats: logs}
}

func (s *testServer) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	reader := bytes.NewReader(nil)
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w, resp
}

func groupPath(group string, suffix string) string {
	return "/groups/" + url.PathEscape(group) + suffix
}

type viewResponse struct {
	Group string                   `json:"group"`
	Ready bool                     `json:"ready"`
	View  permapps.CategorizedView `json:"view"`
	Show  bool                     `json:"show_system"`
	Has   bool                     `json:"has_system_apps"`
}

func (s *testServer) view(t *testing.T, group string) viewResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, groupPath(group, ""), nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp viewResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func key(pkg string, user int) permgroup.PackageUser {
	return permgroup.PackageUser{PackageName: pkg, User: pkginfo.UserHandle(user)}
}

func TestRootAndHealth(t *testing.T) {
	s := newTestServer(t)

	w, resp := s.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "online", resp["status"])

	w, resp = s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, float64(31), resp["sdk"])
	assert.Equal(t, "handheld", resp["form_factor"])
	assert.Equal(t, true, resp["packages_loaded"])
}

func TestListGroups(t *testing.T) {
	s := newTestServer(t)
	s.view(t, permgroup.Camera)

	w, resp := s.do(t, http.MethodGet, "/groups", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, resp["groups"], len(permgroup.Known))
	assert.Equal(t, []any{permgroup.Camera}, resp["active"])
}

func TestGetGroup(t *testing.T) {
	s := newTestServer(t)

	resp := s.view(t, permgroup.Camera)
	assert.True(t, resp.Ready)
	assert.False(t, resp.Show)
	assert.True(t, resp.Has)
	assert.Equal(t, []permgroup.PackageUser{key("com.example.camera", 0)}, resp.View.Bucket(permgroup.CategoryAllowed))
	assert.Equal(t, []permgroup.PackageUser{key("com.example.chat", 0)}, resp.View.Bucket(permgroup.CategoryAsk))
	assert.Equal(t, []permgroup.PackageUser{key("com.example.camera", 10)}, resp.View.Bucket(permgroup.CategoryDenied))
	assert.Empty(t, resp.View.Bucket(permgroup.CategoryAllowedForeground))
	assert.False(t, resp.View.ShowAlwaysAllowed)
}

func TestGetGroupUnknown(t *testing.T) {
	s := newTestServer(t)

	w, resp := s.do(t, http.MethodGet, "/groups/android.permission-group.NOPE", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, resp["error"], "unknown permission group")
}

func TestGetGroupLocationShowsAlwaysAllowed(t *testing.T) {
	s := newTestServer(t)

	resp := s.view(t, permgroup.Location)
	assert.Equal(t, []permgroup.PackageUser{key("com.example.maps", 0)}, resp.View.Bucket(permgroup.CategoryAllowedForeground))
	assert.True(t, resp.View.ShowAlwaysAllowed)
	assert.False(t, resp.Has)
}

func TestSetShowSystem(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodPut, groupPath(permgroup.Camera, "/show-system"), map[string]any{"show": true})
	require.Equal(t, http.StatusOK, w.Code)

	resp := s.view(t, permgroup.Camera)
	assert.True(t, resp.Show)
	assert.Equal(t, []permgroup.PackageUser{
		key("com.android.systemui", 0),
		key("com.example.camera", 10),
	}, resp.View.Bucket(permgroup.CategoryDenied))

	w, resp2 := s.do(t, http.MethodPut, groupPath(permgroup.Camera, "/show-system"), map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, resp2["error"], "invalid request")
}

func TestFullStorage(t *testing.T) {
	s := newTestServer(t)

	resp := s.view(t, permgroup.Storage)
	assert.Equal(t, []permgroup.PackageUser{key("com.example.files", 0)}, resp.View.Bucket(permgroup.CategoryAllowed))

	tests := []struct {
		name     string
		query    string
		wantCode int
		want     any
	}{
		{"holder", "?package=com.example.files", http.StatusOK, true},
		{"not holder", "?package=com.example.camera", http.StatusOK, false},
		{"other user", "?package=com.example.files&user=10", http.StatusOK, false},
		{"missing package", "", http.StatusBadRequest, nil},
		{"bad user", "?package=com.example.files&user=x", http.StatusBadRequest, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := s.do(t, http.MethodGet, groupPath(permgroup.Storage, "/full-storage"+tt.query), nil)
			assert.Equal(t, tt.wantCode, w.Code)
			if tt.want != nil {
				assert.Equal(t, tt.want, body["has_full_storage"])
			}
		})
	}
}

func TestPackagesLoaded(t *testing.T) {
	s := newTestServer(t)

	w, resp := s.do(t, http.MethodGet, groupPath(permgroup.Camera, "/loaded"), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["loaded"])
}

func TestSensorStatus(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		group       string
		wantCode    int
		wantBlocked bool
		wantKnown   bool
	}{
		{permgroup.Camera, http.StatusOK, true, true},
		{permgroup.Location, http.StatusOK, true, true},
		{permgroup.Microphone, http.StatusOK, false, true},
		{permgroup.Contacts, http.StatusBadRequest, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.group, func(t *testing.T) {
			w, resp := s.do(t, http.MethodGet, groupPath(tt.group, "/sensor-status"), nil)
			require.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode != http.StatusOK {
				assert.NotEmpty(t, resp["error"])
				return
			}
			assert.Equal(t, tt.wantBlocked, resp["blocked"])
			assert.Equal(t, tt.wantKnown, resp["known"])
			assert.Equal(t, tt.wantBlocked, resp["display_card"])
		})
	}
}

func TestSensorStatusFollowsToggle(t *testing.T) {
	s := newTestServer(t)
	path := groupPath(permgroup.Camera, "/sensor-status")

	_, resp := s.do(t, http.MethodGet, path, nil)
	require.Equal(t, true, resp["blocked"])

	w, _ := s.do(t, http.MethodPut, "/sensors/camera/privacy", map[string]any{"enabled": false})
	require.Equal(t, http.StatusOK, w.Code)

	w, resp = s.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, resp["blocked"])
	assert.Equal(t, true, resp["known"])
	assert.Equal(t, false, resp["display_card"])

	w, _ = s.do(t, http.MethodPut, "/sensors/camera/privacy", map[string]any{"enabled": true})
	require.Equal(t, http.StatusOK, w.Code)
	_, resp = s.do(t, http.MethodGet, path, nil)
	assert.Equal(t, true, resp["blocked"])
}

func TestRoute(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		group string
		pkg   string
		want  permapps.RouteKind
	}{
		{permgroup.Location, "com.example.gnss", permapps.RouteLocationProviderIntercept},
		{permgroup.Location, "com.example.locationextra", permapps.RouteLocationControllerExtra},
		{permgroup.Location, "com.example.maps", permapps.RouteAppPermission},
		{permgroup.Camera, "com.example.gnss", permapps.RouteAppPermission},
	}
	for _, tt := range tests {
		t.Run(tt.pkg, func(t *testing.T) {
			w, resp := s.do(t, http.MethodGet, groupPath(tt.group, "/apps/"+tt.pkg+"/route?user=10"), nil)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, string(tt.want), resp["kind"])
			assert.Equal(t, tt.pkg, resp["package_name"])
			assert.Equal(t, float64(10), resp["user"])
		})
	}
}

func TestSetGrantState(t *testing.T) {
	s := newTestServer(t)
	s.view(t, permgroup.Camera)

	w, resp := s.do(t, http.MethodPut, groupPath(permgroup.Camera, "/apps/com.example.chat/grant"),
		map[string]any{"state": "allowed"})
	require.Equal(t, http.StatusOK, w.Code, resp)
	assert.Equal(t, "allowed", resp["state"])

	view := s.view(t, permgroup.Camera)
	assert.Equal(t, []permgroup.PackageUser{
		key("com.example.camera", 0),
		key("com.example.chat", 0),
	}, view.View.Bucket(permgroup.CategoryAllowed))
	assert.Empty(t, view.View.Bucket(permgroup.CategoryAsk))

	assert.Equal(t, float64(1), testutil.ToFloat64(s.metrics.GrantChanges.WithLabelValues(permgroup.Camera, "allowed")))
}

func TestSetGrantStateErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name     string
		path     string
		body     any
		wantCode int
	}{
		{"unknown package", groupPath(permgroup.Camera, "/apps/com.example.nope/grant"), map[string]any{"state": "denied"}, http.StatusNotFound},
		{"unknown group", "/groups/nope/apps/com.example.camera/grant", map[string]any{"state": "denied"}, http.StatusNotFound},
		{"bad state", groupPath(permgroup.Camera, "/apps/com.example.camera/grant"), map[string]any{"state": "sometimes"}, http.StatusBadRequest},
		{"missing state", groupPath(permgroup.Camera, "/apps/com.example.camera/grant"), map[string]any{}, http.StatusBadRequest},
		{"negative user", groupPath(permgroup.Camera, "/apps/com.example.camera/grant"), map[string]any{"state": "denied", "user": -1}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := s.do(t, http.MethodPut, tt.path, tt.body)
			assert.Equal(t, tt.wantCode, w.Code)
			assert.NotEmpty(t, resp["error"])
		})
	}
}

func TestSetPermissionAndUninstall(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodPut, "/packages/com.example.camera/permissions/android.permission.CAMERA",
		map[string]any{"user": 10, "granted": true})
	require.Equal(t, http.StatusOK, w.Code)

	view := s.view(t, permgroup.Camera)
	assert.Equal(t, []permgroup.PackageUser{
		key("com.example.camera", 0),
		key("com.example.camera", 10),
	}, view.View.Bucket(permgroup.CategoryAllowed))

	w, _ = s.do(t, http.MethodDelete, "/packages/com.example.camera?user=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	view = s.view(t, permgroup.Camera)
	assert.Equal(t, []permgroup.PackageUser{key("com.example.camera", 0)}, view.View.Bucket(permgroup.CategoryAllowed))

	w, _ = s.do(t, http.MethodDelete, "/packages/com.example.camera?user=10", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSensorPrivacyAndLocation(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodPut, "/sensors/camera/privacy", map[string]any{"enabled": false})
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, s.device.IsSensorPrivacyEnabled(sensor.Camera))

	w, _ = s.do(t, http.MethodPut, "/sensors/microphone/privacy", map[string]any{"enabled": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, s.device.IsSensorPrivacyEnabled(sensor.Microphone))

	w, _ = s.do(t, http.MethodPut, "/sensors/gyroscope/privacy", map[string]any{"enabled": true})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, resp := s.do(t, http.MethodGet, "/location", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, resp["enabled"])

	w, _ = s.do(t, http.MethodPut, "/location", map[string]any{"enabled": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, s.device.IsLocationEnabled())
}

func TestLogScreenViews(t *testing.T) {
	s := newTestServer(t)
	s.view(t, permgroup.Camera)

	w, resp := s.do(t, http.MethodPost, groupPath(permgroup.Camera, "/screen-views"), map[string]any{"session_id": 42})
	require.Equal(t, http.StatusOK, w.Code, resp)
	assert.Equal(t, float64(42), resp["session_id"])
	assert.Equal(t, float64(3), resp["written"])
	assert.NotZero(t, resp["view_id"])

	events := s.stats.FilterMessage(telemetry.AtomPermissionAppsViewed).All()
	require.Len(t, events, 3)
	for _, e := range events {
		assert.Equal(t, int64(42), e.ContextMap()["session_id"])
		assert.Equal(t, permgroup.Camera, e.ContextMap()["permission_group_name"])
	}

	w, resp = s.do(t, http.MethodPost, groupPath(permgroup.Camera, "/screen-views"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), resp["written"])
	assert.NotZero(t, resp["session_id"])
	assert.Len(t, s.stats.FilterMessage(telemetry.AtomPermissionAppsViewed).All(), 3)
}

func TestUsageSummary(t *testing.T) {
	s := newTestServer(t)

	body := map[string]any{
		"usages": []map[string]any{
			{
				"package_name": "com.example.camera",
				"groups": []map[string]any{
					{"group": permgroup.Camera, "user": 0, "last_access_time": fixedNow.Add(-time.Hour)},
					{"group": permgroup.Microphone, "user": 0, "last_access_time": fixedNow.Add(-time.Hour)},
				},
			},
			{
				"package_name": "com.example.chat",
				"groups": []map[string]any{
					{"group": permgroup.Camera, "user": 0, "last_access_time": fixedNow.Add(-3 * 24 * time.Hour)},
				},
			},
		},
	}

	w, resp := s.do(t, http.MethodPost, groupPath(permgroup.Camera, "/usage-summary"), body)
	require.Equal(t, http.StatusOK, w.Code, resp)

	summaries, ok := resp["summaries"].(map[string]any)
	require.True(t, ok)
	require.Len(t, summaries, 2)

	camera := summaries["0com.example.camera"].(map[string]any)
	assert.Equal(t, "Last access: 11:00", camera["summary"])
	chat := summaries["0com.example.chat"].(map[string]any)
	assert.Equal(t, "Last access: Mar 7 at 12:00", chat["summary"])

	begin, err := time.Parse(time.RFC3339, resp["filter_begin"].(string))
	require.NoError(t, err)
	assert.True(t, begin.Equal(fixedNow.Add(-7*24*time.Hour)))
}

func TestSortPreferences(t *testing.T) {
	s := newTestServer(t)

	body := map[string]any{
		"locale": "en-US",
		"preferences": []map[string]any{
			{"key": "k3", "title": "banana"},
			{"key": "k2", "title": "Apple"},
			{"key": "k1", "title": "apple"},
		},
	}
	w, resp := s.do(t, http.MethodPost, groupPath(permgroup.Camera, "/preferences/sort"), body)
	require.Equal(t, http.StatusOK, w.Code, resp)

	var keys []string
	for _, p := range resp["preferences"].([]any) {
		keys = append(keys, p.(map[string]any)["key"].(string))
	}
	assert.Equal(t, []string{"k1", "k2", "k3"}, keys)

	w, _ = s.do(t, http.MethodPost, groupPath(permgroup.Camera, "/preferences/sort"), map[string]any{"locale": "!!"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetStats(t *testing.T) {
	s := newTestServer(t)
	s.view(t, permgroup.Camera)

	w, resp := s.do(t, http.MethodGet, "/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	metrics := resp["metrics"].(map[string]any)
	assert.Equal(t, float64(1), metrics["active_models"])
	assert.GreaterOrEqual(t, metrics["total_recomputes"].(float64), float64(1))
}
