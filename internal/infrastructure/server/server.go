package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	httpapi "github.com/GriffinCanCode/permcontroller/internal/api/http"
	"github.com/GriffinCanCode/permcontroller/internal/api/middleware"
	"github.com/GriffinCanCode/permcontroller/internal/api/ws"
	"github.com/GriffinCanCode/permcontroller/internal/domain/permapps"
	"github.com/GriffinCanCode/permcontroller/internal/domain/usage"
	"github.com/GriffinCanCode/permcontroller/internal/infrastructure/config"
	"github.com/GriffinCanCode/permcontroller/internal/infrastructure/fixture"
	"github.com/GriffinCanCode/permcontroller/internal/infrastructure/logging"
	"github.com/GriffinCanCode/permcontroller/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/permcontroller/internal/infrastructure/telemetry"
	"github.com/GriffinCanCode/permcontroller/internal/platform"
)

// ErrTelemetryEndpoint is returned when telemetry upload is enabled without an endpoint
var ErrTelemetryEndpoint = errors.New("telemetry enabled without endpoint")

// Server wraps the HTTP server and dependencies
type Server struct {
	router  *gin.Engine
	device  *platform.Device
	feeds   *platform.Feeds
	manager *permapps.Manager
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
	store   *telemetry.Store
	http    *http.Server
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.NewDefault()
	}

	logger.Info("Initializing permission controller",
		zap.String("port", cfg.Server.Port),
		zap.String("fixture", cfg.Device.Fixture),
		zap.Int("sdk", cfg.Device.SDKLevel),
	)

	metrics := monitoring.NewMetrics()

	device, err := NewDevice(cfg.Device, logger.Logger)
	if err != nil {
		return nil, err
	}

	sink, store, err := newSink(cfg.Telemetry, metrics, logger.Logger)
	if err != nil {
		return nil, err
	}

	feeds := platform.NewFeeds(device, logger.Logger)
	feeds.Start()

	manager := permapps.NewManager(feeds.Env(sink, logger.Logger)).WithMetrics(metrics)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger.Logger))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		limit := middleware.DefaultRateLimitConfig()
		limit.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		limit.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(limit))
	}

	handlers := httpapi.NewHandlers(manager, feeds, metrics, logger.Logger)
	handlers.Register(router)

	wsHandler := ws.NewHandler(manager, metrics, logger.Logger)
	router.GET("/groups/:group/stream", wsHandler.Stream)

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	logger.Info("Server initialized successfully",
		zap.String("form_factor", string(device.FormFactor())),
		zap.Int("packages", len(device.Snapshots())),
	)

	return &Server{
		router:  router,
		device:  device,
		feeds:   feeds,
		manager: manager,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
		store:   store,
	}, nil
}

// NewDevice builds the simulated device from a fixture file, or an empty
// device of the configured SDK level and form factor
func NewDevice(cfg config.DeviceConfig, logger *zap.Logger) (*platform.Device, error) {
	if cfg.Fixture == "" {
		return platform.NewDevice(platform.Config{
			SDK:      cfg.SDKLevel,
			Features: usage.FeaturesFor(usage.FormFactor(cfg.FormFactor)),
		}, logger), nil
	}

	f, err := fixture.Load(cfg.Fixture)
	if err != nil {
		return nil, fmt.Errorf("failed to load device fixture: %w", err)
	}
	device, err := f.Device(cfg.SDKLevel, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build device from %s: %w", cfg.Fixture, err)
	}
	return device, nil
}

func newSink(cfg config.TelemetryConfig, metrics *monitoring.Metrics, logger *zap.Logger) (telemetry.Sink, *telemetry.Store, error) {
	sinks := telemetry.Multi{
		telemetry.NewLogSink(logger),
		telemetry.NewMetricsSink(metrics),
	}
	if cfg.Enabled && cfg.Endpoint == "" {
		return nil, nil, ErrTelemetryEndpoint
	}

	var store *telemetry.Store
	if cfg.Store != "" {
		var err error
		if store, err = telemetry.OpenStore(cfg.Store); err != nil {
			return nil, nil, err
		}
		logger.Info("Telemetry store enabled", zap.String("path", cfg.Store))
		sinks = append(sinks, store)
	}

	if cfg.Enabled {
		upload := telemetry.DefaultHTTPConfig(cfg.Endpoint)
		upload.RetryMax = cfg.RetryMax
		upload.Timeout = cfg.Timeout
		upload.BreakerThreshold = cfg.BreakerThreshold
		upload.BreakerCooldown = cfg.BreakerCooldown
		logger.Info("Telemetry upload enabled", zap.String("endpoint", cfg.Endpoint))
		sinks = append(sinks, telemetry.NewHTTPSink(upload, logger))
	}
	return sinks, store, nil
}

// Router returns the configured gin engine
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run starts the HTTP server and blocks until it stops
func (s *Server) Run() error {
	addr := net.JoinHostPort(s.config.Server.Host, s.config.Server.Port)
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close gracefully shuts down the server
func (s *Server) Close(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	var err error
	if s.http != nil {
		if shutdownErr := s.http.Shutdown(ctx); shutdownErr != nil {
			s.logger.Error("Failed to shut down HTTP server", zap.Error(shutdownErr))
			err = fmt.Errorf("failed to shut down HTTP server: %w", shutdownErr)
		}
	}

	s.manager.Close()
	s.feeds.Stop()
	s.metrics.SetModelsActive(0)
	if closeErr := s.store.Close(); closeErr != nil {
		s.logger.Error("Failed to close telemetry store", zap.Error(closeErr))
	}

	// Sync logger before exit
	_ = s.logger.Sync()

	return err
}
