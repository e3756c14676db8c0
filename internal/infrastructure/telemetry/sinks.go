package telemetry

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/permcontroller/internal/infrastructure/resilience"
)

// LogSink writes events to a zap logger
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a log sink
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger.Named("stats")}
}

// Write implements Sink
func (s *LogSink) Write(_ context.Context, e Event) error {
	s.logger.Info(e.Atom,
		zap.Int64("session_id", e.SessionID),
		zap.Int64("view_id", e.ViewID),
		zap.String("permission_group_name", e.GroupName),
		zap.Int("uid", e.UID),
		zap.String("package_name", e.PackageName),
		zap.Stringer("category", e.Category),
	)
	return nil
}

// Recorder counts screen views; implemented by monitoring.Metrics
type Recorder interface {
	RecordScreenView(group, category string)
}

// MetricsSink counts events by group and category
type MetricsSink struct {
	recorder Recorder
}

// NewMetricsSink creates a metrics sink
func NewMetricsSink(recorder Recorder) *MetricsSink {
	return &MetricsSink{recorder: recorder}
}

// Write implements Sink
func (s *MetricsSink) Write(_ context.Context, e Event) error {
	s.recorder.RecordScreenView(e.GroupName, e.Category.String())
	return nil
}

// HTTPConfig configures the upload sink
type HTTPConfig struct {
	Endpoint string
	RetryMax int
	MinWait  time.Duration
	MaxWait  time.Duration
	Timeout  time.Duration

	// BreakerThreshold consecutive failed uploads stop uploads for BreakerCooldown
	BreakerThreshold uint32
	BreakerCooldown  time.Duration
}

// DefaultHTTPConfig returns upload settings suited to a best-effort collector
func DefaultHTTPConfig(endpoint string) HTTPConfig {
	return HTTPConfig{
		Endpoint: endpoint,
		RetryMax: 3,
		MinWait:  500 * time.Millisecond,
		MaxWait:  5 * time.Second,
		Timeout:  10 * time.Second,

		BreakerThreshold: 5,
		BreakerCooldown:  30 * time.Second,
	}
}

// HTTPSink posts each event as JSON to a collector. Once the collector keeps
// failing, events are dropped with resilience.ErrOpen until the cooldown ends.
type HTTPSink struct {
	endpoint string
	client   *retryablehttp.Client
	breaker  *resilience.Breaker
}

// NewHTTPSink creates an upload sink
func NewHTTPSink(cfg HTTPConfig, logger *zap.Logger) *HTTPSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := retryablehttp.NewClient()
	client.RetryMax = cfg.RetryMax
	client.RetryWaitMin = cfg.MinWait
	client.RetryWaitMax = cfg.MaxWait
	client.HTTPClient.Timeout = cfg.Timeout
	client.Logger = nil

	breaker := resilience.New("stats-upload", resilience.Settings{
		Threshold: cfg.BreakerThreshold,
		Cooldown:  cfg.BreakerCooldown,
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("Upload breaker changed state",
				zap.String("breaker", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		},
	})

	return &HTTPSink{
		endpoint: cfg.Endpoint,
		client:   client,
		breaker:  breaker,
	}
}

// Breaker exposes the upload breaker
func (s *HTTPSink) Breaker() *resilience.Breaker {
	return s.breaker
}

// Write implements Sink
func (s *HTTPSink) Write(ctx context.Context, e Event) error {
	body, err := sonic.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	return s.breaker.Do(func() error {
		return s.post(ctx, body)
	})
}

func (s *HTTPSink) post(ctx context.Context, body []byte) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to upload event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("collector rejected event: %s", resp.Status)
	}
	return nil
}
