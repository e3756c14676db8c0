package ws

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/permcontroller/internal/domain/permapps"
	"github.com/GriffinCanCode/permcontroller/internal/domain/sensor"
	"github.com/GriffinCanCode/permcontroller/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/permcontroller/internal/shared/id"
)

const writeWait = 10 * time.Second

// Frame types
const (
	TypeSubscribed   = "subscribed"
	TypeView         = "view"
	TypeSensorStatus = "sensor_status"
	TypePong         = "pong"
	TypeError        = "error"

	TypeShowSystem = "show_system"
	TypePing       = "ping"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is enforced by the HTTP middleware
	},
}

// Frame is a server to client message
type Frame struct {
	Type         string                    `json:"type"`
	Group        string                    `json:"group,omitempty"`
	SubscriberID string                    `json:"subscriber_id,omitempty"`
	View         *permapps.CategorizedView `json:"view,omitempty"`
	ShowSystem   *bool                     `json:"show_system,omitempty"`
	Blocked      *bool                     `json:"blocked,omitempty"`
	Message      string                    `json:"message,omitempty"`
	Timestamp    int64                     `json:"timestamp"`
}

// Request is a client to server message
type Request struct {
	Type string `json:"type"`
	Show *bool  `json:"show,omitempty"`
}

// Handler manages WebSocket connections
type Handler struct {
	manager *permapps.Manager
	metrics *monitoring.Metrics
	logger  *zap.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(manager *permapps.Manager, metrics *monitoring.Metrics, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		manager: manager,
		metrics: metrics,
		logger:  logger.Named("ws"),
	}
}

// Stream upgrades the request and streams the group's screen state until the
// client disconnects
func (h *Handler) Stream(c *gin.Context) {
	m, err := h.manager.Model(c.Param("group"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, permapps.ErrUnknownGroup) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	subID := id.NewSubscriberID()
	logger := h.logger.With(zap.String("subscriber", subID.String()), zap.String("group", m.Group()))
	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}
	logger.Info("Stream subscribed")

	out := newOutbox()
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writeLoop(conn, out, logger)
	}()

	out.put(Frame{Type: TypeSubscribed, Group: m.Group(), SubscriberID: subID.String()})

	cancels := h.subscribe(m, out, logger)
	defer func() {
		for _, cancel := range cancels {
			cancel()
		}
		out.close()
		<-done
		logger.Info("Stream closed")
	}()

	h.readLoop(conn, m, out, logger)
}

// subscribe attaches the outbox to the model's observable state. Observers only
// enqueue frames; they never block a recompute.
func (h *Handler) subscribe(m *permapps.Model, out *outbox, logger *zap.Logger) []func() {
	cancels := []func(){
		m.Categorized().Observe(func(view permapps.CategorizedView) {
			show, _ := m.ShowSystem().Get()
			out.put(Frame{Type: TypeView, Group: m.Group(), View: &view, ShowSystem: &show})
		}),
	}

	if !sensor.ShouldDisplayCardIfBlocked(m.Group()) {
		return cancels
	}
	w, err := m.SensorStatus()
	if err != nil {
		logger.Debug("Sensor status unavailable", zap.Error(err))
		return cancels
	}
	return append(cancels, w.Observe(func(blocked bool) {
		out.put(Frame{Type: TypeSensorStatus, Group: m.Group(), Blocked: &blocked})
	}))
}

func (h *Handler) readLoop(conn *websocket.Conn, m *permapps.Model, out *outbox, logger *zap.Logger) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}

		var req Request
		if err := sonic.Unmarshal(data, &req); err != nil {
			out.put(Frame{Type: TypeError, Message: "malformed message"})
			continue
		}
		h.record("in", req.Type)

		switch req.Type {
		case TypeShowSystem:
			if req.Show == nil {
				out.put(Frame{Type: TypeError, Message: "show is required"})
				continue
			}
			m.UpdateShowSystem(*req.Show)
		case TypePing:
			out.put(Frame{Type: TypePong})
		default:
			out.put(Frame{Type: TypeError, Message: "unknown message type"})
		}
	}
}

func (h *Handler) writeLoop(conn *websocket.Conn, out *outbox, logger *zap.Logger) {
	for {
		frames, ok := out.take()
		if !ok {
			return
		}
		for _, f := range frames {
			f.Timestamp = time.Now().Unix()
			data, err := sonic.Marshal(f)
			if err != nil {
				logger.Error("Failed to encode frame", zap.String("type", f.Type), zap.Error(err))
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.Debug("WebSocket write failed", zap.Error(err))
				return
			}
			h.record("out", f.Type)
		}
	}
}

func (h *Handler) record(direction, msgType string) {
	if h.metrics != nil {
		h.metrics.RecordWSMessage(direction, msgType)
	}
}

// outbox holds the frames waiting for the writer. View and sensor frames
// replace an undelivered frame of the same type; other frames queue.
type outbox struct {
	mu     sync.Mutex
	queue  []Frame
	latest map[string]int // frame type -> index in queue
	notify chan struct{}
	closed bool
}

func newOutbox() *outbox {
	return &outbox{
		latest: make(map[string]int),
		notify: make(chan struct{}, 1),
	}
}

func (o *outbox) put(f Frame) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	if i, ok := o.latest[f.Type]; ok {
		o.queue[i] = f
	} else {
		if f.Type == TypeView || f.Type == TypeSensorStatus {
			o.latest[f.Type] = len(o.queue)
		}
		o.queue = append(o.queue, f)
	}
	o.mu.Unlock()

	select {
	case o.notify <- struct{}{}:
	default:
	}
}

// take blocks until frames are queued; it reports false once the outbox is closed
func (o *outbox) take() ([]Frame, bool) {
	for {
		o.mu.Lock()
		if o.closed {
			o.mu.Unlock()
			return nil, false
		}
		if len(o.queue) > 0 {
			frames := o.queue
			o.queue = nil
			o.latest = make(map[string]int)
			o.mu.Unlock()
			return frames, true
		}
		o.mu.Unlock()
		<-o.notify
	}
}

func (o *outbox) close() {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()

	select {
	case o.notify <- struct{}{}:
	default:
	}
}
