package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/agrovoz/internal/adapter/audio"
	"github.com/seu-repo/agrovoz/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/agrovoz/internal/domain"
	"github.com/seu-repo/agrovoz/internal/observability/telemetry"
	"github.com/seu-repo/agrovoz/internal/ports"
	"github.com/seu-repo/agrovoz/internal/service/voice"
)

// Control messages a voice client sends as text frames. Audio arrives as
// binary frames of s16le PCM at the configured sample rate.
const (
	ControlStart        = "start"
	ControlStop         = "stop"
	ControlCancel       = "cancel"
	ControlReset        = "reset"
	ControlSnapshot     = "snapshot"
	ControlCaptureError = "capture_error"
)

type ControlMessage struct {
	Type string `json:"type"`
	// Reason accompanies capture_error: permission_denied or device_unavailable.
	Reason string `json:"reason,omitempty"`
}

// ServerMessage is what the server pushes to a voice client.
type ServerMessage struct {
	Type     string                  `json:"type"` // state | snapshot | error
	State    domain.VoiceState       `json:"state,omitempty"`
	Reason   domain.VoiceStateReason `json:"reason,omitempty"`
	Snapshot *domain.VoiceSnapshot   `json:"snapshot,omitempty"`
	Error    string                  `json:"error,omitempty"`
}

// VoiceStreamHandler runs one voice session per websocket connection, with
// the client acting as the microphone.
type VoiceStreamHandler struct {
	processor ports.VoiceProcessor
	executor  ports.OperationExecutor
	cfg       voice.SessionConfig
	logger    *zap.Logger
}

func NewVoiceStreamHandler(processor ports.VoiceProcessor, executor ports.OperationExecutor, cfg voice.SessionConfig, logger *zap.Logger) *VoiceStreamHandler {
	return &VoiceStreamHandler{
		processor: processor,
		executor:  executor,
		cfg:       cfg,
		logger:    logger,
	}
}

// Handle is the fiber websocket entry point. AuthRequired must run before
// the upgrade so the identity locals are set.
func (h *VoiceStreamHandler) Handle(c *websocket.Conn) {
	userID, _ := c.Locals(middleware.LocalUserID).(string)
	farmID, _ := c.Locals(middleware.LocalFarmID).(string)
	h.Serve(c, farmID, userID)
}

// Serve drives a session from conn until the client disconnects. Processing
// that already started finishes even if the client goes away.
func (h *VoiceStreamHandler) Serve(conn Conn, farmID, userID string) {
	telemetry.WebsocketConnections.WithLabelValues("voice").Inc()
	defer telemetry.WebsocketConnections.WithLabelValues("voice").Dec()

	out := &streamWriter{conn: conn}
	capture := audio.NewStreamCapture()

	cfg := h.cfg
	cfg.FarmID = farmID
	cfg.UserID = userID
	session := voice.NewSession(capture, h.processor, h.executor, out, cfg, h.logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		session.Close()
		_ = capture.Close()
		_ = conn.Close()
	}()

	snapshot := session.Snapshot()
	out.send(ServerMessage{Type: ControlSnapshot, State: snapshot.State, Snapshot: &snapshot})

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		switch messageType {
		case websocket.BinaryMessage:
			_, _ = capture.Write(data)
		case websocket.TextMessage:
			var msg ControlMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				out.fail(errors.New("invalid control message"))
				continue
			}
			if err := h.control(ctx, session, capture, out, msg); err != nil {
				out.fail(err)
			}
		}
	}
}

func (h *VoiceStreamHandler) control(ctx context.Context, session *voice.Session, capture *audio.StreamCapture, out *streamWriter, msg ControlMessage) error {
	switch msg.Type {
	case ControlStart:
		return session.Start(ctx)
	case ControlStop:
		session.Stop()
	case ControlCancel:
		session.Cancel()
	case ControlReset:
		return session.Reset()
	case ControlSnapshot:
		snapshot := session.Snapshot()
		out.send(ServerMessage{Type: ControlSnapshot, State: snapshot.State, Snapshot: &snapshot})
	case ControlCaptureError:
		capture.Fail(captureError(msg.Reason))
	default:
		return fmt.Errorf("unknown control message %q", msg.Type)
	}
	return nil
}

func captureError(reason string) error {
	if reason == "permission_denied" {
		return domain.ErrPermissionDenied
	}
	return domain.ErrDeviceUnavailable
}

// streamWriter serializes writes from the read loop and the session's
// event goroutines.
type streamWriter struct {
	mu     sync.Mutex
	conn   Conn
	closed bool
}

func (w *streamWriter) VoiceStateChanged(state domain.VoiceState, reason domain.VoiceStateReason, snapshot domain.VoiceSnapshot) {
	w.send(ServerMessage{Type: "state", State: state, Reason: reason, Snapshot: &snapshot})
}

func (w *streamWriter) fail(err error) {
	w.send(ServerMessage{Type: "error", Error: err.Error()})
}

func (w *streamWriter) send(msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if err := w.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		w.closed = true
	}
}

// RequireUpgrade rejects plain HTTP requests to websocket routes.
func RequireUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}
