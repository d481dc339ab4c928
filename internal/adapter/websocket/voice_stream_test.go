package websocket

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/agrovoz/internal/domain"
	"github.com/seu-repo/agrovoz/internal/mocks"
	"github.com/seu-repo/agrovoz/internal/service/voice"
)

func serveVoice(t *testing.T, processor *mocks.MockVoiceProcessor, executor *mocks.MockOperationExecutor) *fakeConn {
	t.Helper()

	h := NewVoiceStreamHandler(processor, executor, voice.SessionConfig{
		MaxRecordingTime: time.Minute,
		AutoExecute:      true,
	}, zap.NewNop())

	conn := newFakeConn()
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Serve(conn, "farm-1", "user-1")
	}()
	t.Cleanup(func() {
		conn.Close()
		<-done
	})

	if msg := nextMessage(t, conn); msg.Type != ControlSnapshot || msg.State != domain.VoiceStateIdle {
		t.Fatalf("expected idle snapshot on connect, got %+v", msg)
	}
	return conn
}

func nextMessage(t *testing.T, conn *fakeConn) ServerMessage {
	t.Helper()
	f := conn.next(t)
	var msg ServerMessage
	if err := json.Unmarshal(f.data, &msg); err != nil {
		t.Fatalf("unmarshal server message: %v", err)
	}
	return msg
}

// waitState skips messages until the session reports state.
func waitState(t *testing.T, conn *fakeConn, state domain.VoiceState) ServerMessage {
	t.Helper()
	for {
		msg := nextMessage(t, conn)
		if msg.Type == "state" && msg.State == state {
			return msg
		}
	}
}

func TestVoiceStream_RecordProcessExecute(t *testing.T) {
	// Arrange
	processor := &mocks.MockVoiceProcessor{
		ProcessFunc: func(context.Context, domain.VoiceProcessingRequest) (*domain.VoiceProcessingResponse, error) {
			return &domain.VoiceProcessingResponse{
				Success:       true,
				Transcription: "registrar a vaca mimosa",
				Data: &domain.VoiceOperations{
					Animals: []domain.ProposedOperation{{Data: map[string]interface{}{"name": "Mimosa"}}},
				},
			}, nil
		},
	}
	executor := &mocks.MockOperationExecutor{
		ExecuteFunc: func(context.Context, *domain.VoiceOperations, string, string) []domain.ExecutionResult {
			return []domain.ExecutionResult{{Type: domain.EntityAnimal, Success: true, ID: "a-1", Operation: domain.OperationCreate}}
		},
	}
	conn := serveVoice(t, processor, executor)

	// Act
	conn.sendText(t, ControlMessage{Type: ControlStart})
	waitState(t, conn, domain.VoiceStateRecording)

	conn.send(t, frame{messageType: websocket.BinaryMessage, data: []byte{1, 2}})
	conn.send(t, frame{messageType: websocket.BinaryMessage, data: []byte{3, 4}})
	conn.sendText(t, ControlMessage{Type: ControlStop})

	// Assert
	waitState(t, conn, domain.VoiceStateProcessing)
	done := waitState(t, conn, domain.VoiceStateDone)

	if done.Reason != domain.VoiceReasonExecuted {
		t.Errorf("expected executed reason, got %q", done.Reason)
	}
	if done.Snapshot == nil || len(done.Snapshot.Results) != 1 || done.Snapshot.Results[0].ID != "a-1" {
		t.Fatalf("expected results in final snapshot, got %+v", done.Snapshot)
	}

	req := processor.Requests[0]
	if req.FarmUUID != "farm-1" || req.UserUUID != "user-1" {
		t.Errorf("expected connection identity in request, got %+v", req)
	}
	wav, err := base64.StdEncoding.DecodeString(req.AudioData)
	if err != nil {
		t.Fatalf("audio is not base64: %v", err)
	}
	if string(wav[:4]) != "RIFF" || len(wav) != 44+4 {
		t.Errorf("expected WAV with 4 PCM bytes, got %d bytes", len(wav))
	}
}

func TestVoiceStream_CaptureErrorFailsSession(t *testing.T) {
	processor := &mocks.MockVoiceProcessor{}
	conn := serveVoice(t, processor, &mocks.MockOperationExecutor{})

	conn.sendText(t, ControlMessage{Type: ControlStart})
	waitState(t, conn, domain.VoiceStateRecording)
	conn.sendText(t, ControlMessage{Type: ControlCaptureError, Reason: "permission_denied"})

	msg := waitState(t, conn, domain.VoiceStateError)
	if msg.Reason != domain.VoiceReasonCaptureFailed {
		t.Errorf("expected capture_failed, got %q", msg.Reason)
	}
	if msg.Snapshot == nil || msg.Snapshot.Error == "" {
		t.Error("expected error message in snapshot")
	}
	if processor.Calls() != 0 {
		t.Error("processor must not be called after a capture failure")
	}

	conn.sendText(t, ControlMessage{Type: ControlStart})
	if reply := nextMessage(t, conn); reply.Type != "error" || reply.Error != voice.ErrSessionFailed.Error() {
		t.Errorf("expected reset-required error, got %+v", reply)
	}

	conn.sendText(t, ControlMessage{Type: ControlReset})
	waitState(t, conn, domain.VoiceStateIdle)
}

func TestVoiceStream_CancelAndSnapshot(t *testing.T) {
	processor := &mocks.MockVoiceProcessor{}
	conn := serveVoice(t, processor, &mocks.MockOperationExecutor{})

	conn.sendText(t, ControlMessage{Type: ControlStart})
	waitState(t, conn, domain.VoiceStateRecording)
	conn.send(t, frame{messageType: websocket.BinaryMessage, data: []byte{1, 2}})
	conn.sendText(t, ControlMessage{Type: ControlCancel})

	msg := waitState(t, conn, domain.VoiceStateIdle)
	if msg.Reason != domain.VoiceReasonRecordingCancelled {
		t.Errorf("expected recording_cancelled, got %q", msg.Reason)
	}

	conn.sendText(t, ControlMessage{Type: ControlSnapshot})
	if snap := nextMessage(t, conn); snap.Type != ControlSnapshot || snap.State != domain.VoiceStateIdle {
		t.Errorf("expected idle snapshot, got %+v", snap)
	}
	if processor.Calls() != 0 {
		t.Error("cancelled recording must not be processed")
	}
}

func TestVoiceStream_BadControlMessages(t *testing.T) {
	conn := serveVoice(t, &mocks.MockVoiceProcessor{}, &mocks.MockOperationExecutor{})

	conn.send(t, frame{messageType: websocket.TextMessage, data: []byte("{")})
	if msg := nextMessage(t, conn); msg.Type != "error" {
		t.Errorf("expected error for malformed message, got %+v", msg)
	}

	conn.sendText(t, ControlMessage{Type: "pause"})
	if msg := nextMessage(t, conn); msg.Type != "error" || msg.Error == "" {
		t.Errorf("expected error for unknown control, got %+v", msg)
	}
}
