package ports

import (
	"context"
	"io"

	"github.com/seu-repo/agrovoz/internal/domain"
)

// AudioConfig describes how the microphone should be captured.
type AudioConfig struct {
	SampleRate  int
	Channels    int
	InputFormat string
	InputDevice string
}

// AudioSession is a live capture session. Stop is idempotent and releases
// the input device.
type AudioSession interface {
	io.ReadCloser
	Stop() error
}

// AudioCapture creates microphone capture sessions.
type AudioCapture interface {
	Start(ctx context.Context, cfg AudioConfig) (AudioSession, error)
}

// VoiceProcessor transcribes audio and extracts proposed operations.
type VoiceProcessor interface {
	Process(ctx context.Context, req domain.VoiceProcessingRequest) (*domain.VoiceProcessingResponse, error)
}

// OperationExecutor commits proposed operations and reports one result per
// operation.
type OperationExecutor interface {
	Execute(ctx context.Context, ops *domain.VoiceOperations, farmID, userID string) []domain.ExecutionResult
}

// VoiceEventSink receives session state changes.
type VoiceEventSink interface {
	VoiceStateChanged(state domain.VoiceState, reason domain.VoiceStateReason, snapshot domain.VoiceSnapshot)
}
