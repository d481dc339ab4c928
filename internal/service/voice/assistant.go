package voice

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/seu-repo/agrovoz/internal/domain"
	"github.com/seu-repo/agrovoz/internal/ports"
)

// CommandResult is the outcome of a one-shot voice command.
type CommandResult struct {
	Response *domain.VoiceProcessingResponse `json:"response"`
	Results  []domain.ExecutionResult        `json:"results"`
}

// Assistant runs the pipeline for audio that was recorded elsewhere (an
// uploaded file or a mobile client), without the recording state machine.
type Assistant struct {
	processor ports.VoiceProcessor
	executor  ports.OperationExecutor
	log       *zap.Logger
}

func NewAssistant(processor ports.VoiceProcessor, executor ports.OperationExecutor, log *zap.Logger) *Assistant {
	return &Assistant{
		processor: processor,
		executor:  executor,
		log:       log,
	}
}

// Process transcribes the audio and extracts proposed operations.
func (a *Assistant) Process(ctx context.Context, req domain.VoiceProcessingRequest) (*domain.VoiceProcessingResponse, error) {
	if req.AudioData == "" {
		return nil, fmt.Errorf("%w: audioData is required", domain.ErrValidation)
	}
	if _, err := base64.StdEncoding.DecodeString(req.AudioData); err != nil {
		return nil, fmt.Errorf("%w: audioData is not valid base64", domain.ErrValidation)
	}
	if req.FarmUUID == "" {
		return nil, fmt.Errorf("%w: farmUuid is required", domain.ErrValidation)
	}
	if req.AudioFormat == "" {
		req.AudioFormat = DefaultAudioFormat
	}
	if req.MaxDuration <= 0 {
		req.MaxDuration = int(DefaultMaxRecordingTime.Seconds())
	}

	resp, err := a.processor.Process(ctx, req)
	if err != nil {
		a.log.Error("Voice processing failed", zap.String("farm_id", req.FarmUUID), zap.Error(err))
		if errors.Is(err, domain.ErrTranscriptionService) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrTranscriptionService, err)
	}
	return resp, nil
}

// Execute commits an operations bag, typically one the user reviewed after
// a transcription-only Process call.
func (a *Assistant) Execute(ctx context.Context, ops *domain.VoiceOperations, farmID, userID string) []domain.ExecutionResult {
	return a.executor.Execute(ctx, ops, farmID, userID)
}

// Command processes the audio and executes the extracted operations when
// the service reports success.
func (a *Assistant) Command(ctx context.Context, req domain.VoiceProcessingRequest) (*CommandResult, error) {
	resp, err := a.Process(ctx, req)
	if err != nil {
		return nil, err
	}

	out := &CommandResult{Response: resp, Results: []domain.ExecutionResult{}}
	if resp.Success && resp.HasOperations() {
		out.Results = a.executor.Execute(ctx, resp.Data, req.FarmUUID, req.UserUUID)
	}
	return out, nil
}
