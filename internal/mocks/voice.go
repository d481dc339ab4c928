package mocks

import (
	"context"
	"sync"

	"github.com/seu-repo/agrovoz/internal/domain"
)

// MockVoiceProcessor is a mock implementation of VoiceProcessor
type MockVoiceProcessor struct {
	ProcessFunc func(ctx context.Context, req domain.VoiceProcessingRequest) (*domain.VoiceProcessingResponse, error)

	mu       sync.Mutex
	Requests []domain.VoiceProcessingRequest
}

func (m *MockVoiceProcessor) Process(ctx context.Context, req domain.VoiceProcessingRequest) (*domain.VoiceProcessingResponse, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()
	if m.ProcessFunc != nil {
		return m.ProcessFunc(ctx, req)
	}
	return &domain.VoiceProcessingResponse{Success: true}, nil
}

// Calls returns how many times Process was invoked.
func (m *MockVoiceProcessor) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

// MockOperationExecutor is a mock implementation of OperationExecutor
type MockOperationExecutor struct {
	ExecuteFunc func(ctx context.Context, ops *domain.VoiceOperations, farmID, userID string) []domain.ExecutionResult

	mu    sync.Mutex
	calls int
}

func (m *MockOperationExecutor) Execute(ctx context.Context, ops *domain.VoiceOperations, farmID, userID string) []domain.ExecutionResult {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, ops, farmID, userID)
	}
	return nil
}

// Calls returns how many times Execute was invoked.
func (m *MockOperationExecutor) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
