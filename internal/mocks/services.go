package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/seu-repo/agrovoz/internal/domain"
	"github.com/seu-repo/agrovoz/internal/ports"
)

// MockRecordService is a mock implementation of RecordService. Every Create
// and Update call is recorded; an unset CreateFunc returns sequential IDs.
type MockRecordService[T any] struct {
	CreateFunc func(ctx context.Context, rec *T, userID, farmID string) (string, error)
	UpdateFunc func(ctx context.Context, rec *T, userID string) error
	GetFunc    func(ctx context.Context, id string) (*T, error)
	ListFunc   func(ctx context.Context, farmID string, filter ports.ListFilter) ([]T, error)
	DeleteFunc func(ctx context.Context, id, userID string) error

	// Prefix is used for generated IDs, e.g. "animal" -> "animal-1".
	Prefix string

	mu      sync.Mutex
	Created []*T
	Updated []*T
}

func (m *MockRecordService[T]) Create(ctx context.Context, rec *T, userID, farmID string) (string, error) {
	m.mu.Lock()
	m.Created = append(m.Created, rec)
	n := len(m.Created)
	m.mu.Unlock()

	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, rec, userID, farmID)
	}
	prefix := m.Prefix
	if prefix == "" {
		prefix = "id"
	}
	return fmt.Sprintf("%s-%d", prefix, n), nil
}

func (m *MockRecordService[T]) Update(ctx context.Context, rec *T, userID string) error {
	m.mu.Lock()
	m.Updated = append(m.Updated, rec)
	m.mu.Unlock()

	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, rec, userID)
	}
	return nil
}

func (m *MockRecordService[T]) Get(ctx context.Context, id string) (*T, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *MockRecordService[T]) List(ctx context.Context, farmID string, filter ports.ListFilter) ([]T, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, farmID, filter)
	}
	return nil, nil
}

func (m *MockRecordService[T]) Delete(ctx context.Context, id, userID string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id, userID)
	}
	return nil
}

// CreatedCount returns how many Create calls were made.
func (m *MockRecordService[T]) CreatedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Created)
}

// UpdatedCount returns how many Update calls were made.
func (m *MockRecordService[T]) UpdatedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Updated)
}

// MockDashboardService is a mock implementation of DashboardService
type MockDashboardService struct {
	SummaryFunc    func(ctx context.Context, farmID string) (*domain.DashboardSummary, error)
	InvalidateFunc func(ctx context.Context, farmID string) error

	mu          sync.Mutex
	Invalidated []string
}

func (m *MockDashboardService) Summary(ctx context.Context, farmID string) (*domain.DashboardSummary, error) {
	if m.SummaryFunc != nil {
		return m.SummaryFunc(ctx, farmID)
	}
	return &domain.DashboardSummary{FarmID: farmID}, nil
}

func (m *MockDashboardService) Invalidate(ctx context.Context, farmID string) error {
	m.mu.Lock()
	m.Invalidated = append(m.Invalidated, farmID)
	m.mu.Unlock()
	if m.InvalidateFunc != nil {
		return m.InvalidateFunc(ctx, farmID)
	}
	return nil
}

// MockEmailService records the notifications it was asked to send.
type MockEmailService struct {
	SendWelcomeFunc      func(ctx context.Context, user *domain.User) error
	SendTaskAssignedFunc func(ctx context.Context, task *domain.Task) error

	mu       sync.Mutex
	Welcomed []string // emails
	Assigned []string // task IDs
}

func (m *MockEmailService) SendWelcome(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	m.Welcomed = append(m.Welcomed, user.Email)
	m.mu.Unlock()
	if m.SendWelcomeFunc != nil {
		return m.SendWelcomeFunc(ctx, user)
	}
	return nil
}

func (m *MockEmailService) SendTaskAssigned(ctx context.Context, task *domain.Task) error {
	m.mu.Lock()
	m.Assigned = append(m.Assigned, task.ID)
	m.mu.Unlock()
	if m.SendTaskAssignedFunc != nil {
		return m.SendTaskAssignedFunc(ctx, task)
	}
	return nil
}

// WelcomedEmails returns the addresses that got a welcome email.
func (m *MockEmailService) WelcomedEmails() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Welcomed...)
}

// MockAuthService is a mock implementation of AuthService. An unset
// ValidateTokenFunc accepts any token and returns User.
type MockAuthService struct {
	LoginFunc         func(ctx context.Context, email, password string) (string, string, error)
	RegisterFunc      func(ctx context.Context, user *domain.User) error
	AddMemberFunc     func(ctx context.Context, user, inviter *domain.User) error
	RefreshTokenFunc  func(ctx context.Context, token string) (string, error)
	ValidateTokenFunc func(ctx context.Context, token string) (*domain.User, error)
	LogoutFunc        func(ctx context.Context, token string) error

	User *domain.User
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (string, string, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	return "access-token", "refresh-token", nil
}

func (m *MockAuthService) Register(ctx context.Context, user *domain.User) error {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, user)
	}
	return nil
}

func (m *MockAuthService) AddMember(ctx context.Context, user, inviter *domain.User) error {
	if m.AddMemberFunc != nil {
		return m.AddMemberFunc(ctx, user, inviter)
	}
	user.FarmID = inviter.FarmID
	return nil
}

func (m *MockAuthService) RefreshToken(ctx context.Context, token string) (string, error) {
	if m.RefreshTokenFunc != nil {
		return m.RefreshTokenFunc(ctx, token)
	}
	return "access-token", nil
}

func (m *MockAuthService) ValidateToken(ctx context.Context, token string) (*domain.User, error) {
	if m.ValidateTokenFunc != nil {
		return m.ValidateTokenFunc(ctx, token)
	}
	if m.User == nil {
		return nil, domain.ErrUnauthorized
	}
	return m.User, nil
}

func (m *MockAuthService) Logout(ctx context.Context, token string) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, token)
	}
	return nil
}
