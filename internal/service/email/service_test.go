package email

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/agrovoz/internal/domain"
	"github.com/seu-repo/agrovoz/pkg/config"
)

// MockProvider is a mock email provider for testing
type MockProvider struct {
	SentEmails []MockEmail
	FailError  error
}

type MockEmail struct {
	To      string
	Subject string
	Body    string
	IsHTML  bool
}

func (m *MockProvider) Send(ctx context.Context, to, subject, body string, isHTML bool) error {
	if m.FailError != nil {
		return m.FailError
	}
	m.SentEmails = append(m.SentEmails, MockEmail{To: to, Subject: subject, Body: body, IsHTML: isHTML})
	return nil
}

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func TestService_Send_Success(t *testing.T) {
	// Arrange
	provider := &MockProvider{}
	service := newService(provider, newTestLogger())

	// Act
	err := service.Send(context.Background(), "joao@fazenda.com", "Assunto", "Corpo")

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(provider.SentEmails) != 1 {
		t.Fatalf("expected 1 email sent, got %d", len(provider.SentEmails))
	}
	sent := provider.SentEmails[0]
	if sent.To != "joao@fazenda.com" || sent.IsHTML {
		t.Errorf("unexpected email %+v", sent)
	}
}

func TestService_Send_ProviderError(t *testing.T) {
	provider := &MockProvider{FailError: errors.New("sendgrid unavailable")}
	service := newService(provider, newTestLogger())

	err := service.Send(context.Background(), "joao@fazenda.com", "Assunto", "Corpo")

	if err == nil || !strings.Contains(err.Error(), "sendgrid unavailable") {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}
}

func TestService_SendTaskAssigned(t *testing.T) {
	// Arrange
	provider := &MockProvider{}
	service := newService(provider, newTestLogger())
	due := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	task := &domain.Task{
		Title:         "Vacinar bezerros",
		Priority:      domain.TaskPriorityHigh,
		AssignedTo:    "Pedro",
		AssigneeEmail: "pedro@fazenda.com",
		DueDate:       &due,
	}

	// Act
	err := service.SendTaskAssigned(context.Background(), task)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	sent := provider.SentEmails[0]
	if sent.To != "pedro@fazenda.com" || !sent.IsHTML {
		t.Errorf("unexpected email %+v", sent)
	}
	if sent.Subject != "Nova tarefa: Vacinar bezerros" {
		t.Errorf("unexpected subject %q", sent.Subject)
	}
	for _, want := range []string{"Pedro", "Vacinar bezerros", "high", "20/03/2024"} {
		if !strings.Contains(sent.Body, want) {
			t.Errorf("expected body to contain %q", want)
		}
	}
}

func TestService_SendTaskAssigned_NoEmail(t *testing.T) {
	provider := &MockProvider{}
	service := newService(provider, newTestLogger())

	err := service.SendTaskAssigned(context.Background(), &domain.Task{Title: "Cercar pasto"})

	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if len(provider.SentEmails) != 0 {
		t.Error("no email should be sent")
	}
}

func TestService_SendWelcome(t *testing.T) {
	provider := &MockProvider{}
	service := newService(provider, newTestLogger())

	err := service.SendWelcome(context.Background(), &domain.User{Name: "Maria", Email: "maria@fazenda.com"})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(provider.SentEmails[0].Body, "Maria") {
		t.Error("expected user name in body")
	}
}

func TestService_SendTemplate_Unknown(t *testing.T) {
	service := newService(&MockProvider{}, newTestLogger())

	if err := service.SendTemplate(context.Background(), "a@b.com", "x", "invoice", nil); err == nil {
		t.Fatal("expected error for unknown template")
	}
}

func TestNewService_Config(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.EmailConfig
		wantErr bool
	}{
		{name: "disabled logs only", cfg: config.EmailConfig{}},
		{name: "enabled", cfg: config.EmailConfig{Enabled: true, APIKey: "SG.key", From: "noreply@agrovoz.com"}},
		{name: "enabled without key", cfg: config.EmailConfig{Enabled: true, From: "noreply@agrovoz.com"}, wantErr: true},
		{name: "enabled without sender", cfg: config.EmailConfig{Enabled: true, APIKey: "SG.key"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewService(tt.cfg, zap.NewNop())
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !tt.cfg.Enabled {
				if err := svc.Send(context.Background(), "a@b.com", "s", "b"); err != nil {
					t.Errorf("disabled provider should not fail, got %v", err)
				}
			}
		})
	}
}
