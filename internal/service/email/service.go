package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"go.uber.org/zap"

	"github.com/seu-repo/agrovoz/internal/domain"
	"github.com/seu-repo/agrovoz/internal/ports"
	"github.com/seu-repo/agrovoz/pkg/config"
)

// Provider defines the interface for email providers
type Provider interface {
	Send(ctx context.Context, to, subject, body string, isHTML bool) error
}

// Service implements ports.EmailService and renders the farm notifications.
type Service struct {
	provider  Provider
	templates map[string]*template.Template
	log       *zap.Logger
}

// NewService picks SendGrid when email is enabled, otherwise a provider that
// only logs.
func NewService(cfg config.EmailConfig, log *zap.Logger) (*Service, error) {
	var provider Provider
	if cfg.Enabled {
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("SendGrid API key is required")
		}
		if cfg.From == "" {
			return nil, fmt.Errorf("sender address is required")
		}
		provider = NewSendGridProvider(cfg.APIKey, cfg.From, cfg.FromName)
	} else {
		provider = &logProvider{log: log}
	}
	return newService(provider, log), nil
}

func newService(provider Provider, log *zap.Logger) *Service {
	return &Service{
		provider: provider,
		templates: map[string]*template.Template{
			"welcome":       template.Must(template.New("welcome").Parse(welcomeTemplate)),
			"task_assigned": template.Must(template.New("task_assigned").Parse(taskAssignedTemplate)),
		},
		log: log,
	}
}

var _ ports.EmailService = (*Service)(nil)

// Send sends a plain text email
func (s *Service) Send(ctx context.Context, to, subject, body string) error {
	return s.send(ctx, to, subject, body, false)
}

func (s *Service) send(ctx context.Context, to, subject, body string, isHTML bool) error {
	s.log.Info("Sending email",
		zap.String("to", to),
		zap.String("subject", subject),
	)

	if err := s.provider.Send(ctx, to, subject, body, isHTML); err != nil {
		s.log.Error("Failed to send email",
			zap.String("to", to),
			zap.Error(err),
		)
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// SendTemplate renders the named template and sends it as HTML.
func (s *Service) SendTemplate(ctx context.Context, to, subject, templateName string, data interface{}) error {
	tmpl, ok := s.templates[templateName]
	if !ok {
		return fmt.Errorf("template not found: %s", templateName)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}
	return s.send(ctx, to, subject, buf.String(), true)
}

// SendWelcome greets a newly registered user.
func (s *Service) SendWelcome(ctx context.Context, user *domain.User) error {
	return s.SendTemplate(ctx, user.Email, "Bem-vindo ao AgroVoz", "welcome", user)
}

// SendTaskAssigned tells the assignee about a task created or reassigned to them.
func (s *Service) SendTaskAssigned(ctx context.Context, task *domain.Task) error {
	if task.AssigneeEmail == "" {
		return fmt.Errorf("%w: task has no assignee email", domain.ErrValidation)
	}
	data := struct {
		*domain.Task
		Due string
	}{Task: task}
	if task.DueDate != nil {
		data.Due = task.DueDate.Format("02/01/2006")
	}
	return s.SendTemplate(ctx, task.AssigneeEmail, "Nova tarefa: "+task.Title, "task_assigned", data)
}

// logProvider stands in for SendGrid when email delivery is disabled.
type logProvider struct {
	log *zap.Logger
}

func (p *logProvider) Send(ctx context.Context, to, subject, body string, isHTML bool) error {
	p.log.Debug("Email delivery disabled, dropping message",
		zap.String("to", to),
		zap.String("subject", subject),
	)
	return nil
}
