package ports

import (
	"context"

	"github.com/seu-repo/agrovoz/internal/domain"
)

type AuthService interface {
	Login(ctx context.Context, email, password string) (string, string, error) // token, refresh, err
	Register(ctx context.Context, user *domain.User) error
	AddMember(ctx context.Context, user, inviter *domain.User) error
	RefreshToken(ctx context.Context, token string) (string, error)
	ValidateToken(ctx context.Context, token string) (*domain.User, error)
	Logout(ctx context.Context, token string) error
}

// RecordService is the domain-service boundary for one entity type. Create
// and Update are the calls the voice executor depends on.
type RecordService[T any] interface {
	Create(ctx context.Context, rec *T, userID, farmID string) (string, error)
	Update(ctx context.Context, rec *T, userID string) error
	Get(ctx context.Context, id string) (*T, error)
	List(ctx context.Context, farmID string, filter ListFilter) ([]T, error)
	Delete(ctx context.Context, id, userID string) error
}

type (
	AnimalService     = RecordService[domain.Animal]
	HealthService     = RecordService[domain.HealthRecord]
	ProductionService = RecordService[domain.ProductionRecord]
	TaskService       = RecordService[domain.Task]
	RelationService   = RecordService[domain.Relation]
	CalendarService   = RecordService[domain.CalendarEvent]
)

type DashboardService interface {
	Summary(ctx context.Context, farmID string) (*domain.DashboardSummary, error)
	Invalidate(ctx context.Context, farmID string) error
}

// EmailService sends the account and task notifications.
type EmailService interface {
	SendWelcome(ctx context.Context, user *domain.User) error
	SendTaskAssigned(ctx context.Context, task *domain.Task) error
}
