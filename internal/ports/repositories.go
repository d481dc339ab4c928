package ports

import (
	"context"
	"time"

	"github.com/seu-repo/agrovoz/internal/domain"
)

// ListFilter narrows record listings. Zero values are ignored.
type ListFilter struct {
	Status     string
	Type       string
	AnimalUUID string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// RecordRepository persists one farm record type.
type RecordRepository[T any] interface {
	Create(ctx context.Context, rec *T) error
	// Update writes only the non-zero fields of rec.
	Update(ctx context.Context, rec *T) error
	FindByID(ctx context.Context, id string) (*T, error)
	FindByFarm(ctx context.Context, farmID string, filter ListFilter) ([]T, error)
	Delete(ctx context.Context, id string) error
}

type (
	AnimalRepository     = RecordRepository[domain.Animal]
	HealthRepository     = RecordRepository[domain.HealthRecord]
	ProductionRepository = RecordRepository[domain.ProductionRecord]
	TaskRepository       = RecordRepository[domain.Task]
	RelationRepository   = RecordRepository[domain.Relation]
	CalendarRepository   = RecordRepository[domain.CalendarEvent]
)

type UserRepository interface {
	Save(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
}
