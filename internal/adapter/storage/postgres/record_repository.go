package postgres

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/agrovoz/internal/domain"
	"github.com/seu-repo/agrovoz/internal/ports"
)

// columns maps ListFilter fields to the table's column names. Empty means
// the table has no such column and the filter is ignored.
type columns struct {
	status string
	kind   string
	animal string
	date   string
}

// RecordRepository is the gorm implementation shared by all farm records.
type RecordRepository[T any] struct {
	db   *gorm.DB
	log  *zap.Logger
	name string
	cols columns
}

func newRecordRepository[T any](db *gorm.DB, log *zap.Logger, name string, cols columns) *RecordRepository[T] {
	return &RecordRepository[T]{
		db:   db,
		log:  log.With(zap.String("repository", name)),
		name: name,
		cols: cols,
	}
}

func NewAnimalRepository(db *gorm.DB, log *zap.Logger) ports.AnimalRepository {
	return newRecordRepository[domain.Animal](db, log, "animals", columns{status: "status", kind: "species", date: "birth_date"})
}

func NewHealthRepository(db *gorm.DB, log *zap.Logger) ports.HealthRepository {
	return newRecordRepository[domain.HealthRecord](db, log, "health_records", columns{status: "health_status", kind: "type", animal: "animal_uuid", date: "date"})
}

func NewProductionRepository(db *gorm.DB, log *zap.Logger) ports.ProductionRepository {
	return newRecordRepository[domain.ProductionRecord](db, log, "production_records", columns{kind: "type", animal: "animal_uuid", date: "date"})
}

func NewTaskRepository(db *gorm.DB, log *zap.Logger) ports.TaskRepository {
	return newRecordRepository[domain.Task](db, log, "tasks", columns{status: "status", kind: "category", animal: "animal_uuid", date: "due_date"})
}

func NewRelationRepository(db *gorm.DB, log *zap.Logger) ports.RelationRepository {
	return newRecordRepository[domain.Relation](db, log, "relations", columns{kind: "type", animal: "parent_uuid"})
}

func NewCalendarRepository(db *gorm.DB, log *zap.Logger) ports.CalendarRepository {
	return newRecordRepository[domain.CalendarEvent](db, log, "calendar_events", columns{kind: "type", animal: "animal_uuid", date: "start_date"})
}

func (r *RecordRepository[T]) Create(ctx context.Context, rec *T) error {
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		r.log.Error("Failed to create record", zap.Error(err))
		return fmt.Errorf("create %s: %w", r.name, err)
	}
	return nil
}

func (r *RecordRepository[T]) Update(ctx context.Context, rec *T) error {
	result := r.db.WithContext(ctx).Model(rec).Updates(rec)
	if result.Error != nil {
		r.log.Error("Failed to update record", zap.Error(result.Error))
		return fmt.Errorf("update %s: %w", r.name, result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *RecordRepository[T]) FindByID(ctx context.Context, id string) (*T, error) {
	var rec T
	err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find %s: %w", r.name, err)
	}
	return &rec, nil
}

func (r *RecordRepository[T]) FindByFarm(ctx context.Context, farmID string, filter ports.ListFilter) ([]T, error) {
	query := r.db.WithContext(ctx).Where("farm_id = ?", farmID)

	if filter.Status != "" && r.cols.status != "" {
		query = query.Where(r.cols.status+" = ?", filter.Status)
	}
	if filter.Type != "" && r.cols.kind != "" {
		query = query.Where(r.cols.kind+" = ?", filter.Type)
	}
	if filter.AnimalUUID != "" && r.cols.animal != "" {
		query = query.Where(r.cols.animal+" = ?", filter.AnimalUUID)
	}
	if r.cols.date != "" {
		if filter.From != nil {
			query = query.Where(r.cols.date+" >= ?", *filter.From)
		}
		if filter.To != nil {
			query = query.Where(r.cols.date+" < ?", *filter.To)
		}
		query = query.Order(r.cols.date + " desc")
	}
	query = query.Order("created_at desc")

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var recs []T
	if err := query.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list %s: %w", r.name, err)
	}
	return recs, nil
}

func (r *RecordRepository[T]) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(new(T), "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("delete %s: %w", r.name, result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
