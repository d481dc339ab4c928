// Package livestock implements the record services for farm entities:
// animals, health records, production records, tasks, relations and
// calendar events.
package livestock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seu-repo/agrovoz/internal/domain"
	"github.com/seu-repo/agrovoz/internal/observability/telemetry"
	"github.com/seu-repo/agrovoz/internal/ports"
)

type recordPtr[T any] interface {
	*T
	domain.Record
}

// Deps are the collaborators shared by every record service. Events and
// Dashboard may be nil.
type Deps struct {
	Events    ports.EventEmitter
	Dashboard ports.DashboardService
	Log       *zap.Logger
}

// prepareFunc validates rec and fills derived fields before it is written.
// farmID is the farm that owns (or will own) rec; references to other
// records must resolve inside it. creating is false for partial updates,
// where zero fields mean "unchanged".
type prepareFunc[T any] func(ctx context.Context, rec *T, farmID string, creating bool) error

// Service is the generic record service behind every entity type.
type Service[T any, PT recordPtr[T]] struct {
	repo    ports.RecordRepository[T]
	entity  domain.EntityType
	prepare prepareFunc[T]
	// afterCreate runs once the record is committed.
	afterCreate func(ctx context.Context, rec *T, userID string)

	events    ports.EventEmitter
	dashboard ports.DashboardService
	log       *zap.Logger

	now   func() time.Time
	newID func() string
}

func newService[T any, PT recordPtr[T]](repo ports.RecordRepository[T], entity domain.EntityType, deps Deps, prepare prepareFunc[T]) *Service[T, PT] {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Service[T, PT]{
		repo:      repo,
		entity:    entity,
		prepare:   prepare,
		events:    deps.Events,
		dashboard: deps.Dashboard,
		log:       log.With(zap.String("entity", string(entity))),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

func (s *Service[T, PT]) Create(ctx context.Context, rec *T, userID, farmID string) (string, error) {
	if rec == nil {
		return "", fmt.Errorf("%w: empty %s", domain.ErrValidation, s.entity)
	}
	if farmID == "" {
		return "", fmt.Errorf("%w: farm id is required", domain.ErrValidation)
	}
	if s.prepare != nil {
		if err := s.prepare(ctx, rec, farmID, true); err != nil {
			return "", err
		}
	}

	id := s.newID()
	PT(rec).Stamp(id, farmID, userID, s.now())

	if err := s.repo.Create(ctx, rec); err != nil {
		s.log.Error("Failed to create record", zap.String("farm_id", farmID), zap.Error(err))
		return "", err
	}

	if s.afterCreate != nil {
		s.afterCreate(ctx, rec, userID)
	}
	s.changed(ctx, "created", farmID, id, userID, rec)

	s.log.Info("Record created",
		zap.String("id", id),
		zap.String("farm_id", farmID),
		zap.String("user_id", userID),
	)
	return id, nil
}

// Update applies the non-zero fields of rec to the stored record. A farm id
// on rec must match the stored one.
func (s *Service[T, PT]) Update(ctx context.Context, rec *T, userID string) error {
	if rec == nil {
		return fmt.Errorf("%w: empty %s", domain.ErrValidation, s.entity)
	}
	id := PT(rec).RecordID()
	if id == "" {
		return fmt.Errorf("%w: missing target id", domain.ErrValidation)
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	farmID := PT(existing).RecordFarmID()
	if f := PT(rec).RecordFarmID(); f != "" && f != farmID {
		return domain.ErrNotFound
	}
	if s.prepare != nil {
		if err := s.prepare(ctx, rec, farmID, false); err != nil {
			return err
		}
	}

	PT(rec).Touch(userID, s.now())
	if err := s.repo.Update(ctx, rec); err != nil {
		s.log.Error("Failed to update record", zap.String("id", id), zap.Error(err))
		return err
	}

	s.changed(ctx, "updated", farmID, id, userID, rec)
	return nil
}

func (s *Service[T, PT]) Get(ctx context.Context, id string) (*T, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *Service[T, PT]) List(ctx context.Context, farmID string, filter ports.ListFilter) ([]T, error) {
	if farmID == "" {
		return nil, fmt.Errorf("%w: farm id is required", domain.ErrValidation)
	}
	return s.repo.FindByFarm(ctx, farmID, filter)
}

func (s *Service[T, PT]) Delete(ctx context.Context, id, userID string) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.changed(ctx, "deleted", PT(existing).RecordFarmID(), id, userID, nil)
	return nil
}

func (s *Service[T, PT]) changed(ctx context.Context, action, farmID, id, userID string, payload *T) {
	telemetry.RecordWritesTotal.WithLabelValues(string(s.entity), action).Inc()

	if s.dashboard != nil {
		if err := s.dashboard.Invalidate(ctx, farmID); err != nil {
			s.log.Warn("Failed to invalidate dashboard", zap.String("farm_id", farmID), zap.Error(err))
		}
	}
	if s.events == nil {
		return
	}
	ev := domain.DomainEvent{
		Type:       fmt.Sprintf("%s.%s", s.entity, action),
		FarmID:     farmID,
		EntityID:   id,
		UserID:     userID,
		OccurredAt: s.now(),
	}
	if payload != nil {
		ev.Payload = payload
	}
	s.events.Emit(ev)
}
