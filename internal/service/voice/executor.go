package voice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/seu-repo/agrovoz/internal/domain"
	"github.com/seu-repo/agrovoz/internal/observability/telemetry"
	"github.com/seu-repo/agrovoz/internal/ports"
)

// ErrMissingTarget is reported for an update that names no record.
var ErrMissingTarget = errors.New("missing target id")

// Services are the domain services the executor writes through.
type Services struct {
	Animals    ports.AnimalService
	Health     ports.HealthService
	Production ports.ProductionService
	Tasks      ports.TaskService
	Relations  ports.RelationService
	Calendar   ports.CalendarService
}

type recordPtr[T any] interface {
	*T
	domain.Record
}

type applyFunc func(ctx context.Context, op domain.ProposedOperation, farmID, userID string, now time.Time) (string, error)

type group struct {
	entity domain.EntityType
	ops    []domain.ProposedOperation
	apply  applyFunc
}

// Executor commits proposed operations one at a time. It is best effort:
// a failed operation is reported in its result and never undoes or stops
// the others.
type Executor struct {
	svc Services
	log *zap.Logger
	now func() time.Time
}

func NewExecutor(svc Services, log *zap.Logger) *Executor {
	return &Executor{
		svc: svc,
		log: log,
		now: time.Now,
	}
}

// Execute returns exactly one result per operation, in group order (animals,
// health, production, tasks, relations, calendar) and array order within a
// group.
func (e *Executor) Execute(ctx context.Context, ops *domain.VoiceOperations, farmID, userID string) []domain.ExecutionResult {
	results := make([]domain.ExecutionResult, 0, ops.Count())
	if ops.Count() == 0 {
		return results
	}

	ctx, span := telemetry.StartSpan(ctx, "voice.Execute", trace.WithAttributes(
		attribute.String("farm.id", farmID),
		attribute.Int("voice.operations", ops.Count()),
	))
	defer span.End()

	now := e.now()
	failed := 0
	for _, g := range e.groups(ops) {
		for _, op := range g.ops {
			res := e.run(ctx, g, op, farmID, userID, now)
			if !res.Success {
				failed++
			}
			results = append(results, res)
		}
	}

	span.SetAttributes(attribute.Int("voice.failed", failed))
	if failed > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d of %d operations failed", failed, len(results)))
	}
	e.log.Info("Voice operations executed",
		zap.String("farm_id", farmID),
		zap.String("user_id", userID),
		zap.Int("total", len(results)),
		zap.Int("failed", failed),
	)
	return results
}

func (e *Executor) groups(ops *domain.VoiceOperations) []group {
	return []group{
		{domain.EntityAnimal, ops.Animals, dispatch(e.svc.Animals, animalTarget, animalDefaults)},
		{domain.EntityHealth, ops.Health, dispatch(e.svc.Health, uuidTarget, healthDefaults)},
		{domain.EntityProduction, ops.Production, dispatch(e.svc.Production, uuidTarget, productionDefaults)},
		{domain.EntityTask, ops.Tasks, dispatch(e.svc.Tasks, uuidTarget, taskDefaults)},
		{domain.EntityRelation, ops.Relations, dispatch(e.svc.Relations, uuidTarget, relationDefaults)},
		{domain.EntityCalendar, ops.Calendar, dispatch(e.svc.Calendar, uuidTarget, calendarDefaults)},
	}
}

func (e *Executor) run(ctx context.Context, g group, op domain.ProposedOperation, farmID, userID string, now time.Time) (res domain.ExecutionResult) {
	res = domain.ExecutionResult{Type: g.entity, Operation: op.Kind()}

	defer func() {
		if r := recover(); r != nil {
			e.log.Error("Panic while executing voice operation",
				zap.String("type", string(g.entity)),
				zap.Any("panic", r),
			)
			res.Success = false
			res.ID = ""
			res.Error = fmt.Sprintf("%v", r)
		}

		status := "success"
		if !res.Success {
			status = "failed"
		}
		telemetry.VoiceOperationsTotal.WithLabelValues(string(res.Type), string(res.Operation), status).Inc()
	}()

	id, err := g.apply(ctx, op, farmID, userID, now)
	switch {
	case err != nil:
		res.Error = err.Error()
	case id == "":
		res.Error = "no id returned"
	default:
		res.Success = true
		res.ID = id
	}

	if !res.Success {
		e.log.Warn("Voice operation failed",
			zap.String("type", string(g.entity)),
			zap.String("operation", string(res.Operation)),
			zap.String("error", res.Error),
		)
	}
	return res
}

// animalTarget accepts the target as uuid or, for animals, animalUuid.
func animalTarget(op domain.ProposedOperation) string {
	if op.UUID != "" {
		return op.UUID
	}
	return op.AnimalUUID
}

func uuidTarget(op domain.ProposedOperation) string {
	return op.UUID
}

func dispatch[T any, PT recordPtr[T]](
	svc ports.RecordService[T],
	target func(domain.ProposedOperation) string,
	defaults func(*T, domain.ProposedOperation, time.Time),
) applyFunc {
	return func(ctx context.Context, op domain.ProposedOperation, farmID, userID string, now time.Time) (string, error) {
		if svc == nil {
			return "", errors.New("service not configured")
		}

		rec := new(T)
		if err := decodeData(op.Data, rec); err != nil {
			return "", fmt.Errorf("invalid data: %w", err)
		}
		defaults(rec, op, now)

		if op.Kind() == domain.OperationUpdate {
			id := target(op)
			if id == "" {
				return "", ErrMissingTarget
			}
			PT(rec).Identify(id, farmID)
			if err := svc.Update(ctx, rec, userID); err != nil {
				return "", err
			}
			return id, nil
		}

		return svc.Create(ctx, rec, userID, farmID)
	}
}
