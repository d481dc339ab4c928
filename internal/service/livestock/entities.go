package livestock

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/seu-repo/agrovoz/internal/domain"
	"github.com/seu-repo/agrovoz/internal/ports"
)

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", domain.ErrValidation, fmt.Sprintf(format, args...))
}

// requireAnimal returns domain.ErrNotFound, unwrapped, when the animal does
// not exist or belongs to another farm.
func requireAnimal(ctx context.Context, animals ports.AnimalRepository, id, farmID string) error {
	a, err := animals.FindByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}
	if a.FarmID != farmID {
		return domain.ErrNotFound
	}
	return nil
}

func NewAnimalService(repo ports.AnimalRepository, deps Deps) ports.AnimalService {
	return newService[domain.Animal](repo, domain.EntityAnimal, deps, prepareAnimal)
}

func prepareAnimal(_ context.Context, a *domain.Animal, _ string, creating bool) error {
	if creating && a.AnimalID == "" && a.Name == "" {
		return invalid("animalId or name is required")
	}
	switch a.Gender {
	case "", domain.GenderFemale, domain.GenderMale:
	default:
		return invalid("unknown gender %q", a.Gender)
	}
	switch a.HealthStatus {
	case "", domain.HealthStatusHealthy, domain.HealthStatusSick, domain.HealthStatusTreatment,
		domain.HealthStatusQuarantine, domain.HealthStatusUnknown:
	default:
		return invalid("unknown health status %q", a.HealthStatus)
	}
	if a.Weight < 0 {
		return invalid("weight must not be negative")
	}
	if creating && a.Status == "" {
		a.Status = domain.AnimalStatusActive
	}
	return nil
}

// NewHealthService creates the health record service. A record carrying a
// health status also updates the animal's current status.
func NewHealthService(repo ports.HealthRepository, animals ports.AnimalRepository, deps Deps) ports.HealthService {
	s := newService[domain.HealthRecord](repo, domain.EntityHealth, deps,
		func(ctx context.Context, h *domain.HealthRecord, farmID string, creating bool) error {
			if creating && h.AnimalUUID == "" {
				return invalid("animalUuid is required")
			}
			if h.Cost < 0 {
				return invalid("cost must not be negative")
			}
			if h.AnimalUUID != "" {
				return requireAnimal(ctx, animals, h.AnimalUUID, farmID)
			}
			return nil
		})
	s.afterCreate = func(ctx context.Context, h *domain.HealthRecord, userID string) {
		if h.HealthStatus == "" {
			return
		}
		patch := &domain.Animal{HealthStatus: h.HealthStatus}
		patch.ID = h.AnimalUUID
		patch.Touch(userID, s.now())
		if err := animals.Update(ctx, patch); err != nil {
			s.log.Warn("Failed to sync animal health status",
				zap.String("animal_id", h.AnimalUUID),
				zap.Error(err),
			)
		}
	}
	return s
}

func NewProductionService(repo ports.ProductionRepository, animals ports.AnimalRepository, deps Deps) ports.ProductionService {
	return newService[domain.ProductionRecord](repo, domain.EntityProduction, deps,
		func(ctx context.Context, p *domain.ProductionRecord, farmID string, creating bool) error {
			if creating && p.Type == "" {
				return invalid("production type is required")
			}
			if p.Quantity < 0 {
				return invalid("quantity must not be negative")
			}
			if p.Unit == "" && p.Type != "" {
				p.Unit = p.Type.DefaultUnit()
			}
			if p.AnimalUUID != "" {
				return requireAnimal(ctx, animals, p.AnimalUUID, farmID)
			}
			return nil
		})
}

func NewTaskService(repo ports.TaskRepository, animals ports.AnimalRepository, deps Deps) ports.TaskService {
	s := newService[domain.Task](repo, domain.EntityTask, deps, nil)
	s.prepare = func(ctx context.Context, t *domain.Task, farmID string, creating bool) error {
		if creating && t.Title == "" {
			return invalid("task title is required")
		}
		if creating && t.Status == "" {
			t.Status = domain.TaskStatusPending
		}
		if t.Status == domain.TaskStatusCompleted && t.CompletedAt == nil {
			now := s.now()
			t.CompletedAt = &now
		}
		if t.AnimalUUID != "" {
			return requireAnimal(ctx, animals, t.AnimalUUID, farmID)
		}
		return nil
	}
	return s
}

func NewRelationService(repo ports.RelationRepository, animals ports.AnimalRepository, deps Deps) ports.RelationService {
	return newService[domain.Relation](repo, domain.EntityRelation, deps,
		func(ctx context.Context, r *domain.Relation, farmID string, creating bool) error {
			if creating && (r.ParentUUID == "" || r.ChildUUID == "") {
				return invalid("parentUuid and childUuid are required")
			}
			if creating && r.Type == "" {
				return invalid("relationType is required")
			}
			if r.ParentUUID != "" && r.ParentUUID == r.ChildUUID {
				return invalid("an animal cannot be related to itself")
			}
			for _, id := range []string{r.ParentUUID, r.ChildUUID} {
				if id == "" {
					continue
				}
				if err := requireAnimal(ctx, animals, id, farmID); err != nil {
					return err
				}
			}
			return nil
		})
}

func NewCalendarService(repo ports.CalendarRepository, animals ports.AnimalRepository, deps Deps) ports.CalendarService {
	return newService[domain.CalendarEvent](repo, domain.EntityCalendar, deps,
		func(ctx context.Context, e *domain.CalendarEvent, farmID string, creating bool) error {
			if creating && e.Title == "" {
				return invalid("event title is required")
			}
			if creating && e.StartDate.IsZero() {
				return invalid("startDate is required")
			}
			if e.EndDate != nil && !e.StartDate.IsZero() && e.EndDate.Before(e.StartDate) {
				return invalid("endDate is before startDate")
			}
			if e.AnimalUUID != "" {
				return requireAnimal(ctx, animals, e.AnimalUUID, farmID)
			}
			return nil
		})
}
