package voice

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/agrovoz/internal/domain"
	"github.com/seu-repo/agrovoz/internal/mocks"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

type testServices struct {
	animals    *mocks.MockRecordService[domain.Animal]
	health     *mocks.MockRecordService[domain.HealthRecord]
	production *mocks.MockRecordService[domain.ProductionRecord]
	tasks      *mocks.MockRecordService[domain.Task]
	relations  *mocks.MockRecordService[domain.Relation]
	calendar   *mocks.MockRecordService[domain.CalendarEvent]
}

func newTestServices() *testServices {
	return &testServices{
		animals:    &mocks.MockRecordService[domain.Animal]{Prefix: "animal"},
		health:     &mocks.MockRecordService[domain.HealthRecord]{Prefix: "health"},
		production: &mocks.MockRecordService[domain.ProductionRecord]{Prefix: "production"},
		tasks:      &mocks.MockRecordService[domain.Task]{Prefix: "task"},
		relations:  &mocks.MockRecordService[domain.Relation]{Prefix: "relation"},
		calendar:   &mocks.MockRecordService[domain.CalendarEvent]{Prefix: "calendar"},
	}
}

func (ts *testServices) executor() *Executor {
	e := NewExecutor(Services{
		Animals:    ts.animals,
		Health:     ts.health,
		Production: ts.production,
		Tasks:      ts.tasks,
		Relations:  ts.relations,
		Calendar:   ts.calendar,
	}, newTestLogger())
	e.now = func() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC) }
	return e
}

func TestExecute_ScenarioA_AnimalCreate(t *testing.T) {
	// Arrange
	ts := newTestServices()
	ops := &domain.VoiceOperations{
		Animals: []domain.ProposedOperation{
			{Operation: domain.OperationCreate, Data: map[string]interface{}{"animalId": "A1"}},
		},
	}

	// Act
	results := ts.executor().Execute(context.Background(), ops, "farm-1", "user-1")

	// Assert
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	r := results[0]
	if r.Type != domain.EntityAnimal || !r.Success || r.Operation != domain.OperationCreate || r.ID == "" {
		t.Errorf("unexpected result %+v", r)
	}

	created := ts.animals.Created[0]
	if created.AnimalID != "A1" {
		t.Errorf("expected animalId A1, got %q", created.AnimalID)
	}
	if created.Gender != DefaultGender {
		t.Errorf("expected default gender %q, got %q", DefaultGender, created.Gender)
	}
	if created.HealthStatus != domain.HealthStatusUnknown {
		t.Errorf("expected health status unknown, got %q", created.HealthStatus)
	}
}

func TestExecute_ScenarioB_FailureKeepsGoingInGroupOrder(t *testing.T) {
	// Arrange
	ts := newTestServices()
	ts.health.CreateFunc = func(ctx context.Context, rec *domain.HealthRecord, userID, farmID string) (string, error) {
		return "", domain.ErrNotFound
	}
	ops := &domain.VoiceOperations{
		Tasks:  []domain.ProposedOperation{{Data: map[string]interface{}{"title": "Feed cows"}}},
		Health: []domain.ProposedOperation{{AnimalUUID: "bad-id", Data: map[string]interface{}{}}},
	}

	// Act
	results := ts.executor().Execute(context.Background(), ops, "farm-1", "user-1")

	// Assert
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Type != domain.EntityHealth || results[0].Success || results[0].Error != "not found" {
		t.Errorf("expected failed health result first, got %+v", results[0])
	}
	if results[0].ID != "" {
		t.Errorf("failed result must not carry an id, got %q", results[0].ID)
	}
	if results[1].Type != domain.EntityTask || !results[1].Success || results[1].ID == "" {
		t.Errorf("expected successful task result second, got %+v", results[1])
	}
	if ts.health.Created[0].AnimalUUID != "bad-id" {
		t.Errorf("expected animalUuid from operation, got %q", ts.health.Created[0].AnimalUUID)
	}
	task := ts.tasks.Created[0]
	if task.Status != domain.TaskStatusPending || task.Priority != domain.TaskPriorityMedium {
		t.Errorf("expected task defaults, got status=%q priority=%q", task.Status, task.Priority)
	}
}

func TestExecute_ResultCountAndOrder(t *testing.T) {
	ts := newTestServices()
	ts.production.CreateFunc = func(ctx context.Context, rec *domain.ProductionRecord, userID, farmID string) (string, error) {
		return "", errors.New("database unavailable")
	}
	op := func(title string) domain.ProposedOperation {
		return domain.ProposedOperation{Data: map[string]interface{}{"title": title, "animalId": title, "type": "milk"}}
	}
	ops := &domain.VoiceOperations{
		Calendar:   []domain.ProposedOperation{op("c1")},
		Relations:  []domain.ProposedOperation{op("r1")},
		Tasks:      []domain.ProposedOperation{op("t1"), op("t2")},
		Production: []domain.ProposedOperation{op("p1"), op("p2"), op("p3")},
		Health:     []domain.ProposedOperation{op("h1")},
		Animals:    []domain.ProposedOperation{op("a1"), op("a2")},
	}

	results := ts.executor().Execute(context.Background(), ops, "farm-1", "user-1")

	if len(results) != ops.Count() {
		t.Fatalf("expected %d results, got %d", ops.Count(), len(results))
	}
	want := []domain.EntityType{
		domain.EntityAnimal, domain.EntityAnimal,
		domain.EntityHealth,
		domain.EntityProduction, domain.EntityProduction, domain.EntityProduction,
		domain.EntityTask, domain.EntityTask,
		domain.EntityRelation,
		domain.EntityCalendar,
	}
	for i, typ := range want {
		if results[i].Type != typ {
			t.Errorf("result %d: expected %s, got %s", i, typ, results[i].Type)
		}
		switch {
		case typ == domain.EntityProduction:
			if results[i].Success || results[i].Error != "database unavailable" {
				t.Errorf("result %d: expected failure, got %+v", i, results[i])
			}
		case !results[i].Success || results[i].ID == "":
			t.Errorf("result %d: expected success with id, got %+v", i, results[i])
		}
	}
	if results[6].ID != "task-1" || results[7].ID != "task-2" {
		t.Errorf("expected task array order preserved, got %s, %s", results[6].ID, results[7].ID)
	}
}

func TestExecute_Update(t *testing.T) {
	tests := []struct {
		name      string
		op        domain.ProposedOperation
		wantID    string
		wantError string
	}{
		{
			name:   "uuid target",
			op:     domain.ProposedOperation{Operation: domain.OperationUpdate, UUID: "a-1", Data: map[string]interface{}{"weight": "450.5"}},
			wantID: "a-1",
		},
		{
			name:   "animalUuid target",
			op:     domain.ProposedOperation{Operation: domain.OperationUpdate, AnimalUUID: "a-2", Data: map[string]interface{}{"weight": 300}},
			wantID: "a-2",
		},
		{
			name:      "missing target",
			op:        domain.ProposedOperation{Operation: domain.OperationUpdate, Data: map[string]interface{}{"weight": 300}},
			wantError: "missing target id",
		},
		{
			name:      "unknown target",
			op:        domain.ProposedOperation{Operation: domain.OperationUpdate, UUID: "ghost", Data: map[string]interface{}{"weight": 1}},
			wantError: "not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServices()
			ts.animals.UpdateFunc = func(ctx context.Context, rec *domain.Animal, userID string) error {
				if rec.ID == "ghost" {
					return domain.ErrNotFound
				}
				return nil
			}

			results := ts.executor().Execute(context.Background(), &domain.VoiceOperations{
				Animals: []domain.ProposedOperation{tt.op},
			}, "farm-1", "user-1")

			if len(results) != 1 {
				t.Fatalf("expected 1 result, got %d", len(results))
			}
			r := results[0]
			if r.Operation != domain.OperationUpdate {
				t.Errorf("expected update operation echoed, got %q", r.Operation)
			}
			if tt.wantError != "" {
				if r.Success || r.Error != tt.wantError {
					t.Errorf("expected error %q, got %+v", tt.wantError, r)
				}
				return
			}
			if !r.Success || r.ID != tt.wantID {
				t.Errorf("expected success with id %q, got %+v", tt.wantID, r)
			}
			patch := ts.animals.Updated[0]
			if patch.FarmID != "farm-1" {
				t.Errorf("expected patch scoped to farm-1, got %q", patch.FarmID)
			}
			if patch.Gender != "" || patch.HealthStatus != "" {
				t.Errorf("update must not apply create defaults, got %+v", patch)
			}
		})
	}
}

func TestExecute_PanicBecomesFailedResult(t *testing.T) {
	ts := newTestServices()
	ts.animals.CreateFunc = func(ctx context.Context, rec *domain.Animal, userID, farmID string) (string, error) {
		panic("boom")
	}
	ops := &domain.VoiceOperations{
		Animals: []domain.ProposedOperation{{Data: map[string]interface{}{"animalId": "A1"}}},
		Tasks:   []domain.ProposedOperation{{Data: map[string]interface{}{"title": "Vacinar bezerros"}}},
	}

	results := ts.executor().Execute(context.Background(), ops, "farm-1", "user-1")

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Success || results[0].Error != "boom" {
		t.Errorf("expected panic converted to failure, got %+v", results[0])
	}
	if !results[1].Success {
		t.Errorf("expected task to still run, got %+v", results[1])
	}
}

func TestExecute_DefaultsAndDecoding(t *testing.T) {
	ts := newTestServices()
	ops := &domain.VoiceOperations{
		Animals: []domain.ProposedOperation{{Data: map[string]interface{}{
			"name":      "Mimosa",
			"gender":    "macho",
			"birthDate": "2023-08-01",
			"weight":    "380",
			"uuid":      "injected",
			"farmUuid":  "other-farm",
		}}},
		Production: []domain.ProposedOperation{{AnimalUUID: "a-1", Data: map[string]interface{}{"type": "milk", "quantity": 18}}},
		Calendar:   []domain.ProposedOperation{{Data: map[string]interface{}{"title": "Vacinação", "startDate": "2024-03-20T08:00:00Z"}}},
		Health:     []domain.ProposedOperation{{AnimalUUID: "a-1", Data: map[string]interface{}{"nextCheckDate": "25/03/2024"}}},
	}

	results := ts.executor().Execute(context.Background(), ops, "farm-1", "user-1")
	for _, r := range results {
		if !r.Success {
			t.Fatalf("expected success, got %+v", r)
		}
	}

	animal := ts.animals.Created[0]
	if animal.Gender != domain.GenderMale {
		t.Errorf("expected gender normalized to male, got %q", animal.Gender)
	}
	if animal.Species != DefaultSpecies || animal.Status != domain.AnimalStatusActive {
		t.Errorf("expected species/status defaults, got %q/%q", animal.Species, animal.Status)
	}
	if animal.BirthDate == nil || animal.BirthDate.Format("2006-01-02") != "2023-08-01" {
		t.Errorf("expected birth date 2023-08-01, got %v", animal.BirthDate)
	}
	if animal.Weight != 380 {
		t.Errorf("expected weight 380, got %v", animal.Weight)
	}
	if animal.ID != "" || animal.FarmID != "" {
		t.Errorf("identity fields must not come from data, got id=%q farm=%q", animal.ID, animal.FarmID)
	}

	prod := ts.production.Created[0]
	if prod.Unit != "L" || prod.AnimalUUID != "a-1" || prod.Date.IsZero() {
		t.Errorf("unexpected production defaults %+v", prod)
	}

	event := ts.calendar.Created[0]
	if event.StartDate.Day() != 20 {
		t.Errorf("expected start date parsed, got %v", event.StartDate)
	}

	health := ts.health.Created[0]
	if health.Type != DefaultHealthType {
		t.Errorf("expected health type %q, got %q", DefaultHealthType, health.Type)
	}
	if health.NextCheckDate == nil || health.NextCheckDate.Day() != 25 {
		t.Errorf("expected next check date 25/03, got %v", health.NextCheckDate)
	}
}

func TestExecute_InvalidDataIsContained(t *testing.T) {
	ts := newTestServices()
	ops := &domain.VoiceOperations{
		Tasks: []domain.ProposedOperation{
			{Data: map[string]interface{}{"title": "ok", "dueDate": "amanhã cedo"}},
			{Data: map[string]interface{}{"title": "Ordenha"}},
		},
	}

	results := ts.executor().Execute(context.Background(), ops, "farm-1", "user-1")

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Success {
		t.Errorf("expected invalid date to fail, got %+v", results[0])
	}
	if !results[1].Success {
		t.Errorf("expected second task to succeed, got %+v", results[1])
	}
	if ts.tasks.CreatedCount() != 1 {
		t.Errorf("expected only the valid task created, got %d", ts.tasks.CreatedCount())
	}
}

func TestExecute_EmptyBag(t *testing.T) {
	ts := newTestServices()

	for _, ops := range []*domain.VoiceOperations{nil, {}} {
		results := ts.executor().Execute(context.Background(), ops, "farm-1", "user-1")
		if results == nil || len(results) != 0 {
			t.Errorf("expected empty non-nil results, got %v", results)
		}
	}
}

func TestExecute_SuccessCarriesServiceID(t *testing.T) {
	ts := newTestServices()
	n := 0
	ts.relations.CreateFunc = func(ctx context.Context, rec *domain.Relation, userID, farmID string) (string, error) {
		n++
		if farmID != "farm-9" || userID != "user-9" {
			return "", fmt.Errorf("wrong scope %s/%s", farmID, userID)
		}
		return fmt.Sprintf("rel-%d", n), nil
	}

	results := ts.executor().Execute(context.Background(), &domain.VoiceOperations{
		Relations: []domain.ProposedOperation{{AnimalUUID: "mother-1", Data: map[string]interface{}{"childUuid": "calf-1", "relationType": "mother"}}},
	}, "farm-9", "user-9")

	if !results[0].Success || results[0].ID != "rel-1" {
		t.Fatalf("unexpected result %+v", results[0])
	}
	if ts.relations.Created[0].ParentUUID != "mother-1" {
		t.Errorf("expected parent from animalUuid, got %q", ts.relations.Created[0].ParentUUID)
	}
}
