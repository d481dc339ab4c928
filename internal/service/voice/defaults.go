package voice

import (
	"strings"
	"time"

	"github.com/seu-repo/agrovoz/internal/domain"
)

// Values used when the extraction service leaves a required field out.
const (
	DefaultGender       = domain.GenderFemale
	DefaultHealthStatus = domain.HealthStatusUnknown
	DefaultSpecies      = "cattle"
	DefaultHealthType   = domain.HealthRecordCheckup
	DefaultTaskStatus   = domain.TaskStatusPending
	DefaultTaskPriority = domain.TaskPriorityMedium
)

// Spoken Portuguese values the model sometimes returns untranslated.
var genderAliases = map[string]domain.Gender{
	"femea":  domain.GenderFemale,
	"fêmea":  domain.GenderFemale,
	"vaca":   domain.GenderFemale,
	"f":      domain.GenderFemale,
	"macho":  domain.GenderMale,
	"touro":  domain.GenderMale,
	"boi":    domain.GenderMale,
	"m":      domain.GenderMale,
	"female": domain.GenderFemale,
	"male":   domain.GenderMale,
}

func normalizeGender(g domain.Gender) domain.Gender {
	if g == "" {
		return ""
	}
	if v, ok := genderAliases[strings.ToLower(strings.TrimSpace(string(g)))]; ok {
		return v
	}
	return g
}

func animalDefaults(a *domain.Animal, op domain.ProposedOperation, now time.Time) {
	a.Gender = normalizeGender(a.Gender)
	if op.Kind() != domain.OperationCreate {
		return
	}
	if a.Gender == "" {
		a.Gender = DefaultGender
	}
	if a.HealthStatus == "" {
		a.HealthStatus = DefaultHealthStatus
	}
	if a.Status == "" {
		a.Status = domain.AnimalStatusActive
	}
	if a.Species == "" {
		a.Species = DefaultSpecies
	}
}

func healthDefaults(h *domain.HealthRecord, op domain.ProposedOperation, now time.Time) {
	if h.AnimalUUID == "" {
		h.AnimalUUID = op.AnimalUUID
	}
	if op.Kind() != domain.OperationCreate {
		return
	}
	if h.Type == "" {
		h.Type = DefaultHealthType
	}
	if h.Date.IsZero() {
		h.Date = now
	}
}

func productionDefaults(p *domain.ProductionRecord, op domain.ProposedOperation, now time.Time) {
	if p.AnimalUUID == "" {
		p.AnimalUUID = op.AnimalUUID
	}
	if op.Kind() != domain.OperationCreate {
		return
	}
	if p.Date.IsZero() {
		p.Date = now
	}
	if p.Unit == "" {
		p.Unit = p.Type.DefaultUnit()
	}
}

func taskDefaults(t *domain.Task, op domain.ProposedOperation, now time.Time) {
	if t.AnimalUUID == "" {
		t.AnimalUUID = op.AnimalUUID
	}
	if op.Kind() != domain.OperationCreate {
		return
	}
	if t.Status == "" {
		t.Status = DefaultTaskStatus
	}
	if t.Priority == "" {
		t.Priority = DefaultTaskPriority
	}
}

func relationDefaults(r *domain.Relation, op domain.ProposedOperation, now time.Time) {
	if r.ParentUUID == "" {
		r.ParentUUID = op.AnimalUUID
	}
}

func calendarDefaults(e *domain.CalendarEvent, op domain.ProposedOperation, now time.Time) {
	if e.AnimalUUID == "" {
		e.AnimalUUID = op.AnimalUUID
	}
	if op.Kind() != domain.OperationCreate {
		return
	}
	if e.StartDate.IsZero() {
		e.StartDate = now
		e.AllDay = true
	}
}
