package domain

import (
	"time"
)

type Gender string

const (
	GenderFemale Gender = "female"
	GenderMale   Gender = "male"
)

type HealthStatus string

const (
	HealthStatusHealthy    HealthStatus = "healthy"
	HealthStatusSick       HealthStatus = "sick"
	HealthStatusTreatment  HealthStatus = "treatment"
	HealthStatusQuarantine HealthStatus = "quarantine"
	HealthStatusUnknown    HealthStatus = "unknown"
)

type AnimalStatus string

const (
	AnimalStatusActive AnimalStatus = "active"
	AnimalStatusSold   AnimalStatus = "sold"
	AnimalStatusDead   AnimalStatus = "dead"
)

// Animal is one head of livestock. AnimalID is the farm's own tag (ear tag)
// and is distinct from the record uuid.
type Animal struct {
	Audit
	AnimalID           string       `json:"animalId" gorm:"index"`
	Name               string       `json:"name,omitempty"`
	Species            string       `json:"species"`
	Breed              string       `json:"breed,omitempty"`
	Gender             Gender       `json:"gender"`
	BirthDate          *time.Time   `json:"birthDate,omitempty"`
	Weight             float64      `json:"weight,omitempty"`
	Color              string       `json:"color,omitempty"`
	Location           string       `json:"location,omitempty"`
	HealthStatus       HealthStatus `json:"healthStatus"`
	Status             AnimalStatus `json:"status"`
	ReproductiveStatus string       `json:"reproductiveStatus,omitempty"`
	Notes              string       `json:"notes,omitempty"`
}
