package domain

import "time"

type HealthRecordType string

const (
	HealthRecordVaccination HealthRecordType = "vaccination"
	HealthRecordTreatment   HealthRecordType = "treatment"
	HealthRecordCheckup     HealthRecordType = "checkup"
	HealthRecordIllness     HealthRecordType = "illness"
	HealthRecordDeworming   HealthRecordType = "deworming"
)

// HealthRecord belongs to exactly one animal.
type HealthRecord struct {
	Audit
	AnimalUUID    string           `json:"animalUuid" gorm:"index;not null"`
	Type          HealthRecordType `json:"type"`
	Description   string           `json:"description,omitempty"`
	Diagnosis     string           `json:"diagnosis,omitempty"`
	Treatment     string           `json:"treatment,omitempty"`
	Medication    string           `json:"medication,omitempty"`
	Dosage        string           `json:"dosage,omitempty"`
	Veterinarian  string           `json:"veterinarian,omitempty"`
	Date          time.Time        `json:"date"`
	NextCheckDate *time.Time       `json:"nextCheckDate,omitempty"`
	Cost          float64          `json:"cost,omitempty"`
	HealthStatus  HealthStatus     `json:"healthStatus,omitempty"`
	Notes         string           `json:"notes,omitempty"`
}

type ProductionType string

const (
	ProductionMilk   ProductionType = "milk"
	ProductionEggs   ProductionType = "eggs"
	ProductionWeight ProductionType = "weight"
	ProductionWool   ProductionType = "wool"
	ProductionMeat   ProductionType = "meat"
)

// ProductionRecord is a measured output. AnimalUUID is optional for
// herd-level records (e.g. a whole milking).
type ProductionRecord struct {
	Audit
	AnimalUUID string         `json:"animalUuid,omitempty" gorm:"index"`
	Type       ProductionType `json:"type"`
	Quantity   float64        `json:"quantity"`
	Unit       string         `json:"unit"`
	Date       time.Time      `json:"date"`
	Quality    string         `json:"quality,omitempty"`
	Notes      string         `json:"notes,omitempty"`
}

// DefaultUnit returns the unit a production type is measured in.
func (t ProductionType) DefaultUnit() string {
	switch t {
	case ProductionMilk:
		return "L"
	case ProductionEggs:
		return "un"
	case ProductionWeight, ProductionWool, ProductionMeat:
		return "kg"
	default:
		return ""
	}
}

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityUrgent TaskPriority = "urgent"
)

type Task struct {
	Audit
	Title         string       `json:"title"`
	Description   string       `json:"description,omitempty"`
	Status        TaskStatus   `json:"status"`
	Priority      TaskPriority `json:"priority"`
	Category      string       `json:"category,omitempty"`
	AssignedTo    string       `json:"assignedTo,omitempty"`
	AssigneeEmail string       `json:"assigneeEmail,omitempty"`
	AnimalUUID    string       `json:"animalUuid,omitempty" gorm:"index"`
	DueDate       *time.Time   `json:"dueDate,omitempty"`
	CompletedAt   *time.Time   `json:"completedAt,omitempty"`
}

type RelationType string

const (
	RelationMother    RelationType = "mother"
	RelationFather    RelationType = "father"
	RelationSibling   RelationType = "sibling"
	RelationOffspring RelationType = "offspring"
)

// Relation links two animals of the same farm (genealogy).
type Relation struct {
	Audit
	ParentUUID string       `json:"parentUuid" gorm:"index;not null"`
	ChildUUID  string       `json:"childUuid" gorm:"index;not null"`
	Type       RelationType `json:"relationType"`
	Notes      string       `json:"notes,omitempty"`
}

type CalendarEvent struct {
	Audit
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Type        string     `json:"type,omitempty"` // vaccination, birth, breeding, sale, other
	StartDate   time.Time  `json:"startDate"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	AllDay      bool       `json:"allDay"`
	AnimalUUID  string     `json:"animalUuid,omitempty" gorm:"index"`
	Location    string     `json:"location,omitempty"`
	Reminder    bool       `json:"reminder"`
}
