package domain

import "time"

// DashboardSummary is the farm overview shown on the home screen.
type DashboardSummary struct {
	FarmID           string             `json:"farmUuid"`
	TotalAnimals     int                `json:"totalAnimals"`
	ActiveAnimals    int                `json:"activeAnimals"`
	BySpecies        map[string]int     `json:"bySpecies"`
	ByHealthStatus   map[string]int     `json:"byHealthStatus"`
	PendingTasks     int                `json:"pendingTasks"`
	OverdueTasks     int                `json:"overdueTasks"`
	UpcomingEvents   []CalendarEvent    `json:"upcomingEvents"`
	FollowUps        int                `json:"healthFollowUps"`
	ProductionTotals map[string]float64 `json:"productionTotals"` // type -> quantity, last 30 days
	GeneratedAt      time.Time          `json:"generatedAt"`
}

// DomainEvent is published on every mutation of a farm record.
type DomainEvent struct {
	Type       string      `json:"type"` // e.g. animal.created
	FarmID     string      `json:"farmUuid"`
	EntityID   string      `json:"entityUuid"`
	UserID     string      `json:"userUuid,omitempty"`
	Payload    interface{} `json:"payload,omitempty"`
	OccurredAt time.Time   `json:"occurredAt"`
}
