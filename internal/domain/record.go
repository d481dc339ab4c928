package domain

import "time"

// Record is implemented by every farm-scoped entity stored through the
// generic record repository.
type Record interface {
	RecordID() string
	RecordFarmID() string
	// Stamp fills identity and audit fields on create.
	Stamp(id, farmID, userID string, now time.Time)
	// Touch fills audit fields on update and clears the creation fields,
	// which are never rewritten.
	Touch(userID string, now time.Time)
	// Identify sets the target of a partial update. farmID may be empty.
	// Creation fields are cleared.
	Identify(id, farmID string)
}

// Audit holds the fields every farm record carries.
type Audit struct {
	ID        string    `json:"uuid" gorm:"primaryKey"`
	FarmID    string    `json:"farmUuid" gorm:"index;not null"`
	CreatedBy string    `json:"createdBy,omitempty"`
	UpdatedBy string    `json:"updatedBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (a *Audit) RecordID() string     { return a.ID }
func (a *Audit) RecordFarmID() string { return a.FarmID }

func (a *Audit) Stamp(id, farmID, userID string, now time.Time) {
	a.ID = id
	a.FarmID = farmID
	a.CreatedBy = userID
	a.UpdatedBy = userID
	a.CreatedAt = now
	a.UpdatedAt = now
}

func (a *Audit) Touch(userID string, now time.Time) {
	a.clearCreation()
	a.UpdatedBy = userID
	a.UpdatedAt = now
}

func (a *Audit) Identify(id, farmID string) {
	a.clearCreation()
	a.ID = id
	a.FarmID = farmID
}

func (a *Audit) clearCreation() {
	a.CreatedBy = ""
	a.CreatedAt = time.Time{}
}
