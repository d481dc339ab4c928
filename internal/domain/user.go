package domain

import (
	"time"
)

type UserRole string

const (
	UserRoleOwner    UserRole = "owner"
	UserRoleManager  UserRole = "manager"
	UserRoleEmployee UserRole = "employee"
)

const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

type User struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	FarmID    string    `json:"farmUuid" gorm:"index"`
	Name      string    `json:"name"`
	Email     string    `json:"email" gorm:"uniqueIndex"`
	Phone     string    `json:"phone,omitempty"`
	Password  string    `json:"-"` // Hashed password
	Role      UserRole  `json:"role"`
	Status    string    `json:"status"` // active, inactive
	Language  string    `json:"language" gorm:"default:pt-BR"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
