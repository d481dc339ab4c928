package auth

import (
	"go.uber.org/zap"

	"github.com/seu-repo/agrovoz/internal/domain"
)

// Permission represents a single resource-action pair.
type Permission struct {
	Resource string
	Action   string
}

const (
	ResourceRecords   = "records"
	ResourceVoice     = "voice"
	ResourceDashboard = "dashboard"
	ResourceUsers     = "users"

	ActionRead   = "read"
	ActionWrite  = "write"
	ActionDelete = "delete"
)

// RBACService maps farm roles to the resource/action pairs they may use.
//
//   - owner:    everything, including managing the farm's users
//   - manager:  records, voice and dashboard, including deletes
//   - employee: read and write records, voice commands, dashboard
type RBACService struct {
	permissions map[domain.UserRole]map[Permission]bool
	log         *zap.Logger
}

func NewRBACService(log *zap.Logger) *RBACService {
	employee := []Permission{
		{ResourceRecords, ActionRead},
		{ResourceRecords, ActionWrite},
		{ResourceVoice, ActionWrite},
		{ResourceDashboard, ActionRead},
	}
	manager := append([]Permission{
		{ResourceRecords, ActionDelete},
		{ResourceUsers, ActionRead},
	}, employee...)
	owner := append([]Permission{
		{ResourceUsers, ActionWrite},
		{ResourceUsers, ActionDelete},
	}, manager...)

	return &RBACService{
		permissions: map[domain.UserRole]map[Permission]bool{
			domain.UserRoleOwner:    toSet(owner),
			domain.UserRoleManager:  toSet(manager),
			domain.UserRoleEmployee: toSet(employee),
		},
		log: log,
	}
}

func toSet(perms []Permission) map[Permission]bool {
	set := make(map[Permission]bool, len(perms))
	for _, p := range perms {
		set[p] = true
	}
	return set
}

// CheckPermission reports whether role may perform action on resource.
func (s *RBACService) CheckPermission(role domain.UserRole, resource, action string) bool {
	perms, exists := s.permissions[role]
	if !exists {
		s.log.Warn("unknown role attempted access",
			zap.String("role", string(role)),
			zap.String("resource", resource),
			zap.String("action", action),
		)
		return false
	}
	if perms[Permission{Resource: resource, Action: action}] {
		return true
	}

	s.log.Warn("permission denied",
		zap.String("role", string(role)),
		zap.String("resource", resource),
		zap.String("action", action),
	)
	return false
}
