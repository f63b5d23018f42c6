// Package roles holds the role predicates used by route guards.
package roles

import (
	"context"
	"log"
	"time"

	"crm-service/model"

	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleUser      Role = "user"
)

// FetchTimeout bounds the role lookup; a slow backend fails to empty roles
// instead of blocking the guard.
const FetchTimeout = 5 * time.Second

func Normalize(role string) Role {
	switch Role(role) {
	case RoleAdmin, RoleModerator, RoleUser:
		return Role(role)
	default:
		return RoleUser
	}
}

func IsAdmin(assigned []Role) bool {
	for _, r := range assigned {
		if r == RoleAdmin {
			return true
		}
	}
	return false
}

// HasAdminAccess is satisfied by admins and moderators; it gates the admin
// dashboard surface.
func HasAdminAccess(assigned []Role) bool {
	for _, r := range assigned {
		if r == RoleAdmin || r == RoleModerator {
			return true
		}
	}
	return false
}

// Fetch loads the user's roles with the FetchTimeout cap. Errors and
// timeouts return empty roles and the error so the guard can apply its
// fail-open/fail-closed policy.
func Fetch(ctx context.Context, db *gorm.DB, userID string) ([]Role, error) {
	ctx, cancel := context.WithTimeout(ctx, FetchTimeout)
	defer cancel()

	var rows []model.UserRole
	if err := db.WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		log.Printf("fetch roles for %s: %v", userID, err)
		return nil, err
	}

	assigned := make([]Role, 0, len(rows))
	for _, row := range rows {
		assigned = append(assigned, Normalize(row.Role))
	}
	return assigned, nil
}
