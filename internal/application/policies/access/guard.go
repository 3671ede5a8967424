// Package access is the single authorization guard every organisation-scoped
// operation runs before touching state.
package access

import (
	"errors"

	"axis-backend/internal/domain"
	"axis-backend/internal/pkg/apperr"
	"axis-backend/internal/pkg/constants"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNoAccess is returned when the caller has no active membership in the
// organisation. It is deliberately indistinguishable from a missing organisation.
var ErrNoAccess = apperr.NotFound("Organisation")

// Member returns the caller's active membership in orgID.
func Member(db *gorm.DB, userID string, orgID uuid.UUID) (*domain.Employee, error) {
	if userID == "" {
		return nil, apperr.ErrAuthenticationRequired
	}
	var emp domain.Employee
	err := db.Where("user_id = ? AND organisation_id = ?", userID, orgID).First(&emp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoAccess
	}
	if err != nil {
		return nil, err
	}
	if !emp.IsActive() {
		return nil, ErrNoAccess
	}
	return &emp, nil
}

// Require returns the caller's membership if it grants permission.
func Require(db *gorm.DB, userID string, orgID uuid.UUID, permission string) (*domain.Employee, error) {
	emp, err := Member(db, userID, orgID)
	if err != nil {
		return nil, err
	}
	if !Can(emp, permission) {
		return nil, apperr.ErrNotAuthorized
	}
	return emp, nil
}

// Can reports whether an active membership grants permission. Any department
// manager may create departments regardless of role.
func Can(emp *domain.Employee, permission string) bool {
	if emp == nil || !emp.IsActive() {
		return false
	}
	if permission == constants.CreateDepartment && emp.IsManager {
		return true
	}
	return constants.AllowedRole(permission, emp.Role)
}
