package quota

import (
	"axis-backend/internal/domain"
	"axis-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ResourceDepartments = "departments"
	ResourceEmployees   = "employees"
)

// Usage is the live resource consumption of one organisation.
type Usage struct {
	Departments        int64
	ActiveEmployees    int64
	PendingInvitations int64
}

// Seats is what counts against MaxEmployees: active members plus every
// invitation still stored as pending, expired or not.
func (u Usage) Seats() int64 {
	return u.ActiveEmployees + u.PendingInvitations
}

func CountDepartments(db *gorm.DB, orgID uuid.UUID) (int64, error) {
	var n int64
	err := db.Model(&domain.Department{}).Where("organisation_id = ?", orgID).Count(&n).Error
	return n, err
}

func CountActiveEmployees(db *gorm.DB, orgID uuid.UUID) (int64, error) {
	var n int64
	err := db.Model(&domain.Employee{}).
		Where("organisation_id = ? AND status = ?", orgID, domain.MembershipActive).
		Count(&n).Error
	return n, err
}

func CountPendingInvitations(db *gorm.DB, orgID uuid.UUID) (int64, error) {
	var n int64
	err := db.Model(&domain.Invitation{}).
		Where("organisation_id = ? AND status = ?", orgID, domain.InvitationPending).
		Count(&n).Error
	return n, err
}

// Measure counts all three resources.
func Measure(db *gorm.DB, orgID uuid.UUID) (Usage, error) {
	var u Usage
	var err error
	if u.Departments, err = CountDepartments(db, orgID); err != nil {
		return u, err
	}
	if u.ActiveEmployees, err = CountActiveEmployees(db, orgID); err != nil {
		return u, err
	}
	if u.PendingInvitations, err = CountPendingInvitations(db, orgID); err != nil {
		return u, err
	}
	return u, nil
}

// CheckDepartment fails with a quota error if org cannot take another
// department. Call it with the organisation row locked.
func CheckDepartment(db *gorm.DB, org *domain.Organisation) error {
	n, err := CountDepartments(db, org.ID)
	if err != nil {
		return err
	}
	if n >= org.MaxDepartments {
		return apperr.QuotaExceeded(ResourceDepartments, org.MaxDepartments, n, org.SubscriptionTier)
	}
	return nil
}

// CheckEmployee fails with a quota error if org has no seat left for another
// invitation. Call it with the organisation row locked.
func CheckEmployee(db *gorm.DB, org *domain.Organisation) error {
	active, err := CountActiveEmployees(db, org.ID)
	if err != nil {
		return err
	}
	pending, err := CountPendingInvitations(db, org.ID)
	if err != nil {
		return err
	}
	if total := active + pending; total >= org.MaxEmployees {
		return apperr.QuotaExceeded(ResourceEmployees, org.MaxEmployees, total, org.SubscriptionTier).
			WithDetails(map[string]interface{}{
				"resource":           ResourceEmployees,
				"limit":              org.MaxEmployees,
				"current":            total,
				"tier":               org.SubscriptionTier,
				"activeEmployees":    active,
				"pendingInvitations": pending,
			})
	}
	return nil
}
