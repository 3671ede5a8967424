// Package employees is the membership ledger: who belongs to which
// organisation, in what role and department.
package employees

import (
	"context"
	"errors"
	"time"

	"axis-backend/internal/application/identity"
	"axis-backend/internal/application/policies/access"
	"axis-backend/internal/application/policies/membership"
	"axis-backend/internal/domain"
	"axis-backend/internal/pkg/apperr"
	"axis-backend/internal/pkg/constants"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type Service struct {
	DB        *gorm.DB
	Directory identity.Directory
}

// DepartmentSummary is the department shown next to a member.
type DepartmentSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Color string    `json:"color"`
}

// Member is a membership joined with the member's profile and department.
type Member struct {
	domain.Employee
	User       *identity.Profile  `json:"user"`
	Department *DepartmentSummary `json:"department"`
}

// UpdateInput fields left nil are unchanged. ClearDepartment detaches the
// member from its department and takes precedence over DepartmentID.
type UpdateInput struct {
	DepartmentID    *uuid.UUID
	ClearDepartment bool
	JobTitle        *string
	Role            *string
}

// ListByOrganisation returns active members, or an empty list when the caller
// cannot see the organisation.
func (s *Service) ListByOrganisation(ctx context.Context, userID string, orgID uuid.UUID) ([]Member, error) {
	db := s.DB.WithContext(ctx)
	out := []Member{}
	if _, err := access.Member(db, userID, orgID); err != nil {
		if hidden(err) {
			return out, nil
		}
		return nil, err
	}
	var emps []domain.Employee
	if err := db.Where("organisation_id = ? AND status = ?", orgID, domain.MembershipActive).
		Order("joined_at ASC").
		Find(&emps).Error; err != nil {
		return nil, err
	}
	return s.decorate(ctx, db, emps)
}

// GetSelf returns the caller's own membership, or nil.
func (s *Service) GetSelf(ctx context.Context, userID string, orgID uuid.UUID) (*Member, error) {
	db := s.DB.WithContext(ctx)
	emp, err := access.Member(db, userID, orgID)
	if err != nil {
		if hidden(err) {
			return nil, nil
		}
		return nil, err
	}
	members, err := s.decorate(ctx, db, []domain.Employee{*emp})
	if err != nil {
		return nil, err
	}
	return &members[0], nil
}

// Update changes department, job title or role of a membership.
func (s *Service) Update(ctx context.Context, userID string, employeeID uuid.UUID, in UpdateInput) (*domain.Employee, error) {
	var target *domain.Employee
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		target, err = s.authorizeTarget(tx, userID, employeeID)
		if err != nil {
			return err
		}
		updates := map[string]interface{}{}
		if in.Role != nil {
			if err := membership.ValidateRoleAssignment(target, *in.Role); err != nil {
				return err
			}
			updates["role"] = *in.Role
		}
		if in.JobTitle != nil {
			updates["job_title"] = *in.JobTitle
		}
		switch {
		case in.ClearDepartment:
			updates["department_id"] = nil
		case in.DepartmentID != nil:
			if err := EnsureDepartmentInOrg(tx, *in.DepartmentID, target.OrganisationID); err != nil {
				return err
			}
			updates["department_id"] = *in.DepartmentID
		}
		if len(updates) > 0 {
			if err := tx.Model(&domain.Employee{}).Where("id = ?", target.ID).Updates(updates).Error; err != nil {
				return err
			}
		}
		target, err = reload(tx, target.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return target, nil
}

// Remove deactivates a membership and drops its department manager links.
// The row is kept so a later invitation can reactivate it.
func (s *Service) Remove(ctx context.Context, userID string, employeeID uuid.UUID) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		target, err := s.authorizeTarget(tx, userID, employeeID)
		if err != nil {
			return err
		}
		if err := membership.ValidateRemoval(target); err != nil {
			return err
		}
		if err := tx.Where("employee_id = ?", target.ID).Delete(&domain.DepartmentManager{}).Error; err != nil {
			return err
		}
		return tx.Model(&domain.Employee{}).Where("id = ?", target.ID).Updates(map[string]interface{}{
			"status":        domain.MembershipRemoved,
			"department_id": nil,
			"is_manager":    false,
		}).Error
	})
	if err != nil {
		return err
	}
	log.Info().Str("employee_id", employeeID.String()).Msg("membership removed")
	return nil
}

// authorizeTarget loads an active membership and checks the caller may manage
// members of its organisation. Callers outside that organisation see NotFound.
func (s *Service) authorizeTarget(tx *gorm.DB, userID string, employeeID uuid.UUID) (*domain.Employee, error) {
	if userID == "" {
		return nil, apperr.ErrAuthenticationRequired
	}
	var target domain.Employee
	err := tx.Where("id = ?", employeeID).First(&target).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, membership.ErrMembershipNotFound
	}
	if err != nil {
		return nil, err
	}
	if _, err := access.Require(tx, userID, target.OrganisationID, constants.ManageMembers); err != nil {
		if errors.Is(err, access.ErrNoAccess) {
			return nil, membership.ErrMembershipNotFound
		}
		return nil, err
	}
	if !target.IsActive() {
		return nil, membership.ErrMembershipNotFound
	}
	return &target, nil
}

func (s *Service) decorate(ctx context.Context, db *gorm.DB, emps []domain.Employee) ([]Member, error) {
	userIDs := make([]string, 0, len(emps))
	var deptIDs []uuid.UUID
	for _, e := range emps {
		userIDs = append(userIDs, e.UserID)
		if e.DepartmentID != nil {
			deptIDs = append(deptIDs, *e.DepartmentID)
		}
	}
	profiles := map[string]*identity.Profile{}
	if s.Directory != nil {
		var err error
		if profiles, err = identity.Profiles(ctx, s.Directory, userIDs); err != nil {
			return nil, err
		}
	}
	depts := map[uuid.UUID]*DepartmentSummary{}
	if len(deptIDs) > 0 {
		var rows []domain.Department
		if err := db.Where("id IN ?", deptIDs).Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, d := range rows {
			depts[d.ID] = &DepartmentSummary{ID: d.ID, Name: d.Name, Color: d.Color}
		}
	}
	out := make([]Member, 0, len(emps))
	for _, e := range emps {
		m := Member{Employee: e, User: profiles[e.UserID]}
		if e.DepartmentID != nil {
			m.Department = depts[*e.DepartmentID]
		}
		out = append(out, m)
	}
	return out, nil
}

// reload reads a membership into a zero value so columns set to NULL come
// back nil.
func reload(tx *gorm.DB, id uuid.UUID) (*domain.Employee, error) {
	var fresh domain.Employee
	if err := tx.Where("id = ?", id).First(&fresh).Error; err != nil {
		return nil, err
	}
	return &fresh, nil
}

// EnsureDepartmentInOrg fails unless deptID names a department of orgID.
func EnsureDepartmentInOrg(tx *gorm.DB, deptID, orgID uuid.UUID) error {
	var n int64
	if err := tx.Model(&domain.Department{}).Where("id = ? AND organisation_id = ?", deptID, orgID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return membership.ErrDepartmentOutsideOrg
	}
	return nil
}

// hidden reports errors that list and self reads turn into an empty result.
func hidden(err error) bool {
	return errors.Is(err, access.ErrNoAccess) || errors.Is(err, apperr.ErrAuthenticationRequired)
}

var ErrInvitationConsumed = apperr.New(apperr.KindState, "already_used", "Invitation has already been used")

// MaterializeFromInvitation grants the membership an invitation describes and
// marks the invitation accepted, using tx for both. An existing membership for
// (userID, organisation), active or removed, is reactivated and overwritten.
func MaterializeFromInvitation(tx *gorm.DB, userID string, inv *domain.Invitation, now time.Time) (*domain.Employee, error) {
	var emp domain.Employee
	err := tx.Where("user_id = ? AND organisation_id = ?", userID, inv.OrganisationID).First(&emp).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		emp = domain.Employee{
			UserID:         userID,
			OrganisationID: inv.OrganisationID,
			DepartmentID:   inv.DepartmentID,
			Role:           inv.Role,
			IsManager:      false,
			Status:         domain.MembershipActive,
			JoinedAt:       now,
		}
		if err := tx.Create(&emp).Error; err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		updates := map[string]interface{}{
			"role":          inv.Role,
			"department_id": inv.DepartmentID,
		}
		if !emp.IsActive() {
			updates["status"] = domain.MembershipActive
			updates["is_manager"] = false
			updates["joined_at"] = now
		}
		if err := tx.Model(&domain.Employee{}).Where("id = ?", emp.ID).Updates(updates).Error; err != nil {
			return nil, err
		}
		fresh, err := reload(tx, emp.ID)
		if err != nil {
			return nil, err
		}
		emp = *fresh
	}

	res := tx.Model(&domain.Invitation{}).
		Where("id = ? AND status = ?", inv.ID, domain.InvitationPending).
		Updates(map[string]interface{}{
			"status":              domain.InvitationAccepted,
			"accepted_at":         now,
			"accepted_by_user_id": userID,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected != 1 {
		return nil, ErrInvitationConsumed
	}
	return &emp, nil
}
