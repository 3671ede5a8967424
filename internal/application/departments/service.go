// Package departments is the department catalog of an organisation, with
// manager assignments and the per-tier department quota.
package departments

import (
	"context"
	"errors"
	"strings"
	"time"

	"axis-backend/internal/application/employees"
	"axis-backend/internal/application/identity"
	"axis-backend/internal/application/policies/access"
	"axis-backend/internal/application/policies/quota"
	"axis-backend/internal/domain"
	"axis-backend/internal/infrastructure/database"
	"axis-backend/internal/metrics"
	"axis-backend/internal/pkg/apperr"
	"axis-backend/internal/pkg/constants"
	"axis-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Errors returned by the catalog. ErrNotFound also covers departments in
// organisations the caller cannot see.
var (
	ErrNotFound         = apperr.NotFound("Department")
	ErrManagerNotFound  = apperr.NotFound("Manager")
	ErrEmployeeNotFound = apperr.NotFound("Employee")
	ErrNameRequired     = apperr.Validation("name_required", "Department name is required")
	ErrInvalidColor     = apperr.Validation("invalid_color", "Color must be a hex value like #3b82f6")
	ErrAlreadyManager   = apperr.New(apperr.KindConflict, "already_manager", "Employee is already a manager of this department")
	errOrganisationGone = apperr.NotFound("Organisation")
)

type Service struct {
	DB        *gorm.DB
	Directory identity.Directory
	Metrics   *metrics.Metrics
	Now       func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

type CreateInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
}

// UpdateInput fields left nil are unchanged.
type UpdateInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
}

// Manager is a manager link with the managing membership and its profile.
type Manager struct {
	domain.DepartmentManager
	Employee domain.Employee   `json:"employee"`
	User     *identity.Profile `json:"user"`
}

type WithManagers struct {
	domain.Department
	Managers []Manager `json:"managers"`
}

type Detail struct {
	domain.Department
	Managers  []Manager          `json:"managers"`
	Employees []employees.Member `json:"employees"`
}

// Create adds a department under the organisation's quota and makes the
// caller its primary manager.
func (s *Service) Create(ctx context.Context, userID string, orgID uuid.UUID, in CreateInput) (*domain.Department, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	color := domain.DefaultDepartmentColor
	if in.Color != nil && *in.Color != "" {
		if !validation.IsValidColor(*in.Color) {
			return nil, ErrInvalidColor
		}
		color = *in.Color
	}

	var dept *domain.Department
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		caller, err := access.Require(tx, userID, orgID, constants.CreateDepartment)
		if err != nil {
			return err
		}
		var org domain.Organisation
		if err := database.ForUpdate(tx).Where("id = ?", orgID).First(&org).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errOrganisationGone
			}
			return err
		}
		if err := quota.CheckDepartment(tx, &org); err != nil {
			if apperr.IsKind(err, apperr.KindQuotaExceeded) {
				s.Metrics.RecordQuotaRejection(quota.ResourceDepartments, org.SubscriptionTier)
			}
			return err
		}
		dept = &domain.Department{
			OrganisationID: orgID,
			Name:           name,
			Description:    in.Description,
			Color:          color,
		}
		if err := tx.Create(dept).Error; err != nil {
			return err
		}
		if err := tx.Create(&domain.DepartmentManager{
			DepartmentID: dept.ID,
			EmployeeID:   caller.ID,
			IsPrimary:    true,
			AssignedAt:   s.now(),
		}).Error; err != nil {
			return err
		}
		return tx.Model(&domain.Employee{}).Where("id = ?", caller.ID).Update("is_manager", true).Error
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("organisation_id", orgID.String()).Str("department_id", dept.ID.String()).Msg("department created")
	return dept, nil
}

// GetByOrganisation lists departments in creation order with their managers.
// Callers without access get an empty list.
func (s *Service) GetByOrganisation(ctx context.Context, userID string, orgID uuid.UUID) ([]WithManagers, error) {
	db := s.DB.WithContext(ctx)
	out := []WithManagers{}
	if _, err := access.Member(db, userID, orgID); err != nil {
		if hidden(err) {
			return out, nil
		}
		return nil, err
	}
	var depts []domain.Department
	if err := db.Where("organisation_id = ?", orgID).Order("created_at ASC").Find(&depts).Error; err != nil {
		return nil, err
	}
	if len(depts) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, len(depts))
	for i, d := range depts {
		ids[i] = d.ID
	}
	managers, err := s.managersOf(ctx, db, ids)
	if err != nil {
		return nil, err
	}
	for _, d := range depts {
		ms := managers[d.ID]
		if ms == nil {
			ms = []Manager{}
		}
		out = append(out, WithManagers{Department: d, Managers: ms})
	}
	return out, nil
}

// GetByID returns the department with managers and active employees, or nil
// if it does not exist or the caller cannot see it.
func (s *Service) GetByID(ctx context.Context, userID string, deptID uuid.UUID) (*Detail, error) {
	db := s.DB.WithContext(ctx)
	dept, err := load(db, deptID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if _, err := access.Member(db, userID, dept.OrganisationID); err != nil {
		if hidden(err) {
			return nil, nil
		}
		return nil, err
	}
	managers, err := s.managersOf(ctx, db, []uuid.UUID{dept.ID})
	if err != nil {
		return nil, err
	}
	var emps []domain.Employee
	if err := db.Where("department_id = ? AND status = ?", dept.ID, domain.MembershipActive).
		Order("joined_at ASC").
		Find(&emps).Error; err != nil {
		return nil, err
	}
	profiles, err := s.profiles(ctx, userIDsOf(emps))
	if err != nil {
		return nil, err
	}
	members := make([]employees.Member, 0, len(emps))
	for _, e := range emps {
		members = append(members, employees.Member{Employee: e, User: profiles[e.UserID]})
	}
	ms := managers[dept.ID]
	if ms == nil {
		ms = []Manager{}
	}
	return &Detail{Department: *dept, Managers: ms, Employees: members}, nil
}

// Update is allowed to owners and admins, and to managers of this department.
func (s *Service) Update(ctx context.Context, userID string, deptID uuid.UUID, in UpdateInput) (*domain.Department, error) {
	var dept *domain.Department
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		dept, err = load(tx, deptID)
		if err != nil {
			return err
		}
		caller, err := access.Member(tx, userID, dept.OrganisationID)
		if err != nil {
			return hideOrganisation(err)
		}
		if !access.Can(caller, constants.ManageDepartments) {
			managing, err := isManagerOf(tx, dept.ID, caller.ID)
			if err != nil {
				return err
			}
			if !managing {
				return apperr.ErrNotAuthorized
			}
		}
		updates := map[string]interface{}{}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return ErrNameRequired
			}
			updates["name"] = name
		}
		if in.Description != nil {
			updates["description"] = *in.Description
		}
		if in.Color != nil {
			if !validation.IsValidColor(*in.Color) {
				return ErrInvalidColor
			}
			updates["color"] = *in.Color
		}
		if len(updates) > 0 {
			if err := tx.Model(&domain.Department{}).Where("id = ?", dept.ID).Updates(updates).Error; err != nil {
				return err
			}
		}
		dept, err = load(tx, dept.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return dept, nil
}

// AddManager links an active member of the department's organisation as a
// manager. A primary manager replaces any previous primary.
func (s *Service) AddManager(ctx context.Context, userID string, deptID, employeeID uuid.UUID, isPrimary bool) (*domain.DepartmentManager, error) {
	var link *domain.DepartmentManager
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dept, err := s.authorizeLeadChange(tx, userID, deptID)
		if err != nil {
			return err
		}
		var target domain.Employee
		err = tx.Where("id = ? AND organisation_id = ? AND status = ?", employeeID, dept.OrganisationID, domain.MembershipActive).
			First(&target).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEmployeeNotFound
		}
		if err != nil {
			return err
		}
		managing, err := isManagerOf(tx, dept.ID, target.ID)
		if err != nil {
			return err
		}
		if managing {
			return ErrAlreadyManager
		}
		if isPrimary {
			if err := tx.Model(&domain.DepartmentManager{}).
				Where("department_id = ? AND is_primary = ?", dept.ID, true).
				Update("is_primary", false).Error; err != nil {
				return err
			}
		}
		link = &domain.DepartmentManager{
			DepartmentID: dept.ID,
			EmployeeID:   target.ID,
			IsPrimary:    isPrimary,
			AssignedAt:   s.now(),
		}
		if err := tx.Create(link).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyManager
			}
			return err
		}
		return tx.Model(&domain.Employee{}).Where("id = ?", target.ID).Update("is_manager", true).Error
	})
	if err != nil {
		return nil, err
	}
	return link, nil
}

// RemoveManager deletes the link and clears the employee's manager flag once
// no links remain anywhere.
func (s *Service) RemoveManager(ctx context.Context, userID string, deptID, employeeID uuid.UUID) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dept, err := s.authorizeLeadChange(tx, userID, deptID)
		if err != nil {
			return err
		}
		res := tx.Where("department_id = ? AND employee_id = ?", dept.ID, employeeID).Delete(&domain.DepartmentManager{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrManagerNotFound
		}
		return syncManagerFlags(tx, []uuid.UUID{employeeID})
	})
}

// Delete removes the department and its manager links and detaches its
// members and pending invitations.
func (s *Service) Delete(ctx context.Context, userID string, deptID uuid.UUID) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dept, err := load(tx, deptID)
		if err != nil {
			return err
		}
		if _, err := access.Require(tx, userID, dept.OrganisationID, constants.ManageDepartments); err != nil {
			return hideOrganisation(err)
		}
		var managerIDs []uuid.UUID
		if err := tx.Model(&domain.DepartmentManager{}).Where("department_id = ?", dept.ID).Pluck("employee_id", &managerIDs).Error; err != nil {
			return err
		}
		if err := tx.Where("department_id = ?", dept.ID).Delete(&domain.DepartmentManager{}).Error; err != nil {
			return err
		}
		if err := syncManagerFlags(tx, managerIDs); err != nil {
			return err
		}
		if err := tx.Model(&domain.Employee{}).Where("department_id = ?", dept.ID).Update("department_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&domain.Invitation{}).
			Where("department_id = ? AND status = ?", dept.ID, domain.InvitationPending).
			Update("department_id", nil).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", dept.ID).Delete(&domain.Department{}).Error
	})
	if err != nil {
		return err
	}
	log.Info().Str("department_id", deptID.String()).Msg("department deleted")
	return nil
}

func (s *Service) authorizeLeadChange(tx *gorm.DB, userID string, deptID uuid.UUID) (*domain.Department, error) {
	dept, err := load(tx, deptID)
	if err != nil {
		return nil, err
	}
	if _, err := access.Require(tx, userID, dept.OrganisationID, constants.ManageDepartmentLead); err != nil {
		return nil, hideOrganisation(err)
	}
	return dept, nil
}

func (s *Service) managersOf(ctx context.Context, db *gorm.DB, deptIDs []uuid.UUID) (map[uuid.UUID][]Manager, error) {
	var links []domain.DepartmentManager
	if err := db.Where("department_id IN ?", deptIDs).Order("assigned_at ASC").Find(&links).Error; err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return map[uuid.UUID][]Manager{}, nil
	}
	empIDs := make([]uuid.UUID, len(links))
	for i, l := range links {
		empIDs[i] = l.EmployeeID
	}
	var emps []domain.Employee
	if err := db.Where("id IN ?", empIDs).Find(&emps).Error; err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]domain.Employee, len(emps))
	for _, e := range emps {
		byID[e.ID] = e
	}
	profiles, err := s.profiles(ctx, userIDsOf(emps))
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID][]Manager, len(deptIDs))
	for _, l := range links {
		emp, ok := byID[l.EmployeeID]
		if !ok {
			continue
		}
		out[l.DepartmentID] = append(out[l.DepartmentID], Manager{
			DepartmentManager: l,
			Employee:          emp,
			User:              profiles[emp.UserID],
		})
	}
	return out, nil
}

func (s *Service) profiles(ctx context.Context, userIDs []string) (map[string]*identity.Profile, error) {
	if s.Directory == nil {
		return map[string]*identity.Profile{}, nil
	}
	return identity.Profiles(ctx, s.Directory, userIDs)
}

func userIDsOf(emps []domain.Employee) []string {
	ids := make([]string, len(emps))
	for i, e := range emps {
		ids[i] = e.UserID
	}
	return ids
}

func load(db *gorm.DB, deptID uuid.UUID) (*domain.Department, error) {
	var dept domain.Department
	err := db.Where("id = ?", deptID).First(&dept).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &dept, nil
}

func isManagerOf(tx *gorm.DB, deptID, employeeID uuid.UUID) (bool, error) {
	var n int64
	err := tx.Model(&domain.DepartmentManager{}).
		Where("department_id = ? AND employee_id = ?", deptID, employeeID).
		Count(&n).Error
	return n > 0, err
}

// syncManagerFlags clears is_manager on employees with no remaining links.
func syncManagerFlags(tx *gorm.DB, employeeIDs []uuid.UUID) error {
	if len(employeeIDs) == 0 {
		return nil
	}
	linked := tx.Model(&domain.DepartmentManager{}).Select("employee_id")
	return tx.Model(&domain.Employee{}).
		Where("id IN ? AND id NOT IN (?)", employeeIDs, linked).
		Update("is_manager", false).Error
}

// hideOrganisation reports a department in another tenant as missing.
func hideOrganisation(err error) error {
	if errors.Is(err, access.ErrNoAccess) {
		return ErrNotFound
	}
	return err
}

func hidden(err error) bool {
	return errors.Is(err, access.ErrNoAccess) || errors.Is(err, apperr.ErrAuthenticationRequired)
}
