package org

import (
	"context"
	"errors"
	"strings"
	"time"

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

const ownerJobTitle = "Organisation Owner"

// Errors returned by the registry. ErrNotFound also covers organisations the
// caller is not a member of.
var (
	ErrNameRequired     = apperr.Validation("name_required", "Organisation name is required")
	ErrInvalidName      = apperr.Validation("invalid_name", "Organisation name must contain letters or digits")
	ErrDuplicateSlug    = apperr.New(apperr.KindConflict, "duplicate_slug", "Organisation with this name already exists")
	ErrMultiplePaidOrgs = apperr.New(apperr.KindConflict, "multiple_paid_organisations", "You can only have one Pro or Enterprise organisation. Please downgrade your other organisation first.")
	ErrNotFound         = apperr.NotFound("Organisation")
)

// Service is the organisation registry.
type Service struct {
	DB      *gorm.DB
	Metrics *metrics.Metrics
}

type CreateInput struct {
	Name             string  `json:"name"`
	Description      *string `json:"description"`
	SubscriptionTier string  `json:"subscriptionTier"`
}

// MyOrganisation is an organisation annotated with the caller's membership.
type MyOrganisation struct {
	domain.Organisation
	EmployeeID     uuid.UUID  `json:"employeeId"`
	MyRole         string     `json:"myRole"`
	MyDepartmentID *uuid.UUID `json:"myDepartmentId"`
}

// Detail is an organisation with live counts and the caller's membership.
type Detail struct {
	domain.Organisation
	CurrentDepartmentCount int64     `json:"currentDepartmentCount"`
	CurrentEmployeeCount   int64     `json:"currentEmployeeCount"`
	MyEmployeeID           uuid.UUID `json:"myEmployeeId"`
	MyRole                 string    `json:"myRole"`
}

// UpdateProfileInput fields left nil are unchanged.
type UpdateProfileInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Logo        *string `json:"logo"`
	Website     *string `json:"website"`
}

// Limits reports usage against the organisation's tier limits. Employee seats
// include pending invitations, matching what SendInvitation enforces.
type Limits struct {
	CanCreateDepartment bool  `json:"canCreateDepartment"`
	CanInviteEmployee   bool  `json:"canInviteEmployee"`
	DepartmentsUsed     int64 `json:"departmentsUsed"`
	EmployeesUsed       int64 `json:"employeesUsed"`
	PendingInvitations  int64 `json:"pendingInvitations"`
	DepartmentsLimit    int64 `json:"departmentsLimit"`
	EmployeesLimit      int64 `json:"employeesLimit"`
	DepartmentSpotsLeft int64 `json:"departmentSpotsLeft"`
	EmployeeSpotsLeft   int64 `json:"employeeSpotsLeft"`
}

// Create inserts the organisation and its owner membership in one transaction.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*domain.Organisation, error) {
	if userID == "" {
		return nil, apperr.ErrAuthenticationRequired
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	tier := in.SubscriptionTier
	if tier == "" {
		tier = constants.TierFree
	}
	limits, err := quota.For(tier)
	if err != nil {
		return nil, err
	}
	slug := validation.Slugify(name)
	if slug == "" {
		return nil, ErrInvalidName
	}

	org := &domain.Organisation{
		Name:               name,
		Slug:               slug,
		Description:        in.Description,
		OwnerID:            userID,
		SubscriptionTier:   tier,
		SubscriptionStatus: constants.SubscriptionActive,
		MaxDepartments:     limits.MaxDepartments,
		MaxEmployees:       limits.MaxEmployees,
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureSlugFree(tx, slug, uuid.Nil); err != nil {
			return err
		}
		if constants.IsPaidTier(tier) {
			if err := ensureNoOtherPaidOrg(tx, userID, uuid.Nil); err != nil {
				return err
			}
		}
		if err := tx.Create(org).Error; err != nil {
			return translateDuplicate(err)
		}
		jobTitle := ownerJobTitle
		owner := &domain.Employee{
			UserID:         userID,
			OrganisationID: org.ID,
			Role:           constants.Owner,
			JobTitle:       &jobTitle,
			IsManager:      true,
			Status:         domain.MembershipActive,
			JoinedAt:       time.Now(),
		}
		return tx.Create(owner).Error
	})
	if err != nil {
		return nil, err
	}
	s.Metrics.RecordOrganisationCreated()
	log.Info().Str("organisation_id", org.ID.String()).Str("slug", org.Slug).Str("tier", tier).Msg("organisation created")
	return org, nil
}

// GetMyOrganisations lists organisations where the caller is an active member.
func (s *Service) GetMyOrganisations(ctx context.Context, userID string) ([]MyOrganisation, error) {
	out := []MyOrganisation{}
	if userID == "" {
		return out, nil
	}
	var emps []domain.Employee
	if err := s.DB.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, domain.MembershipActive).
		Order("joined_at ASC").
		Find(&emps).Error; err != nil {
		return nil, err
	}
	if len(emps) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, len(emps))
	for i, e := range emps {
		ids[i] = e.OrganisationID
	}
	var orgs []domain.Organisation
	if err := s.DB.WithContext(ctx).Where("id IN ?", ids).Find(&orgs).Error; err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]domain.Organisation, len(orgs))
	for _, o := range orgs {
		byID[o.ID] = o
	}
	for _, e := range emps {
		o, ok := byID[e.OrganisationID]
		if !ok {
			continue
		}
		out = append(out, MyOrganisation{
			Organisation:   o,
			EmployeeID:     e.ID,
			MyRole:         e.Role,
			MyDepartmentID: e.DepartmentID,
		})
	}
	return out, nil
}

// GetByID returns the organisation only to active members.
func (s *Service) GetByID(ctx context.Context, userID string, orgID uuid.UUID) (*Detail, error) {
	db := s.DB.WithContext(ctx)
	emp, err := access.Member(db, userID, orgID)
	if err != nil {
		return nil, err
	}
	org, err := load(db, orgID)
	if err != nil {
		return nil, err
	}
	depts, err := quota.CountDepartments(db, orgID)
	if err != nil {
		return nil, err
	}
	active, err := quota.CountActiveEmployees(db, orgID)
	if err != nil {
		return nil, err
	}
	return &Detail{
		Organisation:           *org,
		CurrentDepartmentCount: depts,
		CurrentEmployeeCount:   active,
		MyEmployeeID:           emp.ID,
		MyRole:                 emp.Role,
	}, nil
}

// UpdateProfile changes name (and slug), description, logo and website.
func (s *Service) UpdateProfile(ctx context.Context, userID string, orgID uuid.UUID, in UpdateProfileInput) (*domain.Organisation, error) {
	var org *domain.Organisation
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := access.Require(tx, userID, orgID, constants.UpdateOrganisation); err != nil {
			return err
		}
		updates := map[string]interface{}{}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return ErrNameRequired
			}
			slug := validation.Slugify(name)
			if slug == "" {
				return ErrInvalidName
			}
			if err := ensureSlugFree(tx, slug, orgID); err != nil {
				return err
			}
			updates["name"] = name
			updates["slug"] = slug
		}
		if in.Description != nil {
			updates["description"] = *in.Description
		}
		if in.Logo != nil {
			updates["logo"] = *in.Logo
		}
		if in.Website != nil {
			updates["website"] = *in.Website
		}
		if len(updates) > 0 {
			if err := tx.Model(&domain.Organisation{}).Where("id = ?", orgID).Updates(updates).Error; err != nil {
				return translateDuplicate(err)
			}
		}
		var err error
		org, err = load(tx, orgID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return org, nil
}

// UpdateSubscription changes tier and rewrites both limits from the quota
// table. Existing departments and members are never removed when the new
// limits are lower.
func (s *Service) UpdateSubscription(ctx context.Context, userID string, orgID uuid.UUID, tier string) (*domain.Organisation, error) {
	limits, err := quota.For(tier)
	if err != nil {
		return nil, err
	}
	var org *domain.Organisation
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := access.Require(tx, userID, orgID, constants.ManageSubscription); err != nil {
			return err
		}
		if constants.IsPaidTier(tier) {
			if err := ensureNoOtherPaidOrg(tx, userID, orgID); err != nil {
				return err
			}
		}
		if err := tx.Model(&domain.Organisation{}).Where("id = ?", orgID).Updates(map[string]interface{}{
			"subscription_tier":   tier,
			"subscription_status": constants.SubscriptionActive,
			"max_departments":     limits.MaxDepartments,
			"max_employees":       limits.MaxEmployees,
		}).Error; err != nil {
			return err
		}
		var err error
		org, err = load(tx, orgID)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("organisation_id", orgID.String()).Str("tier", tier).Msg("subscription updated")
	return org, nil
}

// CompleteOnboarding is idempotent.
func (s *Service) CompleteOnboarding(ctx context.Context, userID string, orgID uuid.UUID) error {
	db := s.DB.WithContext(ctx)
	if _, err := access.Require(db, userID, orgID, constants.CompleteOnboarding); err != nil {
		return err
	}
	return db.Model(&domain.Organisation{}).Where("id = ?", orgID).Update("onboarding_completed", true).Error
}

// Delete removes the organisation and everything scoped to it.
func (s *Service) Delete(ctx context.Context, userID string, orgID uuid.UUID) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := access.Require(tx, userID, orgID, constants.DeleteOrganisation); err != nil {
			return err
		}
		if _, err := lock(tx, orgID); err != nil {
			return err
		}
		deptIDs := tx.Model(&domain.Department{}).Select("id").Where("organisation_id = ?", orgID)
		if err := tx.Where("department_id IN (?)", deptIDs).Delete(&domain.DepartmentManager{}).Error; err != nil {
			return err
		}
		for _, model := range []interface{}{&domain.Department{}, &domain.Employee{}, &domain.Invitation{}} {
			if err := tx.Where("organisation_id = ?", orgID).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Where("id = ?", orgID).Delete(&domain.Organisation{}).Error
	})
	if err != nil {
		return err
	}
	log.Info().Str("organisation_id", orgID.String()).Msg("organisation deleted")
	return nil
}

// CheckLimits is readable without membership so onboarding screens can show
// remaining capacity before the caller has joined.
func (s *Service) CheckLimits(ctx context.Context, orgID uuid.UUID) (*Limits, error) {
	db := s.DB.WithContext(ctx)
	org, err := load(db, orgID)
	if err != nil {
		return nil, err
	}
	u, err := quota.Measure(db, orgID)
	if err != nil {
		return nil, err
	}
	return &Limits{
		CanCreateDepartment: u.Departments < org.MaxDepartments,
		CanInviteEmployee:   u.Seats() < org.MaxEmployees,
		DepartmentsUsed:     u.Departments,
		EmployeesUsed:       u.ActiveEmployees,
		PendingInvitations:  u.PendingInvitations,
		DepartmentsLimit:    org.MaxDepartments,
		EmployeesLimit:      org.MaxEmployees,
		DepartmentSpotsLeft: spotsLeft(org.MaxDepartments, u.Departments),
		EmployeeSpotsLeft:   spotsLeft(org.MaxEmployees, u.Seats()),
	}, nil
}

func spotsLeft(limit, used int64) int64 {
	if used >= limit {
		return 0
	}
	return limit - used
}

func load(db *gorm.DB, orgID uuid.UUID) (*domain.Organisation, error) {
	var org domain.Organisation
	err := db.Where("id = ?", orgID).First(&org).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func lock(tx *gorm.DB, orgID uuid.UUID) (*domain.Organisation, error) {
	return load(database.ForUpdate(tx), orgID)
}

func ensureSlugFree(tx *gorm.DB, slug string, except uuid.UUID) error {
	q := tx.Model(&domain.Organisation{}).Where("slug = ?", slug)
	if except != uuid.Nil {
		q = q.Where("id <> ?", except)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return ErrDuplicateSlug.WithDetails(map[string]interface{}{"slug": slug})
	}
	return nil
}

// ensureNoOtherPaidOrg locks the owner's organisations so two concurrent
// upgrades cannot both pass.
func ensureNoOtherPaidOrg(tx *gorm.DB, ownerID string, except uuid.UUID) error {
	var owned []domain.Organisation
	if err := database.ForUpdate(tx).Where("owner_id = ?", ownerID).Find(&owned).Error; err != nil {
		return err
	}
	for _, o := range owned {
		if o.ID != except && constants.IsPaidTier(o.SubscriptionTier) {
			return ErrMultiplePaidOrgs.WithDetails(map[string]interface{}{"organisationId": o.ID})
		}
	}
	return nil
}

func translateDuplicate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateSlug
	}
	return err
}
