package departments

import (
	"context"
	"fmt"
	"testing"
	"time"

	"axis-backend/internal/application/identity"
	"axis-backend/internal/application/policies/quota"
	"axis-backend/internal/domain"
	"axis-backend/internal/pkg/apperr"
	"axis-backend/internal/pkg/constants"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	svc     *Service
	db      *gorm.DB
	org     *domain.Organisation
	owner   *domain.Employee
	admin   *domain.Employee
	member  *domain.Employee
	manager *domain.Employee
}

func setupDepartments(t *testing.T, tier string) *fixture {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(domain.Models()...))

	limits, err := quota.For(tier)
	require.NoError(t, err)
	org := &domain.Organisation{Name: "Acme", Slug: "acme", OwnerID: "owner-1", SubscriptionTier: tier, SubscriptionStatus: "active", MaxDepartments: limits.MaxDepartments, MaxEmployees: limits.MaxEmployees}
	require.NoError(t, db.Create(org).Error)

	f := &fixture{svc: &Service{DB: db, Directory: &identity.GormDirectory{DB: db}}, db: db, org: org}
	f.owner = f.add(t, "owner-1", constants.Owner, true)
	f.admin = f.add(t, "admin-1", constants.Admin, false)
	f.member = f.add(t, "member-1", constants.Member, false)
	f.manager = f.add(t, "manager-1", constants.Member, true)
	return f
}

func (f *fixture) add(t *testing.T, userID, role string, isManager bool) *domain.Employee {
	require.NoError(t, f.db.Create(&domain.User{ID: userID, Name: "Name " + userID, Email: userID + "@example.com"}).Error)
	emp := &domain.Employee{UserID: userID, OrganisationID: f.org.ID, Role: role, IsManager: isManager, Status: domain.MembershipActive, JoinedAt: time.Now()}
	require.NoError(t, f.db.Create(emp).Error)
	return emp
}

func TestCreate_DefaultsAndPrimaryManager(t *testing.T) {
	f := setupDepartments(t, constants.TierPro)
	ctx := context.Background()

	dept, err := f.svc.Create(ctx, "admin-1", f.org.ID, CreateInput{Name: " Engineering "})
	require.NoError(t, err)
	assert.Equal(t, "Engineering", dept.Name)
	assert.Equal(t, domain.DefaultDepartmentColor, dept.Color)

	var links []domain.DepartmentManager
	require.NoError(t, f.db.Where("department_id = ?", dept.ID).Find(&links).Error)
	require.Len(t, links, 1)
	assert.Equal(t, f.admin.ID, links[0].EmployeeID)
	assert.True(t, links[0].IsPrimary)

	var admin domain.Employee
	require.NoError(t, f.db.First(&admin, "id = ?", f.admin.ID).Error)
	assert.True(t, admin.IsManager)
}

func TestCreate_Authorization(t *testing.T) {
	f := setupDepartments(t, constants.TierPro)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, "member-1", f.org.ID, CreateInput{Name: "Ops"})
	assert.ErrorIs(t, err, apperr.ErrNotAuthorized)

	_, err = f.svc.Create(ctx, "manager-1", f.org.ID, CreateInput{Name: "Ops"})
	assert.NoError(t, err)

	_, err = f.svc.Create(ctx, "stranger", f.org.ID, CreateInput{Name: "Ops"})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = f.svc.Create(ctx, "", f.org.ID, CreateInput{Name: "Ops"})
	assert.ErrorIs(t, err, apperr.ErrAuthenticationRequired)
}

func TestCreate_Validation(t *testing.T) {
	f := setupDepartments(t, constants.TierPro)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, "admin-1", f.org.ID, CreateInput{Name: ""})
	assert.ErrorIs(t, err, ErrNameRequired)

	bad := "blue"
	_, err = f.svc.Create(ctx, "admin-1", f.org.ID, CreateInput{Name: "Ops", Color: &bad})
	assert.ErrorIs(t, err, ErrInvalidColor)
}

func fillAndOverflow(t *testing.T, f *fixture, n int) {
	ctx := context.Background()
	for i := 0; i < n; i++ {
		_, err := f.svc.Create(ctx, "owner-1", f.org.ID, CreateInput{Name: fmt.Sprintf("Dept %d", i)})
		require.NoError(t, err, "department %d", i+1)
	}
	_, err := f.svc.Create(ctx, "owner-1", f.org.ID, CreateInput{Name: "One Too Many"})
	require.Error(t, err)
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperr.KindQuotaExceeded, ae.Kind)
	assert.Equal(t, int64(n), ae.Details["limit"])
	assert.Contains(t, ae.Message, fmt.Sprintf("%d departments", n))
	assert.Contains(t, ae.Message, f.org.SubscriptionTier)
}

func TestCreate_QuotaFree(t *testing.T) {
	fillAndOverflow(t, setupDepartments(t, constants.TierFree), 1)
}

func TestCreate_QuotaPro(t *testing.T) {
	fillAndOverflow(t, setupDepartments(t, constants.TierPro), 20)
}

func TestCreate_QuotaEnterpriseSampled(t *testing.T) {
	f := setupDepartments(t, constants.TierEnterprise)
	ctx := context.Background()
	const existing = 1000
	depts := make([]domain.Department, existing)
	for i := range depts {
		depts[i] = domain.Department{OrganisationID: f.org.ID, Name: fmt.Sprintf("D%d", i), Color: domain.DefaultDepartmentColor}
	}
	require.NoError(t, f.db.CreateInBatches(depts, 200).Error)

	_, err := f.svc.Create(ctx, "owner-1", f.org.ID, CreateInput{Name: "Still Fine"})
	require.NoError(t, err)

	// Pin the limit at the current count to exercise the enterprise boundary.
	require.NoError(t, f.db.Model(f.org).Update("max_departments", existing+1).Error)
	_, err = f.svc.Create(ctx, "owner-1", f.org.ID, CreateInput{Name: "Over"})
	assert.True(t, apperr.IsKind(err, apperr.KindQuotaExceeded))
}

func TestGetByOrganisation(t *testing.T) {
	f := setupDepartments(t, constants.TierPro)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, "owner-1", f.org.ID, CreateInput{Name: "First"})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, "admin-1", f.org.ID, CreateInput{Name: "Second"})
	require.NoError(t, err)

	got, err := f.svc.GetByOrganisation(ctx, "member-1", f.org.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, first.ID, got[0].ID)
	require.Len(t, got[0].Managers, 1)
	assert.Equal(t, f.owner.ID, got[0].Managers[0].Employee.ID)
	require.NotNil(t, got[0].Managers[0].User)
	assert.Equal(t, "owner-1@example.com", got[0].Managers[0].User.Email)

	none, err := f.svc.GetByOrganisation(ctx, "stranger", f.org.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGetByID(t *testing.T) {
	f := setupDepartments(t, constants.TierPro)
	ctx := context.Background()

	dept, err := f.svc.Create(ctx, "owner-1", f.org.ID, CreateInput{Name: "Eng"})
	require.NoError(t, err)
	require.NoError(t, f.db.Model(f.member).Update("department_id", dept.ID).Error)

	d, err := f.svc.GetByID(ctx, "member-1", dept.ID)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Len(t, d.Managers, 1)
	require.Len(t, d.Employees, 1)
	assert.Equal(t, "Name member-1", d.Employees[0].User.Name)

	d, err = f.svc.GetByID(ctx, "stranger", dept.ID)
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = f.svc.GetByID(ctx, "member-1", uuid.New())
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestUpdate_DepartmentManagerMayEdit(t *testing.T) {
	f := setupDepartments(t, constants.TierPro)
	ctx := context.Background()

	dept, err := f.svc.Create(ctx, "owner-1", f.org.ID, CreateInput{Name: "Eng"})
	require.NoError(t, err)
	other, err := f.svc.Create(ctx, "owner-1", f.org.ID, CreateInput{Name: "Ops"})
	require.NoError(t, err)
	_, err = f.svc.AddManager(ctx, "admin-1", dept.ID, f.member.ID, false)
	require.NoError(t, err)

	name := "Engineering"
	color := "#abc"
	updated, err := f.svc.Update(ctx, "member-1", dept.ID, UpdateInput{Name: &name, Color: &color})
	require.NoError(t, err)
	assert.Equal(t, "Engineering", updated.Name)
	assert.Equal(t, "#abc", updated.Color)

	_, err = f.svc.Update(ctx, "member-1", other.ID, UpdateInput{Name: &name})
	assert.ErrorIs(t, err, apperr.ErrNotAuthorized)

	_, err = f.svc.Update(ctx, "stranger", dept.ID, UpdateInput{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddRemoveManager(t *testing.T) {
	f := setupDepartments(t, constants.TierPro)
	ctx := context.Background()

	eng, err := f.svc.Create(ctx, "owner-1", f.org.ID, CreateInput{Name: "Eng"})
	require.NoError(t, err)
	ops, err := f.svc.Create(ctx, "owner-1", f.org.ID, CreateInput{Name: "Ops"})
	require.NoError(t, err)

	_, err = f.svc.AddManager(ctx, "member-1", eng.ID, f.member.ID, false)
	assert.ErrorIs(t, err, apperr.ErrNotAuthorized)

	link, err := f.svc.AddManager(ctx, "admin-1", eng.ID, f.member.ID, true)
	require.NoError(t, err)
	assert.True(t, link.IsPrimary)
	_, err = f.svc.AddManager(ctx, "admin-1", eng.ID, f.member.ID, false)
	assert.ErrorIs(t, err, ErrAlreadyManager)
	_, err = f.svc.AddManager(ctx, "admin-1", ops.ID, f.member.ID, false)
	require.NoError(t, err)

	var ownerLink domain.DepartmentManager
	require.NoError(t, f.db.Where("department_id = ? AND employee_id = ?", eng.ID, f.owner.ID).First(&ownerLink).Error)
	assert.False(t, ownerLink.IsPrimary)

	_, err = f.svc.AddManager(ctx, "admin-1", eng.ID, uuid.New(), false)
	assert.ErrorIs(t, err, ErrEmployeeNotFound)

	isManager := func() bool {
		var e domain.Employee
		require.NoError(t, f.db.First(&e, "id = ?", f.member.ID).Error)
		return e.IsManager
	}
	assert.True(t, isManager())

	require.NoError(t, f.svc.RemoveManager(ctx, "admin-1", eng.ID, f.member.ID))
	assert.True(t, isManager(), "still manages ops")
	require.NoError(t, f.svc.RemoveManager(ctx, "admin-1", ops.ID, f.member.ID))
	assert.False(t, isManager())

	assert.ErrorIs(t, f.svc.RemoveManager(ctx, "admin-1", ops.ID, f.member.ID), ErrManagerNotFound)
}

func TestDelete_Cascades(t *testing.T) {
	f := setupDepartments(t, constants.TierPro)
	ctx := context.Background()

	dept, err := f.svc.Create(ctx, "owner-1", f.org.ID, CreateInput{Name: "Eng"})
	require.NoError(t, err)
	_, err = f.svc.AddManager(ctx, "admin-1", dept.ID, f.member.ID, false)
	require.NoError(t, err)
	require.NoError(t, f.db.Model(f.member).Update("department_id", dept.ID).Error)
	inv := &domain.Invitation{OrganisationID: f.org.ID, DepartmentID: &dept.ID, Email: "x@y.com", Role: "member", InvitedBy: f.owner.ID, Token: "tok", Status: domain.InvitationPending, ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, f.db.Create(inv).Error)

	assert.ErrorIs(t, f.svc.Delete(ctx, "member-1", dept.ID), apperr.ErrNotAuthorized)
	require.NoError(t, f.svc.Delete(ctx, "admin-1", dept.ID))

	var n int64
	require.NoError(t, f.db.Model(&domain.Department{}).Where("id = ?", dept.ID).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, f.db.Model(&domain.DepartmentManager{}).Where("department_id = ?", dept.ID).Count(&n).Error)
	assert.Zero(t, n)

	var member domain.Employee
	require.NoError(t, f.db.First(&member, "id = ?", f.member.ID).Error)
	assert.Nil(t, member.DepartmentID)
	assert.False(t, member.IsManager)

	var storedInv domain.Invitation
	require.NoError(t, f.db.First(&storedInv, "id = ?", inv.ID).Error)
	assert.Nil(t, storedInv.DepartmentID)

	assert.ErrorIs(t, f.svc.Delete(ctx, "admin-1", dept.ID), ErrNotFound)
}
