package access

import (
	"testing"

	"axis-backend/internal/domain"
	"axis-backend/internal/pkg/apperr"
	"axis-backend/internal/pkg/constants"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupGuardDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.Employee{}))
	return db
}

func addEmployee(t *testing.T, db *gorm.DB, userID string, orgID uuid.UUID, role string, status domain.MembershipStatus) *domain.Employee {
	emp := &domain.Employee{UserID: userID, OrganisationID: orgID, Role: role, Status: status}
	require.NoError(t, db.Create(emp).Error)
	return emp
}

func TestMember_Unauthenticated(t *testing.T) {
	db := setupGuardDB(t)
	_, err := Member(db, "", uuid.New())
	assert.ErrorIs(t, err, apperr.ErrAuthenticationRequired)
}

func TestMember_NoMembershipLooksLikeNotFound(t *testing.T) {
	db := setupGuardDB(t)
	_, err := Member(db, "stranger", uuid.New())
	assert.ErrorIs(t, err, ErrNoAccess)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestMember_RemovedMembership(t *testing.T) {
	db := setupGuardDB(t)
	orgID := uuid.New()
	addEmployee(t, db, "u1", orgID, constants.Member, domain.MembershipRemoved)
	_, err := Member(db, "u1", orgID)
	assert.ErrorIs(t, err, ErrNoAccess)
}

func TestRequire_RoleTable(t *testing.T) {
	db := setupGuardDB(t)
	orgID := uuid.New()
	addEmployee(t, db, "owner", orgID, constants.Owner, domain.MembershipActive)
	addEmployee(t, db, "admin", orgID, constants.Admin, domain.MembershipActive)
	addEmployee(t, db, "member", orgID, constants.Member, domain.MembershipActive)

	_, err := Require(db, "owner", orgID, constants.ManageSubscription)
	assert.NoError(t, err)
	_, err = Require(db, "admin", orgID, constants.ManageSubscription)
	assert.ErrorIs(t, err, apperr.ErrNotAuthorized)
	_, err = Require(db, "admin", orgID, constants.InviteMembers)
	assert.NoError(t, err)
	_, err = Require(db, "member", orgID, constants.InviteMembers)
	assert.ErrorIs(t, err, apperr.ErrNotAuthorized)
}

func TestCan_ManagerMayCreateDepartment(t *testing.T) {
	emp := &domain.Employee{Role: constants.Member, Status: domain.MembershipActive, IsManager: true}
	assert.True(t, Can(emp, constants.CreateDepartment))
	assert.False(t, Can(emp, constants.ManageDepartments))

	emp.IsManager = false
	assert.False(t, Can(emp, constants.CreateDepartment))
	assert.False(t, Can(nil, constants.ViewOrganisation))
}
