package invitations

import (
	"testing"
	"time"

	"axis-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupPolicyDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.User{}, &domain.Employee{}, &domain.Invitation{}))
	return db
}

func TestValidateInviteCreation_AlreadyMember(t *testing.T) {
	db := setupPolicyDB(t)
	orgID := uuid.New()
	require.NoError(t, db.Create(&domain.User{ID: "u1", Name: "U", Email: "Member@Test.com"}).Error)
	require.NoError(t, db.Create(&domain.Employee{UserID: "u1", OrganisationID: orgID, Role: "member", Status: domain.MembershipActive}).Error)

	err := ValidateInviteCreation(db, "member@test.com", orgID)
	assert.ErrorIs(t, err, ErrAlreadyMember)

	assert.NoError(t, ValidateInviteCreation(db, "member@test.com", uuid.New()))
}

func TestValidateInviteCreation_RemovedMemberMayBeReinvited(t *testing.T) {
	db := setupPolicyDB(t)
	orgID := uuid.New()
	require.NoError(t, db.Create(&domain.User{ID: "u1", Name: "U", Email: "gone@test.com"}).Error)
	require.NoError(t, db.Create(&domain.Employee{UserID: "u1", OrganisationID: orgID, Role: "member", Status: domain.MembershipRemoved}).Error)

	assert.NoError(t, ValidateInviteCreation(db, "gone@test.com", orgID))
}

func TestValidateInviteCreation_DuplicatePending(t *testing.T) {
	db := setupPolicyDB(t)
	orgID := uuid.New()
	require.NoError(t, db.Create(&domain.Invitation{
		OrganisationID: orgID, Email: "a@b.com", Role: "member", InvitedBy: uuid.New(),
		Token: "t1", Status: domain.InvitationPending, ExpiresAt: time.Now().Add(time.Hour),
	}).Error)

	assert.ErrorIs(t, ValidateInviteCreation(db, "a@b.com", orgID), ErrDuplicatePending)

	require.NoError(t, db.Model(&domain.Invitation{}).Where("token = ?", "t1").Update("status", domain.InvitationRevoked).Error)
	assert.NoError(t, ValidateInviteCreation(db, "a@b.com", orgID))
}

func TestValidateInviteUsable_Precedence(t *testing.T) {
	now := time.Now()
	assert.ErrorIs(t, ValidateInviteUsable(nil, now), ErrNotFound)

	used := &domain.Invitation{Status: domain.InvitationAccepted, ExpiresAt: now.Add(-time.Hour)}
	assert.ErrorIs(t, ValidateInviteUsable(used, now), ErrAlreadyUsed)

	expired := &domain.Invitation{Status: domain.InvitationPending, ExpiresAt: now.Add(-time.Hour)}
	assert.ErrorIs(t, ValidateInviteUsable(expired, now), ErrExpired)
}

func TestValidateInviteAcceptance_EmailMismatch(t *testing.T) {
	now := time.Now()
	inv := &domain.Invitation{Email: "z@y.com", Status: domain.InvitationPending, ExpiresAt: now.Add(time.Hour)}
	assert.ErrorIs(t, ValidateInviteAcceptance(inv, "x@y.com", now), ErrEmailMismatch)
	assert.NoError(t, ValidateInviteAcceptance(inv, "Z@Y.com", now))
}
