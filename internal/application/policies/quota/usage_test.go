package quota

import (
	"testing"
	"time"

	"axis-backend/internal/domain"
	"axis-backend/internal/pkg/apperr"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupUsageDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Department{}, &domain.Employee{}, &domain.Invitation{}))
	return db
}

func TestCheckEmployee_CountsActiveAndPending(t *testing.T) {
	db := setupUsageDB(t)
	org := &domain.Organisation{ID: uuid.New(), SubscriptionTier: "free", MaxEmployees: 3}

	require.NoError(t, db.Create(&domain.Employee{UserID: "u1", OrganisationID: org.ID, Role: "owner", Status: domain.MembershipActive}).Error)
	require.NoError(t, db.Create(&domain.Employee{UserID: "u2", OrganisationID: org.ID, Role: "member", Status: domain.MembershipRemoved}).Error)
	require.NoError(t, db.Create(&domain.Invitation{OrganisationID: org.ID, Email: "a@b.com", Role: "member", InvitedBy: uuid.New(), Token: "t1", Status: domain.InvitationPending, ExpiresAt: time.Now().Add(-time.Hour)}).Error)
	require.NoError(t, db.Create(&domain.Invitation{OrganisationID: org.ID, Email: "c@d.com", Role: "member", InvitedBy: uuid.New(), Token: "t2", Status: domain.InvitationRevoked, ExpiresAt: time.Now().Add(time.Hour)}).Error)

	u, err := Measure(db, org.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ActiveEmployees)
	assert.Equal(t, int64(1), u.PendingInvitations)
	assert.Equal(t, int64(2), u.Seats())
	require.NoError(t, CheckEmployee(db, org))

	require.NoError(t, db.Create(&domain.Invitation{OrganisationID: org.ID, Email: "e@f.com", Role: "member", InvitedBy: uuid.New(), Token: "t3", Status: domain.InvitationPending, ExpiresAt: time.Now().Add(time.Hour)}).Error)
	err = CheckEmployee(db, org)
	require.Error(t, err)
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperr.KindQuotaExceeded, ae.Kind)
	assert.Equal(t, int64(3), ae.Details["current"])
	assert.Contains(t, ae.Message, "3 employees")
}

func TestCheckDepartment(t *testing.T) {
	db := setupUsageDB(t)
	org := &domain.Organisation{ID: uuid.New(), SubscriptionTier: "free", MaxDepartments: 1}

	require.NoError(t, CheckDepartment(db, org))
	require.NoError(t, db.Create(&domain.Department{OrganisationID: org.ID, Name: "Eng", Color: domain.DefaultDepartmentColor}).Error)
	err := CheckDepartment(db, org)
	assert.True(t, apperr.IsKind(err, apperr.KindQuotaExceeded))
}
