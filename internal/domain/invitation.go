package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InvitationStatus is the stored lifecycle state. Expiry is never stored:
// a pending invitation past ExpiresAt reports InvitationExpired at read time.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationRevoked  InvitationStatus = "revoked"
	InvitationExpired  InvitationStatus = "expired"
)

type Invitation struct {
	ID               uuid.UUID        `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrganisationID   uuid.UUID        `gorm:"column:organisation_id;type:uuid;not null;index:idx_invitations_org_status" json:"organisationId"`
	DepartmentID     *uuid.UUID       `gorm:"column:department_id;type:uuid" json:"departmentId"`
	Email            string           `gorm:"column:email;not null;index" json:"email"`
	Role             string           `gorm:"column:role;not null" json:"role"`
	InvitedBy        uuid.UUID        `gorm:"column:invited_by;type:uuid;not null" json:"invitedBy"`
	Token            string           `gorm:"column:token;not null;uniqueIndex" json:"-"`
	Status           InvitationStatus `gorm:"column:status;type:varchar(16);not null;index:idx_invitations_org_status" json:"status"`
	ExpiresAt        time.Time        `gorm:"column:expires_at;not null" json:"expiresAt"`
	AcceptedAt       *time.Time       `gorm:"column:accepted_at" json:"acceptedAt,omitempty"`
	AcceptedByUserID *string          `gorm:"column:accepted_by_user_id" json:"acceptedByUserId,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

func (Invitation) TableName() string {
	return "invitations"
}

func (i *Invitation) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// IsExpired reports whether the invitation's validity window has passed.
func (i *Invitation) IsExpired(now time.Time) bool {
	return i.ExpiresAt.Before(now)
}

// EffectiveStatus is the status every consumer must act on.
func (i *Invitation) EffectiveStatus(now time.Time) InvitationStatus {
	if i.Status == InvitationPending && i.IsExpired(now) {
		return InvitationExpired
	}
	return i.Status
}
