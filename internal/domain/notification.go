package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type NotificationKind string

const (
	NotificationEmailVerification NotificationKind = "email_verification"
	NotificationPasswordReset     NotificationKind = "password_reset"
	NotificationOneTimePasscode   NotificationKind = "one_time_passcode"
	NotificationMagicLink         NotificationKind = "magic_link"
	NotificationInvitation        NotificationKind = "invitation"
)

type NotificationStatus string

const (
	NotificationQueued NotificationStatus = "queued"
	NotificationSent   NotificationStatus = "sent"
	NotificationFailed NotificationStatus = "failed"
)

// Notification is an outbox row: written in the same transaction as the state
// change that caused it and delivered afterwards by the dispatcher. SubjectID
// names the record the message is about (an invitation), when there is one.
type Notification struct {
	ID        uuid.UUID          `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Kind      NotificationKind   `gorm:"column:kind;type:varchar(32);not null" json:"kind"`
	Recipient string             `gorm:"column:recipient;not null" json:"recipient"`
	SubjectID *uuid.UUID         `gorm:"column:subject_id;type:uuid;index" json:"subjectId,omitempty"`
	Params    datatypes.JSONMap  `gorm:"column:params" json:"params"`
	Status    NotificationStatus `gorm:"column:status;type:varchar(16);not null;index" json:"status"`
	Attempts  int                `gorm:"column:attempts;not null" json:"attempts"`
	LastError *string            `gorm:"column:last_error" json:"lastError,omitempty"`
	SentAt    *time.Time         `gorm:"column:sent_at" json:"sentAt,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
