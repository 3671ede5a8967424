package notifications

import (
	"context"

	"axis-backend/internal/domain"
	"axis-backend/internal/pkg/apperr"
	"axis-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Stage writes a queued notification using tx. The caller publishes the
// returned id once tx commits.
func Stage(tx *gorm.DB, kind domain.NotificationKind, recipient string, params map[string]interface{}) (*domain.Notification, error) {
	return stage(tx, nil, kind, recipient, params)
}

// StageFor stages a notification about subjectID after superseding any queued
// notification of the same kind for it, whose content is now stale.
func StageFor(tx *gorm.DB, subjectID uuid.UUID, kind domain.NotificationKind, recipient string, params map[string]interface{}) (*domain.Notification, error) {
	if _, err := Supersede(tx, subjectID, kind); err != nil {
		return nil, err
	}
	return stage(tx, &subjectID, kind, recipient, params)
}

// Supersede fails queued notifications of kind about subjectID so the
// dispatcher skips them. It returns how many rows were affected.
func Supersede(tx *gorm.DB, subjectID uuid.UUID, kind domain.NotificationKind) (int64, error) {
	reason := supersededReason
	res := tx.Model(&domain.Notification{}).
		Where("subject_id = ? AND kind = ? AND status = ?", subjectID, kind, domain.NotificationQueued).
		Updates(map[string]interface{}{
			"status":     domain.NotificationFailed,
			"last_error": &reason,
		})
	return res.RowsAffected, res.Error
}

const supersededReason = "superseded"

func stage(tx *gorm.DB, subjectID *uuid.UUID, kind domain.NotificationKind, recipient string, params map[string]interface{}) (*domain.Notification, error) {
	n := &domain.Notification{
		Kind:      kind,
		Recipient: recipient,
		SubjectID: subjectID,
		Params:    params,
		Status:    domain.NotificationQueued,
	}
	if err := tx.Create(n).Error; err != nil {
		return nil, err
	}
	return n, nil
}

var (
	ErrInvalidKind      = apperr.Validation("invalid_kind", "Unsupported notification kind")
	ErrInvalidRecipient = apperr.Validation("invalid_recipient", "A valid recipient email is required")
)

// Outbox accepts notifications from outside a domain transaction, such as the
// auth service's verification and sign-in emails.
type Outbox struct {
	DB        *gorm.DB
	Publisher Publisher
}

// authKinds are the kinds the auth service may request directly. Invitation
// emails are only produced by the invitation workflow.
var authKinds = map[domain.NotificationKind]bool{
	domain.NotificationEmailVerification: true,
	domain.NotificationPasswordReset:     true,
	domain.NotificationOneTimePasscode:   true,
	domain.NotificationMagicLink:         true,
}

func (o *Outbox) Enqueue(ctx context.Context, kind domain.NotificationKind, recipient string, params map[string]interface{}) (*domain.Notification, error) {
	if !authKinds[kind] {
		return nil, ErrInvalidKind
	}
	recipient = validation.NormalizeEmail(recipient)
	if !validation.IsValidEmail(recipient) {
		return nil, ErrInvalidRecipient
	}
	n, err := Stage(o.DB.WithContext(ctx), kind, recipient, params)
	if err != nil {
		return nil, err
	}
	if o.Publisher != nil {
		o.Publisher.Publish(ctx, n.ID)
	}
	return n, nil
}
