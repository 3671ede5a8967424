package invitations

import (
	"errors"
	"time"

	"axis-backend/internal/domain"
	"axis-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Invitation rule violations, shared by the workflow and its handlers.
var (
	ErrDuplicatePending = apperr.New(apperr.KindConflict, "duplicate_pending_invitation", "An invitation has already been sent to this email")
	ErrAlreadyMember    = apperr.New(apperr.KindConflict, "already_member", "User already belongs to this organisation")
	ErrNotFound         = apperr.NotFound("Invitation")
	ErrAlreadyUsed      = apperr.New(apperr.KindState, "already_used", "Invitation has already been used")
	ErrExpired          = apperr.New(apperr.KindExpired, "expired", "Invitation has expired")
	ErrEmailMismatch    = apperr.New(apperr.KindAuthorizationDenied, "email_mismatch", "This invitation was sent to a different email address")
)

// ValidateInviteCreation rejects an invitation to an address that is already an
// active member of orgID or already holds a pending invitation there. email
// must be normalized.
func ValidateInviteCreation(tx *gorm.DB, email string, orgID uuid.UUID) error {
	var members int64
	if err := tx.Model(&domain.Employee{}).
		Joins("JOIN users ON users.id = employees.user_id").
		Where("employees.organisation_id = ? AND employees.status = ? AND LOWER(users.email) = ?", orgID, domain.MembershipActive, email).
		Count(&members).Error; err != nil {
		return err
	}
	if members > 0 {
		return ErrAlreadyMember
	}

	var invite domain.Invitation
	err := tx.Where("organisation_id = ? AND email = ? AND status = ?", orgID, email, domain.InvitationPending).
		First(&invite).Error
	if err == nil {
		return ErrDuplicatePending
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return nil
}

// ValidateInviteUsable checks, in order, that the invitation exists, is still
// pending and has not expired.
func ValidateInviteUsable(inv *domain.Invitation, now time.Time) error {
	if inv == nil {
		return ErrNotFound
	}
	if inv.Status != domain.InvitationPending {
		return ErrAlreadyUsed
	}
	if inv.IsExpired(now) {
		return ErrExpired
	}
	return nil
}

// ValidateInviteAcceptance additionally checks the accepting identity's email.
func ValidateInviteAcceptance(inv *domain.Invitation, userEmail string, now time.Time) error {
	if err := ValidateInviteUsable(inv, now); err != nil {
		return err
	}
	if !equalFold(inv.Email, userEmail) {
		return ErrEmailMismatch
	}
	return nil
}
