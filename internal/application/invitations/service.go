// Package invitations issues, validates, accepts, revokes and resends
// tokenized invitations to join an organisation.
package invitations

import (
	"context"
	"errors"
	"strings"
	"time"

	"axis-backend/internal/application/employees"
	"axis-backend/internal/application/identity"
	"axis-backend/internal/application/notifications"
	"axis-backend/internal/application/policies/access"
	invitepolicy "axis-backend/internal/application/policies/invitations"
	"axis-backend/internal/application/policies/membership"
	"axis-backend/internal/application/policies/quota"
	"axis-backend/internal/domain"
	"axis-backend/internal/infrastructure/database"
	"axis-backend/internal/metrics"
	"axis-backend/internal/pkg/apperr"
	"axis-backend/internal/pkg/constants"
	"axis-backend/internal/pkg/token"
	"axis-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// DefaultTTL is how long an invitation token stays valid.
const DefaultTTL = 7 * 24 * time.Hour

const (
	unknownInviter   = "Unknown"
	anonymousInviter = "Someone"
)

// Reasons reported by ValidateToken, in precedence order.
const (
	ReasonNotFound             = "invitation_not_found"
	ReasonAlreadyUsed          = "already_used"
	ReasonExpired              = "expired"
	ReasonOrganisationNotFound = "organisation_not_found"
)

// Errors returned by the workflow. ErrNotFound is the invitation policy's
// not-found error, so handlers need only this package.
var (
	ErrInvalidEmail = apperr.Validation("invalid_email", "A valid email address is required")
	ErrNotPending   = apperr.New(apperr.KindState, "not_pending", "Can only resend pending invitations")
	ErrNotFound     = invitepolicy.ErrNotFound
)

// Service is the invitation workflow.
type Service struct {
	DB        *gorm.DB
	Directory identity.Directory
	Publisher notifications.Publisher
	Metrics   *metrics.Metrics
	// SiteURL prefixes acceptance links: <SiteURL>/invite/<token>.
	SiteURL string
	TTL     time.Duration
	Now     func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return DefaultTTL
}

type SendInput struct {
	Email        string     `json:"email"`
	Role         string     `json:"role"`
	DepartmentID *uuid.UUID `json:"departmentId"`
}

// TokenValidation is the tagged result of ValidateToken. Valid results carry
// the invitation and display names; invalid ones carry only Reason.
type TokenValidation struct {
	Valid            bool               `json:"valid"`
	Reason           string             `json:"reason,omitempty"`
	Invitation       *domain.Invitation `json:"invitation,omitempty"`
	Email            string             `json:"email,omitempty"`
	Role             string             `json:"role,omitempty"`
	OrganisationName string             `json:"organisationName,omitempty"`
	DepartmentName   *string            `json:"departmentName,omitempty"`
}

// ListItem is an invitation with inviter and department names resolved.
type ListItem struct {
	domain.Invitation
	EffectiveStatus domain.InvitationStatus `json:"effectiveStatus"`
	InviterName     string                  `json:"inviterName"`
	DepartmentName  *string                 `json:"departmentName"`
}

// Send creates a pending invitation under the organisation's seat quota and
// queues the invitation email. Email delivery happens after commit and never
// affects the result.
func (s *Service) Send(ctx context.Context, userID string, orgID uuid.UUID, in SendInput) (*domain.Invitation, error) {
	email := validation.NormalizeEmail(in.Email)
	if !validation.IsValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	role := strings.TrimSpace(in.Role)
	if role == "" {
		role = constants.Member
	}
	if !constants.IsAssignableRole(role) {
		return nil, membership.ErrInvalidRole
	}

	inviterName, err := s.displayName(ctx, userID)
	if err != nil {
		return nil, err
	}

	var inv *domain.Invitation
	var notice *domain.Notification
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		caller, err := access.Require(tx, userID, orgID, constants.InviteMembers)
		if err != nil {
			return err
		}
		var org domain.Organisation
		if err := database.ForUpdate(tx).Where("id = ?", orgID).First(&org).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return access.ErrNoAccess
			}
			return err
		}
		if err := quota.CheckEmployee(tx, &org); err != nil {
			if apperr.IsKind(err, apperr.KindQuotaExceeded) {
				s.Metrics.RecordQuotaRejection(quota.ResourceEmployees, org.SubscriptionTier)
			}
			return err
		}
		if err := invitepolicy.ValidateInviteCreation(tx, email, orgID); err != nil {
			return err
		}
		if in.DepartmentID != nil {
			if err := employees.EnsureDepartmentInOrg(tx, *in.DepartmentID, orgID); err != nil {
				return err
			}
		}
		tok, err := token.Generate(token.DefaultBytes)
		if err != nil {
			return err
		}
		inv = &domain.Invitation{
			OrganisationID: orgID,
			DepartmentID:   in.DepartmentID,
			Email:          email,
			Role:           role,
			InvitedBy:      caller.ID,
			Token:          tok,
			Status:         domain.InvitationPending,
			ExpiresAt:      s.now().Add(s.ttl()),
		}
		if err := tx.Create(inv).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return invitepolicy.ErrDuplicatePending
			}
			return err
		}
		notice, err = s.stageEmail(tx, inv, &org, inviterName)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, notice)
	s.Metrics.RecordInvitation("sent")
	log.Info().Str("organisation_id", orgID.String()).Str("invitation_id", inv.ID.String()).Str("role", role).Msg("invitation sent")
	return inv, nil
}

// ValidateToken never fails for an unusable token; it reports why instead.
// Precedence: not found, already used, expired, organisation gone.
func (s *Service) ValidateToken(ctx context.Context, tok string) (*TokenValidation, error) {
	db := s.DB.WithContext(ctx)
	var inv domain.Invitation
	err := db.Where("token = ?", tok).First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || tok == "" {
		return &TokenValidation{Reason: ReasonNotFound}, nil
	}
	if err != nil {
		return nil, err
	}
	if inv.Status != domain.InvitationPending {
		return &TokenValidation{Reason: ReasonAlreadyUsed}, nil
	}
	if inv.IsExpired(s.now()) {
		return &TokenValidation{Reason: ReasonExpired}, nil
	}
	var org domain.Organisation
	err = db.Where("id = ?", inv.OrganisationID).First(&org).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &TokenValidation{Reason: ReasonOrganisationNotFound}, nil
	}
	if err != nil {
		return nil, err
	}
	out := &TokenValidation{
		Valid:            true,
		Invitation:       &inv,
		Email:            inv.Email,
		Role:             inv.Role,
		OrganisationName: org.Name,
	}
	if inv.DepartmentID != nil {
		var dept domain.Department
		if err := db.Where("id = ?", *inv.DepartmentID).First(&dept).Error; err == nil {
			out.DepartmentName = &dept.Name
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return out, nil
}

// Accept turns the invitation into a membership for the caller and returns
// the organisation id. The membership write and the status change commit
// together.
func (s *Service) Accept(ctx context.Context, userID, tok string) (uuid.UUID, error) {
	if userID == "" {
		return uuid.Nil, apperr.ErrAuthenticationRequired
	}
	profile, err := identity.Authoritative(s.Directory).Profile(ctx, userID)
	if err != nil {
		return uuid.Nil, err
	}
	if profile == nil {
		return uuid.Nil, apperr.ErrAuthenticationRequired
	}

	var orgID uuid.UUID
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv domain.Invitation
		err := database.ForUpdate(tx).Where("token = ?", tok).First(&inv).Error
		if errors.Is(err, gorm.ErrRecordNotFound) || tok == "" {
			return invitepolicy.ErrNotFound
		}
		if err != nil {
			return err
		}
		now := s.now()
		if err := invitepolicy.ValidateInviteAcceptance(&inv, profile.Email, now); err != nil {
			return err
		}
		var orgs int64
		if err := tx.Model(&domain.Organisation{}).Where("id = ?", inv.OrganisationID).Count(&orgs).Error; err != nil {
			return err
		}
		if orgs == 0 {
			return apperr.NotFound("Organisation")
		}
		if _, err := employees.MaterializeFromInvitation(tx, userID, &inv, now); err != nil {
			return err
		}
		orgID = inv.OrganisationID
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	s.Metrics.RecordInvitation("accepted")
	log.Info().Str("organisation_id", orgID.String()).Str("user_id", userID).Msg("invitation accepted")
	return orgID, nil
}

// Revoke marks the invitation revoked whatever its current status and drops
// its undelivered emails. An accepted invitation keeps its membership.
func (s *Service) Revoke(ctx context.Context, userID string, invitationID uuid.UUID) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := s.authorizeInvitation(tx, userID, invitationID)
		if err != nil {
			return err
		}
		if inv.Status != domain.InvitationPending {
			log.Warn().
				Str("invitation_id", inv.ID.String()).
				Str("status", string(inv.Status)).
				Msg("revoking invitation that is not pending")
		}
		if err := tx.Model(&domain.Invitation{}).Where("id = ?", inv.ID).Update("status", domain.InvitationRevoked).Error; err != nil {
			return err
		}
		_, err = notifications.Supersede(tx, inv.ID, domain.NotificationInvitation)
		return err
	})
	if err != nil {
		return err
	}
	s.Metrics.RecordInvitation("revoked")
	return nil
}

// Resend issues a fresh token and expiry for a pending invitation and queues
// the email again. The previous token stops resolving.
func (s *Service) Resend(ctx context.Context, userID string, invitationID uuid.UUID) (*domain.Invitation, error) {
	inviterName, err := s.inviterOf(ctx, invitationID)
	if err != nil {
		return nil, err
	}

	var inv *domain.Invitation
	var notice *domain.Notification
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		inv, err = s.authorizeInvitation(tx, userID, invitationID)
		if err != nil {
			return err
		}
		if inv.Status != domain.InvitationPending {
			return ErrNotPending
		}
		var org domain.Organisation
		if err := tx.Where("id = ?", inv.OrganisationID).First(&org).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Organisation")
			}
			return err
		}
		tok, err := token.Generate(token.DefaultBytes)
		if err != nil {
			return err
		}
		expires := s.now().Add(s.ttl())
		if err := tx.Model(&domain.Invitation{}).Where("id = ?", inv.ID).Updates(map[string]interface{}{
			"token":      tok,
			"expires_at": expires,
		}).Error; err != nil {
			return err
		}
		inv.Token = tok
		inv.ExpiresAt = expires
		notice, err = s.stageEmail(tx, inv, &org, inviterName)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, notice)
	s.Metrics.RecordInvitation("resent")
	return inv, nil
}

// ListByOrganisation returns the organisation's invitations newest first.
// Callers who may not manage invitations get an empty list.
func (s *Service) ListByOrganisation(ctx context.Context, userID string, orgID uuid.UUID) ([]ListItem, error) {
	db := s.DB.WithContext(ctx)
	out := []ListItem{}
	if _, err := access.Require(db, userID, orgID, constants.InviteMembers); err != nil {
		if errors.Is(err, access.ErrNoAccess) || errors.Is(err, apperr.ErrAuthenticationRequired) || errors.Is(err, apperr.ErrNotAuthorized) {
			return out, nil
		}
		return nil, err
	}
	var invs []domain.Invitation
	if err := db.Where("organisation_id = ?", orgID).Order("created_at DESC").Find(&invs).Error; err != nil {
		return nil, err
	}
	if len(invs) == 0 {
		return out, nil
	}

	inviterIDs := make([]uuid.UUID, 0, len(invs))
	var deptIDs []uuid.UUID
	for _, inv := range invs {
		inviterIDs = append(inviterIDs, inv.InvitedBy)
		if inv.DepartmentID != nil {
			deptIDs = append(deptIDs, *inv.DepartmentID)
		}
	}
	var inviters []domain.Employee
	if err := db.Where("id IN ?", inviterIDs).Find(&inviters).Error; err != nil {
		return nil, err
	}
	inviterUser := make(map[uuid.UUID]string, len(inviters))
	userIDs := make([]string, 0, len(inviters))
	for _, e := range inviters {
		inviterUser[e.ID] = e.UserID
		userIDs = append(userIDs, e.UserID)
	}
	profiles := map[string]*identity.Profile{}
	if s.Directory != nil {
		var err error
		if profiles, err = identity.Profiles(ctx, s.Directory, userIDs); err != nil {
			return nil, err
		}
	}
	deptNames := map[uuid.UUID]string{}
	if len(deptIDs) > 0 {
		var depts []domain.Department
		if err := db.Where("id IN ?", deptIDs).Find(&depts).Error; err != nil {
			return nil, err
		}
		for _, d := range depts {
			deptNames[d.ID] = d.Name
		}
	}

	now := s.now()
	for _, inv := range invs {
		item := ListItem{Invitation: inv, EffectiveStatus: inv.EffectiveStatus(now), InviterName: unknownInviter}
		if p := profiles[inviterUser[inv.InvitedBy]]; p != nil && p.Name != "" {
			item.InviterName = p.Name
		}
		if inv.DepartmentID != nil {
			if name, ok := deptNames[*inv.DepartmentID]; ok {
				item.DepartmentName = &name
			}
		}
		out = append(out, item)
	}
	return out, nil
}

// authorizeInvitation loads an invitation the caller may manage. Invitations
// of other organisations are reported as missing.
func (s *Service) authorizeInvitation(tx *gorm.DB, userID string, invitationID uuid.UUID) (*domain.Invitation, error) {
	if userID == "" {
		return nil, apperr.ErrAuthenticationRequired
	}
	var inv domain.Invitation
	err := tx.Where("id = ?", invitationID).First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if _, err := access.Require(tx, userID, inv.OrganisationID, constants.InviteMembers); err != nil {
		if errors.Is(err, access.ErrNoAccess) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &inv, nil
}

// displayName resolves the name shown as the inviter in emails. It runs
// outside any transaction because the directory may use its own connection.
func (s *Service) displayName(ctx context.Context, userID string) (string, error) {
	if s.Directory == nil || userID == "" {
		return anonymousInviter, nil
	}
	p, err := s.Directory.Profile(ctx, userID)
	if err != nil {
		return "", err
	}
	if p == nil || p.Name == "" {
		return anonymousInviter, nil
	}
	return p.Name, nil
}

func (s *Service) inviterOf(ctx context.Context, invitationID uuid.UUID) (string, error) {
	var inviter domain.Employee
	err := s.DB.WithContext(ctx).
		Joins("JOIN invitations ON invitations.invited_by = employees.id").
		Where("invitations.id = ?", invitationID).
		First(&inviter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return anonymousInviter, nil
	}
	if err != nil {
		return "", err
	}
	return s.displayName(ctx, inviter.UserID)
}

func (s *Service) stageEmail(tx *gorm.DB, inv *domain.Invitation, org *domain.Organisation, inviterName string) (*domain.Notification, error) {
	return notifications.StageFor(tx, inv.ID, domain.NotificationInvitation, inv.Email, map[string]interface{}{
		"organisationName": org.Name,
		"inviterName":      inviterName,
		"url":              s.inviteURL(inv.Token),
		"role":             inv.Role,
	})
}

func (s *Service) inviteURL(tok string) string {
	base := strings.TrimRight(s.SiteURL, "/")
	if base == "" {
		base = "http://localhost:3000"
	}
	return base + "/invite/" + tok
}

func (s *Service) publish(ctx context.Context, n *domain.Notification) {
	if n == nil || s.Publisher == nil {
		return
	}
	s.Publisher.Publish(ctx, n.ID)
}
