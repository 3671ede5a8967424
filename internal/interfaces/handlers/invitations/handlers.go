package invitations

import (
	invsvc "axis-backend/internal/application/invitations"
	"axis-backend/internal/interfaces/handlers/params"
	"axis-backend/internal/middleware"
	"axis-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *invsvc.Service
}

type tokenBody struct {
	Token string `json:"token"`
}

// Send POST /api/v1/organisations/:id/invitations
func (h *Handlers) Send(c *fiber.Ctx) error {
	orgID, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	var in invsvc.SendInput
	if err := params.Body(c, &in); err != nil {
		return response.FromError(c, err)
	}
	inv, err := h.Service.Send(c.Context(), middleware.CurrentUserID(c), orgID, in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Invitation sent successfully", inv, nil)
}

// List GET /api/v1/organisations/:id/invitations
func (h *Handlers) List(c *fiber.Ctx) error {
	orgID, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	items, err := h.Service.ListByOrganisation(c.Context(), middleware.CurrentUserID(c), orgID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Invitations fetched successfully", items, fiber.Map{"count": len(items)})
}

// Validate POST /api/v1/invitations/public/validate. Public; an unusable
// token is a successful response with valid=false and a reason.
func (h *Handlers) Validate(c *fiber.Ctx) error {
	var body tokenBody
	if err := params.Body(c, &body); err != nil {
		return response.FromError(c, err)
	}
	res, err := h.Service.ValidateToken(c.Context(), body.Token)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Invitation validated", res, nil)
}

// Accept POST /api/v1/invitations/accept
func (h *Handlers) Accept(c *fiber.Ctx) error {
	var body tokenBody
	if err := params.Body(c, &body); err != nil {
		return response.FromError(c, err)
	}
	orgID, err := h.Service.Accept(c.Context(), middleware.CurrentUserID(c), body.Token)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Invitation accepted", fiber.Map{"organisationId": orgID}, nil)
}

// Revoke PATCH /api/v1/invitations/:id/revoke
func (h *Handlers) Revoke(c *fiber.Ctx) error {
	invID, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	if err := h.Service.Revoke(c.Context(), middleware.CurrentUserID(c), invID); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Invitation revoked", fiber.Map{"success": true}, nil)
}

// Resend POST /api/v1/invitations/:id/resend
func (h *Handlers) Resend(c *fiber.Ctx) error {
	invID, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	inv, err := h.Service.Resend(c.Context(), middleware.CurrentUserID(c), invID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Invitation resent", inv, nil)
}
