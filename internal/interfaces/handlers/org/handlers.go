package org

import (
	orgsvc "axis-backend/internal/application/org"
	"axis-backend/internal/interfaces/handlers/params"
	"axis-backend/internal/middleware"
	"axis-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers bundles organisation handlers with dependencies.
type Handlers struct {
	Service *orgsvc.Service
}

type subscriptionBody struct {
	SubscriptionTier string `json:"subscriptionTier"`
}

// Create POST /api/v1/organisations
func (h *Handlers) Create(c *fiber.Ctx) error {
	var in orgsvc.CreateInput
	if err := params.Body(c, &in); err != nil {
		return response.FromError(c, err)
	}
	org, err := h.Service.Create(c.Context(), middleware.CurrentUserID(c), in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Organisation created successfully", org, nil)
}

// List GET /api/v1/organisations
func (h *Handlers) List(c *fiber.Ctx) error {
	orgs, err := h.Service.GetMyOrganisations(c.Context(), middleware.CurrentUserID(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Organisations fetched successfully", orgs, fiber.Map{"count": len(orgs)})
}

// Get GET /api/v1/organisations/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	orgID, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	detail, err := h.Service.GetByID(c.Context(), middleware.CurrentUserID(c), orgID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Organisation fetched successfully", detail, nil)
}

// UpdateProfile PATCH /api/v1/organisations/:id
func (h *Handlers) UpdateProfile(c *fiber.Ctx) error {
	orgID, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	var in orgsvc.UpdateProfileInput
	if err := params.Body(c, &in); err != nil {
		return response.FromError(c, err)
	}
	org, err := h.Service.UpdateProfile(c.Context(), middleware.CurrentUserID(c), orgID, in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Organisation updated successfully", org, nil)
}

// UpdateSubscription PATCH /api/v1/organisations/:id/subscription
func (h *Handlers) UpdateSubscription(c *fiber.Ctx) error {
	orgID, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	var body subscriptionBody
	if err := params.Body(c, &body); err != nil {
		return response.FromError(c, err)
	}
	org, err := h.Service.UpdateSubscription(c.Context(), middleware.CurrentUserID(c), orgID, body.SubscriptionTier)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Subscription updated successfully", org, nil)
}

// CompleteOnboarding POST /api/v1/organisations/:id/complete-onboarding
func (h *Handlers) CompleteOnboarding(c *fiber.Ctx) error {
	orgID, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	if err := h.Service.CompleteOnboarding(c.Context(), middleware.CurrentUserID(c), orgID); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Onboarding completed", fiber.Map{"success": true}, nil)
}

// Delete DELETE /api/v1/organisations/:id
func (h *Handlers) Delete(c *fiber.Ctx) error {
	orgID, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	if err := h.Service.Delete(c.Context(), middleware.CurrentUserID(c), orgID); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Organisation deleted successfully", fiber.Map{"success": true}, nil)
}

// Limits GET /api/v1/organisations/:id/limits. Public.
func (h *Handlers) Limits(c *fiber.Ctx) error {
	orgID, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	limits, err := h.Service.CheckLimits(c.Context(), orgID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Limits fetched successfully", limits, nil)
}
