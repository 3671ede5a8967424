package employees

import (
	empsvc "axis-backend/internal/application/employees"
	"axis-backend/internal/interfaces/handlers/params"
	"axis-backend/internal/middleware"
	"axis-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *empsvc.Service
}

// updateRequest is the PATCH body. An empty departmentId clears the department.
type updateRequest struct {
	DepartmentID *string `json:"departmentId"`
	JobTitle     *string `json:"jobTitle"`
	Role         *string `json:"role"`
}

// List GET /api/v1/organisations/:id/employees
func (h *Handlers) List(c *fiber.Ctx) error {
	orgID, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	members, err := h.Service.ListByOrganisation(c.Context(), middleware.CurrentUserID(c), orgID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Employees fetched successfully", members, fiber.Map{"count": len(members)})
}

// Me GET /api/v1/organisations/:id/employees/me. Data is null for non-members.
func (h *Handlers) Me(c *fiber.Ctx) error {
	orgID, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	me, err := h.Service.GetSelf(c.Context(), middleware.CurrentUserID(c), orgID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Membership fetched successfully", me, nil)
}

// Update PATCH /api/v1/employees/:id
func (h *Handlers) Update(c *fiber.Ctx) error {
	empID, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	var req updateRequest
	if err := params.Body(c, &req); err != nil {
		return response.FromError(c, err)
	}
	in := empsvc.UpdateInput{JobTitle: req.JobTitle, Role: req.Role}
	if req.DepartmentID != nil {
		if *req.DepartmentID == "" {
			in.ClearDepartment = true
		} else if in.DepartmentID, err = params.ParseUUID(*req.DepartmentID, "departmentId"); err != nil {
			return response.FromError(c, err)
		}
	}
	emp, err := h.Service.Update(c.Context(), middleware.CurrentUserID(c), empID, in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Employee updated successfully", emp, nil)
}

// Remove DELETE /api/v1/employees/:id
func (h *Handlers) Remove(c *fiber.Ctx) error {
	empID, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	if err := h.Service.Remove(c.Context(), middleware.CurrentUserID(c), empID); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Employee removed successfully", fiber.Map{"success": true}, nil)
}
