package departments

import (
	deptsvc "axis-backend/internal/application/departments"
	"axis-backend/internal/interfaces/handlers/params"
	"axis-backend/internal/middleware"
	"axis-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *deptsvc.Service
}

type managerBody struct {
	EmployeeID uuid.UUID `json:"employeeId"`
	IsPrimary  bool      `json:"isPrimary"`
}

// Create POST /api/v1/organisations/:id/departments
func (h *Handlers) Create(c *fiber.Ctx) error {
	orgID, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	var in deptsvc.CreateInput
	if err := params.Body(c, &in); err != nil {
		return response.FromError(c, err)
	}
	dept, err := h.Service.Create(c.Context(), middleware.CurrentUserID(c), orgID, in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Department created successfully", dept, nil)
}

// List GET /api/v1/organisations/:id/departments
func (h *Handlers) List(c *fiber.Ctx) error {
	orgID, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	depts, err := h.Service.GetByOrganisation(c.Context(), middleware.CurrentUserID(c), orgID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Departments fetched successfully", depts, fiber.Map{"count": len(depts)})
}

// Get GET /api/v1/departments/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	deptID, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	detail, err := h.Service.GetByID(c.Context(), middleware.CurrentUserID(c), deptID)
	if err != nil {
		return response.FromError(c, err)
	}
	if detail == nil {
		return response.FromError(c, deptsvc.ErrNotFound)
	}
	return response.Success(c, "Department fetched successfully", detail, nil)
}

// Update PATCH /api/v1/departments/:id
func (h *Handlers) Update(c *fiber.Ctx) error {
	deptID, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	var in deptsvc.UpdateInput
	if err := params.Body(c, &in); err != nil {
		return response.FromError(c, err)
	}
	dept, err := h.Service.Update(c.Context(), middleware.CurrentUserID(c), deptID, in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Department updated successfully", dept, nil)
}

// AddManager POST /api/v1/departments/:id/managers
func (h *Handlers) AddManager(c *fiber.Ctx) error {
	deptID, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	var body managerBody
	if err := params.Body(c, &body); err != nil {
		return response.FromError(c, err)
	}
	link, err := h.Service.AddManager(c.Context(), middleware.CurrentUserID(c), deptID, body.EmployeeID, body.IsPrimary)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Manager added successfully", link, nil)
}

// RemoveManager DELETE /api/v1/departments/:id/managers/:employeeId
func (h *Handlers) RemoveManager(c *fiber.Ctx) error {
	deptID, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	empID, err := params.UUID(c, "employeeId")
	if err != nil {
		return response.FromError(c, err)
	}
	if err := h.Service.RemoveManager(c.Context(), middleware.CurrentUserID(c), deptID, empID); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Manager removed successfully", fiber.Map{"success": true}, nil)
}

// Delete DELETE /api/v1/departments/:id
func (h *Handlers) Delete(c *fiber.Ctx) error {
	deptID, err := params.UUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	if err := h.Service.Delete(c.Context(), middleware.CurrentUserID(c), deptID); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Department deleted successfully", fiber.Map{"success": true}, nil)
}
