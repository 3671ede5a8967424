// Package params decodes path parameters and JSON bodies for handlers.
package params

import (
	"encoding/json"

	"axis-backend/internal/pkg/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var (
	ErrInvalidID   = apperr.Validation("invalid_id", "Invalid identifier")
	ErrInvalidBody = apperr.Validation("invalid_body", "Request body must be valid JSON")
)

// UUID parses the named path parameter.
func UUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, ErrInvalidID.WithDetails(map[string]interface{}{"param": name})
	}
	return id, nil
}

// ParseUUID parses an identifier taken from a request body field.
func ParseUUID(s, field string) (*uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, ErrInvalidID.WithDetails(map[string]interface{}{"field": field})
	}
	return &id, nil
}

// Body decodes the JSON request body into v. An empty body leaves v untouched.
func Body(c *fiber.Ctx, v interface{}) error {
	b := c.Body()
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, v); err != nil {
		return ErrInvalidBody
	}
	return nil
}
