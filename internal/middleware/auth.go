package middleware

import (
	"crypto/subtle"

	"axis-backend/internal/pkg/apperr"
	"axis-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// RequireAuth ensures a user is in the session. Returns 401 with standard error format if not.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if CurrentUserID(c) == "" {
			return response.FromError(c, apperr.ErrAuthenticationRequired)
		}
		return c.Next()
	}
}

// GetUser returns the session user from Locals (nil if not logged in).
func GetUser(c *fiber.Ctx) *SessionUser {
	u, _ := c.Locals(userLocal).(*SessionUser)
	return u
}

// CurrentUserID is the opaque identity passed to every service call; "" when anonymous.
func CurrentUserID(c *fiber.Ctx) string {
	if u := GetUser(c); u != nil {
		return u.UserID
	}
	return ""
}

// SetUser attaches an identity to the request. Used by tests and internal callers.
func SetUser(c *fiber.Ctx, u *SessionUser) {
	c.Locals(userLocal, u)
}

// InternalKey guards service-to-service endpoints with a shared secret sent
// in the X-Internal-Key header. An empty key disables the endpoint.
func InternalKey(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !KeyMatches(c.Get("X-Internal-Key"), key) {
			return response.FromError(c, apperr.ErrNotAuthorized)
		}
		return c.Next()
	}
}

// KeyMatches compares a presented secret with the configured one in constant
// time. An empty configured key never matches.
func KeyMatches(presented, key string) bool {
	if key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(key)) == 1
}
