package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Sessions are written by the auth service; this service only reads them.
const (
	SessionCookieName  = "axis.sid"
	SessionRedisPrefix = "session:"
)

const (
	userLocal      = "user"
	sessionIDLocal = "session_id"
)

// SessionUser is the shape the auth service stores under "user".
type SessionUser struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// SessionConfig configures the session loader.
type SessionConfig struct {
	CookieName string
	Prefix     string
}

// Session returns a Fiber middleware that resolves the session cookie (or a
// bearer token carrying the session id) to the signed-in user.
func Session(cfg SessionConfig, rdb *redis.Client) fiber.Handler {
	if cfg.CookieName == "" {
		cfg.CookieName = SessionCookieName
	}
	if cfg.Prefix == "" {
		cfg.Prefix = SessionRedisPrefix
	}
	return func(c *fiber.Ctx) error {
		sessionID := sessionIDFrom(c, cfg.CookieName)
		c.Locals(sessionIDLocal, sessionID)
		if sessionID == "" || rdb == nil {
			return c.Next()
		}

		b, err := rdb.Get(context.Background(), cfg.Prefix+sessionID).Bytes()
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				log.Warn().Err(err).Str("trace_id", GetTraceID(c)).Msg("session lookup failed")
			}
			return c.Next()
		}
		var data struct {
			User *SessionUser `json:"user"`
		}
		if err := json.Unmarshal(b, &data); err != nil {
			log.Warn().Err(err).Str("trace_id", GetTraceID(c)).Msg("session payload unreadable")
			return c.Next()
		}
		if data.User != nil && data.User.UserID != "" {
			c.Locals(userLocal, data.User)
		}
		return c.Next()
	}
}

// sessionIDFrom accepts the connect-style "s:<id>.<signature>" cookie as well
// as a bare id.
func sessionIDFrom(c *fiber.Ctx, cookieName string) string {
	sid := c.Cookies(cookieName)
	if sid == "" {
		if h := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
			sid = strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		}
	}
	if strings.HasPrefix(sid, "s:") {
		sid = strings.SplitN(sid[2:], ".", 2)[0]
	}
	return sid
}

// GetSessionID returns the current session ID from context.
func GetSessionID(c *fiber.Ctx) string {
	sid, _ := c.Locals(sessionIDLocal).(string)
	return sid
}
