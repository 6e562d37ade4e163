package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"quicker-admin/services/session"
	"quicker-admin/types"
)

const (
	SessionCookie = "access"
	identityKey   = "admin_identity"
	tokenKey      = "admin_token"
)

// extractToken reads a Bearer token from the Authorization header, falling
// back to the session cookie.
func extractToken(c *fiber.Ctx) (string, string) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader != "" {
		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			return "", "Invalid authorization header format"
		}
		return tokenParts[1], ""
	}

	token := c.Cookies(SessionCookie)
	if token == "" {
		return "", "Authorization token missing"
	}
	return token, ""
}

// RequireAdmin admits requests carrying a valid console session.
func RequireAdmin(sessions *session.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, problem := extractToken(c)
		if problem != "" {
			return c.Status(fiber.StatusUnauthorized).JSON(types.ErrorResponse{Error: problem, Status: fiber.StatusUnauthorized})
		}

		identity, err := sessions.Parse(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(types.ErrorResponse{Error: "Session expired. Login again.", Status: fiber.StatusUnauthorized})
		}

		c.Locals(identityKey, identity)
		c.Locals(tokenKey, token)
		return c.Next()
	}
}

// CurrentAdmin returns the identity RequireAdmin attached to the request.
func CurrentAdmin(c *fiber.Ctx) (*session.Identity, bool) {
	identity, ok := c.Locals(identityKey).(*session.Identity)
	return identity, ok && identity != nil
}
