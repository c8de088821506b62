package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/naira-vault/naira_vault/internal/auth"
)

// JWTAuth returns a middleware that validates bearer tokens and stores the
// authenticated principal in request locals. Handlers downstream trust
// "user_id" and "email" to name the caller; request bodies never do.
func JWTAuth(tokens *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		tokenStr := strings.TrimSpace(authz[len("Bearer "):])

		principal, err := tokens.Verify(tokenStr)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}

		c.Locals("user_id", principal.UserID)
		c.Locals("email", principal.Email)
		return c.Next()
	}
}
