package api

import (
	"fmt"
	"log"
	"strings"

	"github.com/example/jobboard-auth/domain/apperr"
	domain "github.com/example/jobboard-auth/domain/user"
	"github.com/example/jobboard-auth/modules/auth"
	"github.com/gofiber/fiber/v2"
)

const (
	// UserContextKey is the key used to store the hydrated identity in the Fiber context.
	UserContextKey = "user"

	msgNoToken     = "Not authorized, no token"
	msgTokenFailed = "Not authorized, token failed"
)

// Protect authenticates the request from the token cookie or the bearer
// header and attaches the identity to the context.
func Protect(authPort auth.AuthPort) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractToken(c)
		if token == "" {
			return sendMessage(c, fiber.StatusUnauthorized, msgNoToken)
		}

		claims, outcome, err := authPort.ValidateToken(c.UserContext(), token)
		if err != nil {
			log.Printf("[api] Error: token validation failed: %v", err)
			return sendMessage(c, fiber.StatusUnauthorized, msgTokenFailed)
		}
		if outcome != auth.TokenValid {
			return sendMessage(c, fiber.StatusUnauthorized, msgTokenFailed)
		}

		identity, err := authPort.GetUser(c.UserContext(), claims.UserID)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindInternal {
				log.Printf("[api] Error: failed to load user %s: %v", claims.UserID, err)
			}
			return sendMessage(c, fiber.StatusUnauthorized, msgTokenFailed)
		}

		c.Locals(UserContextKey, identity)
		return c.Next()
	}
}

// Authorize admits only identities holding one of roles. It must run after Protect.
func Authorize(roles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := CurrentUser(c)
		if !ok {
			return sendMessage(c, fiber.StatusUnauthorized, msgNoToken)
		}
		if !identity.HasRole(roles...) {
			return sendMessage(c, fiber.StatusForbidden,
				fmt.Sprintf("User role %s is not authorized to access this route", identity.Role))
		}
		return c.Next()
	}
}

// CurrentUser returns the identity attached by Protect.
func CurrentUser(c *fiber.Ctx) (*domain.Identity, bool) {
	identity, ok := c.Locals(UserContextKey).(*domain.Identity)
	return identity, ok && identity != nil
}

// extractToken reads the access token cookie, falling back to the
// Authorization bearer header.
func extractToken(c *fiber.Ctx) string {
	if token := c.Cookies(AccessCookieName); token != "" {
		return token
	}

	authHeader := c.Get(fiber.HeaderAuthorization)
	scheme, token, found := strings.Cut(authHeader, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
