package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jlr/user-service/internal/domain"
	apperrors "github.com/jlr/user-service/pkg/util/errorutil"
)

// RequireAuthenticated rejects requests to non-public paths that carry no principal.
func RequireAuthenticated(policy *Policy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if policy.IsPublic(c.Path()) {
			return c.Next()
		}
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

// RequireRole ensures the principal holds one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}
