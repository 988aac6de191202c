package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jlr/user-service/internal/domain"
)

const principalKey = "auth_principal"

type principalContextKey struct{}

// WithPrincipal returns a context carrying the principal.
func WithPrincipal(ctx context.Context, p *domain.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFrom retrieves the principal stored by WithPrincipal.
func PrincipalFrom(ctx context.Context) (*domain.Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(*domain.Principal)
	return p, ok && p != nil
}

// PrincipalFromContext retrieves the authenticated principal of the request.
func PrincipalFromContext(c *fiber.Ctx) (*domain.Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*domain.Principal)
	return principal, ok
}

func setPrincipal(c *fiber.Ctx, p *domain.Principal) {
	c.Locals(principalKey, p)
	c.SetUserContext(WithPrincipal(c.UserContext(), p))
}
