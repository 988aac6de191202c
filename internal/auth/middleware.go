package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/jlr/user-service/internal/domain"
	"github.com/jlr/user-service/internal/observability"
)

// rejectionMessage is the only message a rejected client ever sees.
const rejectionMessage = "Invalid or expired token"

// ErrPrincipalNotFound is returned by a PrincipalLookup for unknown usernames.
var ErrPrincipalNotFound = errors.New("principal not found")

// PrincipalLookup resolves the account behind a token subject.
type PrincipalLookup interface {
	FindByUsername(ctx context.Context, username string) (*domain.Principal, error)
}

// RejectionBody is the JSON body written on authentication failure.
type RejectionBody struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// MiddlewareDependencies bundles the collaborators of AuthMiddleware.
type MiddlewareDependencies struct {
	Tokens     *TokenService
	Cookies    *CookieTransport
	Principals PrincipalLookup
	Policy     *Policy
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// AuthMiddleware authenticates requests that carry the auth cookie.
type AuthMiddleware struct {
	tokens     *TokenService
	cookies    *CookieTransport
	principals PrincipalLookup
	policy     *Policy
	logger     *zap.Logger
	metrics    *observability.Metrics
	now        func() time.Time
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(deps MiddlewareDependencies) *AuthMiddleware {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	policy := deps.Policy
	if policy == nil {
		policy = NewPolicy()
	}
	return &AuthMiddleware{
		tokens:     deps.Tokens,
		cookies:    deps.Cookies,
		principals: deps.Principals,
		policy:     policy,
		logger:     logger,
		metrics:    deps.Metrics,
		now:        time.Now,
	}
}

// Handle installs the principal for requests with a valid token. Requests without
// a token pass through unauthenticated; requests with a bad token get a 401.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	if m.policy.IsPublic(c.Path()) {
		return c.Next()
	}

	token, ok := m.cookies.Extract(c)
	if !ok {
		return c.Next()
	}

	if _, exists := PrincipalFromContext(c); exists {
		return c.Next()
	}

	principal, err := m.authenticate(c, token)
	if err != nil {
		return m.reject(c, err)
	}

	setPrincipal(c, principal)
	c.Locals(observability.LocalsUsername, principal.Username)
	m.metrics.RecordAuthOutcome("AUTHENTICATED")
	m.logger.Debug("jwt authentication successful", zap.String("username", principal.Username))
	return c.Next()
}

func (m *AuthMiddleware) authenticate(c *fiber.Ctx, token string) (principal *domain.Principal, err error) {
	defer func() {
		if r := recover(); r != nil {
			principal = nil
			err = fmt.Errorf("authentication panic: %v", r)
		}
	}()

	subject, err := m.tokens.ExtractSubject(token)
	if err != nil {
		return nil, err
	}

	if err := m.tokens.Validate(token, subject).Err(); err != nil {
		return nil, err
	}

	principal, err = m.principals.FindByUsername(c.UserContext(), subject)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			return nil, ReasonPrincipalUnavailable
		}
		return nil, fmt.Errorf("resolve principal: %w", err)
	}
	if principal == nil || !principal.Active {
		return nil, ReasonPrincipalUnavailable
	}
	if principal.Username != subject {
		return nil, ReasonSubjectMismatch
	}
	return principal, nil
}

func (m *AuthMiddleware) reject(c *fiber.Ctx, cause error) error {
	reason := ReasonOf(cause)
	m.metrics.RecordAuthOutcome(string(reason))
	m.logger.Warn("jwt authentication failed",
		zap.String("path", c.Path()),
		zap.String("reason", string(reason)),
		zap.Error(cause))

	return c.Status(http.StatusUnauthorized).JSON(RejectionBody{
		Error:     "Unauthorized",
		Message:   rejectionMessage,
		Timestamp: m.now().UTC().Format(time.RFC3339Nano),
	})
}
