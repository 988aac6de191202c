package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/jlr/user-service/internal/api/dto"
	"github.com/jlr/user-service/internal/auth"
	"github.com/jlr/user-service/internal/domain"
	"github.com/jlr/user-service/internal/service"
	apperrors "github.com/jlr/user-service/pkg/util/errorutil"
)

// UsersHandler exposes account endpoints.
type UsersHandler struct {
	users   *service.UserService
	tokens  *auth.TokenService
	cookies *auth.CookieTransport
	logger  *zap.Logger
}

// NewUsersHandler constructs handler.
func NewUsersHandler(users *service.UserService, tokens *auth.TokenService, cookies *auth.CookieTransport, logger *zap.Logger) *UsersHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UsersHandler{users: users, tokens: tokens, cookies: cookies, logger: logger}
}

// Register handles POST /api/users/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}
	if err := req.Validate(); err != nil {
		return apperrors.FromValidation(err)
	}

	user, err := h.users.Register(c.UserContext(), service.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Role:        domain.Role(req.Role),
		DealerID:    req.DealerID,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewUserResponse(user))
}

// Login handles POST /api/users/login. The access token is returned only as
// the auth cookie.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}
	if err := req.Validate(); err != nil {
		return apperrors.FromValidation(err)
	}

	user, err := h.users.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	principal := user.Principal()
	access, err := h.tokens.IssueAccess(principal)
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	h.cookies.Attach(c, access.Value)
	h.users.RecordLogin(c.UserContext(), user, access)
	h.logger.Info("user logged in", zap.Int64("user_id", user.ID))

	return c.JSON(dto.LoginResponse{
		Message:   "Login successful",
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		ExpiresAt: access.ExpiresAt,
	})
}

// Logout handles POST /api/users/logout. It always clears the cookie.
func (h *UsersHandler) Logout(c *fiber.Ctx) error {
	if token, ok := h.cookies.Extract(c); ok {
		if subject, err := h.tokens.ExtractSubject(token); err == nil {
			h.users.RecordLogout(c.UserContext(), subject)
		}
	}
	h.cookies.Clear(c)
	return c.SendStatus(http.StatusNoContent)
}

// Me handles GET /api/users/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	user, err := h.users.GetByID(c.UserContext(), principal.ID)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(user))
}

// List handles GET /api/users with optional role or dealerId filters.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	var (
		users []domain.User
		err   error
	)
	switch {
	case c.Query("role") != "":
		role, parseErr := domain.ParseRole(c.Query("role"))
		if parseErr != nil {
			return apperrors.NewValidationError("invalid role", map[string]any{"role": c.Query("role")})
		}
		users, err = h.users.ListByRole(c.UserContext(), role)
	case c.Query("dealerId") != "":
		users, err = h.users.ListByDealer(c.UserContext(), c.Query("dealerId"))
	default:
		users, err = h.users.ListActive(c.UserContext())
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponses(users)})
}

// Get handles GET /api/users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	id, err := userIDParam(c)
	if err != nil {
		return err
	}
	user, err := h.users.GetByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(user))
}

// UpdateProfile handles PUT /api/users/me.
func (h *UsersHandler) UpdateProfile(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}
	if err := req.Validate(); err != nil {
		return apperrors.FromValidation(err)
	}

	user, err := h.users.UpdateProfile(c.UserContext(), principal.ID, service.ProfileUpdate{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(user))
}

// ChangePassword handles POST /api/users/me/password.
func (h *UsersHandler) ChangePassword(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}
	if err := req.Validate(); err != nil {
		return apperrors.FromValidation(err)
	}

	if err := h.users.ChangePassword(c.UserContext(), principal.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// DealerManagers handles GET /api/users/dealers/:dealerId/managers.
func (h *UsersHandler) DealerManagers(c *fiber.Ctx) error {
	users, err := h.users.DealerManagers(c.UserContext(), c.Params("dealerId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponses(users)})
}

// Deactivate handles POST /api/users/:id/deactivate.
func (h *UsersHandler) Deactivate(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	id, err := userIDParam(c)
	if err != nil {
		return err
	}
	if id == principal.ID {
		return apperrors.NewBadRequest("cannot deactivate your own account")
	}
	if err := h.users.Deactivate(c.UserContext(), id, principal); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func currentPrincipal(c *fiber.Ctx) (*domain.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal, nil
}

func userIDParam(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid user id", map[string]any{"id": c.Params("id")})
	}
	return id, nil
}
