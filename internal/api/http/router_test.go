package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/jlr/user-service/internal/api/http/handlers"
	"github.com/jlr/user-service/internal/auth"
	"github.com/jlr/user-service/internal/config"
	"github.com/jlr/user-service/internal/domain"
	"github.com/jlr/user-service/internal/observability"
	"github.com/jlr/user-service/internal/repository"
	"github.com/jlr/user-service/internal/service"
)

type stubUserRepo struct {
	mu    sync.Mutex
	users []domain.User
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return repository.ErrEmailTaken
		}
	}
	user.ID = int64(len(r.users) + 1)
	user.Version = 1
	r.users = append(r.users, *user)
	return nil
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, u := range r.users {
		if u.ID == user.ID {
			user.Version++
			r.users[i] = *user
			return nil
		}
	}
	return repository.ErrUserNotFound
}

func (r *stubUserRepo) find(match func(domain.User) bool) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *stubUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.ID == id })
}

func (r *stubUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Email == email })
}

func (r *stubUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	return err == nil, nil
}

func (r *stubUserRepo) list(match func(domain.User) bool) []domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.User
	for _, u := range r.users {
		if match(u) {
			out = append(out, u)
		}
	}
	return out
}

func (r *stubUserRepo) ListActive(context.Context) ([]domain.User, error) {
	return r.list(func(u domain.User) bool { return u.Active }), nil
}

func (r *stubUserRepo) ListByRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	return r.list(func(u domain.User) bool { return u.Role == role }), nil
}

func (r *stubUserRepo) ListByDealer(_ context.Context, dealerID string) ([]domain.User, error) {
	return r.list(func(u domain.User) bool { return u.DealerID != nil && *u.DealerID == dealerID }), nil
}

func (r *stubUserRepo) ListDealerManagers(_ context.Context, dealerID string) ([]domain.User, error) {
	return r.list(func(u domain.User) bool {
		return u.Role == domain.RoleDealerManager && u.DealerID != nil && *u.DealerID == dealerID
	}), nil
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	logger := zap.NewNop()
	live := config.NewLiveJWT(config.JWTConfig{
		Secret:                 "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY=",
		AccessTokenTTLSeconds:  900,
		RefreshTokenTTLSeconds: 604800,
		Issuer:                 "jlr",
		Audience:               "jlr-app",
		Cookie: config.CookieConfig{
			Name:     "jlr_auth_token",
			Domain:   "localhost",
			Path:     "/",
			HTTPOnly: true,
			SameSite: "Lax",
			MaxAge:   900,
		},
	})
	keys := auth.NewSigningKeyProvider(func() string { return live.Current().Secret }, logger)
	tokens := auth.NewTokenService(live, keys, logger)
	cookies := auth.NewCookieTransport(live, logger)
	policy := auth.NewPolicy()
	metrics := observability.NewMetrics()

	users := service.NewUserService(config.AuthConfig{BcryptCost: bcrypt.MinCost, LoginMaxAttempts: 5, LoginLockoutSeconds: 900},
		service.UserDependencies{UserRepo: &stubUserRepo{}, Logger: logger})

	app := fiber.New()
	RegisterMiddlewares(app, MiddlewareConfig{
		Logger:  logger,
		Metrics: metrics,
		Auth: auth.NewAuthMiddleware(auth.MiddlewareDependencies{
			Tokens:     tokens,
			Cookies:    cookies,
			Principals: users,
			Policy:     policy,
			Logger:     logger,
			Metrics:    metrics,
		}),
		Policy: policy,
	})
	RegisterRoutes(app, RouteConfig{
		Metrics: handlers.NewMetricsHandler(metrics),
		Users:   handlers.NewUsersHandler(users, tokens, cookies, logger),
	})
	return app
}

func send(t *testing.T, app *fiber.App, method, path string, body any, cookie *nethttp.Cookie) (*nethttp.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)

	decoded := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func authCookie(t *testing.T, resp *nethttp.Response) *nethttp.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == "jlr_auth_token" {
			return c
		}
	}
	t.Fatal("auth cookie not set")
	return nil
}

func TestUserFlow(t *testing.T) {
	app := newTestApp(t)

	resp, body := send(t, app, nethttp.MethodPost, "/api/users/register", map[string]any{
		"email":     "a@b.com",
		"password":  "S3cure!pass",
		"firstName": "Ada",
		"lastName":  "Lovelace",
		"role":      "CUSTOMER",
	}, nil)
	require.Equal(t, nethttp.StatusCreated, resp.StatusCode)
	assert.Equal(t, "a@b.com", body["email"])
	assert.NotContains(t, body, "passwordHash")

	resp, body = send(t, app, nethttp.MethodPost, "/api/users/login", map[string]any{
		"email":    "a@b.com",
		"password": "S3cure!pass",
	}, nil)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, "CUSTOMER", body["role"])
	assert.NotEmpty(t, body["expiresAt"])
	assert.NotContains(t, body, "refreshToken")
	assert.NotContains(t, body, "token")
	cookie := authCookie(t, resp)
	assert.NotContains(t, fmt.Sprint(body), cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, nethttp.SameSiteLaxMode, cookie.SameSite)

	resp, body = send(t, app, nethttp.MethodGet, "/api/users/me", nil, cookie)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, "a@b.com", body["email"])

	resp, _ = send(t, app, nethttp.MethodGet, "/api/users", nil, cookie)
	assert.Equal(t, nethttp.StatusForbidden, resp.StatusCode)

	resp, _ = send(t, app, nethttp.MethodPost, "/api/users/logout", nil, cookie)
	assert.Equal(t, nethttp.StatusNoContent, resp.StatusCode)
	cleared := authCookie(t, resp)
	assert.Empty(t, cleared.Value)
	assert.Less(t, cleared.MaxAge, 0)
}

func TestUnauthenticatedAccess(t *testing.T) {
	app := newTestApp(t)

	resp, body := send(t, app, nethttp.MethodGet, "/api/users/me", nil, nil)
	assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
	errBody, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "UNAUTHORIZED", errBody["code"])

	resp, body = send(t, app, nethttp.MethodGet, "/api/users/me", nil, &nethttp.Cookie{Name: "jlr_auth_token", Value: "forged.token.value"})
	assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Unauthorized", body["error"])
	assert.Equal(t, "Invalid or expired token", body["message"])
	assert.NotEmpty(t, body["timestamp"])

	resp, _ = send(t, app, nethttp.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
}

func TestRegisterValidationAndConflict(t *testing.T) {
	app := newTestApp(t)

	resp, body := send(t, app, nethttp.MethodPost, "/api/users/register", map[string]any{
		"email":    "bad",
		"password": "weak",
	}, nil)
	require.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
	errBody := body["error"].(map[string]any)
	assert.Equal(t, "VALIDATION_FAILED", errBody["code"])
	assert.Contains(t, errBody["details"], "email")

	payload := map[string]any{
		"email":     "a@b.com",
		"password":  "S3cure!pass",
		"firstName": "Ada",
		"lastName":  "Lovelace",
		"role":      "CUSTOMER",
	}
	resp, _ = send(t, app, nethttp.MethodPost, "/api/users/register", payload, nil)
	require.Equal(t, nethttp.StatusCreated, resp.StatusCode)
	resp, _ = send(t, app, nethttp.MethodPost, "/api/users/register", payload, nil)
	assert.Equal(t, nethttp.StatusConflict, resp.StatusCode)

	resp, _ = send(t, app, nethttp.MethodPost, "/api/users/login", map[string]any{
		"email":    "a@b.com",
		"password": "Wr0ng!pass",
	}, nil)
	assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
}
