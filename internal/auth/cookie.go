package auth

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"

	"github.com/jlr/user-service/internal/config"
)

// CookieTransport moves tokens between responses and requests through the auth cookie.
type CookieTransport struct {
	settings Settings
	logger   *zap.Logger
}

// NewCookieTransport builds a transport reading cookie attributes from the live settings.
func NewCookieTransport(settings Settings, logger *zap.Logger) *CookieTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CookieTransport{settings: settings, logger: logger}
}

// Attach writes the token cookie as a literal Set-Cookie header.
func (t *CookieTransport) Attach(c *fiber.Ctx, token string) {
	cookie := t.settings.Current().Cookie
	c.Response().Header.Add(fiber.HeaderSetCookie, FormatSetCookie(cookie, token, cookie.MaxAge))
	t.logger.Debug("jwt cookie added", zap.String("cookie", cookie.Name))
}

// Clear expires the token cookie on the client.
func (t *CookieTransport) Clear(c *fiber.Ctx) {
	cookie := t.settings.Current().Cookie
	c.Response().Header.Add(fiber.HeaderSetCookie, FormatSetCookie(cookie, "", 0))
	t.logger.Debug("jwt cookie cleared", zap.String("cookie", cookie.Name))
}

// Extract returns the first cookie carrying the configured name. Absence is not an error.
func (t *CookieTransport) Extract(c *fiber.Ctx) (string, bool) {
	value := c.Cookies(t.settings.Current().Cookie.Name)
	if value == "" {
		return "", false
	}
	return utils.CopyString(value), true
}

// FormatSetCookie renders the Set-Cookie header value for the given attributes.
func FormatSetCookie(cookie config.CookieConfig, value string, maxAge int) string {
	var b strings.Builder
	b.WriteString(cookie.Name)
	b.WriteByte('=')
	b.WriteString(value)
	b.WriteString("; Path=")
	b.WriteString(cookie.Path)
	b.WriteString("; Max-Age=")
	b.WriteString(strconv.Itoa(maxAge))
	b.WriteString("; HttpOnly; SameSite=")
	b.WriteString(cookie.SameSite)
	if cookie.Secure {
		b.WriteString("; Secure")
	}
	if cookie.Domain != "" {
		b.WriteString("; Domain=")
		b.WriteString(cookie.Domain)
	}
	return b.String()
}
