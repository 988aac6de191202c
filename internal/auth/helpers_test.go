package auth

import (
	"sync"
	"testing"
	"time"

	"github.com/jlr/user-service/internal/config"
	"github.com/jlr/user-service/internal/domain"
)

const (
	testSecret      = "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY="
	otherTestSecret = "ZmVkY2JhOTg3NjU0MzIxMGZlZGNiYTk4NzY1NDMyMTA="
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 testSecret,
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
	}
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(now time.Time) *testClock {
	return &testClock{now: now}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

type tokenFixture struct {
	live   *config.LiveJWT
	keys   *SigningKeyProvider
	tokens *TokenService
	clock  *testClock
}

func newTokenFixture(t *testing.T) *tokenFixture {
	t.Helper()
	live := config.NewLiveJWT(testJWTConfig())
	keys := NewSigningKeyProvider(func() string { return live.Current().Secret }, nil)
	clock := newTestClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	return &tokenFixture{
		live:   live,
		keys:   keys,
		tokens: NewTokenService(live, keys, nil, WithClock(clock.Now)),
		clock:  clock,
	}
}

func (f *tokenFixture) update(mutate func(*config.JWTConfig)) {
	cfg := f.live.Current()
	mutate(&cfg)
	f.live.Store(cfg)
}

func testPrincipal() domain.Principal {
	return domain.Principal{ID: 7, Username: "a@b.com", Role: domain.RoleAdmin, Active: true}
}
