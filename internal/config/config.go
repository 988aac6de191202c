package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	JWT      JWTConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level    string
	Encoding string
}

// AuthConfig defines password and login throttling parameters.
type AuthConfig struct {
	BcryptCost          int
	LoginMaxAttempts    int
	LoginLockoutSeconds int
}

// JWTConfig defines token signing and cookie transport parameters.
type JWTConfig struct {
	Secret                 string
	AccessTokenTTLSeconds  int
	RefreshTokenTTLSeconds int
	Issuer                 string
	Audience               string
	Cookie                 CookieConfig
}

// CookieConfig describes the auth cookie attributes.
type CookieConfig struct {
	Name     string
	Domain   string
	Path     string
	HTTPOnly bool
	Secure   bool
	SameSite string
	MaxAge   int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "user-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Encoding: getEnv("LOG_ENCODING", "json"),
		},
		Auth: AuthConfig{
			BcryptCost:          getEnvAsInt("AUTH_BCRYPT_COST", 12),
			LoginMaxAttempts:    getEnvAsInt("AUTH_LOGIN_MAX_ATTEMPTS", 5),
			LoginLockoutSeconds: getEnvAsInt("AUTH_LOGIN_LOCKOUT_SECONDS", 900),
		},
		JWT: LoadJWT(),
	}

	return cfg, nil
}

// LoadJWT reads only the token and cookie settings. It is used on reload.
func LoadJWT() JWTConfig {
	return JWTConfig{
		Secret:                 os.Getenv("JWT_SECRET"),
		AccessTokenTTLSeconds:  getEnvAsInt("JWT_ACCESS_TOKEN_TTL_SECONDS", 900),
		RefreshTokenTTLSeconds: getEnvAsInt("JWT_REFRESH_TOKEN_TTL_SECONDS", 604800),
		Issuer:                 getEnv("JWT_ISSUER", "jlr"),
		Audience:               getEnv("JWT_AUDIENCE", "jlr-app"),
		Cookie: CookieConfig{
			Name:     getEnv("JWT_COOKIE_NAME", "jlr_auth_token"),
			Domain:   getEnv("JWT_COOKIE_DOMAIN", "localhost"),
			Path:     getEnv("JWT_COOKIE_PATH", "/"),
			HTTPOnly: getEnvAsBool("JWT_COOKIE_HTTP_ONLY", true),
			Secure:   getEnvAsBool("JWT_COOKIE_SECURE", false),
			SameSite: getEnv("JWT_COOKIE_SAME_SITE", "Lax"),
			MaxAge:   getEnvAsInt("JWT_COOKIE_MAX_AGE", 900),
		},
	}
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// LoginLockout returns the failed-login counting window.
func (a AuthConfig) LoginLockout() time.Duration {
	return time.Duration(a.LoginLockoutSeconds) * time.Second
}

// AccessTTL returns the access token lifetime.
func (j JWTConfig) AccessTTL() time.Duration {
	return time.Duration(j.AccessTokenTTLSeconds) * time.Second
}

// RefreshTTL returns the refresh token lifetime.
func (j JWTConfig) RefreshTTL() time.Duration {
	return time.Duration(j.RefreshTokenTTLSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
