package config

import (
	"encoding/base64"
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
)

// MinSecretBytes is the smallest accepted decoded HMAC secret (256 bits).
const MinSecretBytes = 32

// Validate checks every section that has hard bounds.
func (c *Config) Validate() error {
	var migrationRules []validation.Rule
	if c.Postgres.RunMigrations {
		migrationRules = append(migrationRules, validation.Required)
	}
	if err := validation.ValidateStruct(&c.Postgres,
		validation.Field(&c.Postgres.DSN, validation.Required),
		validation.Field(&c.Postgres.MigrationsDir, migrationRules...),
	); err != nil {
		return err
	}
	if err := c.Logger.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	return c.JWT.Validate()
}

func (l LoggerConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In("debug", "info", "warn", "error")),
		validation.Field(&l.Encoding, validation.In("json", "console")),
	)
}

// Validate checks password and throttling settings.
func (a AuthConfig) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.BcryptCost, validation.Required, validation.Min(4), validation.Max(31)),
		validation.Field(&a.LoginMaxAttempts, validation.Required, validation.Min(1)),
		validation.Field(&a.LoginLockoutSeconds, validation.Required, validation.Min(1)),
	)
}

// Validate checks the token settings against their allowed ranges.
func (j JWTConfig) Validate() error {
	return validation.ValidateStruct(&j,
		validation.Field(&j.Secret, validation.Required, validation.By(validateSecret)),
		validation.Field(&j.AccessTokenTTLSeconds, validation.Required, validation.Min(300), validation.Max(3600)),
		validation.Field(&j.RefreshTokenTTLSeconds, validation.Required, validation.Min(86400)),
		validation.Field(&j.Issuer, validation.Required),
		validation.Field(&j.Audience, validation.Required),
		validation.Field(&j.Cookie),
	)
}

// Validate checks the cookie attributes.
func (c CookieConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.HTTPOnly, validation.By(requireTrue)),
		validation.Field(&c.SameSite, validation.Required, validation.In("Strict", "Lax", "None")),
		validation.Field(&c.MaxAge, validation.Required, validation.Min(300)),
	)
}

// DecodeSecret decodes a base64 secret and enforces the minimum key size.
func DecodeSecret(secret string) ([]byte, error) {
	decoded, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, errors.New("must be valid base64")
	}
	if len(decoded) < MinSecretBytes {
		return nil, errors.New("must decode to at least 256 bits")
	}
	return decoded, nil
}

func validateSecret(value interface{}) error {
	s, _ := value.(string)
	_, err := DecodeSecret(s)
	return err
}

func requireTrue(value interface{}) error {
	if b, ok := value.(bool); !ok || !b {
		return errors.New("must be enabled")
	}
	return nil
}
