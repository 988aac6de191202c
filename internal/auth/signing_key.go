package auth

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/jlr/user-service/internal/config"
)

// SecretSource yields the currently configured base64 secret.
type SecretSource func() string

// SigningKey is HMAC key material derived from one secret value. It is never mutated.
type SigningKey struct {
	source   string
	material []byte
}

// SigningKeyProvider caches the key derived from the live secret and replaces it
// when the secret changes.
type SigningKeyProvider struct {
	secret SecretSource
	logger *zap.Logger

	mu      sync.Mutex
	current atomic.Pointer[SigningKey]
}

// NewSigningKeyProvider builds a provider. The secret is re-read on every Key call.
func NewSigningKeyProvider(secret SecretSource, logger *zap.Logger) *SigningKeyProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SigningKeyProvider{secret: secret, logger: logger}
}

// Key returns the key for the current secret, deriving it on first use or after a change.
func (p *SigningKeyProvider) Key() (*SigningKey, error) {
	secret := p.secret()
	if key := p.current.Load(); key != nil && key.source == secret {
		return key, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if key := p.current.Load(); key != nil && key.source == secret {
		return key, nil
	}

	material, err := config.DecodeSecret(secret)
	if err != nil {
		return nil, &ConfigurationError{Err: err}
	}

	key := &SigningKey{source: secret, material: material}
	p.current.Store(key)
	p.logger.Info("jwt signing key updated")
	return key, nil
}
