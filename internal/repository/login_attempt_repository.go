package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const loginAttemptPrefix = "auth:login_failures:"

// LoginAttemptRepository counts failed logins per email within a sliding window.
type LoginAttemptRepository interface {
	Failures(ctx context.Context, email string) (int64, error)
	RecordFailure(ctx context.Context, email string, window time.Duration) (int64, error)
	Reset(ctx context.Context, email string) error
}

type loginAttemptRepository struct {
	client *redis.Client
}

// NewLoginAttemptRepository returns a Redis-backed implementation.
func NewLoginAttemptRepository(client *redis.Client) LoginAttemptRepository {
	return &loginAttemptRepository{client: client}
}

func (r *loginAttemptRepository) Failures(ctx context.Context, email string) (int64, error) {
	count, err := r.client.Get(ctx, loginAttemptKey(email)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return count, err
}

func (r *loginAttemptRepository) RecordFailure(ctx context.Context, email string, window time.Duration) (int64, error) {
	key := loginAttemptKey(email)

	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, key)
		p.Expire(ctx, key, window)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (r *loginAttemptRepository) Reset(ctx context.Context, email string) error {
	return r.client.Del(ctx, loginAttemptKey(email)).Err()
}

func loginAttemptKey(email string) string {
	return loginAttemptPrefix + strings.ToLower(strings.TrimSpace(email))
}
