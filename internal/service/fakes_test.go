package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/jlr/user-service/internal/domain"
	"github.com/jlr/user-service/internal/repository"
)

type memoryUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]domain.User
	err    error
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[int64]domain.User)}
}

func (r *memoryUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return repository.ErrEmailTaken
		}
	}
	r.nextID++
	now := time.Now().UTC()
	user.ID = r.nextID
	user.CreatedAt = now
	user.UpdatedAt = now
	user.Version = 1
	r.users[user.ID] = *user
	return nil
}

func (r *memoryUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.users[user.ID]
	if !ok {
		return repository.ErrUserNotFound
	}
	if current.Version != user.Version {
		return repository.ErrVersionConflict
	}
	user.Version++
	user.UpdatedAt = time.Now().UTC()
	r.users[user.ID] = *user
	return nil
}

func (r *memoryUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

func (r *memoryUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *memoryUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *memoryUserRepo) ListActive(_ context.Context) ([]domain.User, error) {
	return r.filter(func(u domain.User) bool { return u.Active }), nil
}

func (r *memoryUserRepo) ListByRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	return r.filter(func(u domain.User) bool { return u.Role == role }), nil
}

func (r *memoryUserRepo) ListByDealer(_ context.Context, dealerID string) ([]domain.User, error) {
	return r.filter(func(u domain.User) bool { return u.DealerID != nil && *u.DealerID == dealerID }), nil
}

func (r *memoryUserRepo) ListDealerManagers(_ context.Context, dealerID string) ([]domain.User, error) {
	return r.filter(func(u domain.User) bool {
		return u.Active && u.Role == domain.RoleDealerManager && u.DealerID != nil && *u.DealerID == dealerID
	}), nil
}

func (r *memoryUserRepo) filter(keep func(domain.User) bool) []domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.User
	for _, u := range r.users {
		if keep(u) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type memoryAttempts struct {
	mu       sync.Mutex
	failures map[string]int64
	err      error
}

func newMemoryAttempts() *memoryAttempts {
	return &memoryAttempts{failures: make(map[string]int64)}
}

func (a *memoryAttempts) Failures(_ context.Context, email string) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return 0, a.err
	}
	return a.failures[email], nil
}

func (a *memoryAttempts) RecordFailure(_ context.Context, email string, _ time.Duration) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return 0, a.err
	}
	a.failures[email]++
	return a.failures[email], nil
}

func (a *memoryAttempts) Reset(_ context.Context, email string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	delete(a.failures, email)
	return nil
}
