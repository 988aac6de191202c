package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jlr/user-service/internal/auth"
	"github.com/jlr/user-service/internal/config"
	"github.com/jlr/user-service/internal/domain"
	"github.com/jlr/user-service/internal/events"
	"github.com/jlr/user-service/internal/repository"
	apperrors "github.com/jlr/user-service/pkg/util/errorutil"
)

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	Role        domain.Role
	DealerID    *string
	PhoneNumber *string
}

// ProfileUpdate carries the editable profile fields.
type ProfileUpdate struct {
	FirstName   string
	LastName    string
	PhoneNumber *string
}

// UserDependencies encapsulates collaborators of the user service.
type UserDependencies struct {
	UserRepo   repository.UserRepository
	Attempts   repository.LoginAttemptRepository
	Hasher     *auth.PasswordHasher
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// UserService coordinates registration, login and account management.
type UserService struct {
	users       repository.UserRepository
	attempts    repository.LoginAttemptRepository
	hasher      *auth.PasswordHasher
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	maxAttempts int64
	lockout     time.Duration
	now         func() time.Time
}

// NewUserService builds the service.
func NewUserService(cfg config.AuthConfig, deps UserDependencies) *UserService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	hasher := deps.Hasher
	if hasher == nil {
		hasher = auth.NewPasswordHasher(cfg.BcryptCost)
	}
	return &UserService{
		users:       deps.UserRepo,
		attempts:    deps.Attempts,
		hasher:      hasher,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
		maxAttempts: int64(cfg.LoginMaxAttempts),
		lockout:     cfg.LoginLockout(),
		now:         time.Now,
	}
}

// Register creates a new active account.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	email := normalizeEmail(in.Email)
	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if exists {
		return nil, apperrors.NewConflict("user with email "+email+" already exists", nil)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         in.Role,
		DealerID:     in.DealerID,
		PhoneNumber:  in.PhoneNumber,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, apperrors.NewConflict("user with email "+email+" already exists", nil)
		}
		return nil, apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.EventUserRegistered, user, user, events.UserRegisteredPayload{
		Email:    user.Email,
		Role:     user.Role,
		DealerID: user.DealerID,
	})
	return user, nil
}

// Authenticate verifies credentials and returns the account.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	email = normalizeEmail(email)
	if s.lockedOut(ctx, email) {
		return nil, apperrors.NewTooManyRequests("too many failed login attempts, try again later")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.recordFailure(ctx, email)
			return nil, apperrors.NewUnauthorized("Invalid email or password")
		}
		return nil, apperrors.NewInternalError(err)
	}

	if !user.Active {
		return nil, apperrors.NewForbidden("User account is deactivated")
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.recordFailure(ctx, email)
			return nil, apperrors.NewUnauthorized("Invalid email or password")
		}
		return nil, apperrors.NewInternalError(err)
	}

	s.resetFailures(ctx, email)
	return user, nil
}

// RecordLogin publishes the login event for an issued access token.
func (s *UserService) RecordLogin(ctx context.Context, user *domain.User, access auth.IssuedToken) {
	s.publish(ctx, events.EventUserLoggedIn, user, user, events.UserLoggedInPayload{
		AccessTokenID: access.TokenID,
		ExpiresAt:     access.ExpiresAt,
	})
}

// RecordLogout publishes the logout event for the token subject, if it still
// resolves to an account.
func (s *UserService) RecordLogout(ctx context.Context, username string) {
	if username == "" {
		return
	}
	user, err := s.users.GetByEmail(ctx, username)
	if err != nil {
		s.logger.Debug("logout for unknown subject", zap.String("username", username))
		return
	}
	s.publish(ctx, events.EventUserLoggedOut, user, user, nil)
}

// FindByUsername resolves an active principal. Unknown and deactivated accounts
// both yield auth.ErrPrincipalNotFound.
func (s *UserService) FindByUsername(ctx context.Context, username string) (*domain.Principal, error) {
	s.logger.Debug("loading principal", zap.String("username", username))

	user, err := s.users.GetByEmail(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, auth.ErrPrincipalNotFound
		}
		return nil, err
	}
	if !user.Active {
		return nil, auth.ErrPrincipalNotFound
	}
	principal := user.Principal()
	return &principal, nil
}

// GetByID returns one account.
func (s *UserService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err, id)
	}
	return user, nil
}

// FindByEmail returns the account registered under email.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

// ListActive returns every active account.
func (s *UserService) ListActive(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.ListActive(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return users, nil
}

// ListByRole returns every account with the role.
func (s *UserService) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	users, err := s.users.ListByRole(ctx, role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return users, nil
}

// ListByDealer returns every account attached to a dealership.
func (s *UserService) ListByDealer(ctx context.Context, dealerID string) ([]domain.User, error) {
	users, err := s.users.ListByDealer(ctx, dealerID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return users, nil
}

// DealerManagers returns the managers of a dealership.
func (s *UserService) DealerManagers(ctx context.Context, dealerID string) ([]domain.User, error) {
	users, err := s.users.ListDealerManagers(ctx, dealerID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return users, nil
}

// UpdateProfile changes the name and phone fields of an account.
func (s *UserService) UpdateProfile(ctx context.Context, id int64, update ProfileUpdate) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err, id)
	}

	user.FirstName = update.FirstName
	user.LastName = update.LastName
	user.PhoneNumber = update.PhoneNumber
	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword replaces the password after verifying the current one.
func (s *UserService) ChangePassword(ctx context.Context, id int64, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return mapLookupError(err, id)
	}

	if err := s.hasher.Compare(user.PasswordHash, currentPassword); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return apperrors.NewUnauthorized("Current password is incorrect")
		}
		return apperrors.NewInternalError(err)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	user.PasswordHash = hash
	if err := s.save(ctx, user); err != nil {
		return err
	}

	s.publish(ctx, events.EventUserPasswordChanged, user, user, nil)
	return nil
}

// Deactivate disables an account. Tokens already issued to it stay valid until
// they expire, but the authentication middleware refuses inactive principals.
func (s *UserService) Deactivate(ctx context.Context, id int64, actor *domain.Principal) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return mapLookupError(err, id)
	}
	if !user.Active {
		return nil
	}

	user.Active = false
	if err := s.save(ctx, user); err != nil {
		return err
	}

	by := user
	if actor != nil {
		by = &domain.User{ID: actor.ID, Email: actor.Username, Role: actor.Role}
	}
	s.publish(ctx, events.EventUserDeactivated, user, by, nil)
	return nil
}

func (s *UserService) save(ctx context.Context, user *domain.User) error {
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return apperrors.NewConflict("user was modified concurrently, retry", nil)
		}
		return apperrors.NewInternalError(err)
	}
	return nil
}

func (s *UserService) lockedOut(ctx context.Context, email string) bool {
	if s.attempts == nil || s.maxAttempts <= 0 {
		return false
	}
	failures, err := s.attempts.Failures(ctx, email)
	if err != nil {
		s.logger.Warn("login attempt lookup failed", zap.Error(err))
		return false
	}
	return failures >= s.maxAttempts
}

func (s *UserService) recordFailure(ctx context.Context, email string) {
	if s.attempts == nil {
		return
	}
	count, err := s.attempts.RecordFailure(ctx, email, s.lockout)
	if err != nil {
		s.logger.Warn("login attempt record failed", zap.Error(err))
		return
	}
	if count == s.maxAttempts {
		s.logger.Warn("login locked out", zap.String("email", email), zap.Duration("window", s.lockout))
	}
}

func (s *UserService) resetFailures(ctx context.Context, email string) {
	if s.attempts == nil {
		return
	}
	if err := s.attempts.Reset(ctx, email); err != nil {
		s.logger.Warn("login attempt reset failed", zap.Error(err))
	}
}

func (s *UserService) publish(ctx context.Context, eventType events.EventType, subject, actor *domain.User, payload any) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    subject.ID,
		Actor:     events.Actor{UserID: actor.ID, Username: actor.Email, Role: actor.Role},
		Timestamp: s.now().UTC(),
		Payload:   payload,
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}

func mapLookupError(err error, id int64) error {
	if errors.Is(err, repository.ErrUserNotFound) {
		return apperrors.NewNotFound("user", map[string]any{"id": id})
	}
	return apperrors.NewInternalError(fmt.Errorf("load user %d: %w", id, err))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
