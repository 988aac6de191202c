package auth

import (
	"slices"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jlr/user-service/internal/config"
	"github.com/jlr/user-service/internal/domain"
)

// ClockSkew is the slack applied to both ends of a token's validity window.
const ClockSkew = 30 * time.Second

// Settings exposes the live JWT configuration.
type Settings interface {
	Current() config.JWTConfig
}

// TokenService issues and verifies signed access and refresh tokens.
type TokenService struct {
	settings Settings
	keys     *SigningKeyProvider
	logger   *zap.Logger
	now      func() time.Time
}

// TokenOption customizes a TokenService.
type TokenOption func(*TokenService)

// WithClock overrides the time source.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		s.now = now
	}
}

// NewTokenService builds a new service.
func NewTokenService(settings Settings, keys *SigningKeyProvider, logger *zap.Logger, opts ...TokenOption) *TokenService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &TokenService{settings: settings, keys: keys, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IssuedToken is a signed token with the timing it was issued under.
type IssuedToken struct {
	Value     string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// IssueAccess signs a short-lived token carrying the principal's role and id.
func (s *TokenService) IssueAccess(p domain.Principal) (IssuedToken, error) {
	cfg := s.settings.Current()
	return s.issue(cfg, &Claims{
		Roles:     []domain.Role{p.Role},
		UserID:    p.ID,
		TokenType: TokenKindAccess,
	}, p.Username, cfg.AccessTTL())
}

// IssueRefresh signs a long-lived token with minimal claims.
func (s *TokenService) IssueRefresh(p domain.Principal) (IssuedToken, error) {
	cfg := s.settings.Current()
	return s.issue(cfg, &Claims{TokenType: TokenKindRefresh}, p.Username, cfg.RefreshTTL())
}

func (s *TokenService) issue(cfg config.JWTConfig, claims *Claims, subject string, ttl time.Duration) (IssuedToken, error) {
	key, err := s.keys.Key()
	if err != nil {
		return IssuedToken{}, err
	}

	issuedAt := s.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(ttl)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    cfg.Issuer,
		Audience:  jwt.ClaimStrings{cfg.Audience},
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		NotBefore: jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		ID:        uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key.material)
	if err != nil {
		return IssuedToken{}, err
	}
	return IssuedToken{
		Value:     signed,
		TokenID:   claims.ID,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Validate verifies signature, validity window, issuer, audience, subject and kind,
// in that order, and stops at the first failing check.
func (s *TokenService) Validate(token, expectedSubject string) Outcome {
	claims, reason := s.parse(token, true)
	if reason != "" {
		return rejected(reason)
	}
	if claims.Subject != expectedSubject {
		s.logger.Debug("token subject mismatch", zap.String("expected", expectedSubject), zap.String("got", claims.Subject))
		return rejected(ReasonSubjectMismatch)
	}
	if claims.TokenType != TokenKindAccess {
		s.logger.Debug("invalid token type for access", zap.String("token_type", string(claims.TokenType)))
		return rejected(ReasonWrongTokenKind)
	}

	return authenticated(Identity{
		Username:    claims.Subject,
		PrincipalID: claims.UserID,
		Roles:       claims.Roles,
		TokenID:     claims.ID,
		ExpiresAt:   claims.ExpiresAt.Time,
	})
}

// ExtractSubject returns the token subject.
func (s *TokenService) ExtractSubject(token string) (string, error) {
	claims, reason := s.parse(token, true)
	if reason != "" {
		return "", reason
	}
	return claims.Subject, nil
}

// ExtractRoles returns the role list of an access token.
func (s *TokenService) ExtractRoles(token string) ([]domain.Role, error) {
	claims, reason := s.parse(token, true)
	if reason != "" {
		return nil, reason
	}
	return claims.Roles, nil
}

// ExtractPrincipalID returns the principal id of an access token.
func (s *TokenService) ExtractPrincipalID(token string) (int64, error) {
	claims, reason := s.parse(token, true)
	if reason != "" {
		return 0, reason
	}
	return claims.UserID, nil
}

// IsExpired reports whether the expiry of an authentic token has passed, ignoring skew.
func (s *TokenService) IsExpired(token string) (bool, error) {
	claims, reason := s.parse(token, false)
	if reason != "" {
		return false, reason
	}
	if claims.ExpiresAt == nil {
		return true, nil
	}
	return s.now().After(claims.ExpiresAt.Time), nil
}

// parse verifies the signature and the claims shared by every read path.
func (s *TokenService) parse(token string, checkWindow bool) (*Claims, Reason) {
	cfg := s.settings.Current()

	key, err := s.keys.Key()
	if err != nil {
		s.logger.Error("signing key unavailable", zap.Error(err))
		return nil, ReasonInvalidSignature
	}

	claims := &Claims{}
	_, err = jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return key.material, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		s.logger.Debug("token verification failed", zap.Error(err))
		return nil, ReasonInvalidSignature
	}

	if checkWindow {
		now := s.now()
		if claims.ExpiresAt == nil || now.After(claims.ExpiresAt.Add(ClockSkew)) {
			return nil, ReasonExpired
		}
		if claims.NotBefore != nil && now.Before(claims.NotBefore.Add(-ClockSkew)) {
			return nil, ReasonNotYetValid
		}
	}
	if claims.Issuer != cfg.Issuer {
		return nil, ReasonIssuerMismatch
	}
	if !slices.Contains(claims.Audience, cfg.Audience) {
		return nil, ReasonAudienceMismatch
	}
	return claims, ""
}
