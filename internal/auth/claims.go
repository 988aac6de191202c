package auth

import (
	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/jlr/user-service/internal/domain"
)

// TokenKind distinguishes access tokens from refresh tokens.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "ACCESS"
	TokenKindRefresh TokenKind = "REFRESH"
)

// Claims describes JWT payload. Roles and UserID are only set on access tokens.
type Claims struct {
	Roles     []domain.Role `json:"roles,omitempty"`
	UserID    int64         `json:"userId,omitempty"`
	TokenType TokenKind     `json:"tokenType"`
	jwt.RegisteredClaims
}
