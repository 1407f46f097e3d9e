package ports

import (
	"time"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TokenType discriminates access tokens from refresh tokens inside the signed payload.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// TokenClaims is the signed payload. Display fields are only set on access tokens.
type TokenClaims struct {
	Subject    string
	Type       TokenType
	Username   string
	Email      string
	AvatarURL  string
	IsVerified bool
	IssuedAt   time.Time
	ExpiresAt  time.Time
}

// TokenSigner signs and verifies claims. Parse reports domain.ErrInvalidSignature,
// domain.ErrTokenExpired or domain.ErrTokenDecode; it does not check the type.
type TokenSigner interface {
	Sign(claims TokenClaims) (string, error)
	Parse(token string) (TokenClaims, error)
}
