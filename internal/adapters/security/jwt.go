package security

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"time"

	"github.com/fixkg/backend/internal/domain"
	"github.com/fixkg/backend/internal/ports"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const defaultLeeway = 30 * time.Second

// JWTSigner signs typed auth tokens with HS256 (shared secret) or RS256 (PEM keypair).
type JWTSigner struct {
	kid       string
	method    jwt.SigningMethod
	signKey   any
	verifyKey any
	leeway    time.Duration
}

// NewHMACSigner builds an HS256 signer from a shared secret.
func NewHMACSigner(secret string) (*JWTSigner, error) {
	if len(secret) < 16 {
		return nil, errors.New("jwt secret key must be at least 16 bytes")
	}
	return &JWTSigner{
		method:    jwt.SigningMethodHS256,
		signKey:   []byte(secret),
		verifyKey: []byte(secret),
		leeway:    defaultLeeway,
	}, nil
}

// NewRSASigner builds an RS256 signer from configured PEM keys.
func NewRSASigner(kid, privateKeyPEM, publicKeyPEM string) (*JWTSigner, error) {
	if kid == "" {
		return nil, errors.New("jwt key id (kid) is required")
	}
	if privateKeyPEM == "" || publicKeyPEM == "" {
		return nil, errors.New("jwt private/public keys are required")
	}
	priv, err := parseRSAPrivate(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	pub, err := parseRSAPublic(publicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	return &JWTSigner{
		kid:       kid,
		method:    jwt.SigningMethodRS256,
		signKey:   priv,
		verifyKey: pub,
		leeway:    defaultLeeway,
	}, nil
}

// NewEphemeralRSASigner generates an in-memory RS256 keypair for local runs.
// Tokens do not survive a restart.
func NewEphemeralRSASigner(kid string) (*JWTSigner, error) {
	if kid == "" {
		kid = "ephemeral-key-1"
	}
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}
	return &JWTSigner{
		kid:       kid,
		method:    jwt.SigningMethodRS256,
		signKey:   privateKey,
		verifyKey: &privateKey.PublicKey,
		leeway:    defaultLeeway,
	}, nil
}

// Algorithm reports the JWS alg used by this signer.
func (s *JWTSigner) Algorithm() string { return s.method.Alg() }

type authJWTClaims struct {
	Type       string `json:"type"`
	Username   string `json:"username,omitempty"`
	Email      string `json:"email,omitempty"`
	AvatarURL  string `json:"avatar_url,omitempty"`
	IsVerified *bool  `json:"is_verified,omitempty"`
	jwt.RegisteredClaims
}

func (s *JWTSigner) Sign(claims ports.TokenClaims) (string, error) {
	// jti keeps two tokens issued within the same second distinct.
	payload := authJWTClaims{
		Type:     string(claims.Type),
		Username: claims.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   claims.Subject,
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		},
	}
	if claims.Type == ports.TokenTypeAccess {
		verified := claims.IsVerified
		payload.Email = claims.Email
		payload.AvatarURL = claims.AvatarURL
		payload.IsVerified = &verified
	}

	token := jwt.NewWithClaims(s.method, payload)
	if s.kid != "" {
		token.Header["kid"] = s.kid
	}
	return token.SignedString(s.signKey)
}

func (s *JWTSigner) Parse(raw string) (ports.TokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &authJWTClaims{}, func(*jwt.Token) (any, error) {
		return s.verifyKey, nil
	},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(s.leeway),
	)
	if err != nil {
		return ports.TokenClaims{}, mapParseError(err)
	}
	claims, ok := parsed.Claims.(*authJWTClaims)
	if !ok || !parsed.Valid {
		return ports.TokenClaims{}, domain.ErrTokenDecode
	}
	if claims.Subject == "" {
		return ports.TokenClaims{}, fmt.Errorf("%w: missing subject", domain.ErrTokenDecode)
	}

	out := ports.TokenClaims{
		Subject:   claims.Subject,
		Type:      ports.TokenType(claims.Type),
		Username:  claims.Username,
		Email:     claims.Email,
		AvatarURL: claims.AvatarURL,
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}
	if claims.IsVerified != nil {
		out.IsVerified = *claims.IsVerified
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time.UTC()
	}
	return out, nil
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return domain.ErrTokenExpired
	default:
		return fmt.Errorf("%w: %v", domain.ErrTokenDecode, err)
	}
}

func parseRSAPrivate(raw string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(raw))
	if block == nil {
		return nil, errors.New("invalid private PEM")
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	keyAny, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := keyAny.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("private key is not RSA")
	}
	return key, nil
}

func parseRSAPublic(raw string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(raw))
	if block == nil {
		return nil, errors.New("invalid public PEM")
	}
	if key, err := x509.ParsePKCS1PublicKey(block.Bytes); err == nil {
		return key, nil
	}
	keyAny, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := keyAny.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("public key is not RSA")
	}
	return key, nil
}
