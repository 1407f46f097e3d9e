package application

import (
	"context"
	"fmt"
	"time"

	"github.com/fixkg/backend/internal/domain"
	"github.com/fixkg/backend/internal/ports"
)

const refreshKeyPrefix = "refresh_token:"

// TokenService signs typed tokens and owns the refresh_token:{user_id} records.
type TokenService struct {
	signer     ports.TokenSigner
	store      ports.SessionStore
	accessTTL  time.Duration
	refreshTTL time.Duration
	recordTTL  time.Duration
	nowFn      func() time.Time
}

func NewTokenService(signer ports.TokenSigner, store ports.SessionStore, cfg Config) *TokenService {
	cfg = cfg.withDefaults()
	return &TokenService{
		signer:     signer,
		store:      store,
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		recordTTL:  cfg.RefreshRecordTTL,
		nowFn:      func() time.Time { return time.Now().UTC() },
	}
}

func (t *TokenService) CreateAccessToken(userID, email, username, avatarURL string, isVerified bool) (string, error) {
	now := t.nowFn()
	token, err := t.signer.Sign(ports.TokenClaims{
		Subject:    userID,
		Type:       ports.TokenTypeAccess,
		Username:   username,
		Email:      email,
		AvatarURL:  avatarURL,
		IsVerified: isVerified,
		IssuedAt:   now,
		ExpiresAt:  now.Add(t.accessTTL),
	})
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return token, nil
}

func (t *TokenService) CreateRefreshToken(userID, username string) (string, error) {
	now := t.nowFn()
	token, err := t.signer.Sign(ports.TokenClaims{
		Subject:   userID,
		Type:      ports.TokenTypeRefresh,
		Username:  username,
		IssuedAt:  now,
		ExpiresAt: now.Add(t.refreshTTL),
	})
	if err != nil {
		return "", fmt.Errorf("sign refresh token: %w", err)
	}
	return token, nil
}

func (t *TokenService) GetAccessAndRefreshTokens(user domain.User) (string, string, error) {
	id := user.ID.String()
	access, err := t.CreateAccessToken(id, user.Email, user.Username, user.AvatarURL, user.IsVerified)
	if err != nil {
		return "", "", err
	}
	refresh, err := t.CreateRefreshToken(id, user.Username)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// SaveRefreshToken overwrites any earlier record, which invalidates the previous token.
func (t *TokenService) SaveRefreshToken(ctx context.Context, userID, token string) error {
	if err := t.store.Set(ctx, refreshKey(userID), token, t.recordTTL); err != nil {
		return domain.Dependency("save refresh token", err)
	}
	return nil
}

func (t *TokenService) VerifyRefreshToken(ctx context.Context, userID, provided string) error {
	stored, ok, err := t.store.Get(ctx, refreshKey(userID))
	if err != nil {
		return domain.Dependency("load refresh token", err)
	}
	if !ok {
		return domain.ErrRefreshTokenNotFound
	}
	if stored != provided {
		return fmt.Errorf("%w: refresh token was superseded", domain.ErrInvalidSignature)
	}
	return nil
}

func (t *TokenService) DeleteRefreshToken(ctx context.Context, userID string) error {
	if err := t.store.Delete(ctx, refreshKey(userID)); err != nil {
		return domain.Dependency("delete refresh token", err)
	}
	return nil
}

func (t *TokenService) DecodeTokenWithTypeChecking(token string, expected ports.TokenType) (ports.TokenClaims, error) {
	claims, err := t.signer.Parse(token)
	if err != nil {
		return ports.TokenClaims{}, err
	}
	if claims.Type != expected {
		return ports.TokenClaims{}, fmt.Errorf("%w: expected %s, got %q", domain.ErrInvalidTokenType, expected, claims.Type)
	}
	return claims, nil
}

func refreshKey(userID string) string { return refreshKeyPrefix + userID }
