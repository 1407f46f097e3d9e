package application

import (
	"context"
	"strings"

	"github.com/fixkg/backend/internal/domain"
	"github.com/fixkg/backend/internal/ports"
)

// AuthenticateAccessToken checks signature, expiry and type without touching storage.
func (s *Service) AuthenticateAccessToken(token string) (AccessIdentity, error) {
	claims, err := s.tokens.DecodeTokenWithTypeChecking(strings.TrimSpace(token), ports.TokenTypeAccess)
	if err != nil {
		return AccessIdentity{}, err
	}
	return AccessIdentity{
		UserID:     claims.Subject,
		Username:   claims.Username,
		Email:      claims.Email,
		AvatarURL:  claims.AvatarURL,
		IsVerified: claims.IsVerified,
		ExpiresAt:  claims.ExpiresAt,
	}, nil
}

// CurrentUser resolves the account behind an access token from storage.
func (s *Service) CurrentUser(ctx context.Context, token string) (domain.UserPublic, error) {
	identity, err := s.AuthenticateAccessToken(token)
	if err != nil {
		return domain.UserPublic{}, err
	}
	user, err := s.userByID(ctx, identity.UserID)
	if err != nil {
		return domain.UserPublic{}, err
	}
	return user.Public(), nil
}
