package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fixkg/backend/internal/domain"
	"github.com/fixkg/backend/internal/ports"
	"github.com/google/uuid"
)

// Register stores a new unverified user and mails the first verification code.
// If the code cannot be delivered the user is kept; RequestVerificationCode resends.
func (s *Service) Register(ctx context.Context, candidate domain.Candidate) (domain.UserPublic, error) {
	candidate.Normalize()
	if err := candidate.Validate(); err != nil {
		return domain.UserPublic{}, err
	}

	_, err := s.users.GetByEmailOrUsername(ctx, candidate.Email, candidate.Username)
	switch {
	case err == nil:
		return domain.UserPublic{}, domain.ErrEmailOrUsernameAlreadyExists
	case !errors.Is(err, domain.ErrNotFound):
		return domain.UserPublic{}, domain.Dependency("lookup user", err)
	}

	passwordHash, err := s.hasher.Hash(candidate.Password)
	if err != nil {
		return domain.UserPublic{}, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.users.Create(ctx, ports.CreateUserParams{
		Username:     candidate.Username,
		Email:        candidate.Email,
		PasswordHash: passwordHash,
		AvatarURL:    candidate.AvatarURL,
		CreatedAt:    s.nowFn(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return domain.UserPublic{}, domain.ErrEmailOrUsernameAlreadyExists
		}
		return domain.UserPublic{}, domain.Dependency("create user", err)
	}

	if err := s.otp.SendAndSaveOTP(ctx, created.Email); err != nil {
		logFailure(ctx, "register", err, "user_id", created.ID.String())
		return domain.UserPublic{}, err
	}

	logSuccess(ctx, "register", "user_id", created.ID.String())
	return created.Public(), nil
}

// Login issues a fresh token pair, replacing the stored refresh record for the user.
func (s *Service) Login(ctx context.Context, req LoginRequest) (TokenPair, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return TokenPair{}, fmt.Errorf("%w: username and password are required", domain.ErrInvalidInput)
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return TokenPair{}, domain.ErrUserWithUsernameNotFound
		}
		return TokenPair{}, domain.Dependency("lookup user", err)
	}
	if !user.IsVerified {
		return TokenPair{}, domain.ErrUserNotVerifyEmail
	}
	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		logFailure(ctx, "login", err, "user_id", user.ID.String())
		if errors.Is(err, domain.ErrPasswordIsIncorrect) {
			return TokenPair{}, domain.ErrPasswordIsIncorrect
		}
		return TokenPair{}, fmt.Errorf("compare password: %w", err)
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return TokenPair{}, err
	}
	logSuccess(ctx, "login", "user_id", user.ID.String())
	return pair, nil
}

// VerifyUserByOTPCode consumes the emailed code and marks the account verified.
func (s *Service) VerifyUserByOTPCode(ctx context.Context, req VerifyRequest) (domain.UserPublic, error) {
	email := domain.NormalizeEmail(req.Email)
	if err := domain.ValidateEmail(email); err != nil {
		return domain.UserPublic{}, err
	}

	user, err := s.lookupUnverifiedByEmail(ctx, email)
	if err != nil {
		return domain.UserPublic{}, err
	}
	if err := s.otp.VerifyOTP(ctx, email, req.OTPCode); err != nil {
		return domain.UserPublic{}, err
	}

	updated, err := s.users.SetVerified(ctx, user.ID, true, s.nowFn())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.UserPublic{}, domain.ErrUserWithIDNotFound
		}
		return domain.UserPublic{}, domain.Dependency("set verified", err)
	}
	logSuccess(ctx, "verify_user_by_otp_code", "user_id", updated.ID.String())
	return updated.Public(), nil
}

// RequestVerificationCode mails a new code to an unverified account.
func (s *Service) RequestVerificationCode(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)
	if err := domain.ValidateEmail(email); err != nil {
		return err
	}
	if _, err := s.lookupUnverifiedByEmail(ctx, email); err != nil {
		return err
	}
	if err := s.otp.SendAndSaveOTP(ctx, email); err != nil {
		logFailure(ctx, "request_verification_code", err)
		return err
	}
	return nil
}

// RefreshToken rotates the pair. The presented refresh token is usable exactly once.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.tokens.DecodeTokenWithTypeChecking(strings.TrimSpace(refreshToken), ports.TokenTypeRefresh)
	if err != nil {
		return TokenPair{}, err
	}
	userID := claims.Subject

	if err := s.tokens.VerifyRefreshToken(ctx, userID, strings.TrimSpace(refreshToken)); err != nil {
		logFailure(ctx, "refresh_token", err, "user_id", userID)
		return TokenPair{}, err
	}
	if err := s.tokens.DeleteRefreshToken(ctx, userID); err != nil {
		return TokenPair{}, err
	}

	user, err := s.userByID(ctx, userID)
	if err != nil {
		return TokenPair{}, err
	}
	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return TokenPair{}, err
	}
	logSuccess(ctx, "refresh_token", "user_id", userID)
	return pair, nil
}

func (s *Service) issuePair(ctx context.Context, user domain.User) (TokenPair, error) {
	access, refresh, err := s.tokens.GetAccessAndRefreshTokens(user)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.tokens.SaveRefreshToken(ctx, user.ID.String(), refresh); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: TokenTypeBearer}, nil
}

func (s *Service) lookupUnverifiedByEmail(ctx context.Context, email string) (domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, domain.ErrUserWithEmailNotFound
		}
		return domain.User{}, domain.Dependency("lookup user", err)
	}
	if user.IsVerified {
		return domain.User{}, domain.ErrUserAlreadyVerifiedEmail
	}
	return user, nil
}

func (s *Service) userByID(ctx context.Context, subject string) (domain.User, error) {
	id, err := uuid.Parse(subject)
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: subject is not a user id", domain.ErrTokenDecode)
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, domain.ErrUserWithIDNotFound
		}
		return domain.User{}, domain.Dependency("lookup user", err)
	}
	return user, nil
}

func logSuccess(ctx context.Context, operation string, attrs ...any) {
	base := []any{
		"service", serviceName,
		"module", "auth",
		"layer", "application",
		"operation", operation,
		"outcome", "success",
	}
	slog.Default().InfoContext(ctx, operation+" completed", append(base, attrs...)...)
}

func logFailure(ctx context.Context, operation string, err error, attrs ...any) {
	base := []any{
		"service", serviceName,
		"module", "auth",
		"layer", "application",
		"operation", operation,
		"outcome", "failure",
		"error_code", domain.CodeOf(err),
		"error", err,
	}
	level := slog.LevelWarn
	if domain.KindOf(err) == domain.KindInternal {
		level = slog.LevelError
	}
	slog.Default().Log(ctx, level, operation+" failed", append(base, attrs...)...)
}
