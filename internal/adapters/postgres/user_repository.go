package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/fixkg/backend/internal/domain"
	"github.com/fixkg/backend/internal/ports"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

var _ ports.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) GetByID(ctx context.Context, userID uuid.UUID) (domain.User, error) {
	return r.take(ctx, "user_id = ?", userID)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.take(ctx, "email = ?", email)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	return r.take(ctx, "username = ?", username)
}

func (r *UserRepository) GetByEmailOrUsername(ctx context.Context, email, username string) (domain.User, error) {
	return r.take(ctx, "email = ? OR username = ?", email, username)
}

func (r *UserRepository) Create(ctx context.Context, params ports.CreateUserParams) (domain.User, error) {
	createdAt := params.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	rec := userModel{
		UserID:       uuid.New(),
		Username:     params.Username,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		AvatarURL:    nullableString(params.AvatarURL),
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, domain.ErrConflict
		}
		return domain.User{}, err
	}
	return toDomainUser(rec), nil
}

func (r *UserRepository) SetVerified(ctx context.Context, userID uuid.UUID, verified bool, at time.Time) (domain.User, error) {
	res := r.db.WithContext(ctx).
		Model(&userModel{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"is_verified": verified,
			"updated_at":  at.UTC(),
		})
	if res.Error != nil {
		return domain.User{}, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.User{}, domain.ErrNotFound
	}
	return r.GetByID(ctx, userID)
}

func (r *UserRepository) take(ctx context.Context, query string, args ...any) (domain.User, error) {
	var rec userModel
	if err := r.db.WithContext(ctx).Where(query, args...).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, err
	}
	return toDomainUser(rec), nil
}
