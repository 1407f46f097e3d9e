package ports

import (
	"context"
	"time"

	"github.com/fixkg/backend/internal/domain"
	"github.com/google/uuid"
)

// CreateUserParams carries an already-hashed credential into storage.
type CreateUserParams struct {
	Username     string
	Email        string
	PasswordHash string
	AvatarURL    string
	CreatedAt    time.Time
}

// UserRepository is the persistence collaborator consumed by the auth core.
// Lookups return domain.ErrNotFound when no row matches; Create returns
// domain.ErrConflict when a uniqueness constraint rejects the row.
type UserRepository interface {
	GetByID(ctx context.Context, userID uuid.UUID) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByUsername(ctx context.Context, username string) (domain.User, error)
	GetByEmailOrUsername(ctx context.Context, email, username string) (domain.User, error)
	Create(ctx context.Context, params CreateUserParams) (domain.User, error)
	SetVerified(ctx context.Context, userID uuid.UUID, verified bool, at time.Time) (domain.User, error)
}
