package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is the account aggregate referenced by the auth core.
// Storage is owned by the persistence collaborator; the auth core only decides
// when IsVerified flips from false to true.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	AvatarURL    string
	IsVerified   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserPublic is the projection returned across the service boundary.
// It never carries the credential.
type UserPublic struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	AvatarURL  string    `json:"avatar_url,omitempty"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
}

func (u User) Public() UserPublic {
	return UserPublic{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		AvatarURL:  u.AvatarURL,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
	}
}
