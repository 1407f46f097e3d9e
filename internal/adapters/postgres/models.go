package postgres

import (
	"time"

	"github.com/google/uuid"
)

// uniqueIndex tags mirror migrations/0001_users.sql for AutoMigrate-based test schemas.
type userModel struct {
	UserID       uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	Username     string    `gorm:"column:username;size:100;not null;uniqueIndex:users_username_key"`
	Email        string    `gorm:"column:email;size:320;not null;uniqueIndex:users_email_key"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	AvatarURL    *string   `gorm:"column:avatar_url"`
	IsVerified   bool      `gorm:"column:is_verified;not null;default:false"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (userModel) TableName() string { return "users" }
