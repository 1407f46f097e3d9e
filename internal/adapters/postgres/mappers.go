package postgres

import (
	"errors"
	"strings"

	"github.com/fixkg/backend/internal/domain"
	"gorm.io/gorm"
)

func toDomainUser(row userModel) domain.User {
	var avatar string
	if row.AvatarURL != nil {
		avatar = *row.AvatarURL
	}
	return domain.User{
		ID:           row.UserID,
		Username:     row.Username,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		AvatarURL:    avatar,
		IsVerified:   row.IsVerified,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
}

func nullableString(v string) *string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// isUniqueViolation relies on TranslateError; the message check covers drivers without a translator.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}
