package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode"
)

const (
	maxUsernameLength = 100
	// bcrypt ignores input past 72 bytes and x/crypto rejects it outright.
	maxPasswordBytes = 72
)

// Candidate is a registration request before the credential is hashed.
type Candidate struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Normalize trims identity fields and lowercases the email in place.
func (c *Candidate) Normalize() {
	c.Username = strings.TrimSpace(c.Username)
	c.Email = NormalizeEmail(c.Email)
	c.AvatarURL = strings.TrimSpace(c.AvatarURL)
}

// Validate checks shape only; uniqueness is enforced by the auth service and storage.
func (c Candidate) Validate() error {
	if c.Username == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if len(c.Username) > maxUsernameLength {
		return fmt.Errorf("%w: username must be <= %d characters", ErrInvalidInput, maxUsernameLength)
	}
	for _, r := range c.Username {
		if unicode.IsSpace(r) {
			return fmt.Errorf("%w: username must not contain whitespace", ErrInvalidInput)
		}
	}
	if err := ValidateEmail(c.Email); err != nil {
		return err
	}
	if c.Password == "" {
		return fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	if len(c.Password) > maxPasswordBytes {
		return fmt.Errorf("%w: password must be <= %d bytes", ErrInvalidInput, maxPasswordBytes)
	}
	return nil
}

// NormalizeEmail canonicalizes an email for storage, lookup and OTP keys.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail rejects empty or malformed addresses.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}
	return nil
}
