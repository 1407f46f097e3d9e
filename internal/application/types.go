package application

import (
	"time"
)

type Config struct {
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	RefreshRecordTTL time.Duration
	OTPTTL           time.Duration
	OTPLength        int
}

// DefaultConfig mirrors the reference lifetimes: 15 minute access tokens,
// 30 day refresh tokens and records, 5 minute six-digit codes.
func DefaultConfig() Config {
	return Config{
		AccessTokenTTL:   15 * time.Minute,
		RefreshTokenTTL:  30 * 24 * time.Hour,
		RefreshRecordTTL: 30 * 24 * time.Hour,
		OTPTTL:           5 * time.Minute,
		OTPLength:        6,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.AccessTokenTTL <= 0 {
		c.AccessTokenTTL = def.AccessTokenTTL
	}
	if c.RefreshTokenTTL <= 0 {
		c.RefreshTokenTTL = def.RefreshTokenTTL
	}
	if c.RefreshRecordTTL <= 0 {
		c.RefreshRecordTTL = def.RefreshRecordTTL
	}
	if c.OTPTTL <= 0 {
		c.OTPTTL = def.OTPTTL
	}
	if c.OTPLength <= 0 {
		c.OTPLength = def.OTPLength
	}
	return c
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type VerifyRequest struct {
	Email   string `json:"email_user"`
	OTPCode string `json:"otp_code"`
}

const TokenTypeBearer = "bearer"

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// AccessIdentity is the verified content of an access token.
type AccessIdentity struct {
	UserID     string    `json:"user_id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	AvatarURL  string    `json:"avatar_url,omitempty"`
	IsVerified bool      `json:"is_verified"`
	ExpiresAt  time.Time `json:"expires_at"`
}
