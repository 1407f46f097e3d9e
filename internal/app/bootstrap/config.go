package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration for the auth service.
// It merges file defaults and environment overrides to support both local and deployed runs.
type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	DatabaseURL string
	RedisURL    string
	MaxDBConns  int

	JWTAlgorithm      string
	JWTSecretKey      string
	JWTPrivateKeyPEM  string
	JWTPublicKeyPEM   string
	JWTKeyID          string
	AllowEphemeralJWT bool

	BcryptCost int

	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	RefreshRecordTTL time.Duration
	OTPTTL           time.Duration
	OTPLength        int

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
}

// configFile mirrors the YAML schema used by configs/default.yaml.
// Secrets are only read from the environment.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL string `yaml:"postgres_url"`
		RedisURL    string `yaml:"redis_url"`
		MaxDBConns  int    `yaml:"max_db_conns"`
	} `yaml:"dependencies"`
	Tokens struct {
		Algorithm            string `yaml:"algorithm"`
		KeyID                string `yaml:"key_id"`
		AllowEphemeral       *bool  `yaml:"allow_ephemeral"`
		AccessExpiresMinutes int    `yaml:"access_expires_minutes"`
		RefreshExpiresDays   int    `yaml:"refresh_expires_days"`
		RefreshRecordTTLDays int    `yaml:"refresh_record_ttl_days"`
	} `yaml:"tokens"`
	OTP struct {
		TTLSeconds int `yaml:"ttl_seconds"`
		Length     int `yaml:"length"`
	} `yaml:"otp"`
	SMTP struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		From string `yaml:"from"`
	} `yaml:"smtp"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
// A missing file is not an error; a malformed one is.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:         "fixkg-auth",
		HTTPPort:          8080,
		GRPCPort:          9090,
		MaxDBConns:        20,
		JWTAlgorithm:      "HS256",
		JWTKeyID:          "fixkg-auth-key-1",
		AllowEphemeralJWT: false,
		BcryptCost:        12,
		AccessTokenTTL:    15 * time.Minute,
		RefreshTokenTTL:   30 * 24 * time.Hour,
		RefreshRecordTTL:  30 * 24 * time.Hour,
		OTPTTL:            5 * time.Minute,
		OTPLength:         6,
		SMTPPort:          587,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		applyFile(&cfg, f)
	}

	cfg.ServiceID = envOrDefault("SERVICE_ID", cfg.ServiceID)
	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.MaxDBConns = envInt("DB_MAX_CONNS", cfg.MaxDBConns)

	cfg.JWTAlgorithm = strings.ToUpper(strings.TrimSpace(envOrDefault("JWT_ALGORITHM", cfg.JWTAlgorithm)))
	cfg.JWTSecretKey = envOrDefault("JWT_SECRET_KEY", cfg.JWTSecretKey)
	cfg.JWTPrivateKeyPEM = envOrDefault("JWT_PRIVATE_KEY_PEM", cfg.JWTPrivateKeyPEM)
	cfg.JWTPublicKeyPEM = envOrDefault("JWT_PUBLIC_KEY_PEM", cfg.JWTPublicKeyPEM)
	cfg.JWTKeyID = envOrDefault("JWT_KEY_ID", cfg.JWTKeyID)
	cfg.AllowEphemeralJWT = envBool("JWT_ALLOW_EPHEMERAL", cfg.AllowEphemeralJWT)

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.BcryptCost = envInt("BCRYPT_ROUNDS", cfg.BcryptCost)

	cfg.AccessTokenTTL = time.Duration(envInt("ACCESS_TOKEN_EXPIRES_MINUTES", int(cfg.AccessTokenTTL.Minutes()))) * time.Minute
	cfg.RefreshTokenTTL = time.Duration(envInt("REFRESH_TOKEN_EXPIRES_DAYS", int(cfg.RefreshTokenTTL.Hours()/24))) * 24 * time.Hour
	cfg.RefreshRecordTTL = time.Duration(envInt("REFRESH_RECORD_TTL_DAYS", int(cfg.RefreshRecordTTL.Hours()/24))) * 24 * time.Hour
	cfg.OTPTTL = time.Duration(envInt("OTP_TTL_SECONDS", int(cfg.OTPTTL.Seconds()))) * time.Second
	cfg.OTPLength = envInt("OTP_LENGTH", cfg.OTPLength)

	cfg.SMTPHost = envOrDefault("SMTP_HOST", cfg.SMTPHost)
	cfg.SMTPPort = envInt("SMTP_PORT", cfg.SMTPPort)
	cfg.SMTPUser = envOrDefault("SMTP_USER", cfg.SMTPUser)
	cfg.SMTPPassword = envOrDefault("SMTP_PASSWORD", cfg.SMTPPassword)
	cfg.SMTPFrom = envOrDefault("SMTP_FROM", cfg.SMTPFrom)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, f configFile) {
	if f.Service.ID != "" {
		cfg.ServiceID = f.Service.ID
	}
	if f.Service.HTTPPort > 0 {
		cfg.HTTPPort = f.Service.HTTPPort
	}
	if f.Service.GRPCPort > 0 {
		cfg.GRPCPort = f.Service.GRPCPort
	}
	if f.Dependencies.PostgresURL != "" {
		cfg.DatabaseURL = f.Dependencies.PostgresURL
	}
	if f.Dependencies.RedisURL != "" {
		cfg.RedisURL = f.Dependencies.RedisURL
	}
	if f.Dependencies.MaxDBConns > 0 {
		cfg.MaxDBConns = f.Dependencies.MaxDBConns
	}
	if f.Tokens.Algorithm != "" {
		cfg.JWTAlgorithm = strings.ToUpper(f.Tokens.Algorithm)
	}
	if f.Tokens.KeyID != "" {
		cfg.JWTKeyID = f.Tokens.KeyID
	}
	if f.Tokens.AllowEphemeral != nil {
		cfg.AllowEphemeralJWT = *f.Tokens.AllowEphemeral
	}
	if f.Tokens.AccessExpiresMinutes > 0 {
		cfg.AccessTokenTTL = time.Duration(f.Tokens.AccessExpiresMinutes) * time.Minute
	}
	if f.Tokens.RefreshExpiresDays > 0 {
		cfg.RefreshTokenTTL = time.Duration(f.Tokens.RefreshExpiresDays) * 24 * time.Hour
	}
	if f.Tokens.RefreshRecordTTLDays > 0 {
		cfg.RefreshRecordTTL = time.Duration(f.Tokens.RefreshRecordTTLDays) * 24 * time.Hour
	}
	if f.OTP.TTLSeconds > 0 {
		cfg.OTPTTL = time.Duration(f.OTP.TTLSeconds) * time.Second
	}
	if f.OTP.Length > 0 {
		cfg.OTPLength = f.OTP.Length
	}
	if f.SMTP.Host != "" {
		cfg.SMTPHost = f.SMTP.Host
	}
	if f.SMTP.Port > 0 {
		cfg.SMTPPort = f.SMTP.Port
	}
	if f.SMTP.From != "" {
		cfg.SMTPFrom = f.SMTP.From
	}
}

func (c Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("missing DB_URL/POSTGRES_URL")
	}
	if c.RedisURL == "" {
		return fmt.Errorf("missing REDIS_URL")
	}
	switch c.JWTAlgorithm {
	case "HS256":
		if c.JWTSecretKey == "" && !c.AllowEphemeralJWT {
			return fmt.Errorf("missing JWT_SECRET_KEY")
		}
	case "RS256":
		if (c.JWTPrivateKeyPEM == "" || c.JWTPublicKeyPEM == "") && !c.AllowEphemeralJWT {
			return fmt.Errorf("missing JWT_PRIVATE_KEY_PEM or JWT_PUBLIC_KEY_PEM")
		}
	default:
		return fmt.Errorf("unsupported JWT_ALGORITHM %q", c.JWTAlgorithm)
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 || c.RefreshRecordTTL <= 0 || c.OTPTTL <= 0 {
		return fmt.Errorf("token and otp lifetimes must be positive")
	}
	if c.OTPLength < 4 || c.OTPLength > 18 {
		return fmt.Errorf("OTP_LENGTH must be between 4 and 18, got %d", c.OTPLength)
	}
	return nil
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars with safe fallback on empty/invalid values.
func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envBool(name string, fallback bool) bool {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv(name)))
	switch raw {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	default:
		return fallback
	}
}
