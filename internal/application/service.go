package application

import (
	"time"

	"github.com/fixkg/backend/internal/ports"
)

const serviceName = "fixkg-auth"

// Service is the auth core: registration, login, verification and refresh.
type Service struct {
	cfg        Config
	users      ports.UserRepository
	hasher     ports.PasswordHasher
	otp        *OTPService
	tokens     *TokenService
	dispatcher *Dispatcher
	push       ports.NotificationStrategy
	nowFn      func() time.Time
}

type Dependencies struct {
	Config Config
	Users  ports.UserRepository
	Hasher ports.PasswordHasher
	Store  ports.SessionStore
	Signer ports.TokenSigner
	// Email carries OTP codes. Push carries live comment notifications.
	Email ports.NotificationStrategy
	Push  ports.NotificationStrategy
	// CodeGenerator overrides the random OTP source when set.
	CodeGenerator CodeGenerator
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config.withDefaults()
	dispatcher := NewDispatcher(deps.Email)

	var otpOpts []OTPOption
	if deps.CodeGenerator != nil {
		otpOpts = append(otpOpts, WithCodeGenerator(deps.CodeGenerator))
	}

	return &Service{
		cfg:        cfg,
		users:      deps.Users,
		hasher:     deps.Hasher,
		otp:        NewOTPService(deps.Store, dispatcher, deps.Email, cfg.OTPTTL, cfg.OTPLength, otpOpts...),
		tokens:     NewTokenService(deps.Signer, deps.Store, cfg),
		dispatcher: dispatcher,
		push:       deps.Push,
		nowFn:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) OTP() *OTPService { return s.otp }

func (s *Service) Tokens() *TokenService { return s.tokens }

func (s *Service) Dispatcher() *Dispatcher { return s.dispatcher }
