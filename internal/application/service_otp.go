package application

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/fixkg/backend/internal/domain"
	"github.com/fixkg/backend/internal/ports"
)

const otpKeyPrefix = "otp:"

// CodeGenerator returns a numeric code of exactly length digits.
type CodeGenerator func(length int) (string, error)

// OTPService issues and checks the email ownership codes stored under otp:{email}.
type OTPService struct {
	store      ports.SessionStore
	dispatcher *Dispatcher
	email      ports.NotificationStrategy
	ttl        time.Duration
	length     int
	generate   CodeGenerator
}

type OTPOption func(*OTPService)

// WithCodeGenerator replaces the random digit source.
func WithCodeGenerator(gen CodeGenerator) OTPOption {
	return func(o *OTPService) {
		if gen != nil {
			o.generate = gen
		}
	}
}

// NewOTPService sends codes through email, independent of the dispatcher's active strategy.
func NewOTPService(store ports.SessionStore, dispatcher *Dispatcher, email ports.NotificationStrategy, ttl time.Duration, length int, opts ...OTPOption) *OTPService {
	if ttl <= 0 {
		ttl = DefaultConfig().OTPTTL
	}
	if length <= 0 {
		length = DefaultConfig().OTPLength
	}
	o := &OTPService{
		store:      store,
		dispatcher: dispatcher,
		email:      email,
		ttl:        ttl,
		length:     length,
		generate:   randomDigits,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *OTPService) GenerateCode(length int) (string, error) {
	if length <= 0 {
		length = o.length
	}
	return o.generate(length)
}

// SendAndSaveOTP persists the code only after the email was handed to the relay.
// A new code replaces any live one for the same address.
func (o *OTPService) SendAndSaveOTP(ctx context.Context, email string) error {
	code, err := o.GenerateCode(o.length)
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}

	delivered, err := o.dispatcher.SendWith(ctx, o.email, email, otpSubject, otpMessage(code))
	if err != nil {
		return err
	}
	if !delivered {
		return fmt.Errorf("%w: otp email was not accepted", domain.ErrNotificationFailed)
	}

	if err := o.store.Set(ctx, otpKey(email), code, o.ttl); err != nil {
		return domain.Dependency("save otp", err)
	}
	slog.Default().InfoContext(ctx, "otp issued",
		"service", serviceName,
		"module", "otp",
		"layer", "application",
		"operation", "send_and_save_otp",
		"outcome", "success",
		"ttl_seconds", int(o.ttl.Seconds()),
	)
	return nil
}

// VerifyOTP consumes the live code for email. The comparison is an exact string match.
func (o *OTPService) VerifyOTP(ctx context.Context, email, code string) error {
	key := otpKey(email)
	stored, ok, err := o.store.Get(ctx, key)
	if err != nil {
		return domain.Dependency("load otp", err)
	}
	if !ok {
		return domain.ErrOTPNotFound
	}
	if stored != code {
		return domain.ErrOTPInvalid
	}
	if err := o.store.Delete(ctx, key); err != nil {
		return domain.Dependency("delete otp", err)
	}
	return nil
}

func otpKey(email string) string { return otpKeyPrefix + email }

// The subject is logged by the dispatcher, so the code only travels in the body.
const otpSubject = "Your One-Time Password"

func otpMessage(code string) string {
	return "Hello!\n\nYour OTP code is: " + code + "\n\nRegards."
}

const maxOTPLength = 18

// randomDigits returns a zero-padded uniformly random numeric code.
func randomDigits(length int) (string, error) {
	if length > maxOTPLength {
		return "", fmt.Errorf("%w: otp length %d exceeds %d", domain.ErrInvalidInput, length, maxOTPLength)
	}
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", length, n.Int64()), nil
}
