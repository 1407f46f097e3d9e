package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a failure independently of any transport.
// Adapters translate kinds into HTTP or gRPC status codes at the boundary.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
	KindBadRequest
	KindExpired
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindBadRequest:
		return "bad_request"
	case KindExpired:
		return "expired"
	default:
		return "internal"
	}
}

// Error is a tagged auth failure with a stable machine code and user-facing message.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	ErrNotFound = newError(KindNotFound, "NOT_FOUND", "resource not found")
	ErrConflict = newError(KindConflict, "CONFLICT", "conflict")

	ErrUserWithUsernameNotFound     = newError(KindNotFound, "USER_WITH_USERNAME_NOT_FOUND", "user with username not found")
	ErrUserWithEmailNotFound        = newError(KindNotFound, "USER_WITH_EMAIL_NOT_FOUND", "user with email not found")
	ErrUserWithIDNotFound           = newError(KindNotFound, "USER_WITH_ID_NOT_FOUND", "user with id not found")
	ErrEmailOrUsernameAlreadyExists = newError(KindConflict, "EMAIL_OR_USERNAME_ALREADY_EXISTS", "email or username already exists")
	ErrUserNotVerifyEmail           = newError(KindForbidden, "USER_NOT_VERIFY_EMAIL", "user has not verified email")
	ErrPasswordIsIncorrect          = newError(KindUnauthorized, "PASSWORD_IS_INCORRECT", "password is incorrect")
	ErrUserAlreadyVerifiedEmail     = newError(KindBadRequest, "USER_ALREADY_VERIFIED_EMAIL", "user already verified email")

	ErrOTPNotFound = newError(KindNotFound, "OTP_NOT_FOUND", "otp not found or expired")
	ErrOTPInvalid  = newError(KindBadRequest, "OTP_INVALID", "otp is incorrect")

	// A missing refresh record is an authentication failure to callers, not a missing resource.
	ErrRefreshTokenNotFound = newError(KindUnauthorized, "REFRESH_TOKEN_NOT_FOUND", "refresh token not found")
	ErrInvalidSignature     = newError(KindUnauthorized, "INVALID_SIGNATURE", "invalid token signature")
	ErrTokenExpired         = newError(KindExpired, "TOKEN_EXPIRED", "token expired")
	ErrTokenDecode          = newError(KindUnauthorized, "TOKEN_DECODE_ERROR", "error decoding token")
	ErrInvalidTokenType     = newError(KindUnauthorized, "INVALID_TOKEN_TYPE", "token is of invalid type")

	ErrInvalidInput       = newError(KindBadRequest, "VALIDATION_ERROR", "invalid input")
	ErrDependency         = newError(KindInternal, "INTERNAL_DEPENDENCY", "internal dependency failure")
	ErrNotificationFailed = newError(KindInternal, "NOTIFICATION_FAILED", "notification delivery failed")
)

// KindOf reports the kind of the first tagged error in err's chain.
// Untagged errors are internal.
func KindOf(err error) Kind {
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Kind
	}
	return KindInternal
}

// CodeOf returns the machine code of the first tagged error in err's chain.
func CodeOf(err error) string {
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Code
	}
	return ErrDependency.Code
}

// Dependency wraps a collaborator failure (store, database, mail relay) as an
// internal dependency error while keeping the cause in the chain.
func Dependency(operation string, err error) error {
	if err == nil {
		return nil
	}
	var tagged *Error
	if errors.As(err, &tagged) && tagged.Kind == KindInternal {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrDependency, operation, err)
}
