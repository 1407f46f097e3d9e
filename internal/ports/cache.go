package ports

import (
	"context"
	"time"
)

// SessionStore is the key-value store backing OTP codes and refresh-token records.
// Individual Set/Get/Delete calls are atomic; there is no multi-key transaction.
type SessionStore interface {
	// Set stores value under key. A non-positive ttl keeps the key until deleted.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Get returns the stored value and whether it was present. Expired keys are absent.
	Get(ctx context.Context, key string) (string, bool, error)
	Delete(ctx context.Context, key string) error
}
