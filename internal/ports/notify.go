package ports

import "context"

// NotificationStrategy delivers one message to one recipient over a single channel.
// delivered is false with a nil error when the channel had nobody to deliver to.
type NotificationStrategy interface {
	Name() string
	Notify(ctx context.Context, recipient, subject, message string) (delivered bool, err error)
}

// ConnectionRegistry tracks live push connections keyed by user id.
type ConnectionRegistry interface {
	// Push writes payload as JSON to the recipient's connection.
	// It reports false when the recipient has no active connection.
	Push(ctx context.Context, recipient string, payload any) (bool, error)
}
