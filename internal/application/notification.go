package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fixkg/backend/internal/domain"
	"github.com/fixkg/backend/internal/ports"
)

// Dispatcher holds the currently selected delivery strategy.
type Dispatcher struct {
	mu       sync.RWMutex
	strategy ports.NotificationStrategy
}

func NewDispatcher(initial ports.NotificationStrategy) *Dispatcher {
	d := &Dispatcher{}
	if initial != nil {
		d.SetStrategy(initial)
	}
	return d
}

func (d *Dispatcher) SetStrategy(strategy ports.NotificationStrategy) {
	d.mu.Lock()
	d.strategy = strategy
	d.mu.Unlock()
	name := "none"
	if strategy != nil {
		name = strategy.Name()
	}
	slog.Default().Info("notification strategy set",
		"service", serviceName,
		"module", "notification",
		"layer", "application",
		"operation", "set_strategy",
		"outcome", "success",
		"strategy", name,
	)
}

func (d *Dispatcher) Strategy() ports.NotificationStrategy {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.strategy
}

// Send delivers through the active strategy and folds every failure into false.
func (d *Dispatcher) Send(ctx context.Context, recipient, subject, message string) bool {
	delivered, err := d.Deliver(ctx, recipient, subject, message)
	return err == nil && delivered
}

// Deliver is Send with errors propagated.
func (d *Dispatcher) Deliver(ctx context.Context, recipient, subject, message string) (bool, error) {
	return d.SendWith(ctx, d.Strategy(), recipient, subject, message)
}

// SendWith delivers through strategy without touching the active selection,
// so concurrent callers on other channels are not affected.
func (d *Dispatcher) SendWith(ctx context.Context, strategy ports.NotificationStrategy, recipient, subject, message string) (bool, error) {
	if strategy == nil {
		return false, fmt.Errorf("%w: no strategy selected", domain.ErrNotificationFailed)
	}
	logger := slog.Default().With(
		"service", serviceName,
		"module", "notification",
		"layer", "application",
		"operation", "send_notification",
		"strategy", strategy.Name(),
		"recipient", recipient,
	)
	logger.DebugContext(ctx, "attempting notification", "subject", subject)

	delivered, err := strategy.Notify(ctx, recipient, subject, message)
	if err != nil {
		logger.ErrorContext(ctx, "notification failed",
			"outcome", "failure",
			"error_code", domain.ErrNotificationFailed.Code,
			"error", err,
		)
		if errors.Is(err, domain.ErrNotificationFailed) {
			return false, err
		}
		return false, fmt.Errorf("%w: %s: %w", domain.ErrNotificationFailed, strategy.Name(), err)
	}
	outcome := "success"
	if !delivered {
		outcome = "undelivered"
	}
	logger.InfoContext(ctx, "notification processed", "outcome", outcome)
	return delivered, nil
}
