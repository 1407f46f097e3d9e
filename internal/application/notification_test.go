package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fixkg/backend/internal/application"
	"github.com/fixkg/backend/internal/domain"
)

func TestDispatcherStrategySwap(t *testing.T) {
	t.Parallel()

	email := &recordingStrategy{name: "email", deliver: true}
	push := &recordingStrategy{name: "push", deliver: true}
	d := application.NewDispatcher(email)
	ctx := context.Background()

	if !d.Send(ctx, "a@x.com", "s", "m") {
		t.Fatalf("expected email delivery")
	}
	d.SetStrategy(push)
	if !d.Send(ctx, "42", "s", "m") {
		t.Fatalf("expected push delivery")
	}
	if len(email.messages()) != 1 || len(push.messages()) != 1 {
		t.Fatalf("each strategy should have received exactly one message")
	}
}

func TestDispatcherSendFoldsFailures(t *testing.T) {
	t.Parallel()

	failing := &recordingStrategy{name: "email"}
	failing.fail(errors.New("tls handshake timeout"))
	d := application.NewDispatcher(failing)
	ctx := context.Background()

	if d.Send(ctx, "a@x.com", "s", "m") {
		t.Fatalf("Send must report false on strategy error")
	}
	_, err := d.Deliver(ctx, "a@x.com", "s", "m")
	if !errors.Is(err, domain.ErrNotificationFailed) {
		t.Fatalf("Deliver must propagate ErrNotificationFailed, got %v", err)
	}
}

func TestDispatcherWithoutStrategy(t *testing.T) {
	t.Parallel()

	d := application.NewDispatcher(nil)
	if d.Send(context.Background(), "a", "s", "m") {
		t.Fatalf("dispatcher without strategy must not report delivery")
	}
	if _, err := d.Deliver(context.Background(), "a", "s", "m"); !errors.Is(err, domain.ErrNotificationFailed) {
		t.Fatalf("expected ErrNotificationFailed, got %v", err)
	}
}

func TestDispatcherUndeliveredIsNotAnError(t *testing.T) {
	t.Parallel()

	offline := &recordingStrategy{name: "push", deliver: false}
	d := application.NewDispatcher(offline)
	delivered, err := d.Deliver(context.Background(), "7", "s", "m")
	if err != nil || delivered {
		t.Fatalf("expected (false, nil), got (%v, %v)", delivered, err)
	}
}
