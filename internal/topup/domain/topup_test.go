package topup

import (
	"errors"
	"testing"
	"time"
)

func TestNewPendingTopUpAttachesDeadline(t *testing.T) {
	now := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	pending, err := NewPendingTopUp("po-1", "acct-1", 500, now)
	if err != nil {
		t.Fatalf("new pending topup: %v", err)
	}
	if pending.Status != StatusPending {
		t.Fatalf("status = %q, want pending", pending.Status)
	}
	if !pending.Deadline.Equal(now.Add(DeadlineWindow)) {
		t.Fatalf("deadline = %v, want 24h after creation", pending.Deadline)
	}
	if pending.Expired(now.Add(23 * time.Hour)) {
		t.Fatalf("expired before the deadline")
	}
	if !pending.Expired(now.Add(25 * time.Hour)) {
		t.Fatalf("not expired after the deadline")
	}
}

func TestNewPendingTopUpValidation(t *testing.T) {
	now := time.Now()
	if _, err := NewPendingTopUp("", "acct-1", 500, now); !errors.Is(err, ErrEmptyOrderID) {
		t.Fatalf("err = %v, want ErrEmptyOrderID", err)
	}
	if _, err := NewPendingTopUp("po-1", "", 500, now); !errors.Is(err, ErrEmptyAccountID) {
		t.Fatalf("err = %v, want ErrEmptyAccountID", err)
	}
	if _, err := NewPendingTopUp("po-1", "acct-1", 0, now); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("err = %v, want ErrInvalidAmount", err)
	}
}

func TestCompleteOnlyFromPending(t *testing.T) {
	now := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	pending, err := NewPendingTopUp("po-1", "acct-1", 500, now)
	if err != nil {
		t.Fatalf("new pending topup: %v", err)
	}
	if err := pending.Complete(42, now.Add(time.Hour)); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if pending.LinkedEntryID != 42 || pending.CompletedAt.IsZero() {
		t.Fatalf("completion not recorded: %+v", pending)
	}
	if pending.Expired(now.Add(48 * time.Hour)) {
		t.Fatalf("completed topup reported expired")
	}
	if err := pending.Complete(43, now); !errors.Is(err, ErrNotPending) {
		t.Fatalf("second complete err = %v, want ErrNotPending", err)
	}
}
