package settlement

import (
	"errors"
	"testing"
	"time"
)

var testDate = time.Date(2026, time.August, 20, 0, 0, 0, 0, time.UTC)

func TestNewRecord_DerivedAmounts(t *testing.T) {
	record, err := NewRecord(testDate, "staff-1", "pump-1", ShiftMorning,
		140, 0, 0, 100, 50, 0, testDate.Add(8*time.Hour))
	if err != nil {
		t.Fatalf("new record: %v", err)
	}
	if record.TotalCollected != 150 {
		t.Fatalf("total collected: got=%v want=150", record.TotalCollected)
	}
	if record.Difference != 10 {
		t.Fatalf("difference: got=%v want=10", record.Difference)
	}
	if record.Status != StatusVerified {
		t.Fatalf("status: got=%s want=%s (meter reading present)", record.Status, StatusVerified)
	}
}

func TestNewRecord_TestLitersDeduction(t *testing.T) {
	record, err := NewRecord(testDate, "staff-1", "pump-1", ShiftAfternoon,
		1000, 5, 100, 400, 100, 0, testDate)
	if err != nil {
		t.Fatalf("new record: %v", err)
	}
	if record.TestValue != 500 {
		t.Fatalf("test value: got=%v want=500", record.TestValue)
	}
	if record.AdjustedExpected != 500 {
		t.Fatalf("adjusted expected: got=%v want=500", record.AdjustedExpected)
	}
}

func TestNewRecord_NoMeterReadingStartsPending(t *testing.T) {
	record, err := NewRecord(testDate, "staff-1", "pump-1", ShiftNight,
		0, 0, 0, 100, 0, 0, testDate)
	if err != nil {
		t.Fatalf("new record: %v", err)
	}
	if record.Status != StatusPending {
		t.Fatalf("status: got=%s want=%s", record.Status, StatusPending)
	}
}

func TestNewRecord_RejectsNegativeInputs(t *testing.T) {
	if _, err := NewRecord(testDate, "staff-1", "pump-1", ShiftMorning, 100, -1, 50, 0, 0, 0, testDate); !errors.Is(err, ErrNegativeTestLiters) {
		t.Fatalf("expected ErrNegativeTestLiters, got %v", err)
	}
	if _, err := NewRecord(testDate, "staff-1", "pump-1", ShiftMorning, 100, 0, 50, -5, 0, 0, testDate); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
	if _, err := NewRecord(testDate, "staff-1", "pump-1", "graveyard", 100, 0, 50, 0, 0, 0, testDate); !errors.Is(err, ErrInvalidShift) {
		t.Fatalf("expected ErrInvalidShift, got %v", err)
	}
}

func TestRecord_VerifyOnlyFromPending(t *testing.T) {
	record, err := NewRecord(testDate, "staff-1", "pump-1", ShiftMorning,
		0, 0, 0, 100, 0, 0, testDate)
	if err != nil {
		t.Fatalf("new record: %v", err)
	}
	if err := record.Verify("supervisor-1", testDate.Add(time.Hour)); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if record.VerifiedBy != "supervisor-1" {
		t.Fatalf("verifier not stamped")
	}
	if err := record.Verify("supervisor-2", testDate.Add(2*time.Hour)); !errors.Is(err, ErrNotPending) {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}
}

func TestRecord_SettleRequiresVerifiedAndDifference(t *testing.T) {
	pending, err := NewRecord(testDate, "staff-1", "pump-1", ShiftMorning,
		0, 0, 0, 100, 0, 0, testDate)
	if err != nil {
		t.Fatalf("new record: %v", err)
	}
	if err := pending.Settle(testDate); !errors.Is(err, ErrNotVerified) {
		t.Fatalf("expected ErrNotVerified, got %v", err)
	}

	balanced, err := NewRecord(testDate, "staff-2", "pump-1", ShiftMorning,
		150, 0, 0, 100, 50, 0, testDate)
	if err != nil {
		t.Fatalf("new record: %v", err)
	}
	if err := balanced.Settle(testDate); !errors.Is(err, ErrNoDifference) {
		t.Fatalf("expected ErrNoDifference, got %v", err)
	}

	short, err := NewRecord(testDate, "staff-3", "pump-1", ShiftMorning,
		150, 0, 0, 100, 40, 0, testDate)
	if err != nil {
		t.Fatalf("new record: %v", err)
	}
	if err := short.Settle(testDate); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if short.Status != StatusSettled {
		t.Fatalf("status: got=%s want=%s", short.Status, StatusSettled)
	}
}

func TestRecord_DisputeIsTerminal(t *testing.T) {
	record, err := NewRecord(testDate, "staff-1", "pump-1", ShiftEvening,
		150, 0, 0, 100, 40, 0, testDate)
	if err != nil {
		t.Fatalf("new record: %v", err)
	}
	if err := record.Dispute(testDate); err != nil {
		t.Fatalf("dispute: %v", err)
	}
	if err := record.Dispute(testDate); !errors.Is(err, ErrTerminalState) {
		t.Fatalf("expected ErrTerminalState, got %v", err)
	}
	if err := record.Verify("supervisor-1", testDate); !errors.Is(err, ErrNotPending) {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}
}

func TestBuildRecordID_FourTuple(t *testing.T) {
	id, err := BuildRecordID(testDate, "staff-1", "pump-2", ShiftNight)
	if err != nil {
		t.Fatalf("build id: %v", err)
	}
	want := "2026-08-20|staff-1|pump-2|night"
	if id != want {
		t.Fatalf("id mismatch: got=%s want=%s", id, want)
	}
}
