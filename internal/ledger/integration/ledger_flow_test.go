package integration_test

import (
	"context"
	"sync"
	"testing"
	"time"

	ledgerapp "fuelstation-backoffice/internal/ledger/application"
	ledger "fuelstation-backoffice/internal/ledger/domain"
	"fuelstation-backoffice/internal/ledger/infrastructure/memory"
)

type eventRecorder struct {
	mu     sync.Mutex
	events []ledgerapp.AccountEntryCompleted
}

func (r *eventRecorder) PublishAccountEntryCompleted(_ context.Context, event ledgerapp.AccountEntryCompleted) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *eventRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func newLedgerService(t *testing.T, repo ledger.Repository, publisher ledgerapp.Publisher, floor float64) *ledgerapp.Service {
	t.Helper()
	svc, err := ledgerapp.NewService(repo, publisher, fixedClock{now: time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC)}, floor, nil)
	if err != nil {
		t.Fatalf("new ledger service: %v", err)
	}
	return svc
}

func TestAutoApprovedDepositCompletesImmediately(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewEntryRepository()
	recorder := &eventRecorder{}
	svc := newLedgerService(t, repo, recorder, 0)

	entry, err := svc.Submit(ctx, ledgerapp.SubmitInput{
		AccountID: "acct-1", Type: ledger.TypeDeposit, Amount: 500, RequestedBy: "sup-1", AutoApprove: true,
	})
	if err != nil {
		t.Fatalf("submit deposit: %v", err)
	}
	if entry.Status != ledger.StatusCompleted {
		t.Fatalf("status = %s, want completed", entry.Status)
	}
	if entry.BalanceAfter != 500 {
		t.Fatalf("balance after = %f, want 500", entry.BalanceAfter)
	}
	if recorder.count() != 1 {
		t.Fatalf("events = %d, want 1", recorder.count())
	}

	balance, err := svc.CurrentBalance(ctx, "acct-1")
	if err != nil {
		t.Fatalf("current balance: %v", err)
	}
	if balance != 500 {
		t.Fatalf("balance = %f, want 500", balance)
	}
}

func TestWithdrawalWaitsForApproval(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewEntryRepository()
	recorder := &eventRecorder{}
	svc := newLedgerService(t, repo, recorder, 0)

	if _, err := svc.Submit(ctx, ledgerapp.SubmitInput{
		AccountID: "acct-1", Type: ledger.TypeDeposit, Amount: 300, RequestedBy: "sup-1", AutoApprove: true,
	}); err != nil {
		t.Fatalf("submit deposit: %v", err)
	}
	withdrawal, err := svc.Submit(ctx, ledgerapp.SubmitInput{
		AccountID: "acct-1", Type: ledger.TypeWithdrawal, Amount: 100, RequestedBy: "staff-1",
	})
	if err != nil {
		t.Fatalf("submit withdrawal: %v", err)
	}
	if withdrawal.Status != ledger.StatusPending {
		t.Fatalf("status = %s, want pending", withdrawal.Status)
	}

	// Pending entries do not move the balance.
	balance, _ := svc.CurrentBalance(ctx, "acct-1")
	if balance != 300 {
		t.Fatalf("balance = %f, want 300 before approval", balance)
	}

	approved, err := svc.Approve(ctx, withdrawal.ID, "sup-1")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.BalanceAfter != 200 {
		t.Fatalf("balance after = %f, want 200", approved.BalanceAfter)
	}
	if recorder.count() != 2 {
		t.Fatalf("events = %d, want 2", recorder.count())
	}
}

func TestApproveRejectsBelowFloor(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewEntryRepository()
	svc := newLedgerService(t, repo, nil, 0)

	if _, err := svc.Submit(ctx, ledgerapp.SubmitInput{
		AccountID: "acct-1", Type: ledger.TypeDeposit, Amount: 100, RequestedBy: "sup-1", AutoApprove: true,
	}); err != nil {
		t.Fatalf("submit deposit: %v", err)
	}
	withdrawal, err := svc.Submit(ctx, ledgerapp.SubmitInput{
		AccountID: "acct-1", Type: ledger.TypeWithdrawal, Amount: 250, RequestedBy: "staff-1",
	})
	if err != nil {
		t.Fatalf("submit withdrawal: %v", err)
	}

	_, err = svc.Approve(ctx, withdrawal.ID, "sup-1")
	if err == nil {
		t.Fatalf("approve succeeded, want floor rejection")
	}

	// The rejected approval leaves the entry pending, not cancelled.
	entry, err := svc.Get(ctx, withdrawal.ID)
	if err != nil {
		t.Fatalf("get entry: %v", err)
	}
	if entry.Status != ledger.StatusPending {
		t.Fatalf("status = %s, want pending after failed approval", entry.Status)
	}
}

func TestOutOfOrderApprovalRepairsChain(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewEntryRepository()
	svc := newLedgerService(t, repo, nil, 0)

	if _, err := svc.Submit(ctx, ledgerapp.SubmitInput{
		AccountID: "acct-1", Type: ledger.TypeDeposit, Amount: 1000, RequestedBy: "sup-1", AutoApprove: true,
	}); err != nil {
		t.Fatalf("submit deposit: %v", err)
	}
	older, err := svc.Submit(ctx, ledgerapp.SubmitInput{
		AccountID: "acct-1", Type: ledger.TypeWithdrawal, Amount: 400, RequestedBy: "staff-1",
	})
	if err != nil {
		t.Fatalf("submit older withdrawal: %v", err)
	}
	newer, err := svc.Submit(ctx, ledgerapp.SubmitInput{
		AccountID: "acct-1", Type: ledger.TypeWithdrawal, Amount: 100, RequestedBy: "staff-1",
	})
	if err != nil {
		t.Fatalf("submit newer withdrawal: %v", err)
	}

	// The newer entry is approved first.
	approvedNewer, err := svc.Approve(ctx, newer.ID, "sup-1")
	if err != nil {
		t.Fatalf("approve newer: %v", err)
	}
	if approvedNewer.BalanceBefore != 1000 || approvedNewer.BalanceAfter != 900 {
		t.Fatalf("newer balances = %f/%f, want 1000/900", approvedNewer.BalanceBefore, approvedNewer.BalanceAfter)
	}

	// Approving the older entry rewrites the newer entry's balances.
	approvedOlder, err := svc.Approve(ctx, older.ID, "sup-1")
	if err != nil {
		t.Fatalf("approve older: %v", err)
	}
	if approvedOlder.BalanceBefore != 1000 || approvedOlder.BalanceAfter != 600 {
		t.Fatalf("older balances = %f/%f, want 1000/600", approvedOlder.BalanceBefore, approvedOlder.BalanceAfter)
	}

	repaired, err := svc.Get(ctx, newer.ID)
	if err != nil {
		t.Fatalf("get repaired: %v", err)
	}
	if repaired.BalanceBefore != 600 || repaired.BalanceAfter != 500 {
		t.Fatalf("repaired balances = %f/%f, want 600/500", repaired.BalanceBefore, repaired.BalanceAfter)
	}

	balance, _ := svc.CurrentBalance(ctx, "acct-1")
	if balance != 500 {
		t.Fatalf("balance = %f, want 500", balance)
	}

	// The final chain equals the chain that in-order approval would give.
	entries, err := svc.ListByAccount(ctx, "acct-1", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	ordered := make([]ledger.Entry, len(entries))
	for i, entry := range entries {
		ordered[len(entries)-1-i] = entry
	}
	final, err := ledger.ReplayChain(ordered, 0, 0)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if final != 500 {
		t.Fatalf("replayed balance = %f, want 500", final)
	}
}

func TestRejectCancelsWithoutBalanceChange(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewEntryRepository()
	svc := newLedgerService(t, repo, nil, 0)

	if _, err := svc.Submit(ctx, ledgerapp.SubmitInput{
		AccountID: "acct-1", Type: ledger.TypeDeposit, Amount: 100, RequestedBy: "sup-1", AutoApprove: true,
	}); err != nil {
		t.Fatalf("submit deposit: %v", err)
	}
	withdrawal, err := svc.Submit(ctx, ledgerapp.SubmitInput{
		AccountID: "acct-1", Type: ledger.TypeWithdrawal, Amount: 50, RequestedBy: "staff-1",
	})
	if err != nil {
		t.Fatalf("submit withdrawal: %v", err)
	}

	rejected, err := svc.Reject(ctx, withdrawal.ID, "sup-1")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != ledger.StatusCancelled {
		t.Fatalf("status = %s, want cancelled", rejected.Status)
	}
	balance, _ := svc.CurrentBalance(ctx, "acct-1")
	if balance != 100 {
		t.Fatalf("balance = %f, want 100", balance)
	}

	// A cancelled entry cannot be approved afterwards.
	if _, err := svc.Approve(ctx, withdrawal.ID, "sup-1"); err == nil {
		t.Fatalf("approve cancelled entry succeeded")
	}
}
