package integration_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fuelstation-backoffice/internal/eventing"
	"fuelstation-backoffice/internal/eventing/eventbus"
	ledgerapp "fuelstation-backoffice/internal/ledger/application"
	ledger "fuelstation-backoffice/internal/ledger/domain"
	ledgermem "fuelstation-backoffice/internal/ledger/infrastructure/memory"
	ledgerifaces "fuelstation-backoffice/internal/ledger/interfaces"
	topupapp "fuelstation-backoffice/internal/topup/application"
	topup "fuelstation-backoffice/internal/topup/domain"
	"fuelstation-backoffice/internal/topup/infrastructure/memory"
	"fuelstation-backoffice/internal/topup/interfaces"
)

type memoryOutbox struct {
	mu      sync.Mutex
	pending []eventing.OutboxRecord
}

func (o *memoryOutbox) Insert(_ context.Context, env eventing.Envelope) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	id := env.EventID
	o.pending = append(o.pending, eventing.OutboxRecord{ID: id, Envelope: env})
	return id, nil
}

func (o *memoryOutbox) ListPending(_ context.Context, limit int) ([]eventing.OutboxRecord, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.pending) > limit {
		return append([]eventing.OutboxRecord(nil), o.pending[:limit]...), nil
	}
	return append([]eventing.OutboxRecord(nil), o.pending...), nil
}

func (o *memoryOutbox) MarkSent(_ context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, record := range o.pending {
		if record.ID == id {
			o.pending = append(o.pending[:i], o.pending[i+1:]...)
			break
		}
	}
	return nil
}

func (o *memoryOutbox) MarkFailed(_ context.Context, _ string) error { return nil }

type memoryProcessed struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newMemoryProcessed() *memoryProcessed {
	return &memoryProcessed{seen: make(map[string]bool)}
}

func (p *memoryProcessed) HasProcessed(_ context.Context, eventID, consumerName string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seen[eventID+"|"+consumerName], nil
}

func (p *memoryProcessed) MarkProcessed(_ context.Context, eventID, consumerName string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen[eventID+"|"+consumerName] = true
	return nil
}

type recordingMarker struct {
	mu     sync.Mutex
	orders []string
}

func (m *recordingMarker) MarkAccountSufficient(_ context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = append(m.orders, orderID)
	return nil
}

func (m *recordingMarker) marked(orderID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o == orderID {
			return true
		}
	}
	return false
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type flow struct {
	ledgerSvc *ledgerapp.Service
	topupSvc  *topupapp.Service
	topupRepo *memory.TopUpRepository
	marker    *recordingMarker
	clock     fixedClock
}

func newFlow(t *testing.T, reserve float64) *flow {
	t.Helper()

	bus := eventbus.NewInMemoryBus()
	outbox := &memoryOutbox{}
	registry := eventing.NewRegistry()
	registry.Register(ledgerapp.AccountEntryCompleted{})
	dispatcher := eventing.NewDispatcher(bus, outbox, registry, nil)
	publisher := eventing.NewPublisher(outbox, dispatcher, "station-1", bus)

	clock := fixedClock{now: time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)}

	ledgerSvc, err := ledgerapp.NewService(ledgermem.NewEntryRepository(),
		ledgerifaces.NewOutboxPublisher(publisher, "station-1"), clock, 0, nil)
	if err != nil {
		t.Fatalf("new ledger service: %v", err)
	}

	topupRepo := memory.NewTopUpRepository()
	marker := &recordingMarker{}
	topupSvc, err := topupapp.NewService(topupRepo, ledgerSvc, marker, clock, reserve, nil)
	if err != nil {
		t.Fatalf("new topup service: %v", err)
	}
	interfaces.RegisterDepositConsumer(bus, interfaces.NewDepositConsumer(topupSvc), newMemoryProcessed())

	return &flow{
		ledgerSvc: ledgerSvc,
		topupSvc:  topupSvc,
		topupRepo: topupRepo,
		marker:    marker,
		clock:     clock,
	}
}

func (f *flow) deposit(t *testing.T, ctx context.Context, accountID string, amount float64, refNumber string) *ledger.Entry {
	t.Helper()
	input := ledgerapp.SubmitInput{
		AccountID:   accountID,
		Type:        ledger.TypeDeposit,
		Amount:      amount,
		Description: "supplier deposit",
		RequestedBy: "sup-1",
		AutoApprove: true,
	}
	if refNumber != "" {
		input.RefType = ledger.RefTypePurchaseOrder
		input.RefNumber = refNumber
	}
	entry, err := f.ledgerSvc.Submit(ctx, input)
	if err != nil {
		t.Fatalf("submit deposit: %v", err)
	}
	return entry
}

func TestDepositWithOrderReference_ResolvesOpenTopUp(t *testing.T) {
	ctx := context.Background()
	f := newFlow(t, 0)

	pending, err := f.topupSvc.Create(ctx, "po-77", "acct-1", 900)
	if err != nil {
		t.Fatalf("create topup: %v", err)
	}
	if !pending.Deadline.Equal(f.clock.now.Add(topup.DeadlineWindow)) {
		t.Fatalf("deadline = %v, want 24h out", pending.Deadline)
	}

	entry := f.deposit(t, ctx, "acct-1", 900, "po-77")

	got, err := f.topupRepo.Get(ctx, pending.ID)
	if err != nil {
		t.Fatalf("get topup: %v", err)
	}
	if got.Status != topup.StatusCompleted {
		t.Fatalf("status = %q, want completed", got.Status)
	}
	if got.LinkedEntryID != entry.ID {
		t.Fatalf("linked entry = %d, want %d", got.LinkedEntryID, entry.ID)
	}
	if !f.marker.marked("po-77") {
		t.Fatalf("purchase order not marked sufficient")
	}
}

func TestDepositWithoutOrderReference_LeavesTopUpOpen(t *testing.T) {
	ctx := context.Background()
	f := newFlow(t, 0)

	pending, err := f.topupSvc.Create(ctx, "po-12", "acct-1", 500)
	if err != nil {
		t.Fatalf("create topup: %v", err)
	}

	f.deposit(t, ctx, "acct-1", 500, "")

	got, err := f.topupRepo.Get(ctx, pending.ID)
	if err != nil {
		t.Fatalf("get topup: %v", err)
	}
	if got.Status != topup.StatusPending {
		t.Fatalf("status = %q, want pending", got.Status)
	}
	if f.marker.marked("po-12") {
		t.Fatalf("purchase order marked sufficient without a matching deposit")
	}
}

func TestCreate_SecondOpenTopUpForOrderRejected(t *testing.T) {
	ctx := context.Background()
	f := newFlow(t, 0)

	if _, err := f.topupSvc.Create(ctx, "po-5", "acct-1", 100); err != nil {
		t.Fatalf("create topup: %v", err)
	}
	if _, err := f.topupSvc.Create(ctx, "po-5", "acct-1", 200); !errors.Is(err, topup.ErrOpenTopUpExists) {
		t.Fatalf("err = %v, want ErrOpenTopUpExists", err)
	}
}

func TestPartialPayment_SplitsAndRaisesTopUpForRemainder(t *testing.T) {
	ctx := context.Background()
	f := newFlow(t, 100)

	f.deposit(t, ctx, "acct-1", 500, "")

	result, err := f.topupSvc.PartialPayment(ctx, "po-30", "acct-1", 700, "mgr-1")
	if err != nil {
		t.Fatalf("partial payment: %v", err)
	}
	if result.Paid != 400 || result.Remainder != 300 {
		t.Fatalf("split = %.2f/%.2f, want 400/300", result.Paid, result.Remainder)
	}
	if result.EntryID == 0 || result.TopUpID == "" {
		t.Fatalf("missing entry or topup reference: %+v", result)
	}

	balance, err := f.ledgerSvc.CurrentBalance(ctx, "acct-1")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 100 {
		t.Fatalf("balance = %.2f, want 100 (reserve kept)", balance)
	}

	pending, err := f.topupRepo.Get(ctx, result.TopUpID)
	if err != nil {
		t.Fatalf("get topup: %v", err)
	}
	if pending.RequiredAmount != 300 {
		t.Fatalf("required = %.2f, want 300", pending.RequiredAmount)
	}
	if !pending.Deadline.Equal(f.clock.now.Add(topup.DeadlineWindow)) {
		t.Fatalf("deadline = %v, want 24h out", pending.Deadline)
	}
	if f.marker.marked("po-30") {
		t.Fatalf("purchase order marked sufficient despite shortfall")
	}
}

func TestPartialPayment_FullBalanceCoversOrder(t *testing.T) {
	ctx := context.Background()
	f := newFlow(t, 100)

	f.deposit(t, ctx, "acct-1", 1000, "")

	result, err := f.topupSvc.PartialPayment(ctx, "po-31", "acct-1", 600, "mgr-1")
	if err != nil {
		t.Fatalf("partial payment: %v", err)
	}
	if result.Paid != 600 || result.Remainder != 0 {
		t.Fatalf("split = %.2f/%.2f, want 600/0", result.Paid, result.Remainder)
	}
	if result.TopUpID != "" {
		t.Fatalf("topup raised despite full coverage")
	}
	if !f.marker.marked("po-31") {
		t.Fatalf("purchase order not marked sufficient")
	}
}

func TestCompleteIfSufficient_RequiresBalanceOverReserve(t *testing.T) {
	ctx := context.Background()
	f := newFlow(t, 100)

	pending, err := f.topupSvc.Create(ctx, "po-40", "acct-1", 300)
	if err != nil {
		t.Fatalf("create topup: %v", err)
	}

	// Deposit without an order reference does not auto-resolve, and the
	// balance still falls short once the reserve is held back.
	f.deposit(t, ctx, "acct-1", 350, "")
	if _, err := f.topupSvc.CompleteIfSufficient(ctx, pending.ID); !errors.Is(err, topup.ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}

	f.deposit(t, ctx, "acct-1", 100, "")
	done, err := f.topupSvc.CompleteIfSufficient(ctx, pending.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != topup.StatusCompleted {
		t.Fatalf("status = %q, want completed", done.Status)
	}
	if !f.marker.marked("po-40") {
		t.Fatalf("purchase order not marked sufficient")
	}
}
