package application

import (
	"context"
	"errors"
	"testing"
	"time"

	settlement "fuelstation-backoffice/internal/settlement/domain"
)

type stubRepo struct {
	records     map[string]*settlement.Record
	entries     map[string][]settlement.CreditEntry
	adjustments map[string][]settlement.Adjustment
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		records:     make(map[string]*settlement.Record),
		entries:     make(map[string][]settlement.CreditEntry),
		adjustments: make(map[string][]settlement.Adjustment),
	}
}

func (r *stubRepo) Exists(_ context.Context, shiftDate time.Time, staffID, pumpID string, shift settlement.Shift) (bool, error) {
	id, err := settlement.BuildRecordID(shiftDate, staffID, pumpID, shift)
	if err != nil {
		return false, err
	}
	_, ok := r.records[id]
	return ok, nil
}

func (r *stubRepo) Create(_ context.Context, record *settlement.Record, entries []settlement.CreditEntry) error {
	if _, ok := r.records[record.ID]; ok {
		return settlement.ErrDuplicateShift
	}
	r.records[record.ID] = record.Clone()
	r.entries[record.ID] = append([]settlement.CreditEntry(nil), entries...)
	return nil
}

func (r *stubRepo) Get(_ context.Context, id string) (*settlement.Record, error) {
	return r.records[id].Clone(), nil
}

func (r *stubRepo) Save(_ context.Context, record *settlement.Record) error {
	r.records[record.ID] = record.Clone()
	return nil
}

func (r *stubRepo) ListByDate(_ context.Context, shiftDate time.Time) ([]settlement.Record, error) {
	var out []settlement.Record
	for _, rec := range r.records {
		if rec.ShiftDate.Equal(shiftDate.UTC()) {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *stubRepo) CreditEntries(_ context.Context, recordID string) ([]settlement.CreditEntry, error) {
	return r.entries[recordID], nil
}

func (r *stubRepo) UnmirroredCreditEntries(_ context.Context, limit int) ([]settlement.CreditEntry, error) {
	var out []settlement.CreditEntry
	for _, entries := range r.entries {
		for _, entry := range entries {
			if entry.MirroredAt.IsZero() {
				out = append(out, entry)
			}
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
		}
	}
	return out, nil
}

func (r *stubRepo) MarkCreditMirrored(_ context.Context, recordID, customerID string, at time.Time) error {
	entries := r.entries[recordID]
	for i := range entries {
		if entries[i].CustomerID == customerID {
			entries[i].MirroredAt = at
		}
	}
	return nil
}

func (r *stubRepo) CreateAdjustment(_ context.Context, adjustment *settlement.Adjustment, record *settlement.Record) error {
	r.adjustments[record.ID] = append(r.adjustments[record.ID], *adjustment)
	r.records[record.ID] = record.Clone()
	return nil
}

func (r *stubRepo) Adjustments(_ context.Context, recordID string) ([]settlement.Adjustment, error) {
	return r.adjustments[recordID], nil
}

type stubStaff struct{ active map[string]bool }

func (s stubStaff) IsActive(_ context.Context, staffID string) (bool, error) {
	return s.active[staffID], nil
}

type stubPumps struct{ pumps map[string]*PumpRef }

func (s stubPumps) Lookup(_ context.Context, pumpID string) (*PumpRef, error) {
	return s.pumps[pumpID], nil
}

type stubCustomers struct{ customers map[string]*settlement.CreditCustomer }

func (s stubCustomers) Lookup(_ context.Context, id string) (*settlement.CreditCustomer, error) {
	return s.customers[id], nil
}

type stubGateway struct {
	amount     float64
	unitPrice  float64
	lookupErr  error
	volumeCall struct {
		tankID string
		volume float64
		refID  string
	}
	volumeCalls int
}

func (g *stubGateway) GetExpectedAmount(_ context.Context, _ string, _ time.Time, _ settlement.Shift) (float64, float64, error) {
	if g.lookupErr != nil {
		return 0, 0, g.lookupErr
	}
	return g.amount, g.unitPrice, nil
}

func (g *stubGateway) ApplyVolumeAdjustment(_ context.Context, tankID string, volume float64, _, refID string) error {
	g.volumeCalls++
	g.volumeCall.tankID = tankID
	g.volumeCall.volume = volume
	g.volumeCall.refID = refID
	return nil
}

type stubPublisher struct{ events []SettlementCommitted }

func (p *stubPublisher) PublishSettlementCommitted(_ context.Context, event SettlementCommitted) error {
	p.events = append(p.events, event)
	return nil
}

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

func testService(t *testing.T) (*Service, *stubRepo, *stubGateway, *stubPublisher) {
	t.Helper()
	repo := newStubRepo()
	gateway := &stubGateway{}
	publisher := &stubPublisher{}
	svc, err := NewService(
		repo,
		stubStaff{active: map[string]bool{"staff-1": true}},
		stubPumps{pumps: map[string]*PumpRef{"pump-1": {ID: "pump-1", TankID: "tank-1", Active: true}}},
		stubCustomers{customers: map[string]*settlement.CreditCustomer{
			"cust-1": {ID: "cust-1", Active: true, Available: 1000},
		}},
		gateway,
		publisher,
		fixedClock{at: time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC)},
		nil,
	)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, repo, gateway, publisher
}

func baseInput() CreateSettlementInput {
	return CreateSettlementInput{
		ShiftDate:     time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		StaffID:       "staff-1",
		PumpID:        "pump-1",
		Shift:         "evening",
		MeterExpected: 1000,
		CashAmount:    600,
		CardAmount:    400,
	}
}

func TestCreateBalancedRecordVerified(t *testing.T) {
	svc, _, _, _ := testService(t)

	record, err := svc.Create(context.Background(), baseInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if record.Status != settlement.StatusVerified {
		t.Fatalf("status = %s, want verified", record.Status)
	}
	if record.Difference != 0 {
		t.Fatalf("difference = %f, want 0", record.Difference)
	}
}

func TestCreateDuplicateShiftRejected(t *testing.T) {
	svc, _, _, _ := testService(t)

	if _, err := svc.Create(context.Background(), baseInput()); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	_, err := svc.Create(context.Background(), baseInput())
	if !errors.Is(err, settlement.ErrDuplicateShift) {
		t.Fatalf("err = %v, want ErrDuplicateShift", err)
	}
}

func TestCreateUnknownStaffRejected(t *testing.T) {
	svc, _, _, _ := testService(t)

	input := baseInput()
	input.StaffID = "staff-9"
	_, err := svc.Create(context.Background(), input)
	if !errors.Is(err, settlement.ErrStaffUnknown) {
		t.Fatalf("err = %v, want ErrStaffUnknown", err)
	}
}

func TestCreateFetchesExpectedFromGateway(t *testing.T) {
	svc, _, gateway, _ := testService(t)
	gateway.amount = 850
	gateway.unitPrice = 1.7

	input := baseInput()
	input.MeterExpected = 0
	input.CashAmount = 850
	input.CardAmount = 0

	record, err := svc.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if record.MeterExpected != 850 {
		t.Fatalf("meter expected = %f, want 850", record.MeterExpected)
	}
	if record.Status != settlement.StatusVerified {
		t.Fatalf("status = %s, want verified", record.Status)
	}
}

func TestCreateGatewayFailureLeavesPending(t *testing.T) {
	svc, _, gateway, _ := testService(t)
	gateway.lookupErr = errors.New("meter offline")

	input := baseInput()
	input.MeterExpected = 0

	record, err := svc.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if record.Status != settlement.StatusPending {
		t.Fatalf("status = %s, want pending", record.Status)
	}
}

func TestCreateReturnsTestLitersToTank(t *testing.T) {
	svc, _, gateway, _ := testService(t)

	input := baseInput()
	input.TestLiters = 5
	input.FuelPrice = 100
	input.MeterExpected = 1000
	input.CashAmount = 500
	input.CardAmount = 0

	record, err := svc.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if record.TestValue != 500 || record.AdjustedExpected != 500 {
		t.Fatalf("test value = %f adjusted = %f, want 500/500", record.TestValue, record.AdjustedExpected)
	}
	if gateway.volumeCalls != 1 {
		t.Fatalf("volume calls = %d, want 1", gateway.volumeCalls)
	}
	if gateway.volumeCall.tankID != "tank-1" || gateway.volumeCall.volume != 5 {
		t.Fatalf("volume call = %+v", gateway.volumeCall)
	}
	if gateway.volumeCall.refID != record.ID {
		t.Fatalf("ref id = %s, want %s", gateway.volumeCall.refID, record.ID)
	}
}

func TestCreateWithCreditPublishesEvent(t *testing.T) {
	svc, _, _, publisher := testService(t)

	input := baseInput()
	input.CashAmount = 500
	input.CardAmount = 300
	input.CreditAmount = 200
	input.CreditSplit = []CreditAllocationInput{{CustomerID: "cust-1", Amount: 200}}

	record, err := svc.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(publisher.events) != 1 {
		t.Fatalf("events = %d, want 1", len(publisher.events))
	}
	event := publisher.events[0]
	if event.RecordID != record.ID {
		t.Fatalf("event record = %s, want %s", event.RecordID, record.ID)
	}
	if len(event.Credit) != 1 || event.Credit[0].Amount != 200 {
		t.Fatalf("event credit = %+v", event.Credit)
	}
}

func TestCreateCreditMismatchRejected(t *testing.T) {
	svc, repo, _, _ := testService(t)

	input := baseInput()
	input.CreditAmount = 200
	input.CashAmount = 800
	input.CardAmount = 0
	input.CreditSplit = []CreditAllocationInput{{CustomerID: "cust-1", Amount: 150}}

	_, err := svc.Create(context.Background(), input)
	if !errors.Is(err, settlement.ErrCreditSumMismatch) {
		t.Fatalf("err = %v, want ErrCreditSumMismatch", err)
	}
	if len(repo.records) != 0 {
		t.Fatalf("records persisted = %d, want 0", len(repo.records))
	}
}

func TestVerifyThenAdjustSettles(t *testing.T) {
	svc, repo, _, _ := testService(t)

	input := baseInput()
	input.CashAmount = 590
	record, err := svc.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if record.Difference != -10 {
		t.Fatalf("difference = %f, want -10", record.Difference)
	}

	adjustment, err := svc.CreateAdjustment(context.Background(), record.ID,
		settlement.AdjustmentAllowance, 10, "pump calibration drift", "sup-1")
	if err != nil {
		t.Fatalf("CreateAdjustment: %v", err)
	}
	if adjustment.Status != settlement.AdjustmentStatusApproved {
		t.Fatalf("adjustment status = %s", adjustment.Status)
	}
	got := repo.records[record.ID]
	if got.Status != settlement.StatusSettled {
		t.Fatalf("record status = %s, want settled", got.Status)
	}
}

func TestAdjustBalancedRecordRejected(t *testing.T) {
	svc, _, _, _ := testService(t)

	record, err := svc.Create(context.Background(), baseInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err = svc.CreateAdjustment(context.Background(), record.ID,
		settlement.AdjustmentDeduction, 5, "reason", "sup-1")
	if !errors.Is(err, settlement.ErrNoDifference) {
		t.Fatalf("err = %v, want ErrNoDifference", err)
	}
}

func TestDisputePendingRecord(t *testing.T) {
	svc, repo, gateway, _ := testService(t)
	gateway.lookupErr = errors.New("meter offline")

	input := baseInput()
	input.MeterExpected = 0
	record, err := svc.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Dispute(context.Background(), record.ID); err != nil {
		t.Fatalf("Dispute: %v", err)
	}
	if repo.records[record.ID].Status != settlement.StatusDisputed {
		t.Fatalf("status = %s, want disputed", repo.records[record.ID].Status)
	}
}
