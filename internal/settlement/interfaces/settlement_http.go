package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"fuelstation-backoffice/internal/audit"
	"fuelstation-backoffice/internal/auth"
	"fuelstation-backoffice/internal/observability/metrics"
	settlementapp "fuelstation-backoffice/internal/settlement/application"
	settlement "fuelstation-backoffice/internal/settlement/domain"
)

// SettlementHandler handles settlement APIs.
type SettlementHandler struct {
	service     *settlementapp.Service
	auditLogger audit.Logger
}

// NewSettlementHandler constructs a handler.
func NewSettlementHandler(service *settlementapp.Service, auditLogger audit.Logger) (*SettlementHandler, error) {
	if service == nil {
		return nil, errors.New("settlement handler: nil service")
	}
	return &SettlementHandler{service: service, auditLogger: auditLogger}, nil
}

// ServeHTTP handles settlement routes under /api/v1/settlements.
func (h *SettlementHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/api/v1/settlements" {
		switch r.Method {
		case http.MethodPost:
			h.handleCreate(w, r)
		case http.MethodGet:
			h.handleList(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}
	if path == "/api/v1/settlements/export.pdf" && r.Method == http.MethodGet {
		h.handleExportPDF(w, r)
		return
	}
	if path == "/api/v1/settlements/export.xlsx" && r.Method == http.MethodGet {
		h.handleExportXLSX(w, r)
		return
	}
	if strings.HasPrefix(path, "/api/v1/settlements/") {
		rest := strings.TrimPrefix(path, "/api/v1/settlements/")
		h.handleByID(w, r, rest)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

type createRequest struct {
	ShiftDate     string                  `json:"shift_date"`
	StaffID       string                  `json:"staff_id"`
	PumpID        string                  `json:"pump_id"`
	Shift         string                  `json:"shift"`
	MeterExpected float64                 `json:"meter_expected"`
	TestLiters    float64                 `json:"test_liters"`
	FuelPrice     float64                 `json:"fuel_price"`
	CashAmount    float64                 `json:"cash_amount"`
	CardAmount    float64                 `json:"card_amount"`
	CreditAmount  float64                 `json:"credit_amount"`
	CreditSplit   []creditAllocationInput `json:"credit_split"`
}

type creditAllocationInput struct {
	CustomerID string  `json:"customer_id"`
	Amount     float64 `json:"amount"`
}

type recordResponse struct {
	ID               string  `json:"id"`
	ShiftDate        string  `json:"shift_date"`
	StaffID          string  `json:"staff_id"`
	PumpID           string  `json:"pump_id"`
	Shift            string  `json:"shift"`
	MeterExpected    float64 `json:"meter_expected"`
	TestLiters       float64 `json:"test_liters"`
	TestValue        float64 `json:"test_value"`
	AdjustedExpected float64 `json:"adjusted_expected"`
	CashAmount       float64 `json:"cash_amount"`
	CardAmount       float64 `json:"card_amount"`
	CreditAmount     float64 `json:"credit_amount"`
	TotalCollected   float64 `json:"total_collected"`
	Difference       float64 `json:"difference"`
	Status           string  `json:"status"`
	VerifiedBy       string  `json:"verified_by,omitempty"`
}

func toRecordResponse(record *settlement.Record) recordResponse {
	return recordResponse{
		ID:               record.ID,
		ShiftDate:        record.ShiftDate.Format("2006-01-02"),
		StaffID:          record.StaffID,
		PumpID:           record.PumpID,
		Shift:            string(record.Shift),
		MeterExpected:    record.MeterExpected,
		TestLiters:       record.TestLiters,
		TestValue:        record.TestValue,
		AdjustedExpected: record.AdjustedExpected,
		CashAmount:       record.CashAmount,
		CardAmount:       record.CardAmount,
		CreditAmount:     record.CreditAmount,
		TotalCollected:   record.TotalCollected,
		Difference:       record.Difference,
		Status:           record.Status,
		VerifiedBy:       record.VerifiedBy,
	}
}

func (h *SettlementHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	shiftDate, err := time.Parse("2006-01-02", req.ShiftDate)
	if err != nil {
		http.Error(w, "invalid shift_date", http.StatusBadRequest)
		return
	}

	input := settlementapp.CreateSettlementInput{
		ShiftDate:     shiftDate,
		StaffID:       req.StaffID,
		PumpID:        req.PumpID,
		Shift:         req.Shift,
		MeterExpected: req.MeterExpected,
		TestLiters:    req.TestLiters,
		FuelPrice:     req.FuelPrice,
		CashAmount:    req.CashAmount,
		CardAmount:    req.CardAmount,
		CreditAmount:  req.CreditAmount,
	}
	for _, split := range req.CreditSplit {
		input.CreditSplit = append(input.CreditSplit, settlementapp.CreditAllocationInput{
			CustomerID: split.CustomerID,
			Amount:     split.Amount,
		})
	}

	record, err := h.service.Create(r.Context(), input)
	metrics.ObserveSettlementCreate(metrics.Result(err), time.Since(start))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(toRecordResponse(record))
	h.logAudit(r, record.ID, "settlement.create", map[string]any{
		"status":     record.Status,
		"difference": record.Difference,
	})
}

func (h *SettlementHandler) handleList(w http.ResponseWriter, r *http.Request) {
	day, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}
	records, err := h.service.ListByDate(r.Context(), day)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	out := make([]recordResponse, 0, len(records))
	for i := range records {
		out = append(out, toRecordResponse(&records[i]))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (h *SettlementHandler) handleByID(w http.ResponseWriter, r *http.Request, rest string) {
	if rest == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	parts := strings.Split(rest, "/")
	id := parts[0]
	if len(parts) == 1 && r.Method == http.MethodGet {
		h.handleGet(w, r, id)
		return
	}
	if len(parts) == 2 {
		switch parts[1] {
		case "verify":
			if r.Method == http.MethodPost {
				h.handleVerify(w, r, id)
				return
			}
		case "dispute":
			if r.Method == http.MethodPost {
				h.handleDispute(w, r, id)
				return
			}
		case "adjust":
			if r.Method == http.MethodPost {
				h.handleAdjust(w, r, id)
				return
			}
		case "credit":
			if r.Method == http.MethodGet {
				h.handleCreditEntries(w, r, id)
				return
			}
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *SettlementHandler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	record, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toRecordResponse(record))
}

func (h *SettlementHandler) handleVerify(w http.ResponseWriter, r *http.Request, id string) {
	record, err := h.service.Verify(r.Context(), id, auth.SubjectFromContext(r.Context()))
	metrics.IncSettlementVerify(metrics.Result(err))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toRecordResponse(record))
	h.logAudit(r, record.ID, "settlement.verify", map[string]any{"status": record.Status})
}

func (h *SettlementHandler) handleDispute(w http.ResponseWriter, r *http.Request, id string) {
	record, err := h.service.Dispute(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toRecordResponse(record))
	h.logAudit(r, record.ID, "settlement.dispute", map[string]any{"status": record.Status})
}

func (h *SettlementHandler) handleAdjust(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Type   string  `json:"type"`
		Amount float64 `json:"amount"`
		Reason string  `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	adjustment, err := h.service.CreateAdjustment(r.Context(), id, req.Type, req.Amount,
		req.Reason, auth.SubjectFromContext(r.Context()))
	metrics.IncSettlementAdjust(metrics.Result(err))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	resp := map[string]any{
		"adjustment_id": adjustment.ID,
		"record_id":     adjustment.RecordID,
		"type":          adjustment.Type,
		"amount":        adjustment.Amount,
		"status":        adjustment.Status,
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
	h.logAudit(r, id, "settlement.adjust", map[string]any{
		"type":   req.Type,
		"amount": req.Amount,
		"reason": req.Reason,
	})
}

func (h *SettlementHandler) handleCreditEntries(w http.ResponseWriter, r *http.Request, id string) {
	entries, err := h.service.CreditEntries(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	type entryResponse struct {
		CustomerID string  `json:"customer_id"`
		Amount     float64 `json:"amount"`
		Mirrored   bool    `json:"mirrored"`
	}
	out := make([]entryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, entryResponse{
			CustomerID: entry.CustomerID,
			Amount:     entry.Amount,
			Mirrored:   !entry.MirroredAt.IsZero(),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (h *SettlementHandler) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	day, records, err := h.loadDay(r)
	if err != nil {
		metrics.ObserveSettlementExport("pdf", metrics.Result(err), time.Since(start))
		respondServiceError(w, err)
		return
	}
	data, err := BuildDayReportPDF(day, records)
	metrics.ObserveSettlementExport("pdf", metrics.Result(err), time.Since(start))
	if err != nil {
		http.Error(w, "export pdf error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	h.logAudit(r, day.Format("2006-01-02"), "settlement.export", map[string]any{"format": "pdf"})
}

func (h *SettlementHandler) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	day, records, err := h.loadDay(r)
	if err != nil {
		metrics.ObserveSettlementExport("xlsx", metrics.Result(err), time.Since(start))
		respondServiceError(w, err)
		return
	}
	data, err := BuildDayReportXLSX(day, records)
	metrics.ObserveSettlementExport("xlsx", metrics.Result(err), time.Since(start))
	if err != nil {
		http.Error(w, "export xlsx error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	h.logAudit(r, day.Format("2006-01-02"), "settlement.export", map[string]any{"format": "xlsx"})
}

func (h *SettlementHandler) loadDay(r *http.Request) (time.Time, []settlement.Record, error) {
	day, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
	if err != nil {
		return time.Time{}, nil, settlement.ErrInvalidShiftDate
	}
	records, err := h.service.ListByDate(r.Context(), day)
	if err != nil {
		return time.Time{}, nil, err
	}
	return day, records, nil
}

func (h *SettlementHandler) logAudit(r *http.Request, resourceID, action string, meta map[string]any) {
	if h.auditLogger == nil {
		return
	}
	payload, _ := json.Marshal(meta)
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		StationID:     auth.StationIDFromContext(r.Context()),
		Actor:         auth.SubjectFromContext(r.Context()),
		Role:          string(auth.RoleFromContext(r.Context())),
		Action:        action,
		ResourceType:  "settlement",
		ResourceID:    resourceID,
		Metadata:      payload,
		PayloadDigest: audit.DigestJSON(payload),
		IP:            audit.ClientIP(r),
		UserAgent:     r.UserAgent(),
	})
}

func respondServiceError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, settlement.ErrRecordNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, settlement.ErrDuplicateShift),
		errors.Is(err, settlement.ErrNotPending),
		errors.Is(err, settlement.ErrNotVerified),
		errors.Is(err, settlement.ErrNoDifference),
		errors.Is(err, settlement.ErrTerminalState):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, settlement.ErrInvalidShift),
		errors.Is(err, settlement.ErrInvalidShiftDate),
		errors.Is(err, settlement.ErrEmptyStaffID),
		errors.Is(err, settlement.ErrEmptyPumpID),
		errors.Is(err, settlement.ErrStaffUnknown),
		errors.Is(err, settlement.ErrPumpUnknown),
		errors.Is(err, settlement.ErrNegativeAmount),
		errors.Is(err, settlement.ErrNegativeTestLiters),
		errors.Is(err, settlement.ErrNegativeFuelPrice),
		errors.Is(err, settlement.ErrCreditSumMismatch),
		errors.Is(err, settlement.ErrCreditEntriesMissing),
		errors.Is(err, settlement.ErrCreditEntryAmount),
		errors.Is(err, settlement.ErrCustomerUnknown),
		errors.Is(err, settlement.ErrCustomerInactive),
		errors.Is(err, settlement.ErrCreditExhausted),
		errors.Is(err, settlement.ErrInvalidAdjustmentType),
		errors.Is(err, settlement.ErrAdjustmentAmount),
		errors.Is(err, settlement.ErrAdjustmentReason):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
