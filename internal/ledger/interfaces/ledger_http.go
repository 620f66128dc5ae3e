package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"fuelstation-backoffice/internal/audit"
	"fuelstation-backoffice/internal/auth"
	ledgerapp "fuelstation-backoffice/internal/ledger/application"
	ledger "fuelstation-backoffice/internal/ledger/domain"
)

// LedgerHandler handles account ledger APIs.
type LedgerHandler struct {
	service     *ledgerapp.Service
	auditLogger audit.Logger
}

// NewLedgerHandler constructs a handler.
func NewLedgerHandler(service *ledgerapp.Service, auditLogger audit.Logger) (*LedgerHandler, error) {
	if service == nil {
		return nil, errors.New("ledger handler: nil service")
	}
	return &LedgerHandler{service: service, auditLogger: auditLogger}, nil
}

// ServeHTTP handles routes under /api/v1/account/entries and
// /api/v1/account/balance.
func (h *LedgerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/api/v1/account/entries" {
		switch r.Method {
		case http.MethodPost:
			h.handleSubmit(w, r)
		case http.MethodGet:
			h.handleList(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}
	if path == "/api/v1/account/balance" && r.Method == http.MethodGet {
		h.handleBalance(w, r)
		return
	}
	if strings.HasPrefix(path, "/api/v1/account/entries/") {
		rest := strings.TrimPrefix(path, "/api/v1/account/entries/")
		h.handleByID(w, r, rest)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

type entryResponse struct {
	ID            int64   `json:"id"`
	AccountID     string  `json:"account_id"`
	Type          string  `json:"type"`
	Amount        float64 `json:"amount"`
	Description   string  `json:"description,omitempty"`
	RefType       string  `json:"ref_type,omitempty"`
	RefNumber     string  `json:"ref_number,omitempty"`
	Status        string  `json:"status"`
	BalanceBefore float64 `json:"balance_before"`
	BalanceAfter  float64 `json:"balance_after"`
	RequestedBy   string  `json:"requested_by,omitempty"`
	DecidedBy     string  `json:"decided_by,omitempty"`
}

func toEntryResponse(entry *ledger.Entry) entryResponse {
	return entryResponse{
		ID:            entry.ID,
		AccountID:     entry.AccountID,
		Type:          entry.Type,
		Amount:        entry.Amount,
		Description:   entry.Description,
		RefType:       entry.RefType,
		RefNumber:     entry.RefNumber,
		Status:        entry.Status,
		BalanceBefore: entry.BalanceBefore,
		BalanceAfter:  entry.BalanceAfter,
		RequestedBy:   entry.RequestedBy,
		DecidedBy:     entry.DecidedBy,
	}
}

func (h *LedgerHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccountID   string  `json:"account_id"`
		Type        string  `json:"type"`
		Amount      float64 `json:"amount"`
		Description string  `json:"description"`
		RefType     string  `json:"ref_type"`
		RefNumber   string  `json:"ref_number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	// Entries submitted by an approver complete in the same request.
	role := auth.RoleFromContext(r.Context())
	entry, err := h.service.Submit(r.Context(), ledgerapp.SubmitInput{
		AccountID:   req.AccountID,
		Type:        req.Type,
		Amount:      req.Amount,
		Description: req.Description,
		RefType:     req.RefType,
		RefNumber:   req.RefNumber,
		RequestedBy: auth.SubjectFromContext(r.Context()),
		AutoApprove: auth.CanApprove(role),
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(toEntryResponse(entry))
	h.logAudit(r, entry, "account.submit", map[string]any{
		"type":   entry.Type,
		"amount": entry.Amount,
	})
}

func (h *LedgerHandler) handleList(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("account_id")
	if r.URL.Query().Get("status") == ledger.StatusPending {
		entries, err := h.service.ListPending(r.Context(), accountID)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		writeEntries(w, entries)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.service.ListByAccount(r.Context(), accountID, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeEntries(w, entries)
}

func (h *LedgerHandler) handleBalance(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("account_id")
	balance, err := h.service.CurrentBalance(r.Context(), accountID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"account_id": accountID,
		"balance":    balance,
	})
}

func (h *LedgerHandler) handleByID(w http.ResponseWriter, r *http.Request, rest string) {
	parts := strings.Split(rest, "/")
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		http.Error(w, "invalid entry id", http.StatusBadRequest)
		return
	}
	if len(parts) == 1 && r.Method == http.MethodGet {
		entry, err := h.service.Get(r.Context(), id)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(toEntryResponse(entry))
		return
	}
	if len(parts) == 2 && r.Method == http.MethodPost {
		switch parts[1] {
		case "approve":
			h.handleApprove(w, r, id)
			return
		case "reject":
			h.handleReject(w, r, id)
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *LedgerHandler) handleApprove(w http.ResponseWriter, r *http.Request, id int64) {
	entry, err := h.service.Approve(r.Context(), id, auth.SubjectFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toEntryResponse(entry))
	h.logAudit(r, entry, "account.approve", map[string]any{
		"balance_after": entry.BalanceAfter,
	})
}

func (h *LedgerHandler) handleReject(w http.ResponseWriter, r *http.Request, id int64) {
	entry, err := h.service.Reject(r.Context(), id, auth.SubjectFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toEntryResponse(entry))
	h.logAudit(r, entry, "account.reject", nil)
}

func writeEntries(w http.ResponseWriter, entries []ledger.Entry) {
	out := make([]entryResponse, 0, len(entries))
	for i := range entries {
		out = append(out, toEntryResponse(&entries[i]))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (h *LedgerHandler) logAudit(r *http.Request, entry *ledger.Entry, action string, meta map[string]any) {
	if h.auditLogger == nil {
		return
	}
	payload, _ := json.Marshal(meta)
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		StationID:     auth.StationIDFromContext(r.Context()),
		Actor:         auth.SubjectFromContext(r.Context()),
		Role:          string(auth.RoleFromContext(r.Context())),
		Action:        action,
		ResourceType:  "account_entry",
		ResourceID:    strconv.FormatInt(entry.ID, 10),
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
	case errors.Is(err, ledger.ErrEntryNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ledger.ErrNotPending),
		errors.Is(err, ledger.ErrWouldGoNegative):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ledger.ErrInvalidEntryType),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrEmptyAccountID):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
