package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"fuelstation-backoffice/internal/audit"
	"fuelstation-backoffice/internal/auth"
	topupapp "fuelstation-backoffice/internal/topup/application"
	topup "fuelstation-backoffice/internal/topup/domain"
)

// TopUpHandler handles pending top-up APIs.
type TopUpHandler struct {
	service     *topupapp.Service
	auditLogger audit.Logger
}

// NewTopUpHandler constructs a handler.
func NewTopUpHandler(service *topupapp.Service, auditLogger audit.Logger) (*TopUpHandler, error) {
	if service == nil {
		return nil, errors.New("topup handler: nil service")
	}
	return &TopUpHandler{service: service, auditLogger: auditLogger}, nil
}

// ServeHTTP handles routes under /api/v1/topups.
func (h *TopUpHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/api/v1/topups" {
		switch r.Method {
		case http.MethodPost:
			h.handleCreate(w, r)
		case http.MethodGet:
			h.handleListOpen(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}
	if path == "/api/v1/topups/partial-payment" && r.Method == http.MethodPost {
		h.handlePartialPayment(w, r)
		return
	}
	if strings.HasPrefix(path, "/api/v1/topups/") {
		rest := strings.TrimPrefix(path, "/api/v1/topups/")
		parts := strings.Split(rest, "/")
		if len(parts) == 2 && parts[1] == "complete" && r.Method == http.MethodPost {
			h.handleComplete(w, r, parts[0])
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

type topUpResponse struct {
	ID             string  `json:"id"`
	OrderID        string  `json:"order_id"`
	AccountID      string  `json:"account_id"`
	RequiredAmount float64 `json:"required_amount"`
	Deadline       string  `json:"deadline"`
	Status         string  `json:"status"`
	Expired        bool    `json:"expired"`
	LinkedEntryID  int64   `json:"linked_entry_id,omitempty"`
}

func toTopUpResponse(t *topup.PendingTopUp, now time.Time) topUpResponse {
	return topUpResponse{
		ID:             t.ID,
		OrderID:        t.OrderID,
		AccountID:      t.AccountID,
		RequiredAmount: t.RequiredAmount,
		Deadline:       t.Deadline.Format(time.RFC3339),
		Status:         t.Status,
		Expired:        t.Expired(now),
		LinkedEntryID:  t.LinkedEntryID,
	}
}

func (h *TopUpHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID        string  `json:"order_id"`
		AccountID      string  `json:"account_id"`
		RequiredAmount float64 `json:"required_amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	pending, err := h.service.Create(r.Context(), req.OrderID, req.AccountID, req.RequiredAmount)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(toTopUpResponse(pending, time.Now()))
	h.logAudit(r, pending.ID, "topup.create", map[string]any{
		"order_id": pending.OrderID,
		"amount":   pending.RequiredAmount,
	})
}

func (h *TopUpHandler) handleListOpen(w http.ResponseWriter, r *http.Request) {
	open, err := h.service.ListOpen(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	now := time.Now()
	out := make([]topUpResponse, 0, len(open))
	for i := range open {
		out = append(out, toTopUpResponse(&open[i], now))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (h *TopUpHandler) handlePartialPayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID      string  `json:"order_id"`
		AccountID    string  `json:"account_id"`
		AmountNeeded float64 `json:"amount_needed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	result, err := h.service.PartialPayment(r.Context(), req.OrderID, req.AccountID,
		req.AmountNeeded, auth.SubjectFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"paid":      result.Paid,
		"remainder": result.Remainder,
		"entry_id":  result.EntryID,
		"topup_id":  result.TopUpID,
	})
	h.logAudit(r, req.OrderID, "topup.partial_payment", map[string]any{
		"paid":      result.Paid,
		"remainder": result.Remainder,
	})
}

func (h *TopUpHandler) handleComplete(w http.ResponseWriter, r *http.Request, id string) {
	pending, err := h.service.CompleteIfSufficient(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toTopUpResponse(pending, time.Now()))
	h.logAudit(r, pending.ID, "topup.complete", map[string]any{
		"order_id": pending.OrderID,
	})
}

func (h *TopUpHandler) logAudit(r *http.Request, resourceID, action string, meta map[string]any) {
	if h.auditLogger == nil {
		return
	}
	payload, _ := json.Marshal(meta)
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		StationID:     auth.StationIDFromContext(r.Context()),
		Actor:         auth.SubjectFromContext(r.Context()),
		Role:          string(auth.RoleFromContext(r.Context())),
		Action:        action,
		ResourceType:  "pending_topup",
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
	case errors.Is(err, topup.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, topup.ErrNotPending),
		errors.Is(err, topup.ErrOpenTopUpExists),
		errors.Is(err, topup.ErrInsufficientBalance):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, topup.ErrEmptyOrderID),
		errors.Is(err, topup.ErrEmptyAccountID),
		errors.Is(err, topup.ErrInvalidAmount):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
