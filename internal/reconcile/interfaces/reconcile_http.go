package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"

	"fuelstation-backoffice/internal/audit"
	"fuelstation-backoffice/internal/auth"
	reconcileapp "fuelstation-backoffice/internal/reconcile/application"
)

// ReconcileHandler exposes the manual sweep trigger.
type ReconcileHandler struct {
	sweeper     *reconcileapp.Sweeper
	auditLogger audit.Logger
}

// NewReconcileHandler constructs a handler.
func NewReconcileHandler(sweeper *reconcileapp.Sweeper, auditLogger audit.Logger) (*ReconcileHandler, error) {
	if sweeper == nil {
		return nil, errors.New("reconcile handler: nil sweeper")
	}
	return &ReconcileHandler{sweeper: sweeper, auditLogger: auditLogger}, nil
}

// ServeHTTP handles routes under /api/v1/reconcile.
func (h *ReconcileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/api/v1/reconcile/sweep" || r.Method != http.MethodPost {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	report, err := h.sweeper.Run(r.Context())
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(report)
	h.logAudit(r, report)
}

func (h *ReconcileHandler) logAudit(r *http.Request, report *reconcileapp.SweepReport) {
	if h.auditLogger == nil {
		return
	}
	payload, _ := json.Marshal(report)
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		StationID:     auth.StationIDFromContext(r.Context()),
		Actor:         auth.SubjectFromContext(r.Context()),
		Role:          string(auth.RoleFromContext(r.Context())),
		Action:        "reconcile.sweep",
		ResourceType:  "reconcile_sweep",
		ResourceID:    report.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z"),
		Metadata:      payload,
		PayloadDigest: audit.DigestJSON(payload),
		IP:            audit.ClientIP(r),
		UserAgent:     r.UserAgent(),
	})
}
