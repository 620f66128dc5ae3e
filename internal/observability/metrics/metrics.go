package metrics

import (
	"database/sql"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	metricPrefix = "backoffice_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	settlementCreateTotal   *prometheus.CounterVec
	settlementCreateLatency *prometheus.HistogramVec
	settlementVerifyTotal   *prometheus.CounterVec
	settlementAdjustTotal   *prometheus.CounterVec
	settlementExportTotal   *prometheus.CounterVec
	settlementExportLatency *prometheus.HistogramVec

	accountSubmitTotal    *prometheus.CounterVec
	accountApproveTotal   *prometheus.CounterVec
	accountApproveLatency *prometheus.HistogramVec
	accountRejectTotal    *prometheus.CounterVec
	chainRecomputeSpan    prometheus.Histogram

	creditMirrorTotal *prometheus.CounterVec
	topupResolveTotal *prometheus.CounterVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, log *zap.Logger) {
	registerOnce.Do(func() {
		settlementCreateTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "settlement_create_total",
				Help: "Total settlement create operations by result",
			},
			[]string{"result"},
		)
		settlementCreateLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "settlement_create_latency_seconds",
				Help:    "Settlement create latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		settlementVerifyTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "settlement_verify_total",
				Help: "Total settlement verify operations by result",
			},
			[]string{"result"},
		)
		settlementAdjustTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "settlement_adjust_total",
				Help: "Total settlement adjustment operations by result",
			},
			[]string{"result"},
		)
		settlementExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "settlement_export_total",
				Help: "Total settlement report exports by format and result",
			},
			[]string{"format", "result"},
		)
		settlementExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "settlement_export_latency_seconds",
				Help:    "Settlement report export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		accountSubmitTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "account_submit_total",
				Help: "Total account entry submissions by type and result",
			},
			[]string{"type", "result"},
		)
		accountApproveTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "account_approve_total",
				Help: "Total account entry approvals by result",
			},
			[]string{"result"},
		)
		accountApproveLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "account_approve_latency_seconds",
				Help:    "Account entry approval latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		accountRejectTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "account_reject_total",
				Help: "Total account entry rejections by result",
			},
			[]string{"result"},
		)
		chainRecomputeSpan = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "account_chain_recompute_entries",
				Help:    "Number of completed entries rewritten per approval",
				Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
			},
		)

		creditMirrorTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "credit_mirror_total",
				Help: "Total credit ledger mirroring attempts by result",
			},
			[]string{"result"},
		)
		topupResolveTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "topup_resolve_total",
				Help: "Total pending top-up resolutions by result",
			},
			[]string{"result"},
		)

		prometheus.MustRegister(
			settlementCreateTotal,
			settlementCreateLatency,
			settlementVerifyTotal,
			settlementAdjustTotal,
			settlementExportTotal,
			settlementExportLatency,
			accountSubmitTotal,
			accountApproveTotal,
			accountApproveLatency,
			accountRejectTotal,
			chainRecomputeSpan,
			creditMirrorTotal,
			topupResolveTotal,
		)

		registerDBMetrics(db, log)
	})
}

// Result converts an error into a metric result label.
func Result(err error) string {
	if err != nil {
		return resultError
	}
	return resultSuccess
}

// ObserveSettlementCreate records create latency and result.
func ObserveSettlementCreate(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if settlementCreateTotal != nil {
		settlementCreateTotal.WithLabelValues(result).Inc()
	}
	if settlementCreateLatency != nil {
		settlementCreateLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncSettlementVerify increments the verify counter.
func IncSettlementVerify(result string) {
	if result == "" {
		result = resultSuccess
	}
	if settlementVerifyTotal != nil {
		settlementVerifyTotal.WithLabelValues(result).Inc()
	}
}

// IncSettlementAdjust increments the adjustment counter.
func IncSettlementAdjust(result string) {
	if result == "" {
		result = resultSuccess
	}
	if settlementAdjustTotal != nil {
		settlementAdjustTotal.WithLabelValues(result).Inc()
	}
}

// ObserveSettlementExport records export latency and result.
func ObserveSettlementExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if settlementExportTotal != nil {
		settlementExportTotal.WithLabelValues(format, result).Inc()
	}
	if settlementExportLatency != nil {
		settlementExportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// IncAccountSubmit increments the submit counter.
func IncAccountSubmit(entryType, result string) {
	if entryType == "" {
		entryType = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if accountSubmitTotal != nil {
		accountSubmitTotal.WithLabelValues(entryType, result).Inc()
	}
}

// ObserveAccountApprove records approval latency and result.
func ObserveAccountApprove(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if accountApproveTotal != nil {
		accountApproveTotal.WithLabelValues(result).Inc()
	}
	if accountApproveLatency != nil {
		accountApproveLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncAccountReject increments the reject counter.
func IncAccountReject(result string) {
	if result == "" {
		result = resultSuccess
	}
	if accountRejectTotal != nil {
		accountRejectTotal.WithLabelValues(result).Inc()
	}
}

// ObserveChainRecompute records how many entries an approval rewrote.
func ObserveChainRecompute(entries int) {
	if entries < 0 {
		entries = 0
	}
	if chainRecomputeSpan != nil {
		chainRecomputeSpan.Observe(float64(entries))
	}
}

// IncCreditMirror increments the credit mirroring counter.
func IncCreditMirror(result string) {
	if result == "" {
		result = resultSuccess
	}
	if creditMirrorTotal != nil {
		creditMirrorTotal.WithLabelValues(result).Inc()
	}
}

// IncTopupResolve increments the top-up resolution counter.
func IncTopupResolve(result string) {
	if result == "" {
		result = resultSuccess
	}
	if topupResolveTotal != nil {
		topupResolveTotal.WithLabelValues(result).Inc()
	}
}
