package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"strconv"
	"time"

	"fuelstation-backoffice/internal/audit"
	"fuelstation-backoffice/internal/auth"
	"fuelstation-backoffice/internal/eventing"
	"fuelstation-backoffice/internal/eventing/eventbus"
	eventingrepo "fuelstation-backoffice/internal/eventing/infrastructure/postgres"
	"fuelstation-backoffice/internal/gateway/creditledger"
	"fuelstation-backoffice/internal/gateway/procurement"
	"fuelstation-backoffice/internal/gateway/tankmeter"
	ledgerapp "fuelstation-backoffice/internal/ledger/application"
	ledgerrepo "fuelstation-backoffice/internal/ledger/infrastructure/postgres"
	ledgerinterfaces "fuelstation-backoffice/internal/ledger/interfaces"
	"fuelstation-backoffice/internal/logging"
	masterdatarepo "fuelstation-backoffice/internal/masterdata/infrastructure/postgres"
	"fuelstation-backoffice/internal/observability/metrics"
	reconcileapp "fuelstation-backoffice/internal/reconcile/application"
	reconcileinterfaces "fuelstation-backoffice/internal/reconcile/interfaces"
	reconcilenotify "fuelstation-backoffice/internal/reconcile/notify"
	settlementadapters "fuelstation-backoffice/internal/settlement/adapters/masterdata"
	settlementapp "fuelstation-backoffice/internal/settlement/application"
	settlementrepo "fuelstation-backoffice/internal/settlement/infrastructure/postgres"
	settlementinterfaces "fuelstation-backoffice/internal/settlement/interfaces"
	topupapp "fuelstation-backoffice/internal/topup/application"
	topuprepo "fuelstation-backoffice/internal/topup/infrastructure/postgres"
	topupinterfaces "fuelstation-backoffice/internal/topup/interfaces"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg := loadConfig()
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatal("db ping failed", zap.Error(err))
	}

	metrics.Init(db, logger)
	auditRepo := audit.NewRepository(db)

	staffRepo := masterdatarepo.NewStaffRepository(db)
	pumpRepo := masterdatarepo.NewPumpRepository(db)
	customerRepo := masterdatarepo.NewCustomerRepository(db)

	baseBus := eventbus.NewInMemoryBus()
	registry := eventing.NewRegistry()
	registry.Register(settlementapp.SettlementCommitted{})
	registry.Register(ledgerapp.AccountEntryCompleted{})

	outboxStore := eventingrepo.NewOutboxStore(db)
	processedStore := eventingrepo.NewProcessedStore(db)
	dlqStore := eventingrepo.NewDLQStore(db)
	dispatcher := eventing.NewDispatcher(baseBus, outboxStore, registry, dlqStore)
	publisher := eventing.NewPublisher(outboxStore, dispatcher, cfg.StationID, baseBus)

	var tankGateway settlementapp.TankGateway
	if cfg.TankMeterURL != "" {
		tankGateway = tankmeter.NewClient(cfg.TankMeterURL, cfg.GatewayTimeout)
	}
	creditClient := creditledger.NewClient(cfg.CreditLedgerURL, cfg.GatewayTimeout)

	recordRepo := settlementrepo.NewRecordRepository(db)
	settlementService, err := settlementapp.NewService(
		recordRepo,
		settlementadapters.NewStaffDirectory(staffRepo),
		settlementadapters.NewPumpDirectory(pumpRepo),
		settlementadapters.NewCustomerDirectory(customerRepo),
		tankGateway,
		settlementinterfaces.NewOutboxPublisher(publisher, cfg.StationID),
		nil,
		logger,
	)
	if err != nil {
		logger.Fatal("settlement service error", zap.Error(err))
	}
	settlementHandler, err := settlementinterfaces.NewSettlementHandler(settlementService, auditRepo)
	if err != nil {
		logger.Fatal("settlement handler error", zap.Error(err))
	}
	mirrorConsumer, err := settlementinterfaces.NewCreditMirrorConsumer(creditClient, recordRepo, logger)
	if err != nil {
		logger.Fatal("credit mirror consumer error", zap.Error(err))
	}
	settlementinterfaces.RegisterCreditMirrorConsumer(baseBus, mirrorConsumer, processedStore)

	entryRepo := ledgerrepo.NewEntryRepository(db)
	ledgerService, err := ledgerapp.NewService(entryRepo,
		ledgerinterfaces.NewOutboxPublisher(publisher, cfg.StationID), nil, cfg.LedgerFloor, logger)
	if err != nil {
		logger.Fatal("ledger service error", zap.Error(err))
	}
	ledgerHandler, err := ledgerinterfaces.NewLedgerHandler(ledgerService, auditRepo)
	if err != nil {
		logger.Fatal("ledger handler error", zap.Error(err))
	}

	var poMarker topupapp.PurchaseOrderMarker
	if cfg.ProcurementURL != "" {
		poMarker = procurement.NewClient(cfg.ProcurementURL, cfg.GatewayTimeout)
	}
	topUpRepo := topuprepo.NewTopUpRepository(db)
	topUpService, err := topupapp.NewService(topUpRepo, ledgerService, poMarker, nil, cfg.TopUpReserve, logger)
	if err != nil {
		logger.Fatal("topup service error", zap.Error(err))
	}
	topUpHandler, err := topupinterfaces.NewTopUpHandler(topUpService, auditRepo)
	if err != nil {
		logger.Fatal("topup handler error", zap.Error(err))
	}
	topupinterfaces.RegisterDepositConsumer(baseBus, topupinterfaces.NewDepositConsumer(topUpService), processedStore)

	reconcileCfg, err := reconcileapp.LoadConfig()
	if err != nil {
		logger.Fatal("reconcile config error", zap.Error(err))
	}
	var notifier reconcilenotify.Notifier
	if reconcileCfg.WebhookURL != "" {
		notifier = reconcilenotify.NewWebhookNotifier(reconcileCfg.WebhookURL)
	}
	sweeper, err := reconcileapp.NewSweeper(recordRepo, topUpRepo, creditClient, notifier, reconcileCfg, nil, logger)
	if err != nil {
		logger.Fatal("sweeper error", zap.Error(err))
	}
	reconcileHandler, err := reconcileinterfaces.NewReconcileHandler(sweeper, auditRepo)
	if err != nil {
		logger.Fatal("reconcile handler error", zap.Error(err))
	}
	go sweeper.RunLoop(context.Background())

	go func() {
		ticker := time.NewTicker(cfg.DispatchInterval)
		defer ticker.Stop()
		for range ticker.C {
			if err := dispatcher.Dispatch(context.Background(), cfg.DispatchBatch); err != nil {
				logger.Warn("outbox dispatch failed", zap.Error(err))
			}
		}
	}()

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/settlements", settlementHandler)
	mux.Handle("/api/v1/settlements/", settlementHandler)
	mux.Handle("/api/v1/account/", ledgerHandler)
	mux.Handle("/api/v1/topups", topUpHandler)
	mux.Handle("/api/v1/topups/", topUpHandler)
	mux.Handle("/api/v1/reconcile/sweep", reconcileHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	handler := logging.RequestMiddleware(authMiddleware.Wrap(mux), logger)
	server := &http.Server{Addr: cfg.HTTPAddr, Handler: handler}
	logger.Info("http listening", zap.String("addr", cfg.HTTPAddr))
	logger.Fatal("server stopped", zap.Error(server.ListenAndServe()))
}

type config struct {
	DatabaseURL      string
	HTTPAddr         string
	StationID        string
	LogLevel         string
	JWTSecret        string
	TankMeterURL     string
	CreditLedgerURL  string
	ProcurementURL   string
	GatewayTimeout   time.Duration
	LedgerFloor      float64
	TopUpReserve     float64
	DispatchInterval time.Duration
	DispatchBatch    int
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:      getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:         getenvDefault("HTTP_ADDR", ":8080"),
		StationID:        getenvDefault("STATION_ID", "station-demo-001"),
		LogLevel:         getenvDefault("LOG_LEVEL", "info"),
		JWTSecret:        getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		TankMeterURL:     getenvDefault("TANK_METER_URL", ""),
		CreditLedgerURL:  getenvDefault("CREDIT_LEDGER_URL", ""),
		ProcurementURL:   getenvDefault("PROCUREMENT_URL", ""),
		GatewayTimeout:   getenvDuration("GATEWAY_TIMEOUT", 10*time.Second),
		LedgerFloor:      getenvFloatDefault("LEDGER_FLOOR", 0),
		TopUpReserve:     getenvFloatDefault("TOPUP_RESERVE", 0),
		DispatchInterval: getenvDuration("OUTBOX_DISPATCH_INTERVAL", 30*time.Second),
		DispatchBatch:    getenvIntDefault("OUTBOX_DISPATCH_BATCH", 100),
	}
	if cfg.DatabaseURL == "" {
		panic("DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		panic("AUTH_JWT_SECRET is required")
	}
	if cfg.CreditLedgerURL == "" {
		panic("CREDIT_LEDGER_URL is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvFloatDefault(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
