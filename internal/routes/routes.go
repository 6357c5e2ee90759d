package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/dompet-pay/dompet_pay/internal/audit"
	"github.com/dompet-pay/dompet_pay/internal/config"
	"github.com/dompet-pay/dompet_pay/internal/fraud"
	"github.com/dompet-pay/dompet_pay/internal/ledger"
	"github.com/dompet-pay/dompet_pay/internal/middleware"
	"github.com/dompet-pay/dompet_pay/internal/settlement"
	"github.com/dompet-pay/dompet_pay/internal/transaction"
	"github.com/dompet-pay/dompet_pay/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes. The returned
// cleanup flushes the audit outbox and must run during shutdown.
func Setup(app *fiber.App, d Deps) (func(), error) {
	// Enforce DB/Redis presence outside of dev, even though config also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return nil, fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return nil, fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.AccessLog(d.Logger))

	RegisterHealthRoutes(app, d)

	// Storage backends fall back to memory when no database is configured.
	var store ledger.Store
	var txRepo transaction.Repository
	var verdicts fraud.VerdictRepository
	var auditSink audit.Recorder
	var auditLister audit.Lister
	if d.DB != nil {
		store = ledger.NewPostgresStore(d.DB)
		txRepo = transaction.NewPostgresRepository(d.DB)
		verdicts = fraud.NewPostgresRepository(d.DB)
		pg := audit.NewPostgresRecorder(d.DB)
		auditSink, auditLister = pg, pg
	} else {
		store = ledger.NewInMemory()
		txRepo = transaction.NewMemoryRepository()
		verdicts = fraud.NewMemoryRepository()
		mem := audit.NewMemoryRecorder()
		auditSink, auditLister = mem, mem
	}
	if d.Cache != nil {
		auditSink = audit.MultiRecorder{auditSink, audit.NewStreamRecorder(d.Cache, d.Cfg.AuditStream)}
	}

	outbox := audit.NewOutbox(auditSink, d.Logger, audit.OutboxOptions{
		QueueSize:   d.Cfg.AuditQueueSize,
		MaxAttempts: d.Cfg.AuditMaxAttempts,
	})

	evaluator := fraud.NewThresholdEvaluator(fraud.Thresholds{
		Suspicious: d.Cfg.FraudSuspiciousThreshold,
		Block:      d.Cfg.FraudBlockThreshold,
	}, verdicts)

	walletSvc := wallet.NewService(store)
	txSvc := transaction.NewService(txRepo, store, evaluator, settlement.StaticAdapter{}, outbox, d.Logger, transaction.Timeouts{
		FraudCheck: d.Cfg.FraudCheckTimeout,
		Settlement: d.Cfg.SettlementTimeout,
		Ledger:     d.Cfg.LedgerTimeout,
	})

	walletHandler := wallet.NewHandler(walletSvc)
	txHandler := transaction.NewHandler(txSvc)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	protected := api.Group("", middleware.AuthContext())
	if d.Cache != nil {
		protected.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}
	RegisterWalletRoutes(protected, walletHandler)
	RegisterTransactionRoutes(protected, txHandler, middleware.TransactionRateLimit(d.Cache, d.Cfg.TransactionRatePerMin))

	admin := api.Group("/admin", middleware.AuthContext(), middleware.RequireAdmin())
	RegisterAdminRoutes(admin, walletHandler, verdicts, auditLister)

	return outbox.Close, nil
}
