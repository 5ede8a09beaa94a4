package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/flash-wallet/flash_ledger/internal/cashout"
	"github.com/flash-wallet/flash_ledger/internal/config"
	"github.com/flash-wallet/flash_ledger/internal/events"
	"github.com/flash-wallet/flash_ledger/internal/fees"
	"github.com/flash-wallet/flash_ledger/internal/funding"
	"github.com/flash-wallet/flash_ledger/internal/ledger"
	"github.com/flash-wallet/flash_ledger/internal/lock"
	"github.com/flash-wallet/flash_ledger/internal/middleware"
	"github.com/flash-wallet/flash_ledger/internal/notification"
	"github.com/flash-wallet/flash_ledger/internal/obs"
	"github.com/flash-wallet/flash_ledger/internal/volume"
	"github.com/flash-wallet/flash_ledger/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg       config.Config
	DB        *pgxpool.Pool
	Cache     *redis.Client
	Logger    *slog.Logger
	Metrics   *obs.Metrics
	Registry  prometheus.Gatherer
	Publisher events.Publisher
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)
	RegisterMetricsRoute(app, d.Registry)

	journal, lightning, onChain := buildLedger(d)

	var locker lock.Locker
	if d.Cache != nil {
		locker = lock.NewRedisLocker(d.Cache, d.Cfg.LockTTL, d.Logger, d.Metrics)
	} else {
		locker = lock.NewMemoryLocker()
	}

	var walletRepo wallet.Repository
	if d.DB != nil {
		walletRepo = wallet.NewPostgresRepository(d.DB)
	} else {
		walletRepo = wallet.NewMemoryRepository()
	}

	notifier := notification.NewLoggerNotifier(d.Logger)
	imbalance := fees.NewImbalanceCalculator(d.Cfg.WithdrawFee, lightning, onChain)
	walletSvc := wallet.NewService(walletRepo, journal, imbalance)
	cashoutSvc := cashout.NewService(journal, locker, notifier, d.Metrics, d.Logger, cashout.Config{
		FlashWalletID: d.Cfg.FlashWalletID,
		JMDSellRate:   d.Cfg.JMDSellRate,
	})
	fundingSvc := funding.NewService(journal, locker, notifier, d.Metrics, d.Logger)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterWalletRoutes(api, wallet.NewHandler(walletSvc))
	RegisterJournalRoutes(api, ledger.NewHandler(journal))
	RegisterCashoutRoutes(api, cashout.NewHandler(cashoutSvc),
		middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))

	hooks := app.Group("/webhooks",
		middleware.WebhookSecret(d.Cfg.WebhookSecretHash),
		middleware.WebhookRateLimit(d.Cache, d.Cfg.WebhookRatePerMinute, d.Logger))
	RegisterFundingRoutes(hooks, funding.NewHandler(fundingSvc, funding.DefaultProviders(), d.Cfg.BankOwnerWalletID))
	RegisterSettlementRoutes(hooks, cashout.NewHandler(cashoutSvc))

	return nil
}

// buildLedger picks the Postgres journal and volume sources when a database
// is configured and the in-memory ones otherwise.
func buildLedger(d Deps) (*ledger.Journal, volume.Source, volume.Source) {
	opts := []ledger.Option{ledger.WithMetrics(d.Metrics)}
	if d.Publisher != nil {
		opts = append(opts, ledger.WithPublisher(d.Publisher))
	}

	if d.DB == nil {
		journal := ledger.NewJournal(ledger.NewInMemory(), d.Logger, opts...)
		return journal,
			volume.NewLedgerSource(journal, ledger.RailLightning),
			volume.NewLedgerSource(journal, ledger.RailOnChain)
	}

	journal := ledger.NewJournal(ledger.NewPostgresStore(d.DB), d.Logger, opts...)
	sqlDB := stdlib.OpenDBFromPool(d.DB)
	return journal,
		volume.NewPostgresSource(sqlDB, ledger.RailLightning),
		volume.NewPostgresSource(sqlDB, ledger.RailOnChain)
}
