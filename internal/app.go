// internal/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"

	router "novapay-wallet/internal/api"
	"novapay-wallet/internal/api/handler"
	"novapay-wallet/internal/config"
	"novapay-wallet/internal/repository"
	"novapay-wallet/internal/repository/kvstore"
	"novapay-wallet/internal/repository/memory"
	"novapay-wallet/internal/repository/redisstore"
	"novapay-wallet/internal/repository/sqlstore"
	"novapay-wallet/internal/service"
	"novapay-wallet/internal/util"
	"novapay-wallet/pkg/db"
	"novapay-wallet/pkg/rabbitmq"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *slog.Logger
	// Clock drives every time-dependent rule. Tests may replace it before Initialize.
	Clock func() time.Time

	// Storage
	DB    *sqlx.DB      // set for the sqlite and postgres drivers
	Redis *redis.Client // set for the redis driver
	KV    repository.KVStore

	// Repositories
	AccountRepository repository.AccountRepository
	SessionRepository repository.SessionRepository
	InviteRepository  repository.InviteRepository

	Publisher rabbitmq.Publisher

	// Services
	WalletService service.WalletService
	AdminService  service.AdminService

	// HTTP API
	HTTPHandler http.Handler
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{Logger: util.GetLogger(), Clock: time.Now}
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg

	// 2. Initialize Logger
	util.InitLogger(cfg.LogLevel, cfg.LogFormat)
	app.Logger = util.GetLogger()
	app.Logger.Info("Application configuration loaded successfully.", "storage_driver", cfg.StorageDriver)

	// 3. Open the key-value store
	if err := app.openStore(ctx); err != nil {
		return err
	}
	app.Logger.Info("Storage initialized.", "driver", cfg.StorageDriver)

	// 4. Initialize Repositories
	app.AccountRepository = kvstore.NewAccountStore(app.KV, app.Logger, cfg.StrictStorage)
	app.SessionRepository = kvstore.NewSessionStore(app.KV)
	app.InviteRepository = kvstore.NewInviteStore(app.KV, app.Logger)
	app.Logger.Info("Repositories initialized.")

	// 5. Ledger events
	app.Publisher = app.newPublisher()

	// 6. Initialize Services
	lock := &sync.Mutex{}
	app.WalletService = service.NewWalletService(
		app.AccountRepository,
		app.SessionRepository,
		app.InviteRepository,
		app.Publisher,
		app.Logger,
		service.WalletOptions{
			LegacyAccountPolicy: cfg.LegacyAccountPolicy,
			Clock:               app.Clock,
			Lock:                lock,
		},
	)
	app.AdminService = service.NewAdminService(app.AccountRepository, cfg.Admin, app.Logger, lock, app.Clock)
	app.Logger.Info("Services initialized.", "legacy_account_policy", cfg.LegacyAccountPolicy)

	// 7. Initialize HTTP Handlers and Router
	handlers := router.Handlers{
		Account: handler.NewAccountHandler(app.WalletService, app.Logger),
		Wallet:  handler.NewWalletHandler(app.WalletService, app.Logger),
		Sync:    handler.NewSyncHandler(app.WalletService, app.Logger, app.Clock),
	}
	if app.AdminService.Enabled() {
		handlers.Admin = handler.NewAdminHandler(app.AdminService, app.Logger)
	}
	app.HTTPHandler = router.NewRouter(handlers, app.Logger)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

func (app *Application) openStore(ctx context.Context) error {
	cfg := app.Config
	switch cfg.StorageDriver {
	case config.StorageMemory:
		app.KV = memory.NewKVStore()
		app.Logger.Warn("Using in-memory storage; data is lost on restart")
		return nil

	case config.StorageRedis:
		client, err := db.NewRedisClient(cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		app.Redis = client
		app.KV = redisstore.NewKVStore(client, redisstore.DefaultPrefix)
		return nil

	case config.StorageSQLite, config.StoragePostgres:
		var (
			conn *sqlx.DB
			err  error
		)
		if cfg.StorageDriver == config.StorageSQLite {
			conn, err = db.NewSQLiteDB(cfg.SQLitePath)
		} else {
			conn, err = db.NewPostgresDB(cfg.DB)
		}
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		store := sqlstore.NewKVStore(conn)
		if err := store.Migrate(ctx); err != nil {
			_ = conn.Close()
			return err
		}
		app.DB = conn
		app.KV = store
		return nil
	}
	return fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
}

// newPublisher connects to RabbitMQ when configured and falls back to a no-op
// publisher otherwise, so the wallet keeps working without a broker.
func (app *Application) newPublisher() rabbitmq.Publisher {
	if app.Config.RabbitMQURL == "" {
		app.Logger.Info("RABBITMQ_URL not set; ledger events are disabled")
		return &rabbitmq.EventProducerFallback{Logger: app.Logger}
	}
	producer, err := rabbitmq.NewEventProducer(app.Config.RabbitMQURL, app.Logger)
	if err != nil {
		app.Logger.Warn("RabbitMQ unavailable; ledger events are disabled", "error", err)
		return &rabbitmq.EventProducerFallback{Logger: app.Logger}
	}
	app.Logger.Info("Ledger events publishing to RabbitMQ.", "exchange", rabbitmq.LedgerExchange)
	return producer
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	if app.Publisher != nil {
		app.Publisher.Close()
	}
	if app.KV != nil {
		// Closing the store closes the underlying database or redis connection.
		if err := app.KV.Close(); err != nil {
			app.Logger.Error("Failed to close storage", "error", err)
			return fmt.Errorf("failed to close storage: %w", err)
		}
		app.Logger.Info("Storage closed.")
	}
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
