package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/api-sage/funds-transfer-service/src/internal/adapter/external/authorizer"
	"github.com/api-sage/funds-transfer-service/src/internal/adapter/external/notifier"
	"github.com/api-sage/funds-transfer-service/src/internal/adapter/http/controller"
	"github.com/api-sage/funds-transfer-service/src/internal/adapter/http/middleware"
	"github.com/api-sage/funds-transfer-service/src/internal/adapter/http/router"
	"github.com/api-sage/funds-transfer-service/src/internal/adapter/idempotency"
	"github.com/api-sage/funds-transfer-service/src/internal/adapter/repository/memory"
	"github.com/api-sage/funds-transfer-service/src/internal/adapter/repository/postgres"
	"github.com/api-sage/funds-transfer-service/src/internal/config"
	"github.com/api-sage/funds-transfer-service/src/internal/domain"
	"github.com/api-sage/funds-transfer-service/src/internal/logger"
	"github.com/api-sage/funds-transfer-service/src/internal/usecase/services"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

type stores struct {
	accounts domain.AccountRepository
	ledger   domain.LedgerRepository
	tx       domain.TransactionManager
	checks   map[string]controller.HealthCheck
	close    func() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := logger.Init(cfg.LogLevel); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error("server stopped with error", err, nil)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.close(); err != nil {
			logger.Error("close store failed", err, nil)
		}
	}()

	notify, closeNotifier := buildNotifier(cfg)
	defer func() {
		if err := closeNotifier(); err != nil {
			logger.Error("close notifier failed", err, nil)
		}
	}()

	var idempotencyStore controller.IdempotencyStore
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer client.Close()

		idempotencyStore = idempotency.NewRedisStore(client, cfg.IdempotencyTTL)
		st.checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		logger.Info("idempotency store enabled", logger.Fields{"redisAddr": cfg.RedisAddr})
	}

	transferService := services.NewTransferService(
		st.accounts,
		st.ledger,
		st.tx,
		authorizer.NewClient(cfg.AuthorizerURL),
		notify,
		services.WithAuthorizationTimeout(cfg.AuthorizationTimeout),
		services.WithNotificationTimeout(cfg.NotificationTimeout),
	)
	accountService := services.NewAccountService(st.accounts)

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, middleware.WithTrustedProxies(cfg.TrustedProxies))
	limiter.StartJanitor(ctx, 2*time.Minute)

	mux := router.New(
		controller.NewTransferController(transferService, idempotencyStore),
		controller.NewAccountController(accountService),
		controller.NewHealthController(st.checks),
		middleware.BasicAuth(cfg.ChannelID, cfg.ChannelKeyHash),
		limiter.Middleware,
	)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           middleware.RequestID(mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", logger.Fields{
			"addr":        cfg.HTTPAddr,
			"storeDriver": cfg.StoreDriver,
			"notifier":    cfg.NotifierDriver,
		})
		serveErr <- server.ListenAndServe()
	}()

	var runErr error
	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("serve http: %w", err)
		}
	case <-ctx.Done():
		logger.Info("http server shutting down", nil)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("shutdown http server: %w", err)
	}

	// Notifications still in flight must reach the notifier before it closes.
	if err := transferService.Wait(shutdownCtx); err != nil {
		logger.Error("notification dispatches did not finish before shutdown", err, nil)
	}
	return runErr
}

func openStores(ctx context.Context, cfg config.Config) (stores, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		store := memory.NewStore(seedAccounts()...)
		logger.Info("using in-memory store", logger.Fields{"accounts": len(store.Accounts())})
		return stores{
			accounts: store,
			ledger:   store,
			tx:       store,
			checks:   map[string]controller.HealthCheck{},
			close:    func() error { return nil },
		}, nil
	}

	openCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	db, err := postgres.Open(openCtx, cfg.DatabaseDSN, postgres.WithPool(postgres.PoolSettings{
		MaxOpen: cfg.DBMaxOpenConn,
		MaxIdle: cfg.DBMaxIdleConn,
	}))
	if err != nil {
		return stores{}, err
	}

	migrations, err := postgres.MigrationsFS(cfg.MigrationsDir)
	if err != nil {
		_ = db.Close()
		return stores{}, err
	}
	if err := postgres.RunMigrations(openCtx, db, migrations); err != nil {
		_ = db.Close()
		return stores{}, fmt.Errorf("run migrations: %w", err)
	}

	return stores{
		accounts: postgres.NewAccountRepository(db),
		ledger:   postgres.NewLedgerRepository(),
		tx:       postgres.NewTransactionManager(db),
		checks:   map[string]controller.HealthCheck{"postgres": pinger(db)},
		close:    db.Close,
	}, nil
}

func pinger(db *sql.DB) controller.HealthCheck {
	return func(ctx context.Context) error { return db.PingContext(ctx) }
}

func buildNotifier(cfg config.Config) (domain.Notifier, func() error) {
	switch cfg.NotifierDriver {
	case config.NotifierDriverKafka:
		n := notifier.NewKafkaNotifier(cfg.KafkaBrokers, cfg.NotificationTopic)
		return n, n.Close
	case config.NotifierDriverHTTP:
		return notifier.NewHTTPNotifier(cfg.NotifierURL, nil), func() error { return nil }
	default:
		return notifier.LogNotifier{}, func() error { return nil }
	}
}

// seedAccounts mirrors the accounts inserted by the seed migration so both
// store drivers start from the same state.
func seedAccounts() []domain.Account {
	return []domain.Account{
		{ID: "6f1c2a52-5d7e-4c1b-9a43-0c7f3f0a1001", FullName: "John Common", Email: "john@example.com", Balance: decimal.NewFromInt(1000), Type: domain.AccountTypeIndividual},
		{ID: "6f1c2a52-5d7e-4c1b-9a43-0c7f3f0a1002", FullName: "Jane Common", Email: "jane@example.com", Balance: decimal.NewFromInt(500), Type: domain.AccountTypeIndividual},
		{ID: "6f1c2a52-5d7e-4c1b-9a43-0c7f3f0a1003", FullName: "Acme Store", Email: "acme@store.com", Balance: decimal.Zero, Type: domain.AccountTypeMerchant},
	}
}
