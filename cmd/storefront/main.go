package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/28Syed/Greencart-ecommerce/internal/auth"
	"github.com/28Syed/Greencart-ecommerce/internal/cache"
	"github.com/28Syed/Greencart-ecommerce/internal/config"
	h "github.com/28Syed/Greencart-ecommerce/internal/http"
	"github.com/28Syed/Greencart-ecommerce/internal/ledger"
	"github.com/28Syed/Greencart-ecommerce/internal/lock"
	"github.com/28Syed/Greencart-ecommerce/internal/payment"
	"github.com/28Syed/Greencart-ecommerce/internal/poller"
	"github.com/28Syed/Greencart-ecommerce/internal/publisher"
	"github.com/28Syed/Greencart-ecommerce/internal/repository"
	"github.com/28Syed/Greencart-ecommerce/internal/service"
	"github.com/28Syed/Greencart-ecommerce/internal/store"
	"github.com/28Syed/Greencart-ecommerce/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	if err := run(cfg, log); err != nil {
		log.Fatal("storefront stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx := context.Background()
	var wg sync.WaitGroup

	backend, closeBackend, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeBackend()

	cartCache, locker, closeRedis, err := openRedis(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeRedis()

	gateway := payment.NewRazorpayClient(payment.RazorpayConfig{
		KeyID:     cfg.RazorpayKeyID,
		KeySecret: cfg.RazorpayKeySecret,
		BaseURL:   cfg.RazorpayBaseURL,
		Timeout:   cfg.RazorpayTimeout,
	}, log)
	verifier := payment.NewVerifier(cfg.RazorpayKeySecret)

	carts := service.NewCartService(backend, cartCache, locker, log)
	orders := service.NewOrderService(backend, cartCache, locker, gateway, service.CheckoutConfig{
		Currency:   cfg.RazorpayCurrency,
		MinorUnits: 100,
		KeyID:      cfg.RazorpayKeyID,
	}, log)
	payments := service.NewPaymentService(backend, cartCache, locker, verifier, log)

	handlers := h.Handlers{
		Catalog:    h.NewCatalogHandler(service.NewCatalogService(backend, log), cfg.RequestTimeout, log),
		Cart:       h.NewCartHandler(carts, cfg.RequestTimeout, log),
		Orders:     h.NewOrderHandler(orders, payments, cfg.RequestTimeout, log),
		Engagement: h.NewEngagementHandler(service.NewWishlistService(backend, backend, log), service.NewReviewService(backend, backend), cfg.RequestTimeout, log),
		Chat:       h.NewChatHandler(service.NewChatService(backend, backend, log), cfg.RequestTimeout, log),
	}

	workersCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()

	var closers []func()
	if brokers := cfg.KafkaBrokers(); len(brokers) > 0 {
		var repo *ledger.PostgresLedger
		if cfg.LedgerEnabled() {
			repo, err = openLedger(ctx, cfg, log)
			if err != nil {
				return err
			}
		}

		outbox := publisher.NewOutboxPoller(backend, publisher.NewKafkaWriter(brokers, cfg.OrderEventsTopic), publisher.Config{
			Brokers:   brokers,
			Topic:     cfg.OrderEventsTopic,
			Interval:  cfg.OutboxInterval,
			Retention: cfg.OutboxRetention,
		}, log)
		evictor := poller.NewPoller(poller.NewKafkaReader(brokers, cfg.OrderEventsTopic), cartCache, log)

		startWorker(&wg, func() { outbox.Run(workersCtx) })
		startWorker(&wg, func() { evictor.Run(workersCtx) })
		closers = append(closers, func() { _ = outbox.Close() }, evictor.Close)

		if repo != nil {
			consumer := ledger.NewConsumer(repo, ledger.NewKafkaReader(brokers, cfg.OrderEventsTopic), log)
			startWorker(&wg, func() { consumer.Run(workersCtx) })
			closers = append(closers, consumer.Close, func() { _ = repo.Close() })
			handlers.Ledger = h.NewLedgerHandler(repo, cfg.RequestTimeout, log)
		}
		log.Info("order event workers started", zap.Strings("brokers", brokers), zap.String("topic", cfg.OrderEventsTopic))
	} else {
		log.Info("KAFKA_BROKERS not set, order event workers disabled")
	}

	authn := auth.NewJWTAuthenticator(cfg.JWTSecret, 0)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      h.NewRouter(handlers, authn, cfg.RequestTimeout, log),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("storefront listening", zap.String("addr", srv.Addr), zap.String("backend", cfg.StoreBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("shutting down storefront")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	stopWorkers()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		log.Info("workers stopped cleanly")
	case <-shutdownCtx.Done():
		log.Warn("workers did not stop in time")
	}
	for _, c := range closers {
		c()
	}

	log.Info("storefront stopped")
	return nil
}

func startWorker(wg *sync.WaitGroup, fn func()) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		fn()
	}()
}

func openBackend(ctx context.Context, cfg *config.Config, log *zap.Logger) (store.Backend, func(), error) {
	if cfg.StoreBackend == "mongo" {
		db, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, nil, err
		}
		repo := repository.NewMongoRepository(db, cfg.PendingPaymentTTL)
		if err := repo.CreateIndexes(ctx); err != nil {
			_ = db.Client().Disconnect(ctx)
			return nil, nil, err
		}
		log.Info("connected to MongoDB", zap.String("db", cfg.MongoDBName))
		if cfg.SeedCatalog {
			if err := store.Seed(ctx, repo, store.DemoCatalog(time.Now())); err != nil {
				log.Warn("failed to seed catalog", zap.Error(err))
			}
		}
		return repo, func() { _ = db.Client().Disconnect(context.Background()) }, nil
	}

	mem := store.NewMemoryStore(cfg.PendingPaymentTTL)
	if cfg.SeedCatalog {
		if err := store.Seed(ctx, mem, store.DemoCatalog(time.Now())); err != nil {
			_ = mem.Close()
			return nil, nil, err
		}
	}
	log.Warn("using in-memory store, data is lost on restart")
	return mem, func() { _ = mem.Close() }, nil
}

// openRedis returns the shared cart cache and lock when REDIS_ADDR is set,
// and process-local replacements otherwise.
func openRedis(ctx context.Context, cfg *config.Config, log *zap.Logger) (cache.CartCache, lock.Locker, func(), error) {
	if cfg.RedisAddr == "" {
		log.Info("REDIS_ADDR not set, using local locks without a cart cache")
		return cache.Noop{}, lock.NewLocalLocker(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, nil, fmt.Errorf("redis connection failed: %w", err)
	}
	log.Info("redis ping succeeded", zap.String("addr", cfg.RedisAddr))
	return cache.NewRedisCache(client), lock.NewRedisLocker(client, cfg.LockTTL, log), func() { _ = client.Close() }, nil
}

func openLedger(ctx context.Context, cfg *config.Config, log *zap.Logger) (*ledger.PostgresLedger, error) {
	creds := &ledger.Credentials{
		Host:              cfg.DBHost,
		Port:              cfg.DBPort,
		User:              cfg.DBUser,
		Password:          cfg.DBPassword,
		DBName:            cfg.DBName,
		MigrationsDirPath: cfg.MigrationsPath,
	}
	repo, err := ledger.NewPostgresLedger(ctx, creds, log)
	if err != nil {
		return nil, err
	}
	if err := repo.RunMigrations(creds); err != nil {
		_ = repo.Close()
		return nil, err
	}
	log.Info("ledger migrations completed")
	return repo, nil
}
