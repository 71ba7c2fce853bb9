package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Leonardo-Silva-Nascimento/Catalog-api/internal/cache"
	"github.com/Leonardo-Silva-Nascimento/Catalog-api/internal/config"
	"github.com/Leonardo-Silva-Nascimento/Catalog-api/internal/event"
	handler "github.com/Leonardo-Silva-Nascimento/Catalog-api/internal/handler/http"
	"github.com/Leonardo-Silva-Nascimento/Catalog-api/internal/index"
	esindex "github.com/Leonardo-Silva-Nascimento/Catalog-api/internal/index/elasticsearch"
	memindex "github.com/Leonardo-Silva-Nascimento/Catalog-api/internal/index/memory"
	"github.com/Leonardo-Silva-Nascimento/Catalog-api/internal/repository/postgres"
	"github.com/Leonardo-Silva-Nascimento/Catalog-api/internal/service"
	"github.com/Leonardo-Silva-Nascimento/Catalog-api/internal/storage"
	"github.com/Leonardo-Silva-Nascimento/Catalog-api/internal/storage/blob"
	memstorage "github.com/Leonardo-Silva-Nascimento/Catalog-api/internal/storage/memory"
	catalogsync "github.com/Leonardo-Silva-Nascimento/Catalog-api/internal/sync"
	"github.com/Leonardo-Silva-Nascimento/Catalog-api/migrations"
	"github.com/Leonardo-Silva-Nascimento/Catalog-api/pkg/database"
	"github.com/Leonardo-Silva-Nascimento/Catalog-api/pkg/health"
	pkgkafka "github.com/Leonardo-Silva-Nascimento/Catalog-api/pkg/kafka"
)

// App wires together all dependencies and runs the catalog API.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	consumers  []*pkgkafka.Consumer
	producer   *pkgkafka.Producer
	dlq        *pkgkafka.DLQProducer
	httpServer *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	// PostgreSQL pool, migrations, and pool metrics.
	pgCfg := &database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: time.Duration(cfg.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(cfg.DBMaxConnIdleTimeMins) * time.Minute,
	}

	pool, err := database.NewPostgresPoolWithLogger(ctx, pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	database.RegisterPoolMetrics(pool, "catalog-api")
	database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)

	// Redis: read-through cache plus consumer idempotency store.
	redisClient, err := database.NewRedisClient(ctx, database.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	productCache := cache.NewRedisCache(redisClient, "catalog:")
	idempotencyStore := pkgkafka.NewRedisIdempotencyStore(redisClient, "catalog:idem:", 24*time.Hour)

	// Search index engine.
	var eng index.Engine
	var esEng *esindex.Engine
	switch cfg.SearchEngine {
	case "elasticsearch":
		esEng, err = esindex.New(cfg.ElasticsearchURL, cfg.ElasticsearchIndex, logger)
		if err != nil {
			return nil, fmt.Errorf("init elasticsearch engine: %w", err)
		}
		eng = esEng
		logger.Info("elasticsearch index engine initialized",
			slog.String("url", cfg.ElasticsearchURL),
			slog.String("index", cfg.ElasticsearchIndex),
		)
	default:
		eng = memindex.New()
		logger.Info("in-memory index engine initialized")
	}

	// Image storage backend.
	var store storage.Storage
	switch cfg.StorageBackend {
	case "blob":
		store = blob.New(blob.Config{
			BaseURL:   cfg.BlobBaseURL,
			PublicURL: cfg.BlobPublicURL,
		}, logger)
		logger.Info("blob storage initialized", slog.String("base_url", cfg.BlobBaseURL))
	default:
		store = memstorage.New(cfg.BlobPublicURL)
		logger.Info("in-memory storage initialized")
	}

	// Kafka producer for propagation events.
	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	propagator := event.NewProducer(producer, logger)

	// Service layer and repository.
	repo := postgres.NewProductRepository(pool)
	catalogService := service.NewCatalogService(repo, productCache, eng, propagator, store, logger)

	// Index sync pipeline: consumer -> worker -> engine. Retry policy lives
	// in the sync worker, so the consumers run with MaxRetries zero. The DLQ
	// receives both poison messages and tasks the worker gave up on.
	dlq := pkgkafka.NewDLQProducer(cfg.KafkaBrokers, logger)
	reporter := event.NewDLQFailureReporter(dlq, cfg.KafkaConsumerGroup, logger)
	worker := catalogsync.NewWorker(eng, reporter, logger)
	eventConsumer := event.NewConsumer(worker, logger)
	handlerFn := pkgkafka.IdempotentHandler(idempotencyStore, eventConsumer.Handle, logger)

	topics := []string{
		event.TopicProductCreated,
		event.TopicProductUpdated,
		event.TopicProductDeleted,
		event.TopicProductRestored,
	}

	var consumers []*pkgkafka.Consumer
	for _, topic := range topics {
		consumerCfg := pkgkafka.ConsumerConfig{
			Brokers:  cfg.KafkaBrokers,
			GroupID:  cfg.KafkaConsumerGroup,
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 10e6, // 10 MB
		}
		consumers = append(consumers, pkgkafka.NewConsumer(consumerCfg, handlerFn, dlq, logger))
	}
	logger.Info("kafka consumers initialized",
		slog.Any("brokers", cfg.KafkaBrokers),
		slog.Int("topic_count", len(topics)),
	)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("redis", productCache.Ping)
	healthHandler.Register("kafka", func(ctx context.Context) error {
		return pkgkafka.PingBrokers(ctx, cfg.KafkaBrokers)
	})
	if esEng != nil {
		healthHandler.Register("elasticsearch", esEng.Ping)
	}

	// HTTP router.
	router := handler.NewRouter(catalogService, healthHandler, handler.RouterConfig{
		PprofAllowedCIDRs: cfg.PprofAllowedCIDRs,
	}, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		consumers:  consumers,
		producer:   producer,
		dlq:        dlq,
		httpServer: httpServer,
	}, nil
}

// Run starts the HTTP server and Kafka consumers, blocking until the context
// is canceled or a component fails.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1+len(a.consumers))

	for _, c := range a.consumers {
		go func() {
			if err := c.Start(ctx); err != nil {
				errCh <- fmt.Errorf("kafka consumer: %w", err)
			}
		}()
	}

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	for _, c := range a.consumers {
		if err := c.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.dlq.Close(); err != nil {
		a.logger.Error("dlq producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
