package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mantenix/inventory-service/internal/api"
	"github.com/mantenix/inventory-service/internal/api/handlers"
	"github.com/mantenix/inventory-service/internal/application"
	"github.com/mantenix/inventory-service/internal/infrastructure/authz"
	"github.com/mantenix/inventory-service/internal/infrastructure/cache"
	"github.com/mantenix/inventory-service/internal/infrastructure/directory"
	mongoRepo "github.com/mantenix/inventory-service/internal/infrastructure/mongodb"
	"github.com/mantenix/inventory-service/internal/jobs"
	"github.com/mantenix/inventory-service/pkg/cloudevents"
	"github.com/mantenix/inventory-service/pkg/contracts/events"
	"github.com/mantenix/inventory-service/pkg/contracts/openapi"
	"github.com/mantenix/inventory-service/pkg/idempotency"
	"github.com/mantenix/inventory-service/pkg/kafka"
	"github.com/mantenix/inventory-service/pkg/logging"
	"github.com/mantenix/inventory-service/pkg/metrics"
	"github.com/mantenix/inventory-service/pkg/mongodb"
	"github.com/mantenix/inventory-service/pkg/outbox"
	outboxMongo "github.com/mantenix/inventory-service/pkg/outbox/mongodb"
	"github.com/mantenix/inventory-service/pkg/tracing"
)

const serviceName = "inventory-service"

func main() {
	// A missing .env file is fine outside local development
	_ = godotenv.Load()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	if err := run(context.Background(), loadConfig(), appDependencies{}, signalCh); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type tracerProvider interface {
	Shutdown(ctx context.Context) error
}

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

type appDependencies struct {
	initTracing    func(ctx context.Context, cfg *tracing.Config) (tracerProvider, error)
	newMongoClient func(ctx context.Context, cfg *mongodb.Config) (*mongodb.Client, error)
	newHTTPServer  func(addr string, handler http.Handler) httpServer
}

func (d appDependencies) withDefaults() appDependencies {
	if d.initTracing == nil {
		d.initTracing = func(ctx context.Context, cfg *tracing.Config) (tracerProvider, error) {
			return tracing.Initialize(ctx, cfg)
		}
	}
	if d.newMongoClient == nil {
		d.newMongoClient = mongodb.NewClient
	}
	if d.newHTTPServer == nil {
		d.newHTTPServer = func(addr string, handler http.Handler) httpServer {
			return &http.Server{
				Addr:              addr,
				Handler:           handler,
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       10 * time.Second,
				WriteTimeout:      30 * time.Second,
			}
		}
	}
	return d
}

func run(ctx context.Context, config *Config, deps appDependencies, signalCh <-chan os.Signal) error {
	deps = deps.withDefaults()
	if config == nil {
		config = loadConfig()
	}

	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.ParseLevel(config.LogLevel)
	logConfig.Environment = config.Environment
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting inventory-service API")

	tracingConfig := tracing.DefaultConfig(serviceName)
	tracingConfig.OTLPEndpoint = config.OTLPEndpoint
	tracingConfig.Environment = config.Environment
	tracingConfig.Enabled = config.TracingEnabled

	tp, err := deps.initTracing(ctx, tracingConfig)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
	} else if tp != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
	}

	m := metrics.New(metrics.DefaultConfig(serviceName))

	config.MongoDB.Monitor = mongodb.NewCommandMonitor(m, logger)
	mongoClient, err := deps.newMongoClient(ctx, config.MongoDB)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		return fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	store := mongodb.NewInstrumentedClient(mongoClient)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = store.Close(closeCtx)
	}()
	db := store.Database()
	logger.Info("Connected to MongoDB", "database", config.MongoDB.Database)

	outboxRepo := outboxMongo.NewRepository(db)
	idempotencyRepo := idempotency.NewMongoKeyRepository(db)
	if err := mongoRepo.Migrate(ctx, db, outboxRepo, idempotencyRepo); err != nil {
		logger.WithError(err).Warn("Failed to ensure indexes")
	}

	validator, err := events.NewValidator()
	if err != nil {
		return fmt.Errorf("failed to load event schemas: %w", err)
	}
	eventPublisher := mongoRepo.NewOutboxPublisher(outboxRepo, cloudevents.NewEventFactory(cloudevents.SourceInventory), validator)

	policy, err := authz.LoadPolicy(config.AuthzPolicyFile)
	if err != nil {
		return err
	}
	authorizer := authz.NewAuthorizer(policy)

	dir, err := buildDirectory(config, logger, m)
	if err != nil {
		return err
	}

	var names application.NameCache
	if config.RedisAddr != "" {
		redisClient, err := cache.NewClient(ctx, config.RedisAddr, config.RedisPassword)
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, location names are not cached")
		} else {
			defer redisClient.Close()
			names = cache.NewNameCache(redisClient, cache.DefaultTTL, logger)
		}
	}

	itemRepo := mongoRepo.NewItemRepository(db)
	requestRepo := mongoRepo.NewRequestRepository(db)
	movementLog := application.NewMovementLog(mongoRepo.NewMovementRepository(db))
	resolver := application.NewLocationResolver(dir, names, logger)

	ledgerDeps := application.LedgerDeps{
		Stock:     mongoRepo.NewStockRepository(db),
		Movements: movementLog,
		Resolver:  resolver,
		Tx:        store,
		Events:    eventPublisher,
		Metrics:   m,
		Logger:    logger,
	}
	ledger := application.NewStockLedger(ledgerDeps)
	engine := application.NewTransferEngine(ledgerDeps)

	requestService := application.NewRequestService(application.RequestServiceDeps{
		Requests:  requestRepo,
		Items:     itemRepo,
		Ledger:    ledger,
		Engine:    engine,
		Movements: movementLog,
		Resolver:  resolver,
		Directory: dir,
		Authz:     authorizer,
		Tx:        store,
		Events:    eventPublisher,
		Metrics:   m,
		Logger:    logger,
	})
	reconciler := application.NewReconciler(requestRepo, movementLog, store, eventPublisher, m, nil, logger)

	var relay *outbox.Relay
	if config.KafkaEnabled {
		producer := kafka.NewProducer(config.Kafka)
		defer producer.Close()
		relay = outbox.NewRelay(outboxRepo, kafka.NewInstrumentedProducer(producer, m, logger), logger, m, outbox.DefaultRelayConfig())
		if err := relay.Start(ctx); err != nil {
			return fmt.Errorf("failed to start outbox relay: %w", err)
		}
		defer relay.Stop()
		logger.Info("Outbox relay started", "brokers", config.Kafka.Brokers)
	} else {
		logger.Warn("Kafka disabled, events stay in the outbox")
	}

	scheduler := jobs.NewScheduler(logger)
	schedule := []jobs.Job{
		jobs.NewReconcileJob(config.ReconcileSchedule, reconciler),
		jobs.NewIdempotencyCleanupJob(config.CleanupSchedule, idempotencyRepo, logger),
	}
	if relay != nil {
		schedule = append(schedule, jobs.NewOutboxCleanupJob(config.CleanupSchedule, relay, config.OutboxRetention, logger))
	}
	for _, job := range schedule {
		if err := scheduler.Register(job); err != nil {
			return err
		}
	}
	if err := scheduler.RunNow(ctx, jobs.ReconcileApprovals); err != nil {
		logger.WithError(err).Warn("Startup reconciliation failed")
	}
	scheduler.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		scheduler.Stop(stopCtx)
	}()

	routerConfig := api.RouterConfig{
		ServiceName: serviceName,
		Logger:      logger,
		Metrics:     m,
		Tracing:     config.TracingEnabled,
		Ready:       store.HealthCheck,
	}
	if config.OpenAPIValidation {
		contract, err := openapi.NewValidatorFromBytes(api.OpenAPISpec)
		if err != nil {
			return err
		}
		routerConfig.Contract = contract
	}
	idem := idempotency.DefaultConfig(serviceName, idempotencyRepo)
	idem.Metrics = m
	idem.Logger = logger.Logger
	routerConfig.Idempotency = idem

	h := handlers.New(handlers.Services{
		Requests:  requestService,
		Items:     application.NewItemService(itemRepo, authorizer, nil, logger),
		Stock:     application.NewStockService(ledger, engine, itemRepo, authorizer),
		Movements: application.NewMovementService(movementLog),
	}, logger)
	router := api.NewRouter(h, routerConfig)

	srv := deps.newHTTPServer(config.ServerAddr, router)
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()
	logger.Info("Server started", "addr", config.ServerAddr)

	if signalCh == nil {
		signalCh = make(chan os.Signal, 1)
	}
	select {
	case <-signalCh:
	case <-ctx.Done():
	case err := <-serveErr:
		logger.WithError(err).Error("Server error")
		return err
	}
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server stopped")
	return nil
}

// buildDirectory prefers the remote directory and falls back to a static file
func buildDirectory(config *Config, logger *logging.Logger, m *metrics.Metrics) (application.Directory, error) {
	switch {
	case config.DirectoryURL != "":
		client := directory.NewHTTPClient(config.DirectoryURL, config.DirectoryTimeout)
		return directory.NewResilient(client, logger.Logger, m), nil
	case config.DirectoryFile != "":
		return directory.LoadStatic(config.DirectoryFile)
	}
	return nil, errors.New("no directory configured: set DIRECTORY_URL or DIRECTORY_FILE")
}
