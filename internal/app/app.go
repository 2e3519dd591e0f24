// Package app собирает зависимости OMS и управляет жизненным циклом серверов.
package app

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/restful-oms/internal/catalog"
	"github.com/vladislavdragonenkov/restful-oms/internal/config"
	"github.com/vladislavdragonenkov/restful-oms/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/restful-oms/internal/health"
	"github.com/vladislavdragonenkov/restful-oms/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/restful-oms/internal/metrics"
	"github.com/vladislavdragonenkov/restful-oms/internal/service/idempotency"
	"github.com/vladislavdragonenkov/restful-oms/internal/service/order"
	"github.com/vladislavdragonenkov/restful-oms/internal/service/outbox"
	"github.com/vladislavdragonenkov/restful-oms/internal/service/product"
	"github.com/vladislavdragonenkov/restful-oms/internal/service/user"
	"github.com/vladislavdragonenkov/restful-oms/internal/transport/httpapi"
	"github.com/vladislavdragonenkov/restful-oms/internal/version"
)

// outboxBacklogThreshold — возраст самого старого pending-события,
// после которого outbox считается деградировавшим.
const outboxBacklogThreshold = 5 * time.Minute

// application — собранный сервис до запуска серверов.
type application struct {
	cfg    config.Config
	logger *log.Entry

	deps     runtimeDependencies
	api      http.Handler
	health   *healthcheck.Handler
	producer *kafka.Producer

	workers []func(ctx context.Context)
}

// newApplication инициализирует хранилище, сервисы, роутер и фоновые воркеры.
func newApplication(ctx context.Context, cfg config.Config, logger *log.Entry) (*application, error) {
	deps, err := initRuntimeDependencies(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	if cfg.Storage.SeedCatalog && cfg.Storage.Driver != config.StorageDriverPostgres {
		if _, err := catalog.Seed(ctx, deps.catalog, catalog.Demo, logger.WithField("layer", "seed")); err != nil {
			deps.close()
			return nil, fmt.Errorf("seed catalog: %w", err)
		}
	}

	entityMetrics := metrics.NewEntityMetrics(nil)
	recorder := outbox.NewRecorder(deps.outboxRepo, logger.WithField("layer", "outbox"))

	users := user.NewService(deps.users,
		user.WithLogger(logger.WithField("layer", "service")),
		user.WithOutbox(recorder),
		user.WithMetrics(entityMetrics),
	)
	orders := order.NewService(deps.orders,
		order.WithLogger(logger.WithField("layer", "service")),
		order.WithOutbox(recorder),
		order.WithMetrics(entityMetrics),
	)
	products := product.NewService(deps.products, logger.WithField("layer", "service"), entityMetrics)

	guard := idempotency.NewGuard(deps.idempotencyRepo, cfg.Idempotency.TTL, logger.WithField("layer", "idempotency"))
	api := httpapi.NewRouter(
		httpapi.Services{Users: users, Orders: orders, Products: products},
		httpapi.WithLogger(logger.WithField("layer", "http")),
		httpapi.WithMetrics(metrics.NewHTTPMetrics(nil)),
		httpapi.WithIdempotency(guard),
		httpapi.WithRequestTimeout(cfg.HTTP.RequestTimeout),
	)

	app := &application{
		cfg:    cfg,
		logger: logger,
		deps:   deps,
		api:    api,
		health: healthcheck.NewHandler(version.GetVersion(), healthcheck.WithStorage(cfg.Storage.Driver)),
	}
	app.health.RegisterChecker("storage", healthcheck.NewSimpleChecker("storage", deps.ping))
	app.health.RegisterChecker("outbox", healthcheck.NewDegradedChecker("outbox", outboxBacklogCheck(deps.outboxRepo)))

	cleanup := idempotency.NewCleanupWorker(deps.idempotencyRepo,
		idempotency.WithLogger(logger.WithField("layer", "idempotency")),
		idempotency.WithMetrics(metrics.NewCleanupMetrics(nil)),
		idempotency.WithInterval(cfg.Idempotency.CleanupInterval),
		idempotency.WithBatchSize(cfg.Idempotency.CleanupBatchSize),
	)
	app.workers = append(app.workers, cleanup.Run)

	if cfg.Kafka.Enabled() {
		producer, err := initKafkaProducer(cfg.Kafka.Brokers, logger)
		if err == nil && producer != nil {
			app.producer = producer
			worker := newOutboxWorker(cfg, deps.outboxRepo, producer, logger)
			app.workers = append(app.workers, worker.Run)
		}
	} else {
		logger.Info("kafka brokers not configured, outbox events stay pending")
	}

	return app, nil
}

// newOutboxWorker публикует outbox в cfg.Kafka.Topic, исчерпавшие попытки уходят в DLQ.
func newOutboxWorker(cfg config.Config, repo domain.OutboxRepository, producer *kafka.Producer, logger *log.Entry) *outbox.Worker {
	return outbox.NewWorker(repo, kafka.NewOutboxPublisher(producer, cfg.Kafka.Topic),
		outbox.WithLogger(logger.WithField("layer", "outbox")),
		outbox.WithMetrics(metrics.NewOutboxMetrics(nil)),
		outbox.WithDLQPublisher(kafka.NewOutboxPublisher(producer, cfg.Kafka.DLQTopic)),
		outbox.WithPollInterval(cfg.Outbox.PollInterval),
		outbox.WithBatchSize(cfg.Outbox.BatchSize),
		outbox.WithMaxAttempts(cfg.Outbox.MaxAttempts),
		outbox.WithRetryBaseDelay(cfg.Outbox.RetryDelay),
	)
}

// outboxBacklogCheck сообщает об ошибке, если backlog слишком старый.
func outboxBacklogCheck(repo domain.OutboxRepository) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		stats, err := repo.Stats(ctx)
		if err != nil {
			return err
		}
		if stats.PendingCount > 0 && time.Since(stats.OldestPendingAt) > outboxBacklogThreshold {
			return fmt.Errorf("%d pending events, oldest since %s", stats.PendingCount, stats.OldestPendingAt.Format(time.RFC3339))
		}
		return nil
	}
}

// close освобождает producer и хранилище.
func (a *application) close() {
	closeKafka(a.producer, a.logger)
	a.deps.close()
}

// Run запускает OMS и блокируется до отмены ctx или фатальной ошибки сервера.
func Run(ctx context.Context, cfg config.Config) error {
	logger := log.WithField("component", "oms")
	logger.WithFields(log.Fields{
		"version": version.GetVersion(),
		"commit":  version.GetCommit(),
		"storage": cfg.Storage.Driver,
	}).Info("starting restful-oms")

	app, err := newApplication(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.close()

	_, err = app.serve(ctx, nil)
	return err
}

// listeners хранит фактические адреса запущенных серверов.
type listeners struct {
	api     net.Addr
	metrics net.Addr
	grpc    net.Addr
}

// serve поднимает серверы и воркеры. ready, если не nil, получает адреса
// сразу после старта. Возвращает ctx.Err() при штатной остановке.
func (a *application) serve(ctx context.Context, ready chan<- listeners) (listeners, error) {
	var addrs listeners
	errCh := make(chan error, 3)

	metricsSrv, metricsAddr, err := startMetricsServer(a.cfg.Metrics.Addr, a.logger, a.health, errCh)
	if err != nil {
		return addrs, err
	}
	addrs.metrics = metricsAddr
	defer shutdownHTTP(metricsSrv, a.cfg.HTTP.ShutdownTimeout, a.logger)

	var grpcSrv *grpcHealth
	if a.cfg.GRPC.Addr != "" {
		grpcSrv, err = startGRPCHealthServer(a.cfg.GRPC.Addr, a.logger, errCh)
		if err != nil {
			return addrs, err
		}
		addrs.grpc = grpcSrv.addr
		defer grpcSrv.stop(a.cfg.HTTP.ShutdownTimeout, a.logger)
	}

	apiSrv, apiAddr, err := serveHTTP("api", a.cfg.HTTP.Addr, a.api, a.logger, errCh)
	if err != nil {
		return addrs, err
	}
	addrs.api = apiAddr

	workerCtx, stopWorkers := context.WithCancel(ctx)
	var wg sync.WaitGroup
	for _, run := range a.workers {
		wg.Add(1)
		go func(run func(context.Context)) {
			defer wg.Done()
			run(workerCtx)
		}(run)
	}

	if ready != nil {
		ready <- addrs
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
		runErr = ctx.Err()
	case err := <-errCh:
		a.logger.WithError(err).Error("server failed")
		runErr = err
	}

	shutdownHTTP(apiSrv, a.cfg.HTTP.ShutdownTimeout, a.logger)
	stopWorkers()
	wg.Wait()
	a.logger.Info("restful-oms stopped")
	return addrs, runErr
}
