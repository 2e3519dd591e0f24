package app

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/restful-oms/internal/config"
	"github.com/vladislavdragonenkov/restful-oms/internal/domain"
	"github.com/vladislavdragonenkov/restful-oms/internal/storage/memory"
	"github.com/vladislavdragonenkov/restful-oms/internal/storage/postgres"
)

// runtimeDependencies собирает хранилища выбранного драйвера.
type runtimeDependencies struct {
	users           domain.UserStore
	orders          domain.OrderStore
	products        domain.ProductStore
	catalog         domain.CatalogWriter
	outboxRepo      domain.OutboxRepository
	idempotencyRepo domain.IdempotencyRepository

	ping  func(ctx context.Context) error
	close func()
}

// initRuntimeDependencies открывает хранилище по cfg.Storage.Driver.
func initRuntimeDependencies(ctx context.Context, cfg config.Config, logger *log.Entry) (runtimeDependencies, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Storage.Driver)) {
	case "", config.StorageDriverMemory:
		catalog := memory.NewCatalogStore()
		logger.Info("using in-memory storage")
		return runtimeDependencies{
			users:           memory.NewUserStore(),
			orders:          memory.NewOrderStore(),
			products:        catalog,
			catalog:         catalog,
			outboxRepo:      memory.NewOutboxRepository(),
			idempotencyRepo: memory.NewIdempotencyRepository(),
			ping:            func(context.Context) error { return nil },
			close:           func() {},
		}, nil
	case config.StorageDriverPostgres:
		return initPostgres(ctx, cfg.Postgres, logger)
	default:
		return runtimeDependencies{}, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}

func initPostgres(ctx context.Context, cfg config.PostgresConfig, logger *log.Entry) (runtimeDependencies, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return runtimeDependencies{}, fmt.Errorf("postgres dsn is required")
	}

	store, err := postgres.Open(ctx, cfg.DSN, postgres.WithLogger(logger.WithField("layer", "storage")))
	if err != nil {
		return runtimeDependencies{}, err
	}
	if cfg.AutoMigrate {
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return runtimeDependencies{}, fmt.Errorf("apply migrations: %w", err)
		}
	}
	logger.Info("using postgres storage")

	catalog := postgres.NewCatalogStore(store)
	return runtimeDependencies{
		users:           postgres.NewUserStore(store),
		orders:          postgres.NewOrderStore(store),
		products:        catalog,
		catalog:         catalog,
		outboxRepo:      postgres.NewOutboxRepository(store),
		idempotencyRepo: postgres.NewIdempotencyRepository(store),
		ping:            store.Ping,
		close: func() {
			if err := store.Close(); err != nil {
				logger.WithError(err).Warn("failed to close postgres store")
			}
		},
	}, nil
}
