package app

import (
	"context"
	"io"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/restful-oms/internal/config"
)

func testLogger() *log.Entry {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return log.NewEntry(logger)
}

func TestInitRuntimeDependencies_Memory(t *testing.T) {
	cfg := config.Default()

	deps, err := initRuntimeDependencies(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	defer deps.close()

	assert.NotNil(t, deps.users)
	assert.NotNil(t, deps.orders)
	assert.NotNil(t, deps.products)
	assert.NotNil(t, deps.catalog)
	assert.NotNil(t, deps.outboxRepo)
	assert.NotNil(t, deps.idempotencyRepo)
	assert.NoError(t, deps.ping(context.Background()))
}

func TestInitRuntimeDependencies_EmptyDriverFallsBackToMemory(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Driver = ""

	deps, err := initRuntimeDependencies(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	deps.close()
}

func TestInitRuntimeDependencies_UnsupportedDriver(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Driver = "mongo"

	_, err := initRuntimeDependencies(context.Background(), cfg, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported storage driver")
}

func TestInitRuntimeDependencies_PostgresRequiresDSN(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Driver = config.StorageDriverPostgres
	cfg.Postgres.DSN = "  "

	_, err := initRuntimeDependencies(context.Background(), cfg, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dsn is required")
}

func TestInitKafkaProducer_NoBrokers(t *testing.T) {
	producer, err := initKafkaProducer(nil, testLogger())
	require.NoError(t, err)
	assert.Nil(t, producer)

	closeKafka(nil, testLogger())
}
