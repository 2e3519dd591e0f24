package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	envPrefix  = "OMS"
	envFileVar = "OMS_CONFIG_FILE"
)

// ErrInvalid оборачивает все ошибки проверки конфигурации.
var ErrInvalid = errors.New("config validation failed")

// Load читает конфигурацию: значения по умолчанию, затем файл из OMS_CONFIG_FILE
// (если задан), затем переменные окружения OMS_<SECTION>_<KEY>.
func Load() (Config, error) {
	return LoadFile(os.Getenv(envFileVar))
}

// LoadFile — как Load, но с явным путём к файлу; пустой путь пропускает чтение файла.
func LoadFile(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path = strings.TrimSpace(path); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Kafka.Brokers = normalizeList(cfg.Kafka.Brokers)
	cfg.Storage.Driver = normalizeDriver(cfg.Storage.Driver)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate проверяет теги validate и связки полей между секциями.
func (c Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.Storage.Driver == StorageDriverPostgres && strings.TrimSpace(c.Postgres.DSN) == "" {
		return fmt.Errorf("%w: postgres.dsn is required for storage.driver=postgres", ErrInvalid)
	}
	return nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("http.addr", d.HTTP.Addr)
	v.SetDefault("http.request_timeout", d.HTTP.RequestTimeout)
	v.SetDefault("http.shutdown_timeout", d.HTTP.ShutdownTimeout)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
	v.SetDefault("grpc.addr", d.GRPC.Addr)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.seed_catalog", d.Storage.SeedCatalog)
	v.SetDefault("postgres.dsn", d.Postgres.DSN)
	v.SetDefault("postgres.auto_migrate", d.Postgres.AutoMigrate)
	v.SetDefault("kafka.brokers", d.Kafka.Brokers)
	v.SetDefault("kafka.topic", d.Kafka.Topic)
	v.SetDefault("kafka.dlq_topic", d.Kafka.DLQTopic)
	v.SetDefault("outbox.poll_interval", d.Outbox.PollInterval)
	v.SetDefault("outbox.batch_size", d.Outbox.BatchSize)
	v.SetDefault("outbox.max_attempts", d.Outbox.MaxAttempts)
	v.SetDefault("outbox.retry_delay", d.Outbox.RetryDelay)
	v.SetDefault("idempotency.ttl", d.Idempotency.TTL)
	v.SetDefault("idempotency.cleanup_interval", d.Idempotency.CleanupInterval)
	v.SetDefault("idempotency.cleanup_batch_size", d.Idempotency.CleanupBatchSize)
}

// normalizeDriver приводит имя драйвера к нижнему регистру; пустое значение означает memory.
func normalizeDriver(driver string) string {
	driver = strings.ToLower(strings.TrimSpace(driver))
	if driver == "" {
		return StorageDriverMemory
	}
	return driver
}

func normalizeList(values []string) []string {
	result := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				result = append(result, part)
			}
		}
	}
	return result
}
