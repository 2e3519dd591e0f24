// Package config собирает настройки сервиса из значений по умолчанию,
// необязательного YAML-файла и переменных окружения с префиксом OMS_.
package config

import "time"

// Драйверы хранилища.
const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"
)

// Config — полная конфигурация oms-server.
type Config struct {
	HTTP        HTTPConfig        `mapstructure:"http"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	GRPC        GRPCConfig        `mapstructure:"grpc"`
	Log         LogConfig         `mapstructure:"log"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Postgres    PostgresConfig    `mapstructure:"postgres"`
	Kafka       KafkaConfig       `mapstructure:"kafka"`
	Outbox      OutboxConfig      `mapstructure:"outbox"`
	Idempotency IdempotencyConfig `mapstructure:"idempotency"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr" validate:"required"`
}

// GRPCConfig — адрес gRPC health-сервера; пустая строка отключает его.
type GRPCConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=trace debug info warn warning error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=memory postgres"`
	// SeedCatalog наполняет каталог демо-товарами при старте.
	SeedCatalog bool `mapstructure:"seed_catalog"`
}

type PostgresConfig struct {
	DSN         string `mapstructure:"dsn"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

// KafkaConfig — без брокеров outbox worker не запускается.
type KafkaConfig struct {
	Brokers  []string `mapstructure:"brokers" validate:"dive,required"`
	Topic    string   `mapstructure:"topic" validate:"required"`
	DLQTopic string   `mapstructure:"dlq_topic" validate:"required"`
}

// Enabled сообщает, настроен ли брокер.
func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

type OutboxConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"gt=0"`
	BatchSize    int           `mapstructure:"batch_size" validate:"gt=0"`
	MaxAttempts  int           `mapstructure:"max_attempts" validate:"gt=0"`
	RetryDelay   time.Duration `mapstructure:"retry_delay" validate:"gte=0"`
}

type IdempotencyConfig struct {
	TTL              time.Duration `mapstructure:"ttl" validate:"gt=0"`
	CleanupInterval  time.Duration `mapstructure:"cleanup_interval" validate:"gt=0"`
	CleanupBatchSize int           `mapstructure:"cleanup_batch_size" validate:"gt=0"`
}

// Default возвращает конфигурацию для локального запуска без внешних зависимостей.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:            ":8080",
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Metrics: MetricsConfig{Addr: ":9090"},
		Log:     LogConfig{Level: "info", Format: "text"},
		Storage: StorageConfig{Driver: StorageDriverMemory, SeedCatalog: true},
		Postgres: PostgresConfig{
			AutoMigrate: true,
		},
		Kafka: KafkaConfig{
			Brokers:  []string{},
			Topic:    "oms.entity.events",
			DLQTopic: "oms.dlq",
		},
		Outbox: OutboxConfig{
			PollInterval: time.Second,
			BatchSize:    100,
			MaxAttempts:  3,
			RetryDelay:   50 * time.Millisecond,
		},
		Idempotency: IdempotencyConfig{
			TTL:              24 * time.Hour,
			CleanupInterval:  time.Minute,
			CleanupBatchSize: 500,
		},
	}
}
