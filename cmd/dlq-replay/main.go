package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/restful-oms/internal/messaging/kafka"
)

type options struct {
	brokers []string
	replay  kafka.ReplayConfig
}

type dependencies struct {
	client   kafka.OffsetClient
	source   kafka.PartitionSource
	producer kafka.MessageSender
	close    func()
}

var newDependencies = func(opts options) (dependencies, error) {
	consumerConfig := sarama.NewConfig()
	consumerConfig.Consumer.Return.Errors = true

	client, err := sarama.NewClient(opts.brokers, consumerConfig)
	if err != nil {
		return dependencies{}, fmt.Errorf("create kafka client: %w", err)
	}
	consumer, err := sarama.NewConsumerFromClient(client)
	if err != nil {
		_ = client.Close()
		return dependencies{}, fmt.Errorf("create kafka consumer: %w", err)
	}

	deps := dependencies{
		client: client,
		source: kafka.SaramaPartitionSource{Consumer: consumer},
	}
	var producer sarama.SyncProducer
	if opts.replay.Execute {
		producer, err = sarama.NewSyncProducer(opts.brokers, kafka.NewProducerConfig("oms-dlq-replay"))
		if err != nil {
			_ = consumer.Close()
			_ = client.Close()
			return dependencies{}, fmt.Errorf("create kafka producer: %w", err)
		}
		deps.producer = producer
	}

	deps.close = func() {
		if producer != nil {
			_ = producer.Close()
		}
		_ = consumer.Close()
		_ = client.Close()
	}
	return deps, nil
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)

	opts, err := parseOptions(os.Args[1:])
	if err != nil {
		fail("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		fail("dlq replay failed: %v", err)
	}
}

func parseOptions(args []string) (options, error) {
	var (
		brokersRaw string
		opts       options
	)

	fs := flag.NewFlagSet("dlq-replay", flag.ContinueOnError)
	fs.StringVar(&brokersRaw, "brokers", "", "Kafka brokers as comma-separated list (fallback: OMS_KAFKA_BROKERS)")
	fs.StringVar(&opts.replay.SourceTopic, "source-topic", kafka.TopicDeadLetterQueue, "DLQ source topic")
	fs.StringVar(&opts.replay.TargetTopic, "target-topic", kafka.TopicEntityEvents, "target topic for replay")
	fs.IntVar(&opts.replay.Limit, "limit", kafka.DefaultReplayLimit, "max number of messages to scan/replay")
	fs.BoolVar(&opts.replay.Execute, "execute", false, "execute replay; default is dry-run")
	fs.BoolVar(&opts.replay.FromNewest, "from-newest", false, "scan latest messages first (bounded by limit)")
	fs.DurationVar(&opts.replay.IdleTimeout, "idle-timeout", kafka.DefaultReplayIdleTimeout, "idle timeout per partition")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	if strings.TrimSpace(brokersRaw) == "" {
		brokersRaw = os.Getenv("OMS_KAFKA_BROKERS")
	}
	opts.brokers = parseBrokers(brokersRaw)
	if len(opts.brokers) == 0 {
		return options{}, fmt.Errorf("kafka brokers are required (-brokers or OMS_KAFKA_BROKERS)")
	}
	if err := opts.replay.Validate(); err != nil {
		return options{}, err
	}
	return opts, nil
}

func parseBrokers(raw string) []string {
	chunks := strings.Split(raw, ",")
	brokers := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if broker := strings.TrimSpace(chunk); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	return brokers
}

func run(ctx context.Context, opts options) error {
	logger := log.WithField("component", "dlq-replay")
	logger.WithFields(log.Fields{
		"source_topic": opts.replay.SourceTopic,
		"target_topic": opts.replay.TargetTopic,
		"limit":        opts.replay.Limit,
		"execute":      opts.replay.Execute,
		"from_newest":  opts.replay.FromNewest,
	}).Info("starting dlq replay")

	deps, err := newDependencies(opts)
	if err != nil {
		return err
	}
	if deps.close != nil {
		defer deps.close()
	}

	_, err = kafka.NewReplayer(opts.replay, deps.client, deps.source, deps.producer, logger).Run(ctx)
	return err
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
