package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/atvirokodosprendimai/switchcore/internal/adapters/events"
	"github.com/atvirokodosprendimai/switchcore/internal/adapters/gormdb"
	"github.com/atvirokodosprendimai/switchcore/internal/adapters/httpapi"
	"github.com/atvirokodosprendimai/switchcore/internal/adapters/store"
	"github.com/atvirokodosprendimai/switchcore/internal/core/domain"
	"github.com/atvirokodosprendimai/switchcore/internal/core/ports"
	"github.com/atvirokodosprendimai/switchcore/internal/core/usecase"
	"github.com/atvirokodosprendimai/switchcore/migrations"
	"github.com/rs/zerolog/log"
)

const (
	SinkAuto    = "auto"
	SinkKafka   = "kafka"
	SinkAMQP    = "amqp"
	SinkS3      = "s3"
	SinkWebhook = "webhook"
	SinkLog     = "log"
)

type Config struct {
	Addr             string
	DBDriver         string
	DBPath           string
	DBDSN            string
	SchemaGeneration domain.SchemaGeneration
	TransitionPolicy domain.TransitionPolicy

	BootstrapAPIKey   string
	BootstrapTenant   string
	BootstrapMerchant string
	BootstrapKeyName  string

	EventSink           string
	EventTopic          string
	EventQueueSize      int
	EventWorkers        int
	EventPublishTimeout time.Duration

	KafkaBrokers  string
	AMQPURL       string
	AMQPQueue     string
	S3Bucket      string
	S3Prefix      string
	AWSRegion     string
	WebhookURL    string
	WebhookSecret string
	WebhookGzip   bool

	ServiceName string
	InstanceID  string
}

type resourceCloser struct {
	closers []io.Closer
}

// Close runs closers in order and reports the first failure.
func (r resourceCloser) Close() error {
	var firstErr error
	for _, c := range r.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// OpenDB opens the configured database and applies migrations.
func OpenDB(ctx context.Context, cfg Config) (*gormdb.DB, error) {
	target := cfg.DBPath
	if cfg.DBDriver == gormdb.DialectPostgres {
		target = cfg.DBDSN
	}
	db, err := gormdb.Open(cfg.DBDriver, target)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.DBDriver, err)
	}

	writeSQLDB, err := db.WriteSQLDB()
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("resolve writer sql db: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := migrations.Up(ctx, writeSQLDB, db.Dialect); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func NewServer(ctx context.Context, cfg Config) (*http.Server, io.Closer, error) {
	db, err := OpenDB(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	sink, sinkCloser, err := newEventSink(ctx, cfg)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	mandateStore := store.NewMandateStore(db)
	apiKeyRepo := store.NewAPIKeyRepository(db)
	configRepo := store.NewConfigRepository(db)

	mandates := usecase.NewMandateService(mandateStore, usecase.MandateConfig{
		Generation: cfg.SchemaGeneration,
		Policy:     cfg.TransitionPolicy,
	})
	configs := usecase.NewConfigService(configRepo)
	auth := usecase.NewAuthService(apiKeyRepo)

	dispatcher := usecase.NewEventDispatcher(sink, usecase.EventDispatcherConfig{
		Topic:          cfg.EventTopic,
		QueueSize:      cfg.EventQueueSize,
		Workers:        cfg.EventWorkers,
		PublishTimeout: cfg.EventPublishTimeout,
	})
	dispatcher.Start(context.Background())

	// The dispatcher drains into the sink, so it closes before the sink.
	closer := resourceCloser{closers: []io.Closer{dispatcher, sinkCloser, db}}

	if cfg.BootstrapAPIKey != "" {
		bootstrapCtx, bootstrapCancel := context.WithTimeout(ctx, 5*time.Second)
		err := auth.Bootstrap(bootstrapCtx, usecase.BootstrapKey{
			Token:      cfg.BootstrapAPIKey,
			TenantID:   cfg.BootstrapTenant,
			MerchantID: cfg.BootstrapMerchant,
			Name:       cfg.BootstrapKeyName,
		})
		bootstrapCancel()
		if err != nil {
			_ = closer.Close()
			return nil, nil, fmt.Errorf("bootstrap api key: %w", err)
		}
	}

	handler := httpapi.NewHandler(httpapi.Services{
		Mandates: mandates,
		Configs:  configs,
		Auth:     auth,
		Builder:  usecase.NewEventBuilder(nil),
		Events:   dispatcher,
		Metrics: func() string {
			return dispatcher.Metrics().String()
		},
		InfraComponents: infraComponents(cfg, mandates.Generation()),
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info().
		Str("db_driver", db.Dialect).
		Str("schema_generation", mandates.Generation().String()).
		Str("event_sink", sinkName(sink)).
		Msg("server configured")

	return server, closer, nil
}

// newEventSink resolves the configured sink. In auto mode the first sink whose
// settings are present wins, in the order kafka, amqp, s3, webhook, log.
func newEventSink(ctx context.Context, cfg Config) (ports.EventSink, io.Closer, error) {
	kind := strings.ToLower(strings.TrimSpace(cfg.EventSink))
	if kind == "" || kind == SinkAuto {
		kind = autoSink(cfg)
	}

	switch kind {
	case SinkKafka:
		brokers := events.SplitBrokers(cfg.KafkaBrokers)
		if len(brokers) == 0 {
			return nil, nil, errors.New("kafka sink: no brokers configured")
		}
		sink := events.NewKafkaSink(brokers)
		return sink, sink, nil
	case SinkAMQP:
		if cfg.AMQPURL == "" {
			return nil, nil, errors.New("amqp sink: no url configured")
		}
		sink, err := events.DialAMQPSink(cfg.AMQPURL, cfg.AMQPQueue)
		if err != nil {
			return nil, nil, err
		}
		return sink, sink, nil
	case SinkS3:
		if cfg.S3Bucket == "" {
			return nil, nil, errors.New("s3 sink: no bucket configured")
		}
		sink, err := events.NewS3ArchiveSink(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
		if err != nil {
			return nil, nil, err
		}
		return sink, nil, nil
	case SinkWebhook:
		if cfg.WebhookURL == "" {
			return nil, nil, errors.New("webhook sink: no url configured")
		}
		return events.NewWebhookSink(cfg.WebhookURL, cfg.WebhookSecret, cfg.EventPublishTimeout, cfg.WebhookGzip), nil, nil
	case SinkLog:
		return events.NewLogSink(log.Logger), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown event sink %q", cfg.EventSink)
	}
}

func autoSink(cfg Config) string {
	switch {
	case cfg.KafkaBrokers != "":
		return SinkKafka
	case cfg.AMQPURL != "":
		return SinkAMQP
	case cfg.S3Bucket != "":
		return SinkS3
	case cfg.WebhookURL != "":
		return SinkWebhook
	default:
		return SinkLog
	}
}

func sinkName(sink ports.EventSink) string {
	switch sink.(type) {
	case *events.KafkaSink:
		return SinkKafka
	case *events.AMQPSink:
		return SinkAMQP
	case *events.S3ArchiveSink:
		return SinkS3
	case *events.WebhookSink:
		return SinkWebhook
	default:
		return SinkLog
	}
}

func infraComponents(cfg Config, gen domain.SchemaGeneration) map[string]any {
	instance := cfg.InstanceID
	if instance == "" {
		instance, _ = os.Hostname()
	}
	return map[string]any{
		"service":           cfg.ServiceName,
		"instance":          instance,
		"schema_generation": gen.String(),
	}
}
