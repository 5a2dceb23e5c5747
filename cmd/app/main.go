package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atvirokodosprendimai/switchcore/internal/app"
	"github.com/atvirokodosprendimai/switchcore/internal/core/domain"
	"github.com/atvirokodosprendimai/switchcore/internal/logger"
	"github.com/atvirokodosprendimai/switchcore/migrations"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

func main() {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	cmd := &cli.Command{
		Name:  "switchcore",
		Usage: "Payment mandate store with API event capture",
		Flags: append(dbFlags(), logFlags()...),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			sampleN, err := logSampleN(c.Uint("log-sample-n"))
			if err != nil {
				return ctx, err
			}
			logger.Init(logger.Config{
				LogLevel:    c.String("log-level"),
				LogPretty:   c.Bool("log-pretty"),
				ServiceName: c.String("service-name"),
				InstanceID:  c.String("instance-id"),
				LogSampleN:  sampleN,
			})
			return ctx, nil
		},
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			flowsCommand(),
		},
		DefaultCommand: "serve",
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("switchcore exited")
	}
}

func logSampleN(n uint) (uint32, error) {
	if uint64(n) > math.MaxUint32 {
		return 0, fmt.Errorf("log-sample-n %d exceeds %d", n, uint32(math.MaxUint32))
	}
	return uint32(n), nil
}

func dbFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "db-driver",
			Value:   "sqlite",
			Sources: cli.EnvVars("SWITCHCORE_DB_DRIVER"),
			Usage:   "Database driver: sqlite or postgres",
		},
		&cli.StringFlag{
			Name:    "db-path",
			Value:   "./switchcore.sqlite",
			Sources: cli.EnvVars("SWITCHCORE_DB_PATH"),
			Usage:   "SQLite file path",
		},
		&cli.StringFlag{
			Name:    "db-dsn",
			Sources: cli.EnvVars("SWITCHCORE_DB_DSN", "DATABASE_URL"),
			Usage:   "Postgres DSN",
		},
	}
}

func logFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "info",
			Sources: cli.EnvVars("SWITCHCORE_LOG_LEVEL"),
		},
		&cli.BoolFlag{
			Name:    "log-pretty",
			Sources: cli.EnvVars("SWITCHCORE_LOG_PRETTY"),
			Usage:   "Human readable console logs",
		},
		&cli.UintFlag{
			Name:    "log-sample-n",
			Sources: cli.EnvVars("SWITCHCORE_LOG_SAMPLE_N"),
			Usage:   "Keep one in N debug/info lines (0 or 1 keeps all)",
		},
		&cli.StringFlag{
			Name:    "service-name",
			Value:   "switchcore",
			Sources: cli.EnvVars("SWITCHCORE_SERVICE_NAME"),
		},
		&cli.StringFlag{
			Name:    "instance-id",
			Sources: cli.EnvVars("SWITCHCORE_INSTANCE_ID", "HOSTNAME"),
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Value:   ":8080",
				Sources: cli.EnvVars("SWITCHCORE_ADDR"),
				Usage:   "HTTP listen address",
			},
			&cli.StringFlag{
				Name:    "schema-generation",
				Value:   "1",
				Sources: cli.EnvVars("SWITCHCORE_SCHEMA_GENERATION"),
				Usage:   "Customer identity generation: 1 (merchant scoped) or 2 (global)",
			},
			&cli.StringFlag{
				Name:    "transition-policy",
				Sources: cli.EnvVars("SWITCHCORE_TRANSITION_POLICY"),
				Usage:   `Allowed status transitions, e.g. "active=pending;revoked=pending,active"`,
			},
			&cli.StringFlag{
				Name:    "bootstrap-api-key",
				Sources: cli.EnvVars("SWITCHCORE_BOOTSTRAP_API_KEY"),
				Usage:   "Optional API key to upsert at startup",
			},
			&cli.StringFlag{
				Name:    "bootstrap-tenant",
				Value:   "public",
				Sources: cli.EnvVars("SWITCHCORE_BOOTSTRAP_TENANT"),
			},
			&cli.StringFlag{
				Name:    "bootstrap-merchant",
				Sources: cli.EnvVars("SWITCHCORE_BOOTSTRAP_MERCHANT"),
				Usage:   "Merchant the bootstrap API key acts for",
			},
			&cli.StringFlag{
				Name:    "bootstrap-key-name",
				Value:   "bootstrap",
				Sources: cli.EnvVars("SWITCHCORE_BOOTSTRAP_KEY_NAME"),
			},
			&cli.StringFlag{
				Name:    "event-sink",
				Value:   app.SinkAuto,
				Sources: cli.EnvVars("SWITCHCORE_EVENT_SINK"),
				Usage:   "auto, kafka, amqp, s3, webhook or log",
			},
			&cli.StringFlag{
				Name:    "event-topic",
				Value:   "api_events",
				Sources: cli.EnvVars("SWITCHCORE_EVENT_TOPIC", "SWITCHCORE_KAFKA_TOPIC"),
			},
			&cli.IntFlag{
				Name:    "event-queue-size",
				Value:   1024,
				Sources: cli.EnvVars("SWITCHCORE_EVENT_QUEUE_SIZE"),
			},
			&cli.IntFlag{
				Name:    "event-workers",
				Value:   2,
				Sources: cli.EnvVars("SWITCHCORE_EVENT_WORKERS"),
			},
			&cli.DurationFlag{
				Name:    "event-publish-timeout",
				Value:   5 * time.Second,
				Sources: cli.EnvVars("SWITCHCORE_EVENT_PUBLISH_TIMEOUT"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Sources: cli.EnvVars("SWITCHCORE_KAFKA_BROKERS"),
				Usage:   "Comma separated broker list",
			},
			&cli.StringFlag{
				Name:    "amqp-url",
				Sources: cli.EnvVars("SWITCHCORE_AMQP_URL"),
			},
			&cli.StringFlag{
				Name:    "amqp-queue",
				Value:   "api_events",
				Sources: cli.EnvVars("SWITCHCORE_AMQP_QUEUE"),
			},
			&cli.StringFlag{
				Name:    "s3-bucket",
				Sources: cli.EnvVars("SWITCHCORE_S3_BUCKET"),
			},
			&cli.StringFlag{
				Name:    "s3-prefix",
				Value:   "api-events",
				Sources: cli.EnvVars("SWITCHCORE_S3_PREFIX"),
			},
			&cli.StringFlag{
				Name:    "aws-region",
				Value:   "eu-central-1",
				Sources: cli.EnvVars("AWS_REGION"),
			},
			&cli.StringFlag{
				Name:    "webhook-url",
				Sources: cli.EnvVars("SWITCHCORE_WEBHOOK_URL"),
				Usage:   "Api event webhook target URL",
			},
			&cli.StringFlag{
				Name:    "webhook-secret",
				Sources: cli.EnvVars("SWITCHCORE_WEBHOOK_SECRET"),
				Usage:   "HMAC-SHA256 signing secret for webhook requests",
			},
			&cli.BoolFlag{
				Name:    "webhook-gzip",
				Sources: cli.EnvVars("SWITCHCORE_WEBHOOK_GZIP"),
				Usage:   "Gzip webhook request bodies",
			},
		},
		Action: serve,
	}
}

func serve(ctx context.Context, c *cli.Command) error {
	gen, err := domain.ParseSchemaGeneration(c.String("schema-generation"))
	if err != nil {
		return err
	}
	policy, err := domain.ParseTransitionPolicy(c.String("transition-policy"))
	if err != nil {
		return err
	}

	cfg := app.Config{
		Addr:                c.String("addr"),
		DBDriver:            c.String("db-driver"),
		DBPath:              c.String("db-path"),
		DBDSN:               c.String("db-dsn"),
		SchemaGeneration:    gen,
		TransitionPolicy:    policy,
		BootstrapAPIKey:     c.String("bootstrap-api-key"),
		BootstrapTenant:     c.String("bootstrap-tenant"),
		BootstrapMerchant:   c.String("bootstrap-merchant"),
		BootstrapKeyName:    c.String("bootstrap-key-name"),
		EventSink:           c.String("event-sink"),
		EventTopic:          c.String("event-topic"),
		EventQueueSize:      int(c.Int("event-queue-size")),
		EventWorkers:        int(c.Int("event-workers")),
		EventPublishTimeout: c.Duration("event-publish-timeout"),
		KafkaBrokers:        c.String("kafka-brokers"),
		AMQPURL:             c.String("amqp-url"),
		AMQPQueue:           c.String("amqp-queue"),
		S3Bucket:            c.String("s3-bucket"),
		S3Prefix:            c.String("s3-prefix"),
		AWSRegion:           c.String("aws-region"),
		WebhookURL:          c.String("webhook-url"),
		WebhookSecret:       c.String("webhook-secret"),
		WebhookGzip:         c.Bool("webhook-gzip"),
		ServiceName:         c.String("service-name"),
		InstanceID:          c.String("instance-id"),
	}

	server, closer, err := app.NewServer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	defer func() {
		if closeErr := closer.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("close resources")
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("listening")
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-ctx.Done():
		return shutdown(server)
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		return shutdown(server)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func shutdown(server *http.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply database migrations and exit",
		Action: func(ctx context.Context, c *cli.Command) error {
			db, err := app.OpenDB(ctx, app.Config{
				DBDriver: c.String("db-driver"),
				DBPath:   c.String("db-path"),
				DBDSN:    c.String("db-dsn"),
			})
			if err != nil {
				return err
			}
			defer db.Close()

			sqlDB, err := db.WriteSQLDB()
			if err != nil {
				return err
			}
			version, err := migrations.Version(ctx, sqlDB, db.Dialect)
			if err != nil {
				return err
			}
			log.Info().Int64("version", version).Str("db_driver", db.Dialect).Msg("migrations applied")
			return nil
		},
	}
}

func flowsCommand() *cli.Command {
	return &cli.Command{
		Name:  "flows",
		Usage: "Print every api flow name",
		Action: func(_ context.Context, c *cli.Command) error {
			for _, f := range domain.AllFlows() {
				if _, err := fmt.Fprintln(c.Root().Writer, f.String()); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
