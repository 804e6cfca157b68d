package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/sourcevec/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/sourcevec/internal/dfcache"
	"github.com/Adithya-Monish-Kumar-K/sourcevec/internal/store"
	"github.com/Adithya-Monish-Kumar-K/sourcevec/internal/trigger"
	"github.com/Adithya-Monish-Kumar-K/sourcevec/internal/vector"
	"github.com/Adithya-Monish-Kumar-K/sourcevec/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/sourcevec/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/sourcevec/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/sourcevec/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/sourcevec/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/sourcevec/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/sourcevec/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/sourcevec/pkg/sqlite"
)

// sqlStore is the corpus store as opened from config.
type sqlStore interface {
	corpus.Store
	corpus.Saver
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
}

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	version := flag.String("version", "", "corpus version to index once and exit (default: consume index requests from kafka)")
	seedPath := flag.String("seed", "", "YAML corpus snapshot to load into the store before indexing")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}
	if *version == "" {
		*version = cfg.Indexer.Version
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting indexer service",
		"store", cfg.Store.Driver,
		"workers", cfg.Indexer.Workers,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open corpus store", "driver", cfg.Store.Driver, "error", err)
		return 1
	}
	defer closeStore()

	if *seedPath != "" {
		snap, err := corpus.LoadSnapshot(*seedPath)
		if err != nil {
			slog.Error("failed to load corpus snapshot", "path", *seedPath, "error", err)
			return 1
		}
		if err := snap.Seed(ctx, st); err != nil {
			slog.Error("failed to seed corpus store", "path", *seedPath, "error", err)
			return 1
		}
		slog.Info("corpus snapshot seeded", "version", snap.Version, "files", len(snap.Files))
		if *version == "" {
			*version = snap.Version
		}
	}

	checker := health.NewChecker()
	checker.Register("store", health.PingCheck(st.Ping, health.StatusDown))

	opts := vector.Options{Workers: cfg.Indexer.Workers}
	if cfg.Redis.Enabled {
		rc, err := pkgredis.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, df tables will not be published", "addr", cfg.Redis.Addr, "error", err)
		} else {
			defer rc.Close()
			opts.Publisher = dfcache.Guard(dfcache.New(rc, cfg.Redis), cfg.Redis)
			checker.Register("redis", health.PingCheck(rc.Ping, health.StatusDegraded))
		}
	}
	if cfg.Metrics.Enabled {
		opts.Metrics = metrics.New(nil)
		shutdown := metrics.StartServer(cfg.Metrics.Port, checker)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(shutdownCtx)
		}()
	}
	ix := vector.New(st, opts)

	if *version != "" {
		return runOnce(ctx, ix, *version)
	}
	if !cfg.Kafka.Enabled {
		slog.Error("no corpus version to index: pass -version or enable kafka")
		return 2
	}

	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.IndexComplete)
	defer producer.Close()

	kafkaConsumer := kafka.NewConsumer(
		cfg.Kafka,
		cfg.Kafka.Topics.IndexRequest,
		trigger.HandleIndexRequest(ix, producer),
	)
	defer kafkaConsumer.Close()
	requests := trigger.New(kafkaConsumer)

	slog.Info("indexer service ready, consuming from kafka",
		"topic", cfg.Kafka.Topics.IndexRequest,
		"group", cfg.Kafka.ConsumerGroup,
	)
	if err := requests.Start(ctx); err != nil {
		slog.Error("consumer error", "error", err)
		return 1
	}
	slog.Info("indexer service stopped")
	return 0
}

func openStore(ctx context.Context, cfg *config.Config) (sqlStore, func(), error) {
	var (
		st      sqlStore
		closeDB func() error
	)
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		client, err := postgres.New(cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		st, closeDB = store.NewPostgres(client), client.Close
		slog.Info("corpus store opened", "driver", config.DriverPostgres, "database", client.Database())
	default:
		client, err := sqlite.New(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		st, closeDB = store.NewSQLite(client), client.Close
		slog.Info("corpus store opened", "driver", config.DriverSQLite, "path", client.Path())
	}
	closeFn := func() {
		if err := closeDB(); err != nil {
			slog.Error("closing corpus store", "error", err)
		}
	}
	if err := st.Migrate(ctx); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("migrating corpus store: %w", err)
	}
	return st, closeFn, nil
}

// runOnce indexes version and prints the report as JSON. It returns the
// process exit code.
func runOnce(ctx context.Context, ix *vector.Indexer, version string) int {
	report, err := ix.Run(ctx, version)
	if report != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(report); encErr != nil {
			slog.Error("failed to write report", "error", encErr)
		}
	}
	if err != nil {
		return 1
	}
	return 0
}
