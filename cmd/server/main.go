package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"audittrail/internal/audit"
	auditconsumer "audittrail/internal/audit/consumer"
	audithandler "audittrail/internal/audit/handler"
	"audittrail/internal/audit/metrics"
	memorystore "audittrail/internal/audit/store/memory"
	postgresstore "audittrail/internal/audit/store/postgres"
	redisstore "audittrail/internal/audit/store/redis"
	"audittrail/internal/platform/config"
	"audittrail/internal/platform/httpserver"
	kafkaconsumer "audittrail/internal/platform/kafka/consumer"
	"audittrail/internal/platform/logger"
	platformredis "audittrail/internal/platform/redis"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps
// the server lifecycle small. Business logic lives in internal/audit.
func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, cleanup, err := buildStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	m := metrics.New()
	ingestor := audit.NewIngestor(store, log, m)
	query := audit.NewQueryService(store, m)

	router := chi.NewRouter()
	audithandler.New(query, log).Register(router)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	router.Handle("/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting audit-trail server", "addr", cfg.Addr, "store", cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if len(cfg.KafkaBrokers) > 0 {
		handler := auditconsumer.NewHandler(ingestor, log)
		kc, err := kafkaconsumer.New(kafkaconsumer.Config{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
			Group:   cfg.KafkaGroup,
		}, handler, log)
		if err != nil {
			return err
		}
		defer kc.Close()

		if err := kc.EnsureTopic(ctx, cfg.KafkaTopic, 1); err != nil {
			return err
		}

		group.Go(func() error {
			log.Info("starting audit event consumer",
				"topic", cfg.KafkaTopic,
				"group", cfg.KafkaGroup,
			)
			return kc.Run(groupCtx)
		})
	} else {
		log.Warn("no kafka brokers configured, ingestion disabled")
	}

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

// buildStore selects the persistence backend from configuration. The
// returned cleanup closes backend connections on shutdown.
func buildStore(ctx context.Context, cfg config.Config, log *slog.Logger) (audit.Store, func(), error) {
	switch cfg.StoreBackend {
	case "postgres":
		db, err := sql.Open("pgx", cfg.PostgresURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("ping postgres: %w", err)
		}
		if err := postgresstore.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		return postgresstore.New(db), func() { db.Close() }, nil

	case "redis":
		client, err := platformredis.New(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return redisstore.New(client.Client), func() { client.Close() }, nil

	case "memory":
		log.Warn("using in-memory store, records will not survive restarts")
		return memorystore.New(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
