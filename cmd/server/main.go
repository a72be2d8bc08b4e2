package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"veracity/internal/platform/config"
	"veracity/internal/platform/httpserver"
	"veracity/internal/platform/logger"
	platformredis "veracity/internal/platform/redis"
	"veracity/internal/registry/events"
	"veracity/internal/registry/events/kafka"
	"veracity/internal/registry/handler"
	"veracity/internal/registry/metrics"
	"veracity/internal/registry/service"
	"veracity/internal/registry/store"
	"veracity/internal/registry/store/cache"
	"veracity/internal/registry/store/memory"
	"veracity/internal/registry/store/postgres"
	"veracity/internal/token"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx := context.Background()

	var ledger store.Store
	var db *sql.DB
	if cfg.PostgresDSN != "" {
		var err error
		db, err = sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("failed to open postgres", "error", err.Error())
			os.Exit(1)
		}
		pgStore := postgres.New(db)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			log.Error("failed to ensure schema", "error", err.Error())
			os.Exit(1)
		}
		ledger = pgStore
		log.Info("using postgres ledger store")
	} else {
		ledger = memory.New()
		log.Info("using in-memory ledger store")
	}

	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err.Error())
		os.Exit(1)
	}
	if redisClient != nil {
		ledger = cache.New(ledger, redisClient.Client, cfg.RecordCacheTTL, log)
		log.Info("record cache enabled", "ttl", cfg.RecordCacheTTL.String())
	}

	sink := events.Sink(events.Discard)
	var kafkaSink *kafka.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err = kafka.NewPublisher(ctx, cfg.KafkaBrokers, cfg.KafkaTopic, log)
		if err != nil {
			log.Error("failed to connect to kafka", "error", err.Error())
			os.Exit(1)
		}
		sink = kafkaSink
		log.Info("kafka event sink enabled", "topic", cfg.KafkaTopic)
	}

	// The service emits into the broker; a background worker drains a
	// subscription into the configured sink so Kafka produces stay off the
	// request path.
	broker := events.NewBroker()
	worker := events.NewWorker(sink, broker.Subscribe(256))
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		if err := worker.Run(ctx); err != nil {
			log.Error("event delivery stopped", "error", err.Error())
		}
	}()

	registry := service.New(ledger,
		service.WithLogger(log),
		service.WithEvents(broker),
		service.WithMetrics(metrics.New()),
	)
	tokens := token.NewService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)

	router := chi.NewRouter()
	handler.New(registry, log, tokens, cfg.AdminToken).Register(router)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				http.Error(w, "store unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				http.Error(w, "cache unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting veracity registry", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err.Error())
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err.Error())
	}
	// No requests are in flight past this point; closing the broker lets the
	// worker drain its subscription and exit.
	broker.Close()
	<-workerDone
	if kafkaSink != nil {
		kafkaSink.Close()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if db != nil {
		_ = db.Close()
	}
}
