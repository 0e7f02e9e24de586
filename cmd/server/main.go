// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal packages; backends left unconfigured
// fall back to in-memory implementations so the binary runs standalone.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"syncgate/internal/platform/config"
	"syncgate/internal/platform/httpserver"
	"syncgate/internal/platform/logger"
	"syncgate/internal/platform/postgres"
	platformredis "syncgate/internal/platform/redis"
	"syncgate/internal/statemachine"
	"syncgate/internal/sync/handler"
	syncmetrics "syncgate/internal/sync/metrics"
	"syncgate/internal/sync/ports"
	"syncgate/internal/sync/service"
	"syncgate/internal/sync/store/dedupe"
	"syncgate/internal/sync/store/domaincfg"
	"syncgate/internal/sync/store/record"
	audit "syncgate/pkg/platform/audit"
	auditkafka "syncgate/pkg/platform/audit/kafka"
	"syncgate/pkg/platform/audit/publisher"
	auditmemory "syncgate/pkg/platform/audit/store/memory"
	adminmw "syncgate/pkg/platform/middleware/admin"
	"syncgate/pkg/platform/middleware/principal"
	"syncgate/pkg/platform/middleware/requestid"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := statemachine.New(statemachine.WithLogger(log))

	var (
		records    ports.RecordStore       = record.NewInMemoryStore()
		dedupes    ports.DedupeStore       = dedupe.NewInMemoryStore()
		domainCfgs ports.DomainConfigStore = domaincfg.NewInMemoryStore()
	)

	if cfg.PostgresURL != "" {
		pool, err := postgres.NewPool(ctx, cfg.PostgresURL)
		if err != nil {
			log.Error("postgres pool init failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		pgRecords := record.NewPostgres(pool)
		if err := pgRecords.EnsureSchema(ctx); err != nil {
			log.Error("record schema init failed", "error", err)
			os.Exit(1)
		}
		records = pgRecords

		db, err := postgres.NewDB(ctx, cfg.PostgresURL)
		if err != nil {
			log.Error("postgres db init failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		pgConfigs := domaincfg.NewPostgres(db)
		if err := pgConfigs.EnsureSchema(ctx); err != nil {
			log.Error("domain config schema init failed", "error", err)
			os.Exit(1)
		}
		domainCfgs = pgConfigs
	}

	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("redis init failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		dedupes = dedupe.NewRedis(redisClient)
	}

	auditStore := auditmemory.NewInMemoryStore()
	sinks := []audit.Sink{auditStore}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := auditkafka.New(ctx, cfg.KafkaBrokers, cfg.KafkaAuditTopic, auditkafka.WithLogger(log))
		if err != nil {
			log.Error("kafka audit sink init failed", "error", err)
			os.Exit(1)
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := kafkaSink.Close(closeCtx); err != nil {
				log.Error("kafka audit sink close failed", "error", err)
			}
		}()
		sinks = append(sinks, kafkaSink)
	}
	auditPub := publisher.NewPublisher(sinks, publisher.WithAsyncBuffer(1024), publisher.WithLogger(log))
	defer auditPub.Close()

	m := syncmetrics.New(prometheus.DefaultRegisterer)

	svc, err := service.New(registry, records,
		service.WithLogger(log),
		service.WithDedupeStore(dedupes),
		service.WithDomainConfigStore(domainCfgs),
		service.WithAuditPublisher(auditPub),
		service.WithMetrics(m),
		service.WithDedupeTTL(cfg.DedupeTTL),
	)
	if err != nil {
		log.Error("sync service init failed", "error", err)
		os.Exit(1)
	}
	if err := svc.LoadDomains(ctx); err != nil {
		log.Error("domain config replay failed", "error", err)
		os.Exit(1)
	}

	h := handler.New(svc, log)

	router := chi.NewRouter()
	router.Use(requestid.RequestID)
	router.Use(principal.FromHeaders)
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())
	h.Register(router)
	router.Group(func(r chi.Router) {
		r.Use(adminmw.RequireAdminToken(cfg.AdminToken, log))
		h.RegisterAdmin(r)
	})

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting syncgate", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("syncgate stopped")
}
