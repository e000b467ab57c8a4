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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/twmb/franz-go/pkg/kgo"

	"onboard/internal/audit"
	"onboard/internal/documents"
	"onboard/internal/platform/config"
	"onboard/internal/platform/httpserver"
	"onboard/internal/platform/logger"
	platformmetrics "onboard/internal/platform/metrics"
	platformpostgres "onboard/internal/platform/postgres"
	platformredis "onboard/internal/platform/redis"
	"onboard/internal/session"
	"onboard/internal/wizard/handler"
	wizardmetrics "onboard/internal/wizard/metrics"
	"onboard/internal/wizard/registry"
	"onboard/internal/wizard/service"
	"onboard/internal/wizard/store"
	"onboard/internal/wizard/store/cache"
	"onboard/internal/wizard/store/remote"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	// Local snapshot cache: Redis when configured, in-memory otherwise.
	var snapshotCache store.CacheStore
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		snapshotCache = cache.NewRedisStore(redisClient.Client)
		defer redisClient.Close()
		log.Info("snapshot cache: redis")
	} else {
		snapshotCache = cache.NewMemoryStore()
		log.Info("snapshot cache: in-memory")
	}

	remoteStore := remote.NewClient(cfg.RemoteStoreURL, remote.WithLogger(log))

	// Audit trail: Postgres when configured, plus Kafka fan-out.
	var db *sql.DB
	auditStore := audit.Store(audit.NewMemoryStore())
	db, err = platformpostgres.Open(cfg.Postgres)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	if db != nil {
		if _, err := db.Exec(audit.Schema); err != nil {
			log.Error("audit schema setup failed", "error", err)
			os.Exit(1)
		}
		auditStore = audit.NewPostgresStore(db)
		defer db.Close()
		log.Info("audit store: postgres")
	} else {
		log.Info("audit store: in-memory")
	}

	auditOpts := []audit.PublisherOption{audit.WithLogger(log)}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaClient, err := kgo.NewClient(
			kgo.SeedBrokers(cfg.KafkaBrokers...),
			kgo.AllowAutoTopicCreation(),
		)
		if err != nil {
			log.Error("kafka client failed", "error", err)
			os.Exit(1)
		}
		auditOpts = append(auditOpts, audit.WithKafka(kafkaClient, cfg.AuditTopic))
		log.Info("audit fan-out: kafka", "topic", cfg.AuditTopic)
	}
	publisher := audit.NewPublisher(auditStore, auditOpts...)

	serviceOpts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(wizardmetrics.New()),
		service.WithAudit(publisher),
		service.WithQuietPeriod(cfg.SaveQuietPeriod),
		service.WithLockWindow(cfg.TransitionLockWindow),
	}
	if cfg.ExtractionURL != "" {
		serviceOpts = append(serviceOpts, service.WithExtractor(
			documents.NewExtractionClient(cfg.ExtractionURL, documents.WithExtractionLogger(log))))
	}
	if cfg.PDFServiceURL != "" {
		serviceOpts = append(serviceOpts, service.WithPDFRenderer(
			documents.NewPDFClient(cfg.PDFServiceURL, documents.WithPDFLogger(log))))
	}
	wizardService := service.New(registry.New(), snapshotCache, remoteStore, serviceOpts...)

	jwtService := session.NewJWTService(cfg.JWTSigningKey, "onboard")
	httpMetrics := platformmetrics.New()

	router := chi.NewRouter()
	handler.New(wizardService, log, httpMetrics, jwtService).Register(router)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting onboard server", "addr", cfg.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	// Flush pending saves and buffered audit events before exit.
	wizardService.Close(ctx)
	publisher.Close(ctx)
}
