package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"vouch/internal/agency"
	aggcache "vouch/internal/aggregation/cache"
	"vouch/internal/aggregation/engine"
	agghandler "vouch/internal/aggregation/handler"
	aggmetrics "vouch/internal/aggregation/metrics"
	aggstore "vouch/internal/aggregation/store"
	"vouch/internal/pii/cipher"
	"vouch/internal/platform/config"
	"vouch/internal/platform/httpserver"
	"vouch/internal/platform/kafka/producer"
	"vouch/internal/platform/logger"
	"vouch/internal/platform/metrics"
	"vouch/internal/platform/postgres"
	redisclient "vouch/internal/platform/redis"
	"vouch/internal/review/events"
	reviewhandler "vouch/internal/review/handler"
	reviewmetrics "vouch/internal/review/metrics"
	reviewservice "vouch/internal/review/service"
	reviewstore "vouch/internal/review/store"
	httptransport "vouch/internal/transport/http"
	workerhandler "vouch/internal/worker/handler"
	workerservice "vouch/internal/worker/service"
	workerstore "vouch/internal/worker/store"
	"vouch/pkg/platform/audit/publisher"
	auditstore "vouch/pkg/platform/audit/store/postgres"
	"vouch/pkg/platform/circuit"
	txcontext "vouch/pkg/platform/tx"
)

const (
	topicPartitions  = 6
	topicReplication = 1
)

// main wires the review API. Business logic lives in the internal service packages.
func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("migrate postgres")
	}

	pii, err := cipher.New(cipher.Config{Secret: cfg.Cipher.Secret, Salt: cfg.Cipher.Salt})
	if err != nil {
		log.Fatal().Err(err).Msg("init identity cipher")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	health := map[string]httptransport.HealthCheck{"postgres": db.PingContext}

	aggEngine, closeCache := newEngine(ctx, cfg, db, reg, log, health)
	defer closeCache()

	eventPublisher, closeEvents := newEventPublisher(ctx, cfg, log)
	defer closeEvents()

	auditPublisher := publisher.NewPublisher(auditstore.New(db), publisher.WithLogger(log))
	defer auditPublisher.Close()
	moderationAudit := publisher.NewPublisher(auditstore.New(db),
		publisher.WithAsyncBuffer(256), publisher.WithLogger(log))
	defer moderationAudit.Close()

	reviews := reviewservice.New(
		reviewstore.NewPostgres(db),
		agency.NewPostgresOwnership(db),
		aggEngine,
		reviewservice.WithLogger(log),
		reviewservice.WithMetrics(reviewmetrics.New(reg)),
		reviewservice.WithEventPublisher(eventPublisher),
		reviewservice.WithAuditPublisher(moderationAudit),
		reviewservice.WithEditWindow(cfg.Review.EditWindow),
	)
	workers := workerservice.New(
		workerstore.NewPostgres(db),
		pii,
		auditPublisher,
		workerservice.WithTxRunner(txcontext.NewRunner(db)),
		workerservice.WithLogger(log),
	)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:   log,
		Metrics:  metrics.New(reg),
		Gatherer: reg,
		Health:   health,
		Handlers: []httptransport.Registrar{
			reviewhandler.New(reviews, log, cfg.Server.ModeratorToken),
			agghandler.New(aggEngine, log),
			workerhandler.New(workers, log),
		},
	})
	srv := httpserver.New(cfg.Server, router)

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting vouch api")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// newEngine builds the aggregation engine with the optional Redis cache and
// compliance provider. Without a compliance URL the last stored score is kept.
func newEngine(ctx context.Context, cfg *config.Config, db *sqlx.DB, reg prometheus.Registerer, log zerolog.Logger, health map[string]httptransport.HealthCheck) (*engine.Engine, func()) {
	opts := []engine.Option{
		engine.WithLogger(log),
		engine.WithMetrics(aggmetrics.New(reg)),
	}

	if cfg.Aggregation.ComplianceURL != "" {
		provider, err := agency.NewHTTPCompliance(cfg.Aggregation.ComplianceURL, cfg.Aggregation.ComplianceTimeout,
			agency.WithRateLimit(cfg.Aggregation.ComplianceRPS))
		if err != nil {
			log.Fatal().Err(err).Msg("init compliance provider")
		}
		breaker := circuit.New("compliance",
			circuit.WithFailureThreshold(cfg.Aggregation.BreakerFailures),
			circuit.WithSuccessThreshold(cfg.Aggregation.BreakerSuccesses),
		)
		opts = append(opts, engine.WithComplianceProvider(provider, breaker))
	}

	closeFn := func() {}
	rc, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("connect redis")
	}
	if rc != nil {
		opts = append(opts, engine.WithCache(aggcache.New(rc.Client, aggcache.WithTTL(cfg.Redis.CacheTTL))))
		health["redis"] = rc.Health
		closeFn = func() { _ = rc.Close() }
	} else {
		log.Info().Msg("redis not configured, aggregate cache disabled")
	}

	return engine.New(aggstore.NewPostgres(db), opts...), closeFn
}

func newEventPublisher(ctx context.Context, cfg *config.Config, log zerolog.Logger) (reviewservice.EventPublisher, func()) {
	if len(cfg.Kafka.Brokers) == 0 {
		log.Info().Msg("kafka not configured, review events disabled")
		return events.Noop{}, func() {}
	}
	p, err := producer.New(cfg.Kafka.Brokers)
	if err != nil {
		log.Fatal().Err(err).Msg("connect kafka")
	}
	if err := p.EnsureTopic(ctx, cfg.Kafka.Topic, topicPartitions, topicReplication); err != nil {
		log.Warn().Err(err).Str("topic", cfg.Kafka.Topic).Msg("could not ensure review topic")
	}
	return events.NewKafkaPublisher(p, cfg.Kafka.Topic), p.Close
}
