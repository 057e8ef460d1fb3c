// Command worker keeps agency aggregates fresh: it refreshes them from the
// review event stream and runs the periodic reconciliation sweep.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"vouch/internal/agency"
	aggcache "vouch/internal/aggregation/cache"
	"vouch/internal/aggregation/engine"
	aggmetrics "vouch/internal/aggregation/metrics"
	"vouch/internal/aggregation/reconciler"
	aggstore "vouch/internal/aggregation/store"
	"vouch/internal/aggregation/subscriber"
	"vouch/internal/platform/config"
	"vouch/internal/platform/kafka/consumer"
	"vouch/internal/platform/logger"
	"vouch/internal/platform/postgres"
	redisclient "vouch/internal/platform/redis"
	reviewstore "vouch/internal/review/store"
	"vouch/pkg/platform/circuit"
)

const metricsAddr = ":9091"

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

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := aggmetrics.New(reg)

	opts := []engine.Option{engine.WithLogger(log), engine.WithMetrics(m)}
	if cfg.Aggregation.ComplianceURL != "" {
		provider, err := agency.NewHTTPCompliance(cfg.Aggregation.ComplianceURL, cfg.Aggregation.ComplianceTimeout,
			agency.WithRateLimit(cfg.Aggregation.ComplianceRPS))
		if err != nil {
			log.Fatal().Err(err).Msg("init compliance provider")
		}
		opts = append(opts, engine.WithComplianceProvider(provider, circuit.New("compliance",
			circuit.WithFailureThreshold(cfg.Aggregation.BreakerFailures),
			circuit.WithSuccessThreshold(cfg.Aggregation.BreakerSuccesses),
		)))
	}
	rc, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("connect redis")
	}
	if rc != nil {
		defer rc.Close()
		opts = append(opts, engine.WithCache(aggcache.New(rc.Client, aggcache.WithTTL(cfg.Redis.CacheTTL))))
	}
	aggEngine := engine.New(aggstore.NewPostgres(db), opts...)

	rec := reconciler.New(reviewstore.NewPostgres(db), aggEngine,
		reconciler.WithSchedule(cfg.Aggregation.ReconcileSchedule),
		reconciler.WithConcurrency(cfg.Aggregation.ReconcileConcurrency),
		reconciler.WithLogger(log),
		reconciler.WithMetrics(m),
	)
	if err := rec.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("start reconciler")
	}

	g, gctx := errgroup.WithContext(ctx)

	if len(cfg.Kafka.Brokers) > 0 {
		c, err := consumer.New(cfg.Kafka.Brokers, cfg.Kafka.ConsumerGroup, []string{cfg.Kafka.Topic},
			subscriber.New(aggEngine, log), log)
		if err != nil {
			log.Fatal().Err(err).Msg("connect kafka consumer")
		}
		defer c.Close()
		g.Go(func() error {
			log.Info().Str("topic", cfg.Kafka.Topic).Msg("consuming review events")
			return c.Run(gctx)
		})
	} else {
		log.Info().Msg("kafka not configured, relying on the reconciler only")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	metricsSrv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: cfg.Server.ReadTimeout}
	g.Go(func() error {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		select {
		case <-rec.Stop().Done():
		case <-shutdownCtx.Done():
		}
		return metricsSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("worker stopped with error")
	}
	log.Info().Msg("worker stopped")
}
