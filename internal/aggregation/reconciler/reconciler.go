// Package reconciler periodically refreshes every reviewed agency's aggregate,
// repairing any aggregate whose review-change signal was lost or failed.
package reconciler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	aggmetrics "vouch/internal/aggregation/metrics"
	"vouch/internal/aggregation/models"
	id "vouch/pkg/domain"
)

const (
	defaultSchedule    = "@every 15m"
	defaultConcurrency = 4
)

// AgencyLister enumerates agencies that have at least one review.
type AgencyLister interface {
	AgencyIDs(ctx context.Context) ([]id.AgencyID, error)
}

type Refresher interface {
	Refresh(ctx context.Context, agencyID id.AgencyID) (*models.Aggregate, error)
}

// Result summarizes one sweep.
type Result struct {
	Agencies int
	Failed   int
	Duration time.Duration
}

type Reconciler struct {
	agencies    AgencyLister
	refresher   Refresher
	schedule    string
	concurrency int
	logger      zerolog.Logger
	metrics     *aggmetrics.Metrics
	cron        *cron.Cron
}

type Option func(*Reconciler)

// WithSchedule sets the cron spec, e.g. "@every 15m" or "*/10 * * * *".
func WithSchedule(spec string) Option {
	return func(r *Reconciler) {
		if spec != "" {
			r.schedule = spec
		}
	}
}

func WithConcurrency(n int) Option {
	return func(r *Reconciler) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(r *Reconciler) {
		r.logger = logger
	}
}

func WithMetrics(m *aggmetrics.Metrics) Option {
	return func(r *Reconciler) {
		r.metrics = m
	}
}

func New(agencies AgencyLister, refresher Refresher, opts ...Option) *Reconciler {
	r := &Reconciler{
		agencies:    agencies,
		refresher:   refresher,
		schedule:    defaultSchedule,
		concurrency: defaultConcurrency,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunOnce refreshes every reviewed agency with bounded concurrency. A failed
// agency is logged and counted; it does not stop the sweep.
func (r *Reconciler) RunOnce(ctx context.Context) (Result, error) {
	start := time.Now()
	ids, err := r.agencies.AgencyIDs(ctx)
	if err != nil {
		r.metrics.ObserveReconcile("error", 0)
		return Result{}, fmt.Errorf("list reviewed agencies: %w", err)
	}

	var failed atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(r.concurrency)
	for _, agencyID := range ids {
		g.Go(func() error {
			if ctx.Err() != nil {
				failed.Add(1)
				return nil
			}
			if _, err := r.refresher.Refresh(ctx, agencyID); err != nil {
				failed.Add(1)
				r.logger.Error().Err(err).Str("agency_id", agencyID.String()).Msg("reconcile refresh failed")
			}
			return nil
		})
	}
	_ = g.Wait()

	res := Result{Agencies: len(ids), Failed: int(failed.Load()), Duration: time.Since(start)}
	outcome := "ok"
	if res.Failed > 0 {
		outcome = "partial"
	}
	r.metrics.ObserveReconcile(outcome, res.Agencies)
	r.logger.Info().
		Int("agencies", res.Agencies).
		Int("failed", res.Failed).
		Dur("duration", res.Duration).
		Msg("reconcile sweep finished")
	return res, ctx.Err()
}

// Start schedules RunOnce on the configured spec. Sweeps never overlap: a
// tick that fires while the previous sweep is still running is skipped.
func (r *Reconciler) Start(ctx context.Context) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(r.schedule, func() {
		if _, err := r.RunOnce(ctx); err != nil {
			r.logger.Error().Err(err).Msg("reconcile sweep failed")
		}
	}); err != nil {
		return fmt.Errorf("invalid reconcile schedule %q: %w", r.schedule, err)
	}
	r.cron = c
	c.Start()
	r.logger.Info().Str("schedule", r.schedule).Int("concurrency", r.concurrency).Msg("reconciler started")
	return nil
}

// Stop halts scheduling and returns a context that is done once any running
// sweep has finished.
func (r *Reconciler) Stop() context.Context {
	if r.cron == nil {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	return r.cron.Stop()
}
