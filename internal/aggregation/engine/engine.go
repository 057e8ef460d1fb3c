// Package engine keeps agency rating aggregates consistent with the reviews
// they are derived from.
//
// Every write path recomputes the aggregate from scratch: the store tallies
// the agency's active reviews under a per-agency lock and the pure Compute
// function derives the result. There is no incremental arithmetic, so a missed
// or duplicated trigger is healed by the next recompute.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	aggmetrics "vouch/internal/aggregation/metrics"
	"vouch/internal/aggregation/models"
	"vouch/internal/aggregation/store"
	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/platform/circuit"
	"vouch/pkg/platform/sentinel"
	"vouch/pkg/requestcontext"
)

const defaultMaxAttempts = 3

// Store tallies and persists aggregates. Apply must serialize calls for the
// same agency and take the tally from a single consistent read.
type Store interface {
	Apply(ctx context.Context, agencyID id.AgencyID, compute store.ComputeFunc) (*models.Aggregate, error)
	Get(ctx context.Context, agencyID id.AgencyID) (*models.Aggregate, error)
}

// ComplianceProvider returns an agency's regulatory compliance score in [0,1].
type ComplianceProvider interface {
	Compliance(ctx context.Context, agencyID id.AgencyID) (float64, error)
}

// Cache is the aggregate read cache.
type Cache interface {
	Get(ctx context.Context, agencyID id.AgencyID) (*models.Aggregate, bool, error)
	Set(ctx context.Context, agg *models.Aggregate) error
	Invalidate(ctx context.Context, agencyID id.AgencyID) error
}

type Engine struct {
	store       Store
	compliance  ComplianceProvider
	breaker     *circuit.Breaker
	cache       Cache
	logger      zerolog.Logger
	metrics     *aggmetrics.Metrics
	tracer      trace.Tracer
	maxAttempts int
	signals     singleflight.Group
}

type Option func(*Engine)

func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithMetrics(m *aggmetrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithComplianceProvider sets the compliance source and the breaker guarding it.
// A nil breaker gets a default one.
func WithComplianceProvider(p ComplianceProvider, breaker *circuit.Breaker) Option {
	return func(e *Engine) {
		e.compliance = p
		if breaker != nil {
			e.breaker = breaker
		}
	}
}

func WithCache(c Cache) Option {
	return func(e *Engine) {
		e.cache = c
	}
}

func WithMaxAttempts(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = tracer
	}
}

func New(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:       store,
		breaker:     circuit.New("compliance"),
		logger:      zerolog.Nop(),
		tracer:      otel.Tracer("vouch/internal/aggregation/engine"),
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Recompute rebuilds the agency's aggregate with the given compliance input.
// An invariant failure discards the attempt and recomputes from a fresh tally,
// up to the attempt limit.
func (e *Engine) Recompute(ctx context.Context, agencyID id.AgencyID, compliance float64) (*models.Aggregate, error) {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "aggregation.Recompute", trace.WithAttributes(
		attribute.String("agency_id", agencyID.String()),
	))
	defer span.End()

	agg, err := e.recompute(ctx, agencyID, compliance)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.GetCode(err)))
		e.metrics.IncrementRecompute("error")
		return nil, err
	}
	e.metrics.IncrementRecompute("ok")
	e.metrics.ObserveRecompute(start)
	return agg, nil
}

func (e *Engine) recompute(ctx context.Context, agencyID id.AgencyID, compliance float64) (*models.Aggregate, error) {
	if agencyID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "agency ID required")
	}
	if err := models.ValidateCompliance(compliance); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		agg, err := e.store.Apply(ctx, agencyID, func(t models.Tally) (*models.Aggregate, error) {
			return models.Compute(agencyID, t, compliance, requestcontext.Now(ctx))
		})
		if err == nil {
			e.publish(ctx, agg)
			return agg, nil
		}
		if !dErrors.HasCode(err, dErrors.CodeAggregationInconsistency) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to recompute aggregate")
		}
		e.metrics.IncrementInconsistency()
		e.logger.Warn().Err(err).
			Str("agency_id", agencyID.String()).
			Int("attempt", attempt).
			Msg("aggregate failed invariant check; recomputing")
		lastErr = err
	}
	return nil, lastErr
}

// Refresh recomputes with the provider's current compliance, falling back to
// the last persisted compliance input (0 when none) when the provider fails or
// its breaker is open.
func (e *Engine) Refresh(ctx context.Context, agencyID id.AgencyID) (*models.Aggregate, error) {
	compliance, err := e.complianceFor(ctx, agencyID)
	if err != nil {
		return nil, err
	}
	return e.Recompute(ctx, agencyID, compliance)
}

func (e *Engine) complianceFor(ctx context.Context, agencyID id.AgencyID) (float64, error) {
	if e.compliance == nil {
		e.metrics.IncrementComplianceFallback("no_provider")
		return e.lastCompliance(ctx, agencyID)
	}

	value, err := e.compliance.Compliance(ctx, agencyID)
	if err == nil {
		err = models.ValidateCompliance(value)
	}
	if err != nil {
		_, change := e.breaker.RecordFailure()
		e.noteBreakerChange(change)
		e.logger.Warn().Err(err).
			Str("agency_id", agencyID.String()).
			Str("breaker", string(e.breaker.State())).
			Msg("compliance provider failed; using last known value")
		e.metrics.IncrementComplianceFallback("provider_error")
		return e.lastCompliance(ctx, agencyID)
	}

	usePrimary, change := e.breaker.RecordSuccess()
	e.noteBreakerChange(change)
	if !usePrimary {
		e.metrics.IncrementComplianceFallback("breaker_open")
		return e.lastCompliance(ctx, agencyID)
	}
	return value, nil
}

func (e *Engine) noteBreakerChange(change circuit.StateChange) {
	switch {
	case change.Opened:
		e.logger.Warn().Str("breaker", e.breaker.Name()).Msg("circuit opened")
		e.metrics.IncrementBreakerTransition(string(circuit.StateOpen))
	case change.Closed:
		e.logger.Info().Str("breaker", e.breaker.Name()).Msg("circuit closed")
		e.metrics.IncrementBreakerTransition(string(circuit.StateClosed))
	}
}

func (e *Engine) lastCompliance(ctx context.Context, agencyID id.AgencyID) (float64, error) {
	agg, err := e.store.Get(ctx, agencyID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load last compliance input")
	}
	return agg.ComplianceInput.InexactFloat64(), nil
}

// Signal is the review-changed hook. It never fails the caller: errors are
// logged and counted, and the reconciler repairs the aggregate later.
//
// Concurrent signals for one agency share a single refresh. A caller that
// joined a refresh already in flight may have written after that refresh took
// its tally, so it runs one more refresh, which necessarily starts after its
// write.
func (e *Engine) Signal(ctx context.Context, agencyID id.AgencyID) {
	ctx = context.WithoutCancel(ctx)
	key := agencyID.String()
	for round := 0; round < 2; round++ {
		_, err, shared := e.signals.Do(key, func() (any, error) {
			return e.Refresh(ctx, agencyID)
		})
		if err != nil {
			e.metrics.IncrementSignalFailure()
			e.logger.Error().Err(err).
				Str("request_id", requestcontext.RequestID(ctx)).
				Str("agency_id", key).
				Msg("aggregate refresh after review change failed")
			return
		}
		if !shared {
			return
		}
	}
}

// Get returns the agency's aggregate, reading through the cache. Agencies
// without a stored aggregate get the zero aggregate. The cache fill after a
// miss never replaces an entry computed later.
func (e *Engine) Get(ctx context.Context, agencyID id.AgencyID) (*models.Aggregate, error) {
	ctx, span := e.tracer.Start(ctx, "aggregation.Get", trace.WithAttributes(
		attribute.String("agency_id", agencyID.String()),
	))
	defer span.End()

	if agencyID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "agency ID required")
	}

	if e.cache != nil {
		agg, ok, err := e.cache.Get(ctx, agencyID)
		switch {
		case err != nil:
			e.metrics.IncrementCacheLookup("error")
			e.logger.Warn().Err(err).Str("agency_id", agencyID.String()).Msg("aggregate cache read failed")
		case ok:
			e.metrics.IncrementCacheLookup("hit")
			span.SetAttributes(attribute.Bool("cache_hit", true))
			return agg, nil
		default:
			e.metrics.IncrementCacheLookup("miss")
		}
	}

	agg, err := e.store.Get(ctx, agencyID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.Empty(agencyID), nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store read failed")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load aggregate")
	}

	if e.cache != nil {
		if err := e.cache.Set(ctx, agg); err != nil {
			e.logger.Warn().Err(err).Str("agency_id", agencyID.String()).Msg("aggregate cache write failed")
		}
	}
	return agg, nil
}

// publish writes a freshly committed aggregate into the cache. The cache only
// accepts it over an older entry, so a concurrent Get that loaded the previous
// aggregate cannot put it back. If the write fails the entry is dropped.
func (e *Engine) publish(ctx context.Context, agg *models.Aggregate) {
	if e.cache == nil {
		return
	}
	err := e.cache.Set(ctx, agg)
	if err == nil {
		return
	}
	e.logger.Warn().Err(err).Str("agency_id", agg.AgencyID.String()).Msg("aggregate cache write failed")
	if err := e.cache.Invalidate(ctx, agg.AgencyID); err != nil {
		e.logger.Warn().Err(err).Str("agency_id", agg.AgencyID.String()).Msg("aggregate cache invalidation failed")
	}
}
