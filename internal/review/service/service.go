// Package service implements the review lifecycle: submission, author edits,
// moderation and feedback counters.
//
// Every write runs as an explicit pipeline (sanitize, validate, check, persist,
// signal aggregation, publish). There are no storage hooks; the aggregation
// signal and event publication happen here after a successful write.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	reviewmetrics "vouch/internal/review/metrics"
	"vouch/internal/review/models"
	"vouch/internal/review/sanitize"
	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/platform/audit"
	"vouch/pkg/platform/sentinel"
	"vouch/pkg/requestcontext"
)

const defaultMaxAttempts = 3

type Store interface {
	Create(ctx context.Context, r *models.Review) error
	FindByID(ctx context.Context, reviewID id.ReviewID) (*models.Review, error)
	ListByAgency(ctx context.Context, agencyID id.AgencyID, filter models.ListFilter) ([]*models.Review, error)
	UpdateIfVersion(ctx context.Context, r *models.Review, expected int64, resetReports bool) error
	IncrementHelpful(ctx context.Context, reviewID id.ReviewID) (*models.Review, error)
	IncrementReports(ctx context.Context, reviewID id.ReviewID) (*models.Review, error)
}

// OwnershipLookup reports whether a worker owns or operates an agency.
type OwnershipLookup interface {
	IsOwner(ctx context.Context, workerID id.WorkerID, agencyID id.AgencyID) (bool, error)
}

// AggregationSignaler is notified after writes that can move an agency aggregate.
// Signal must not fail the caller; failures are handled on the aggregation side.
type AggregationSignaler interface {
	Signal(ctx context.Context, agencyID id.AgencyID)
}

type EventPublisher interface {
	Publish(ctx context.Context, event models.Event) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates review writes and reads.
type Service struct {
	store       Store
	ownership   OwnershipLookup
	aggregation AggregationSignaler
	events      EventPublisher
	audit       AuditPublisher
	logger      zerolog.Logger
	metrics     *reviewmetrics.Metrics
	tracer      trace.Tracer
	editWindow  time.Duration
	maxAttempts int
}

type Option func(*Service)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *reviewmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithEventPublisher(p EventPublisher) Option {
	return func(s *Service) {
		s.events = p
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) {
		s.audit = p
	}
}

// WithEditWindow limits author edits to window after creation. Zero disables the limit.
func WithEditWindow(window time.Duration) Option {
	return func(s *Service) {
		s.editWindow = window
	}
}

// WithMaxAttempts bounds the reload-and-retry loop on version conflicts.
func WithMaxAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// New constructs a Service.
func New(store Store, ownership OwnershipLookup, aggregation AggregationSignaler, opts ...Option) *Service {
	s := &Service{
		store:       store,
		ownership:   ownership,
		aggregation: aggregation,
		logger:      zerolog.Nop(),
		tracer:      otel.Tracer("vouch/internal/review/service"),
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit creates a review. Edits to an existing review must go through Update;
// a second submission for the same pair fails with CodeDuplicateReview.
func (s *Service) Submit(ctx context.Context, cmd models.SubmitCommand) (*models.Review, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "review.Submit", trace.WithAttributes(
		attribute.String("agency_id", cmd.AgencyID.String()),
	))
	defer span.End()

	review, err := s.submit(ctx, cmd)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	s.metrics.ObserveSubmit(start)
	return review, nil
}

func (s *Service) submit(ctx context.Context, cmd models.SubmitCommand) (*models.Review, error) {
	comment := sanitize.Sanitize(cmd.Comment)
	review, err := models.NewReview(id.NewReviewID(), cmd.AgencyID, cmd.WorkerID, cmd.Rating, comment, cmd.IsAnonymous, requestcontext.Now(ctx))
	if err != nil {
		s.metrics.IncrementRejected("validation")
		return nil, err
	}

	owner, err := s.ownership.IsOwner(ctx, cmd.WorkerID, cmd.AgencyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrUnavailable) {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "ownership lookup unavailable")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check agency ownership")
	}
	if owner {
		s.metrics.IncrementRejected("self_review")
		return nil, dErrors.New(dErrors.CodeSelfReview, "workers cannot review an agency they own or operate")
	}

	if err := s.store.Create(ctx, review); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			s.metrics.IncrementRejected("duplicate")
			return nil, dErrors.New(dErrors.CodeDuplicateReview, "worker has already reviewed this agency; update the existing review instead")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create review")
	}

	s.logger.Info().
		Str("request_id", requestcontext.RequestID(ctx)).
		Str("review_id", review.ID.String()).
		Str("agency_id", review.AgencyID.String()).
		Msg("review submitted")
	s.metrics.IncrementSubmitted()

	s.aggregation.Signal(ctx, review.AgencyID)
	s.publish(ctx, models.NewEvent(models.EventSubmitted, review, "", requestcontext.Now(ctx)))
	return review, nil
}

// Update applies an author's edit. Only the author may edit; deleted reviews
// cannot be edited. Aggregation is signalled only when the rating changed.
func (s *Service) Update(ctx context.Context, reviewID id.ReviewID, by id.WorkerID, cmd models.UpdateCommand) (*models.Review, error) {
	ctx, span := s.tracer.Start(ctx, "review.Update", trace.WithAttributes(
		attribute.String("review_id", reviewID.String()),
	))
	defer span.End()

	if reviewID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "review ID required")
	}

	edit := models.Edit{Rating: cmd.Rating, IsAnonymous: cmd.IsAnonymous}
	if cmd.Comment != nil {
		clean := sanitize.Sanitize(*cmd.Comment)
		edit.Comment = &clean
	}

	now := requestcontext.Now(ctx)
	var ratingChanged bool
	review, err := s.writeWithRetry(ctx, reviewID, func(r *models.Review) (bool, error) {
		if err := r.CanEdit(by, edit, now, s.editWindow); err != nil {
			return false, err
		}
		ratingChanged = r.ApplyEdit(edit, now)
		return false, nil
	})
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	if ratingChanged {
		s.aggregation.Signal(ctx, review.AgencyID)
	}
	s.publish(ctx, models.NewEvent(models.EventUpdated, review, "", now))
	return review, nil
}

// Moderate applies a moderation action. The caller is already authorized.
func (s *Service) Moderate(ctx context.Context, reviewID id.ReviewID, action models.ModerationAction) (*models.Review, error) {
	ctx, span := s.tracer.Start(ctx, "review.Moderate", trace.WithAttributes(
		attribute.String("review_id", reviewID.String()),
		attribute.String("action", action.String()),
	))
	defer span.End()

	if reviewID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "review ID required")
	}
	if !action.IsValid() {
		return nil, dErrors.Validation("action", "unknown moderation action: "+action.String())
	}

	now := requestcontext.Now(ctx)
	review, err := s.writeWithRetry(ctx, reviewID, func(r *models.Review) (bool, error) {
		if err := r.CanModerate(action); err != nil {
			return false, err
		}
		r.ApplyModeration(action, now)
		return action == models.ActionClearReports, nil
	})
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	s.logger.Info().
		Str("request_id", requestcontext.RequestID(ctx)).
		Str("review_id", review.ID.String()).
		Str("action", action.String()).
		Str("status", review.Status.String()).
		Msg("review moderated")
	s.metrics.IncrementModerated(action.String())
	s.emitAudit(ctx, review, action)

	if action.AffectsAggregate() {
		s.aggregation.Signal(ctx, review.AgencyID)
	}
	s.publish(ctx, models.NewEvent(models.EventModerated, review, action, now))
	return review, nil
}

// MarkHelpful atomically increments the helpful counter.
func (s *Service) MarkHelpful(ctx context.Context, reviewID id.ReviewID) (*models.Review, error) {
	return s.feedback(ctx, reviewID, "helpful", s.store.IncrementHelpful)
}

// Report atomically increments the report counter.
func (s *Service) Report(ctx context.Context, reviewID id.ReviewID) (*models.Review, error) {
	return s.feedback(ctx, reviewID, "report", s.store.IncrementReports)
}

func (s *Service) feedback(ctx context.Context, reviewID id.ReviewID, kind string, increment func(context.Context, id.ReviewID) (*models.Review, error)) (*models.Review, error) {
	if reviewID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "review ID required")
	}
	review, err := increment(ctx, reviewID)
	if err != nil {
		return nil, wrapReviewErr(err, "failed to record "+kind)
	}
	s.metrics.IncrementFeedback(kind)
	return review, nil
}

func (s *Service) Get(ctx context.Context, reviewID id.ReviewID) (*models.Review, error) {
	if reviewID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "review ID required")
	}
	review, err := s.store.FindByID(ctx, reviewID)
	if err != nil {
		return nil, wrapReviewErr(err, "failed to load review")
	}
	return review, nil
}

// ListByAgency returns the agency's reviews filtered by status, newest first.
func (s *Service) ListByAgency(ctx context.Context, agencyID id.AgencyID, filter models.ListFilter) ([]*models.Review, error) {
	if agencyID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "agency ID required")
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, dErrors.Validation("status", "invalid review status")
	}
	reviews, err := s.store.ListByAgency(ctx, agencyID, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list reviews")
	}
	return reviews, nil
}

// writeWithRetry loads the review, applies mutate and writes it back guarded
// by the loaded version. A lost version check reloads and retries up to
// maxAttempts times. mutate reports whether the write resets report_count.
func (s *Service) writeWithRetry(ctx context.Context, reviewID id.ReviewID, mutate func(r *models.Review) (bool, error)) (*models.Review, error) {
	for attempt := 1; ; attempt++ {
		review, err := s.store.FindByID(ctx, reviewID)
		if err != nil {
			return nil, wrapReviewErr(err, "failed to load review")
		}
		expected := review.Version
		resetReports, err := mutate(review)
		if err != nil {
			return nil, err
		}

		err = s.store.UpdateIfVersion(ctx, review, expected, resetReports)
		if err == nil {
			return review, nil
		}
		if !errors.Is(err, sentinel.ErrConflict) {
			return nil, wrapReviewErr(err, "failed to save review")
		}
		s.metrics.IncrementVersionConflict()
		if attempt >= s.maxAttempts {
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "review was modified concurrently; retry the request")
		}
		s.logger.Debug().Str("review_id", reviewID.String()).Int("attempt", attempt).Msg("review version conflict, retrying")
	}
}

func (s *Service) publish(ctx context.Context, event models.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.metrics.IncrementEventPublishFailed()
		s.logger.Warn().Err(err).
			Str("event_type", event.Type).
			Str("review_id", event.ReviewID).
			Msg("failed to publish review event")
	}
}

func (s *Service) emitAudit(ctx context.Context, review *models.Review, action models.ModerationAction) {
	if s.audit == nil {
		return
	}
	err := s.audit.Emit(ctx, audit.Event{
		WorkerID:  review.WorkerID,
		Subject:   "review:" + review.ID.String(),
		Action:    string(audit.EventReviewModerated),
		Reason:    action.String(),
		RequestID: requestcontext.RequestID(ctx),
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("review_id", review.ID.String()).Msg("failed to emit moderation audit event")
	}
}

func wrapReviewErr(err error, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "review not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.New(dErrors.CodeInvalidTransition, "review is deleted")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(dErrors.GetCode(err)))
}
