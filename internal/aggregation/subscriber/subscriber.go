// Package subscriber refreshes agency aggregates from the review event stream.
package subscriber

import (
	"context"

	"github.com/rs/zerolog"

	"vouch/internal/aggregation/models"
	"vouch/internal/platform/kafka/consumer"
	"vouch/internal/review/events"
	id "vouch/pkg/domain"
)

type Refresher interface {
	Refresh(ctx context.Context, agencyID id.AgencyID) (*models.Aggregate, error)
}

// Subscriber implements consumer.Handler. Undecodable records are logged and
// skipped; a failed refresh is returned so the consumer logs it, and the
// reconciler repairs the aggregate on its next sweep.
type Subscriber struct {
	refresher Refresher
	logger    zerolog.Logger
}

func New(refresher Refresher, logger zerolog.Logger) *Subscriber {
	return &Subscriber{refresher: refresher, logger: logger}
}

func (s *Subscriber) Handle(ctx context.Context, msg *consumer.Message) error {
	event, err := events.Decode(msg.Value)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("topic", msg.Topic).
			Int32("partition", msg.Partition).
			Int64("offset", msg.Offset).
			Msg("skipping undecodable review event")
		return nil
	}
	agencyID, err := id.ParseAgencyID(event.AgencyID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("offset", msg.Offset).Msg("skipping review event without agency")
		return nil
	}

	agg, err := s.refresher.Refresh(ctx, agencyID)
	if err != nil {
		return err
	}
	s.logger.Debug().
		Str("event_type", event.Type).
		Str("agency_id", agencyID.String()).
		Int("total_reviews", agg.TotalReviews).
		Msg("aggregate refreshed from event")
	return nil
}
