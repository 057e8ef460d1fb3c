//go:build integration

package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"vouch/internal/aggregation/models"
	"vouch/internal/aggregation/store"
	reviewmodels "vouch/internal/review/models"
	reviewstore "vouch/internal/review/store"
	id "vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
	"vouch/pkg/testutil/containers"
)

type PostgresAggregateSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	reviews  *reviewstore.PostgresStore
	store    *store.PostgresStore
}

func TestPostgresAggregateSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresAggregateSuite))
}

func (s *PostgresAggregateSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.reviews = reviewstore.NewPostgres(s.postgres.DB)
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresAggregateSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "agency_ratings", "reviews"))
}

func (s *PostgresAggregateSuite) seed(ctx context.Context, agencyID id.AgencyID, rating int, verified bool) *reviewmodels.Review {
	r, err := reviewmodels.NewReview(id.NewReviewID(), agencyID, id.WorkerID(uuid.New()), rating,
		"Seeded review for aggregation.", false, time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(err)
	if verified {
		r.VerificationStatus = reviewmodels.VerificationVerified
	}
	s.Require().NoError(s.reviews.Create(ctx, r))
	return r
}

func computeWith(agencyID id.AgencyID, compliance float64) store.ComputeFunc {
	return func(t models.Tally) (*models.Aggregate, error) {
		return models.Compute(agencyID, t, compliance, time.Now().UTC().Truncate(time.Microsecond))
	}
}

func (s *PostgresAggregateSuite) TestApplyAndGet() {
	ctx := context.Background()
	agencyID := id.AgencyID(uuid.New())
	s.seed(ctx, agencyID, 5, true)
	s.seed(ctx, agencyID, 5, false)
	s.seed(ctx, agencyID, 1, true)

	agg, err := s.store.Apply(ctx, agencyID, computeWith(agencyID, 0.8))
	s.Require().NoError(err)
	s.Equal("7.27", agg.TrustScore.String())

	stored, err := s.store.Get(ctx, agencyID)
	s.Require().NoError(err)
	s.Equal(3, stored.TotalReviews)
	s.Equal(2, stored.VerifiedReviews)
	s.Equal(models.Distribution{1, 0, 0, 0, 2}, stored.Distribution)
	s.True(agg.AverageRating.Equal(stored.AverageRating))
	s.True(agg.VerificationRatio.Equal(stored.VerificationRatio))
	s.True(agg.ComplianceInput.Equal(stored.ComplianceInput))
	s.True(agg.TrustScore.Equal(stored.TrustScore))
}

func (s *PostgresAggregateSuite) TestHiddenReviewsLeaveTheTally() {
	ctx := context.Background()
	agencyID := id.AgencyID(uuid.New())
	hidden := s.seed(ctx, agencyID, 5, true)
	s.seed(ctx, agencyID, 5, false)
	s.seed(ctx, agencyID, 1, true)

	expected := hidden.Version
	s.Require().NoError(hidden.Moderate(reviewmodels.ActionHide, time.Now()))
	s.Require().NoError(s.reviews.UpdateIfVersion(ctx, hidden, expected, false))

	agg, err := s.store.Apply(ctx, agencyID, computeWith(agencyID, 0.8))
	s.Require().NoError(err)
	s.Equal(2, agg.TotalReviews)
	s.Equal("3", agg.AverageRating.String())
	s.Equal("0.5", agg.VerificationRatio.String())
	s.Equal("6.1", agg.TrustScore.String())
}

func (s *PostgresAggregateSuite) TestComputedAtIncreasesAcrossWrites() {
	ctx := context.Background()
	agencyID := id.AgencyID(uuid.New())
	s.seed(ctx, agencyID, 3, false)

	late, err := s.store.Apply(ctx, agencyID, computeWith(agencyID, 0.5))
	s.Require().NoError(err)

	// A host whose clock lags still stamps after the stored aggregate.
	lagging := func(t models.Tally) (*models.Aggregate, error) {
		return models.Compute(agencyID, t, 0.5, late.ComputedAt.Add(-time.Hour))
	}
	next, err := s.store.Apply(ctx, agencyID, lagging)
	s.Require().NoError(err)
	s.True(next.ComputedAt.After(late.ComputedAt))

	stored, err := s.store.Get(ctx, agencyID)
	s.Require().NoError(err)
	s.True(stored.ComputedAt.Equal(next.ComputedAt))
}

func (s *PostgresAggregateSuite) TestGetUnknownAgency() {
	_, err := s.store.Get(context.Background(), id.AgencyID(uuid.New()))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// TestConcurrentWritesConvergeAfterFinalRecompute interleaves submissions with
// recomputes; once writers stop, one more recompute must match the truth.
func (s *PostgresAggregateSuite) TestConcurrentWritesConvergeAfterFinalRecompute() {
	ctx := context.Background()
	agencyID := id.AgencyID(uuid.New())
	const writers = 20

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			s.seed(ctx, agencyID, 1+i%5, i%3 == 0)
		}(i)
		go func() {
			defer wg.Done()
			_, err := s.store.Apply(ctx, agencyID, computeWith(agencyID, 0.5))
			s.NoError(err)
		}()
	}
	wg.Wait()

	agg, err := s.store.Apply(ctx, agencyID, computeWith(agencyID, 0.5))
	s.Require().NoError(err)
	s.Equal(writers, agg.TotalReviews)
	s.Equal(models.Distribution{4, 4, 4, 4, 4}, agg.Distribution)
	s.Equal(7, agg.VerifiedReviews)
}
