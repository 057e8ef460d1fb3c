package models

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func TestCompute(t *testing.T) {
	agency := id.AgencyID(uuid.New())

	t.Run("three reviews with two verified", func(t *testing.T) {
		// ratings [5,5,1], verified [true,false,true]
		tally := Tally{Distribution: Distribution{1, 0, 0, 0, 2}, Verified: 2}

		agg, err := Compute(agency, tally, 0.8, fixedNow)
		require.NoError(t, err)

		assert.Equal(t, 3, agg.TotalReviews)
		assertDecimal(t, "3.667", agg.AverageRating)
		assertDecimal(t, "0.667", agg.VerificationRatio)
		assertDecimal(t, "7.27", agg.TrustScore)
		assertDecimal(t, "0.8", agg.ComplianceInput)
		assert.Equal(t, 2, agg.Distribution.Count(5))
		assert.Equal(t, 1, agg.Distribution.Count(1))
		assert.Equal(t, fixedNow, agg.ComputedAt)
	})

	t.Run("after hiding the verified five-star review", func(t *testing.T) {
		tally := Tally{Distribution: Distribution{1, 0, 0, 0, 1}, Verified: 1}

		agg, err := Compute(agency, tally, 0.8, fixedNow)
		require.NoError(t, err)

		assert.Equal(t, 2, agg.TotalReviews)
		assertDecimal(t, "3", agg.AverageRating)
		assertDecimal(t, "0.5", agg.VerificationRatio)
		assertDecimal(t, "6.1", agg.TrustScore)
	})

	t.Run("no reviews", func(t *testing.T) {
		agg, err := Compute(agency, Tally{}, 0, fixedNow)
		require.NoError(t, err)
		assert.Zero(t, agg.TotalReviews)
		assert.True(t, agg.AverageRating.IsZero())
		assert.True(t, agg.VerificationRatio.IsZero())
		assert.True(t, agg.TrustScore.IsZero())
	})

	t.Run("compliance alone contributes to trust", func(t *testing.T) {
		agg, err := Compute(agency, Tally{}, 1, fixedNow)
		require.NoError(t, err)
		assertDecimal(t, "2", agg.TrustScore)
	})

	t.Run("perfect agency scores ten", func(t *testing.T) {
		agg, err := Compute(agency, Tally{Distribution: Distribution{0, 0, 0, 0, 4}, Verified: 4}, 1, fixedNow)
		require.NoError(t, err)
		assertDecimal(t, "10", agg.TrustScore)
	})

	t.Run("idempotent", func(t *testing.T) {
		tally := Tally{Distribution: Distribution{3, 1, 4, 1, 5}, Verified: 9}
		first, err := Compute(agency, tally, 0.42, fixedNow)
		require.NoError(t, err)
		second, err := Compute(agency, tally, 0.42, fixedNow)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("rejects compliance outside the unit interval", func(t *testing.T) {
		for _, c := range []float64{-0.01, 1.01, math.NaN(), math.Inf(1)} {
			_, err := Compute(agency, Tally{}, c, fixedNow)
			require.Error(t, err, "compliance %v", c)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
			assert.Equal(t, "compliance", dErrors.FieldOf(err))
		}
	})

	t.Run("inconsistent tally is reported", func(t *testing.T) {
		_, err := Compute(agency, Tally{Distribution: Distribution{0, 0, 1, 0, 0}, Verified: 2}, 0.5, fixedNow)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeAggregationInconsistency))

		_, err = Compute(agency, Tally{Distribution: Distribution{2, -1, 0, 0, 0}}, 0.5, fixedNow)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeAggregationInconsistency))
	})
}

func TestDistribution(t *testing.T) {
	d := Distribution{1, 2, 3, 4, 5}
	assert.Equal(t, 15, d.Total())
	assert.Equal(t, 3, d.Count(3))
	assert.Zero(t, d.Count(0))
	assert.Zero(t, d.Count(6))
}

func TestEmpty(t *testing.T) {
	agency := id.AgencyID(uuid.New())
	agg := Empty(agency)
	assert.Equal(t, agency, agg.AgencyID)
	require.NoError(t, agg.Check())
}

func TestNextComputedAt(t *testing.T) {
	base := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	for _, tc := range []struct {
		name string
		prev time.Time
		now  time.Time
		want time.Time
	}{
		{"first write keeps the clock", time.Time{}, base.Add(1500 * time.Nanosecond), base.Add(time.Microsecond)},
		{"clock ahead of previous", base, base.Add(time.Second), base.Add(time.Second)},
		{"clock equal to previous", base, base, base.Add(time.Microsecond)},
		{"clock behind previous", base, base.Add(-time.Minute), base.Add(time.Microsecond)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NextComputedAt(tc.prev, tc.now))
		})
	}
}
