// Package models holds the agency rating aggregate and the pure function that
// derives it from a tally of active reviews.
package models

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
)

// Trust score weights. They sum to 1 so the weighted score stays in [0,1]
// before scaling to [0,10].
var (
	WeightRating       = decimal.RequireFromString("0.5")
	WeightVerification = decimal.RequireFromString("0.3")
	WeightCompliance   = decimal.RequireFromString("0.2")
)

const (
	ratioPlaces = 3
	trustPlaces = 2
)

var (
	five = decimal.NewFromInt(5)
	ten  = decimal.NewFromInt(10)
	one  = decimal.NewFromInt(1)
)

// Distribution counts active reviews per star; index 0 holds 1-star reviews.
type Distribution [5]int

// Count returns the number of reviews with the given star rating, or 0 for
// ratings outside 1..5.
func (d Distribution) Count(stars int) int {
	if stars < 1 || stars > 5 {
		return 0
	}
	return d[stars-1]
}

func (d Distribution) Total() int {
	total := 0
	for _, n := range d {
		total += n
	}
	return total
}

// Tally is one consistent read of an agency's active reviews.
type Tally struct {
	Distribution Distribution `json:"distribution"`
	Verified     int          `json:"verified"`
}

// Aggregate is the derived rating and trust signal for one agency.
type Aggregate struct {
	AgencyID          id.AgencyID     `json:"agencyId"`
	Distribution      Distribution    `json:"distribution"`
	TotalReviews      int             `json:"totalReviews"`
	VerifiedReviews   int             `json:"verifiedReviews"`
	AverageRating     decimal.Decimal `json:"averageRating"`
	VerificationRatio decimal.Decimal `json:"verificationRatio"`
	ComplianceInput   decimal.Decimal `json:"complianceInput"`
	TrustScore        decimal.Decimal `json:"trustScore"`
	ComputedAt        time.Time       `json:"computedAt"`
}

// NextComputedAt stamps a write that follows one stamped prev. The result is
// now at microsecond precision, or one microsecond after prev when the clock
// has not moved past it, so stamps for one agency strictly increase in write
// order even across hosts with skewed clocks.
func NextComputedAt(prev, now time.Time) time.Time {
	now = now.UTC().Truncate(time.Microsecond)
	if !prev.IsZero() && !now.After(prev) {
		return prev.UTC().Truncate(time.Microsecond).Add(time.Microsecond)
	}
	return now
}

// Empty is the aggregate of an agency with no active reviews and no known
// compliance value.
func Empty(agencyID id.AgencyID) *Aggregate {
	return &Aggregate{
		AgencyID:          agencyID,
		AverageRating:     decimal.Zero,
		VerificationRatio: decimal.Zero,
		ComplianceInput:   decimal.Zero,
		TrustScore:        decimal.Zero,
	}
}

// ValidateCompliance rejects compliance values outside [0,1], including NaN.
func ValidateCompliance(compliance float64) error {
	if math.IsNaN(compliance) || compliance < 0 || compliance > 1 {
		return dErrors.Validation("compliance", "compliance must be between 0 and 1")
	}
	return nil
}

// Compute derives the aggregate from a tally. It is a pure function: the same
// tally and compliance always produce the same aggregate apart from ComputedAt.
//
// The trust score uses the unrounded average and ratio; only the published
// fields are rounded.
func Compute(agencyID id.AgencyID, tally Tally, compliance float64, now time.Time) (*Aggregate, error) {
	if err := ValidateCompliance(compliance); err != nil {
		return nil, err
	}

	total := tally.Distribution.Total()
	agg := Empty(agencyID)
	agg.Distribution = tally.Distribution
	agg.TotalReviews = total
	agg.VerifiedReviews = tally.Verified
	agg.ComplianceInput = decimal.NewFromFloat(compliance).Round(ratioPlaces)
	agg.ComputedAt = now

	avg, ratio := decimal.Zero, decimal.Zero
	if total > 0 {
		sum := int64(0)
		for stars := 1; stars <= 5; stars++ {
			sum += int64(stars * tally.Distribution.Count(stars))
		}
		n := decimal.NewFromInt(int64(total))
		avg = decimal.NewFromInt(sum).DivRound(n, 16)
		ratio = decimal.NewFromInt(int64(tally.Verified)).DivRound(n, 16)
	}
	agg.AverageRating = avg.Round(ratioPlaces)
	agg.VerificationRatio = ratio.Round(ratioPlaces)

	score := WeightRating.Mul(avg.Div(five)).
		Add(WeightVerification.Mul(ratio)).
		Add(WeightCompliance.Mul(decimal.NewFromFloat(compliance)))
	agg.TrustScore = clamp(score, decimal.Zero, one).Mul(ten).Round(trustPlaces)

	if err := agg.Check(); err != nil {
		return nil, err
	}
	return agg, nil
}

// Check verifies the aggregate's internal invariants. A failure means the
// tally it was built from was not a consistent snapshot.
func (a *Aggregate) Check() error {
	switch {
	case a.TotalReviews != a.Distribution.Total():
		return inconsistency("total %d does not match distribution sum %d", a.TotalReviews, a.Distribution.Total())
	case a.VerifiedReviews < 0 || a.VerifiedReviews > a.TotalReviews:
		return inconsistency("verified count %d outside [0,%d]", a.VerifiedReviews, a.TotalReviews)
	case a.VerificationRatio.IsNegative() || a.VerificationRatio.GreaterThan(one):
		return inconsistency("verification ratio %s outside [0,1]", a.VerificationRatio)
	case a.ComplianceInput.IsNegative() || a.ComplianceInput.GreaterThan(one):
		return inconsistency("compliance %s outside [0,1]", a.ComplianceInput)
	case a.TrustScore.IsNegative() || a.TrustScore.GreaterThan(ten):
		return inconsistency("trust score %s outside [0,10]", a.TrustScore)
	}
	for stars := 1; stars <= 5; stars++ {
		if a.Distribution.Count(stars) < 0 {
			return inconsistency("negative count for %d stars", stars)
		}
	}
	if a.TotalReviews == 0 {
		if !a.AverageRating.IsZero() || !a.VerificationRatio.IsZero() {
			return inconsistency("non-zero average or ratio without reviews")
		}
		return nil
	}
	if a.AverageRating.LessThan(one) || a.AverageRating.GreaterThan(five) {
		return inconsistency("average rating %s outside [1,5]", a.AverageRating)
	}
	return nil
}

func inconsistency(format string, args ...any) error {
	return dErrors.New(dErrors.CodeAggregationInconsistency, fmt.Sprintf(format, args...))
}

func clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}
