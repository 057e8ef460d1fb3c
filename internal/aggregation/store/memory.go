// Package store persists agency rating aggregates. Apply serializes recomputes
// per agency so the tally and the write it produces are never interleaved with
// another recompute of the same agency.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"vouch/internal/aggregation/models"
	reviewmodels "vouch/internal/review/models"
	id "vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
)

// ComputeFunc turns a tally into the aggregate to persist. Returning an error
// aborts the write.
type ComputeFunc func(tally models.Tally) (*models.Aggregate, error)

// ReviewReader is the read side of the review store used for tallies.
type ReviewReader interface {
	ListByAgency(ctx context.Context, agencyID id.AgencyID, filter reviewmodels.ListFilter) ([]*reviewmodels.Review, error)
}

// InMemory keeps aggregates in a map and tallies from an in-memory review store.
type InMemory struct {
	reviews ReviewReader

	locksMu sync.Mutex
	locks   map[id.AgencyID]*sync.Mutex

	mu         sync.RWMutex
	aggregates map[id.AgencyID]*models.Aggregate
}

func NewInMemory(reviews ReviewReader) *InMemory {
	return &InMemory{
		reviews:    reviews,
		locks:      make(map[id.AgencyID]*sync.Mutex),
		aggregates: make(map[id.AgencyID]*models.Aggregate),
	}
}

func (s *InMemory) agencyLock(agencyID id.AgencyID) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[agencyID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[agencyID] = l
	}
	return l
}

// Apply tallies the agency's active reviews and stores compute's result while
// holding the agency's lock.
func (s *InMemory) Apply(ctx context.Context, agencyID id.AgencyID, compute ComputeFunc) (*models.Aggregate, error) {
	l := s.agencyLock(agencyID)
	l.Lock()
	defer l.Unlock()

	active, err := s.reviews.ListByAgency(ctx, agencyID, reviewmodels.ListFilter{Status: reviewmodels.StatusActive})
	if err != nil {
		return nil, fmt.Errorf("tally reviews: %w", err)
	}
	agg, err := compute(TallyReviews(active))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var prev time.Time
	if old, ok := s.aggregates[agencyID]; ok {
		prev = old.ComputedAt
	}
	agg.ComputedAt = models.NextComputedAt(prev, agg.ComputedAt)
	cp := *agg
	s.aggregates[agencyID] = &cp
	return agg, nil
}

func (s *InMemory) Get(_ context.Context, agencyID id.AgencyID) (*models.Aggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	agg, ok := s.aggregates[agencyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *agg
	return &cp, nil
}

// TallyReviews counts active reviews by rating and verification. Reviews that
// are not active are skipped.
func TallyReviews(reviews []*reviewmodels.Review) models.Tally {
	var t models.Tally
	for _, r := range reviews {
		if !r.IsActive() || r.Rating < reviewmodels.MinRating || r.Rating > reviewmodels.MaxRating {
			continue
		}
		t.Distribution[r.Rating-1]++
		if r.VerificationStatus == reviewmodels.VerificationVerified {
			t.Verified++
		}
	}
	return t
}
