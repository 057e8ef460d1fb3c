package store

import (
	"context"
	"sort"
	"sync"

	"vouch/internal/review/models"
	id "vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
)

type pairKey struct {
	agency id.AgencyID
	worker id.WorkerID
}

// InMemory is a thread-safe review store. The pair index mirrors the
// reviews_agency_worker_key unique constraint.
type InMemory struct {
	mu      sync.RWMutex
	reviews map[id.ReviewID]*models.Review
	pairs   map[pairKey]id.ReviewID
}

func NewInMemory() *InMemory {
	return &InMemory{
		reviews: make(map[id.ReviewID]*models.Review),
		pairs:   make(map[pairKey]id.ReviewID),
	}
}

// Create inserts r, or returns sentinel.ErrAlreadyUsed when the worker has
// already reviewed the agency.
func (s *InMemory) Create(_ context.Context, r *models.Review) error {
	key := pairKey{agency: r.AgencyID, worker: r.WorkerID}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.pairs[key]; taken {
		return sentinel.ErrAlreadyUsed
	}
	if _, taken := s.reviews[r.ID]; taken {
		return sentinel.ErrAlreadyUsed
	}
	cp := *r
	s.reviews[r.ID] = &cp
	s.pairs[key] = r.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, reviewID id.ReviewID) (*models.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reviews[reviewID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

// ListByAgency returns the agency's reviews, newest first.
func (s *InMemory) ListByAgency(_ context.Context, agencyID id.AgencyID, filter models.ListFilter) ([]*models.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Review, 0)
	for _, r := range s.reviews {
		if r.AgencyID != agencyID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// UpdateIfVersion replaces the stored review when its version still equals
// expected. r.Version must already carry the new version. Counters are left
// as stored unless resetReports is set.
func (s *InMemory) UpdateIfVersion(_ context.Context, r *models.Review, expected int64, resetReports bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.reviews[r.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Version != expected {
		return sentinel.ErrConflict
	}
	cp := *r
	cp.HelpfulCount = current.HelpfulCount
	cp.ReportCount = current.ReportCount
	if resetReports {
		cp.ReportCount = 0
	}
	s.reviews[r.ID] = &cp
	return nil
}

func (s *InMemory) IncrementHelpful(_ context.Context, reviewID id.ReviewID) (*models.Review, error) {
	return s.increment(reviewID, func(r *models.Review) { r.HelpfulCount++ })
}

func (s *InMemory) IncrementReports(_ context.Context, reviewID id.ReviewID) (*models.Review, error) {
	return s.increment(reviewID, func(r *models.Review) { r.ReportCount++ })
}

func (s *InMemory) increment(reviewID id.ReviewID, bump func(*models.Review)) (*models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[reviewID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if r.IsDeleted() {
		return nil, sentinel.ErrInvalidState
	}
	bump(r)
	cp := *r
	return &cp, nil
}

// AgencyIDs lists every agency with at least one review.
func (s *InMemory) AgencyIDs(_ context.Context) ([]id.AgencyID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[id.AgencyID]struct{})
	out := make([]id.AgencyID, 0)
	for _, r := range s.reviews {
		if _, ok := seen[r.AgencyID]; ok {
			continue
		}
		seen[r.AgencyID] = struct{}{}
		out = append(out, r.AgencyID)
	}
	return out, nil
}
