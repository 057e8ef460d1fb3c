// Package agency holds the collaborators the review core consumes about
// agencies: who owns or operates them, and their regulatory compliance score.
package agency

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	id "vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
	txcontext "vouch/pkg/platform/tx"
)

const (
	RoleOwner    = "owner"
	RoleOperator = "operator"
	RoleMember   = "member"
)

// blockingRoles make a worker ineligible to review the agency.
var blockingRoles = []string{RoleOwner, RoleOperator}

// PostgresOwnership answers ownership questions from agency_members.
type PostgresOwnership struct {
	db *sqlx.DB
}

func NewPostgresOwnership(db *sqlx.DB) *PostgresOwnership {
	return &PostgresOwnership{db: db}
}

// IsOwner reports whether workerID is an owner or operator of agencyID.
// Timeouts are reported as sentinel.ErrUnavailable.
func (s *PostgresOwnership) IsOwner(ctx context.Context, workerID id.WorkerID, agencyID id.AgencyID) (bool, error) {
	var owner bool
	query := `SELECT EXISTS (
		SELECT 1 FROM agency_members
		WHERE agency_id = $1 AND worker_id = $2 AND role = ANY($3)
	)`
	err := sqlx.GetContext(ctx, txcontext.Pick(ctx, s.db), &owner, query,
		uuid.UUID(agencyID), uuid.UUID(workerID), pq.Array(blockingRoles))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return false, fmt.Errorf("ownership lookup: %w", sentinel.ErrUnavailable)
		}
		return false, fmt.Errorf("ownership lookup: %w", err)
	}
	return owner, nil
}

// AddMember records a worker's role in an agency. Used by seeding and tests;
// membership management is owned by the agency product.
func (s *PostgresOwnership) AddMember(ctx context.Context, agencyID id.AgencyID, name string, workerID id.WorkerID, role string) error {
	exec := txcontext.Pick(ctx, s.db)
	if _, err := exec.ExecContext(ctx,
		`INSERT INTO agencies (id, name) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`,
		uuid.UUID(agencyID), name); err != nil {
		return fmt.Errorf("insert agency: %w", err)
	}
	if _, err := exec.ExecContext(ctx,
		`INSERT INTO agency_members (agency_id, worker_id, role) VALUES ($1, $2, $3)
		 ON CONFLICT (agency_id, worker_id) DO UPDATE SET role = EXCLUDED.role`,
		uuid.UUID(agencyID), uuid.UUID(workerID), role); err != nil {
		return fmt.Errorf("insert agency member: %w", err)
	}
	return nil
}

type memberKey struct {
	agency id.AgencyID
	worker id.WorkerID
}

// InMemoryOwnership is a map-backed lookup for tests and local runs.
type InMemoryOwnership struct {
	mu      sync.RWMutex
	members map[memberKey]string
}

func NewInMemoryOwnership() *InMemoryOwnership {
	return &InMemoryOwnership{members: make(map[memberKey]string)}
}

func (s *InMemoryOwnership) AddMember(_ context.Context, agencyID id.AgencyID, _ string, workerID id.WorkerID, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[memberKey{agency: agencyID, worker: workerID}] = role
	return nil
}

func (s *InMemoryOwnership) IsOwner(_ context.Context, workerID id.WorkerID, agencyID id.AgencyID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	role, ok := s.members[memberKey{agency: agencyID, worker: workerID}]
	if !ok {
		return false, nil
	}
	return role == RoleOwner || role == RoleOperator, nil
}
