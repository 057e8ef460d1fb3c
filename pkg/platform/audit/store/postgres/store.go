package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	id "vouch/pkg/domain"
	audit "vouch/pkg/platform/audit"
	txcontext "vouch/pkg/platform/tx"
)

// Store implements audit.Store on the audit_events table. Appends join the
// transaction carried in ctx, so an audit row commits or rolls back together
// with the change it describes.
type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

type eventRow struct {
	Category  string     `db:"category"`
	Timestamp time.Time  `db:"timestamp"`
	WorkerID  *uuid.UUID `db:"worker_id"`
	Subject   string     `db:"subject"`
	Action    string     `db:"action"`
	Reason    string     `db:"reason"`
	RequestID string     `db:"request_id"`
	ActorID   string     `db:"actor_id"`
}

// Append inserts an audit event. The category is always derived from the action.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	var workerID *uuid.UUID
	if !event.WorkerID.IsNil() {
		wid := uuid.UUID(event.WorkerID)
		workerID = &wid
	}
	category := audit.AuditEvent(event.Action).Category()

	query := `
		INSERT INTO audit_events (
			id, category, timestamp, worker_id, subject, action, reason, request_id, actor_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := txcontext.Pick(ctx, s.db).ExecContext(ctx, query,
		uuid.New(),
		string(category),
		event.Timestamp,
		workerID,
		event.Subject,
		event.Action,
		event.Reason,
		event.RequestID,
		event.ActorID,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByWorker returns events for a worker, oldest first.
func (s *Store) ListByWorker(ctx context.Context, workerID id.WorkerID) ([]audit.Event, error) {
	query := `
		SELECT category, timestamp, worker_id, subject, action, reason, request_id, actor_id
		FROM audit_events
		WHERE worker_id = $1
		ORDER BY timestamp ASC
	`
	var rows []eventRow
	if err := sqlx.SelectContext(ctx, s.db, &rows, query, uuid.UUID(workerID)); err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}

	events := make([]audit.Event, 0, len(rows))
	for _, row := range rows {
		event := audit.Event{
			Category:  audit.EventCategory(row.Category),
			Timestamp: row.Timestamp,
			Subject:   row.Subject,
			Action:    row.Action,
			Reason:    row.Reason,
			RequestID: row.RequestID,
			ActorID:   row.ActorID,
		}
		if row.WorkerID != nil {
			event.WorkerID = id.WorkerID(*row.WorkerID)
		}
		events = append(events, event)
	}
	return events, nil
}
