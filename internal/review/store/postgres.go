package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"vouch/internal/review/models"
	id "vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
	txcontext "vouch/pkg/platform/tx"
)

const (
	uniqueViolation     = "23505"
	agencyWorkerKey     = "reviews_agency_worker_key"
	reviewSelectColumns = `id, agency_id, worker_id, rating, comment, verification_status, is_anonymous,
		helpful_count, report_count, status, version, created_at, updated_at`
)

// PostgresStore persists reviews in PostgreSQL. Queries join the caller's
// transaction when one is carried in ctx.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgres(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type reviewRow struct {
	ID                 uuid.UUID `db:"id"`
	AgencyID           uuid.UUID `db:"agency_id"`
	WorkerID           uuid.UUID `db:"worker_id"`
	Rating             int       `db:"rating"`
	Comment            string    `db:"comment"`
	VerificationStatus string    `db:"verification_status"`
	IsAnonymous        bool      `db:"is_anonymous"`
	HelpfulCount       int       `db:"helpful_count"`
	ReportCount        int       `db:"report_count"`
	Status             string    `db:"status"`
	Version            int64     `db:"version"`
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`
}

func toRow(r *models.Review) reviewRow {
	return reviewRow{
		ID:                 uuid.UUID(r.ID),
		AgencyID:           uuid.UUID(r.AgencyID),
		WorkerID:           uuid.UUID(r.WorkerID),
		Rating:             r.Rating,
		Comment:            r.Comment,
		VerificationStatus: string(r.VerificationStatus),
		IsAnonymous:        r.IsAnonymous,
		HelpfulCount:       r.HelpfulCount,
		ReportCount:        r.ReportCount,
		Status:             string(r.Status),
		Version:            r.Version,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

func (row reviewRow) toModel() *models.Review {
	return &models.Review{
		ID:                 id.ReviewID(row.ID),
		AgencyID:           id.AgencyID(row.AgencyID),
		WorkerID:           id.WorkerID(row.WorkerID),
		Rating:             row.Rating,
		Comment:            row.Comment,
		VerificationStatus: models.VerificationStatus(row.VerificationStatus),
		IsAnonymous:        row.IsAnonymous,
		HelpfulCount:       row.HelpfulCount,
		ReportCount:        row.ReportCount,
		Status:             models.Status(row.Status),
		Version:            row.Version,
		CreatedAt:          row.CreatedAt,
		UpdatedAt:          row.UpdatedAt,
	}
}

// Create inserts r. The unique constraint on (agency_id, worker_id) is the
// single arbiter of concurrent submissions; a violation maps to
// sentinel.ErrAlreadyUsed.
func (s *PostgresStore) Create(ctx context.Context, r *models.Review) error {
	query := `
		INSERT INTO reviews (id, agency_id, worker_id, rating, comment, verification_status, is_anonymous,
			helpful_count, report_count, status, version, created_at, updated_at)
		VALUES (:id, :agency_id, :worker_id, :rating, :comment, :verification_status, :is_anonymous,
			:helpful_count, :report_count, :status, :version, :created_at, :updated_at)
	`
	if _, err := sqlx.NamedExecContext(ctx, txcontext.Pick(ctx, s.db), query, toRow(r)); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			if pgErr.ConstraintName == agencyWorkerKey {
				return sentinel.ErrAlreadyUsed
			}
			return fmt.Errorf("create review: unique constraint %s: %w", pgErr.ConstraintName, sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, reviewID id.ReviewID) (*models.Review, error) {
	var row reviewRow
	query := `SELECT ` + reviewSelectColumns + ` FROM reviews WHERE id = $1`
	if err := sqlx.GetContext(ctx, txcontext.Pick(ctx, s.db), &row, query, uuid.UUID(reviewID)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find review by id: %w", err)
	}
	return row.toModel(), nil
}

// ListByAgency returns the agency's reviews, newest first.
func (s *PostgresStore) ListByAgency(ctx context.Context, agencyID id.AgencyID, filter models.ListFilter) ([]*models.Review, error) {
	var rows []reviewRow
	query := `SELECT ` + reviewSelectColumns + ` FROM reviews
		WHERE agency_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC, id`
	if err := sqlx.SelectContext(ctx, txcontext.Pick(ctx, s.db), &rows, query, uuid.UUID(agencyID), string(filter.Status)); err != nil {
		return nil, fmt.Errorf("list reviews by agency: %w", err)
	}
	out := make([]*models.Review, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
}

// UpdateIfVersion writes content and moderation fields when the stored
// version equals expected. Counters are never overwritten from the
// application; resetReports zeroes report_count in the same statement.
func (s *PostgresStore) UpdateIfVersion(ctx context.Context, r *models.Review, expected int64, resetReports bool) error {
	query := `
		UPDATE reviews SET
			rating = $3,
			comment = $4,
			verification_status = $5,
			is_anonymous = $6,
			status = $7,
			version = $8,
			updated_at = $9,
			report_count = CASE WHEN $10 THEN 0 ELSE report_count END
		WHERE id = $1 AND version = $2
	`
	exec := txcontext.Pick(ctx, s.db)
	res, err := exec.ExecContext(ctx, query,
		uuid.UUID(r.ID), expected,
		r.Rating, r.Comment, string(r.VerificationStatus), r.IsAnonymous, string(r.Status),
		r.Version, r.UpdatedAt, resetReports,
	)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update review rows affected: %w", err)
	}
	if affected == 1 {
		return nil
	}
	if _, err := s.FindByID(ctx, r.ID); err != nil {
		return err
	}
	return sentinel.ErrConflict
}

func (s *PostgresStore) IncrementHelpful(ctx context.Context, reviewID id.ReviewID) (*models.Review, error) {
	return s.increment(ctx, reviewID, `UPDATE reviews SET helpful_count = helpful_count + 1
		WHERE id = $1 AND status <> 'deleted' RETURNING `+reviewSelectColumns)
}

func (s *PostgresStore) IncrementReports(ctx context.Context, reviewID id.ReviewID) (*models.Review, error) {
	return s.increment(ctx, reviewID, `UPDATE reviews SET report_count = report_count + 1
		WHERE id = $1 AND status <> 'deleted' RETURNING `+reviewSelectColumns)
}

// increment runs a single-statement counter bump so concurrent votes never
// lose updates. No row means the review is missing or deleted.
func (s *PostgresStore) increment(ctx context.Context, reviewID id.ReviewID, query string) (*models.Review, error) {
	var row reviewRow
	err := sqlx.GetContext(ctx, txcontext.Pick(ctx, s.db), &row, query, uuid.UUID(reviewID))
	if err == nil {
		return row.toModel(), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("increment review counter: %w", err)
	}
	if _, findErr := s.FindByID(ctx, reviewID); findErr != nil {
		return nil, findErr
	}
	return nil, sentinel.ErrInvalidState
}

// AgencyIDs lists every agency with at least one review.
func (s *PostgresStore) AgencyIDs(ctx context.Context) ([]id.AgencyID, error) {
	var ids []uuid.UUID
	if err := sqlx.SelectContext(ctx, txcontext.Pick(ctx, s.db), &ids, `SELECT DISTINCT agency_id FROM reviews`); err != nil {
		return nil, fmt.Errorf("list reviewed agencies: %w", err)
	}
	out := make([]id.AgencyID, 0, len(ids))
	for _, u := range ids {
		out = append(out, id.AgencyID(u))
	}
	return out, nil
}
