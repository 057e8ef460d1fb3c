package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"vouch/internal/aggregation/models"
	id "vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
	txcontext "vouch/pkg/platform/tx"
)

// PostgresStore writes agency_ratings. Apply takes a transaction-scoped
// advisory lock keyed by the agency so concurrent recomputes of one agency
// run one after another, and tallies in a single statement so the counts come
// from one snapshot.
type PostgresStore struct {
	db *sqlx.DB
	tx *txcontext.Runner
}

func NewPostgres(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db, tx: txcontext.NewRunner(db)}
}

type tallyRow struct {
	Count1   int `db:"count_1"`
	Count2   int `db:"count_2"`
	Count3   int `db:"count_3"`
	Count4   int `db:"count_4"`
	Count5   int `db:"count_5"`
	Verified int `db:"verified"`
}

type aggregateRow struct {
	AgencyID          uuid.UUID       `db:"agency_id"`
	Count1            int             `db:"count_1"`
	Count2            int             `db:"count_2"`
	Count3            int             `db:"count_3"`
	Count4            int             `db:"count_4"`
	Count5            int             `db:"count_5"`
	TotalReviews      int             `db:"total_reviews"`
	VerifiedReviews   int             `db:"verified_reviews"`
	AverageRating     decimal.Decimal `db:"average_rating"`
	VerificationRatio decimal.Decimal `db:"verification_ratio"`
	ComplianceInput   decimal.Decimal `db:"compliance_input"`
	TrustScore        decimal.Decimal `db:"trust_score"`
	ComputedAt        time.Time       `db:"computed_at"`
}

func toAggregateRow(a *models.Aggregate) aggregateRow {
	return aggregateRow{
		AgencyID:          uuid.UUID(a.AgencyID),
		Count1:            a.Distribution.Count(1),
		Count2:            a.Distribution.Count(2),
		Count3:            a.Distribution.Count(3),
		Count4:            a.Distribution.Count(4),
		Count5:            a.Distribution.Count(5),
		TotalReviews:      a.TotalReviews,
		VerifiedReviews:   a.VerifiedReviews,
		AverageRating:     a.AverageRating,
		VerificationRatio: a.VerificationRatio,
		ComplianceInput:   a.ComplianceInput,
		TrustScore:        a.TrustScore,
		ComputedAt:        a.ComputedAt,
	}
}

func (row aggregateRow) toModel() *models.Aggregate {
	return &models.Aggregate{
		AgencyID:          id.AgencyID(row.AgencyID),
		Distribution:      models.Distribution{row.Count1, row.Count2, row.Count3, row.Count4, row.Count5},
		TotalReviews:      row.TotalReviews,
		VerifiedReviews:   row.VerifiedReviews,
		AverageRating:     row.AverageRating,
		VerificationRatio: row.VerificationRatio,
		ComplianceInput:   row.ComplianceInput,
		TrustScore:        row.TrustScore,
		ComputedAt:        row.ComputedAt,
	}
}

func (s *PostgresStore) Apply(ctx context.Context, agencyID id.AgencyID, compute ComputeFunc) (*models.Aggregate, error) {
	var out *models.Aggregate
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		exec := txcontext.Pick(ctx, s.db)
		if _, err := exec.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, agencyID.String()); err != nil {
			return fmt.Errorf("lock agency aggregate: %w", err)
		}

		var t tallyRow
		query := `
			SELECT
				COUNT(*) FILTER (WHERE rating = 1) AS count_1,
				COUNT(*) FILTER (WHERE rating = 2) AS count_2,
				COUNT(*) FILTER (WHERE rating = 3) AS count_3,
				COUNT(*) FILTER (WHERE rating = 4) AS count_4,
				COUNT(*) FILTER (WHERE rating = 5) AS count_5,
				COUNT(*) FILTER (WHERE verification_status = 'verified') AS verified
			FROM reviews
			WHERE agency_id = $1 AND status = 'active'
		`
		if err := sqlx.GetContext(ctx, exec, &t, query, uuid.UUID(agencyID)); err != nil {
			return fmt.Errorf("tally reviews: %w", err)
		}

		var prev time.Time
		err := sqlx.GetContext(ctx, exec, &prev,
			`SELECT computed_at FROM agency_ratings WHERE agency_id = $1`, uuid.UUID(agencyID))
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("load previous computed_at: %w", err)
		}

		agg, err := compute(models.Tally{
			Distribution: models.Distribution{t.Count1, t.Count2, t.Count3, t.Count4, t.Count5},
			Verified:     t.Verified,
		})
		if err != nil {
			return err
		}
		agg.ComputedAt = models.NextComputedAt(prev, agg.ComputedAt)

		upsert := `
			INSERT INTO agency_ratings (agency_id, count_1, count_2, count_3, count_4, count_5,
				total_reviews, verified_reviews, average_rating, verification_ratio, compliance_input,
				trust_score, computed_at)
			VALUES (:agency_id, :count_1, :count_2, :count_3, :count_4, :count_5,
				:total_reviews, :verified_reviews, :average_rating, :verification_ratio, :compliance_input,
				:trust_score, :computed_at)
			ON CONFLICT (agency_id) DO UPDATE SET
				count_1 = EXCLUDED.count_1,
				count_2 = EXCLUDED.count_2,
				count_3 = EXCLUDED.count_3,
				count_4 = EXCLUDED.count_4,
				count_5 = EXCLUDED.count_5,
				total_reviews = EXCLUDED.total_reviews,
				verified_reviews = EXCLUDED.verified_reviews,
				average_rating = EXCLUDED.average_rating,
				verification_ratio = EXCLUDED.verification_ratio,
				compliance_input = EXCLUDED.compliance_input,
				trust_score = EXCLUDED.trust_score,
				computed_at = EXCLUDED.computed_at
		`
		if _, err := sqlx.NamedExecContext(ctx, exec, upsert, toAggregateRow(agg)); err != nil {
			return fmt.Errorf("upsert agency rating: %w", err)
		}
		out = agg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, agencyID id.AgencyID) (*models.Aggregate, error) {
	var row aggregateRow
	query := `
		SELECT agency_id, count_1, count_2, count_3, count_4, count_5, total_reviews, verified_reviews,
			average_rating, verification_ratio, compliance_input, trust_score, computed_at
		FROM agency_ratings WHERE agency_id = $1
	`
	if err := sqlx.GetContext(ctx, txcontext.Pick(ctx, s.db), &row, query, uuid.UUID(agencyID)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get agency rating: %w", err)
	}
	return row.toModel(), nil
}
