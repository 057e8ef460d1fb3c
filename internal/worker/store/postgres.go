package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"vouch/internal/worker/models"
	id "vouch/pkg/domain"
	txcontext "vouch/pkg/platform/tx"
)

// columns maps each field to its token column. Field values never reach SQL text
// except through this table.
var columns = map[models.IdentityField]string{
	models.FieldPassport: "passport_token",
	models.FieldNID:      "nid_token",
}

// PostgresStore keeps tokens in worker_identities.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgres(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func column(field models.IdentityField) (string, error) {
	col, ok := columns[field]
	if !ok {
		return "", fmt.Errorf("unknown identity field %q", field)
	}
	return col, nil
}

// SetToken upserts the token for field. An empty token stores NULL.
func (s *PostgresStore) SetToken(ctx context.Context, workerID id.WorkerID, field models.IdentityField, token string, now time.Time) error {
	col, err := column(field)
	if err != nil {
		return err
	}
	value := sql.NullString{String: token, Valid: token != ""}
	query := fmt.Sprintf(`
		INSERT INTO worker_identities (worker_id, %[1]s, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (worker_id) DO UPDATE
		SET %[1]s = EXCLUDED.%[1]s, updated_at = EXCLUDED.updated_at
	`, col)
	if _, err := txcontext.Pick(ctx, s.db).ExecContext(ctx, query, uuid.UUID(workerID), value, now); err != nil {
		return fmt.Errorf("upsert %s: %w", col, err)
	}
	return nil
}

// GetToken returns the stored token; ok is false for a missing row or NULL column.
func (s *PostgresStore) GetToken(ctx context.Context, workerID id.WorkerID, field models.IdentityField) (string, bool, error) {
	col, err := column(field)
	if err != nil {
		return "", false, err
	}
	var token sql.NullString
	query := fmt.Sprintf(`SELECT %s FROM worker_identities WHERE worker_id = $1`, col)
	err = sqlx.GetContext(ctx, txcontext.Pick(ctx, s.db), &token, query, uuid.UUID(workerID))
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select %s: %w", col, err)
	}
	return token.String, token.Valid, nil
}
