package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vouch/internal/worker/models"
	id "vouch/pkg/domain"
)

func TestInMemory(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	worker := id.WorkerID(uuid.New())
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	_, ok, err := s.GetToken(ctx, worker, models.FieldPassport)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetToken(ctx, worker, models.FieldPassport, "aa:bb", now))
	token, ok, err := s.GetToken(ctx, worker, models.FieldPassport)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "aa:bb", token)

	_, ok, _ = s.GetToken(ctx, worker, models.FieldNID)
	assert.False(t, ok, "fields are independent")

	require.NoError(t, s.SetToken(ctx, worker, models.FieldPassport, "", now))
	_, ok, _ = s.GetToken(ctx, worker, models.FieldPassport)
	assert.False(t, ok)
}
