package repositories

import (
	"context"
	"testing"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preenhq/payments-service/internal/models"
)

type versionedRow struct {
	models.Versioned
	ID    string
	Value string
}

func (r *versionedRow) GetID() string { return r.ID }

// contendedStore simulates a row whose version moves underneath the caller
// for the first n update attempts.
type contendedStore struct {
	row         *versionedRow
	loseRaces   int
	updateCalls int
}

func (s *contendedStore) getByID(_ context.Context, id string) (*versionedRow, error) {
	if s.row == nil || s.row.ID != id {
		return nil, nil
	}
	cp := *s.row
	return &cp, nil
}

func (s *contendedStore) updateIfVersion(_ context.Context, row *versionedRow, expectedVersion int64) (pgconn.CommandTag, error) {
	s.updateCalls++
	if s.loseRaces > 0 {
		s.loseRaces--
		s.row.RowVersion++ // the competing writer got there first
		return pgconn.CommandTag("UPDATE 0"), nil
	}
	if s.row.RowVersion != expectedVersion {
		return pgconn.CommandTag("UPDATE 0"), nil
	}
	cp := *row
	cp.RowVersion = expectedVersion + 1
	s.row = &cp
	return pgconn.CommandTag("UPDATE 1"), nil
}

func TestWithRetryAppliesMutate(t *testing.T) {
	store := &contendedStore{row: &versionedRow{ID: "row-1", Value: "old"}}
	store.row.RowVersion = 1

	err := WithRetry(context.Background(), "row-1", store.getByID, store.updateIfVersion,
		func(r *versionedRow) error {
			r.Value = "new"
			return nil
		})

	require.NoError(t, err)
	assert.Equal(t, "new", store.row.Value)
	assert.Equal(t, int64(2), store.row.RowVersion)
}

func TestWithRetryRecoversFromLostVersionRace(t *testing.T) {
	store := &contendedStore{row: &versionedRow{ID: "row-1", Value: "old"}, loseRaces: 2}
	store.row.RowVersion = 1

	err := WithRetry(context.Background(), "row-1", store.getByID, store.updateIfVersion,
		func(r *versionedRow) error {
			r.Value = "new"
			return nil
		})

	require.NoError(t, err)
	assert.Equal(t, "new", store.row.Value)
	assert.Equal(t, 3, store.updateCalls)
}

func TestWithRetryGivesUpAfterMaxAttempts(t *testing.T) {
	store := &contendedStore{row: &versionedRow{ID: "row-1"}, loseRaces: updateMaxAttempts}
	store.row.RowVersion = 1

	err := WithRetry(context.Background(), "row-1", store.getByID, store.updateIfVersion,
		func(r *versionedRow) error { return nil })

	require.Error(t, err)
	assert.Contains(t, err.Error(), "row version race")
	assert.Equal(t, updateMaxAttempts, store.updateCalls)
}

func TestWithRetryReportsMissingRow(t *testing.T) {
	store := &contendedStore{}

	err := WithRetry(context.Background(), "missing", store.getByID, store.updateIfVersion,
		func(r *versionedRow) error { return nil })

	require.ErrorIs(t, err, pgx.ErrNoRows)
	assert.Zero(t, store.updateCalls)
}
