package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
)

// Webhook redeliveries and the cron sweeps can race on the same transaction
// or disbursement row; three attempts has been plenty in practice since each
// retry re-reads the row and usually finds the competing transition already
// applied (making the mutate a no-op).
const updateMaxAttempts = 3

// EntityWithVersion is satisfied by models embedding Versioned. The
// comparable constraint lets the retry loop detect a missing row by
// comparing against the zero value (nil for pointer types).
type EntityWithVersion interface {
	comparable
	GetID() string
	GetRowVersion() int64
	SetRowVersion(int64)
}

// UpdateIfVersionFunc persists an entity only when the stored row_version
// still matches expectedVersion; the command tag reports whether it did.
type UpdateIfVersionFunc[T EntityWithVersion] func(
	ctx context.Context,
	entity T,
	expectedVersion int64,
) (pgconn.CommandTag, error)

type GetByIDFunc[T EntityWithVersion] func(
	ctx context.Context,
	id string,
) (T, error)

// WithRetry runs a read-mutate-update loop under optimistic locking: fetch
// the row, apply mutate to it, and write it back guarded by the row version
// seen at read time. A lost version race re-reads and tries again, up to
// updateMaxAttempts. Returns pgx.ErrNoRows when the row does not exist.
func WithRetry[T EntityWithVersion](
	ctx context.Context,
	id string,
	getByID GetByIDFunc[T],
	updateIfVersion UpdateIfVersionFunc[T],
	mutate func(T) error,
) error {
	for attempt := 0; attempt < updateMaxAttempts; attempt++ {
		current, err := getByID(ctx, id)
		if err != nil {
			return err
		}

		var zero T
		if current == zero {
			return pgx.ErrNoRows
		}

		readVersion := current.GetRowVersion()

		if err := mutate(current); err != nil {
			return err
		}

		tag, err := updateIfVersion(ctx, current, readVersion)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 1 {
			return nil
		}
		// lost the version race, re-read and retry
	}
	return fmt.Errorf("update of %q lost the row version race %d times", id, updateMaxAttempts)
}
