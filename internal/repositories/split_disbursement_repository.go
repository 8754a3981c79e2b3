package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"github.com/preenhq/payments-service/internal/models"
)

type SplitDisbursementRepository interface {
	// CreateIfNotExists inserts one disbursement row; duplicates on
	// (transaction_id, position) are ignored so a redelivered "payment
	// completed" event cannot double-create rows.
	CreateIfNotExists(ctx context.Context, d *models.SplitDisbursement) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.SplitDisbursement, error)
	ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]*models.SplitDisbursement, error)
	ListPendingByTransaction(ctx context.Context, transactionID uuid.UUID) ([]*models.SplitDisbursement, error)
	UpdateIfVersion(ctx context.Context, d *models.SplitDisbursement, expectedVersion int64) (pgconn.CommandTag, error)
	UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.SplitDisbursement) error) error
}

type splitDisbursementRepo struct {
	*BaseVersionedRepo[*models.SplitDisbursement]
	db DB
}

func NewSplitDisbursementRepository(db DB) SplitDisbursementRepository {
	r := &splitDisbursementRepo{db: db}
	selectStmt := baseSelectDisbursement() + " WHERE id = $1"
	r.BaseVersionedRepo = NewBaseRepo(db, selectStmt, scanDisbursement)
	return r
}

func baseSelectDisbursement() string {
	return `
        SELECT
            id, transaction_id, recipient_id, recipient_type,
            recipient_user_id, recipient_email, recipient_name, position,
            split_amount, split_percentage_applied, distribution_status,
            processor_transfer_id, distribution_fee, distributed_at,
            failure_reason, metadata, created_at, updated_at, row_version
        FROM split_disbursements
    `
}

func scanDisbursement(row pgx.Row) (*models.SplitDisbursement, error) {
	var d models.SplitDisbursement
	err := row.Scan(
		&d.ID,
		&d.TransactionID,
		&d.RecipientID,
		&d.RecipientType,
		&d.RecipientUserID,
		&d.RecipientEmail,
		&d.RecipientName,
		&d.Position,
		&d.SplitAmount,
		&d.SplitPercentageApplied,
		&d.DistributionStatus,
		&d.ProcessorTransferID,
		&d.DistributionFee,
		&d.DistributedAt,
		&d.FailureReason,
		&d.Metadata,
		&d.CreatedAt,
		&d.UpdatedAt,
		&d.RowVersion,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *splitDisbursementRepo) CreateIfNotExists(ctx context.Context, d *models.SplitDisbursement) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO split_disbursements (
            id, transaction_id, recipient_id, recipient_type,
            recipient_user_id, recipient_email, recipient_name, position,
            split_amount, split_percentage_applied, distribution_status,
            processor_transfer_id, distribution_fee, distributed_at,
            failure_reason, metadata, created_at, updated_at, row_version
        ) VALUES (
            $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,NOW(),NOW(),1
        )
        ON CONFLICT (transaction_id, position) DO NOTHING
    `,
		d.ID,
		d.TransactionID,
		d.RecipientID,
		d.RecipientType,
		d.RecipientUserID,
		d.RecipientEmail,
		d.RecipientName,
		d.Position,
		d.SplitAmount,
		d.SplitPercentageApplied,
		d.DistributionStatus,
		d.ProcessorTransferID,
		d.DistributionFee,
		d.DistributedAt,
		d.FailureReason,
		d.Metadata,
	)
	return err
}

func (r *splitDisbursementRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.SplitDisbursement, error) {
	return r.BaseVersionedRepo.GetByID(ctx, id.String())
}

func (r *splitDisbursementRepo) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]*models.SplitDisbursement, error) {
	q := baseSelectDisbursement() + " WHERE transaction_id = $1 ORDER BY position"
	rows, err := r.db.Query(ctx, q, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var disbursements []*models.SplitDisbursement
	for rows.Next() {
		d, err := scanDisbursement(rows)
		if err != nil {
			return nil, err
		}
		disbursements = append(disbursements, d)
	}
	return disbursements, rows.Err()
}

func (r *splitDisbursementRepo) ListPendingByTransaction(ctx context.Context, transactionID uuid.UUID) ([]*models.SplitDisbursement, error) {
	q := baseSelectDisbursement() + " WHERE transaction_id = $1 AND distribution_status = 'PENDING' ORDER BY position"
	rows, err := r.db.Query(ctx, q, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var disbursements []*models.SplitDisbursement
	for rows.Next() {
		d, err := scanDisbursement(rows)
		if err != nil {
			return nil, err
		}
		disbursements = append(disbursements, d)
	}
	return disbursements, rows.Err()
}

func (r *splitDisbursementRepo) UpdateIfVersion(ctx context.Context, d *models.SplitDisbursement, expectedVersion int64) (pgconn.CommandTag, error) {
	q := `
        UPDATE split_disbursements SET
            distribution_status = $1,
            processor_transfer_id = $2,
            distribution_fee = $3,
            distributed_at = $4,
            failure_reason = $5,
            metadata = $6,
            updated_at = NOW(),
            row_version = row_version + 1
        WHERE id = $7 AND row_version = $8
    `
	return r.db.Exec(ctx, q,
		d.DistributionStatus, d.ProcessorTransferID, d.DistributionFee,
		d.DistributedAt, d.FailureReason, d.Metadata, d.ID, expectedVersion)
}

func (r *splitDisbursementRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.SplitDisbursement) error) error {
	return r.BaseVersionedRepo.UpdateWithRetry(ctx, id.String(), mutate, r.UpdateIfVersion)
}
