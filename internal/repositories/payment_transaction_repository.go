package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"github.com/preenhq/payments-service/internal/models"
)

type PaymentTransactionRepository interface {
	Create(ctx context.Context, txn *models.PaymentTransaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.PaymentTransaction, error)
	GetByProcessorPaymentID(ctx context.Context, processor models.ProcessorType, processorPaymentID string) (*models.PaymentTransaction, error)
	ListByLink(ctx context.Context, linkID uuid.UUID) ([]*models.PaymentTransaction, error)
	ListByStatus(ctx context.Context, status models.TransactionStatusType) ([]*models.PaymentTransaction, error)
	UpdateIfVersion(ctx context.Context, txn *models.PaymentTransaction, expectedVersion int64) (pgconn.CommandTag, error)
	UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.PaymentTransaction) error) error
	ExpirePendingOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type paymentTransactionRepo struct {
	*BaseVersionedRepo[*models.PaymentTransaction]
	db DB
}

func NewPaymentTransactionRepository(db DB) PaymentTransactionRepository {
	r := &paymentTransactionRepo{db: db}
	selectStmt := baseSelectTransaction() + " WHERE id = $1"
	r.BaseVersionedRepo = NewBaseRepo(db, selectStmt, scanTransaction)
	return r
}

func baseSelectTransaction() string {
	return `
        SELECT
            id, payment_link_id, amount, currency, status,
            processor, processor_payment_id, payer_email,
            completed_at, created_at, updated_at, row_version
        FROM payment_transactions
    `
}

func scanTransaction(row pgx.Row) (*models.PaymentTransaction, error) {
	var t models.PaymentTransaction
	err := row.Scan(
		&t.ID,
		&t.PaymentLinkID,
		&t.Amount,
		&t.Currency,
		&t.Status,
		&t.Processor,
		&t.ProcessorPaymentID,
		&t.PayerEmail,
		&t.CompletedAt,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.RowVersion,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *paymentTransactionRepo) Create(ctx context.Context, txn *models.PaymentTransaction) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO payment_transactions (
            id, payment_link_id, amount, currency, status,
            processor, processor_payment_id, payer_email,
            completed_at, created_at, updated_at, row_version
        ) VALUES (
            $1,$2,$3,$4,$5,$6,$7,$8,$9,NOW(),NOW(),1
        )
        ON CONFLICT (processor, processor_payment_id) DO NOTHING
    `,
		txn.ID,
		txn.PaymentLinkID,
		txn.Amount,
		txn.Currency,
		txn.Status,
		txn.Processor,
		txn.ProcessorPaymentID,
		txn.PayerEmail,
		txn.CompletedAt,
	)
	return err
}

func (r *paymentTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.PaymentTransaction, error) {
	return r.BaseVersionedRepo.GetByID(ctx, id.String())
}

func (r *paymentTransactionRepo) GetByProcessorPaymentID(ctx context.Context, processor models.ProcessorType, processorPaymentID string) (*models.PaymentTransaction, error) {
	q := baseSelectTransaction() + " WHERE processor = $1 AND processor_payment_id = $2"
	row := r.db.QueryRow(ctx, q, processor, processorPaymentID)
	return scanTransaction(row)
}

func (r *paymentTransactionRepo) ListByLink(ctx context.Context, linkID uuid.UUID) ([]*models.PaymentTransaction, error) {
	q := baseSelectTransaction() + " WHERE payment_link_id = $1 ORDER BY created_at DESC"
	rows, err := r.db.Query(ctx, q, linkID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []*models.PaymentTransaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

func (r *paymentTransactionRepo) ListByStatus(ctx context.Context, status models.TransactionStatusType) ([]*models.PaymentTransaction, error) {
	q := baseSelectTransaction() + " WHERE status = $1 ORDER BY created_at"
	rows, err := r.db.Query(ctx, q, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []*models.PaymentTransaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

func (r *paymentTransactionRepo) UpdateIfVersion(ctx context.Context, t *models.PaymentTransaction, expectedVersion int64) (pgconn.CommandTag, error) {
	q := `
        UPDATE payment_transactions SET
            status = $1,
            processor_payment_id = $2,
            payer_email = $3,
            completed_at = $4,
            updated_at = NOW(),
            row_version = row_version + 1
        WHERE id = $5 AND row_version = $6
    `
	return r.db.Exec(ctx, q,
		t.Status, t.ProcessorPaymentID, t.PayerEmail, t.CompletedAt, t.ID, expectedVersion)
}

func (r *paymentTransactionRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.PaymentTransaction) error) error {
	return r.BaseVersionedRepo.UpdateWithRetry(ctx, id.String(), mutate, r.UpdateIfVersion)
}

func (r *paymentTransactionRepo) ExpirePendingOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
        UPDATE payment_transactions SET
            status = 'EXPIRED',
            updated_at = NOW(),
            row_version = row_version + 1
        WHERE status = 'PENDING' AND created_at <= $1
    `, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
