package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/preenhq/payments-service/internal/models"
)

type PaymentLinkRepository interface {
	Create(ctx context.Context, link *models.PaymentLink) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.PaymentLink, error)
	GetBySlug(ctx context.Context, slug string) (*models.PaymentLink, error)
	ListByOwner(ctx context.Context, ownerUserID uuid.UUID) ([]*models.PaymentLink, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.LinkStatusType) error
	ExpireActiveOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type paymentLinkRepo struct {
	db DB
}

func NewPaymentLinkRepository(db DB) PaymentLinkRepository {
	return &paymentLinkRepo{db: db}
}

func baseSelectLink() string {
	return `
        SELECT
            id, tenant_id, owner_user_id, slug, title,
            amount_due, currency, status, expires_at,
            created_at, updated_at
        FROM payment_links
    `
}

func scanLink(row pgx.Row) (*models.PaymentLink, error) {
	var l models.PaymentLink
	err := row.Scan(
		&l.ID,
		&l.TenantID,
		&l.OwnerUserID,
		&l.Slug,
		&l.Title,
		&l.AmountDue,
		&l.Currency,
		&l.Status,
		&l.ExpiresAt,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *paymentLinkRepo) Create(ctx context.Context, link *models.PaymentLink) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO payment_links (
            id, tenant_id, owner_user_id, slug, title,
            amount_due, currency, status, expires_at,
            created_at, updated_at
        ) VALUES (
            $1,$2,$3,$4,$5,$6,$7,$8,$9,NOW(),NOW()
        )
    `,
		link.ID,
		link.TenantID,
		link.OwnerUserID,
		link.Slug,
		link.Title,
		link.AmountDue,
		link.Currency,
		link.Status,
		link.ExpiresAt,
	)
	return err
}

func (r *paymentLinkRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.PaymentLink, error) {
	row := r.db.QueryRow(ctx, baseSelectLink()+" WHERE id=$1", id)
	return scanLink(row)
}

func (r *paymentLinkRepo) GetBySlug(ctx context.Context, slug string) (*models.PaymentLink, error) {
	row := r.db.QueryRow(ctx, baseSelectLink()+" WHERE slug=$1", slug)
	return scanLink(row)
}

func (r *paymentLinkRepo) ListByOwner(ctx context.Context, ownerUserID uuid.UUID) ([]*models.PaymentLink, error) {
	rows, err := r.db.Query(ctx, baseSelectLink()+" WHERE owner_user_id=$1 AND status <> 'DELETED' ORDER BY created_at DESC", ownerUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []*models.PaymentLink
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

func (r *paymentLinkRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.LinkStatusType) error {
	_, err := r.db.Exec(ctx, `
        UPDATE payment_links SET status=$1, updated_at=NOW() WHERE id=$2
    `, status, id)
	return err
}

func (r *paymentLinkRepo) ExpireActiveOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
        UPDATE payment_links SET status='EXPIRED', updated_at=NOW()
        WHERE status='ACTIVE' AND expires_at IS NOT NULL AND expires_at <= $1
    `, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
