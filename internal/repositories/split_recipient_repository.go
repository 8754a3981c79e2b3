package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/preenhq/payments-service/internal/models"
)

type SplitRecipientRepository interface {
	// ReplaceForLink swaps the full recipient set of a payment link in one
	// statement batch: owner edits always submit the whole configuration.
	ReplaceForLink(ctx context.Context, linkID uuid.UUID, recipients []*models.SplitRecipient) error
	ListByLink(ctx context.Context, linkID uuid.UUID) ([]*models.SplitRecipient, error)
	DeleteForLink(ctx context.Context, linkID uuid.UUID) error
}

type splitRecipientRepo struct {
	db DB
}

func NewSplitRecipientRepository(db DB) SplitRecipientRepository {
	return &splitRecipientRepo{db: db}
}

func baseSelectRecipient() string {
	return `
        SELECT
            id, payment_link_id, recipient_type, recipient_user_id,
            recipient_email, recipient_name, split_type, split_percentage,
            split_amount_fixed, is_primary_recipient, notes, position,
            created_at, updated_at
        FROM split_recipients
    `
}

func scanRecipient(row pgx.Row) (*models.SplitRecipient, error) {
	var r models.SplitRecipient
	err := row.Scan(
		&r.ID,
		&r.PaymentLinkID,
		&r.RecipientType,
		&r.RecipientUserID,
		&r.RecipientEmail,
		&r.RecipientName,
		&r.SplitType,
		&r.SplitPercentage,
		&r.SplitAmountFixed,
		&r.IsPrimaryRecipient,
		&r.Notes,
		&r.Position,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *splitRecipientRepo) ReplaceForLink(ctx context.Context, linkID uuid.UUID, recipients []*models.SplitRecipient) error {
	if err := r.DeleteForLink(ctx, linkID); err != nil {
		return err
	}
	for i, rec := range recipients {
		if rec.ID == uuid.Nil {
			rec.ID = uuid.New()
		}
		rec.PaymentLinkID = linkID
		rec.Position = i
		_, err := r.db.Exec(ctx, `
            INSERT INTO split_recipients (
                id, payment_link_id, recipient_type, recipient_user_id,
                recipient_email, recipient_name, split_type, split_percentage,
                split_amount_fixed, is_primary_recipient, notes, position,
                created_at, updated_at
            ) VALUES (
                $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,NOW(),NOW()
            )
        `,
			rec.ID,
			rec.PaymentLinkID,
			rec.RecipientType,
			rec.RecipientUserID,
			rec.RecipientEmail,
			rec.RecipientName,
			rec.SplitType,
			rec.SplitPercentage,
			rec.SplitAmountFixed,
			rec.IsPrimaryRecipient,
			rec.Notes,
			rec.Position,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *splitRecipientRepo) ListByLink(ctx context.Context, linkID uuid.UUID) ([]*models.SplitRecipient, error) {
	rows, err := r.db.Query(ctx, baseSelectRecipient()+" WHERE payment_link_id = $1 ORDER BY position", linkID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recipients []*models.SplitRecipient
	for rows.Next() {
		rec, err := scanRecipient(rows)
		if err != nil {
			return nil, err
		}
		recipients = append(recipients, rec)
	}
	return recipients, rows.Err()
}

func (r *splitRecipientRepo) DeleteForLink(ctx context.Context, linkID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM split_recipients WHERE payment_link_id = $1`, linkID)
	return err
}
