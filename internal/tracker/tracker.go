// Package tracker owns the lifecycle of split disbursement rows for completed
// payment transactions: creating them in PENDING state from an allocation
// plan, applying outcome transitions reported by the external payout pipeline,
// and computing read-time summaries.
package tracker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/preenhq/payments-service/internal/models"
	"github.com/preenhq/payments-service/internal/splitcalc"
	"github.com/preenhq/payments-service/internal/utils"
)

// DisbursementStore is the slice of the disbursement repository the tracker
// needs: optimistic-locked read-mutate-update keyed by row id.
type DisbursementStore interface {
	UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.SplitDisbursement) error) error
}

type Tracker struct {
	store DisbursementStore
	now   func() time.Time
}

func New(store DisbursementStore) *Tracker {
	return &Tracker{store: store, now: time.Now}
}

// NewDisbursements materializes one PENDING disbursement per allocation,
// snapshotting recipient identity so later recipient edits don't rewrite
// history. Position follows allocation order and keys idempotent inserts.
func NewDisbursements(txn *models.PaymentTransaction, allocations []splitcalc.Allocation) []*models.SplitDisbursement {
	disbursements := make([]*models.SplitDisbursement, 0, len(allocations))
	for i, alloc := range allocations {
		r := alloc.Recipient
		d := &models.SplitDisbursement{
			ID:                     uuid.New(),
			TransactionID:          txn.ID,
			RecipientType:          r.RecipientType,
			RecipientUserID:        r.RecipientUserID,
			RecipientEmail:         r.RecipientEmail,
			RecipientName:          r.RecipientName,
			Position:               i,
			SplitAmount:            alloc.Amount,
			SplitPercentageApplied: alloc.Percentage,
			DistributionStatus:     models.DistributionStatusPending,
		}
		if r.ID != uuid.Nil {
			d.RecipientID = utils.Ptr(r.ID)
		}
		disbursements = append(disbursements, d)
	}
	return disbursements
}

// MarkProcessed applies PENDING -> PROCESSED. A disbursement already in a
// terminal state is left untouched: duplicate confirmations are expected
// under at-least-once delivery and must not be errors.
func (t *Tracker) MarkProcessed(ctx context.Context, id uuid.UUID, processorTransferID *string, fee *decimal.Decimal) error {
	return t.store.UpdateWithRetry(ctx, id, func(d *models.SplitDisbursement) error {
		if models.IsTerminalDistributionStatus(d.DistributionStatus) {
			return nil
		}
		d.DistributionStatus = models.DistributionStatusProcessed
		d.DistributedAt = utils.Ptr(t.now().UTC())
		if processorTransferID != nil {
			d.ProcessorTransferID = processorTransferID
		}
		if fee != nil {
			d.DistributionFee = fee
		}
		return nil
	})
}

// MarkFailed applies PENDING -> FAILED and records the failure reason.
// Terminal rows are a no-op.
func (t *Tracker) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	return t.store.UpdateWithRetry(ctx, id, func(d *models.SplitDisbursement) error {
		if models.IsTerminalDistributionStatus(d.DistributionStatus) {
			return nil
		}
		d.DistributionStatus = models.DistributionStatusFailed
		d.FailureReason = utils.StrPtr(reason)
		return nil
	})
}

// Cancel applies PENDING -> CANCELLED, used when the parent transaction is
// refunded or an administrator pulls a disbursement. Terminal rows are a no-op.
func (t *Tracker) Cancel(ctx context.Context, id uuid.UUID) error {
	return t.store.UpdateWithRetry(ctx, id, func(d *models.SplitDisbursement) error {
		if models.IsTerminalDistributionStatus(d.DistributionStatus) {
			return nil
		}
		d.DistributionStatus = models.DistributionStatusCancelled
		return nil
	})
}

// Summarize aggregates the disbursements of one transaction. Pure; operates
// only on rows the caller already fetched. Cancelled rows count toward
// SplitCount and TotalSplitAmount and are also surfaced separately.
func Summarize(paymentAmount decimal.Decimal, disbursements []*models.SplitDisbursement) models.TransactionSplitSummary {
	summary := models.TransactionSplitSummary{
		SplitCount:       len(disbursements),
		TotalSplitAmount: decimal.Zero,
	}
	for _, d := range disbursements {
		summary.TotalSplitAmount = summary.TotalSplitAmount.Add(d.SplitAmount)
		switch d.DistributionStatus {
		case models.DistributionStatusProcessed:
			summary.ProcessedSplits++
		case models.DistributionStatusPending:
			summary.PendingSplits++
		case models.DistributionStatusFailed:
			summary.FailedSplits++
		case models.DistributionStatusCancelled:
			summary.CancelledSplits++
		}
	}
	summary.RemainingAmount = paymentAmount.Sub(summary.TotalSplitAmount)
	return summary
}
