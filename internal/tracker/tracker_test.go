package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preenhq/payments-service/internal/models"
	"github.com/preenhq/payments-service/internal/splitcalc"
	"github.com/preenhq/payments-service/internal/utils"
)

// fakeStore applies mutations in memory, mimicking the repository's
// read-mutate-update loop.
type fakeStore struct {
	rows map[uuid.UUID]*models.SplitDisbursement
}

func newFakeStore(rows ...*models.SplitDisbursement) *fakeStore {
	s := &fakeStore{rows: make(map[uuid.UUID]*models.SplitDisbursement)}
	for _, r := range rows {
		s.rows[r.ID] = r
	}
	return s
}

func (s *fakeStore) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.SplitDisbursement) error) error {
	row, ok := s.rows[id]
	if !ok {
		return utils.ErrNotFound
	}
	return mutate(row)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func pendingDisbursement(amount string) *models.SplitDisbursement {
	return &models.SplitDisbursement{
		ID:                 uuid.New(),
		TransactionID:      uuid.New(),
		RecipientType:      models.RecipientTypeExternalEmail,
		RecipientEmail:     utils.StrPtr("nails@example.com"),
		RecipientName:      "Nail Artist",
		SplitAmount:        dec(amount),
		DistributionStatus: models.DistributionStatusPending,
	}
}

func TestNewDisbursements_SnapshotsRecipients(t *testing.T) {
	recipientID := uuid.New()
	userID := uuid.New()
	txn := &models.PaymentTransaction{ID: uuid.New(), Amount: dec("100")}
	allocations := []splitcalc.Allocation{
		{
			Recipient: models.SplitRecipient{
				ID:              recipientID,
				RecipientType:   models.RecipientTypePlatformUser,
				RecipientUserID: utils.Ptr(userID),
				RecipientName:   "Salon Owner",
			},
			Amount:     dec("70"),
			Percentage: dec("70"),
		},
		{
			Recipient: models.SplitRecipient{
				RecipientType: models.RecipientTypePlatformFee,
				RecipientName: "Platform fee",
			},
			Amount:     dec("30"),
			Percentage: dec("30"),
		},
	}

	disbursements := NewDisbursements(txn, allocations)

	require.Len(t, disbursements, 2)
	first := disbursements[0]
	assert.Equal(t, txn.ID, first.TransactionID)
	require.NotNil(t, first.RecipientID)
	assert.Equal(t, recipientID, *first.RecipientID)
	assert.Equal(t, userID, *first.RecipientUserID)
	assert.Equal(t, 0, first.Position)
	assert.Equal(t, models.DistributionStatusPending, first.DistributionStatus)
	assert.True(t, first.SplitAmount.Equal(dec("70")))

	second := disbursements[1]
	assert.Nil(t, second.RecipientID, "unsaved recipient has no back-reference")
	assert.Equal(t, 1, second.Position)
}

func TestMarkProcessed_FromPending(t *testing.T) {
	row := pendingDisbursement("42.50")
	store := newFakeStore(row)
	tr := New(store)
	tr.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	err := tr.MarkProcessed(context.Background(), row.ID, utils.StrPtr("tr_123"), utils.Ptr(dec("0.25")))

	require.NoError(t, err)
	assert.Equal(t, models.DistributionStatusProcessed, row.DistributionStatus)
	assert.Equal(t, "tr_123", *row.ProcessorTransferID)
	assert.True(t, row.DistributionFee.Equal(dec("0.25")))
	require.NotNil(t, row.DistributedAt)
	assert.Equal(t, 2026, row.DistributedAt.Year())
}

func TestMarkProcessed_SecondCallbackIsNoOp(t *testing.T) {
	row := pendingDisbursement("42.50")
	store := newFakeStore(row)
	tr := New(store)

	require.NoError(t, tr.MarkProcessed(context.Background(), row.ID, utils.StrPtr("tr_first"), nil))
	firstAt := *row.DistributedAt

	// Duplicate confirmation with different details must not overwrite.
	require.NoError(t, tr.MarkProcessed(context.Background(), row.ID, utils.StrPtr("tr_second"), utils.Ptr(dec("9.99"))))

	assert.Equal(t, models.DistributionStatusProcessed, row.DistributionStatus)
	assert.Equal(t, "tr_first", *row.ProcessorTransferID)
	assert.Nil(t, row.DistributionFee)
	assert.Equal(t, firstAt, *row.DistributedAt)
}

func TestMarkFailed_RecordsReason(t *testing.T) {
	row := pendingDisbursement("10")
	store := newFakeStore(row)
	tr := New(store)

	require.NoError(t, tr.MarkFailed(context.Background(), row.ID, "account_closed"))

	assert.Equal(t, models.DistributionStatusFailed, row.DistributionStatus)
	assert.Equal(t, "account_closed", *row.FailureReason)
}

func TestTransitionsOutOfTerminalStatesAreNoOps(t *testing.T) {
	terminal := []models.DistributionStatusType{
		models.DistributionStatusProcessed,
		models.DistributionStatusFailed,
		models.DistributionStatusCancelled,
	}

	for _, status := range terminal {
		t.Run(string(status), func(t *testing.T) {
			row := pendingDisbursement("10")
			row.DistributionStatus = status
			store := newFakeStore(row)
			tr := New(store)
			ctx := context.Background()

			require.NoError(t, tr.MarkProcessed(ctx, row.ID, utils.StrPtr("tr_x"), nil))
			require.NoError(t, tr.MarkFailed(ctx, row.ID, "late failure"))
			require.NoError(t, tr.Cancel(ctx, row.ID))

			assert.Equal(t, status, row.DistributionStatus)
			assert.Nil(t, row.FailureReason)
			assert.Nil(t, row.ProcessorTransferID)
		})
	}
}

func TestCancel_FromPending(t *testing.T) {
	row := pendingDisbursement("10")
	store := newFakeStore(row)
	tr := New(store)

	require.NoError(t, tr.Cancel(context.Background(), row.ID))
	assert.Equal(t, models.DistributionStatusCancelled, row.DistributionStatus)
}

func TestSummarize_EmptyList(t *testing.T) {
	summary := Summarize(dec("150"), nil)

	assert.Equal(t, 0, summary.SplitCount)
	assert.Equal(t, 0, summary.ProcessedSplits)
	assert.Equal(t, 0, summary.PendingSplits)
	assert.Equal(t, 0, summary.FailedSplits)
	assert.Equal(t, 0, summary.CancelledSplits)
	assert.True(t, summary.TotalSplitAmount.IsZero())
	assert.True(t, summary.RemainingAmount.Equal(dec("150")))
}

func TestSummarize_MixedStatuses(t *testing.T) {
	processed := pendingDisbursement("40")
	processed.DistributionStatus = models.DistributionStatusProcessed
	failed := pendingDisbursement("25")
	failed.DistributionStatus = models.DistributionStatusFailed
	cancelled := pendingDisbursement("15")
	cancelled.DistributionStatus = models.DistributionStatusCancelled
	pending := pendingDisbursement("10")

	summary := Summarize(dec("100"), []*models.SplitDisbursement{processed, failed, cancelled, pending})

	assert.Equal(t, 4, summary.SplitCount, "cancelled rows still count")
	assert.Equal(t, 1, summary.ProcessedSplits)
	assert.Equal(t, 1, summary.PendingSplits)
	assert.Equal(t, 1, summary.FailedSplits)
	assert.Equal(t, 1, summary.CancelledSplits)
	assert.True(t, summary.TotalSplitAmount.Equal(dec("90")), "all statuses contribute to committed total")
	assert.True(t, summary.RemainingAmount.Equal(dec("10")))
}

func TestSummarize_RemainingCanBeNonZeroWhenAllProcessed(t *testing.T) {
	a := pendingDisbursement("33.33")
	a.DistributionStatus = models.DistributionStatusProcessed
	b := pendingDisbursement("33.33")
	b.DistributionStatus = models.DistributionStatusProcessed

	summary := Summarize(dec("100"), []*models.SplitDisbursement{a, b})

	assert.Equal(t, 2, summary.ProcessedSplits)
	assert.True(t, summary.RemainingAmount.Equal(dec("33.34")))
}
