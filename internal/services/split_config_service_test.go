package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preenhq/payments-service/internal/dtos"
	"github.com/preenhq/payments-service/internal/models"
	"github.com/preenhq/payments-service/internal/utils"
)

func TestReplaceRecipientsRejectsOversubscribedPercentages(t *testing.T) {
	f := newEventFixture(t)
	svc := NewSplitConfigService(f.recipientRepo)

	pct := decimal.NewFromInt(60)
	inputs := []dtos.SplitRecipientInput{
		{
			RecipientType:   models.RecipientTypeExternalEmail,
			RecipientEmail:  utils.StrPtr("a@example.com"),
			RecipientName:   "A",
			SplitType:       models.SplitTypePercentage,
			SplitPercentage: &pct,
		},
		{
			RecipientType:   models.RecipientTypeExternalEmail,
			RecipientEmail:  utils.StrPtr("b@example.com"),
			RecipientName:   "B",
			SplitType:       models.SplitTypePercentage,
			SplitPercentage: &pct,
		},
	}

	_, err := svc.ReplaceRecipients(context.Background(), f.link, inputs)
	var appErr *utils.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
	assert.Equal(t, utils.ErrCodeValidation, appErr.Code)
	assert.Contains(t, appErr.Message, "120")
}

func TestReplaceRecipientsPersistsInOrder(t *testing.T) {
	f := newEventFixture(t)
	svc := NewSplitConfigService(f.recipientRepo)
	ctx := context.Background()

	fixed := decimal.NewFromInt(10)
	pct := decimal.NewFromInt(25)
	inputs := []dtos.SplitRecipientInput{
		{
			RecipientType:    models.RecipientTypePlatformFee,
			RecipientName:    "Platform fee",
			SplitType:        models.SplitTypeFixedAmount,
			SplitAmountFixed: &fixed,
		},
		{
			RecipientType:   models.RecipientTypeExternalEmail,
			RecipientEmail:  utils.StrPtr("c@example.com"),
			RecipientName:   "C",
			SplitType:       models.SplitTypePercentage,
			SplitPercentage: &pct,
		},
	}

	saved, err := svc.ReplaceRecipients(ctx, f.link, inputs)
	require.NoError(t, err)
	require.Len(t, saved, 2)

	stored, err := svc.ListRecipients(ctx, f.link.ID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, 0, stored[0].Position)
	assert.Equal(t, "Platform fee", stored[0].RecipientName)
	assert.Equal(t, 1, stored[1].Position)
	assert.Equal(t, "C", stored[1].RecipientName)
}

func TestReplaceRecipientsEmptyListClearsConfiguration(t *testing.T) {
	f := newEventFixture(t)
	svc := NewSplitConfigService(f.recipientRepo)
	ctx := context.Background()

	saved, err := svc.ReplaceRecipients(ctx, f.link, nil)
	require.NoError(t, err)
	assert.Empty(t, saved)

	stored, err := svc.ListRecipients(ctx, f.link.ID)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestPreviewUsesLinkAmountByDefault(t *testing.T) {
	f := newEventFixture(t)
	svc := NewSplitConfigService(f.recipientRepo)

	// Fixture config: fixed 30 plus 50% of the remainder, link amount 100.
	preview, err := svc.Preview(context.Background(), f.link, nil)
	require.NoError(t, err)

	assert.True(t, preview.Amount.Equal(decimal.NewFromInt(100)))
	require.Len(t, preview.Allocations, 2)
	assert.True(t, preview.Allocations[0].Amount.Equal(decimal.NewFromInt(30)))
	assert.True(t, preview.Allocations[1].Amount.Equal(decimal.NewFromInt(35)))
	assert.True(t, preview.Remaining.Equal(decimal.NewFromInt(35)))
	assert.Empty(t, preview.Warnings)
}

func TestPreviewWithOverrideAmountReportsClampWarning(t *testing.T) {
	f := newEventFixture(t)
	svc := NewSplitConfigService(f.recipientRepo)

	// 20 cannot cover the 30 fixed split; the fixed recipient is clamped and
	// the percentage recipient gets 50% of nothing.
	amount := decimal.NewFromInt(20)
	preview, err := svc.Preview(context.Background(), f.link, &amount)
	require.NoError(t, err)

	require.Len(t, preview.Allocations, 2)
	assert.True(t, preview.Allocations[0].Amount.Equal(decimal.NewFromInt(20)))
	assert.True(t, preview.Allocations[1].Amount.IsZero())
	assert.True(t, preview.Remaining.IsZero())
	require.Len(t, preview.Warnings, 1)
}

func TestPreviewRejectsNonPositiveAmount(t *testing.T) {
	f := newEventFixture(t)
	svc := NewSplitConfigService(f.recipientRepo)

	amount := decimal.Zero
	_, err := svc.Preview(context.Background(), f.link, &amount)
	var appErr *utils.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
}
