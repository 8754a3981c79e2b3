package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/preenhq/payments-service/internal/models"
	"github.com/preenhq/payments-service/internal/repositories"
	"github.com/preenhq/payments-service/internal/utils"
)

// Sentinel IDs used to check if seeding has already occurred.
const (
	SentinelLinkID  = "dddddddd-dddd-4ddd-dddd-ddddddddddd1"
	SeedTenantID    = "dddddddd-dddd-4ddd-dddd-ddddddddddd2"
	SeedOwnerUserID = "dddddddd-dddd-4ddd-dddd-ddddddddddd3"
)

// SeedTestData seeds a demo payment link with a two-way split configuration.
// Idempotent: the sentinel link short-circuits repeat runs.
func SeedTestData(
	ctx context.Context,
	linkRepo repositories.PaymentLinkRepository,
	recipientRepo repositories.SplitRecipientRepository,
) error {
	sentinelID := uuid.MustParse(SentinelLinkID)

	existing, err := linkRepo.GetByID(ctx, sentinelID)
	if err != nil {
		return fmt.Errorf("failed to check for sentinel payment link: %w", err)
	}
	if existing != nil {
		utils.Logger.Info("payments-service: Seed data already present; skipping seeding.")
		return nil
	}

	link := &models.PaymentLink{
		ID:          sentinelID,
		TenantID:    uuid.MustParse(SeedTenantID),
		OwnerUserID: uuid.MustParse(SeedOwnerUserID),
		Slug:        "demo-" + utils.RandomSlug(6),
		Title:       "Balayage + Gloss (Demo)",
		AmountDue:   decimal.NewFromInt(180),
		Currency:    "USD",
		Status:      models.LinkStatusActive,
	}
	if err := linkRepo.Create(ctx, link); err != nil {
		return fmt.Errorf("failed to create seed payment link: %w", err)
	}

	recipients := []*models.SplitRecipient{
		{
			RecipientType:      models.RecipientTypePlatformFee,
			RecipientName:      "Preen platform fee",
			SplitType:          models.SplitTypeFixedAmount,
			SplitAmountFixed:   utils.Ptr(decimal.NewFromInt(5)),
			IsPrimaryRecipient: false,
		},
		{
			RecipientType:      models.RecipientTypeExternalEmail,
			RecipientEmail:     utils.StrPtr("colorist@example.com"),
			RecipientName:      "Guest colorist",
			SplitType:          models.SplitTypePercentage,
			SplitPercentage:    utils.Ptr(decimal.NewFromInt(40)),
			IsPrimaryRecipient: false,
		},
	}
	if err := recipientRepo.ReplaceForLink(ctx, link.ID, recipients); err != nil {
		return fmt.Errorf("failed to seed recipients: %w", err)
	}

	utils.Logger.Info("payments-service: Seeding completed successfully.")
	return nil
}
