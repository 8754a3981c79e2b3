package dtos

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/preenhq/payments-service/internal/models"
	"github.com/preenhq/payments-service/internal/splitcalc"
)

// SplitRecipientInput describes one entry of a replace-recipients request.
// Cross-field rules (percentage vs fixed amount, identity per recipient type,
// sum caps) are enforced by the split calculator's Validate, not tags.
type SplitRecipientInput struct {
	RecipientType      models.RecipientType `json:"recipient_type" validate:"required,oneof=PLATFORM_USER EXTERNAL_EMAIL PLATFORM_FEE"`
	RecipientUserID    *uuid.UUID           `json:"recipient_user_id,omitempty"`
	RecipientEmail     *string              `json:"recipient_email,omitempty" validate:"omitempty,email"`
	RecipientName      string               `json:"recipient_name" validate:"required,min=1,max=200"`
	SplitType          models.SplitType     `json:"split_type" validate:"required"`
	SplitPercentage    *decimal.Decimal     `json:"split_percentage,omitempty"`
	SplitAmountFixed   *decimal.Decimal     `json:"split_amount_fixed,omitempty"`
	IsPrimaryRecipient bool                 `json:"is_primary_recipient"`
	Notes              *string              `json:"notes,omitempty" validate:"omitempty,max=500"`
}

func (in SplitRecipientInput) ToModel() models.SplitRecipient {
	return models.SplitRecipient{
		RecipientType:      in.RecipientType,
		RecipientUserID:    in.RecipientUserID,
		RecipientEmail:     in.RecipientEmail,
		RecipientName:      in.RecipientName,
		SplitType:          in.SplitType,
		SplitPercentage:    in.SplitPercentage,
		SplitAmountFixed:   in.SplitAmountFixed,
		IsPrimaryRecipient: in.IsPrimaryRecipient,
		Notes:              in.Notes,
	}
}

type ReplaceRecipientsRequest struct {
	Recipients []SplitRecipientInput `json:"recipients" validate:"dive"`
}

type RecipientsResponse struct {
	Recipients []*models.SplitRecipient `json:"recipients"`
}

// PreviewSplitsRequest runs the allocation without persisting anything.
// Amount defaults to the link's amount due when omitted.
type PreviewSplitsRequest struct {
	Amount *decimal.Decimal `json:"amount,omitempty"`
}

type AllocationResponse struct {
	RecipientName string               `json:"recipient_name"`
	RecipientType models.RecipientType `json:"recipient_type"`
	Amount        decimal.Decimal      `json:"amount"`
	Percentage    decimal.Decimal      `json:"percentage"`
}

type PreviewSplitsResponse struct {
	Amount      decimal.Decimal      `json:"amount"`
	Allocations []AllocationResponse `json:"allocations"`
	Warnings    []splitcalc.Warning  `json:"warnings,omitempty"`
	Remaining   decimal.Decimal      `json:"remaining"`
}

type TransactionSplitsResponse struct {
	TransactionID uuid.UUID                      `json:"transaction_id"`
	Disbursements []*models.SplitDisbursement    `json:"disbursements"`
	Summary       models.TransactionSplitSummary `json:"summary"`
}
