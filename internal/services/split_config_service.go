package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/preenhq/payments-service/internal/dtos"
	"github.com/preenhq/payments-service/internal/models"
	"github.com/preenhq/payments-service/internal/repositories"
	"github.com/preenhq/payments-service/internal/splitcalc"
	"github.com/preenhq/payments-service/internal/utils"
)

// SplitConfigService manages the recipient configuration of a payment link
// and runs non-persisting allocation previews.
type SplitConfigService struct {
	recipientRepo repositories.SplitRecipientRepository
}

func NewSplitConfigService(recipientRepo repositories.SplitRecipientRepository) *SplitConfigService {
	return &SplitConfigService{recipientRepo: recipientRepo}
}

// ReplaceRecipients validates the submitted configuration and swaps the
// link's recipient set. Validation failures surface position and field so the
// owner UI can highlight the offending entry.
func (s *SplitConfigService) ReplaceRecipients(ctx context.Context, link *models.PaymentLink, inputs []dtos.SplitRecipientInput) ([]*models.SplitRecipient, error) {
	candidates := make([]models.SplitRecipient, 0, len(inputs))
	for _, in := range inputs {
		candidates = append(candidates, in.ToModel())
	}

	if err := splitcalc.Validate(candidates); err != nil {
		var vErr *splitcalc.ValidationError
		if errors.As(err, &vErr) {
			return nil, &utils.AppError{
				StatusCode: http.StatusBadRequest,
				Code:       utils.ErrCodeValidation,
				Message:    vErr.Error(),
				Err:        err,
			}
		}
		return nil, err
	}

	recipients := make([]*models.SplitRecipient, 0, len(candidates))
	for i := range candidates {
		recipients = append(recipients, &candidates[i])
	}
	if err := s.recipientRepo.ReplaceForLink(ctx, link.ID, recipients); err != nil {
		return nil, &utils.AppError{
			StatusCode: http.StatusInternalServerError,
			Code:       utils.ErrCodeInternal,
			Message:    "Failed to save recipients",
			Err:        err,
		}
	}

	utils.Logger.Infof("Replaced recipients for link %s (%d entries)", link.ID, len(recipients))
	return recipients, nil
}

func (s *SplitConfigService) ListRecipients(ctx context.Context, linkID uuid.UUID) ([]*models.SplitRecipient, error) {
	recipients, err := s.recipientRepo.ListByLink(ctx, linkID)
	if err != nil {
		return nil, &utils.AppError{
			StatusCode: http.StatusInternalServerError,
			Code:       utils.ErrCodeInternal,
			Message:    "Failed to list recipients",
			Err:        err,
		}
	}
	return recipients, nil
}

// Preview computes the allocation plan the link's current configuration would
// produce for the given amount, without persisting anything. A nil amount
// uses the link's amount due.
func (s *SplitConfigService) Preview(ctx context.Context, link *models.PaymentLink, amount *decimal.Decimal) (*dtos.PreviewSplitsResponse, error) {
	effective := link.AmountDue
	if amount != nil {
		effective = *amount
	}
	if !effective.IsPositive() {
		return nil, &utils.AppError{
			StatusCode: http.StatusBadRequest,
			Code:       utils.ErrCodeValidation,
			Message:    "amount must be positive",
		}
	}

	stored, err := s.recipientRepo.ListByLink(ctx, link.ID)
	if err != nil {
		return nil, &utils.AppError{
			StatusCode: http.StatusInternalServerError,
			Code:       utils.ErrCodeInternal,
			Message:    "Failed to list recipients",
			Err:        err,
		}
	}

	recipients := make([]models.SplitRecipient, 0, len(stored))
	for _, r := range stored {
		recipients = append(recipients, *r)
	}

	allocations, warnings := splitcalc.Calculate(recipients, effective)

	resp := &dtos.PreviewSplitsResponse{
		Amount:      effective,
		Allocations: make([]dtos.AllocationResponse, 0, len(allocations)),
		Warnings:    warnings,
	}
	total := decimal.Zero
	for _, a := range allocations {
		total = total.Add(a.Amount)
		resp.Allocations = append(resp.Allocations, dtos.AllocationResponse{
			RecipientName: a.Recipient.RecipientName,
			RecipientType: a.Recipient.RecipientType,
			Amount:        a.Amount,
			Percentage:    a.Percentage,
		})
	}
	resp.Remaining = effective.Sub(total)
	return resp, nil
}
