package services

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/preenhq/payments-service/internal/dtos"
	"github.com/preenhq/payments-service/internal/repositories"
	"github.com/preenhq/payments-service/internal/tracker"
	"github.com/preenhq/payments-service/internal/utils"
)

// SummaryService assembles the owner-facing view of a transaction's splits.
type SummaryService struct {
	txnRepo          repositories.PaymentTransactionRepository
	linkRepo         repositories.PaymentLinkRepository
	disbursementRepo repositories.SplitDisbursementRepository
}

func NewSummaryService(
	txnRepo repositories.PaymentTransactionRepository,
	linkRepo repositories.PaymentLinkRepository,
	disbursementRepo repositories.SplitDisbursementRepository,
) *SummaryService {
	return &SummaryService{
		txnRepo:          txnRepo,
		linkRepo:         linkRepo,
		disbursementRepo: disbursementRepo,
	}
}

// GetTransactionSplits returns the disbursement rows plus aggregate summary
// for one transaction, after checking that the caller owns the parent link.
func (s *SummaryService) GetTransactionSplits(ctx context.Context, txnID, ownerUserID uuid.UUID) (*dtos.TransactionSplitsResponse, error) {
	txn, err := s.txnRepo.GetByID(ctx, txnID)
	if err != nil {
		return nil, &utils.AppError{
			StatusCode: http.StatusInternalServerError,
			Code:       utils.ErrCodeInternal,
			Message:    "Failed to fetch transaction",
			Err:        err,
		}
	}
	if txn == nil {
		return nil, &utils.AppError{
			StatusCode: http.StatusNotFound,
			Code:       utils.ErrCodeNotFound,
			Message:    "Transaction not found",
		}
	}

	link, err := s.linkRepo.GetByID(ctx, txn.PaymentLinkID)
	if err != nil {
		return nil, &utils.AppError{
			StatusCode: http.StatusInternalServerError,
			Code:       utils.ErrCodeInternal,
			Message:    "Failed to fetch payment link",
			Err:        err,
		}
	}
	if link == nil || link.OwnerUserID != ownerUserID {
		return nil, &utils.AppError{
			StatusCode: http.StatusNotFound,
			Code:       utils.ErrCodeNotFound,
			Message:    "Transaction not found",
		}
	}

	disbursements, err := s.disbursementRepo.ListByTransaction(ctx, txnID)
	if err != nil {
		return nil, &utils.AppError{
			StatusCode: http.StatusInternalServerError,
			Code:       utils.ErrCodeInternal,
			Message:    "Failed to list disbursements",
			Err:        err,
		}
	}

	return &dtos.TransactionSplitsResponse{
		TransactionID: txnID,
		Disbursements: disbursements,
		Summary:       tracker.Summarize(txn.Amount, disbursements),
	}, nil
}
