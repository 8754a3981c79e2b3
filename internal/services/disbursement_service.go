package services

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/preenhq/payments-service/internal/constants"
	"github.com/preenhq/payments-service/internal/dtos"
	"github.com/preenhq/payments-service/internal/repositories"
	"github.com/preenhq/payments-service/internal/tracker"
	"github.com/preenhq/payments-service/internal/utils"
)

const (
	OutcomeProcessed = "processed"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

// DisbursementService applies payout pipeline outcome callbacks to
// disbursement rows and notifies the link owner on failures.
type DisbursementService struct {
	disbursementRepo repositories.SplitDisbursementRepository
	txnRepo          repositories.PaymentTransactionRepository
	linkRepo         repositories.PaymentLinkRepository
	tracker          *tracker.Tracker
	notifier         Notifier
	ownerEmailLookup func(ctx context.Context, ownerUserID uuid.UUID) (string, error)
}

// NewDisbursementService wires the outcome handler. ownerEmailLookup resolves
// a platform user id to an email via the account service; nil disables
// failure emails.
func NewDisbursementService(
	disbursementRepo repositories.SplitDisbursementRepository,
	txnRepo repositories.PaymentTransactionRepository,
	linkRepo repositories.PaymentLinkRepository,
	trk *tracker.Tracker,
	notifier Notifier,
	ownerEmailLookup func(ctx context.Context, ownerUserID uuid.UUID) (string, error),
) *DisbursementService {
	return &DisbursementService{
		disbursementRepo: disbursementRepo,
		txnRepo:          txnRepo,
		linkRepo:         linkRepo,
		tracker:          trk,
		notifier:         notifier,
		ownerEmailLookup: ownerEmailLookup,
	}
}

// ApplyOutcome applies one callback. Unknown disbursement ids are 404;
// transitions on terminal rows succeed as no-ops so the pipeline can safely
// redeliver.
func (s *DisbursementService) ApplyOutcome(ctx context.Context, id uuid.UUID, req *dtos.DisbursementOutcomeRequest) error {
	d, err := s.disbursementRepo.GetByID(ctx, id)
	if err != nil {
		return &utils.AppError{
			StatusCode: http.StatusInternalServerError,
			Code:       utils.ErrCodeInternal,
			Message:    "Failed to fetch disbursement",
			Err:        err,
		}
	}
	if d == nil {
		return &utils.AppError{
			StatusCode: http.StatusNotFound,
			Code:       utils.ErrCodeNotFound,
			Message:    "Disbursement not found",
		}
	}

	switch req.Status {
	case OutcomeProcessed:
		err = s.tracker.MarkProcessed(ctx, id, req.ProcessorTransferID, req.Fee)
	case OutcomeFailed:
		reason := constants.ReasonPayoutRejected
		if req.FailureReason != nil && *req.FailureReason != "" {
			reason = *req.FailureReason
		}
		err = s.tracker.MarkFailed(ctx, id, reason)
		if err == nil {
			s.notifyOwnerOfFailure(ctx, d.TransactionID, id, reason)
		}
	case OutcomeCancelled:
		err = s.tracker.Cancel(ctx, id)
	default:
		return &utils.AppError{
			StatusCode: http.StatusBadRequest,
			Code:       utils.ErrCodeValidation,
			Message:    "Unknown outcome status",
		}
	}

	if err != nil {
		return &utils.AppError{
			StatusCode: http.StatusInternalServerError,
			Code:       utils.ErrCodeInternal,
			Message:    "Failed to apply disbursement outcome",
			Err:        err,
		}
	}
	return nil
}

func (s *DisbursementService) notifyOwnerOfFailure(ctx context.Context, txnID, disbursementID uuid.UUID, reason string) {
	if s.ownerEmailLookup == nil {
		return
	}

	d, err := s.disbursementRepo.GetByID(ctx, disbursementID)
	if err != nil || d == nil {
		utils.Logger.WithError(err).Errorf("Could not reload disbursement %s for failure notification", disbursementID)
		return
	}
	txn, err := s.txnRepo.GetByID(ctx, txnID)
	if err != nil || txn == nil {
		utils.Logger.WithError(err).Errorf("Could not load transaction %s for failure notification", txnID)
		return
	}
	link, err := s.linkRepo.GetByID(ctx, txn.PaymentLinkID)
	if err != nil || link == nil {
		utils.Logger.WithError(err).Errorf("Could not load link %s for failure notification", txn.PaymentLinkID)
		return
	}
	ownerEmail, err := s.ownerEmailLookup(ctx, link.OwnerUserID)
	if err != nil || ownerEmail == "" {
		utils.Logger.WithError(err).Errorf("Could not resolve owner email for user %s", link.OwnerUserID)
		return
	}

	s.notifier.NotifyDisbursementFailed(ownerEmail, d, txn.Currency, reason)
}
