package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/preenhq/payments-service/internal/models"
	"github.com/preenhq/payments-service/internal/repositories"
	"github.com/preenhq/payments-service/internal/splitcalc"
	"github.com/preenhq/payments-service/internal/tracker"
	"github.com/preenhq/payments-service/internal/utils"
)

// PaymentEvent is the processor-neutral projection of a payment webhook.
// Controllers translate provider payloads (Stripe today, Crossmint later)
// into this shape before handing off.
type PaymentEvent struct {
	Processor          models.ProcessorType
	ProcessorPaymentID string
	PaymentLinkID      uuid.UUID
	Amount             decimal.Decimal
	Currency           string
	PayerEmail         *string
}

// PaymentEventService owns the transaction state machine. Webhook deliveries
// are at-least-once and unordered, so every handler is a no-op when the
// requested transition is not legal from the current state.
type PaymentEventService struct {
	linkRepo         repositories.PaymentLinkRepository
	txnRepo          repositories.PaymentTransactionRepository
	recipientRepo    repositories.SplitRecipientRepository
	disbursementRepo repositories.SplitDisbursementRepository
	tracker          *tracker.Tracker
	notifier         Notifier
}

func NewPaymentEventService(
	linkRepo repositories.PaymentLinkRepository,
	txnRepo repositories.PaymentTransactionRepository,
	recipientRepo repositories.SplitRecipientRepository,
	disbursementRepo repositories.SplitDisbursementRepository,
	trk *tracker.Tracker,
	notifier Notifier,
) *PaymentEventService {
	return &PaymentEventService{
		linkRepo:         linkRepo,
		txnRepo:          txnRepo,
		recipientRepo:    recipientRepo,
		disbursementRepo: disbursementRepo,
		tracker:          trk,
		notifier:         notifier,
	}
}

// RegisterPending records a new PENDING transaction for a payment attempt.
// Redelivery is harmless: the insert is keyed on (processor, payment id).
func (s *PaymentEventService) RegisterPending(ctx context.Context, ev PaymentEvent) error {
	link, err := s.linkRepo.GetByID(ctx, ev.PaymentLinkID)
	if err != nil {
		return fmt.Errorf("fetch link %s: %w", ev.PaymentLinkID, err)
	}
	if link == nil {
		utils.Logger.Warnf("Payment event for unknown link %s (payment %s); ignoring", ev.PaymentLinkID, ev.ProcessorPaymentID)
		return nil
	}

	txn := &models.PaymentTransaction{
		ID:                 uuid.New(),
		PaymentLinkID:      link.ID,
		Amount:             ev.Amount,
		Currency:           ev.Currency,
		Status:             models.TransactionStatusPending,
		Processor:          ev.Processor,
		ProcessorPaymentID: utils.StrPtr(ev.ProcessorPaymentID),
		PayerEmail:         ev.PayerEmail,
	}
	if err := s.txnRepo.Create(ctx, txn); err != nil {
		return fmt.Errorf("create pending transaction: %w", err)
	}
	utils.Logger.Infof("Registered PENDING transaction for link %s (payment %s)", link.ID, ev.ProcessorPaymentID)
	return nil
}

// HandleCompleted applies PENDING -> COMPLETED, then materializes the
// disbursement plan and sends the payer a receipt. Each step is idempotent,
// so a redelivered event replays harmlessly: the status mutate is a no-op and
// the disbursement inserts hit their conflict guard.
func (s *PaymentEventService) HandleCompleted(ctx context.Context, ev PaymentEvent) error {
	txn, err := s.findOrRegister(ctx, ev)
	if err != nil || txn == nil {
		return err
	}

	var transitioned bool
	err = s.txnRepo.UpdateWithRetry(ctx, txn.ID, func(t *models.PaymentTransaction) error {
		transitioned = t.Status == models.TransactionStatusPending
		if !transitioned {
			utils.Logger.Infof("Ignoring completed event for transaction %s in status %s", t.ID, t.Status)
			return nil
		}
		t.Status = models.TransactionStatusCompleted
		t.CompletedAt = utils.Ptr(time.Now().UTC())
		if ev.PayerEmail != nil {
			t.PayerEmail = ev.PayerEmail
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("complete transaction %s: %w", txn.ID, err)
	}

	// Re-read for the authoritative post-transition state.
	txn, err = s.txnRepo.GetByID(ctx, txn.ID)
	if err != nil {
		return fmt.Errorf("reload transaction after completion: %w", err)
	}
	if txn == nil {
		return fmt.Errorf("transaction vanished after completion")
	}
	if txn.Status != models.TransactionStatusCompleted {
		return nil
	}

	// Disbursement creation replays on redelivery for crash recovery; the
	// receipt is only sent by the delivery that performed the transition.
	if err := s.createDisbursements(ctx, txn); err != nil {
		return err
	}

	if transitioned && txn.PayerEmail != nil && *txn.PayerEmail != "" {
		link, lerr := s.linkRepo.GetByID(ctx, txn.PaymentLinkID)
		if lerr == nil && link != nil {
			s.notifier.SendPaymentReceipt(*txn.PayerEmail, txn, link.Title)
		}
	}
	return nil
}

func (s *PaymentEventService) createDisbursements(ctx context.Context, txn *models.PaymentTransaction) error {
	stored, err := s.recipientRepo.ListByLink(ctx, txn.PaymentLinkID)
	if err != nil {
		return fmt.Errorf("list recipients for link %s: %w", txn.PaymentLinkID, err)
	}
	if len(stored) == 0 {
		utils.Logger.Debugf("No recipients configured for link %s; nothing to disburse", txn.PaymentLinkID)
		return nil
	}

	recipients := make([]models.SplitRecipient, 0, len(stored))
	for _, r := range stored {
		recipients = append(recipients, *r)
	}

	allocations, warnings := splitcalc.Calculate(recipients, txn.Amount)
	for _, w := range warnings {
		utils.Logger.Warnf("Allocation warning for transaction %s: %s", txn.ID, w.Message)
	}

	for _, d := range tracker.NewDisbursements(txn, allocations) {
		if err := s.disbursementRepo.CreateIfNotExists(ctx, d); err != nil {
			return fmt.Errorf("create disbursement for transaction %s position %d: %w", txn.ID, d.Position, err)
		}
	}
	utils.Logger.Infof("Created %d disbursements for transaction %s", len(allocations), txn.ID)
	return nil
}

// HandleFailed applies PENDING -> FAILED.
func (s *PaymentEventService) HandleFailed(ctx context.Context, ev PaymentEvent) error {
	return s.transition(ctx, ev, models.TransactionStatusPending, models.TransactionStatusFailed)
}

// HandleExpired applies PENDING -> EXPIRED.
func (s *PaymentEventService) HandleExpired(ctx context.Context, ev PaymentEvent) error {
	return s.transition(ctx, ev, models.TransactionStatusPending, models.TransactionStatusExpired)
}

// HandleRefunded applies COMPLETED -> REFUNDED and cancels every disbursement
// still PENDING. Rows already PROCESSED stay untouched; clawing back sent
// funds is a manual operation.
func (s *PaymentEventService) HandleRefunded(ctx context.Context, ev PaymentEvent) error {
	txn, err := s.txnRepo.GetByProcessorPaymentID(ctx, ev.Processor, ev.ProcessorPaymentID)
	if err != nil {
		return fmt.Errorf("find transaction for payment %s: %w", ev.ProcessorPaymentID, err)
	}
	if txn == nil {
		utils.Logger.Warnf("Refund event for unknown payment %s; ignoring", ev.ProcessorPaymentID)
		return nil
	}

	err = s.txnRepo.UpdateWithRetry(ctx, txn.ID, func(t *models.PaymentTransaction) error {
		if t.Status != models.TransactionStatusCompleted {
			utils.Logger.Infof("Ignoring refund event for transaction %s in status %s", t.ID, t.Status)
			return nil
		}
		t.Status = models.TransactionStatusRefunded
		return nil
	})
	if err != nil {
		return fmt.Errorf("refund transaction %s: %w", txn.ID, err)
	}

	return s.cancelPendingDisbursements(ctx, txn.ID)
}

func (s *PaymentEventService) cancelPendingDisbursements(ctx context.Context, txnID uuid.UUID) error {
	pending, err := s.disbursementRepo.ListPendingByTransaction(ctx, txnID)
	if err != nil {
		return fmt.Errorf("list pending disbursements for transaction %s: %w", txnID, err)
	}
	for _, d := range pending {
		if err := s.tracker.Cancel(ctx, d.ID); err != nil {
			utils.Logger.WithError(err).Errorf("Failed to cancel disbursement %s", d.ID)
		}
	}
	if len(pending) > 0 {
		utils.Logger.Infof("Cancelled %d pending disbursements for refunded transaction %s", len(pending), txnID)
	}
	return nil
}

// CancelRefundedSweep is the cron safety net: the refund handler cancels
// pending disbursements inline, but a crash between the status update and the
// cancellations would leave orphans.
func (s *PaymentEventService) CancelRefundedSweep(ctx context.Context) error {
	refunded, err := s.txnRepo.ListByStatus(ctx, models.TransactionStatusRefunded)
	if err != nil {
		return fmt.Errorf("list refunded transactions: %w", err)
	}
	for _, txn := range refunded {
		if err := s.cancelPendingDisbursements(ctx, txn.ID); err != nil {
			utils.Logger.WithError(err).Errorf("Refund sweep failed for transaction %s", txn.ID)
		}
	}
	return nil
}

func (s *PaymentEventService) transition(ctx context.Context, ev PaymentEvent, from, to models.TransactionStatusType) error {
	txn, err := s.txnRepo.GetByProcessorPaymentID(ctx, ev.Processor, ev.ProcessorPaymentID)
	if err != nil {
		return fmt.Errorf("find transaction for payment %s: %w", ev.ProcessorPaymentID, err)
	}
	if txn == nil {
		utils.Logger.Warnf("Event for unknown payment %s; ignoring", ev.ProcessorPaymentID)
		return nil
	}

	err = s.txnRepo.UpdateWithRetry(ctx, txn.ID, func(t *models.PaymentTransaction) error {
		if t.Status != from {
			utils.Logger.Infof("Ignoring %s event for transaction %s in status %s", to, t.ID, t.Status)
			return nil
		}
		t.Status = to
		return nil
	})
	if err != nil {
		return fmt.Errorf("transition transaction %s to %s: %w", txn.ID, to, err)
	}
	return nil
}

// findOrRegister resolves the transaction for an event, creating the PENDING
// row first if the attempt's creation event was missed.
func (s *PaymentEventService) findOrRegister(ctx context.Context, ev PaymentEvent) (*models.PaymentTransaction, error) {
	txn, err := s.txnRepo.GetByProcessorPaymentID(ctx, ev.Processor, ev.ProcessorPaymentID)
	if err != nil {
		return nil, fmt.Errorf("find transaction for payment %s: %w", ev.ProcessorPaymentID, err)
	}
	if txn != nil {
		return txn, nil
	}

	if ev.PaymentLinkID == uuid.Nil {
		utils.Logger.Warnf("Completed event for unknown payment %s with no link reference; ignoring", ev.ProcessorPaymentID)
		return nil, nil
	}
	if err := s.RegisterPending(ctx, ev); err != nil {
		return nil, err
	}
	txn, err = s.txnRepo.GetByProcessorPaymentID(ctx, ev.Processor, ev.ProcessorPaymentID)
	if err != nil {
		return nil, fmt.Errorf("reload transaction for payment %s: %w", ev.ProcessorPaymentID, err)
	}
	return txn, nil
}
