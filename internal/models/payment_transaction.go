package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionStatusType string

const (
	TransactionStatusPending   TransactionStatusType = "PENDING"
	TransactionStatusCompleted TransactionStatusType = "COMPLETED"
	TransactionStatusFailed    TransactionStatusType = "FAILED"
	TransactionStatusRefunded  TransactionStatusType = "REFUNDED"
	TransactionStatusExpired   TransactionStatusType = "EXPIRED"
)

type ProcessorType string

const (
	ProcessorStripe    ProcessorType = "stripe"
	ProcessorCrossmint ProcessorType = "crossmint"
)

// PaymentTransaction records one payment attempt against a payment link.
// Status transitions are driven by processor webhooks; deliveries can be
// duplicated or arrive out of order, so every transition is idempotent.
type PaymentTransaction struct {
	Versioned

	ID                 uuid.UUID             `json:"id"`
	PaymentLinkID      uuid.UUID             `json:"payment_link_id"`
	Amount             decimal.Decimal       `json:"amount"`
	Currency           string                `json:"currency"`
	Status             TransactionStatusType `json:"status"`
	Processor          ProcessorType         `json:"processor"`
	ProcessorPaymentID *string               `json:"processor_payment_id,omitempty"`
	PayerEmail         *string               `json:"payer_email,omitempty"`
	CompletedAt        *time.Time            `json:"completed_at,omitempty"`
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
}

func (t *PaymentTransaction) GetID() string {
	return t.ID.String()
}

// IsTerminal reports whether no further webhook may move the transaction,
// with the single exception of COMPLETED -> REFUNDED.
func (t *PaymentTransaction) IsTerminal() bool {
	switch t.Status {
	case TransactionStatusFailed, TransactionStatusRefunded, TransactionStatusExpired:
		return true
	default:
		return false
	}
}
