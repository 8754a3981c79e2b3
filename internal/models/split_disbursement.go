package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DistributionStatusType defines the lifecycle states of a single disbursement,
// independent of the lifecycle of its parent payment transaction.
type DistributionStatusType string

const (
	DistributionStatusPending   DistributionStatusType = "PENDING"
	DistributionStatusProcessed DistributionStatusType = "PROCESSED"
	DistributionStatusFailed    DistributionStatusType = "FAILED"
	DistributionStatusCancelled DistributionStatusType = "CANCELLED"
)

// IsTerminalDistributionStatus reports whether no transition may leave the status.
// PROCESSED, FAILED and CANCELLED are all terminal; only PENDING can move.
func IsTerminalDistributionStatus(s DistributionStatusType) bool {
	return s == DistributionStatusProcessed ||
		s == DistributionStatusFailed ||
		s == DistributionStatusCancelled
}

// SplitDisbursement is the concrete, amount-bearing record of how much a given
// recipient receives from one specific completed payment. Recipient identity is
// snapshotted at creation so later recipient edits don't retroactively alter
// historical disbursement display.
type SplitDisbursement struct {
	Versioned

	ID            uuid.UUID  `json:"id"`
	TransactionID uuid.UUID  `json:"transaction_id"`
	RecipientID   *uuid.UUID `json:"recipient_id,omitempty"`

	// Recipient snapshot
	RecipientType   RecipientType `json:"recipient_type"`
	RecipientUserID *uuid.UUID    `json:"recipient_user_id,omitempty"`
	RecipientEmail  *string       `json:"recipient_email,omitempty"`
	RecipientName   string        `json:"recipient_name"`

	// Position mirrors the allocation order and, combined with TransactionID,
	// uniquely identifies the row for idempotent inserts.
	Position int `json:"position"`

	SplitAmount            decimal.Decimal `json:"split_amount"`
	SplitPercentageApplied decimal.Decimal `json:"split_percentage_applied"`

	DistributionStatus  DistributionStatusType `json:"distribution_status"`
	ProcessorTransferID *string                `json:"processor_transfer_id,omitempty"`
	DistributionFee     *decimal.Decimal       `json:"distribution_fee,omitempty"`
	DistributedAt       *time.Time             `json:"distributed_at,omitempty"`
	FailureReason       *string                `json:"failure_reason,omitempty"`
	Metadata            map[string]string      `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (d *SplitDisbursement) GetID() string {
	return d.ID.String()
}
