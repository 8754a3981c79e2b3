package dtos

import "github.com/shopspring/decimal"

// DisbursementOutcomeRequest is the callback body posted by the payout
// pipeline once it has attempted a transfer.
type DisbursementOutcomeRequest struct {
	Status              string           `json:"status" validate:"required,oneof=processed failed cancelled"`
	ProcessorTransferID *string          `json:"processor_transfer_id,omitempty"`
	Fee                 *decimal.Decimal `json:"fee,omitempty"`
	FailureReason       *string          `json:"failure_reason,omitempty"`
}

type DisbursementOutcomeResponse struct {
	Message string `json:"message"`
}
