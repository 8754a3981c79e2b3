package models

import "github.com/shopspring/decimal"

// TransactionSplitSummary aggregates the disbursements of one payment
// transaction. It is recomputed on read and never stored.
//
// TotalSplitAmount is the committed allocation regardless of status.
// RemainingAmount may be non-zero even when every disbursement is processed,
// due to rounding or partial configuration; callers surface it as an advisory.
type TransactionSplitSummary struct {
	SplitCount       int             `json:"split_count"`
	TotalSplitAmount decimal.Decimal `json:"total_split_amount"`
	RemainingAmount  decimal.Decimal `json:"remaining_amount"`
	ProcessedSplits  int             `json:"processed_splits"`
	PendingSplits    int             `json:"pending_splits"`
	FailedSplits     int             `json:"failed_splits"`
	CancelledSplits  int             `json:"cancelled_splits"`
}
