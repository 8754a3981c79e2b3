package constants

import "time"

// Disbursement failure reasons recorded on FAILED rows. These standardize
// logging and let the UI decide whether the owner can act on the failure.
const (
	ReasonRecipientUnreachable = "recipient_unreachable"
	ReasonPayoutRejected       = "payout_rejected"
	ReasonParentRefunded       = "parent_transaction_refunded"
)

// Header carrying the shared secret on disbursement-outcome callbacks from
// the payout pipeline.
const DisbursementCallbackSecretHeader = "X-Disbursement-Secret"

// Email subjects and senders.
const (
	EmailSubjectDisbursementFailed = "Action Required: A Payout From Your Payment Link Failed"
	EmailSubjectPaymentReceipt     = "Your Preen Payment Receipt"
	SupportTeamEmail               = "support@preenhq.com"
	SupportTeamName                = "Preen Support"
)

// Payment link business logic.
const (
	LinkSlugLength        = 10
	PendingTransactionTTL = 24 * time.Hour
)

// Background job scheduling and timeouts.
const (
	ExpirySweepCronSpec     = "*/15 * * * *" // every 15 minutes
	RefundSweepCronSpec     = "5 * * * *"    // hourly, offset from expiry sweep
	ExpirySweepJobTimeout   = 5 * time.Minute
	RefundSweepJobTimeout   = 5 * time.Minute
)
