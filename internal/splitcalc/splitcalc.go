// Package splitcalc turns a recipient configuration and a concrete payment
// amount into per-recipient disbursement amounts, and validates recipient
// configurations before they are persisted. Everything here is pure
// computation over its arguments; persistence is the caller's concern.
package splitcalc

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/preenhq/payments-service/internal/models"
)

var hundred = decimal.NewFromInt(100)

// ValidationError identifies the first offending recipient in a configuration.
// Position is 1-based so it can be shown to the link owner as-is.
type ValidationError struct {
	Position int
	Field    string
	Message  string
}

func (e *ValidationError) Error() string {
	if e.Position > 0 {
		return fmt.Sprintf("recipient %d: %s", e.Position, e.Message)
	}
	return e.Message
}

// Allocation is one recipient's share of a payment. Percentage is the
// effective percentage of the original payment amount this allocation
// represents, recorded for audit even when the recipient used a fixed amount.
type Allocation struct {
	Recipient  models.SplitRecipient
	Amount     decimal.Decimal
	Percentage decimal.Decimal
}

// WarningCode classifies allocation edge cases that degrade silently instead
// of erroring: the amounts are still allocated (possibly clamped to zero), but
// the caller can surface the condition as an advisory.
type WarningCode string

const (
	WarningFixedAmountClamped WarningCode = "fixed_amount_clamped"
	WarningUnknownSplitType   WarningCode = "unknown_split_type"
)

type Warning struct {
	Code     WarningCode `json:"code"`
	Position int         `json:"position"` // 1-based index into the input list
	Message  string      `json:"message"`
}

// Validate checks a recipient configuration before it is persisted.
// An empty list is valid: no splitting configured, the owner keeps the full
// amount. The first per-recipient violation aborts with a descriptive error;
// list-wide checks (percentage sum, primary count) run afterwards.
func Validate(recipients []models.SplitRecipient) error {
	for i, r := range recipients {
		pos := i + 1

		switch r.RecipientType {
		case models.RecipientTypePlatformUser:
			if r.RecipientUserID == nil {
				return &ValidationError{Position: pos, Field: "recipient_user_id", Message: "platform user recipient is missing a user reference"}
			}
		case models.RecipientTypeExternalEmail:
			if r.RecipientEmail == nil || *r.RecipientEmail == "" {
				return &ValidationError{Position: pos, Field: "recipient_email", Message: "external email recipient is missing an email"}
			}
		case models.RecipientTypePlatformFee:
			// No identity required.
		default:
			return &ValidationError{Position: pos, Field: "recipient_type", Message: fmt.Sprintf("unknown recipient type %q", r.RecipientType)}
		}

		switch r.SplitType {
		case models.SplitTypePercentage:
			if r.SplitPercentage == nil {
				return &ValidationError{Position: pos, Field: "split_percentage", Message: "percentage split is missing a percentage"}
			}
			if !r.SplitPercentage.IsPositive() || r.SplitPercentage.GreaterThan(hundred) {
				return &ValidationError{Position: pos, Field: "split_percentage", Message: fmt.Sprintf("invalid percentage (%s)", r.SplitPercentage)}
			}
		case models.SplitTypeFixedAmount:
			if r.SplitAmountFixed == nil {
				return &ValidationError{Position: pos, Field: "split_amount_fixed", Message: "fixed amount split is missing an amount"}
			}
			if !r.SplitAmountFixed.IsPositive() {
				return &ValidationError{Position: pos, Field: "split_amount_fixed", Message: fmt.Sprintf("invalid fixed amount (%s)", r.SplitAmountFixed)}
			}
		default:
			return &ValidationError{Position: pos, Field: "split_type", Message: fmt.Sprintf("unknown split type %q", r.SplitType)}
		}
	}

	percentageSum := decimal.Zero
	for _, r := range recipients {
		if r.SplitType == models.SplitTypePercentage && r.SplitPercentage != nil {
			percentageSum = percentageSum.Add(*r.SplitPercentage)
		}
	}
	if percentageSum.GreaterThan(hundred) {
		return &ValidationError{Field: "split_percentage", Message: fmt.Sprintf("recipient percentages sum to %s, must not exceed 100", percentageSum)}
	}

	primaries := 0
	for _, r := range recipients {
		if r.IsPrimaryRecipient {
			primaries++
		}
	}
	if primaries > 1 {
		return &ValidationError{Field: "is_primary_recipient", Message: fmt.Sprintf("%d recipients marked primary, at most one allowed", primaries)}
	}

	return nil
}

// Calculate produces the disbursement plan for a payment amount against an
// already-validated recipient list. The allocation is a two-pass scheme:
//
//  1. Fixed-amount recipients are satisfied greedily in list order, each
//     clamped to whatever remains. Over-subscription never errors; late
//     recipients simply receive less, down to zero.
//  2. Percentage recipients each take their percentage of the single amount
//     left after the fixed pass. The remainder is not depleted between
//     percentage recipients: a percentage is "of what's left after flat
//     fees", not of a running balance.
//
// Every amount is rounded down to cents. Rounding half-up could push the
// allocation total past the payment (two 50% shares of a 0.01 remainder
// would each round to 0.01), so allocations never sum to more than the
// payment; sub-cent dust stays with the owner.
//
// The returned allocations are ordered fixed-amount entries first, then
// percentage entries, each group in list order. Recipients with an
// unrecognized split type contribute nothing and are reported as warnings.
// Calculate does not re-validate; callers must run Validate first.
func Calculate(recipients []models.SplitRecipient, paymentAmount decimal.Decimal) ([]Allocation, []Warning) {
	allocations := make([]Allocation, 0, len(recipients))
	var warnings []Warning

	remaining := paymentAmount

	for i, r := range recipients {
		if r.SplitType != models.SplitTypeFixedAmount || r.SplitAmountFixed == nil {
			continue
		}
		amount := decimal.Min(*r.SplitAmountFixed, remaining).RoundDown(2)
		if amount.LessThan(*r.SplitAmountFixed) {
			warnings = append(warnings, Warning{
				Code:     WarningFixedAmountClamped,
				Position: i + 1,
				Message:  fmt.Sprintf("fixed amount %s clamped to %s (insufficient remainder)", r.SplitAmountFixed, amount),
			})
		}
		remaining = remaining.Sub(amount)
		allocations = append(allocations, Allocation{
			Recipient:  r,
			Amount:     amount,
			Percentage: effectivePercentage(amount, paymentAmount),
		})
	}

	afterFixed := remaining
	for _, r := range recipients {
		if r.SplitType != models.SplitTypePercentage || r.SplitPercentage == nil {
			continue
		}
		amount := afterFixed.Mul(*r.SplitPercentage).Div(hundred).RoundDown(2)
		allocations = append(allocations, Allocation{
			Recipient:  r,
			Amount:     amount,
			Percentage: effectivePercentage(amount, paymentAmount),
		})
	}

	for i, r := range recipients {
		if r.SplitType != models.SplitTypeFixedAmount && r.SplitType != models.SplitTypePercentage {
			warnings = append(warnings, Warning{
				Code:     WarningUnknownSplitType,
				Position: i + 1,
				Message:  fmt.Sprintf("split type %q not recognized, recipient skipped", r.SplitType),
			})
		}
	}

	return allocations, warnings
}

// effectivePercentage reports amount as a percentage of total, for audit
// display. Zero when total is zero to avoid a division panic on bad input.
func effectivePercentage(amount, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return amount.Mul(hundred).Div(total).Round(4)
}
