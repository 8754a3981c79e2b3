package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RecipientType string

const (
	RecipientTypePlatformUser  RecipientType = "PLATFORM_USER"
	RecipientTypeExternalEmail RecipientType = "EXTERNAL_EMAIL"
	RecipientTypePlatformFee   RecipientType = "PLATFORM_FEE"
)

type SplitType string

const (
	SplitTypePercentage  SplitType = "PERCENTAGE"
	SplitTypeFixedAmount SplitType = "FIXED_AMOUNT"
)

// SplitRecipient is a configured target for a portion of a payment link's
// proceeds. Exactly one of SplitPercentage / SplitAmountFixed is set,
// matching SplitType. ID is uuid.Nil until the row is persisted.
type SplitRecipient struct {
	ID            uuid.UUID `json:"id"`
	PaymentLinkID uuid.UUID `json:"payment_link_id"`

	RecipientType   RecipientType `json:"recipient_type"`
	RecipientUserID *uuid.UUID    `json:"recipient_user_id,omitempty"`
	RecipientEmail  *string       `json:"recipient_email,omitempty"`
	RecipientName   string        `json:"recipient_name"`

	SplitType        SplitType        `json:"split_type"`
	SplitPercentage  *decimal.Decimal `json:"split_percentage,omitempty"`
	SplitAmountFixed *decimal.Decimal `json:"split_amount_fixed,omitempty"`

	IsPrimaryRecipient bool    `json:"is_primary_recipient"`
	Notes              *string `json:"notes,omitempty"`

	// Position preserves insertion order; fixed-amount recipients are
	// satisfied greedily in this order during allocation.
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
