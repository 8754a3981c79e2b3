package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LinkStatusType string

const (
	LinkStatusActive  LinkStatusType = "ACTIVE"
	LinkStatusExpired LinkStatusType = "EXPIRED"
	LinkStatusDeleted LinkStatusType = "DELETED"
)

// PaymentLink is a shareable request for payment with a fixed amount,
// owned by one platform user.
type PaymentLink struct {
	ID          uuid.UUID       `json:"id"`
	TenantID    uuid.UUID       `json:"tenant_id"`
	OwnerUserID uuid.UUID       `json:"owner_user_id"`
	Slug        string          `json:"slug"`
	Title       string          `json:"title"`
	AmountDue   decimal.Decimal `json:"amount_due"`
	Currency    string          `json:"currency"`
	Status      LinkStatusType  `json:"status"`
	ExpiresAt   *time.Time      `json:"expires_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (l *PaymentLink) GetID() string {
	return l.ID.String()
}
