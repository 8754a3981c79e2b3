package dtos

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/preenhq/payments-service/internal/models"
)

type CreatePaymentLinkRequest struct {
	TenantID  uuid.UUID       `json:"tenant_id" validate:"required"`
	Title     string          `json:"title" validate:"required,min=1,max=200"`
	AmountDue decimal.Decimal `json:"amount_due" validate:"required"`
	Currency  string          `json:"currency" validate:"required,len=3,uppercase"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
}

type PaymentLinkResponse struct {
	ID        uuid.UUID             `json:"id"`
	TenantID  uuid.UUID             `json:"tenant_id"`
	Slug      string                `json:"slug"`
	Title     string                `json:"title"`
	AmountDue decimal.Decimal       `json:"amount_due"`
	Currency  string                `json:"currency"`
	Status    models.LinkStatusType `json:"status"`
	ExpiresAt *time.Time            `json:"expires_at,omitempty"`
	CreatedAt time.Time             `json:"created_at"`
}

func NewPaymentLinkResponse(l *models.PaymentLink) PaymentLinkResponse {
	return PaymentLinkResponse{
		ID:        l.ID,
		TenantID:  l.TenantID,
		Slug:      l.Slug,
		Title:     l.Title,
		AmountDue: l.AmountDue,
		Currency:  l.Currency,
		Status:    l.Status,
		ExpiresAt: l.ExpiresAt,
		CreatedAt: l.CreatedAt,
	}
}

// ValidationErrorDetail is the per-field payload attached to 400 responses.
type ValidationErrorDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
