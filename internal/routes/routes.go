package routes

const (
	Health = "/health"

	StripeWebhook       = "/api/v1/payments/stripe/webhook"
	DisbursementOutcome = "/api/v1/payments/disbursements/{id}/outcome"

	PaymentLinks          = "/api/v1/payment-links"
	PaymentLinkBySlug     = "/api/v1/payment-links/{slug}"
	PaymentLinkRecipients = "/api/v1/payment-links/{id}/recipients"
	PaymentLinkPreview    = "/api/v1/payment-links/{id}/preview"
	TransactionSplits     = "/api/v1/transactions/{id}/splits"
)
