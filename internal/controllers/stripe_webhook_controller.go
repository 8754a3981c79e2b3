package controllers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/preenhq/payments-service/internal/config"
	"github.com/preenhq/payments-service/internal/models"
	"github.com/preenhq/payments-service/internal/services"
	"github.com/preenhq/payments-service/internal/utils"
)

// Metadata key carried on Stripe objects created by the checkout frontend,
// linking a payment attempt back to our payment link.
const metadataLinkIDKey = "payment_link_id"

type StripeWebhookController struct {
	cfg                 *config.Config
	paymentEventService *services.PaymentEventService
}

func NewStripeWebhookController(cfg *config.Config, paymentEventService *services.PaymentEventService) *StripeWebhookController {
	stripe.Key = cfg.StripeSecretKey
	return &StripeWebhookController{
		cfg:                 cfg,
		paymentEventService: paymentEventService,
	}
}

// WebhookHandler -> POST /api/v1/payments/stripe/webhook
//
// Always answers 200 once the signature checks out; Stripe retries anything
// else and every downstream handler is idempotent anyway.
func (c *StripeWebhookController) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	sigHeader := r.Header.Get("Stripe-Signature")
	if sigHeader == "" {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Missing Stripe-Signature header", nil)
		return
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Failed to read webhook body", nil, err)
		return
	}

	event, err := webhook.ConstructEvent(payload, sigHeader, c.cfg.StripeWebhookSecret)
	if err != nil {
		utils.Logger.WithError(err).Error("Stripe webhook signature verification failed")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentCreated:
		if ev, ok := c.eventFromPaymentIntent(event); ok {
			_ = c.paymentEventService.RegisterPending(r.Context(), ev)
		}
	case stripe.EventTypePaymentIntentSucceeded:
		if ev, ok := c.eventFromPaymentIntent(event); ok {
			_ = c.paymentEventService.HandleCompleted(r.Context(), ev)
		}
	case stripe.EventTypePaymentIntentPaymentFailed:
		if ev, ok := c.eventFromPaymentIntent(event); ok {
			_ = c.paymentEventService.HandleFailed(r.Context(), ev)
		}
	case stripe.EventTypePaymentIntentCanceled:
		if ev, ok := c.eventFromPaymentIntent(event); ok {
			_ = c.paymentEventService.HandleExpired(r.Context(), ev)
		}
	case stripe.EventTypeCheckoutSessionCompleted:
		if ev, ok := c.eventFromCheckoutSession(event); ok {
			_ = c.paymentEventService.HandleCompleted(r.Context(), ev)
		}
	case stripe.EventTypeCheckoutSessionExpired:
		if ev, ok := c.eventFromCheckoutSession(event); ok {
			_ = c.paymentEventService.HandleExpired(r.Context(), ev)
		}
	case stripe.EventTypeChargeRefunded:
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			utils.Logger.WithError(err).Errorf("Could not parse stripe.Charge object for event type %s", event.Type)
			break
		}
		if charge.PaymentIntent == nil {
			utils.Logger.Warnf("charge.refunded event %s carries no payment intent; ignoring", event.ID)
			break
		}
		_ = c.paymentEventService.HandleRefunded(r.Context(), services.PaymentEvent{
			Processor:          models.ProcessorStripe,
			ProcessorPaymentID: charge.PaymentIntent.ID,
		})
	default:
		utils.Logger.Infof("Unhandled Stripe event type received: %s", event.Type)
	}

	w.WriteHeader(http.StatusOK)
}

// eventFromCheckoutSession covers links paid through Stripe Checkout, where
// the session (not the payment intent) carries our metadata and the payer
// email. The session's payment intent id keys the transaction, so intent
// events for the same payment converge on one row.
func (c *StripeWebhookController) eventFromCheckoutSession(event stripe.Event) (services.PaymentEvent, bool) {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		utils.Logger.WithError(err).Errorf("Could not parse stripe.CheckoutSession object for event type %s", event.Type)
		return services.PaymentEvent{}, false
	}
	if session.PaymentIntent == nil {
		utils.Logger.Warnf("Checkout session %s carries no payment intent; ignoring", session.ID)
		return services.PaymentEvent{}, false
	}

	ev := services.PaymentEvent{
		Processor:          models.ProcessorStripe,
		ProcessorPaymentID: session.PaymentIntent.ID,
		Amount:             decimal.New(session.AmountTotal, -2),
		Currency:           strings.ToUpper(string(session.Currency)),
	}
	if session.CustomerDetails != nil && session.CustomerDetails.Email != "" {
		ev.PayerEmail = utils.StrPtr(session.CustomerDetails.Email)
	}
	if raw, ok := session.Metadata[metadataLinkIDKey]; ok {
		if linkID, err := uuid.Parse(raw); err == nil {
			ev.PaymentLinkID = linkID
		} else {
			utils.Logger.Warnf("Checkout session %s carries malformed %s metadata: %q", session.ID, metadataLinkIDKey, raw)
		}
	}
	return ev, true
}

func (c *StripeWebhookController) eventFromPaymentIntent(event stripe.Event) (services.PaymentEvent, bool) {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		utils.Logger.WithError(err).Errorf("Could not parse stripe.PaymentIntent object for event type %s", event.Type)
		return services.PaymentEvent{}, false
	}

	ev := services.PaymentEvent{
		Processor:          models.ProcessorStripe,
		ProcessorPaymentID: pi.ID,
		Amount:             decimal.New(pi.Amount, -2),
		Currency:           strings.ToUpper(string(pi.Currency)),
	}
	if pi.ReceiptEmail != "" {
		ev.PayerEmail = utils.StrPtr(pi.ReceiptEmail)
	}
	if raw, ok := pi.Metadata[metadataLinkIDKey]; ok {
		if linkID, err := uuid.Parse(raw); err == nil {
			ev.PaymentLinkID = linkID
		} else {
			utils.Logger.Warnf("Payment intent %s carries malformed %s metadata: %q", pi.ID, metadataLinkIDKey, raw)
		}
	}
	return ev, true
}
