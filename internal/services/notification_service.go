package services

import (
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/preenhq/payments-service/internal/config"
	"github.com/preenhq/payments-service/internal/constants"
	"github.com/preenhq/payments-service/internal/models"
	"github.com/preenhq/payments-service/internal/utils"
)

const disbursementFailureEmailHTML = `<!DOCTYPE html>
<html>
<head>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; line-height: 1.6; color: #333333; background-color: #f4f4f4; margin: 0; padding: 0; }
.container { padding: 20px; max-width: 600px; margin: 20px auto; background-color: #ffffff; border: 1px solid #dddddd; border-radius: 8px; }
.header { font-size: 24px; font-weight: bold; color: #d9534f; margin-bottom: 15px; }
.footer { margin-top: 20px; font-size: 12px; color: #777777; text-align: center; }
p { margin-bottom: 15px; }
</style>
</head>
<body>
<div class="container">
<p class="header">Action Required: A Payout Failed</p>
<p>Hi,</p>
<p>We were unable to send <strong>%s %s</strong> to <strong>%s</strong> for your payment link.</p>
<p><strong>Reason:</strong> %s</p>
<p>Please review the recipient's details and payout information, then retry the disbursement from your dashboard.</p>
<p>If you continue to have issues, please contact our support team.</p>
<div class="footer">The Preen Team</div>
</div>
</body>
</html>`

const paymentReceiptEmailHTML = `<!DOCTYPE html>
<html>
<head>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; line-height: 1.6; color: #333333; background-color: #f4f4f4; margin: 0; padding: 0; }
.container { padding: 20px; max-width: 600px; margin: 20px auto; background-color: #ffffff; border: 1px solid #dddddd; border-radius: 8px; }
.header { font-size: 24px; font-weight: bold; color: #3c8a3f; margin-bottom: 15px; }
.footer { margin-top: 20px; font-size: 12px; color: #777777; text-align: center; }
p { margin-bottom: 15px; }
</style>
</head>
<body>
<div class="container">
<p class="header">Payment Received</p>
<p>Thank you for your payment of <strong>%s %s</strong> for <strong>%s</strong>.</p>
<p>Reference: %s</p>
<div class="footer">The Preen Team</div>
</div>
</body>
</html>`

// Notifier is the slice of notification behavior the rest of the service
// layer depends on, so tests can swap in a recorder.
type Notifier interface {
	NotifyDisbursementFailed(ownerEmail string, d *models.SplitDisbursement, currency, reason string)
	SendPaymentReceipt(payerEmail string, txn *models.PaymentTransaction, linkTitle string)
}

type NotificationService struct {
	cfg            *config.Config
	sendgridClient *sendgrid.Client
}

func NewNotificationService(cfg *config.Config) *NotificationService {
	return &NotificationService{
		cfg:            cfg,
		sendgridClient: sendgrid.NewSendClient(cfg.SendgridAPIKey),
	}
}

// NotifyDisbursementFailed emails the link owner. Failures to send are logged,
// never propagated; the disbursement state change already happened.
func (s *NotificationService) NotifyDisbursementFailed(ownerEmail string, d *models.SplitDisbursement, currency, reason string) {
	from := mail.NewEmail(s.cfg.OrganizationName, s.cfg.LDFlag_SendgridFromEmail)
	to := mail.NewEmail("", ownerEmail)
	subject := constants.EmailSubjectDisbursementFailed

	plainTextContent := fmt.Sprintf(
		"We were unable to send %s %s to %s for your payment link.\n\nReason: %s\n\nPlease review the recipient's payout information and retry from your dashboard.\n\n- The Preen Team",
		d.SplitAmount.StringFixed(2),
		currency,
		d.RecipientName,
		reason,
	)
	htmlContent := fmt.Sprintf(
		disbursementFailureEmailHTML,
		d.SplitAmount.StringFixed(2),
		currency,
		d.RecipientName,
		reason,
	)

	s.send(mail.NewSingleEmail(from, subject, to, plainTextContent, htmlContent))
}

// SendPaymentReceipt emails the payer after a completed transaction. Only
// called when the processor reported a payer email.
func (s *NotificationService) SendPaymentReceipt(payerEmail string, txn *models.PaymentTransaction, linkTitle string) {
	from := mail.NewEmail(s.cfg.OrganizationName, s.cfg.LDFlag_SendgridFromEmail)
	to := mail.NewEmail("", payerEmail)
	subject := constants.EmailSubjectPaymentReceipt

	plainTextContent := fmt.Sprintf(
		"Thank you for your payment of %s %s for %s.\n\nReference: %s\n\n- The Preen Team",
		txn.Amount.StringFixed(2),
		txn.Currency,
		linkTitle,
		txn.ID,
	)
	htmlContent := fmt.Sprintf(
		paymentReceiptEmailHTML,
		txn.Amount.StringFixed(2),
		txn.Currency,
		linkTitle,
		txn.ID,
	)

	s.send(mail.NewSingleEmail(from, subject, to, plainTextContent, htmlContent))
}

func (s *NotificationService) send(msg *mail.SGMailV3) {
	if s.cfg.LDFlag_SendgridSandboxMode {
		ms := mail.NewMailSettings()
		ms.SetSandboxMode(mail.NewSetting(true))
		msg.MailSettings = ms
	}
	if _, err := s.sendgridClient.Send(msg); err != nil {
		utils.Logger.WithError(err).Error("Failed to send notification email")
	}
}
