// Package email provides outbound customer email delivery. The engine never
// depends on delivery succeeding; senders are invoked fire-and-forget from
// the notification module.
package email

import (
	"context"

	"workshop_backend/platform/config"
)

// Sender delivers customer-facing emails.
type Sender interface {
	// SendEstimateEmail sends the approval link for a freshly generated
	// estimate.
	SendEstimateEmail(ctx context.Context, toEmail, customerName, vehicleLabel, approvalURL string, totalCents int64) error
	// SendEstimateRespondedEmail notifies the shop's inbox that a customer
	// answered an estimate.
	SendEstimateRespondedEmail(ctx context.Context, toEmail, status string, approvedCents int64) error
}

// NoopSender drops every email. Used when SMTP is not configured.
type NoopSender struct{}

func (NoopSender) SendEstimateEmail(ctx context.Context, toEmail, customerName, vehicleLabel, approvalURL string, totalCents int64) error {
	return nil
}

func (NoopSender) SendEstimateRespondedEmail(ctx context.Context, toEmail, status string, approvedCents int64) error {
	return nil
}

var _ Sender = NoopSender{}

// NewSender selects the sender implementation from configuration: SMTP when
// email is enabled, a no-op otherwise.
func NewSender(cfg config.NotificationConfig) Sender {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	)
}
