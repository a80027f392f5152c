package email

import (
	"context"
	"fmt"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"
)

const (
	subjectEstimate          = "Your repair estimate is ready"
	subjectEstimateResponded = "A customer responded to an estimate"
)

// SMTPSender implements Sender over a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a new SMTPSender with the given SMTP credentials.
func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

// SendEstimateEmail sends the approval link for a generated estimate.
func (s *SMTPSender) SendEstimateEmail(ctx context.Context, toEmail, customerName, vehicleLabel, approvalURL string, totalCents int64) error {
	content, err := renderEmailTemplate("estimate.html", estimateEmailData{
		baseEmailData: baseEmailData{
			Title:    "Your repair estimate",
			Heading:  "Your estimate is ready to review",
			CTALabel: "Review estimate",
			CTAURL:   approvalURL,
		},
		CustomerName:   customerName,
		VehicleLabel:   vehicleLabel,
		TotalFormatted: formatCents(totalCents),
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectEstimate, content)
}

// SendEstimateRespondedEmail notifies the shop inbox about a customer
// response.
func (s *SMTPSender) SendEstimateRespondedEmail(ctx context.Context, toEmail, status string, approvedCents int64) error {
	content, err := renderEmailTemplate("estimate_responded.html", estimateRespondedEmailData{
		baseEmailData: baseEmailData{
			Title:   "Estimate response received",
			Heading: "Estimate response received",
		},
		Status:            status,
		ApprovedFormatted: formatCents(approvedCents),
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectEstimateResponded, content)
}

var _ Sender = (*SMTPSender)(nil)
