package mail

import (
	"context"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// sendGridClient is the subset of *sendgrid.Client the mailer uses.
type sendGridClient interface {
	SendWithContext(ctx context.Context, email *sgmail.SGMailV3) (*rest.Response, error)
}

// SendGridMailer sends mail through the SendGrid v3 API.
type SendGridMailer struct {
	from   Sender
	client sendGridClient
}

// NewSendGridMailer creates a SendGrid transport.
func NewSendGridMailer(apiKey string, from Sender) *SendGridMailer {
	return &SendGridMailer{from: from, client: sendgrid.NewSendClient(apiKey)}
}

// Send implements Mailer. Any non-2xx response is a delivery failure.
func (m *SendGridMailer) Send(ctx context.Context, msg Message) error {
	from := sgmail.NewEmail(m.from.Name, m.from.Address)
	to := sgmail.NewEmail("", msg.To)
	email := sgmail.NewSingleEmail(from, msg.Subject, to, msg.Text, msg.HTML)

	resp, err := m.client.SendWithContext(ctx, email)
	if err != nil {
		return deliveryError("sendgrid", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return deliveryError("sendgrid", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	return nil
}
