// Package mail sends transactional email. Transports (SMTP, SendGrid and a
// logging transport for development) share the Mailer interface, and every
// transport failure wraps ErrDelivery.
package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskdigest-api/internal/config"
)

// ErrDelivery is wrapped by every error a Mailer returns.
var ErrDelivery = errors.New("mail delivery failed")

// Message is a single outbound email. HTML is optional.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Mailer delivers messages. Implementations must respect ctx cancellation.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Sender identifies the From address.
type Sender struct {
	Address string
	Name    string
}

// New builds the transport selected by cfg.Driver.
func New(cfg config.MailConfig, log *slog.Logger) (Mailer, error) {
	from := Sender{Address: cfg.From, Name: cfg.FromName}

	switch cfg.Driver {
	case "smtp":
		return NewSMTPMailer(SMTPConfig{
			Host:     cfg.Host,
			Port:     cfg.Port,
			Username: cfg.Username,
			Password: cfg.Password,
		}, from), nil
	case "sendgrid":
		return NewSendGridMailer(cfg.SendGridAPIKey, from), nil
	case "log", "":
		return NewLogMailer(log), nil
	default:
		return nil, fmt.Errorf("unknown mail driver %q", cfg.Driver)
	}
}

func deliveryError(transport string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrDelivery, transport, err)
}
