package mail

import (
	"context"

	"gopkg.in/gomail.v2"
)

// SMTPConfig holds SMTP server credentials.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// MaxSMTPInFlight caps concurrent SMTP conversations per SMTPMailer,
// including ones abandoned after their context ended.
const MaxSMTPInFlight = 4

// SMTPMailer sends multipart mail through an SMTP relay with gomail.
// A new connection is dialed per message.
type SMTPMailer struct {
	from Sender
	send func(*gomail.Message) error
	// inFlight holds one slot per running conversation; nil means no cap.
	inFlight chan struct{}
}

// NewSMTPMailer creates an SMTP transport.
func NewSMTPMailer(cfg SMTPConfig, from Sender) *SMTPMailer {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &SMTPMailer{
		from:     from,
		send:     func(m *gomail.Message) error { return dialer.DialAndSend(m) },
		inFlight: make(chan struct{}, MaxSMTPInFlight),
	}
}

// Send implements Mailer. gomail has no context support and sets no deadline
// after the dial, so the conversation runs in its own goroutine and Send
// returns as soon as ctx is done. An abandoned conversation keeps its slot
// until the relay answers or drops the connection, so a stalled relay holds at
// most MaxSMTPInFlight goroutines; further sends wait for a slot or ctx.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	gm := m.buildMessage(msg)

	if m.inFlight != nil {
		select {
		case m.inFlight <- struct{}{}:
		case <-ctx.Done():
			return deliveryError("smtp", ctx.Err())
		}
	}

	done := make(chan error, 1)
	go func() {
		err := m.send(gm)
		if m.inFlight != nil {
			<-m.inFlight
		}
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return deliveryError("smtp", err)
		}
		return nil
	case <-ctx.Done():
		return deliveryError("smtp", ctx.Err())
	}
}

func (m *SMTPMailer) buildMessage(msg Message) *gomail.Message {
	gm := gomail.NewMessage()
	if m.from.Name != "" {
		gm.SetAddressHeader("From", m.from.Address, m.from.Name)
	} else {
		gm.SetHeader("From", m.from.Address)
	}
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		gm.AddAlternative("text/html", msg.HTML)
	}
	return gm
}
