package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/taskdigest-api/internal/mail"
	"github.com/stretchr/testify/mock"
)

// MockMailer implements mail.Mailer, recording every message it accepts.
type MockMailer struct {
	// SendFn overrides the default behavior. Messages are recorded only when
	// SendFn returns nil.
	SendFn func(ctx context.Context, msg mail.Message) error

	mu   sync.Mutex
	sent []mail.Message
}

var _ mail.Mailer = (*MockMailer)(nil)

// Send implements mail.Mailer.
func (m *MockMailer) Send(ctx context.Context, msg mail.Message) error {
	if m.SendFn != nil {
		if err := m.SendFn(ctx, msg); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
	return nil
}

// Sent returns a copy of the recorded messages.
func (m *MockMailer) Sent() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.sent...)
}

// Last returns the most recent message, or false if none was sent.
func (m *MockMailer) Last() (mail.Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return mail.Message{}, false
	}
	return m.sent[len(m.sent)-1], true
}

// TestifyMockMailer is a mail.Mailer for use with testify/mock expectations.
type TestifyMockMailer struct {
	mock.Mock
}

var _ mail.Mailer = (*TestifyMockMailer)(nil)

// Send implements mail.Mailer.
func (m *TestifyMockMailer) Send(ctx context.Context, msg mail.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
