package mail

import (
	"context"
	"log/slog"

	"github.com/phrazzld/taskdigest-api/internal/platform/logger"
)

// LogMailer writes messages to the log instead of sending them. It is the
// development transport and never fails.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a LogMailer. If log is nil, the default logger is used.
func NewLogMailer(log *slog.Logger) *LogMailer {
	if log == nil {
		log = slog.Default()
	}
	return &LogMailer{logger: log.With(slog.String("component", "log_mailer"))}
}

// Send implements Mailer.
func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return deliveryError("log", err)
	}
	logger.FromContextOrDefault(ctx, m.logger).Info("mail message",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("body", msg.Text))
	return nil
}
