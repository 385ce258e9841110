// Package mail holds mailer implementations that do not depend on a provider.
package mail

import (
	"context"

	"github.com/garyjia/invoice-service/internal/application/port"
	"go.uber.org/zap"
)

// LogMailer writes outbound messages to the log instead of delivering them.
// Used when no mail provider is configured.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer creates a LogMailer
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send logs msg at info level
func (m *LogMailer) Send(ctx context.Context, msg port.MailMessage) error {
	m.logger.Info("Mail delivery disabled, logging message",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("text", msg.Text))
	return nil
}

var _ port.Mailer = (*LogMailer)(nil)
