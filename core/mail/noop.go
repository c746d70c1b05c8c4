package mail

import (
	"context"

	"ratemyfit/logger"
)

// NoopSender logs emails instead of delivering them. Used in development or
// when SMTP is not configured.
type NoopSender struct{}

// NewNoopSender creates a NoopSender.
func NewNoopSender() *NoopSender {
	return &NoopSender{}
}

// Send logs the email and returns nil.
func (n *NoopSender) Send(_ context.Context, to, subject, body string) error {
	logger.Info("email (noop, not sent)",
		logger.String("to", to),
		logger.String("subject", subject),
		logger.String("body", body),
	)
	return nil
}
