// ABOUTME: Dry-run transport that writes messages to the structured log
// ABOUTME: Used when no mail provider is configured
package mail

import (
	"context"

	"go.uber.org/zap"
)

// LogTransport logs each message instead of sending it.
type LogTransport struct {
	logger *zap.Logger
}

func NewLogTransport(logger *zap.Logger) *LogTransport {
	return &LogTransport{logger: logger.Named("mail")}
}

func (l *LogTransport) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return &DeliveryError{Recipient: msg.To, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return &DeliveryError{Recipient: msg.To, Err: err}
	}
	l.logger.Info("mail not sent (log transport)",
		zap.String("to", msg.To),
		zap.Strings("cc", msg.Cc),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	return nil
}
