// internal/notify/noop.go
package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// NoopSender logs emails instead of delivering them. Used when no provider
// API key is configured.
type NoopSender struct {
	logger *zap.Logger
}

func NewNoopSender(logger *zap.Logger) *NoopSender {
	return &NoopSender{logger: logger}
}

func (s *NoopSender) Send(_ context.Context, req SendRequest) (SendResult, error) {
	s.logger.Info("email not delivered, no provider configured",
		zap.Strings("to", req.To),
		zap.String("subject", req.Subject),
	)
	now := time.Now()
	return SendResult{MessageID: fmt.Sprintf("noop-%d", now.UnixNano()), SentAt: now}, nil
}
