package smtp

import (
	"context"

	"github.com/securescan-api/internal/domain"
	"go.uber.org/zap"
)

// ConsoleMailer logs OTP deliveries instead of sending them. Development only:
// the code appears in the log.
type ConsoleMailer struct {
	log *zap.Logger
}

func NewConsoleMailer(log *zap.Logger) *ConsoleMailer {
	return &ConsoleMailer{log: log}
}

func (c *ConsoleMailer) Deliver(_ context.Context, to string, d domain.Delivery) error {
	c.log.Info("otp email (not sent)",
		zap.String("to", to),
		zap.Int("code", d.Code),
		zap.Int("ttl_minutes", d.TTLMinutes))
	return nil
}
