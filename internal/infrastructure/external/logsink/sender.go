// Package logsink delivers notifications to the application log when no
// messaging backend is configured.
package logsink

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/homologa/vehicle-homologation/internal/application/port"
)

// ChannelName identifies log-sink deliveries in notification records
const ChannelName = "log"

// Sender implements port.MessageSender by writing each message to zap
type Sender struct {
	logger *zap.Logger
}

// NewSender creates a log sink sender
func NewSender(logger *zap.Logger) *Sender {
	return &Sender{logger: logger.Named("notifications")}
}

// Channel returns the delivery channel name
func (s *Sender) Channel() string {
	return ChannelName
}

// SendText logs the message instead of delivering it
func (s *Sender) SendText(ctx context.Context, email string, content string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}
	s.logger.Info("Notification",
		zap.String("recipient", email),
		zap.String("content", content))
	return nil
}

var _ port.MessageSender = (*Sender)(nil)
