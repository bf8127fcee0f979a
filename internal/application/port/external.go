package port

import (
	"context"

	"github.com/homologa/vehicle-homologation/internal/domain/entity"
)

// MessageSender delivers a plain-text message to a recipient identified by email
type MessageSender interface {
	SendText(ctx context.Context, email string, content string) error
	Channel() string
}

// DeliveryReport is the outcome of a notification attempt.
// The workflow engine logs a failed report and otherwise ignores it.
type DeliveryReport struct {
	Delivered bool
	Channel   string
	Err       error
}

// Failed reports whether the notification attempt ended in an error
func (r DeliveryReport) Failed() bool {
	return r.Err != nil
}

// Notifier tells a submission owner about a status change
type Notifier interface {
	NotifyStatusChange(ctx context.Context, nc entity.NotificationContext) DeliveryReport
}
