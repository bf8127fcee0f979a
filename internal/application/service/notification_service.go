package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/homologa/vehicle-homologation/internal/application/port"
	"github.com/homologa/vehicle-homologation/internal/domain/entity"
)

// NotificationService tells submission owners about status changes and keeps
// a delivery log. It implements port.Notifier.
type NotificationService struct {
	notifications port.NotificationRepository
	sender        port.MessageSender
	logger        Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(
	notifications port.NotificationRepository,
	sender port.MessageSender,
	logger Logger,
) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		sender:        sender,
		logger:        logger,
	}
}

// NotifyStatusChange records a PENDING notification, delivers it and marks the outcome.
// Errors are reported in the DeliveryReport and never returned.
func (s *NotificationService) NotifyStatusChange(ctx context.Context, nc entity.NotificationContext) port.DeliveryReport {
	channel := s.sender.Channel()
	report := port.DeliveryReport{Channel: channel}

	recipient := strings.TrimSpace(nc.OwnerEmail)
	if recipient == "" {
		s.logger.Info("Owner has no email, skipping status notification",
			"submission_id", nc.SubmissionID,
			"new_status", nc.NewStatus,
		)
		return report
	}

	now := time.Now().UTC()
	record := &entity.StatusNotification{
		SubmissionID: nc.SubmissionID,
		Recipient:    recipient,
		NewStatus:    nc.NewStatus,
		Reason:       nc.Reason,
		Channel:      channel,
		Status:       entity.NotificationStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.notifications.Create(ctx, record); err != nil {
		s.logger.Error("Failed to record notification", "error", err, "submission_id", nc.SubmissionID)
		report.Err = fmt.Errorf("record notification: %w", err)
		return report
	}

	if err := s.sender.SendText(ctx, recipient, BuildStatusMessage(nc)); err != nil {
		if markErr := s.notifications.MarkFailed(context.WithoutCancel(ctx), record.ID, err.Error()); markErr != nil {
			s.logger.Error("Failed to mark notification failed", "error", markErr, "notification_id", record.ID)
		}
		report.Err = fmt.Errorf("send via %s: %w", channel, err)
		return report
	}

	if err := s.notifications.MarkSent(ctx, record.ID); err != nil {
		s.logger.Error("Failed to mark notification sent", "error", err, "notification_id", record.ID)
	}

	s.logger.Info("Status notification sent",
		"submission_id", nc.SubmissionID,
		"notification_id", record.ID,
		"channel", channel,
		"new_status", nc.NewStatus,
	)

	report.Delivered = true
	return report
}

// History returns every notification attempt for a submission
func (s *NotificationService) History(ctx context.Context, submissionID string) ([]*entity.StatusNotification, error) {
	return s.notifications.ListBySubmission(ctx, submissionID)
}

// BuildStatusMessage renders the plain-text body sent to the owner
func BuildStatusMessage(nc entity.NotificationContext) string {
	var b strings.Builder
	if nc.OwnerName != "" {
		fmt.Fprintf(&b, "Hello %s,\n\n", nc.OwnerName)
	}
	fmt.Fprintf(&b, "Your vehicle homologation submission %s is now %s.", nc.SubmissionID, nc.NewStatus)
	if nc.Reason != "" {
		fmt.Fprintf(&b, "\nReason: %s", nc.Reason)
	}
	return b.String()
}

var _ port.Notifier = (*NotificationService)(nil)
