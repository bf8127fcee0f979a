package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/homologa/vehicle-homologation/internal/application/port"
	"github.com/homologa/vehicle-homologation/internal/domain/entity"
	"github.com/homologa/vehicle-homologation/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// NotificationRepository implements port.NotificationRepository
type NotificationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sql.DB, logger *zap.Logger) port.NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new notification record
func (r *NotificationRepository) Create(ctx context.Context, n *entity.StatusNotification) error {
	query := `
		INSERT INTO status_notifications (
			submission_id, recipient, new_status, reason, channel, status, error_message,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now().UTC()
	n.CreatedAt = now
	n.UpdatedAt = now
	if n.Status == "" {
		n.Status = entity.NotificationStatusPending
	}

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		n.SubmissionID,
		n.Recipient,
		n.NewStatus,
		n.Reason,
		n.Channel,
		n.Status,
		n.ErrorMessage,
		n.CreatedAt,
		n.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create notification", zap.String("submission_id", n.SubmissionID), zap.Error(err))
		return fmt.Errorf("failed to create notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	n.ID = id
	return nil
}

// MarkSent marks a notification as delivered
func (r *NotificationRepository) MarkSent(ctx context.Context, id int64) error {
	query := `UPDATE status_notifications SET status = ?, sent_at = ?, updated_at = ? WHERE id = ?`

	now := time.Now().UTC()
	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, entity.NotificationStatusSent, now, now, id)
	if err != nil {
		r.logger.Error("Failed to mark notification sent", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark notification sent: %w", err)
	}
	return nil
}

// MarkFailed records a delivery failure
func (r *NotificationRepository) MarkFailed(ctx context.Context, id int64, errorMessage string) error {
	query := `UPDATE status_notifications SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`

	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, entity.NotificationStatusFailed, errorMessage, time.Now().UTC(), id)
	if err != nil {
		r.logger.Error("Failed to mark notification failed", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark notification failed: %w", err)
	}
	return nil
}

// ListBySubmission returns notifications for a submission, oldest first
func (r *NotificationRepository) ListBySubmission(ctx context.Context, submissionID string) ([]*entity.StatusNotification, error) {
	query := `
		SELECT id, submission_id, recipient, new_status, reason, channel, status, error_message,
			sent_at, created_at, updated_at
		FROM status_notifications
		WHERE submission_id = ?
		ORDER BY id
	`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*entity.StatusNotification
	for rows.Next() {
		var n entity.StatusNotification
		var sentAt sql.NullTime

		if err := rows.Scan(
			&n.ID,
			&n.SubmissionID,
			&n.Recipient,
			&n.NewStatus,
			&n.Reason,
			&n.Channel,
			&n.Status,
			&n.ErrorMessage,
			&sentAt,
			&n.CreatedAt,
			&n.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}

		if sentAt.Valid {
			n.SentAt = &sentAt.Time
		}
		notifications = append(notifications, &n)
	}

	return notifications, rows.Err()
}

// Verify interface compliance
var _ port.NotificationRepository = (*NotificationRepository)(nil)
