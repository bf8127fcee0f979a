package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/homologa/vehicle-homologation/internal/application/port"
	"github.com/homologa/vehicle-homologation/internal/domain/entity"
	"github.com/homologa/vehicle-homologation/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// AttachmentRepository implements port.AttachmentRepository
type AttachmentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAttachmentRepository creates a new attachment repository
func NewAttachmentRepository(db *sql.DB, logger *zap.Logger) port.AttachmentRepository {
	return &AttachmentRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new attachment record
func (r *AttachmentRepository) Create(ctx context.Context, att *entity.Attachment) error {
	query := `
		INSERT INTO attachments (
			id, submission_id, kind, file_name, file_path, mime_type, file_size, created_by, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if att.CreatedAt.IsZero() {
		att.CreatedAt = time.Now().UTC()
	}

	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		att.ID,
		att.SubmissionID,
		att.Kind,
		att.FileName,
		att.FilePath,
		att.MimeType,
		att.FileSize,
		att.CreatedBy,
		att.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create attachment",
			zap.String("submission_id", att.SubmissionID),
			zap.Error(err))
		return fmt.Errorf("failed to create attachment: %w", err)
	}

	return nil
}

// GetByID retrieves an attachment by ID
func (r *AttachmentRepository) GetByID(ctx context.Context, id string) (*entity.Attachment, error) {
	query := `
		SELECT id, submission_id, kind, file_name, file_path, mime_type, file_size, created_by, created_at
		FROM attachments
		WHERE id = ?
	`

	att, err := scanAttachment(sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get attachment by ID", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get attachment: %w", err)
	}

	return att, nil
}

// ListBySubmission retrieves all attachments for a submission in upload order
func (r *AttachmentRepository) ListBySubmission(ctx context.Context, submissionID string) ([]*entity.Attachment, error) {
	query := `
		SELECT id, submission_id, kind, file_name, file_path, mime_type, file_size, created_by, created_at
		FROM attachments
		WHERE submission_id = ?
		ORDER BY created_at, id
	`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, submissionID)
	if err != nil {
		r.logger.Error("Failed to list attachments",
			zap.String("submission_id", submissionID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	defer rows.Close()

	var attachments []*entity.Attachment
	for rows.Next() {
		att, err := scanAttachment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}
		attachments = append(attachments, att)
	}

	return attachments, rows.Err()
}

// CountBySubmission returns the number of attachments on a submission
func (r *AttachmentRepository) CountBySubmission(ctx context.Context, submissionID string) (int, error) {
	var count int
	err := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM attachments WHERE submission_id = ?`, submissionID).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count attachments",
			zap.String("submission_id", submissionID),
			zap.Error(err))
		return 0, fmt.Errorf("failed to count attachments: %w", err)
	}
	return count, nil
}

func scanAttachment(row rowScanner) (*entity.Attachment, error) {
	var att entity.Attachment
	err := row.Scan(
		&att.ID,
		&att.SubmissionID,
		&att.Kind,
		&att.FileName,
		&att.FilePath,
		&att.MimeType,
		&att.FileSize,
		&att.CreatedBy,
		&att.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &att, nil
}

// Verify interface compliance
var _ port.AttachmentRepository = (*AttachmentRepository)(nil)
