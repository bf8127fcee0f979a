package port

import (
	"context"
	"errors"

	"github.com/homologa/vehicle-homologation/internal/domain/entity"
	"github.com/homologa/vehicle-homologation/internal/domain/workflow"
)

var (
	// ErrNotFound is returned by repositories when a record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrVersionConflict is returned when a conditional update finds a newer version
	ErrVersionConflict = errors.New("version conflict")
)

// SubmissionRepository defines persistence operations for Submission.
// Every successful mutation increments version and sets updated_at.
type SubmissionRepository interface {
	Create(ctx context.Context, sub *entity.Submission) error
	GetByID(ctx context.Context, id string) (*entity.Submission, error)
	List(ctx context.Context, filter entity.SubmissionFilter) ([]*entity.Submission, error)

	// UpdateFields persists the editable fields of sub, conditioned on expectedVersion
	UpdateFields(ctx context.Context, sub *entity.Submission, expectedVersion int64) (*entity.Submission, error)

	// UpdateStatus atomically sets the status and bumps the version, conditioned on expectedVersion
	UpdateStatus(ctx context.Context, id string, expectedVersion int64, status workflow.State, actorID string) (*entity.Submission, error)

	SoftDelete(ctx context.Context, id string, expectedVersion int64, actorID string) error
}

// AttachmentInventory reports how many attachments a submission carries
type AttachmentInventory interface {
	CountBySubmission(ctx context.Context, submissionID string) (int, error)
}

// AttachmentRepository defines persistence operations for Attachment
type AttachmentRepository interface {
	AttachmentInventory
	Create(ctx context.Context, att *entity.Attachment) error
	GetByID(ctx context.Context, id string) (*entity.Attachment, error)
	ListBySubmission(ctx context.Context, submissionID string) ([]*entity.Attachment, error)
}

// AuditRecorder writes immutable audit entries
type AuditRecorder interface {
	Record(ctx context.Context, entry *entity.AuditEntry) error
}

// AuditRepository adds read access for back-office history views
type AuditRepository interface {
	AuditRecorder
	ListByEntity(ctx context.Context, entityType, entityID string) ([]*entity.AuditEntry, error)
}

// NotificationRepository defines persistence operations for status notifications
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.StatusNotification) error
	MarkSent(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, errorMessage string) error
	ListBySubmission(ctx context.Context, submissionID string) ([]*entity.StatusNotification, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
