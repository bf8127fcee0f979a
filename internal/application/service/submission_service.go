package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/homologa/vehicle-homologation/internal/application/dispatcher"
	"github.com/homologa/vehicle-homologation/internal/application/port"
	"github.com/homologa/vehicle-homologation/internal/domain/entity"
	"github.com/homologa/vehicle-homologation/internal/domain/event"
	"github.com/homologa/vehicle-homologation/internal/domain/workflow"
	"github.com/homologa/vehicle-homologation/pkg/utils"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

var (
	// ErrNotEditable is returned when fields or attachments change outside DRAFT and INCOMPLETE
	ErrNotEditable = errors.New("submission is not editable in its current status")

	// ErrInvalidInput marks malformed intake data
	ErrInvalidInput = errors.New("invalid input")
)

// DefaultMaxUploadBytes caps a single attachment when no limit is configured
const DefaultMaxUploadBytes int64 = 10 << 20

// SubmissionService manages intake and back-office operations on submissions.
// Status changes go through the workflow engine, never through this service.
type SubmissionService interface {
	Create(ctx context.Context, fields entity.SubmissionFields, actor entity.Actor) (*entity.Submission, error)
	Get(ctx context.Context, id string) (*entity.Submission, error)
	List(ctx context.Context, filter entity.SubmissionFilter) ([]*entity.Submission, error)
	Update(ctx context.Context, id string, patch entity.SubmissionFields, actor entity.Actor) (*entity.Submission, error)
	Delete(ctx context.Context, id string, actor entity.Actor) error
	AddAttachment(ctx context.Context, submissionID string, upload entity.AttachmentUpload, actor entity.Actor) (*entity.Attachment, error)
	ListAttachments(ctx context.Context, submissionID string) ([]*entity.Attachment, error)
	History(ctx context.Context, submissionID string) ([]*entity.AuditEntry, error)
}

type submissionServiceImpl struct {
	submissions    port.SubmissionRepository
	attachments    port.AttachmentRepository
	audit          port.AuditRepository
	storage        port.FileStorage
	txManager      port.TransactionManager
	dispatcher     dispatcher.Dispatcher
	maxUploadBytes int64
	logger         Logger
}

// SubmissionOption configures the submission service
type SubmissionOption func(*submissionServiceImpl)

// WithEventDispatcher publishes submission.created after each create
func WithEventDispatcher(d dispatcher.Dispatcher) SubmissionOption {
	return func(s *submissionServiceImpl) {
		s.dispatcher = d
	}
}

// WithMaxUploadBytes sets the attachment size limit
func WithMaxUploadBytes(n int64) SubmissionOption {
	return func(s *submissionServiceImpl) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// NewSubmissionService creates a new SubmissionService
func NewSubmissionService(
	submissions port.SubmissionRepository,
	attachments port.AttachmentRepository,
	audit port.AuditRepository,
	storage port.FileStorage,
	txManager port.TransactionManager,
	logger Logger,
	opts ...SubmissionOption,
) SubmissionService {
	s := &submissionServiceImpl{
		submissions:    submissions,
		attachments:    attachments,
		audit:          audit,
		storage:        storage,
		txManager:      txManager,
		maxUploadBytes: DefaultMaxUploadBytes,
		logger:         logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create opens a new DRAFT submission with whatever fields are already known
func (s *submissionServiceImpl) Create(ctx context.Context, fields entity.SubmissionFields, actor entity.Actor) (*entity.Submission, error) {
	fields = sanitizeFields(fields)
	if err := validateFields(fields); err != nil {
		return nil, err
	}

	sub := &entity.Submission{
		ID:        uuid.New().String(),
		Status:    workflow.StateDraft,
		Version:   1,
		CreatedBy: actor.ID,
		UpdatedBy: actor.ID,
		CreatedAt: time.Now().UTC(),
	}
	_, newValues := fields.Apply(sub)
	newValues["status"] = string(sub.Status)

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.submissions.Create(txCtx, sub); err != nil {
			return fmt.Errorf("create submission: %w", err)
		}
		return s.audit.Record(txCtx, &entity.AuditEntry{
			EntityType: entity.AuditEntitySubmission,
			EntityID:   sub.ID,
			Action:     entity.AuditActionCreate,
			NewValues:  newValues,
			ActorID:    actor.ID,
		})
	})
	if err != nil {
		s.logger.Error("Failed to create submission", "error", err, "actor_id", actor.ID)
		return nil, err
	}

	s.logger.Info("Submission created", "submission_id", sub.ID, "actor_id", actor.ID)

	if s.dispatcher != nil {
		evt := event.NewEvent(event.TypeSubmissionCreated, sub.ID, map[string]interface{}{
			event.PayloadActorID: actor.ID,
		})
		s.dispatcher.DispatchAsync(context.WithoutCancel(ctx), evt)
	}

	return sub, nil
}

// Get returns a live submission
func (s *submissionServiceImpl) Get(ctx context.Context, id string) (*entity.Submission, error) {
	sub, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get submission %s: %w", id, err)
	}
	return sub, nil
}

// List returns live submissions matching the filter
func (s *submissionServiceImpl) List(ctx context.Context, filter entity.SubmissionFilter) ([]*entity.Submission, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, filter.Status)
	}
	if filter.VehicleType != "" && !filter.VehicleType.IsValid() {
		return nil, fmt.Errorf("%w: unknown vehicle type %q", ErrInvalidInput, filter.VehicleType)
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, fmt.Errorf("%w: limit and offset must not be negative", ErrInvalidInput)
	}

	subs, err := s.submissions.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list submissions", "error", err)
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return subs, nil
}

// Update applies a field patch while the submission is editable. Status is never touched.
func (s *submissionServiceImpl) Update(ctx context.Context, id string, patch entity.SubmissionFields, actor entity.Actor) (*entity.Submission, error) {
	patch = sanitizeFields(patch)
	if err := validateFields(patch); err != nil {
		return nil, err
	}

	current, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get submission %s: %w", id, err)
	}
	if !current.IsEditable() {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotEditable, id, current.Status)
	}

	readVersion := current.Version
	oldValues, newValues := patch.Apply(current)
	if len(newValues) == 0 {
		return current, nil
	}
	current.UpdatedBy = actor.ID

	var updated *entity.Submission
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		updated, err = s.submissions.UpdateFields(txCtx, current, readVersion)
		if err != nil {
			return err
		}
		return s.audit.Record(txCtx, &entity.AuditEntry{
			EntityType: entity.AuditEntitySubmission,
			EntityID:   id,
			Action:     entity.AuditActionUpdate,
			OldValues:  oldValues,
			NewValues:  newValues,
			ActorID:    actor.ID,
		})
	})
	if err != nil {
		if !errors.Is(err, port.ErrVersionConflict) && !errors.Is(err, port.ErrNotFound) {
			s.logger.Error("Failed to update submission", "error", err, "submission_id", id)
		}
		return nil, fmt.Errorf("update submission %s: %w", id, err)
	}

	s.logger.Info("Submission updated",
		"submission_id", id,
		"version", updated.Version,
		"fields", len(newValues),
	)
	return updated, nil
}

// Delete soft-deletes a submission. The row and its audit trail remain.
func (s *submissionServiceImpl) Delete(ctx context.Context, id string, actor entity.Actor) error {
	current, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get submission %s: %w", id, err)
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.submissions.SoftDelete(txCtx, id, current.Version, actor.ID); err != nil {
			return err
		}
		return s.audit.Record(txCtx, &entity.AuditEntry{
			EntityType: entity.AuditEntitySubmission,
			EntityID:   id,
			Action:     entity.AuditActionDelete,
			OldValues:  map[string]interface{}{"status": string(current.Status)},
			ActorID:    actor.ID,
		})
	})
	if err != nil {
		return fmt.Errorf("delete submission %s: %w", id, err)
	}

	s.logger.Info("Submission deleted", "submission_id", id, "actor_id", actor.ID)
	return nil
}

// AddAttachment stores the upload under <submission id>/<attachment id><ext> and records its metadata
func (s *submissionServiceImpl) AddAttachment(ctx context.Context, submissionID string, upload entity.AttachmentUpload, actor entity.Actor) (*entity.Attachment, error) {
	if len(upload.Content) == 0 {
		return nil, fmt.Errorf("%w: attachment is empty", ErrInvalidInput)
	}
	if int64(len(upload.Content)) > s.maxUploadBytes {
		return nil, fmt.Errorf("%w: attachment exceeds %d bytes", ErrInvalidInput, s.maxUploadBytes)
	}

	fileName := filepath.Base(utils.SanitizeString(upload.FileName))
	if fileName == "." || fileName == "/" || fileName == "" {
		return nil, fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}

	kind, err := attachmentKind(upload)
	if err != nil {
		return nil, err
	}

	sub, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		return nil, fmt.Errorf("get submission %s: %w", submissionID, err)
	}
	if !sub.IsEditable() {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotEditable, submissionID, sub.Status)
	}

	att := &entity.Attachment{
		ID:           uuid.New().String(),
		SubmissionID: submissionID,
		Kind:         kind,
		FileName:     fileName,
		MimeType:     upload.MimeType,
		FileSize:     int64(len(upload.Content)),
		CreatedBy:    actor.ID,
		CreatedAt:    time.Now().UTC(),
	}
	att.FilePath = path.Join(submissionID, att.ID+strings.ToLower(filepath.Ext(fileName)))

	if err := s.storage.Save(ctx, att.FilePath, upload.Content); err != nil {
		s.logger.Error("Failed to store attachment", "error", err, "submission_id", submissionID)
		return nil, fmt.Errorf("store attachment: %w", err)
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.attachments.Create(txCtx, att); err != nil {
			return err
		}
		return s.audit.Record(txCtx, &entity.AuditEntry{
			EntityType: entity.AuditEntitySubmission,
			EntityID:   submissionID,
			Action:     entity.AuditActionAttachmentAdd,
			NewValues: map[string]interface{}{
				"attachment_id": att.ID,
				"kind":          att.Kind,
				"file_name":     att.FileName,
				"file_size":     att.FileSize,
			},
			ActorID: actor.ID,
		})
	})
	if err != nil {
		if delErr := s.storage.Delete(context.WithoutCancel(ctx), att.FilePath); delErr != nil {
			s.logger.Warn("Failed to remove orphaned attachment file", "error", delErr, "path", att.FilePath)
		}
		s.logger.Error("Failed to record attachment", "error", err, "submission_id", submissionID)
		return nil, fmt.Errorf("record attachment: %w", err)
	}

	s.logger.Info("Attachment added",
		"submission_id", submissionID,
		"attachment_id", att.ID,
		"kind", att.Kind,
		"size", att.FileSize,
	)
	return att, nil
}

// ListAttachments returns the attachments of a live submission
func (s *submissionServiceImpl) ListAttachments(ctx context.Context, submissionID string) ([]*entity.Attachment, error) {
	if _, err := s.submissions.GetByID(ctx, submissionID); err != nil {
		return nil, fmt.Errorf("get submission %s: %w", submissionID, err)
	}
	return s.attachments.ListBySubmission(ctx, submissionID)
}

// History returns the audit trail of a live submission, oldest first
func (s *submissionServiceImpl) History(ctx context.Context, submissionID string) ([]*entity.AuditEntry, error) {
	if _, err := s.submissions.GetByID(ctx, submissionID); err != nil {
		return nil, fmt.Errorf("get submission %s: %w", submissionID, err)
	}
	return s.audit.ListByEntity(ctx, entity.AuditEntitySubmission, submissionID)
}

func attachmentKind(upload entity.AttachmentUpload) (string, error) {
	switch strings.ToUpper(strings.TrimSpace(upload.Kind)) {
	case entity.AttachmentKindPhoto:
		return entity.AttachmentKindPhoto, nil
	case entity.AttachmentKindDocument:
		return entity.AttachmentKindDocument, nil
	case "":
		if strings.HasPrefix(upload.MimeType, "image/") {
			return entity.AttachmentKindPhoto, nil
		}
		return entity.AttachmentKindDocument, nil
	default:
		return "", fmt.Errorf("%w: unknown attachment kind %q", ErrInvalidInput, upload.Kind)
	}
}

func sanitizeFields(f entity.SubmissionFields) entity.SubmissionFields {
	clean := func(v *string) *string {
		if v == nil {
			return nil
		}
		c := utils.SanitizeString(*v)
		return &c
	}
	f.OwnerFullName = clean(f.OwnerFullName)
	f.OwnerNationalID = clean(f.OwnerNationalID)
	f.OwnerPhone = clean(f.OwnerPhone)
	f.OwnerEmail = clean(f.OwnerEmail)
	return f
}

// validateFields checks the format of every non-empty field. Empty values are
// allowed here; completeness is enforced when the submission enters review.
func validateFields(f entity.SubmissionFields) error {
	var problems []string
	if f.OwnerEmail != nil && *f.OwnerEmail != "" {
		if err := utils.ValidateEmail(*f.OwnerEmail); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if f.OwnerPhone != nil && *f.OwnerPhone != "" {
		if err := utils.ValidatePhone(*f.OwnerPhone); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if f.OwnerNationalID != nil && *f.OwnerNationalID != "" {
		if err := utils.ValidateNationalID(*f.OwnerNationalID); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if f.VehicleType != nil && *f.VehicleType != "" && !f.VehicleType.IsValid() {
		problems = append(problems, fmt.Sprintf("unknown vehicle type %q", *f.VehicleType))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}
