package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/homologa/vehicle-homologation/internal/application/port"
	"github.com/homologa/vehicle-homologation/internal/domain/entity"
	"github.com/homologa/vehicle-homologation/internal/domain/workflow"
	"github.com/homologa/vehicle-homologation/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

const submissionColumns = `
	id, status, owner_full_name, owner_national_id, owner_phone, owner_email,
	vehicle_type, version, created_by, updated_by, created_at, updated_at, deleted_at`

// SubmissionRepository implements port.SubmissionRepository.
// Every update is conditioned on the caller's version and bumps it by one.
type SubmissionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSubmissionRepository creates a new submission repository
func NewSubmissionRepository(db *sql.DB, logger *zap.Logger) port.SubmissionRepository {
	return &SubmissionRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new submission
func (r *SubmissionRepository) Create(ctx context.Context, sub *entity.Submission) error {
	query := `
		INSERT INTO submissions (
			id, status, owner_full_name, owner_national_id, owner_phone, owner_email,
			vehicle_type, version, created_by, updated_by, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now().UTC()
	if sub.Version == 0 {
		sub.Version = 1
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = sub.CreatedAt
	if sub.UpdatedBy == "" {
		sub.UpdatedBy = sub.CreatedBy
	}

	_, err := r.executor(ctx).ExecContext(ctx, query,
		sub.ID,
		sub.Status,
		sub.OwnerFullName,
		sub.OwnerNationalID,
		sub.OwnerPhone,
		sub.OwnerEmail,
		sub.VehicleType,
		sub.Version,
		sub.CreatedBy,
		sub.UpdatedBy,
		sub.CreatedAt,
		sub.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create submission", zap.String("id", sub.ID), zap.Error(err))
		return fmt.Errorf("failed to create submission: %w", err)
	}

	return nil
}

// GetByID retrieves a live (not soft-deleted) submission
func (r *SubmissionRepository) GetByID(ctx context.Context, id string) (*entity.Submission, error) {
	query := `SELECT` + submissionColumns + ` FROM submissions WHERE id = ? AND deleted_at IS NULL`

	sub, err := scanSubmission(r.executor(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get submission by ID", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	return sub, nil
}

// List retrieves live submissions matching the filter, newest first
func (r *SubmissionRepository) List(ctx context.Context, filter entity.SubmissionFilter) ([]*entity.Submission, error) {
	conditions := []string{"deleted_at IS NULL"}
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.VehicleType != "" {
		conditions = append(conditions, "vehicle_type = ?")
		args = append(args, filter.VehicleType)
	}
	if filter.OwnerEmail != "" {
		conditions = append(conditions, "owner_email = ? COLLATE NOCASE")
		args = append(args, filter.OwnerEmail)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	args = append(args, limit, filter.Offset)

	query := `SELECT` + submissionColumns + ` FROM submissions WHERE ` +
		strings.Join(conditions, " AND ") +
		` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`

	rows, err := r.executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list submissions", zap.Error(err))
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	var subs []*entity.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		subs = append(subs, sub)
	}

	return subs, rows.Err()
}

// UpdateFields persists the owner and vehicle fields of sub
func (r *SubmissionRepository) UpdateFields(ctx context.Context, sub *entity.Submission, expectedVersion int64) (*entity.Submission, error) {
	query := `
		UPDATE submissions
		SET owner_full_name = ?, owner_national_id = ?, owner_phone = ?, owner_email = ?,
			vehicle_type = ?, updated_by = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ? AND deleted_at IS NULL
	`

	result, err := r.executor(ctx).ExecContext(ctx, query,
		sub.OwnerFullName,
		sub.OwnerNationalID,
		sub.OwnerPhone,
		sub.OwnerEmail,
		sub.VehicleType,
		sub.UpdatedBy,
		time.Now().UTC(),
		sub.ID,
		expectedVersion,
	)
	if err != nil {
		r.logger.Error("Failed to update submission fields", zap.String("id", sub.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to update submission: %w", err)
	}

	if err := r.checkApplied(ctx, result, sub.ID); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, sub.ID)
}

// UpdateStatus sets the status and bumps the version in a single statement
func (r *SubmissionRepository) UpdateStatus(ctx context.Context, id string, expectedVersion int64, status workflow.State, actorID string) (*entity.Submission, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("refusing to store invalid status %q", status)
	}

	query := `
		UPDATE submissions
		SET status = ?, updated_by = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ? AND deleted_at IS NULL
	`

	result, err := r.executor(ctx).ExecContext(ctx, query, status, actorID, time.Now().UTC(), id, expectedVersion)
	if err != nil {
		r.logger.Error("Failed to update submission status",
			zap.String("id", id),
			zap.String("status", status.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to update status: %w", err)
	}

	if err := r.checkApplied(ctx, result, id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// SoftDelete marks the submission deleted; it disappears from reads
func (r *SubmissionRepository) SoftDelete(ctx context.Context, id string, expectedVersion int64, actorID string) error {
	query := `
		UPDATE submissions
		SET deleted_at = ?, updated_by = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ? AND deleted_at IS NULL
	`

	now := time.Now().UTC()
	result, err := r.executor(ctx).ExecContext(ctx, query, now, actorID, now, id, expectedVersion)
	if err != nil {
		r.logger.Error("Failed to soft-delete submission", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete submission: %w", err)
	}

	return r.checkApplied(ctx, result, id)
}

// checkApplied tells a stale version apart from a missing row when an update matched nothing
func (r *SubmissionRepository) checkApplied(ctx context.Context, result sql.Result, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 1 {
		return nil
	}

	var exists int
	err = r.executor(ctx).QueryRowContext(ctx,
		`SELECT 1 FROM submissions WHERE id = ? AND deleted_at IS NULL`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return port.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check submission: %w", err)
	}
	return port.ErrVersionConflict
}

func (r *SubmissionRepository) executor(ctx context.Context) sqlite.Executor {
	return sqlite.ExecutorFrom(ctx, r.db)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSubmission(row rowScanner) (*entity.Submission, error) {
	var sub entity.Submission
	var deletedAt sql.NullTime

	err := row.Scan(
		&sub.ID,
		&sub.Status,
		&sub.OwnerFullName,
		&sub.OwnerNationalID,
		&sub.OwnerPhone,
		&sub.OwnerEmail,
		&sub.VehicleType,
		&sub.Version,
		&sub.CreatedBy,
		&sub.UpdatedBy,
		&sub.CreatedAt,
		&sub.UpdatedAt,
		&deletedAt,
	)
	if err != nil {
		return nil, err
	}

	if deletedAt.Valid {
		sub.DeletedAt = &deletedAt.Time
	}
	return &sub, nil
}

// Verify interface compliance
var _ port.SubmissionRepository = (*SubmissionRepository)(nil)
