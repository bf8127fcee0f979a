package repository

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/homologa/vehicle-homologation/internal/application/port"
	"github.com/homologa/vehicle-homologation/internal/domain/entity"
	"github.com/homologa/vehicle-homologation/internal/domain/workflow"
	"github.com/homologa/vehicle-homologation/internal/infrastructure/persistence/sqlite"
	"github.com/homologa/vehicle-homologation/migrations"
	"github.com/homologa/vehicle-homologation/pkg/database"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.New(database.Config{Path: filepath.Join(t.TempDir(), "homologation.db")}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.NewMigrator(db, zap.NewNop()).RunMigrations(migrations.FS))
	return db.DB
}

func newDraft(email string) *entity.Submission {
	return &entity.Submission{
		ID:              uuid.NewString(),
		Status:          workflow.StateDraft,
		OwnerFullName:   "João Pereira",
		OwnerNationalID: "987.654.321-00",
		OwnerPhone:      "+55 21 99876-5432",
		OwnerEmail:      email,
		VehicleType:     entity.VehicleTypeTruck,
		CreatedBy:       "clerk-1",
	}
}

func TestSubmissionRepository_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := NewSubmissionRepository(db, zap.NewNop())
	ctx := context.Background()

	sub := newDraft("joao@example.com")
	require.NoError(t, repo.Create(ctx, sub))
	assert.Equal(t, int64(1), sub.Version)

	got, err := repo.GetByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, sub.ID, got.ID)
	assert.Equal(t, workflow.StateDraft, got.Status)
	assert.Equal(t, "João Pereira", got.OwnerFullName)
	assert.Equal(t, entity.VehicleTypeTruck, got.VehicleType)
	assert.Equal(t, "clerk-1", got.UpdatedBy)
	assert.WithinDuration(t, time.Now(), got.CreatedAt, time.Minute)
	assert.Nil(t, got.DeletedAt)

	_, err = repo.GetByID(ctx, "does-not-exist")
	assert.ErrorIs(t, err, port.ErrNotFound)
}

func TestSubmissionRepository_UpdateStatus(t *testing.T) {
	db := newTestDB(t)
	repo := NewSubmissionRepository(db, zap.NewNop())
	ctx := context.Background()

	sub := newDraft("a@example.com")
	require.NoError(t, repo.Create(ctx, sub))

	updated, err := repo.UpdateStatus(ctx, sub.ID, 1, workflow.StatePendingReview, "user-a")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatePendingReview, updated.Status)
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, "user-a", updated.UpdatedBy)

	t.Run("stale version conflicts", func(t *testing.T) {
		_, err := repo.UpdateStatus(ctx, sub.ID, 1, workflow.StateApproved, "admin")
		assert.ErrorIs(t, err, port.ErrVersionConflict)

		current, err := repo.GetByID(ctx, sub.ID)
		require.NoError(t, err)
		assert.Equal(t, workflow.StatePendingReview, current.Status)
		assert.Equal(t, int64(2), current.Version)
	})

	t.Run("missing submission", func(t *testing.T) {
		_, err := repo.UpdateStatus(ctx, "missing", 1, workflow.StateApproved, "admin")
		assert.ErrorIs(t, err, port.ErrNotFound)
	})

	t.Run("invalid status refused", func(t *testing.T) {
		_, err := repo.UpdateStatus(ctx, sub.ID, 2, workflow.State("ARCHIVED"), "admin")
		assert.Error(t, err)
	})
}

func TestSubmissionRepository_UpdateRolledBackWithTransaction(t *testing.T) {
	db := newTestDB(t)
	repo := NewSubmissionRepository(db, zap.NewNop())
	audit := NewAuditRepository(db, zap.NewNop())
	txManager := sqlite.NewDB(db, zap.NewNop())
	ctx := context.Background()

	sub := newDraft("tx@example.com")
	require.NoError(t, repo.Create(ctx, sub))

	boom := errors.New("abort")
	err := txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if _, err := repo.UpdateStatus(txCtx, sub.ID, 1, workflow.StatePendingReview, "user-a"); err != nil {
			return err
		}
		if err := audit.Record(txCtx, &entity.AuditEntry{
			EntityType: entity.AuditEntitySubmission,
			EntityID:   sub.ID,
			Action:     entity.AuditActionStatusChange,
			ActorID:    "user-a",
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	current, err := repo.GetByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StateDraft, current.Status)
	assert.Equal(t, int64(1), current.Version)

	entries, err := audit.ListByEntity(ctx, entity.AuditEntitySubmission, sub.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSubmissionRepository_UpdateFields(t *testing.T) {
	db := newTestDB(t)
	repo := NewSubmissionRepository(db, zap.NewNop())
	ctx := context.Background()

	sub := newDraft("old@example.com")
	require.NoError(t, repo.Create(ctx, sub))

	sub.OwnerEmail = "new@example.com"
	sub.UpdatedBy = "clerk-2"
	updated, err := repo.UpdateFields(ctx, sub, 1)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", updated.OwnerEmail)
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, workflow.StateDraft, updated.Status)

	_, err = repo.UpdateFields(ctx, sub, 1)
	assert.ErrorIs(t, err, port.ErrVersionConflict)
}

func TestSubmissionRepository_SoftDeleteAndList(t *testing.T) {
	db := newTestDB(t)
	repo := NewSubmissionRepository(db, zap.NewNop())
	ctx := context.Background()

	keep := newDraft("keep@example.com")
	gone := newDraft("gone@example.com")
	bus := newDraft("keep@example.com")
	bus.VehicleType = entity.VehicleTypeBus
	for _, s := range []*entity.Submission{keep, gone, bus} {
		require.NoError(t, repo.Create(ctx, s))
	}

	require.NoError(t, repo.SoftDelete(ctx, gone.ID, 1, "admin"))
	assert.ErrorIs(t, repo.SoftDelete(ctx, gone.ID, 2, "admin"), port.ErrNotFound)

	_, err := repo.GetByID(ctx, gone.ID)
	assert.ErrorIs(t, err, port.ErrNotFound)

	all, err := repo.List(ctx, entity.SubmissionFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byEmail, err := repo.List(ctx, entity.SubmissionFilter{OwnerEmail: "KEEP@example.com"})
	require.NoError(t, err)
	assert.Len(t, byEmail, 2)

	buses, err := repo.List(ctx, entity.SubmissionFilter{VehicleType: entity.VehicleTypeBus})
	require.NoError(t, err)
	require.Len(t, buses, 1)
	assert.Equal(t, bus.ID, buses[0].ID)

	pending, err := repo.List(ctx, entity.SubmissionFilter{Status: workflow.StatePendingReview})
	require.NoError(t, err)
	assert.Empty(t, pending)

	page, err := repo.List(ctx, entity.SubmissionFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Len(t, page, 1)
}

func TestAttachmentRepository(t *testing.T) {
	db := newTestDB(t)
	subs := NewSubmissionRepository(db, zap.NewNop())
	repo := NewAttachmentRepository(db, zap.NewNop())
	ctx := context.Background()

	sub := newDraft("att@example.com")
	require.NoError(t, subs.Create(ctx, sub))

	count, err := repo.CountBySubmission(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	for i, kind := range []string{entity.AttachmentKindPhoto, entity.AttachmentKindDocument} {
		att := &entity.Attachment{
			ID:           uuid.NewString(),
			SubmissionID: sub.ID,
			Kind:         kind,
			FileName:     []string{"front.jpg", "invoice.pdf"}[i],
			FilePath:     sub.ID + "/file",
			MimeType:     "application/octet-stream",
			FileSize:     1024,
			CreatedBy:    "clerk-1",
		}
		require.NoError(t, repo.Create(ctx, att))
	}

	count, err = repo.CountBySubmission(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	list, err := repo.ListBySubmission(ctx, sub.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].IsPhoto())

	got, err := repo.GetByID(ctx, list[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "invoice.pdf", got.FileName)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, port.ErrNotFound)

	err = repo.Create(ctx, &entity.Attachment{
		ID: uuid.NewString(), SubmissionID: "no-such-submission", Kind: entity.AttachmentKindPhoto,
		FileName: "x.jpg", FilePath: "x",
	})
	assert.Error(t, err, "foreign key should reject unknown submission")
}

func TestAuditRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewAuditRepository(db, zap.NewNop())
	ctx := context.Background()

	first := &entity.AuditEntry{
		EntityType: entity.AuditEntitySubmission,
		EntityID:   "sub-1",
		Action:     entity.AuditActionCreate,
		NewValues:  map[string]interface{}{"status": "DRAFT"},
		ActorID:    "clerk-1",
	}
	second := &entity.AuditEntry{
		EntityType: entity.AuditEntitySubmission,
		EntityID:   "sub-1",
		Action:     entity.AuditActionStatusChange,
		OldValues:  map[string]interface{}{"status": "DRAFT"},
		NewValues:  map[string]interface{}{"status": "PENDING_REVIEW"},
		Reason:     "ready",
		ActorID:    "user-a",
	}
	require.NoError(t, repo.Record(ctx, first))
	require.NoError(t, repo.Record(ctx, second))
	assert.Greater(t, second.ID, first.ID)

	entries, err := repo.ListByEntity(ctx, entity.AuditEntitySubmission, "sub-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, entity.AuditActionCreate, entries[0].Action)
	assert.Nil(t, entries[0].OldValues)
	assert.Equal(t, "PENDING_REVIEW", entries[1].NewValues["status"])
	assert.Equal(t, "ready", entries[1].Reason)

	_, err = db.ExecContext(ctx, `UPDATE audit_log SET reason = 'tampered' WHERE id = ?`, first.ID)
	assert.ErrorContains(t, err, "append-only")
	_, err = db.ExecContext(ctx, `DELETE FROM audit_log`)
	assert.ErrorContains(t, err, "append-only")
}

func TestNotificationRepository(t *testing.T) {
	db := newTestDB(t)
	subs := NewSubmissionRepository(db, zap.NewNop())
	repo := NewNotificationRepository(db, zap.NewNop())
	ctx := context.Background()

	sub := newDraft("n@example.com")
	require.NoError(t, subs.Create(ctx, sub))

	sent := &entity.StatusNotification{SubmissionID: sub.ID, Recipient: "n@example.com", NewStatus: "PENDING_REVIEW", Channel: "log"}
	failed := &entity.StatusNotification{SubmissionID: sub.ID, Recipient: "n@example.com", NewStatus: "APPROVED", Channel: "lark"}
	require.NoError(t, repo.Create(ctx, sent))
	require.NoError(t, repo.Create(ctx, failed))
	assert.Equal(t, entity.NotificationStatusPending, sent.Status)

	require.NoError(t, repo.MarkSent(ctx, sent.ID))
	require.NoError(t, repo.MarkFailed(ctx, failed.ID, "user not found"))

	list, err := repo.ListBySubmission(ctx, sub.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, entity.NotificationStatusSent, list[0].Status)
	assert.NotNil(t, list[0].SentAt)
	assert.Equal(t, entity.NotificationStatusFailed, list[1].Status)
	assert.Equal(t, "user not found", list[1].ErrorMessage)
	assert.Nil(t, list[1].SentAt)
}
