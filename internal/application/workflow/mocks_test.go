package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/homologa/vehicle-homologation/internal/application/dispatcher"
	"github.com/homologa/vehicle-homologation/internal/application/port"
	"github.com/homologa/vehicle-homologation/internal/domain/entity"
	"github.com/homologa/vehicle-homologation/internal/domain/event"
	domainwf "github.com/homologa/vehicle-homologation/internal/domain/workflow"
)

// mockSubmissionRepo is an in-memory store with version checks
type mockSubmissionRepo struct {
	mu   sync.Mutex
	subs map[string]*entity.Submission

	getByIDFunc      func(ctx context.Context, id string) (*entity.Submission, error)
	updateStatusFunc func(ctx context.Context, id string, expectedVersion int64, status domainwf.State, actorID string) (*entity.Submission, error)
	updateCalls      int
}

func newMockSubmissionRepo(subs ...*entity.Submission) *mockSubmissionRepo {
	m := &mockSubmissionRepo{subs: make(map[string]*entity.Submission)}
	for _, s := range subs {
		m.subs[s.ID] = s
	}
	return m
}

func (m *mockSubmissionRepo) Create(ctx context.Context, sub *entity.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs[sub.ID] = sub
	return nil
}

func (m *mockSubmissionRepo) GetByID(ctx context.Context, id string) (*entity.Submission, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subs[id]
	if !ok {
		return nil, port.ErrNotFound
	}
	cp := *sub
	return &cp, nil
}

func (m *mockSubmissionRepo) List(ctx context.Context, filter entity.SubmissionFilter) ([]*entity.Submission, error) {
	return nil, nil
}

func (m *mockSubmissionRepo) UpdateFields(ctx context.Context, sub *entity.Submission, expectedVersion int64) (*entity.Submission, error) {
	return nil, fmt.Errorf("not implemented")
}

func (m *mockSubmissionRepo) UpdateStatus(ctx context.Context, id string, expectedVersion int64, status domainwf.State, actorID string) (*entity.Submission, error) {
	m.mu.Lock()
	m.updateCalls++
	m.mu.Unlock()

	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, expectedVersion, status, actorID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subs[id]
	if !ok {
		return nil, port.ErrNotFound
	}
	if sub.Version != expectedVersion {
		return nil, port.ErrVersionConflict
	}
	sub.Status = status
	sub.Version++
	sub.UpdatedBy = actorID
	sub.UpdatedAt = time.Now()
	cp := *sub
	return &cp, nil
}

func (m *mockSubmissionRepo) SoftDelete(ctx context.Context, id string, expectedVersion int64, actorID string) error {
	return nil
}

func (m *mockSubmissionRepo) status(id string) domainwf.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subs[id].Status
}

func (m *mockSubmissionRepo) snapshot() map[string]entity.Submission {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := make(map[string]entity.Submission, len(m.subs))
	for id, s := range m.subs {
		snap[id] = *s
	}
	return snap
}

func (m *mockSubmissionRepo) restore(snap map[string]entity.Submission) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range snap {
		cp := s
		m.subs[id] = &cp
	}
}

type mockInventory struct {
	counts map[string]int
	err    error
}

func (m *mockInventory) CountBySubmission(ctx context.Context, submissionID string) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.counts[submissionID], nil
}

type mockAuditRecorder struct {
	mu         sync.Mutex
	entries    []*entity.AuditEntry
	recordFunc func(ctx context.Context, entry *entity.AuditEntry) error
}

func (m *mockAuditRecorder) Record(ctx context.Context, entry *entity.AuditEntry) error {
	if m.recordFunc != nil {
		if err := m.recordFunc(ctx, entry); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockAuditRecorder) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// mockTxManager runs fn and restores the repo snapshot when fn fails
type mockTxManager struct {
	repo *mockSubmissionRepo
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	var snap map[string]entity.Submission
	if m.repo != nil {
		snap = m.repo.snapshot()
	}

	if err := fn(ctx); err != nil {
		if m.repo != nil {
			m.repo.restore(snap)
		}
		return err
	}
	return nil
}

type mockNotifier struct {
	mu     sync.Mutex
	calls  []entity.NotificationContext
	report port.DeliveryReport
}

func (m *mockNotifier) NotifyStatusChange(ctx context.Context, nc entity.NotificationContext) port.DeliveryReport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, nc)
	return m.report
}

func (m *mockNotifier) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type mockDispatcher struct {
	mu     sync.Mutex
	events []*event.Event
}

func (m *mockDispatcher) Subscribe(eventType event.Type, handler dispatcher.Handler) {}

func (m *mockDispatcher) SubscribeNamed(eventType event.Type, name string, handler dispatcher.Handler) {
}

func (m *mockDispatcher) Unsubscribe(eventType event.Type, name string) {}

func (m *mockDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
	return nil
}

func (m *mockDispatcher) DispatchAsync(ctx context.Context, evt *event.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
}

func (m *mockDispatcher) ListHandlers(eventType event.Type) []dispatcher.HandlerInfo {
	return nil
}

func (m *mockDispatcher) Close() error {
	return nil
}

type mockLogger struct {
	mu    sync.Mutex
	warns []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}

func (m *mockLogger) Warn(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warns = append(m.warns, msg)
}
