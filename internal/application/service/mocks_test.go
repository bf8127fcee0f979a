package service

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"

	"github.com/homologa/vehicle-homologation/internal/application/dispatcher"
	"github.com/homologa/vehicle-homologation/internal/application/port"
	"github.com/homologa/vehicle-homologation/internal/domain/entity"
	"github.com/homologa/vehicle-homologation/internal/domain/event"
	"github.com/homologa/vehicle-homologation/internal/domain/workflow"
)

type mockSubmissionRepo struct {
	mu   sync.Mutex
	subs map[string]*entity.Submission

	updateFieldsFunc func(ctx context.Context, sub *entity.Submission, expectedVersion int64) (*entity.Submission, error)
	listFunc         func(ctx context.Context, filter entity.SubmissionFilter) ([]*entity.Submission, error)
}

func newMockSubmissionRepo(subs ...*entity.Submission) *mockSubmissionRepo {
	r := &mockSubmissionRepo{subs: make(map[string]*entity.Submission)}
	for _, s := range subs {
		r.subs[s.ID] = s
	}
	return r
}

func (m *mockSubmissionRepo) Create(ctx context.Context, sub *entity.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *sub
	m.subs[sub.ID] = &cp
	return nil
}

func (m *mockSubmissionRepo) GetByID(ctx context.Context, id string) (*entity.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[id]
	if !ok || s.IsDeleted() {
		return nil, port.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *mockSubmissionRepo) List(ctx context.Context, filter entity.SubmissionFilter) ([]*entity.Submission, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, filter)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Submission
	for _, s := range m.subs {
		if !s.IsDeleted() {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockSubmissionRepo) UpdateFields(ctx context.Context, sub *entity.Submission, expectedVersion int64) (*entity.Submission, error) {
	if m.updateFieldsFunc != nil {
		return m.updateFieldsFunc(ctx, sub, expectedVersion)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.subs[sub.ID]
	if !ok {
		return nil, port.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return nil, port.ErrVersionConflict
	}
	cp := *sub
	cp.Status = stored.Status
	cp.Version = expectedVersion + 1
	m.subs[sub.ID] = &cp
	out := cp
	return &out, nil
}

func (m *mockSubmissionRepo) UpdateStatus(ctx context.Context, id string, expectedVersion int64, status workflow.State, actorID string) (*entity.Submission, error) {
	return nil, errors.New("not used")
}

func (m *mockSubmissionRepo) SoftDelete(ctx context.Context, id string, expectedVersion int64, actorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.subs[id]
	if !ok || stored.IsDeleted() {
		return port.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return port.ErrVersionConflict
	}
	cp := *stored
	now := cp.UpdatedAt
	cp.DeletedAt = &now
	cp.Version++
	m.subs[id] = &cp
	return nil
}

type mockAttachmentRepo struct {
	atts       []*entity.Attachment
	createFunc func(ctx context.Context, att *entity.Attachment) error
}

func (m *mockAttachmentRepo) CountBySubmission(ctx context.Context, submissionID string) (int, error) {
	n := 0
	for _, a := range m.atts {
		if a.SubmissionID == submissionID {
			n++
		}
	}
	return n, nil
}

func (m *mockAttachmentRepo) Create(ctx context.Context, att *entity.Attachment) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, att)
	}
	m.atts = append(m.atts, att)
	return nil
}

func (m *mockAttachmentRepo) GetByID(ctx context.Context, id string) (*entity.Attachment, error) {
	for _, a := range m.atts {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, port.ErrNotFound
}

func (m *mockAttachmentRepo) ListBySubmission(ctx context.Context, submissionID string) ([]*entity.Attachment, error) {
	var out []*entity.Attachment
	for _, a := range m.atts {
		if a.SubmissionID == submissionID {
			out = append(out, a)
		}
	}
	return out, nil
}

type mockAuditRepo struct {
	entries    []*entity.AuditEntry
	recordFunc func(ctx context.Context, entry *entity.AuditEntry) error
}

func (m *mockAuditRepo) Record(ctx context.Context, entry *entity.AuditEntry) error {
	if m.recordFunc != nil {
		return m.recordFunc(ctx, entry)
	}
	entry.ID = int64(len(m.entries) + 1)
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockAuditRepo) ListByEntity(ctx context.Context, entityType, entityID string) ([]*entity.AuditEntry, error) {
	var out []*entity.AuditEntry
	for _, e := range m.entries {
		if e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

type mockStorage struct {
	files   map[string][]byte
	saveErr error
}

func newMockStorage() *mockStorage {
	return &mockStorage{files: make(map[string][]byte)}
}

func (m *mockStorage) Save(ctx context.Context, path string, content []byte) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.files[path] = content
	return nil
}

func (m *mockStorage) Read(ctx context.Context, path string) ([]byte, error) {
	b, ok := m.files[path]
	if !ok {
		return nil, port.ErrNotFound
	}
	return b, nil
}

func (m *mockStorage) Exists(ctx context.Context, path string) bool {
	_, ok := m.files[path]
	return ok
}

func (m *mockStorage) Delete(ctx context.Context, path string) error {
	delete(m.files, path)
	return nil
}

func (m *mockStorage) GetFullPath(relativePath string) string {
	return "/data/" + relativePath
}

type mockTxManager struct {
	calls int
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
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
	m.DispatchAsync(ctx, evt)
	return nil
}

func (m *mockDispatcher) DispatchAsync(ctx context.Context, evt *event.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
}

func (m *mockDispatcher) ListHandlers(eventType event.Type) []dispatcher.HandlerInfo { return nil }

func (m *mockDispatcher) Close() error { return nil }

type mockLogger struct {
	mu     sync.Mutex
	warns  []string
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {}

func (m *mockLogger) Warn(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warns = append(m.warns, msg)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

type mockSender struct {
	sent     map[string]string
	sendFunc func(ctx context.Context, email, content string) error
}

func (m *mockSender) SendText(ctx context.Context, email string, content string) error {
	if m.sendFunc != nil {
		return m.sendFunc(ctx, email, content)
	}
	if m.sent == nil {
		m.sent = make(map[string]string)
	}
	m.sent[email] = content
	return nil
}

func (m *mockSender) Channel() string { return "test" }

type mockNotificationRepo struct {
	records    []*entity.StatusNotification
	createFunc func(ctx context.Context, n *entity.StatusNotification) error
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *entity.StatusNotification) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, n)
	}
	n.ID = int64(len(m.records) + 1)
	m.records = append(m.records, n)
	return nil
}

func (m *mockNotificationRepo) find(id int64) *entity.StatusNotification {
	for _, r := range m.records {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func (m *mockNotificationRepo) MarkSent(ctx context.Context, id int64) error {
	r := m.find(id)
	if r == nil {
		return port.ErrNotFound
	}
	r.Status = entity.NotificationStatusSent
	return nil
}

func (m *mockNotificationRepo) MarkFailed(ctx context.Context, id int64, errorMessage string) error {
	r := m.find(id)
	if r == nil {
		return port.ErrNotFound
	}
	r.Status = entity.NotificationStatusFailed
	r.ErrorMessage = errorMessage
	return nil
}

func (m *mockNotificationRepo) ListBySubmission(ctx context.Context, submissionID string) ([]*entity.StatusNotification, error) {
	var out []*entity.StatusNotification
	for _, r := range m.records {
		if r.SubmissionID == submissionID {
			out = append(out, r)
		}
	}
	return out, nil
}

type mockReportWriter struct {
	written []*entity.Submission
}

func (m *mockReportWriter) WriteSubmissions(out io.Writer, subs []*entity.Submission) error {
	m.written = subs
	_, err := io.WriteString(out, "report")
	return err
}

func (m *mockReportWriter) ContentType() string { return "text/plain" }

func strPtr(s string) *string { return &s }
