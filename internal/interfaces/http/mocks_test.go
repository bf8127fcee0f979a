package http

import (
	"context"
	"io"
	"sync"

	"github.com/homologa/vehicle-homologation/internal/domain/entity"
	"github.com/homologa/vehicle-homologation/internal/domain/event"
	domainwf "github.com/homologa/vehicle-homologation/internal/domain/workflow"
)

type mockLogger struct {
	mu     sync.Mutex
	infos  []string
	warns  []string
	errors []string
}

func (m *mockLogger) Info(msg string, _ ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, msg)
}

func (m *mockLogger) Warn(msg string, _ ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warns = append(m.warns, msg)
}

func (m *mockLogger) Error(msg string, _ ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

type mockSubmissionService struct {
	createFunc        func(ctx context.Context, fields entity.SubmissionFields, actor entity.Actor) (*entity.Submission, error)
	getFunc           func(ctx context.Context, id string) (*entity.Submission, error)
	listFunc          func(ctx context.Context, filter entity.SubmissionFilter) ([]*entity.Submission, error)
	updateFunc        func(ctx context.Context, id string, patch entity.SubmissionFields, actor entity.Actor) (*entity.Submission, error)
	deleteFunc        func(ctx context.Context, id string, actor entity.Actor) error
	addAttachmentFunc func(ctx context.Context, submissionID string, upload entity.AttachmentUpload, actor entity.Actor) (*entity.Attachment, error)
	historyFunc       func(ctx context.Context, submissionID string) ([]*entity.AuditEntry, error)
}

func (m *mockSubmissionService) Create(ctx context.Context, fields entity.SubmissionFields, actor entity.Actor) (*entity.Submission, error) {
	return m.createFunc(ctx, fields, actor)
}

func (m *mockSubmissionService) Get(ctx context.Context, id string) (*entity.Submission, error) {
	return m.getFunc(ctx, id)
}

func (m *mockSubmissionService) List(ctx context.Context, filter entity.SubmissionFilter) ([]*entity.Submission, error) {
	return m.listFunc(ctx, filter)
}

func (m *mockSubmissionService) Update(ctx context.Context, id string, patch entity.SubmissionFields, actor entity.Actor) (*entity.Submission, error) {
	return m.updateFunc(ctx, id, patch, actor)
}

func (m *mockSubmissionService) Delete(ctx context.Context, id string, actor entity.Actor) error {
	return m.deleteFunc(ctx, id, actor)
}

func (m *mockSubmissionService) AddAttachment(ctx context.Context, submissionID string, upload entity.AttachmentUpload, actor entity.Actor) (*entity.Attachment, error) {
	return m.addAttachmentFunc(ctx, submissionID, upload, actor)
}

func (m *mockSubmissionService) ListAttachments(ctx context.Context, submissionID string) ([]*entity.Attachment, error) {
	return nil, nil
}

func (m *mockSubmissionService) History(ctx context.Context, submissionID string) ([]*entity.AuditEntry, error) {
	return m.historyFunc(ctx, submissionID)
}

type transitionCall struct {
	SubmissionID string
	Target       domainwf.State
	Actor        entity.Actor
	Reason       string
}

// mockEngine records transition requests and answers with transitionFunc
type mockEngine struct {
	mu             sync.Mutex
	calls          []transitionCall
	transitionFunc func(call transitionCall) (*entity.Submission, error)
	handleFunc     func(ctx context.Context, evt *event.Event) error
}

func (m *mockEngine) record(id string, target domainwf.State, actor entity.Actor, reason string) (*entity.Submission, error) {
	call := transitionCall{SubmissionID: id, Target: target, Actor: actor, Reason: reason}
	m.mu.Lock()
	m.calls = append(m.calls, call)
	m.mu.Unlock()
	if m.transitionFunc != nil {
		return m.transitionFunc(call)
	}
	return &entity.Submission{ID: id, Status: target, Version: 2}, nil
}

func (m *mockEngine) Transition(_ context.Context, id string, target domainwf.State, actor entity.Actor, reason string) (*entity.Submission, error) {
	return m.record(id, target, actor, reason)
}

func (m *mockEngine) SubmitForReview(_ context.Context, id string, actor entity.Actor) (*entity.Submission, error) {
	return m.record(id, domainwf.StatePendingReview, actor, "")
}

func (m *mockEngine) Approve(_ context.Context, id string, actor entity.Actor, reason string) (*entity.Submission, error) {
	return m.record(id, domainwf.StateApproved, actor, reason)
}

func (m *mockEngine) Reject(_ context.Context, id string, actor entity.Actor, reason string) (*entity.Submission, error) {
	return m.record(id, domainwf.StateRejected, actor, reason)
}

func (m *mockEngine) MarkIncomplete(_ context.Context, id string, actor entity.Actor, reason string) (*entity.Submission, error) {
	return m.record(id, domainwf.StateIncomplete, actor, reason)
}

func (m *mockEngine) Complete(_ context.Context, id string, actor entity.Actor, reason string) (*entity.Submission, error) {
	return m.record(id, domainwf.StateCompleted, actor, reason)
}

func (m *mockEngine) MarkPaid(_ context.Context, id string, actor entity.Actor, reference string) (*entity.Submission, error) {
	return m.record(id, domainwf.StatePaid, actor, reference)
}

func (m *mockEngine) AllowedTransitions(current domainwf.State) []domainwf.State {
	return domainwf.AllowedTargets(current)
}

func (m *mockEngine) HandleEvent(ctx context.Context, evt *event.Event) error {
	if m.handleFunc != nil {
		return m.handleFunc(ctx, evt)
	}
	_, err := m.MarkPaid(ctx, evt.SubmissionID, entity.NewActor(entity.SystemActorPaymentGateway), evt.GetPayloadString(event.PayloadPaymentReference))
	return err
}

func (m *mockEngine) lastCall() transitionCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return transitionCall{}
	}
	return m.calls[len(m.calls)-1]
}

type mockReports struct {
	exportFunc func(ctx context.Context, filter entity.SubmissionFilter, actor entity.Actor, out io.Writer) (int, error)
}

func (m *mockReports) ExportSubmissions(ctx context.Context, filter entity.SubmissionFilter, actor entity.Actor, out io.Writer) (int, error) {
	return m.exportFunc(ctx, filter, actor, out)
}

func (m *mockReports) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}
