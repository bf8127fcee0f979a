package cli

import (
	"context"
	"io"
	"sync"

	"github.com/homologa/vehicle-homologation/internal/application/port"
	"github.com/homologa/vehicle-homologation/internal/domain/entity"
	"github.com/homologa/vehicle-homologation/internal/domain/event"
	domainwf "github.com/homologa/vehicle-homologation/internal/domain/workflow"
)

type fakeSubmissions struct {
	subs    map[string]*entity.Submission
	history map[string][]*entity.AuditEntry
}

func (f *fakeSubmissions) Create(context.Context, entity.SubmissionFields, entity.Actor) (*entity.Submission, error) {
	panic("not used by homologctl")
}

func (f *fakeSubmissions) Get(_ context.Context, id string) (*entity.Submission, error) {
	sub, ok := f.subs[id]
	if !ok {
		return nil, port.ErrNotFound
	}
	return sub, nil
}

func (f *fakeSubmissions) List(context.Context, entity.SubmissionFilter) ([]*entity.Submission, error) {
	return nil, nil
}

func (f *fakeSubmissions) Update(context.Context, string, entity.SubmissionFields, entity.Actor) (*entity.Submission, error) {
	panic("not used by homologctl")
}

func (f *fakeSubmissions) Delete(context.Context, string, entity.Actor) error {
	panic("not used by homologctl")
}

func (f *fakeSubmissions) AddAttachment(context.Context, string, entity.AttachmentUpload, entity.Actor) (*entity.Attachment, error) {
	panic("not used by homologctl")
}

func (f *fakeSubmissions) ListAttachments(context.Context, string) ([]*entity.Attachment, error) {
	return nil, nil
}

func (f *fakeSubmissions) History(_ context.Context, id string) ([]*entity.AuditEntry, error) {
	if _, ok := f.subs[id]; !ok {
		return nil, port.ErrNotFound
	}
	return f.history[id], nil
}

type engineCall struct {
	Op     string
	ID     string
	Target domainwf.State
	Actor  entity.Actor
	Reason string
}

// fakeEngine records calls and answers with result
type fakeEngine struct {
	mu     sync.Mutex
	calls  []engineCall
	result func(call engineCall) (*entity.Submission, error)
}

func (f *fakeEngine) do(op, id string, target domainwf.State, actor entity.Actor, reason string) (*entity.Submission, error) {
	call := engineCall{Op: op, ID: id, Target: target, Actor: actor, Reason: reason}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
	if f.result != nil {
		return f.result(call)
	}
	return &entity.Submission{ID: id, Status: target, Version: 4}, nil
}

func (f *fakeEngine) Transition(_ context.Context, id string, target domainwf.State, actor entity.Actor, reason string) (*entity.Submission, error) {
	return f.do("transition", id, target, actor, reason)
}

func (f *fakeEngine) SubmitForReview(_ context.Context, id string, actor entity.Actor) (*entity.Submission, error) {
	return f.do("submit", id, domainwf.StatePendingReview, actor, "")
}

func (f *fakeEngine) Approve(_ context.Context, id string, actor entity.Actor, reason string) (*entity.Submission, error) {
	return f.do("approve", id, domainwf.StateApproved, actor, reason)
}

func (f *fakeEngine) Reject(_ context.Context, id string, actor entity.Actor, reason string) (*entity.Submission, error) {
	return f.do("reject", id, domainwf.StateRejected, actor, reason)
}

func (f *fakeEngine) MarkIncomplete(_ context.Context, id string, actor entity.Actor, reason string) (*entity.Submission, error) {
	return f.do("incomplete", id, domainwf.StateIncomplete, actor, reason)
}

func (f *fakeEngine) Complete(_ context.Context, id string, actor entity.Actor, reason string) (*entity.Submission, error) {
	return f.do("complete", id, domainwf.StateCompleted, actor, reason)
}

func (f *fakeEngine) MarkPaid(_ context.Context, id string, actor entity.Actor, reference string) (*entity.Submission, error) {
	return f.do("paid", id, domainwf.StatePaid, actor, reference)
}

func (f *fakeEngine) AllowedTransitions(current domainwf.State) []domainwf.State {
	return domainwf.AllowedTargets(current)
}

func (f *fakeEngine) HandleEvent(context.Context, *event.Event) error {
	return nil
}

type fakeReports struct {
	filter entity.SubmissionFilter
	actor  entity.Actor
	err    error
}

func (f *fakeReports) ExportSubmissions(_ context.Context, filter entity.SubmissionFilter, actor entity.Actor, out io.Writer) (int, error) {
	f.filter, f.actor = filter, actor
	if f.err != nil {
		return 0, f.err
	}
	_, err := out.Write([]byte("PK-fake-workbook"))
	return 2, err
}
