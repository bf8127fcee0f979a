package workflow

import (
	"context"

	"github.com/homologa/vehicle-homologation/internal/domain/entity"
	"github.com/homologa/vehicle-homologation/internal/domain/event"
	domainwf "github.com/homologa/vehicle-homologation/internal/domain/workflow"
)

// WorkflowEngine owns the status field of every submission.
// Every failure it returns is a *domainwf.Error; success carries the updated submission.
type WorkflowEngine interface {
	// Transition moves a submission to the target status after evaluating all guards
	Transition(ctx context.Context, submissionID string, target domainwf.State, actor entity.Actor, reason string) (*entity.Submission, error)

	// SubmitForReview moves a draft or incomplete submission to PENDING_REVIEW
	SubmitForReview(ctx context.Context, submissionID string, actor entity.Actor) (*entity.Submission, error)

	Approve(ctx context.Context, submissionID string, actor entity.Actor, reason string) (*entity.Submission, error)
	Reject(ctx context.Context, submissionID string, actor entity.Actor, reason string) (*entity.Submission, error)
	MarkIncomplete(ctx context.Context, submissionID string, actor entity.Actor, reason string) (*entity.Submission, error)
	Complete(ctx context.Context, submissionID string, actor entity.Actor, reason string) (*entity.Submission, error)

	// MarkPaid records a confirmed fee payment; reference is the gateway's payment id
	MarkPaid(ctx context.Context, submissionID string, actor entity.Actor, reference string) (*entity.Submission, error)

	// AllowedTransitions lists the legal targets from a status (pure, no I/O)
	AllowedTransitions(current domainwf.State) []domainwf.State

	// HandleEvent processes a domain event that drives a transition
	HandleEvent(ctx context.Context, evt *event.Event) error
}
