package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/homologa/vehicle-homologation/internal/application/dispatcher"
	"github.com/homologa/vehicle-homologation/internal/application/port"
	"github.com/homologa/vehicle-homologation/internal/domain/entity"
	"github.com/homologa/vehicle-homologation/internal/domain/event"
	domainwf "github.com/homologa/vehicle-homologation/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// engineImpl is the concrete implementation of WorkflowEngine.
// It holds no mutable state; every call is a function of the stored snapshot and its arguments.
type engineImpl struct {
	submissions port.SubmissionRepository
	attachments port.AttachmentInventory
	audit       port.AuditRecorder
	txManager   port.TransactionManager
	notifier    port.Notifier
	dispatcher  dispatcher.Dispatcher
	logger      Logger
}

var _ WorkflowEngine = (*engineImpl)(nil)

// EngineOption configures the workflow engine
type EngineOption func(*engineImpl)

// WithNotifier sets the notifier told about every successful transition
func WithNotifier(n port.Notifier) EngineOption {
	return func(e *engineImpl) {
		e.notifier = n
	}
}

// WithDispatcher sets the event dispatcher for emitting events
func WithDispatcher(d dispatcher.Dispatcher) EngineOption {
	return func(e *engineImpl) {
		e.dispatcher = d
	}
}

// WithLogger sets the engine logger
func WithLogger(l Logger) EngineOption {
	return func(e *engineImpl) {
		e.logger = l
	}
}

// NewEngine creates a new workflow engine
func NewEngine(
	submissions port.SubmissionRepository,
	attachments port.AttachmentInventory,
	audit port.AuditRecorder,
	txManager port.TransactionManager,
	opts ...EngineOption,
) WorkflowEngine {
	e := &engineImpl{
		submissions: submissions,
		attachments: attachments,
		audit:       audit,
		txManager:   txManager,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Transition evaluates, in order: privilege, existence, the transition table and,
// for the first submission only, readiness. Status update and audit entry commit
// together; notification and event publication follow and never affect the result.
func (e *engineImpl) Transition(ctx context.Context, submissionID string, target domainwf.State, actor entity.Actor, reason string) (*entity.Submission, error) {
	if domainwf.RequiresElevation(target) && !actor.Elevated {
		return nil, domainwf.NewRequiresElevatedPrivilege(target)
	}

	sub, err := e.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			return nil, domainwf.NewNotFound(submissionID)
		}
		return nil, domainwf.NewUnexpected("load submission", err)
	}

	from := sub.Status
	if !domainwf.CanTransition(from, target) {
		return nil, domainwf.NewInvalidTransition(from, target)
	}

	if domainwf.RequiresReadiness(from, target) {
		if err := e.checkReadiness(ctx, sub); err != nil {
			return nil, err
		}
	}

	var updated *entity.Submission
	err = e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		result, err := e.submissions.UpdateStatus(txCtx, sub.ID, sub.Version, target, actor.ID)
		if err != nil {
			return err
		}

		entry := &entity.AuditEntry{
			EntityType: entity.AuditEntitySubmission,
			EntityID:   sub.ID,
			Action:     entity.AuditActionStatusChange,
			OldValues:  map[string]interface{}{"status": from.String()},
			NewValues:  map[string]interface{}{"status": target.String()},
			Reason:     reason,
			ActorID:    actor.ID,
		}
		if err := e.audit.Record(txCtx, entry); err != nil {
			return fmt.Errorf("failed to record audit entry: %w", err)
		}

		updated = result
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, port.ErrVersionConflict):
			return nil, domainwf.NewConflict(sub.ID, sub.Version, err)
		case errors.Is(err, port.ErrNotFound):
			return nil, domainwf.NewNotFound(sub.ID)
		default:
			if e.logger != nil {
				e.logger.Error("Status change failed",
					"submission_id", sub.ID,
					"from", from,
					"to", target,
					"error", err,
				)
			}
			return nil, domainwf.NewUnexpected("persist status change", err)
		}
	}

	if e.logger != nil {
		e.logger.Info("Submission status changed",
			"submission_id", updated.ID,
			"from", from,
			"to", updated.Status,
			"actor_id", actor.ID,
			"version", updated.Version,
		)
	}

	e.notify(ctx, updated, reason)
	e.publish(ctx, from, updated, actor, reason)

	return updated, nil
}

// SubmitForReview moves a submission to PENDING_REVIEW
func (e *engineImpl) SubmitForReview(ctx context.Context, submissionID string, actor entity.Actor) (*entity.Submission, error) {
	return e.Transition(ctx, submissionID, domainwf.StatePendingReview, actor, "")
}

// Approve moves a submission to APPROVED
func (e *engineImpl) Approve(ctx context.Context, submissionID string, actor entity.Actor, reason string) (*entity.Submission, error) {
	return e.Transition(ctx, submissionID, domainwf.StateApproved, actor, reason)
}

// Reject moves a submission to REJECTED
func (e *engineImpl) Reject(ctx context.Context, submissionID string, actor entity.Actor, reason string) (*entity.Submission, error) {
	return e.Transition(ctx, submissionID, domainwf.StateRejected, actor, reason)
}

// MarkIncomplete sends a submission back to its owner for corrections
func (e *engineImpl) MarkIncomplete(ctx context.Context, submissionID string, actor entity.Actor, reason string) (*entity.Submission, error) {
	return e.Transition(ctx, submissionID, domainwf.StateIncomplete, actor, reason)
}

// Complete moves an approved submission to COMPLETED
func (e *engineImpl) Complete(ctx context.Context, submissionID string, actor entity.Actor, reason string) (*entity.Submission, error) {
	return e.Transition(ctx, submissionID, domainwf.StateCompleted, actor, reason)
}

// MarkPaid moves a submission under review to PAID
func (e *engineImpl) MarkPaid(ctx context.Context, submissionID string, actor entity.Actor, reference string) (*entity.Submission, error) {
	reason := "payment confirmed"
	if reference != "" {
		reason = fmt.Sprintf("payment confirmed (reference %s)", reference)
	}
	return e.Transition(ctx, submissionID, domainwf.StatePaid, actor, reason)
}

// AllowedTransitions lists the legal targets from a status
func (e *engineImpl) AllowedTransitions(current domainwf.State) []domainwf.State {
	return domainwf.AllowedTargets(current)
}

// HandleEvent processes a domain event through the workflow
func (e *engineImpl) HandleEvent(ctx context.Context, evt *event.Event) error {
	if evt == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if evt.SubmissionID == "" {
		return fmt.Errorf("event %s has no submission ID", evt.ID)
	}

	switch evt.Type {
	case event.TypePaymentConfirmed:
		actor := entity.NewActor(entity.SystemActorPaymentGateway)
		_, err := e.MarkPaid(ctx, evt.SubmissionID, actor, evt.GetPayloadString(event.PayloadPaymentReference))
		return err

	case event.TypeSubmissionCreated, event.TypeStatusChanged:
		// Results of earlier operations, not transition requests
		return nil

	default:
		return fmt.Errorf("unknown event type: %s", evt.Type)
	}
}

// notify delivers the status notification. The report is only observed:
// a failed delivery is logged and never changes the transition result.
func (e *engineImpl) notify(ctx context.Context, sub *entity.Submission, reason string) {
	if e.notifier == nil {
		return
	}

	report := e.notifier.NotifyStatusChange(ctx, entity.NotificationContext{
		SubmissionID: sub.ID,
		OwnerName:    sub.OwnerFullName,
		OwnerEmail:   sub.OwnerEmail,
		NewStatus:    sub.Status.String(),
		Reason:       reason,
	})

	if report.Failed() && e.logger != nil {
		e.logger.Warn("Status notification failed",
			"submission_id", sub.ID,
			"new_status", sub.Status,
			"channel", report.Channel,
			"error", report.Err,
		)
	}
}

// publish emits a status changed event if a dispatcher is available
func (e *engineImpl) publish(ctx context.Context, from domainwf.State, sub *entity.Submission, actor entity.Actor, reason string) {
	if e.dispatcher == nil {
		return
	}

	statusEvent := event.NewEvent(event.TypeStatusChanged, sub.ID, map[string]interface{}{
		event.PayloadOldStatus: from.String(),
		event.PayloadNewStatus: sub.Status.String(),
		event.PayloadActorID:   actor.ID,
		event.PayloadReason:    reason,
		event.PayloadVersion:   sub.Version,
	})
	// Fire async to avoid blocking
	e.dispatcher.DispatchAsync(context.WithoutCancel(ctx), statusEvent)
}
