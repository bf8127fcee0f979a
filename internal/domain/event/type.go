package event

// Type identifies the type of domain event
type Type string

const (
	TypeSubmissionCreated Type = "submission.created"
	TypeStatusChanged     Type = "submission.status_changed"
	TypePaymentConfirmed  Type = "payment.confirmed"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeSubmissionCreated,
		TypeStatusChanged,
		TypePaymentConfirmed:
		return true
	default:
		return false
	}
}

// Payload keys shared by publishers and handlers
const (
	PayloadOldStatus        = "old_status"
	PayloadNewStatus        = "new_status"
	PayloadActorID          = "actor_id"
	PayloadReason           = "reason"
	PayloadPaymentReference = "payment_reference"
	PayloadAmountCents      = "amount_cents"
	PayloadVersion          = "version"
)
