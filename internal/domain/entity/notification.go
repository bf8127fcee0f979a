package entity

import "time"

// StatusNotification records one attempt to tell the owner about a status change
type StatusNotification struct {
	ID           int64      `json:"id"`
	SubmissionID string     `json:"submission_id"`
	Recipient    string     `json:"recipient"`
	NewStatus    string     `json:"new_status"`
	Reason       string     `json:"reason,omitempty"`
	Channel      string     `json:"channel"`
	Status       string     `json:"status"`
	ErrorMessage string     `json:"error_message,omitempty"`
	SentAt       *time.Time `json:"sent_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// NotificationContext carries what the notifier needs to tell the owner about a transition
type NotificationContext struct {
	SubmissionID string
	OwnerName    string
	OwnerEmail   string
	NewStatus    string
	Reason       string
}
