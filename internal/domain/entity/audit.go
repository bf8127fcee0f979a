package entity

import "time"

// AuditEntry is an immutable record of what changed, by whom, and when
type AuditEntry struct {
	ID         int64                  `json:"id"`
	EntityType string                 `json:"entity_type"`
	EntityID   string                 `json:"entity_id"`
	Action     string                 `json:"action"`
	OldValues  map[string]interface{} `json:"old_values,omitempty"`
	NewValues  map[string]interface{} `json:"new_values,omitempty"`
	Reason     string                 `json:"reason,omitempty"`
	ActorID    string                 `json:"actor_id"`
	CreatedAt  time.Time              `json:"created_at"`
}
