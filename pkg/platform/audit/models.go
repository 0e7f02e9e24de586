// Package audit defines the audit event model and sink contract. Domain
// services emit events for security-relevant sync decisions; sinks fan them
// out to memory, logs or Kafka.
package audit

import "time"

// EventCategory classifies audit events by their primary purpose, enabling
// different retention and routing downstream.
type EventCategory string

const (
	// CategorySecurity covers events that feed security monitoring:
	// permission bypasses, denied transitions, admin reconfiguration.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events for operational visibility:
	// applied changes, dedupe hits, permissive pass-throughs.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key sync decisions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	Action    string        `json:"action"`
	Domain    string        `json:"domain,omitempty"`
	RecordID  string        `json:"record_id,omitempty"`
	Subject   string        `json:"subject,omitempty"`
	ActorID   string        `json:"actor_id,omitempty"`
	Decision  string        `json:"decision,omitempty"`
	Reason    string        `json:"reason,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
}

// Sync audit actions.
const (
	ActionTransitionDenied   = "sync_transition_denied"
	ActionTransitionWarning  = "sync_transition_warning"
	ActionAdminBypass        = "sync_admin_permission_bypass"
	ActionChangeApplied      = "sync_change_applied"
	ActionVersionConflict    = "sync_version_conflict"
	ActionChangeDeduplicated = "sync_change_deduplicated"
	ActionDomainRegistered   = "sync_domain_registered"
	ActionValidationFault    = "sync_validation_fault"
)

// Sink receives events for durable handling. Implementations must be safe
// for concurrent use.
type Sink interface {
	Append(event Event) error
}

// Store extends Sink with read access for admin inspection and tests.
type Store interface {
	Sink
	ListRecent(limit int) []Event
}
