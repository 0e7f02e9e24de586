package statemachine

// Transition is a directed edge between two statuses, optionally guarded by
// flat equality conditions and/or a required permission. Immutable once
// registered.
type Transition struct {
	From               string
	To                 string
	Conditions         map[string]any
	RequiresPermission string
	Description        string
}

// Result is the outcome of a transition validation. Allowed=false is the
// uniform failure signal; Reason and Warnings carry diagnostics. Warnings can
// accompany an allowed result (permissive pass-through, admin bypass) and
// must be surfaced for audit.
type Result struct {
	Allowed  bool     `json:"allowed"`
	Reason   string   `json:"reason"`
	Warnings []string `json:"warnings,omitempty"`
}

// ContextUserKey is the reserved context-map key consumed by permission
// checks. Its value must implement PermissionChecker.
const ContextUserKey = "user"

// PermissionChecker is the capability a caller's user/principal type must
// expose for permission-gated transitions.
type PermissionChecker interface {
	// HasPermission reports whether the user holds the named permission.
	HasPermission(name string) bool
	// IsAdmin reports whether the user is flagged as an administrator.
	// Admins pass every permission check; the bypass is recorded as a
	// warning on the result for audit.
	IsAdmin() bool
}
