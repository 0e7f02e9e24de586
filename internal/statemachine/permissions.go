package statemachine

// checkPermission gates a transition on the caller's user context. The user
// value must implement PermissionChecker; a missing or untyped user denies.
// Admins pass regardless of the named permission, but the bypass is recorded
// as a warning so callers can audit it.
func checkPermission(permission string, context map[string]any) Result {
	user, ok := context[ContextUserKey].(PermissionChecker)
	if !ok || user == nil {
		return Result{Allowed: false, Reason: "User context required for permission check"}
	}
	if user.HasPermission(permission) {
		return Result{Allowed: true, Reason: "permission granted"}
	}
	if user.IsAdmin() {
		return Result{
			Allowed:  true,
			Reason:   "permission granted",
			Warnings: []string{"Admin bypassed permission: " + permission},
		}
	}
	return Result{Allowed: false, Reason: "User lacks required permission: " + permission}
}
