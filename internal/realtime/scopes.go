package realtime

// Scope name constructors. Scopes are plain strings so the router and the
// backplane can treat them uniformly.

// UserScope returns the delivery scope for a single user's connections.
func UserScope(userID string) string {
	return "user_" + userID
}

// RoleScope returns the delivery scope shared by all users holding a role.
func RoleScope(role string) string {
	return "role_" + role
}

// TaskScope returns the delivery scope for a task's collaboration room.
func TaskScope(taskID string) string {
	return "task_" + taskID
}
