package realtime

import (
	"sync"
	"time"
)

// Activity describes what a user most recently reported doing.
type Activity struct {
	Type      string    `json:"type"`
	TaskID    string    `json:"taskId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Registry tracks which users are online and their last reported activity.
// A user is online while at least one of their connections is registered;
// the user's entry disappears entirely when the last connection goes away.
type Registry struct {
	mu          sync.RWMutex
	connections map[string]map[string]struct{} // userID -> set of connection IDs
	activities  map[string]Activity
	timeFunc    func() time.Time
}

// NewRegistry creates an empty presence registry.
func NewRegistry() *Registry {
	return &Registry{
		connections: make(map[string]map[string]struct{}),
		activities:  make(map[string]Activity),
		timeFunc:    time.Now,
	}
}

// Connect records a connection for the user. Returns true when this is the
// user's first connection, i.e. the user transitioned to online.
func (r *Registry) Connect(userID, connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns, ok := r.connections[userID]
	if !ok {
		conns = make(map[string]struct{})
		r.connections[userID] = conns
	}
	conns[connID] = struct{}{}
	return !ok
}

// Disconnect removes a connection for the user. Returns true when it was the
// user's last connection, i.e. the user transitioned to offline. Unknown
// connections are ignored.
func (r *Registry) Disconnect(userID, connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns, ok := r.connections[userID]
	if !ok {
		return false
	}
	delete(conns, connID)
	if len(conns) > 0 {
		return false
	}

	delete(r.connections, userID)
	delete(r.activities, userID)
	return true
}

// IsOnline reports whether the user has at least one registered connection.
func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.connections[userID]) > 0
}

// UpdateActivity records the user's latest activity, stamping it with the
// current time. Activity for unknown (offline) users is dropped.
func (r *Registry) UpdateActivity(userID string, activityType, taskID string) (Activity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.connections[userID]; !ok {
		return Activity{}, false
	}

	activity := Activity{
		Type:      activityType,
		TaskID:    taskID,
		Timestamp: r.timeFunc(),
	}
	r.activities[userID] = activity
	return activity, true
}

// Activity returns the user's last reported activity, if any.
func (r *Registry) Activity(userID string) (Activity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	activity, ok := r.activities[userID]
	return activity, ok
}

// OnlineUsers returns the IDs of all currently online users.
func (r *Registry) OnlineUsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]string, 0, len(r.connections))
	for userID := range r.connections {
		users = append(users, userID)
	}
	return users
}

// PresenceStatus is one user's entry in a full presence snapshot.
type PresenceStatus struct {
	Online          bool      `json:"online"`
	ConnectionCount int       `json:"connectionCount"`
	Activity        *Activity `json:"activity,omitempty"`
}

// SnapshotAll returns the presence state of every online user: connection
// count plus the last reported activity, if any. The returned map is a copy
// and safe to hold after the call.
func (r *Registry) SnapshotAll() map[string]PresenceStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := make(map[string]PresenceStatus, len(r.connections))
	for userID, conns := range r.connections {
		status := PresenceStatus{Online: true, ConnectionCount: len(conns)}
		if activity, ok := r.activities[userID]; ok {
			a := activity
			status.Activity = &a
		}
		snapshot[userID] = status
	}
	return snapshot
}

// ConnectionCount returns the number of registered connections for the user.
func (r *Registry) ConnectionCount(userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.connections[userID])
}
