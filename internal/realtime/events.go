package realtime

import (
	"encoding/json"
	"time"

	"github.com/taskhive/taskhive/internal/domain"
)

// Inbound event names understood by the dispatcher.
const (
	EventJoinTask         = "join_task"
	EventLeaveTask        = "leave_task"
	EventCreateTask       = "create_task"
	EventUpdateTask       = "update_task"
	EventDeleteTask       = "delete_task"
	EventUserMessage      = "user_message"
	EventUpdateActivity   = "update_activity"
	EventGetOnlineUsers   = "get_online_users"
	EventCheckUserStatus  = "check_user_status"
	EventGetNotifications = "get_notifications"
	EventMarkAsRead       = "mark_as_read"
)

// Outbound event names emitted to clients.
const (
	EventJoined          = "join_request"
	EventLeft            = "leave_request"
	EventTaskCreated     = "create_request"
	EventTaskUpdated     = "update_request"
	EventTaskDeleted     = "delete_request"
	EventTaskAssigned    = "task_assigned"
	EventDirectMessage   = "chat_user"
	EventActivityUpdate  = "activity_update"
	EventOnlineUsers     = "online_users"
	EventUserStatus      = "user_status"
	EventNotifications   = "notifications"
	EventNewNotification = "new_notification"
	EventError           = "error"
)

// Envelope is the wire frame for every websocket message in both directions.
// Data carries the event-specific payload and may be absent for events that
// need none.
type Envelope struct {
	Event string          `json:"event" validate:"required"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Inbound payloads. Each inbound event has exactly one payload shape; the
// dispatcher rejects anything that fails decoding or validation.

// JoinTaskPayload asks to join a task's collaboration room.
type JoinTaskPayload struct {
	TaskID string `json:"taskId" validate:"required,uuid"`
}

// LeaveTaskPayload asks to leave a task's collaboration room.
type LeaveTaskPayload struct {
	TaskID string `json:"taskId" validate:"required,uuid"`
}

// CreateTaskPayload carries the fields for a new task.
type CreateTaskPayload struct {
	Title       string     `json:"title"       validate:"required,max=100"`
	Description string     `json:"description" validate:"required,max=1000"`
	Status      string     `json:"status"      validate:"omitempty,oneof=todo in-progress done"`
	Priority    string     `json:"priority"    validate:"omitempty,oneof=low medium high"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	AssignedTo  []string   `json:"assignedTo"  validate:"dive,uuid"`
}

// UpdateTaskPayload carries a partial update; absent fields are unchanged.
type UpdateTaskPayload struct {
	TaskID      string     `json:"taskId" validate:"required,uuid"`
	Title       *string    `json:"title,omitempty"       validate:"omitempty,max=100"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=1000"`
	Status      *string    `json:"status,omitempty"      validate:"omitempty,oneof=todo in-progress done"`
	Priority    *string    `json:"priority,omitempty"    validate:"omitempty,oneof=low medium high"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	AssignedTo  []string   `json:"assignedTo,omitempty"  validate:"omitempty,dive,uuid"`
}

// DeleteTaskPayload asks to delete a task.
type DeleteTaskPayload struct {
	TaskID string `json:"taskId" validate:"required,uuid"`
}

// UserMessagePayload carries a direct message scoped to a shared task.
type UserMessagePayload struct {
	ReceiverID string `json:"receiverId" validate:"required,uuid"`
	TaskID     string `json:"taskId"     validate:"required,uuid"`
	Message    string `json:"message"    validate:"required,max=2000"`
}

// UpdateActivityPayload reports what the user is currently doing.
type UpdateActivityPayload struct {
	Type   string `json:"type"   validate:"required,max=64"`
	TaskID string `json:"taskId" validate:"omitempty,uuid"`
}

// CheckUserStatusPayload asks whether a specific user is online.
type CheckUserStatusPayload struct {
	UserID string `json:"userId" validate:"required,uuid"`
}

// MarkAsReadPayload marks the caller's notifications as read.
type MarkAsReadPayload struct {
	NotificationIDs []string `json:"notificationIds" validate:"required,min=1,dive,uuid"`
}

// Outbound payloads.

// ErrorPayload is sent on the "error" event to the offending connection.
type ErrorPayload struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// RoomMessagePayload announces joins to a task room.
type RoomMessagePayload struct {
	Message string `json:"message"`
}

// LeftPayload confirms leaving a task room.
type LeftPayload struct {
	Message string `json:"message"`
	TaskID  string `json:"taskId"`
}

// TaskEventPayload carries a task alongside a human-readable message. Used
// for create and update fanout and for assignment notices.
type TaskEventPayload struct {
	Task    *domain.Task `json:"task"`
	Message string       `json:"message"`
}

// TaskDeletedPayload acknowledges a deletion to the room.
type TaskDeletedPayload struct {
	TaskID  string `json:"taskId"`
	Message string `json:"message"`
}

// DirectMessagePayload is delivered to the receiver of a direct message.
// Sender is rendered as "<role>_<displayName>".
type DirectMessagePayload struct {
	Sender  string `json:"sender"`
	TaskID  string `json:"taskId"`
	Message string `json:"message"`
}

// ActivityUpdatePayload is broadcast to a task room when a member reports
// activity there.
type ActivityUpdatePayload struct {
	UserID    string    `json:"userId"`
	Type      string    `json:"type"`
	TaskID    string    `json:"taskId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// OnlineUsersPayload lists the IDs of currently connected users.
type OnlineUsersPayload struct {
	Users []string `json:"users"`
}

// UserStatusPayload answers a check_user_status request.
type UserStatusPayload struct {
	UserID   string    `json:"userId"`
	IsOnline bool      `json:"isOnline"`
	Activity *Activity `json:"activity,omitempty"`
}

// NotificationsPayload answers a get_notifications request.
type NotificationsPayload struct {
	Success       bool                   `json:"success"`
	Notifications []*domain.Notification `json:"notifications"`
}
