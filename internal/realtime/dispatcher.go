package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/platform/logger"
	"github.com/taskhive/taskhive/internal/store"
)

// Session pairs a connection with the identity established at handshake.
// The identity is fixed for the session's lifetime.
type Session struct {
	Client
	Identity Identity
}

// sendTo writes a single event to one client.
func sendTo(c Client, event string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", event, err)
	}
	frame, err := json.Marshal(Envelope{Event: event, Data: raw})
	if err != nil {
		return fmt.Errorf("failed to marshal %s envelope: %w", event, err)
	}
	return c.Send(frame)
}

// clientVisible lists the errors whose messages are safe to echo back to the
// offending connection. Anything else is logged server-side and reported as
// a generic failure.
var clientVisible = []error{
	ErrBadPayload,
	ErrTaskNotFound,
	ErrForbiddenAssignment,
	ErrForbiddenTaskDelete,
	ErrForbiddenDirectMessage,
	domain.ErrEmptyTaskTitle,
	domain.ErrTaskTitleTooLong,
	domain.ErrEmptyTaskDescription,
	domain.ErrDescriptionTooLong,
	domain.ErrDueDateInPast,
	domain.ErrInvalidTaskStatus,
	domain.ErrInvalidTaskPriority,
}

// Dispatcher routes inbound events to their handlers. The hub calls
// Dispatch serially per connection, so handlers never race with themselves
// for the same session.
type Dispatcher struct {
	rooms         *Router
	presence      *Registry
	tasks         store.TaskStore
	notifications store.NotificationStore
	notifier      *Notifier
	validate      *validator.Validate
	logger        *slog.Logger
}

// NewDispatcher creates a dispatcher wired to the given collaborators.
func NewDispatcher(
	rooms *Router,
	presence *Registry,
	tasks store.TaskStore,
	notifications store.NotificationStore,
	notifier *Notifier,
	logger *slog.Logger,
) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		rooms:         rooms,
		presence:      presence,
		tasks:         tasks,
		notifications: notifications,
		notifier:      notifier,
		validate:      validator.New(),
		logger:        logger.With(slog.String("component", "dispatcher")),
	}
}

// Dispatch decodes one inbound frame and runs its handler. Handler failures
// are reported to the sender on the error event; they never terminate the
// connection.
func (d *Dispatcher) Dispatch(ctx context.Context, sess *Session, raw []byte) {
	var envelope Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Event == "" {
		d.reportError(ctx, sess, "", fmt.Errorf("%w: malformed envelope", ErrBadPayload))
		return
	}

	var err error
	switch envelope.Event {
	case EventJoinTask:
		err = d.handleJoinTask(ctx, sess, envelope.Data)
	case EventLeaveTask:
		err = d.handleLeaveTask(ctx, sess, envelope.Data)
	case EventCreateTask:
		err = d.handleCreateTask(ctx, sess, envelope.Data)
	case EventUpdateTask:
		err = d.handleUpdateTask(ctx, sess, envelope.Data)
	case EventDeleteTask:
		err = d.handleDeleteTask(ctx, sess, envelope.Data)
	case EventUserMessage:
		err = d.handleUserMessage(ctx, sess, envelope.Data)
	case EventUpdateActivity:
		err = d.handleUpdateActivity(ctx, sess, envelope.Data)
	case EventGetOnlineUsers:
		err = d.handleGetOnlineUsers(ctx, sess)
	case EventCheckUserStatus:
		err = d.handleCheckUserStatus(ctx, sess, envelope.Data)
	case EventGetNotifications:
		err = d.handleGetNotifications(ctx, sess)
	case EventMarkAsRead:
		err = d.handleMarkAsRead(ctx, sess, envelope.Data)
	default:
		err = fmt.Errorf("%w: unknown event %q", ErrBadPayload, envelope.Event)
	}

	if err != nil {
		d.reportError(ctx, sess, envelope.Event, err)
	}
}

// decode unmarshals and validates an inbound payload.
func (d *Dispatcher) decode(data json.RawMessage, payload any) error {
	if err := json.Unmarshal(data, payload); err != nil {
		return fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if err := d.validate.Struct(payload); err != nil {
		return fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return nil
}

func (d *Dispatcher) reportError(ctx context.Context, sess *Session, event string, err error) {
	log := logger.FromContextOrDefault(ctx, d.logger)

	message := "request unsuccessful"
	visible := false
	for _, sentinel := range clientVisible {
		if errors.Is(err, sentinel) {
			message = sentinel.Error()
			visible = true
			break
		}
	}

	if visible {
		log.Debug("event rejected",
			slog.String("event", event),
			slog.String("user_id", sess.Identity.UserID.String()),
			slog.String("error", err.Error()))
	} else {
		log.Error("event handler failed",
			slog.String("event", event),
			slog.String("user_id", sess.Identity.UserID.String()),
			slog.String("error", err.Error()))
	}

	if sendErr := sendTo(sess, EventError, ErrorPayload{Success: false, Message: message}); sendErr != nil {
		log.Debug("failed to report error to client", slog.String("error", sendErr.Error()))
	}
}

func (d *Dispatcher) handleJoinTask(ctx context.Context, sess *Session, data json.RawMessage) error {
	var p JoinTaskPayload
	if err := d.decode(data, &p); err != nil {
		return err
	}

	taskID, err := uuid.Parse(p.TaskID)
	if err != nil {
		return fmt.Errorf("%w: %q is not a valid ID", ErrBadPayload, p.TaskID)
	}
	if _, err := d.tasks.GetByID(ctx, taskID); err != nil {
		if store.IsNotFoundError(err) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to load task %s: %w", taskID, err)
	}

	scope := TaskScope(p.TaskID)
	if err := d.rooms.Join(sess.ID(), scope); err != nil {
		return err
	}
	return d.rooms.Emit(scope, EventJoined, RoomMessagePayload{
		Message: fmt.Sprintf("%s joined task", sess.Identity.DisplayName),
	})
}

func (d *Dispatcher) handleLeaveTask(ctx context.Context, sess *Session, data json.RawMessage) error {
	var p LeaveTaskPayload
	if err := d.decode(data, &p); err != nil {
		return err
	}

	d.rooms.Leave(sess.ID(), TaskScope(p.TaskID))
	return sendTo(sess, EventLeft, LeftPayload{
		Message: fmt.Sprintf("%s left task", sess.Identity.DisplayName),
		TaskID:  p.TaskID,
	})
}

func (d *Dispatcher) handleCreateTask(ctx context.Context, sess *Session, data json.RawMessage) error {
	log := logger.FromContextOrDefault(ctx, d.logger)

	var p CreateTaskPayload
	if err := d.decode(data, &p); err != nil {
		return err
	}

	if len(p.AssignedTo) > 0 && !sess.Identity.Role.CanAssign() {
		return ErrForbiddenAssignment
	}

	assignees, err := parseUUIDs(p.AssignedTo)
	if err != nil {
		return err
	}

	task, err := domain.NewTask(
		p.Title,
		p.Description,
		domain.TaskStatus(p.Status),
		domain.TaskPriority(p.Priority),
		p.DueDate,
		sess.Identity.UserID,
		assignees,
	)
	if err != nil {
		return err
	}

	if err := d.tasks.Create(ctx, task); err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	for _, assignee := range task.AssignedTo {
		if _, err := d.notifier.TaskAssigned(ctx, assignee, task, sess.Identity.DisplayName); err != nil {
			log.Error("failed to notify assignee",
				slog.String("task_id", task.ID.String()),
				slog.String("assignee_id", assignee.String()),
				slog.String("error", err.Error()))
		}
		if err := d.rooms.Emit(UserScope(assignee.String()), EventTaskAssigned, TaskEventPayload{
			Task:    task,
			Message: "You have been assigned to a new task",
		}); err != nil {
			log.Warn("failed to emit assignment", slog.String("error", err.Error()))
		}
	}

	return d.rooms.EmitMulti(
		[]string{TaskScope(task.ID.String()), UserScope(sess.Identity.UserID.String())},
		EventTaskCreated,
		TaskEventPayload{Task: task, Message: "A new task is created"},
	)
}

func (d *Dispatcher) handleUpdateTask(ctx context.Context, sess *Session, data json.RawMessage) error {
	log := logger.FromContextOrDefault(ctx, d.logger)

	var p UpdateTaskPayload
	if err := d.decode(data, &p); err != nil {
		return err
	}

	if p.AssignedTo != nil && !sess.Identity.Role.CanAssign() {
		return ErrForbiddenAssignment
	}

	patch := store.TaskPatch{
		Title:       p.Title,
		Description: p.Description,
		DueDate:     p.DueDate,
	}
	if p.Status != nil {
		status := domain.TaskStatus(*p.Status)
		patch.Status = &status
	}
	if p.Priority != nil {
		priority := domain.TaskPriority(*p.Priority)
		patch.Priority = &priority
	}
	if p.AssignedTo != nil {
		assignees, err := parseUUIDs(p.AssignedTo)
		if err != nil {
			return err
		}
		patch.AssignedTo = &assignees
	}

	if patch.Empty() {
		return fmt.Errorf("%w: no fields to update", ErrBadPayload)
	}

	taskID, err := uuid.Parse(p.TaskID)
	if err != nil {
		return fmt.Errorf("%w: %q is not a valid ID", ErrBadPayload, p.TaskID)
	}

	task, err := d.tasks.Update(ctx, taskID, patch)
	if err != nil {
		if store.IsNotFoundError(err) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to update task: %w", err)
	}

	scopes := []string{TaskScope(p.TaskID)}
	for _, assignee := range task.AssignedTo {
		scopes = append(scopes, UserScope(assignee.String()))
	}
	if err := d.rooms.EmitMulti(scopes, EventTaskUpdated, TaskEventPayload{
		Task:    task,
		Message: "Task has been updated",
	}); err != nil {
		log.Warn("failed to emit update", slog.String("error", err.Error()))
	}

	for _, assignee := range task.AssignedTo {
		if _, err := d.notifier.TaskUpdated(ctx, assignee, task, sess.Identity.DisplayName); err != nil {
			log.Error("failed to notify assignee of update",
				slog.String("task_id", task.ID.String()),
				slog.String("assignee_id", assignee.String()),
				slog.String("error", err.Error()))
		}
	}

	return nil
}

func (d *Dispatcher) handleDeleteTask(ctx context.Context, sess *Session, data json.RawMessage) error {
	log := logger.FromContextOrDefault(ctx, d.logger)

	var p DeleteTaskPayload
	if err := d.decode(data, &p); err != nil {
		return err
	}

	taskID, err := uuid.Parse(p.TaskID)
	if err != nil {
		return fmt.Errorf("%w: %q is not a valid ID", ErrBadPayload, p.TaskID)
	}
	task, err := d.tasks.GetByID(ctx, taskID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to load task %s: %w", taskID, err)
	}

	if sess.Identity.Role != domain.RoleAdmin && task.CreatedBy != sess.Identity.UserID {
		return ErrForbiddenTaskDelete
	}

	// Acknowledge to the room before the delete lands; a storage failure is
	// reported as a follow-up error to the actor.
	if err := d.rooms.EmitMulti(
		[]string{TaskScope(p.TaskID), UserScope(sess.Identity.UserID.String())},
		EventTaskDeleted,
		TaskDeletedPayload{TaskID: p.TaskID, Message: "Task has been deleted"},
	); err != nil {
		log.Warn("failed to emit deletion", slog.String("error", err.Error()))
	}

	if err := d.tasks.Delete(ctx, taskID); err != nil {
		if store.IsNotFoundError(err) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}

	for _, assignee := range task.AssignedTo {
		if _, err := d.notifier.TaskDeleted(ctx, assignee, task.Title, sess.Identity.DisplayName); err != nil {
			log.Error("failed to notify assignee of deletion",
				slog.String("assignee_id", assignee.String()),
				slog.String("error", err.Error()))
		}
	}

	return nil
}

func (d *Dispatcher) handleUserMessage(ctx context.Context, sess *Session, data json.RawMessage) error {
	var p UserMessagePayload
	if err := d.decode(data, &p); err != nil {
		return err
	}

	receiverID, err := uuid.Parse(p.ReceiverID)
	if err != nil {
		return fmt.Errorf("%w: %q is not a valid ID", ErrBadPayload, p.ReceiverID)
	}
	taskID, err := uuid.Parse(p.TaskID)
	if err != nil {
		return fmt.Errorf("%w: %q is not a valid ID", ErrBadPayload, p.TaskID)
	}

	task, err := d.tasks.GetByID(ctx, taskID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to load task %s: %w", taskID, err)
	}

	actor := sess.Identity.UserID
	isAdmin := sess.Identity.Role == domain.RoleAdmin
	shareTask := task.IsAssigned(actor) &&
		(task.IsAssigned(receiverID) || task.CreatedBy == receiverID)
	managerOwns := sess.Identity.Role == domain.RoleManager &&
		task.CreatedBy == actor && task.IsAssigned(receiverID)

	if !isAdmin && !shareTask && !managerOwns {
		return ErrForbiddenDirectMessage
	}

	return d.rooms.Emit(UserScope(p.ReceiverID), EventDirectMessage, DirectMessagePayload{
		Sender:  fmt.Sprintf("%s_%s", sess.Identity.Role, sess.Identity.DisplayName),
		TaskID:  p.TaskID,
		Message: p.Message,
	})
}

func (d *Dispatcher) handleUpdateActivity(ctx context.Context, sess *Session, data json.RawMessage) error {
	var p UpdateActivityPayload
	if err := d.decode(data, &p); err != nil {
		return err
	}

	userID := sess.Identity.UserID.String()
	activity, ok := d.presence.UpdateActivity(userID, p.Type, p.TaskID)
	if !ok {
		return nil
	}

	if p.TaskID == "" {
		return nil
	}
	return d.rooms.EmitExcept(TaskScope(p.TaskID), sess.ID(), EventActivityUpdate, ActivityUpdatePayload{
		UserID:    userID,
		Type:      activity.Type,
		TaskID:    activity.TaskID,
		Timestamp: activity.Timestamp,
	})
}

func (d *Dispatcher) handleGetOnlineUsers(ctx context.Context, sess *Session) error {
	return sendTo(sess, EventOnlineUsers, OnlineUsersPayload{
		Users: d.presence.OnlineUsers(),
	})
}

func (d *Dispatcher) handleCheckUserStatus(ctx context.Context, sess *Session, data json.RawMessage) error {
	var p CheckUserStatusPayload
	if err := d.decode(data, &p); err != nil {
		return err
	}

	var activity *Activity
	if a, ok := d.presence.Activity(p.UserID); ok {
		activity = &a
	}
	return sendTo(sess, EventUserStatus, UserStatusPayload{
		UserID:   p.UserID,
		IsOnline: d.presence.IsOnline(p.UserID),
		Activity: activity,
	})
}

func (d *Dispatcher) handleGetNotifications(ctx context.Context, sess *Session) error {
	notifications, err := d.notifications.FindByUser(ctx, sess.Identity.UserID, 0)
	if err != nil {
		return fmt.Errorf("failed to load notifications: %w", err)
	}
	return sendTo(sess, EventNotifications, NotificationsPayload{
		Success:       true,
		Notifications: notifications,
	})
}

func (d *Dispatcher) handleMarkAsRead(ctx context.Context, sess *Session, data json.RawMessage) error {
	var p MarkAsReadPayload
	if err := d.decode(data, &p); err != nil {
		return err
	}

	ids, err := parseUUIDs(p.NotificationIDs)
	if err != nil {
		return err
	}
	if err := d.notifications.MarkRead(ctx, ids, sess.Identity.UserID); err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

// parseUUIDs converts validated ID strings. Inputs reach this point already
// checked by the uuid validation tag, so a parse failure is still a payload
// error rather than a panic.
func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a valid ID", ErrBadPayload, s)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
