package realtime

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/platform/logger"
	"github.com/taskhive/taskhive/internal/store"
)

// Notifier persists notifications and pushes them to the recipient's
// connections. Persistence comes first; a notification that cannot be
// stored is not delivered.
type Notifier struct {
	notifications store.NotificationStore
	rooms         *Router
	logger        *slog.Logger
}

// NewNotifier creates a notifier backed by the given store and router.
func NewNotifier(notifications store.NotificationStore, rooms *Router, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		notifications: notifications,
		rooms:         rooms,
		logger:        logger.With(slog.String("component", "notifier")),
	}
}

// Notify stores a notification for the user and emits it on the
// new_notification event to the user's scope. Offline users simply find it
// on their next get_notifications call.
func (n *Notifier) Notify(
	ctx context.Context,
	userID uuid.UUID,
	notificationType domain.NotificationType,
	title, message string,
	data map[string]any,
	relatedTask *uuid.UUID,
) (*domain.Notification, error) {
	log := logger.FromContextOrDefault(ctx, n.logger)

	notification, err := domain.NewNotification(userID, notificationType, title, message, data, relatedTask)
	if err != nil {
		return nil, err
	}

	if err := n.notifications.Create(ctx, notification); err != nil {
		log.Error("failed to persist notification",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("type", string(notificationType)))
		return nil, fmt.Errorf("failed to store notification: %w", err)
	}

	if err := n.rooms.Emit(UserScope(userID.String()), EventNewNotification, notification); err != nil {
		log.Warn("failed to push notification",
			slog.String("error", err.Error()),
			slog.String("notification_id", notification.ID.String()))
	}

	return notification, nil
}

// TaskAssigned notifies a user they were assigned to a task.
func (n *Notifier) TaskAssigned(ctx context.Context, userID uuid.UUID, task *domain.Task, assignedBy string) (*domain.Notification, error) {
	return n.Notify(ctx, userID,
		domain.NotificationTaskAssigned,
		"New Task Assignment",
		fmt.Sprintf("%s assigned you to task: %s", assignedBy, task.Title),
		map[string]any{"taskId": task.ID.String(), "assignedBy": assignedBy},
		&task.ID,
	)
}

// TaskUpdated notifies a user that a task they are assigned to changed.
func (n *Notifier) TaskUpdated(ctx context.Context, userID uuid.UUID, task *domain.Task, updatedBy string) (*domain.Notification, error) {
	return n.Notify(ctx, userID,
		domain.NotificationTaskUpdated,
		"Task Updated",
		fmt.Sprintf("%s updated task: %s", updatedBy, task.Title),
		map[string]any{"taskId": task.ID.String(), "updatedBy": updatedBy},
		&task.ID,
	)
}

// TaskDeleted notifies a user that a task they were assigned to was removed.
func (n *Notifier) TaskDeleted(ctx context.Context, userID uuid.UUID, taskTitle, deletedBy string) (*domain.Notification, error) {
	return n.Notify(ctx, userID,
		domain.NotificationSystem,
		"Task Deleted",
		fmt.Sprintf("%s deleted task: %s", deletedBy, taskTitle),
		map[string]any{"deletedBy": deletedBy},
		nil,
	)
}
