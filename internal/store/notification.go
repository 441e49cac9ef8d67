package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive/internal/domain"
)

// NotificationStore defines the interface for notification persistence.
type NotificationStore interface {
	// Create saves a new notification to the store.
	// Returns validation errors from the domain Notification if data is invalid.
	Create(ctx context.Context, notification *domain.Notification) error

	// FindByUser retrieves the user's notifications, newest first, up to
	// limit records. A limit <= 0 uses a sensible default.
	FindByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Notification, error)

	// MarkRead flags the given notifications as read. Only records owned by
	// userID are touched; foreign or unknown IDs are silently skipped so a
	// caller cannot probe for other users' notifications.
	MarkRead(ctx context.Context, ids []uuid.UUID, userID uuid.UUID) error
}
