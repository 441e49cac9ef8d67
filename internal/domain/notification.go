package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Notification validation errors
var (
	ErrEmptyNotificationUser  = errors.New("notification recipient cannot be empty")
	ErrEmptyNotificationTitle = errors.New("notification title cannot be empty")
)

// NotificationType categorizes what a notification is about.
type NotificationType string

// Valid notification types.
const (
	NotificationTaskAssigned NotificationType = "task_assigned"
	NotificationTaskUpdated  NotificationType = "task_updated"
	NotificationMention      NotificationType = "mention"
	NotificationSystem       NotificationType = "system"
)

// Valid reports whether the type is one of the known notification types.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationTaskAssigned, NotificationTaskUpdated, NotificationMention, NotificationSystem:
		return true
	}
	return false
}

// Notification is a persisted message addressed to a single user, optionally
// tied to a task. The real-time layer pushes a copy to the recipient's
// personal scope when the record is created; the record itself is the source
// of truth for clients reconciling after a reconnect.
type Notification struct {
	ID          uuid.UUID        `json:"id"`
	UserID      uuid.UUID        `json:"userId"`
	Type        NotificationType `json:"type"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	Data        map[string]any   `json:"data,omitempty"`
	Read        bool             `json:"read"`
	RelatedTask *uuid.UUID       `json:"relatedTask,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// NewNotification creates an unread Notification for the given recipient.
// Returns an error if validation fails.
func NewNotification(
	userID uuid.UUID,
	typ NotificationType,
	title, message string,
	data map[string]any,
	relatedTask *uuid.UUID,
) (*Notification, error) {
	n := &Notification{
		ID:          uuid.New(),
		UserID:      userID,
		Type:        typ,
		Title:       title,
		Message:     message,
		Data:        data,
		Read:        false,
		RelatedTask: relatedTask,
		CreatedAt:   time.Now().UTC(),
	}

	if err := n.Validate(); err != nil {
		return nil, err
	}

	return n, nil
}

// Validate checks if the Notification has valid data.
func (n *Notification) Validate() error {
	if n.ID == uuid.Nil {
		return fmt.Errorf("%w: notification ID", ErrInvalidID)
	}
	if n.UserID == uuid.Nil {
		return ErrEmptyNotificationUser
	}
	if !n.Type.Valid() {
		return ErrInvalidNotificationType
	}
	if n.Title == "" {
		return ErrEmptyNotificationTitle
	}
	return nil
}
