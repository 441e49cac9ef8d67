package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNotification(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	taskID := uuid.New()
	n, err := NewNotification(userID, NotificationTaskAssigned, "New Task Assignment",
		"mia assigned you to task: Ship it", map[string]any{"taskId": taskID.String()}, &taskID)
	require.NoError(t, err)

	assert.Equal(t, userID, n.UserID)
	assert.False(t, n.Read, "notifications start unread")
	assert.Equal(t, &taskID, n.RelatedTask)
}

func TestNewNotificationValidation(t *testing.T) {
	t.Parallel()

	_, err := NewNotification(uuid.Nil, NotificationSystem, "title", "msg", nil, nil)
	assert.ErrorIs(t, err, ErrEmptyNotificationUser)

	_, err = NewNotification(uuid.New(), "spam", "title", "msg", nil, nil)
	assert.ErrorIs(t, err, ErrInvalidNotificationType)

	_, err = NewNotification(uuid.New(), NotificationSystem, "", "msg", nil, nil)
	assert.ErrorIs(t, err, ErrEmptyNotificationTitle)
}
