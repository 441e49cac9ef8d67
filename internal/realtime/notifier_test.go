package realtime

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive/internal/domain"
)

func TestNotifierPersistsAndPushes(t *testing.T) {
	t.Parallel()

	router := NewRouter(nil)
	notifications := &fakeNotificationStore{}
	notifier := NewNotifier(notifications, router, nil)

	userID := uuid.New()
	client := newFakeClient("conn-a")
	router.Attach(client)
	require.NoError(t, router.Join(client.ID(), UserScope(userID.String())))

	created, err := notifier.Notify(context.Background(), userID,
		domain.NotificationSystem, "Heads up", "something happened", nil, nil)
	require.NoError(t, err)

	assert.Len(t, notifications.createdFor(userID), 1)
	assert.Equal(t, []string{EventNewNotification}, client.events(t))

	var pushed domain.Notification
	client.lastPayload(t, &pushed)
	assert.Equal(t, created.ID, pushed.ID)
	assert.False(t, pushed.Read)
}

func TestNotifierOfflineRecipient(t *testing.T) {
	t.Parallel()

	router := NewRouter(nil)
	notifications := &fakeNotificationStore{}
	notifier := NewNotifier(notifications, router, nil)

	userID := uuid.New()
	_, err := notifier.Notify(context.Background(), userID,
		domain.NotificationSystem, "Heads up", "while you were away", nil, nil)
	require.NoError(t, err)

	// The record is the source of truth; no connection is fine.
	assert.Len(t, notifications.createdFor(userID), 1)
}

func TestNotifierStoreFailureSkipsPush(t *testing.T) {
	t.Parallel()

	router := NewRouter(nil)
	failing := &failingNotificationStore{err: errors.New("disk full")}
	notifier := NewNotifier(failing, router, nil)

	userID := uuid.New()
	client := newFakeClient("conn-a")
	router.Attach(client)
	require.NoError(t, router.Join(client.ID(), UserScope(userID.String())))

	_, err := notifier.Notify(context.Background(), userID,
		domain.NotificationSystem, "Heads up", "never stored", nil, nil)
	require.Error(t, err)
	assert.Zero(t, client.frameCount(), "unstored notifications must not be pushed")
}

func TestNotifierTaskAssigned(t *testing.T) {
	t.Parallel()

	router := NewRouter(nil)
	notifications := &fakeNotificationStore{}
	notifier := NewNotifier(notifications, router, nil)

	userID := uuid.New()
	task, err := domain.NewTask("Ship it", "Release the build",
		domain.TaskStatusTodo, domain.TaskPriorityHigh, nil, uuid.New(), nil)
	require.NoError(t, err)

	created, err := notifier.TaskAssigned(context.Background(), userID, task, "mia")
	require.NoError(t, err)
	assert.Equal(t, domain.NotificationTaskAssigned, created.Type)
	require.NotNil(t, created.RelatedTask)
	assert.Equal(t, task.ID, *created.RelatedTask)
	assert.Contains(t, created.Message, "mia")
}

// failingNotificationStore rejects every create.
type failingNotificationStore struct {
	fakeNotificationStore
	err error
}

func (s *failingNotificationStore) Create(ctx context.Context, n *domain.Notification) error {
	return s.err
}
