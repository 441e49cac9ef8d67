package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive/internal/api/shared"
	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/store"
)

// memoryTaskStore serves canned tasks for the read endpoints.
type memoryTaskStore struct {
	tasks map[uuid.UUID]*domain.Task
}

var _ store.TaskStore = (*memoryTaskStore)(nil)

func newMemoryTaskStore() *memoryTaskStore {
	return &memoryTaskStore{tasks: make(map[uuid.UUID]*domain.Task)}
}

func (s *memoryTaskStore) Create(ctx context.Context, task *domain.Task) error {
	s.tasks[task.ID] = task
	return nil
}

func (s *memoryTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	task, ok := s.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	return task, nil
}

func (s *memoryTaskStore) Update(ctx context.Context, id uuid.UUID, patch store.TaskPatch) (*domain.Task, error) {
	return nil, store.ErrTaskNotFound
}

func (s *memoryTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	return store.ErrTaskNotFound
}

func (s *memoryTaskStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	var tasks []*domain.Task
	for _, task := range s.tasks {
		if task.CreatedBy == userID || task.IsAssigned(userID) {
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

// authedRequest builds a GET request carrying the user ID the way the auth
// middleware would.
func authedRequest(t *testing.T, target string, userID uuid.UUID) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, target, nil)
	ctx := context.WithValue(r.Context(), shared.UserIDContextKey, userID)
	return r.WithContext(ctx)
}

func TestListTasks(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	tasks := newMemoryTaskStore()

	mine, err := domain.NewTask("Mine", "Created by me", "", "", nil, userID, nil)
	require.NoError(t, err)
	require.NoError(t, tasks.Create(context.Background(), mine))

	assigned, err := domain.NewTask("Assigned", "Assigned to me", "", "", nil, uuid.New(), []uuid.UUID{userID})
	require.NoError(t, err)
	require.NoError(t, tasks.Create(context.Background(), assigned))

	foreign, err := domain.NewTask("Foreign", "Someone else's", "", "", nil, uuid.New(), nil)
	require.NoError(t, err)
	require.NoError(t, tasks.Create(context.Background(), foreign))

	handler := NewTaskHandler(tasks)
	w := httptest.NewRecorder()
	handler.ListTasks(w, authedRequest(t, "/api/tasks", userID))

	require.Equal(t, http.StatusOK, w.Code)

	var listed []*domain.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 2)
	for _, task := range listed {
		assert.NotEqual(t, "Foreign", task.Title)
	}
}

func TestListTasksUnauthenticated(t *testing.T) {
	t.Parallel()

	handler := NewTaskHandler(newMemoryTaskStore())
	w := httptest.NewRecorder()
	handler.ListTasks(w, httptest.NewRequest(http.MethodGet, "/api/tasks", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetTask(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	tasks := newMemoryTaskStore()
	task, err := domain.NewTask("Mine", "Created by me", "", "", nil, userID, nil)
	require.NoError(t, err)
	require.NoError(t, tasks.Create(context.Background(), task))

	handler := NewTaskHandler(tasks)

	r := authedRequest(t, "/api/tasks/"+task.ID.String(), userID)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", task.ID.String())
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))

	w := httptest.NewRecorder()
	handler.GetTask(w, r)
	require.Equal(t, http.StatusOK, w.Code)

	var got domain.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, task.ID, got.ID)
}

func TestGetTaskNotFound(t *testing.T) {
	t.Parallel()

	handler := NewTaskHandler(newMemoryTaskStore())

	r := authedRequest(t, "/api/tasks/"+uuid.NewString(), uuid.New())
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", uuid.NewString())
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))

	w := httptest.NewRecorder()
	handler.GetTask(w, r)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetTaskInvalidID(t *testing.T) {
	t.Parallel()

	handler := NewTaskHandler(newMemoryTaskStore())

	r := authedRequest(t, "/api/tasks/not-a-uuid", uuid.New())
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "not-a-uuid")
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))

	w := httptest.NewRecorder()
	handler.GetTask(w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
