package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive/internal/domain"
)

// TaskPatch describes a partial update to a task. Nil fields are left
// unchanged. AssignedTo, when non-nil, replaces the whole assignee set.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *domain.TaskStatus
	Priority    *domain.TaskPriority
	DueDate     *time.Time
	AssignedTo  *[]uuid.UUID
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil &&
		p.Priority == nil && p.DueDate == nil && p.AssignedTo == nil
}

// TaskStore defines the interface for task data persistence.
//
// Callers must not cache records across calls: the store is the single source
// of truth and records may change between a read and a subsequent write.
type TaskStore interface {
	// Create saves a new task to the store.
	// Returns validation errors from the domain Task if data is invalid.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID, including its assignee set.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// Update applies the patch to the task atomically and returns the updated
	// record. Returns ErrTaskNotFound if the update affected no records.
	Update(ctx context.Context, id uuid.UUID, patch TaskPatch) (*domain.Task, error)

	// Delete removes a task from the store by its ID.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// ListByUser retrieves tasks the user created or is assigned to,
	// most recently updated first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)
}
