package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Task validation errors
var (
	ErrEmptyTaskTitle       = errors.New("task title cannot be empty")
	ErrTaskTitleTooLong     = errors.New("task title cannot exceed 100 characters")
	ErrEmptyTaskDescription = errors.New("task description cannot be empty")
	ErrDescriptionTooLong   = errors.New("task description cannot exceed 1000 characters")
	ErrDueDateInPast        = errors.New("due date must be in the future")
	ErrEmptyCreator         = errors.New("task creator cannot be empty")
)

// TaskStatus represents the lifecycle stage of a task.
type TaskStatus string

// Valid task statuses.
const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusDone       TaskStatus = "done"
)

// Valid reports whether the status is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

// TaskPriority represents how urgent a task is.
type TaskPriority string

// Valid task priorities.
const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// Valid reports whether the priority is one of the known priorities.
func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

// Task represents a unit of work tracked by the system. Assignment is a set
// of user IDs; the creator is recorded separately and is not implicitly
// assigned.
type Task struct {
	ID          uuid.UUID    `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	DueDate     *time.Time   `json:"dueDate,omitempty"`
	CreatedBy   uuid.UUID    `json:"createdBy"`
	AssignedTo  []uuid.UUID  `json:"assignedTo"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// NewTask creates a new Task owned by createdBy. Status defaults to todo and
// priority to medium when empty. Returns an error if validation fails.
func NewTask(
	title, description string,
	status TaskStatus,
	priority TaskPriority,
	dueDate *time.Time,
	createdBy uuid.UUID,
	assignedTo []uuid.UUID,
) (*Task, error) {
	if status == "" {
		status = TaskStatusTodo
	}
	if priority == "" {
		priority = TaskPriorityMedium
	}

	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		Status:      status,
		Priority:    priority,
		DueDate:     dueDate,
		CreatedBy:   createdBy,
		AssignedTo:  assignedTo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return fmt.Errorf("%w: task ID", ErrInvalidID)
	}
	if t.Title == "" {
		return ErrEmptyTaskTitle
	}
	if len(t.Title) > 100 {
		return ErrTaskTitleTooLong
	}
	if t.Description == "" {
		return ErrEmptyTaskDescription
	}
	if len(t.Description) > 1000 {
		return ErrDescriptionTooLong
	}
	if !t.Status.Valid() {
		return ErrInvalidTaskStatus
	}
	if !t.Priority.Valid() {
		return ErrInvalidTaskPriority
	}
	if t.DueDate != nil && !t.DueDate.After(time.Now()) {
		return ErrDueDateInPast
	}
	if t.CreatedBy == uuid.Nil {
		return ErrEmptyCreator
	}
	return nil
}

// IsAssigned reports whether the given user is in the task's assignee set.
func (t *Task) IsAssigned(userID uuid.UUID) bool {
	for _, id := range t.AssignedTo {
		if id == userID {
			return true
		}
	}
	return false
}
