package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/platform/logger"
	"github.com/taskhive/taskhive/internal/store"
)

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
//
// Assignees live in a separate task_assignees table; operations that touch
// both tables run inside a transaction.
type PostgresTaskStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the
// TaskStore interface. It accepts a database connection that should be
// initialized and managed by the caller.
func NewPostgresTaskStore(db *sql.DB, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// Create implements store.TaskStore.Create
// It saves the task and its assignee set atomically.
// Returns store.ErrInvalidEntity if a referenced user does not exist.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		query := `
			INSERT INTO tasks (id, title, description, status, priority, due_date, created_by, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`
		_, err := tx.ExecContext(
			ctx,
			query,
			task.ID,
			task.Title,
			task.Description,
			string(task.Status),
			string(task.Priority),
			task.DueDate,
			task.CreatedBy,
			task.CreatedAt,
			task.UpdatedAt,
		)
		if err != nil {
			return err
		}

		return insertAssignees(ctx, tx, task.ID, task.AssignedTo)
	})

	if err != nil {
		if isForeignKeyViolation(err) {
			log.Warn("foreign key violation during task creation",
				slog.String("error", err.Error()),
				slog.String("task_id", task.ID.String()))
			return fmt.Errorf("%w: referenced user not found", store.ErrInvalidEntity)
		}
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	log.Info("task created successfully",
		slog.String("task_id", task.ID.String()),
		slog.String("created_by", task.CreatedBy.String()),
		slog.Int("assignee_count", len(task.AssignedTo)))
	return nil
}

// GetByID implements store.TaskStore.GetByID
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, title, description, status, priority, due_date, created_by, created_at, updated_at
		FROM tasks
		WHERE id = $1
	`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.String("task_id", id.String()))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task by ID",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, err
	}

	task.AssignedTo, err = s.loadAssignees(ctx, s.db, id)
	if err != nil {
		log.Error("failed to load task assignees",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, err
	}

	return task, nil
}

// Update implements store.TaskStore.Update
// It applies the patch atomically and returns the updated record.
// Returns store.ErrTaskNotFound if the update affected no records.
func (s *PostgresTaskStore) Update(
	ctx context.Context,
	id uuid.UUID,
	patch store.TaskPatch,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var updated *domain.Task
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		// Nullable parameters leave unpatched columns untouched.
		var status, priority *string
		if patch.Status != nil {
			v := string(*patch.Status)
			status = &v
		}
		if patch.Priority != nil {
			v := string(*patch.Priority)
			priority = &v
		}

		query := `
			UPDATE tasks
			SET title = COALESCE($1, title),
			    description = COALESCE($2, description),
			    status = COALESCE($3, status),
			    priority = COALESCE($4, priority),
			    due_date = COALESCE($5, due_date),
			    updated_at = $6
			WHERE id = $7
			RETURNING id, title, description, status, priority, due_date, created_by, created_at, updated_at
		`
		task, err := scanTask(tx.QueryRowContext(
			ctx,
			query,
			patch.Title,
			patch.Description,
			status,
			priority,
			patch.DueDate,
			time.Now().UTC(),
			id,
		))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return store.ErrTaskNotFound
			}
			return err
		}

		if patch.AssignedTo != nil {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM task_assignees WHERE task_id = $1`, id); err != nil {
				return err
			}
			if err := insertAssignees(ctx, tx, id, *patch.AssignedTo); err != nil {
				return err
			}
		}

		task.AssignedTo, err = s.loadAssignees(ctx, tx, id)
		if err != nil {
			return err
		}

		updated = task
		return nil
	})

	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			log.Debug("task not found for update", slog.String("task_id", id.String()))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, err
	}

	log.Info("task updated successfully", slog.String("task_id", id.String()))
	return updated, nil
}

// Delete implements store.TaskStore.Delete
// Returns store.ErrTaskNotFound if the task does not exist.
// Assignee rows are removed by the ON DELETE CASCADE constraint.
func (s *PostgresTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return err
	}

	if rowsAffected == 0 {
		log.Debug("task not found for delete", slog.String("task_id", id.String()))
		return store.ErrTaskNotFound
	}

	log.Info("task deleted successfully", slog.String("task_id", id.String()))
	return nil
}

// ListByUser implements store.TaskStore.ListByUser
// It retrieves tasks the user created or is assigned to, most recently
// updated first.
func (s *PostgresTaskStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT DISTINCT t.id, t.title, t.description, t.status, t.priority, t.due_date,
		       t.created_by, t.created_at, t.updated_at
		FROM tasks t
		LEFT JOIN task_assignees a ON a.task_id = t.id
		WHERE t.created_by = $1 OR a.user_id = $1
		ORDER BY t.updated_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to query tasks by user",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	tasks := []*domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row", slog.String("error", err.Error()))
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	for _, task := range tasks {
		task.AssignedTo, err = s.loadAssignees(ctx, s.db, task.ID)
		if err != nil {
			log.Error("failed to load task assignees",
				slog.String("error", err.Error()),
				slog.String("task_id", task.ID.String()))
			return nil, err
		}
	}

	return tasks, nil
}

func (s *PostgresTaskStore) loadAssignees(
	ctx context.Context,
	db store.DBTX,
	taskID uuid.UUID,
) ([]uuid.UUID, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT user_id FROM task_assignees WHERE task_id = $1 ORDER BY user_id`, taskID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	assignees := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		assignees = append(assignees, id)
	}
	return assignees, rows.Err()
}

func insertAssignees(ctx context.Context, tx *sql.Tx, taskID uuid.UUID, assignees []uuid.UUID) error {
	for _, userID := range assignees {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO task_assignees (task_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			taskID, userID)
		if err != nil {
			return err
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	var status, priority string
	var dueDate sql.NullTime

	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&status,
		&priority,
		&dueDate,
		&task.CreatedBy,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Status = domain.TaskStatus(status)
	task.Priority = domain.TaskPriority(priority)
	if dueDate.Valid {
		t := dueDate.Time
		task.DueDate = &t
	}
	return &task, nil
}
