package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/platform/logger"
	"github.com/taskhive/taskhive/internal/store"
)

// defaultNotificationLimit bounds FindByUser when the caller passes no limit.
const defaultNotificationLimit = 20

// PostgresNotificationStore implements the store.NotificationStore interface
// using a PostgreSQL database as the storage backend.
type PostgresNotificationStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresNotificationStore creates a new PostgreSQL implementation of the
// NotificationStore interface.
func NewPostgresNotificationStore(db store.DBTX, logger *slog.Logger) *PostgresNotificationStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresNotificationStore{
		db:     db,
		logger: logger.With(slog.String("component", "notification_store")),
	}
}

// Ensure PostgresNotificationStore implements store.NotificationStore interface
var _ store.NotificationStore = (*PostgresNotificationStore)(nil)

// Create implements store.NotificationStore.Create
// Returns store.ErrInvalidEntity if the recipient does not exist.
func (s *PostgresNotificationStore) Create(ctx context.Context, notification *domain.Notification) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := notification.Validate(); err != nil {
		log.Warn("notification validation failed during create",
			slog.String("error", err.Error()),
			slog.String("notification_id", notification.ID.String()))
		return err
	}

	var data []byte
	if notification.Data != nil {
		var err error
		data, err = json.Marshal(notification.Data)
		if err != nil {
			return fmt.Errorf("failed to marshal notification data: %w", err)
		}
	}

	var relatedTask uuid.NullUUID
	if notification.RelatedTask != nil {
		relatedTask = uuid.NullUUID{UUID: *notification.RelatedTask, Valid: true}
	}

	query := `
		INSERT INTO notifications (id, user_id, type, title, message, data, read, related_task, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		notification.ID,
		notification.UserID,
		string(notification.Type),
		notification.Title,
		notification.Message,
		data,
		notification.Read,
		relatedTask,
		notification.CreatedAt,
	)

	if err != nil {
		if isForeignKeyViolation(err) {
			log.Warn("foreign key violation during notification creation",
				slog.String("error", err.Error()),
				slog.String("user_id", notification.UserID.String()))
			return fmt.Errorf("%w: recipient not found", store.ErrInvalidEntity)
		}
		log.Error("failed to create notification",
			slog.String("error", err.Error()),
			slog.String("notification_id", notification.ID.String()))
		return err
	}

	log.Debug("notification created",
		slog.String("notification_id", notification.ID.String()),
		slog.String("user_id", notification.UserID.String()),
		slog.String("type", string(notification.Type)))
	return nil
}

// FindByUser implements store.NotificationStore.FindByUser
// It retrieves the user's notifications, newest first.
func (s *PostgresNotificationStore) FindByUser(
	ctx context.Context,
	userID uuid.UUID,
	limit int,
) ([]*domain.Notification, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = defaultNotificationLimit
	}

	query := `
		SELECT id, user_id, type, title, message, data, read, related_task, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		log.Error("failed to query notifications",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	notifications := []*domain.Notification{}
	for rows.Next() {
		var n domain.Notification
		var typ string
		var data []byte
		var relatedTask uuid.NullUUID

		err := rows.Scan(
			&n.ID,
			&n.UserID,
			&typ,
			&n.Title,
			&n.Message,
			&data,
			&n.Read,
			&relatedTask,
			&n.CreatedAt,
		)
		if err != nil {
			log.Error("failed to scan notification row", slog.String("error", err.Error()))
			return nil, err
		}

		n.Type = domain.NotificationType(typ)
		if relatedTask.Valid {
			id := relatedTask.UUID
			n.RelatedTask = &id
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &n.Data); err != nil {
				log.Error("failed to unmarshal notification data",
					slog.String("error", err.Error()),
					slog.String("notification_id", n.ID.String()))
				return nil, err
			}
		}

		notifications = append(notifications, &n)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	return notifications, nil
}

// MarkRead implements store.NotificationStore.MarkRead
// Updates are scoped to the owning user; IDs belonging to other users are
// silently skipped rather than reported, so existence cannot be probed.
func (s *PostgresNotificationStore) MarkRead(
	ctx context.Context,
	ids []uuid.UUID,
	userID uuid.UUID,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	for _, id := range ids {
		_, err := s.db.ExecContext(ctx,
			`UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`,
			id, userID)
		if err != nil {
			log.Error("failed to mark notification read",
				slog.String("error", err.Error()),
				slog.String("notification_id", id.String()),
				slog.String("user_id", userID.String()))
			return err
		}
	}

	return nil
}
