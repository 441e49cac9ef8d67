package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/taskhive/taskhive/internal/api/shared"
	"github.com/taskhive/taskhive/internal/redact"
	"github.com/taskhive/taskhive/internal/store"
)

// NotificationHandler serves read access to the authenticated user's
// notifications. Marking notifications read happens over the websocket
// channel.
type NotificationHandler struct {
	notificationStore store.NotificationStore
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notificationStore store.NotificationStore) *NotificationHandler {
	return &NotificationHandler{
		notificationStore: notificationStore,
	}
}

// ListNotifications handles GET /notifications, newest first. An optional
// limit query parameter caps the result; the store applies its default
// otherwise.
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
	}

	notifications, err := h.notificationStore.FindByUser(r.Context(), userID, limit)
	if err != nil {
		slog.Error("failed to list notifications", "error", redact.Error(err), "user_id", userID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to list notifications")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, notifications)
}
