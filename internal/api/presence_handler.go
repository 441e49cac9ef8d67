package api

import (
	"net/http"

	"github.com/taskhive/taskhive/internal/api/shared"
	"github.com/taskhive/taskhive/internal/realtime"
)

// PresenceSource exposes the realtime presence state to the REST surface.
type PresenceSource interface {
	SnapshotAll() map[string]realtime.PresenceStatus
}

// PresenceHandler serves a read-only view of who is connected and what they
// last reported doing. Live presence changes flow over the websocket channel;
// this endpoint exists for one-shot queries and dashboards.
type PresenceHandler struct {
	presence PresenceSource
}

// NewPresenceHandler creates a new PresenceHandler with the given source.
func NewPresenceHandler(presence PresenceSource) *PresenceHandler {
	return &PresenceHandler{
		presence: presence,
	}
}

// GetPresence handles GET /presence, returning every online user's connection
// count and last reported activity keyed by user ID.
func (h *PresenceHandler) GetPresence(w http.ResponseWriter, r *http.Request) {
	if _, ok := getUserIDFromContext(r); !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, h.presence.SnapshotAll())
}
