package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive/internal/realtime"
)

// stubPresence serves a canned snapshot.
type stubPresence struct {
	snapshot map[string]realtime.PresenceStatus
}

func (s *stubPresence) SnapshotAll() map[string]realtime.PresenceStatus {
	return s.snapshot
}

func TestGetPresence(t *testing.T) {
	t.Parallel()

	onlineID := uuid.NewString()
	handler := NewPresenceHandler(&stubPresence{snapshot: map[string]realtime.PresenceStatus{
		onlineID: {
			Online:          true,
			ConnectionCount: 2,
			Activity: &realtime.Activity{
				Type:      "editing",
				TaskID:    uuid.NewString(),
				Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			},
		},
	}})

	w := httptest.NewRecorder()
	handler.GetPresence(w, authedRequest(t, "/api/presence", uuid.New()))
	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]realtime.PresenceStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Contains(t, got, onlineID)
	assert.True(t, got[onlineID].Online)
	assert.Equal(t, 2, got[onlineID].ConnectionCount)
	require.NotNil(t, got[onlineID].Activity)
	assert.Equal(t, "editing", got[onlineID].Activity.Type)
}

func TestGetPresenceUnauthenticated(t *testing.T) {
	t.Parallel()

	handler := NewPresenceHandler(&stubPresence{})
	w := httptest.NewRecorder()
	handler.GetPresence(w, httptest.NewRequest(http.MethodGet, "/api/presence", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
