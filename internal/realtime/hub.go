package realtime

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/taskhive/taskhive/internal/platform/logger"
)

// Hub owns the websocket endpoint. It authenticates handshakes, registers
// connections with the router and the presence registry, and runs each
// connection's read loop. Events from one connection are handled serially in
// arrival order; different connections proceed independently.
type Hub struct {
	upgrader   websocket.Upgrader
	verifier   *Verifier
	dispatcher *Dispatcher
	rooms      *Router
	presence   *Registry
	logger     *slog.Logger

	mu       sync.Mutex
	closing  bool
	sessions map[string]*Connection
}

// NewHub creates a Hub wired to the given collaborators.
func NewHub(
	verifier *Verifier,
	dispatcher *Dispatcher,
	rooms *Router,
	presence *Registry,
	logger *slog.Logger,
) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		verifier:   verifier,
		dispatcher: dispatcher,
		rooms:      rooms,
		presence:   presence,
		logger:     logger.With(slog.String("component", "realtime_hub")),
		sessions:   make(map[string]*Connection),
	}
}

// ServeHTTP handles the websocket handshake and runs the connection until
// the peer disappears or the hub shuts down.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	if h.isClosing() {
		http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
		return
	}

	identity, err := h.verifier.Authenticate(r.Context(), CredentialFromRequest(r))
	if err != nil {
		if IsAuthError(err) {
			log.Debug("handshake rejected", slog.String("error", err.Error()))
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		log.Error("handshake failed", slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	conn := NewConnection(identity.UserID.String(), ws)
	sess := &Session{Client: conn, Identity: identity}

	h.register(conn)
	h.rooms.Attach(conn)
	if err := h.rooms.Join(conn.ID(), UserScope(conn.UserID())); err != nil {
		log.Error("failed to join user scope", slog.String("error", err.Error()))
	}
	if err := h.rooms.Join(conn.ID(), RoleScope(string(identity.Role))); err != nil {
		log.Error("failed to join role scope", slog.String("error", err.Error()))
	}
	h.presence.Connect(conn.UserID(), conn.ID())
	conn.Start()

	log.Info("connection established",
		slog.String("connection_id", conn.ID()),
		slog.String("user_id", conn.UserID()),
		slog.String("role", string(identity.Role)))

	h.readLoop(sess, conn, ws)

	h.presence.Disconnect(conn.UserID(), conn.ID())
	h.rooms.Detach(conn.ID())
	h.unregister(conn.ID())
	conn.Close(websocket.CloseNormalClosure, "")

	log.Info("connection closed",
		slog.String("connection_id", conn.ID()),
		slog.String("user_id", conn.UserID()))
}

// readLoop reads frames until the connection dies. Dispatch runs on a
// context detached from the request so a disconnect mid-handler does not
// cancel in-flight persistence writes.
func (h *Hub) readLoop(sess *Session, conn *Connection, ws *websocket.Conn) {
	ws.SetReadLimit(maxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	ctx := logger.WithLogger(context.Background(), h.logger.With(
		slog.String("connection_id", conn.ID()),
		slog.String("user_id", sess.Identity.UserID.String()),
	))

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.FromContext(ctx).Debug("read failed", slog.String("error", err.Error()))
			}
			return
		}
		h.dispatcher.Dispatch(ctx, sess, raw)
	}
}

// Close rejects new handshakes and closes every live connection. Safe to
// call more than once.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closing {
		h.mu.Unlock()
		return
	}
	h.closing = true
	conns := make([]*Connection, 0, len(h.sessions))
	for _, conn := range h.sessions {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		conn.Close(websocket.CloseGoingAway, "server shutting down")
	}
}

func (h *Hub) isClosing() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closing
}

func (h *Hub) register(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[conn.ID()] = conn
}

func (h *Hub) unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, connID)
}

var _ http.Handler = (*Hub)(nil)
