package realtime

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Client is the router's view of a connection. Connection implements it;
// tests substitute fakes.
type Client interface {
	// ID returns the connection's unique identifier.
	ID() string

	// Send queues a serialized frame for delivery. It must not block.
	Send(payload []byte) error
}

// Relay forwards emitted events to peer server instances. Publish must not
// block; implementations buffer or drop.
type Relay interface {
	Publish(scopes []string, event string, data json.RawMessage)
}

// Router maintains scope membership and fans events out to members.
//
// All emits are serialized under the router's lock, so two events emitted to
// the same scope are queued on every member's connection in the same order.
type Router struct {
	mu sync.Mutex

	clients     map[string]Client                 // connID -> client
	scopes      map[string]map[string]Client      // scope -> connID -> client
	memberships map[string]map[string]struct{}    // connID -> set of scopes

	relay  Relay
	logger *slog.Logger
}

// NewRouter creates an empty router.
func NewRouter(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		clients:     make(map[string]Client),
		scopes:      make(map[string]map[string]Client),
		memberships: make(map[string]map[string]struct{}),
		logger:      logger.With(slog.String("component", "realtime_router")),
	}
}

// SetRelay attaches a relay for cross-instance fanout. Call before serving
// traffic.
func (r *Router) SetRelay(relay Relay) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.relay = relay
}

// Attach registers a client with the router. A client must be attached
// before it can join scopes.
func (r *Router) Attach(c Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clients[c.ID()] = c
	r.memberships[c.ID()] = make(map[string]struct{})
}

// Detach removes a client from the router and from every scope it joined.
// Scopes left empty are dropped. Detaching an unknown client is a no-op.
func (r *Router) Detach(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	scopes, ok := r.memberships[connID]
	if !ok {
		return
	}
	for scope := range scopes {
		r.removeFromScope(connID, scope)
	}
	delete(r.memberships, connID)
	delete(r.clients, connID)
}

// Join adds the client to a scope. Joining a scope the client is already in
// is a no-op. Returns an error for unattached clients.
func (r *Router) Join(connID, scope string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	client, ok := r.clients[connID]
	if !ok {
		return fmt.Errorf("%w: connection %s not attached", ErrConnectionClosed, connID)
	}

	members, ok := r.scopes[scope]
	if !ok {
		members = make(map[string]Client)
		r.scopes[scope] = members
	}
	members[connID] = client
	r.memberships[connID][scope] = struct{}{}
	return nil
}

// Leave removes the client from a scope. Leaving a scope the client never
// joined is a no-op.
func (r *Router) Leave(connID, scope string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.memberships[connID]; !ok {
		return
	}
	r.removeFromScope(connID, scope)
	delete(r.memberships[connID], scope)
}

// Contains reports whether the connection is currently a member of the scope.
func (r *Router) Contains(connID, scope string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.scopes[scope][connID]
	return ok
}

// Emit sends an event to every member of the scope and publishes it to the
// relay. Emitting to an unknown or empty scope delivers locally to nobody
// but still reaches the relay.
func (r *Router) Emit(scope, event string, data any) error {
	return r.emit([]string{scope}, event, data, "")
}

// EmitMulti sends an event to the union of members across the given scopes.
// A connection in several of the scopes receives the event once.
func (r *Router) EmitMulti(scopes []string, event string, data any) error {
	return r.emit(scopes, event, data, "")
}

// EmitExcept sends an event to every member of the scope except the named
// connection.
func (r *Router) EmitExcept(scope, exceptConnID, event string, data any) error {
	return r.emit([]string{scope}, event, data, exceptConnID)
}

func (r *Router) emit(scopes []string, event string, data any, except string) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", event, err)
	}
	frame, err := json.Marshal(Envelope{Event: event, Data: raw})
	if err != nil {
		return fmt.Errorf("failed to marshal %s envelope: %w", event, err)
	}

	r.mu.Lock()
	r.deliverLocked(scopes, event, frame, except)
	relay := r.relay
	r.mu.Unlock()

	if relay != nil {
		relay.Publish(scopes, event, raw)
	}
	return nil
}

// DeliverLocal delivers an already-encoded event to local scope members
// without republishing to the relay. The backplane uses it for frames
// received from peer instances.
func (r *Router) DeliverLocal(scopes []string, event string, data json.RawMessage) {
	frame, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		r.logger.Error("failed to encode relayed envelope",
			slog.String("event", event),
			slog.String("error", err.Error()))
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliverLocked(scopes, event, frame, "")
}

// deliverLocked writes the frame to the union of scope members. Callers must
// hold r.mu.
func (r *Router) deliverLocked(scopes []string, event string, frame []byte, except string) {
	delivered := make(map[string]struct{})
	for _, scope := range scopes {
		for connID, client := range r.scopes[scope] {
			if connID == except {
				continue
			}
			if _, seen := delivered[connID]; seen {
				continue
			}
			delivered[connID] = struct{}{}

			if err := client.Send(frame); err != nil {
				r.logger.Warn("failed to deliver event",
					slog.String("event", event),
					slog.String("connection_id", connID),
					slog.String("error", err.Error()))
			}
		}
	}
}

// removeFromScope drops the connection from a scope's member set and prunes
// the scope when it empties. Callers must hold r.mu.
func (r *Router) removeFromScope(connID, scope string) {
	members, ok := r.scopes[scope]
	if !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(r.scopes, scope)
	}
}
