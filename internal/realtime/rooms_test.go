package realtime

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient records every frame sent to it.
type fakeClient struct {
	id string

	mu     sync.Mutex
	frames [][]byte
	err    error
}

func newFakeClient(id string) *fakeClient {
	return &fakeClient{id: id}
}

func (c *fakeClient) ID() string { return c.id }

func (c *fakeClient) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.frames = append(c.frames, payload)
	return nil
}

// events decodes the envelopes received so far and returns their event names.
func (c *fakeClient) events(t *testing.T) []string {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, 0, len(c.frames))
	for _, frame := range c.frames {
		var envelope Envelope
		require.NoError(t, json.Unmarshal(frame, &envelope))
		names = append(names, envelope.Event)
	}
	return names
}

func (c *fakeClient) lastPayload(t *testing.T, into any) {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()

	require.NotEmpty(t, c.frames)
	var envelope Envelope
	require.NoError(t, json.Unmarshal(c.frames[len(c.frames)-1], &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, into))
}

func (c *fakeClient) frameCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

// fakeRelay captures published frames.
type fakeRelay struct {
	mu        sync.Mutex
	published []frame
}

func (r *fakeRelay) Publish(scopes []string, event string, data json.RawMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.published = append(r.published, frame{Scopes: scopes, Event: event, Data: data})
}

func TestRouterJoinAndEmit(t *testing.T) {
	t.Parallel()

	router := NewRouter(nil)
	alice := newFakeClient("conn-a")
	bob := newFakeClient("conn-b")

	router.Attach(alice)
	router.Attach(bob)
	require.NoError(t, router.Join(alice.ID(), "task_1"))
	require.NoError(t, router.Join(bob.ID(), "task_1"))

	require.NoError(t, router.Emit("task_1", "hello", map[string]string{"m": "hi"}))

	assert.Equal(t, []string{"hello"}, alice.events(t))
	assert.Equal(t, []string{"hello"}, bob.events(t))
}

func TestRouterJoinIdempotent(t *testing.T) {
	t.Parallel()

	router := NewRouter(nil)
	alice := newFakeClient("conn-a")
	router.Attach(alice)

	require.NoError(t, router.Join(alice.ID(), "task_1"))
	require.NoError(t, router.Join(alice.ID(), "task_1"))

	require.NoError(t, router.Emit("task_1", "ping", nil))
	assert.Equal(t, 1, alice.frameCount(), "double join must not double delivery")
}

func TestRouterJoinUnattached(t *testing.T) {
	t.Parallel()

	router := NewRouter(nil)
	err := router.Join("conn-ghost", "task_1")
	assert.ErrorIs(t, err, ErrConnectionClosed)
}

func TestRouterLeave(t *testing.T) {
	t.Parallel()

	router := NewRouter(nil)
	alice := newFakeClient("conn-a")
	router.Attach(alice)
	require.NoError(t, router.Join(alice.ID(), "task_1"))

	router.Leave(alice.ID(), "task_1")
	router.Leave(alice.ID(), "task_1") // second leave is a no-op
	router.Leave(alice.ID(), "never_joined")

	require.NoError(t, router.Emit("task_1", "ping", nil))
	assert.Zero(t, alice.frameCount())
}

func TestRouterEmitEmptyScope(t *testing.T) {
	t.Parallel()

	router := NewRouter(nil)
	assert.NoError(t, router.Emit("task_nobody", "ping", nil))
}

func TestRouterEmitMultiDeduplicates(t *testing.T) {
	t.Parallel()

	router := NewRouter(nil)
	alice := newFakeClient("conn-a")
	router.Attach(alice)
	require.NoError(t, router.Join(alice.ID(), "task_1"))
	require.NoError(t, router.Join(alice.ID(), "user_alice"))

	require.NoError(t, router.EmitMulti([]string{"task_1", "user_alice"}, "ping", nil))
	assert.Equal(t, 1, alice.frameCount(), "member of both scopes receives once")
}

func TestRouterEmitExcept(t *testing.T) {
	t.Parallel()

	router := NewRouter(nil)
	alice := newFakeClient("conn-a")
	bob := newFakeClient("conn-b")
	router.Attach(alice)
	router.Attach(bob)
	require.NoError(t, router.Join(alice.ID(), "task_1"))
	require.NoError(t, router.Join(bob.ID(), "task_1"))

	require.NoError(t, router.EmitExcept("task_1", alice.ID(), "ping", nil))

	assert.Zero(t, alice.frameCount())
	assert.Equal(t, 1, bob.frameCount())
}

func TestRouterDetachCleansScopes(t *testing.T) {
	t.Parallel()

	router := NewRouter(nil)
	alice := newFakeClient("conn-a")
	router.Attach(alice)
	require.NoError(t, router.Join(alice.ID(), "task_1"))
	require.NoError(t, router.Join(alice.ID(), "user_alice"))

	router.Detach(alice.ID())
	router.Detach(alice.ID()) // idempotent

	assert.False(t, router.Contains(alice.ID(), "task_1"))
	require.NoError(t, router.Emit("task_1", "ping", nil))
	assert.Zero(t, alice.frameCount())

	// A detached connection cannot rejoin without attaching again.
	assert.ErrorIs(t, router.Join(alice.ID(), "task_1"), ErrConnectionClosed)
}

func TestRouterEmitOrderPerScope(t *testing.T) {
	t.Parallel()

	router := NewRouter(nil)
	alice := newFakeClient("conn-a")
	router.Attach(alice)
	require.NoError(t, router.Join(alice.ID(), "task_1"))

	require.NoError(t, router.Emit("task_1", "first", nil))
	require.NoError(t, router.Emit("task_1", "second", nil))
	require.NoError(t, router.Emit("task_1", "third", nil))

	assert.Equal(t, []string{"first", "second", "third"}, alice.events(t))
}

func TestRouterRelayReceivesEmits(t *testing.T) {
	t.Parallel()

	router := NewRouter(nil)
	relay := &fakeRelay{}
	router.SetRelay(relay)

	require.NoError(t, router.Emit("task_1", "ping", map[string]string{"m": "hi"}))

	relay.mu.Lock()
	defer relay.mu.Unlock()
	require.Len(t, relay.published, 1)
	assert.Equal(t, "ping", relay.published[0].Event)
	assert.Equal(t, []string{"task_1"}, relay.published[0].Scopes)
}

func TestRouterDeliverLocalSkipsRelay(t *testing.T) {
	t.Parallel()

	router := NewRouter(nil)
	relay := &fakeRelay{}
	router.SetRelay(relay)

	alice := newFakeClient("conn-a")
	router.Attach(alice)
	require.NoError(t, router.Join(alice.ID(), "task_1"))

	router.DeliverLocal([]string{"task_1"}, "ping", json.RawMessage(`{"m":"hi"}`))

	assert.Equal(t, 1, alice.frameCount())
	relay.mu.Lock()
	defer relay.mu.Unlock()
	assert.Empty(t, relay.published, "relayed frames must not be republished")
}

func TestRoutersAreIsolatedWithoutRelay(t *testing.T) {
	t.Parallel()

	routerA := NewRouter(nil)
	routerB := NewRouter(nil)

	alice := newFakeClient("conn-a")
	bob := newFakeClient("conn-b")
	routerA.Attach(alice)
	routerB.Attach(bob)
	require.NoError(t, routerA.Join(alice.ID(), "task_1"))
	require.NoError(t, routerB.Join(bob.ID(), "task_1"))

	require.NoError(t, routerA.Emit("task_1", "ping", nil))

	assert.Equal(t, 1, alice.frameCount())
	assert.Zero(t, bob.frameCount(), "no relay means no cross-instance delivery")
}
