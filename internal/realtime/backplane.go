package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	backplaneChannel     = "taskhive:fanout"
	backplanePingTimeout = 5 * time.Second
	publishBufferSize    = 256
)

// frame is the wire format exchanged between instances over Redis pub/sub.
// Origin lets an instance skip frames it published itself, since Redis
// echoes publications back to all subscribers.
type frame struct {
	Origin string          `json:"origin"`
	Scopes []string        `json:"scopes"`
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Backplane relays router emits to peer instances through Redis pub/sub and
// feeds frames from peers back into the local router. Publication is
// best-effort: when the outbound buffer is full the frame is dropped and
// local delivery stands.
type Backplane struct {
	client *redis.Client
	router *Router
	origin string
	logger *slog.Logger

	outbound chan frame
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// Ensure Backplane implements Relay
var _ Relay = (*Backplane)(nil)

// NewBackplane connects to Redis, attaches itself as the router's relay and
// starts the publish and subscribe loops. A malformed URL is a configuration
// error; an unreachable broker is not — the backplane logs a warning and
// returns (nil, nil) so the instance serves local traffic only.
func NewBackplane(ctx context.Context, router *Router, redisURL string, logger *slog.Logger) (*Backplane, error) {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With(slog.String("component", "backplane"))

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, backplanePingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unreachable, event fanout is local-only",
			slog.String("error", err.Error()))
		_ = client.Close()
		return nil, nil
	}

	loopCtx, loopCancel := context.WithCancel(context.Background())
	bp := &Backplane{
		client:   client,
		router:   router,
		origin:   uuid.NewString(),
		logger:   log,
		outbound: make(chan frame, publishBufferSize),
		cancel:   loopCancel,
	}

	bp.wg.Add(2)
	go bp.publishLoop(loopCtx)
	go bp.subscribeLoop(loopCtx)

	router.SetRelay(bp)
	log.Info("backplane connected", slog.String("channel", backplaneChannel))
	return bp, nil
}

// Publish queues a frame for delivery to peer instances. It never blocks;
// when the buffer is full the frame is dropped with a warning.
func (bp *Backplane) Publish(scopes []string, event string, data json.RawMessage) {
	f := frame{
		Origin: bp.origin,
		Scopes: scopes,
		Event:  event,
		Data:   data,
	}
	select {
	case bp.outbound <- f:
	default:
		bp.logger.Warn("publish buffer full, dropping frame",
			slog.String("event", event))
	}
}

// Close stops both loops and releases the Redis client.
func (bp *Backplane) Close() error {
	bp.cancel()
	bp.wg.Wait()
	return bp.client.Close()
}

func (bp *Backplane) publishLoop(ctx context.Context) {
	defer bp.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case f := <-bp.outbound:
			payload, err := json.Marshal(f)
			if err != nil {
				bp.logger.Error("failed to encode frame",
					slog.String("event", f.Event),
					slog.String("error", err.Error()))
				continue
			}
			if err := bp.client.Publish(ctx, backplaneChannel, payload).Err(); err != nil {
				bp.logger.Warn("failed to publish frame",
					slog.String("event", f.Event),
					slog.String("error", err.Error()))
			}
		}
	}
}

func (bp *Backplane) subscribeLoop(ctx context.Context) {
	defer bp.wg.Done()

	pubsub := bp.client.Subscribe(ctx, backplaneChannel)
	defer func() {
		if err := pubsub.Close(); err != nil {
			bp.logger.Warn("failed to close subscription", slog.String("error", err.Error()))
		}
	}()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var f frame
			if err := json.Unmarshal([]byte(msg.Payload), &f); err != nil {
				bp.logger.Warn("discarding malformed frame",
					slog.String("error", err.Error()))
				continue
			}
			if f.Origin == bp.origin {
				continue
			}
			bp.router.DeliverLocal(f.Scopes, f.Event, f.Data)
		}
	}
}
