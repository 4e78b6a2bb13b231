package realtime

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// channelPattern matches every instance channel; the bridge subscribes
// once with a pattern instead of tracking channels individually.
const channelPattern = "session.events.*"

// bridgeFrame is the wire form of an event on Redis.  Origin carries a
// per-process token so a process can skip the echo of its own
// publishes; local subscribers already received those directly.
type bridgeFrame struct {
	Origin     string    `json:"origin"`
	Kind       EventKind `json:"kind"`
	InstanceID uint64    `json:"instance_id"`
}

// Bridge connects the in-process registry to Redis pub/sub so that
// every server process fans out every event, whichever process handled
// the mutating request.  Delivery remains at-least-once; duplicates
// are acceptable because subscribers re-fetch state rather than apply
// payloads.
type Bridge struct {
	registry *Registry
	rdb      *redis.Client
	origin   string
}

// NewBridge wraps a registry with a Redis relay.  The returned bridge
// satisfies the same Publish contract as the registry itself, so
// services can be wired against either depending on whether Redis is
// available.
func NewBridge(registry *Registry, rdb *redis.Client) *Bridge {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return &Bridge{
		registry: registry,
		rdb:      rdb,
		origin:   hex.EncodeToString(buf),
	}
}

// Publish delivers the event to local subscribers immediately and
// relays it through Redis for the other processes.  A Redis failure is
// logged and swallowed: fan-out problems never propagate to the
// mutating request.
func (b *Bridge) Publish(ctx context.Context, e Event) {
	b.registry.Publish(ctx, e)

	frame := bridgeFrame{Origin: b.origin, Kind: e.Kind, InstanceID: e.InstanceID}
	body, err := json.Marshal(frame)
	if err != nil {
		log.Printf("realtime-bridge: marshal event failed: %v", err)
		return
	}
	if err := b.rdb.Publish(ctx, ChannelName(e.InstanceID), body).Err(); err != nil {
		log.Printf("realtime-bridge: publish to %s failed: %v", ChannelName(e.InstanceID), err)
	}
}

// Run consumes the Redis side of the relay until ctx is cancelled,
// re-subscribing with a short backoff when the connection drops.
// Frames originating from this process are skipped.
func (b *Bridge) Run(ctx context.Context) {
	for {
		if err := b.consume(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("realtime-bridge: subscription ended: %v; reconnecting", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(2 * time.Second):
		}
	}
}

func (b *Bridge) consume(ctx context.Context) error {
	pubsub := b.rdb.PSubscribe(ctx, channelPattern)
	defer func() { _ = pubsub.Close() }()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return context.Canceled
			}
			var frame bridgeFrame
			if err := json.Unmarshal([]byte(msg.Payload), &frame); err != nil {
				log.Printf("realtime-bridge: bad frame on %s: %v", msg.Channel, err)
				continue
			}
			if frame.Origin == b.origin {
				continue
			}
			if !strings.HasPrefix(msg.Channel, "session.events.") {
				continue
			}
			b.registry.Publish(ctx, Event{Kind: frame.Kind, InstanceID: frame.InstanceID})
		}
	}
}
