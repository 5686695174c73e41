package redirectcache

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the Redis pub/sub channel invalidations travel on.
const DefaultChannel = "domainforge:redirectcache:invalidate"

type invalidation struct {
	Kind         string `json:"kind"` // "domain" or "subdomain"
	CustomDomain string `json:"custom_domain,omitempty"`
	Subdomain    string `json:"subdomain,omitempty"`
	Origin       string `json:"origin"`
}

// Broadcaster fans cache invalidations out to every edge instance over a
// Redis channel and applies invalidations published by other instances to
// the local cache. Publish failures are logged, never surfaced: the local
// invalidation has already happened and remote staleness is bounded by
// the cache TTL anyway.
type Broadcaster struct {
	rdb     redis.UniversalClient
	cache   *Cache
	channel string
	id      string
	log     *slog.Logger
}

// NewBroadcaster wires a cache to a Redis client. The broadcaster does
// not own either; close them separately. A nil client disables the fan-out
// entirely: invalidations still apply locally and Listen returns at once,
// so single-instance deployments can use the same wiring.
func NewBroadcaster(rdb redis.UniversalClient, cache *Cache, opts ...BroadcastOption) *Broadcaster {
	b := &Broadcaster{
		rdb:     rdb,
		cache:   cache,
		channel: DefaultChannel,
		id:      uuid.NewString(),
		log:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// InvalidateDomain removes local entries for customDomain and broadcasts
// the invalidation. Returns the local removal count.
func (b *Broadcaster) InvalidateDomain(ctx context.Context, customDomain string) int {
	count := b.cache.InvalidateDomain(customDomain)
	b.publish(ctx, invalidation{Kind: "domain", CustomDomain: customDomain})
	return count
}

// InvalidateSubdomain removes the local entry for subdomain and
// broadcasts the invalidation. Returns whether a local entry existed.
func (b *Broadcaster) InvalidateSubdomain(ctx context.Context, subdomain string) bool {
	ok := b.cache.InvalidateSubdomain(subdomain)
	b.publish(ctx, invalidation{Kind: "subdomain", Subdomain: subdomain})
	return ok
}

// Listen applies invalidations published by other instances until ctx is
// done. Run it in its own goroutine; the returned error is ctx.Err() or a
// subscription failure.
func (b *Broadcaster) Listen(ctx context.Context) error {
	if b.rdb == nil {
		return nil
	}
	sub := b.rdb.Subscribe(ctx, b.channel)
	defer sub.Close()

	// Wait for the subscription to be confirmed so callers can rely on
	// ordering after Listen has started.
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.apply(ctx, msg.Payload)
		}
	}
}

func (b *Broadcaster) publish(ctx context.Context, inv invalidation) {
	if b.rdb == nil {
		return
	}
	inv.Origin = b.id
	payload, err := json.Marshal(inv)
	if err == nil {
		err = b.rdb.Publish(ctx, b.channel, payload).Err()
	}
	if err != nil {
		b.log.WarnContext(ctx, "invalidation broadcast failed",
			slog.String("kind", inv.Kind),
			slog.Any("error", err),
		)
	}
}

func (b *Broadcaster) apply(ctx context.Context, payload string) {
	var inv invalidation
	if err := json.Unmarshal([]byte(payload), &inv); err != nil {
		b.log.WarnContext(ctx, "malformed invalidation payload", slog.Any("error", err))
		return
	}
	if inv.Origin == b.id {
		return
	}

	switch inv.Kind {
	case "domain":
		removed := b.cache.InvalidateDomain(inv.CustomDomain)
		b.log.DebugContext(ctx, "applied remote domain invalidation",
			slog.String("custom_domain", inv.CustomDomain),
			slog.Int("removed", removed),
		)
	case "subdomain":
		b.cache.InvalidateSubdomain(inv.Subdomain)
		b.log.DebugContext(ctx, "applied remote subdomain invalidation",
			slog.String("subdomain", inv.Subdomain),
		)
	}
}

// BroadcastOption configures a Broadcaster.
type BroadcastOption func(*Broadcaster)

// WithChannel overrides the pub/sub channel name.
// Default: DefaultChannel.
func WithChannel(name string) BroadcastOption {
	return func(b *Broadcaster) {
		b.channel = name
	}
}

// WithBroadcastLogger attaches a logger for publish and apply
// diagnostics.
// Default: discard.
func WithBroadcastLogger(log *slog.Logger) BroadcastOption {
	return func(b *Broadcaster) {
		b.log = log
	}
}
