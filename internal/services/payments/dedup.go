package payments

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const dedupTTL = 24 * time.Hour

// EventDeduper short-circuits redelivered webhook events by remembering
// processed event ids in Redis. It is an optimization on top of the
// transactional status guards, not the correctness mechanism: with Redis
// unavailable every event is treated as unseen.
type EventDeduper struct {
	client *redis.Client
}

func NewEventDeduper(client *redis.Client) *EventDeduper {
	if client == nil {
		return nil
	}
	return &EventDeduper{client: client}
}

func dedupKey(eventID string) string {
	return "stripe:event:" + eventID
}

// Seen reports whether the event id was already processed. It never records
// anything; a failed handler must stay retryable, so the id is only written
// by MarkProcessed after the handler succeeds.
func (d *EventDeduper) Seen(ctx context.Context, eventID string) (bool, error) {
	n, err := d.client.Exists(ctx, dedupKey(eventID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkProcessed records a successfully handled event id.
func (d *EventDeduper) MarkProcessed(ctx context.Context, eventID string) error {
	return d.client.Set(ctx, dedupKey(eventID), 1, dedupTTL).Err()
}
