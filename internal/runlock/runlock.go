package runlock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"shopstream.app/sync/internal/model"
)

const keyPrefix = "shopstream:sync:lock:"

// Locker enforces single-flight sync runs per entity type across processes.
// The server's manual trigger and the worker's scheduled cycle both lock
// before running, so two runs for the same entity type can never overlap
// even on different hosts. The lock expires on its own after the TTL, which
// keeps a crashed holder from blocking syncs forever.
type Locker struct {
	client *redis.Client
	ttl    time.Duration
	// owner distinguishes this process in lock values, for debugging stuck
	// locks.
	owner string
}

func New(client *redis.Client, ttl time.Duration, owner string) *Locker {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Locker{client: client, ttl: ttl, owner: owner}
}

// Acquire takes the lock for one entity type. Returns false when another run
// holds it.
func (l *Locker) Acquire(ctx context.Context, entityType model.EntityType) (bool, error) {
	ok, err := l.client.SetNX(ctx, key(entityType), l.owner, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquiring run lock: %w", err)
	}
	return ok, nil
}

// Release drops the lock only if this process still holds it. A lock that
// expired and was retaken by another owner is left alone.
func (l *Locker) Release(ctx context.Context, entityType model.EntityType) {
	const script = `
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		end
		return 0`
	if err := l.client.Eval(ctx, script, []string{key(entityType)}, l.owner).Err(); err != nil {
		slog.WarnContext(ctx, "failed to release run lock",
			"error", err,
			"entity_type", entityType)
	}
}

func key(entityType model.EntityType) string {
	return keyPrefix + string(entityType)
}
