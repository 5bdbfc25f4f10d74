package util

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Deduper provides at-most-once guards over redis SETNX. It fails open:
// when redis is unavailable the event is allowed through, since a missed
// dedup is cheaper than a dropped occurrence.
type Deduper struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewDeduper(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *Deduper {
	return &Deduper{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger,
	}
}

// AcquireOnce tries to claim the given scope+key pair. It returns true
// the first time and false for duplicates within the TTL.
func (d *Deduper) AcquireOnce(ctx context.Context, scope, key string) bool {
	if d == nil || d.rdb == nil {
		return true
	}

	dedupKey := fmt.Sprintf("dedup:%s:%s", scope, key)

	ok, err := d.rdb.SetNX(ctx, dedupKey, 1, d.ttl).Result()
	if err != nil {
		if d.logger != nil {
			d.logger.Warn("Redis dedup check failed, allowing processing",
				zap.String("scope", scope),
				zap.String("key", key),
				zap.Error(err),
			)
		}
		return true
	}

	if !ok && d.logger != nil {
		d.logger.Info("Skipped duplicated event",
			zap.String("scope", scope),
			zap.String("key", key),
			zap.String("dedup_key", dedupKey),
		)
	}

	return ok
}

// Release gives back a claim taken by AcquireOnce, used when the work
// behind the claim failed and should be allowed to run again.
func (d *Deduper) Release(ctx context.Context, scope, key string) {
	if d == nil || d.rdb == nil {
		return
	}
	if err := d.rdb.Del(ctx, fmt.Sprintf("dedup:%s:%s", scope, key)).Err(); err != nil && d.logger != nil {
		d.logger.Warn("Failed to release dedup claim",
			zap.String("scope", scope),
			zap.String("key", key),
			zap.Error(err),
		)
	}
}
