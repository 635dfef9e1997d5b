package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Loader recomputes the unread count from the message table.
type Loader func(ctx context.Context, conversationID, userID string) (int64, error)

// Unread is a cache-aside view of the per (conversation, user) unread count.
// The message table is the source of truth: writers invalidate, readers
// recompute on miss. Redis failures fall through to the loader.
//
// Every invalidation bumps a generation key. A recomputed count is stored only
// if the generation did not move while it was loading, so a count read before
// a concurrent send or read never outlives that write.
type Unread struct {
	rdb  *redis.Client
	load Loader
	ttl  time.Duration
	log  *slog.Logger
}

func NewUnread(rdb *redis.Client, load Loader, ttl time.Duration, log *slog.Logger) *Unread {
	return &Unread{rdb: rdb, load: load, ttl: ttl, log: log}
}

func unreadKey(conversationID, userID string) string {
	return fmt.Sprintf("unread:%s:%s", conversationID, userID)
}

func generationKey(conversationID, userID string) string {
	return unreadKey(conversationID, userID) + ":gen"
}

func (u *Unread) Get(ctx context.Context, conversationID, userID string) (int64, error) {
	key := unreadKey(conversationID, userID)

	raw, err := u.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		if n, convErr := strconv.ParseInt(raw, 10, 64); convErr == nil && n >= 0 {
			return n, nil
		}
		u.log.Warn("Dropping malformed unread entry", "key", key, "value", raw)
	case !errors.Is(err, redis.Nil):
		u.log.Warn("Unread cache read failed", "key", key, "error", err)
	}

	var (
		n       int64
		ran     bool
		loadErr error
	)
	err = u.rdb.Watch(ctx, func(tx *redis.Tx) error {
		ran = true
		if n, loadErr = u.load(ctx, conversationID, userID); loadErr != nil {
			return loadErr
		}
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, n, u.ttl)
			return nil
		})
		return err
	}, generationKey(conversationID, userID))

	switch {
	case !ran:
		u.log.Warn("Unread cache unavailable", "key", key, "error", err)
		return u.load(ctx, conversationID, userID)
	case loadErr != nil:
		return 0, loadErr
	case errors.Is(err, redis.TxFailedErr):
		u.log.Debug("Unread count changed while loading", "key", key)
	case err != nil:
		u.log.Warn("Unread cache write failed", "key", key, "error", err)
	}
	return n, nil
}

// Invalidate drops the cached count and aborts any recompute in flight.
func (u *Unread) Invalidate(ctx context.Context, conversationID, userID string) {
	key := unreadKey(conversationID, userID)
	gen := generationKey(conversationID, userID)

	_, err := u.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, gen)
		pipe.Expire(ctx, gen, u.ttl)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		u.log.Warn("Unread cache invalidate failed", "key", key, "error", err)
	}
}
