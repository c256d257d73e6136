package reminder

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
)

// Deduper guards delivery with an idempotency key. Acquire returns true the
// first time an entry's key is seen; Release gives the key back after a
// failed delivery.
type Deduper interface {
	Acquire(ctx context.Context, entry models.ReminderLog) bool
	Release(ctx context.Context, key string)
}

// ReminderLogStore is the subset of storage.Provider StoreDeduper needs.
type ReminderLogStore interface {
	RecordReminder(models.ReminderLog) (bool, error)
	DeleteReminder(key string) error
}

// StoreDeduper claims keys by inserting into the reminder_logs table.
type StoreDeduper struct {
	store ReminderLogStore
}

func NewStoreDeduper(store ReminderLogStore) *StoreDeduper {
	return &StoreDeduper{store: store}
}

func (d *StoreDeduper) Acquire(ctx context.Context, entry models.ReminderLog) bool {
	inserted, err := d.store.RecordReminder(entry)
	if err != nil {
		// Fail open so reminders still go out when the log is unavailable.
		logger.Warn("Reminder log check failed, allowing delivery", "key", entry.Key, "error", err)
		return true
	}
	if !inserted {
		logger.Debug("Skipped duplicate reminder", "key", entry.Key)
	}
	return inserted
}

func (d *StoreDeduper) Release(ctx context.Context, key string) {
	if err := d.store.DeleteReminder(key); err != nil {
		logger.Warn("Failed to release reminder key", "key", key, "error", err)
	}
}

// RedisDeduper claims keys with SET NX and a TTL. Shared between processes
// it keeps a cron trigger and a ticker from double-sending.
type RedisDeduper struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisDeduper(rdb *redis.Client, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{
		rdb:    rdb,
		ttl:    ttl,
		prefix: "habitual:reminder:",
	}
}

func (d *RedisDeduper) Acquire(ctx context.Context, entry models.ReminderLog) bool {
	ok, err := d.rdb.SetNX(ctx, d.prefix+entry.Key, entry.UserID, d.ttl).Result()
	if err != nil {
		// Redis unavailable: do not block delivery.
		logger.Warn("Redis dedup check failed, allowing delivery", "key", entry.Key, "error", err)
		return true
	}
	if !ok {
		logger.Debug("Skipped duplicate reminder", "key", entry.Key)
	}
	return ok
}

func (d *RedisDeduper) Release(ctx context.Context, key string) {
	if err := d.rdb.Del(ctx, d.prefix+key).Err(); err != nil {
		logger.Warn("Failed to release reminder key", "key", key, "error", err)
	}
}
