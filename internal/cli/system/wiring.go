package system

import (
	"context"
	"errors"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/julianstephens/habitual/internal/config"
	"github.com/julianstephens/habitual/internal/keyring"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/notifier"
	"github.com/julianstephens/habitual/internal/reminder"
)

// newNotifier picks the delivery channel: stdout for dry runs, the tray
// process when asked for or when no push gateway is configured, otherwise
// the push gateway.
func newNotifier(cfg *config.Config, dryRun, tray bool) notifier.Notifier {
	switch {
	case dryRun:
		return notifier.NewDryRun(os.Stdout)
	case tray || cfg.Push.Endpoint == "":
		if !tray {
			logger.Info("No push endpoint configured, delivering through the tray app")
		}
		return notifier.NewTrayNotifier()
	}

	apiKey := cfg.Push.APIKey
	if apiKey == "" {
		key, err := keyring.GetPushAPIKey()
		switch {
		case err == nil:
			apiKey = key
		case !errors.Is(err, keyring.ErrNotFound):
			logger.Warn("Failed to read push API key from keyring", "error", err)
		}
	}
	return notifier.NewPushClient(cfg.Push.Endpoint, apiKey)
}

// newDeduper uses Redis when configured and reachable and falls back to the
// reminder_logs table. The returned func releases the Redis client.
func newDeduper(ctx context.Context, cfg *config.Config, store reminder.ReminderLogStore) (reminder.Deduper, func()) {
	if cfg.Redis.Addr == "" {
		return reminder.NewStoreDeduper(store), func() {}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis unreachable, deduplicating through the database", "addr", cfg.Redis.Addr, "error", err)
		rdb.Close()
		return reminder.NewStoreDeduper(store), func() {}
	}
	logger.Info("Deduplicating reminders through Redis", "addr", cfg.Redis.Addr)
	return reminder.NewRedisDeduper(rdb, cfg.Reminder.DedupeTTL), func() { rdb.Close() }
}
