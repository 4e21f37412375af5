package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/inkwell-ai/ghostwriter/internal/trigger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const settingsChannel = "ghostwriter:settings"

// SettingsChange is broadcast when persisted settings are updated, so every
// engine instance re-derives its policy and cache without restart.
type SettingsChange struct {
	Policy        *trigger.Policy `json:"policy,omitempty"`
	CacheCapacity int             `json:"cache_capacity,omitempty"`
}

// Notifier publishes and subscribes to settings changes over Redis pub/sub.
type Notifier struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewNotifier creates a Redis-backed settings notifier.
func NewNotifier(redisURL string, logger *zap.Logger) (*Notifier, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Notifier{rdb: rdb, logger: logger}, nil
}

// Publish broadcasts a settings change.
func (n *Notifier) Publish(ctx context.Context, change SettingsChange) error {
	data, err := json.Marshal(change)
	if err != nil {
		return err
	}
	if err := n.rdb.Publish(ctx, settingsChannel, data).Err(); err != nil {
		return fmt.Errorf("publish settings change: %w", err)
	}
	return nil
}

// Watch invokes handler for every settings change until the context is
// cancelled. Malformed messages are logged and skipped.
func (n *Notifier) Watch(ctx context.Context, handler func(SettingsChange)) {
	sub := n.rdb.Subscribe(ctx, settingsChannel)
	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var change SettingsChange
				if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
					n.logger.Warn("malformed settings change", zap.Error(err))
					continue
				}
				handler(change)
			}
		}
	}()
}

// Close shuts down the Redis client.
func (n *Notifier) Close() error {
	return n.rdb.Close()
}
