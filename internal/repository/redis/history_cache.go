package redis

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spck/arcade-backend/internal/domain"
)

const historyTTL = 5 * time.Minute

// HistoryStore is the underlying persistence the cache wraps.
type HistoryStore interface {
	AppendHistory(ctx context.Context, username string, record domain.HistoryRecord) error
	ListHistory(ctx context.Context, username string) ([]domain.HistoryRecord, error)
	ClearHistory(ctx context.Context, username string) error
}

// CachedHistory wraps a HistoryStore with a per-user Redis cache of the
// list result. Writes invalidate; reads populate. A nil client degrades
// to pass-through.
type CachedHistory struct {
	store  HistoryStore
	client *redis.Client
}

func NewCachedHistory(store HistoryStore, client *redis.Client) *CachedHistory {
	return &CachedHistory{store: store, client: client}
}

func historyKey(username string) string {
	return "history:" + username
}

func (c *CachedHistory) AppendHistory(ctx context.Context, username string, record domain.HistoryRecord) error {
	if err := c.store.AppendHistory(ctx, username, record); err != nil {
		return err
	}
	c.invalidate(ctx, username)
	return nil
}

func (c *CachedHistory) ListHistory(ctx context.Context, username string) ([]domain.HistoryRecord, error) {
	if c.client != nil {
		cached, err := c.client.Get(ctx, historyKey(username)).Result()
		if err == nil {
			var records []domain.HistoryRecord
			if err := json.Unmarshal([]byte(cached), &records); err == nil {
				return records, nil
			}
		}
	}

	records, err := c.store.ListHistory(ctx, username)
	if err != nil {
		return nil, err
	}

	if c.client != nil {
		if encoded, err := json.Marshal(records); err == nil {
			if err := c.client.Set(ctx, historyKey(username), encoded, historyTTL).Err(); err != nil {
				log.Printf("[REDIS] Failed to cache history for %s: %v", username, err)
			}
		}
	}

	return records, nil
}

func (c *CachedHistory) ClearHistory(ctx context.Context, username string) error {
	if err := c.store.ClearHistory(ctx, username); err != nil {
		return err
	}
	c.invalidate(ctx, username)
	return nil
}

func (c *CachedHistory) invalidate(ctx context.Context, username string) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, historyKey(username)).Err(); err != nil {
		log.Printf("[REDIS] Failed to invalidate history cache for %s: %v", username, err)
	}
}
