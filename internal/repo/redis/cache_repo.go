package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const memberCountPrefix = "member_count:"

// CacheRepo caches remote lookups that are expensive against the
// Telegram API. Currently only per-chat member counts.
type CacheRepo struct {
	client *goredis.Client
}

func NewCacheRepo(client *goredis.Client) *CacheRepo {
	return &CacheRepo{client: client}
}

func (r *CacheRepo) GetMemberCount(ctx context.Context, botID, telegramChatID int64) (int, bool, error) {
	if r.client == nil {
		return 0, false, fmt.Errorf("redis client is nil")
	}

	count, err := r.client.Get(ctx, memberCountKey(botID, telegramChatID)).Int()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("get member count: %w", err)
	}

	return count, true, nil
}

func (r *CacheRepo) SetMemberCount(ctx context.Context, botID, telegramChatID int64, count int, ttl time.Duration) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	if err := r.client.Set(ctx, memberCountKey(botID, telegramChatID), count, ttl).Err(); err != nil {
		return fmt.Errorf("set member count: %w", err)
	}

	return nil
}

func memberCountKey(botID, telegramChatID int64) string {
	return fmt.Sprintf("%s%d:%d", memberCountPrefix, botID, telegramChatID)
}
