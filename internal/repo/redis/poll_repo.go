package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
)

const pollOffsetPrefix = "poll_offset:"

// PollRepo keeps the last confirmed getUpdates offset per bot, so a
// restarted poller does not replay updates Telegram already delivered.
type PollRepo struct {
	client *goredis.Client
}

func NewPollRepo(client *goredis.Client) *PollRepo {
	return &PollRepo{client: client}
}

func (r *PollRepo) GetOffset(ctx context.Context, botID int64) (int64, error) {
	if r.client == nil {
		return 0, fmt.Errorf("redis client is nil")
	}
	if botID <= 0 {
		return 0, fmt.Errorf("invalid bot id")
	}

	offset, err := r.client.Get(ctx, pollOffsetKey(botID)).Int64()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("get poll offset: %w", err)
	}

	return offset, nil
}

func (r *PollRepo) SetOffset(ctx context.Context, botID, offset int64) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if botID <= 0 {
		return fmt.Errorf("invalid bot id")
	}

	if err := r.client.Set(ctx, pollOffsetKey(botID), offset, 0).Err(); err != nil {
		return fmt.Errorf("set poll offset: %w", err)
	}

	return nil
}

func pollOffsetKey(botID int64) string {
	return fmt.Sprintf("%s%d", pollOffsetPrefix, botID)
}
