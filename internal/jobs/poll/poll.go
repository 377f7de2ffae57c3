package poll

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ivankudzin/tgrelay/internal/domain/model"
)

const (
	defaultInterval = 5 * time.Second
	defaultLimit    = 100
)

type BotStore interface {
	List(ctx context.Context) ([]model.Bot, error)
}

type OffsetStore interface {
	GetOffset(ctx context.Context, botID int64) (int64, error)
	SetOffset(ctx context.Context, botID, offset int64) error
}

type Remote interface {
	GetUpdates(ctx context.Context, token string, offset int64, limit int) ([]tgbotapi.Update, error)
}

type Pipeline interface {
	ApplyUpdate(ctx context.Context, botID int64, update tgbotapi.Update) error
}

// Job drains getUpdates for every registered bot. It is the fallback
// ingest path for bots without a connected webhook; Telegram stops
// serving getUpdates once a webhook is set, so running both is safe.
type Job struct {
	bots     BotStore
	offsets  OffsetStore
	remote   Remote
	pipeline Pipeline
	interval time.Duration
	limit    int
	logger   *zap.Logger
}

func New(bots BotStore, offsets OffsetStore, remote Remote, pipeline Pipeline, interval time.Duration, limit int, logger *zap.Logger) *Job {
	if interval <= 0 {
		interval = defaultInterval
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		bots:     bots,
		offsets:  offsets,
		remote:   remote,
		pipeline: pipeline,
		interval: interval,
		limit:    limit,
		logger:   logger,
	}
}

// Run sweeps on the configured interval until the context is canceled.
func (j *Job) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		if err := j.Sweep(ctx); err != nil {
			j.logger.Warn("poll sweep failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Sweep drains one batch of updates for every bot. Per-bot failures
// are logged and skipped so one revoked token cannot stall the rest.
func (j *Job) Sweep(ctx context.Context) error {
	if j.bots == nil || j.offsets == nil || j.remote == nil || j.pipeline == nil {
		return fmt.Errorf("poll job dependencies are not configured")
	}

	bots, err := j.bots.List(ctx)
	if err != nil {
		return fmt.Errorf("list bots: %w", err)
	}

	for _, bot := range bots {
		if err := j.sweepBot(ctx, bot); err != nil {
			j.logger.Warn("bot poll skipped", zap.Int64("bot_id", bot.ID), zap.Error(err))
		}
	}

	return nil
}

func (j *Job) sweepBot(ctx context.Context, bot model.Bot) error {
	offset, err := j.offsets.GetOffset(ctx, bot.ID)
	if err != nil {
		return fmt.Errorf("get offset: %w", err)
	}

	updates, err := j.remote.GetUpdates(ctx, bot.Token, offset, j.limit)
	if err != nil {
		return fmt.Errorf("get updates: %w", err)
	}
	if len(updates) == 0 {
		return nil
	}

	// An update that fails to apply is dropped, not retried: the offset
	// still advances past it so the batch cannot wedge the poller.
	for _, update := range updates {
		if err := j.pipeline.ApplyUpdate(ctx, bot.ID, update); err != nil {
			j.logger.Warn("polled update dropped",
				zap.Int64("bot_id", bot.ID),
				zap.Int("update_id", update.UpdateID),
				zap.Error(err))
		}
	}

	next := int64(updates[len(updates)-1].UpdateID) + 1
	if err := j.offsets.SetOffset(ctx, bot.ID, next); err != nil {
		return fmt.Errorf("set offset: %w", err)
	}

	return nil
}
