package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/tgrelay/internal/domain/model"
)

var ErrBotNotFound = errors.New("bot not found")

type BotRepo struct {
	pool *pgxpool.Pool
}

func NewBotRepo(pool *pgxpool.Pool) *BotRepo {
	return &BotRepo{pool: pool}
}

// Upsert registers a bot or rotates its token. The webhook secret is
// generated once and survives re-registration.
func (r *BotRepo) Upsert(ctx context.Context, telegramID int64, username, token, webhookSecret string) (model.Bot, error) {
	if r.pool == nil {
		return model.Bot{}, fmt.Errorf("postgres pool is nil")
	}
	if telegramID <= 0 || strings.TrimSpace(token) == "" {
		return model.Bot{}, fmt.Errorf("invalid bot payload")
	}

	var bot model.Bot
	err := r.pool.QueryRow(ctx, `
INSERT INTO bots (telegram_id, username, token, webhook_secret, created_at)
VALUES ($1, $2, $3, $4, NOW())
ON CONFLICT (telegram_id) DO UPDATE SET
	username = COALESCE(NULLIF(EXCLUDED.username, ''), bots.username),
	token = EXCLUDED.token,
	webhook_secret = CASE WHEN bots.webhook_secret = '' THEN EXCLUDED.webhook_secret ELSE bots.webhook_secret END
RETURNING id, telegram_id, username, token, webhook_secret, created_at
`, telegramID, strings.TrimSpace(username), strings.TrimSpace(token), webhookSecret).
		Scan(&bot.ID, &bot.TelegramID, &bot.Username, &bot.Token, &bot.WebhookSecret, &bot.CreatedAt)
	if err != nil {
		return model.Bot{}, fmt.Errorf("upsert bot: %w", err)
	}

	return bot, nil
}

func (r *BotRepo) GetByID(ctx context.Context, botID int64) (model.Bot, error) {
	if r.pool == nil {
		return model.Bot{}, fmt.Errorf("postgres pool is nil")
	}
	if botID <= 0 {
		return model.Bot{}, fmt.Errorf("invalid bot id")
	}

	var bot model.Bot
	err := r.pool.QueryRow(ctx, `
SELECT id, telegram_id, username, token, webhook_secret, created_at
FROM bots
WHERE id = $1
`, botID).Scan(&bot.ID, &bot.TelegramID, &bot.Username, &bot.Token, &bot.WebhookSecret, &bot.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Bot{}, ErrBotNotFound
		}
		return model.Bot{}, fmt.Errorf("get bot by id: %w", err)
	}

	return bot, nil
}

func (r *BotRepo) List(ctx context.Context) ([]model.Bot, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, telegram_id, username, token, webhook_secret, created_at
FROM bots
ORDER BY id
`)
	if err != nil {
		return nil, fmt.Errorf("list bots: %w", err)
	}
	defer rows.Close()

	var bots []model.Bot
	for rows.Next() {
		var bot model.Bot
		if err := rows.Scan(&bot.ID, &bot.TelegramID, &bot.Username, &bot.Token, &bot.WebhookSecret, &bot.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan bot row: %w", err)
		}
		bots = append(bots, bot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bot rows: %w", err)
	}

	return bots, nil
}

// Delete removes the bot; chats, memberships, flags and action logs
// follow via FK cascade.
func (r *BotRepo) Delete(ctx context.Context, botID int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if botID <= 0 {
		return fmt.Errorf("invalid bot id")
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM bots WHERE id = $1`, botID)
	if err != nil {
		return fmt.Errorf("delete bot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBotNotFound
	}

	return nil
}
