package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/tgrelay/internal/domain/model"
)

var ErrChatNotFound = errors.New("chat not found")

type ChatRepo struct {
	pool *pgxpool.Pool
}

func NewChatRepo(pool *pgxpool.Pool) *ChatRepo {
	return &ChatRepo{pool: pool}
}

// Upsert writes a chat observation. Empty incoming fields preserve the
// stored value (see rules.MergeChat); last_seen always refreshes.
func (r *ChatRepo) Upsert(ctx context.Context, botID int64, p model.ChatPayload) (model.Chat, error) {
	if r.pool == nil {
		return model.Chat{}, fmt.Errorf("postgres pool is nil")
	}
	if botID <= 0 || p.TelegramChatID == 0 {
		return model.Chat{}, fmt.Errorf("invalid chat payload")
	}

	var chat model.Chat
	err := r.pool.QueryRow(ctx, `
INSERT INTO chats (bot_id, telegram_chat_id, title, kind, username, last_seen)
VALUES ($1, $2, COALESCE(NULLIF($3, ''), NULLIF($5, ''), ''), $4, $5, NOW())
ON CONFLICT (bot_id, telegram_chat_id) DO UPDATE SET
	title = COALESCE(NULLIF(EXCLUDED.title, ''), chats.title),
	kind = COALESCE(NULLIF(EXCLUDED.kind, ''), chats.kind),
	username = COALESCE(NULLIF(EXCLUDED.username, ''), chats.username),
	last_seen = NOW()
RETURNING id, bot_id, telegram_chat_id, title, kind, username, last_seen
`, botID, p.TelegramChatID, p.Title, string(p.Kind), p.Username).
		Scan(&chat.ID, &chat.BotID, &chat.TelegramChatID, &chat.Title, &chat.Kind, &chat.Username, &chat.LastSeen)
	if err != nil {
		return model.Chat{}, fmt.Errorf("upsert chat: %w", err)
	}

	return chat, nil
}

func (r *ChatRepo) FindByTelegramID(ctx context.Context, botID, telegramChatID int64) (model.Chat, error) {
	if r.pool == nil {
		return model.Chat{}, fmt.Errorf("postgres pool is nil")
	}

	var chat model.Chat
	err := r.pool.QueryRow(ctx, `
SELECT id, bot_id, telegram_chat_id, title, kind, username, last_seen
FROM chats
WHERE bot_id = $1 AND telegram_chat_id = $2
`, botID, telegramChatID).
		Scan(&chat.ID, &chat.BotID, &chat.TelegramChatID, &chat.Title, &chat.Kind, &chat.Username, &chat.LastSeen)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Chat{}, ErrChatNotFound
		}
		return model.Chat{}, fmt.Errorf("find chat by telegram id: %w", err)
	}

	return chat, nil
}

func (r *ChatRepo) ListForBot(ctx context.Context, botID int64) ([]model.Chat, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, bot_id, telegram_chat_id, title, kind, username, last_seen
FROM chats
WHERE bot_id = $1
ORDER BY id
`, botID)
	if err != nil {
		return nil, fmt.Errorf("list chats for bot: %w", err)
	}
	defer rows.Close()

	var chats []model.Chat
	for rows.Next() {
		var chat model.Chat
		if err := rows.Scan(&chat.ID, &chat.BotID, &chat.TelegramChatID, &chat.Title, &chat.Kind, &chat.Username, &chat.LastSeen); err != nil {
			return nil, fmt.Errorf("scan chat row: %w", err)
		}
		chats = append(chats, chat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat rows: %w", err)
	}

	return chats, nil
}
