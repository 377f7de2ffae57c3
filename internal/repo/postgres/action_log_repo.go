package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/tgrelay/internal/domain/enums"
	"github.com/ivankudzin/tgrelay/internal/domain/model"
)

type ActionLogRepo struct {
	pool *pgxpool.Pool
}

func NewActionLogRepo(pool *pgxpool.Pool) *ActionLogRepo {
	return &ActionLogRepo{pool: pool}
}

// Append writes one audit row. Rows are insert-only; there is no
// update or delete path on purpose.
func (r *ActionLogRepo) Append(ctx context.Context, entry model.ActionLog) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if entry.BotID <= 0 || entry.Action == "" {
		return fmt.Errorf("invalid action log entry")
	}

	payload := entry.Payload
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO action_logs (bot_id, chat_id, user_telegram_id, action, reason, payload, created_at)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6::jsonb, NOW())
`, entry.BotID, entry.ChatID, entry.UserTelegramID, string(entry.Action), entry.Reason, string(payload)); err != nil {
		return fmt.Errorf("append action log: %w", err)
	}

	return nil
}

func (r *ActionLogRepo) ListForBot(ctx context.Context, botID int64, limit int) ([]model.ActionLog, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, bot_id, chat_id, user_telegram_id, action, COALESCE(reason, ''), payload, created_at
FROM action_logs
WHERE bot_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2
`, botID, limit)
	if err != nil {
		return nil, fmt.Errorf("list action logs: %w", err)
	}
	defer rows.Close()

	entries := make([]model.ActionLog, 0, limit)
	for rows.Next() {
		var entry model.ActionLog
		var action string
		var payload []byte
		if err := rows.Scan(&entry.ID, &entry.BotID, &entry.ChatID, &entry.UserTelegramID, &action, &entry.Reason, &payload, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan action log row: %w", err)
		}
		entry.Action = enums.Action(action)
		entry.Payload = json.RawMessage(payload)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate action log rows: %w", err)
	}

	return entries, nil
}
