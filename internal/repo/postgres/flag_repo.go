package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FlagRepo struct {
	pool *pgxpool.Pool
}

func NewFlagRepo(pool *pgxpool.Pool) *FlagRepo {
	return &FlagRepo{pool: pool}
}

// Bump increments the flag counter for one member and reports whether
// the configured threshold was reached. A reached threshold resets the
// counter in the same transaction, so concurrent flags trigger the
// auto-action at most once per crossing.
func (r *FlagRepo) Bump(ctx context.Context, botID, chatID, userID int64, threshold int) (int, bool, error) {
	if r.pool == nil {
		return 0, false, fmt.Errorf("postgres pool is nil")
	}
	if botID <= 0 || chatID <= 0 || userID <= 0 {
		return 0, false, fmt.Errorf("invalid flag key")
	}
	if threshold <= 0 {
		threshold = 3
	}

	var count int
	triggered := false

	err := WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
INSERT INTO flags (bot_id, chat_id, user_id, count, updated_at)
VALUES ($1, $2, $3, 1, NOW())
ON CONFLICT (bot_id, chat_id, user_id) DO UPDATE SET
	count = flags.count + 1,
	updated_at = NOW()
RETURNING count
`, botID, chatID, userID).Scan(&count); err != nil {
			return fmt.Errorf("bump flag counter: %w", err)
		}

		if count < threshold {
			return nil
		}

		triggered = true
		if _, err := tx.Exec(ctx, `
UPDATE flags SET count = 0, updated_at = NOW()
WHERE bot_id = $1 AND chat_id = $2 AND user_id = $3
`, botID, chatID, userID); err != nil {
			return fmt.Errorf("reset flag counter: %w", err)
		}

		return nil
	})
	if err != nil {
		return 0, false, err
	}

	return count, triggered, nil
}
