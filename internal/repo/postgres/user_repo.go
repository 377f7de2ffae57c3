package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/tgrelay/internal/domain/model"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

// Upsert writes a user observation keyed by the global telegram user
// id. is_bot overwrites only when the payload carried it explicitly.
func (r *UserRepo) Upsert(ctx context.Context, p model.UserPayload) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}
	if p.TelegramUserID <= 0 {
		return model.User{}, fmt.Errorf("invalid user payload")
	}

	isBot := false
	isBotSet := p.IsBot != nil
	if isBotSet {
		isBot = *p.IsBot
	}

	var user model.User
	err := r.pool.QueryRow(ctx, `
INSERT INTO users (telegram_user_id, first_name, last_name, username, is_bot)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (telegram_user_id) DO UPDATE SET
	first_name = COALESCE(NULLIF(EXCLUDED.first_name, ''), users.first_name),
	last_name = COALESCE(NULLIF(EXCLUDED.last_name, ''), users.last_name),
	username = COALESCE(NULLIF(EXCLUDED.username, ''), users.username),
	is_bot = CASE WHEN $6 THEN EXCLUDED.is_bot ELSE users.is_bot END
RETURNING id, telegram_user_id, first_name, last_name, username, is_bot
`, p.TelegramUserID, p.FirstName, p.LastName, p.Username, isBot, isBotSet).
		Scan(&user.ID, &user.TelegramUserID, &user.FirstName, &user.LastName, &user.Username, &user.IsBot)
	if err != nil {
		return model.User{}, fmt.Errorf("upsert user: %w", err)
	}

	return user, nil
}

func (r *UserRepo) FindByTelegramID(ctx context.Context, telegramUserID int64) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}

	var user model.User
	err := r.pool.QueryRow(ctx, `
SELECT id, telegram_user_id, first_name, last_name, username, is_bot
FROM users
WHERE telegram_user_id = $1
`, telegramUserID).
		Scan(&user.ID, &user.TelegramUserID, &user.FirstName, &user.LastName, &user.Username, &user.IsBot)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("find user by telegram id: %w", err)
	}

	return user, nil
}
