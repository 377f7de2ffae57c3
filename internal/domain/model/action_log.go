package model

import (
	"encoding/json"
	"time"

	"github.com/ivankudzin/tgrelay/internal/domain/enums"
)

// ActionLog is an append-only audit record. Rows are never updated or
// deleted.
type ActionLog struct {
	ID             int64           `json:"id"`
	BotID          int64           `json:"bot_id"`
	ChatID         *int64          `json:"chat_id"`
	UserTelegramID *int64          `json:"user_telegram_id"`
	Action         enums.Action    `json:"action"`
	Reason         string          `json:"reason"`
	Payload        json.RawMessage `json:"payload"`
	CreatedAt      time.Time       `json:"created_at"`
}
