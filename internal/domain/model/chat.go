package model

import (
	"time"

	"github.com/ivankudzin/tgrelay/internal/domain/enums"
)

type Chat struct {
	ID             int64          `json:"id"`
	BotID          int64          `json:"bot_id"`
	TelegramChatID int64          `json:"telegram_chat_id"`
	Title          string         `json:"title"`
	Kind           enums.ChatKind `json:"kind"`
	Username       string         `json:"username"`
	LastSeen       time.Time      `json:"last_seen"`
}
