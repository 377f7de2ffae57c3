package model

import "time"

// Bot is a registered automation account. Token is sensitive and must
// never reach logs or API responses.
type Bot struct {
	ID            int64     `json:"id"`
	TelegramID    int64     `json:"telegram_id"`
	Username      string    `json:"username"`
	Token         string    `json:"-"`
	WebhookSecret string    `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
}
