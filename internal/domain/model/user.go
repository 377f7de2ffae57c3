package model

// User is a platform account observed in any chat. Global, not scoped
// to a single bot.
type User struct {
	ID             int64  `json:"id"`
	TelegramUserID int64  `json:"telegram_user_id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Username       string `json:"username"`
	IsBot          bool   `json:"is_bot"`
}
