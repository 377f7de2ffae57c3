package dto

import "time"

type RegisterBotRequest struct {
	Token string `json:"token"`
}

type BotResponse struct {
	ID         int64     `json:"id"`
	TelegramID int64     `json:"telegram_id"`
	Username   string    `json:"username"`
	CreatedAt  time.Time `json:"created_at"`
}

type BotInfoResponse struct {
	BotResponse
	TotalChats   int   `json:"total_chats"`
	TotalMembers int64 `json:"total_members"`
}

type BotListResponse struct {
	Bots []BotResponse `json:"bots"`
}

type ConnectRequest struct {
	// PublicBaseURL overrides the configured base for this connect.
	PublicBaseURL string `json:"public_base_url,omitempty"`
}

type ConnectResponse struct {
	WebhookURL string `json:"webhook_url"`
}

type WebhookStatusResponse struct {
	URL                string `json:"url"`
	PendingUpdateCount int    `json:"pending_update_count"`
	LastErrorDate      int    `json:"last_error_date,omitempty"`
	LastErrorMessage   string `json:"last_error_message,omitempty"`
}

type ChatSyncResponse struct {
	TelegramChatID int64 `json:"telegram_chat_id"`
	AdminsSynced   int   `json:"admins_synced"`
	MemberCount    int   `json:"member_count"`
}

type SyncAllResponse struct {
	Chats []ChatSyncResponse `json:"chats"`
}
