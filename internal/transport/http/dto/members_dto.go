package dto

import "time"

type ChatResponse struct {
	ID             int64     `json:"id"`
	TelegramChatID int64     `json:"telegram_chat_id"`
	Title          string    `json:"title"`
	Kind           string    `json:"kind"`
	Username       string    `json:"username,omitempty"`
	LastSeen       time.Time `json:"last_seen"`
}

type ChatListResponse struct {
	Chats []ChatResponse `json:"chats"`
}

type MemberResponse struct {
	TelegramUserID int64      `json:"telegram_user_id"`
	FirstName      string     `json:"first_name,omitempty"`
	LastName       string     `json:"last_name,omitempty"`
	Username       string     `json:"username,omitempty"`
	IsBot          bool       `json:"is_bot"`
	Role           string     `json:"role"`
	Status         string     `json:"status"`
	IsMuted        bool       `json:"is_muted"`
	JoinedAt       time.Time  `json:"joined_at"`
	LeftAt         *time.Time `json:"left_at,omitempty"`
	LastSeen       time.Time  `json:"last_seen"`
}

type MemberListResponse struct {
	Members []MemberResponse `json:"members"`
}

type ChatStatsResponse struct {
	Chat          ChatResponse `json:"chat"`
	TotalMembers  int64        `json:"total_members"`
	Bots          int64        `json:"bots"`
	Humans        int64        `json:"humans"`
	Admins        int64        `json:"admins"`
	ActiveMembers int64        `json:"active_members"`
	LeftMembers   int64        `json:"left_members"`
	BannedMembers int64        `json:"banned_members"`
	MutedMembers  int64        `json:"muted_members"`
}

type ActionLogResponse struct {
	ID             int64     `json:"id"`
	ChatID         *int64    `json:"chat_id,omitempty"`
	UserTelegramID *int64    `json:"user_telegram_id,omitempty"`
	Action         string    `json:"action"`
	Reason         string    `json:"reason,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type AuditListResponse struct {
	Actions []ActionLogResponse `json:"actions"`
}
