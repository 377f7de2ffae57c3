package model

import (
	"time"

	"github.com/ivankudzin/tgrelay/internal/domain/enums"
)

// Membership is the reconciled state of one user inside one chat as
// tracked by one bot. Exactly one row exists per (bot, chat, user).
type Membership struct {
	ID       int64              `json:"id"`
	BotID    int64              `json:"bot_id"`
	ChatID   int64              `json:"chat_id"`
	UserID   int64              `json:"user_id"`
	Role     enums.Role         `json:"role"`
	Status   enums.MemberStatus `json:"status"`
	IsMuted  bool               `json:"is_muted"`
	JoinedAt time.Time          `json:"joined_at"`
	LeftAt   *time.Time         `json:"left_at"`
	LastSeen time.Time          `json:"last_seen"`
}

// MembershipPatch carries only the fields an event wants to change.
// Nil means "leave as is"; last_seen is always refreshed on apply.
type MembershipPatch struct {
	Role    *enums.Role
	Status  *enums.MemberStatus
	IsMuted *bool
}
