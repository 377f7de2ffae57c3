package model

import (
	"encoding/json"

	"github.com/ivankudzin/tgrelay/internal/domain/enums"
)

// EventKind tags the canonical membership event variants produced by
// the normalizer. Raw Telegram payload shapes never travel past it.
type EventKind string

const (
	EventChatObserved  EventKind = "chat_observed"
	EventUserObserved  EventKind = "user_observed"
	EventMemberJoined  EventKind = "member_joined"
	EventMemberLeft    EventKind = "member_left"
	EventRoleAssigned  EventKind = "role_assigned"
	EventMuteChanged   EventKind = "mute_changed"
	EventBotSelfStatus EventKind = "bot_self_status"
)

// ChatPayload is the chat context carried by a canonical event. Empty
// string fields mean "not present in the raw payload" and preserve the
// stored value on upsert.
type ChatPayload struct {
	TelegramChatID int64
	Title          string
	Kind           enums.ChatKind
	Username       string
}

// UserPayload is the user context carried by a canonical event. IsBot
// is a pointer because absence and false are different things for the
// overwrite policy.
type UserPayload struct {
	TelegramUserID int64
	FirstName      string
	LastName       string
	Username       string
	IsBot          *bool
}

// MembershipEvent is one canonical event. Kind decides which of the
// optional fields are meaningful; Patch carries the membership fields
// the event wants to set. Action is the audit tag resolved by the
// normalizer, Payload an optional raw snapshot for forensics.
type MembershipEvent struct {
	Kind    EventKind
	Chat    *ChatPayload
	User    *UserPayload
	Patch   MembershipPatch
	Action  enums.Action
	Reason  string
	Payload json.RawMessage
}
