package normalize

import (
	"encoding/json"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ivankudzin/tgrelay/internal/domain/enums"
	"github.com/ivankudzin/tgrelay/internal/domain/model"
	"github.com/ivankudzin/tgrelay/internal/domain/rules"
)

// ErrMalformedEvent marks an update that cannot be normalized because
// required context (chat, user, member status) is missing. Such updates
// are dropped by the caller, never retried.
var ErrMalformedEvent = errors.New("malformed event")

// Update maps one raw Telegram update onto canonical membership events.
// Raw payload shapes are branched on here and nowhere else; everything
// past this function works with model.MembershipEvent only.
func Update(u tgbotapi.Update) ([]model.MembershipEvent, error) {
	switch {
	case u.Message != nil:
		return fromMessage(u.Message)
	case u.EditedMessage != nil:
		return fromMessage(u.EditedMessage)
	case u.ChannelPost != nil:
		return fromMessage(u.ChannelPost)
	case u.ChatMember != nil:
		return fromChatMember(u.ChatMember)
	case u.MyChatMember != nil:
		return fromMyChatMember(u.MyChatMember)
	default:
		return nil, ErrMalformedEvent
	}
}

func fromMessage(msg *tgbotapi.Message) ([]model.MembershipEvent, error) {
	if msg.Chat == nil {
		return nil, ErrMalformedEvent
	}

	chat := chatPayload(*msg.Chat)
	raw, _ := json.Marshal(msg)

	var events []model.MembershipEvent

	for i := range msg.NewChatMembers {
		user := userPayload(msg.NewChatMembers[i])
		role := enums.RoleMember
		status := enums.MemberStatusMember
		events = append(events, model.MembershipEvent{
			Kind:    model.EventMemberJoined,
			Chat:    &chat,
			User:    &user,
			Patch:   model.MembershipPatch{Role: &role, Status: &status},
			Action:  enums.ActionJoin,
			Payload: raw,
		})
	}

	if msg.LeftChatMember != nil {
		user := userPayload(*msg.LeftChatMember)
		role := enums.RoleLeft
		status := enums.MemberStatusLeft
		events = append(events, model.MembershipEvent{
			Kind:    model.EventMemberLeft,
			Chat:    &chat,
			User:    &user,
			Patch:   model.MembershipPatch{Role: &role, Status: &status},
			Action:  enums.ActionLeft,
			Payload: raw,
		})
	}

	if len(events) > 0 {
		return events, nil
	}

	// A plain message still proves the chat exists and, when it has a
	// sender, that the user exists. Neither touches a membership row.
	events = append(events, model.MembershipEvent{
		Kind:   model.EventChatObserved,
		Chat:   &chat,
		Action: enums.ActionChatObserved,
	})
	if msg.From != nil {
		user := userPayload(*msg.From)
		events = append(events, model.MembershipEvent{
			Kind:   model.EventUserObserved,
			User:   &user,
			Action: enums.ActionUserObserved,
		})
	}

	return events, nil
}

func fromChatMember(cm *tgbotapi.ChatMemberUpdated) ([]model.MembershipEvent, error) {
	if cm.Chat.ID == 0 || cm.NewChatMember.User == nil {
		return nil, ErrMalformedEvent
	}

	role, status, ok := rules.MapMemberStatus(cm.NewChatMember.Status)
	if !ok {
		return nil, ErrMalformedEvent
	}

	chat := chatPayload(cm.Chat)
	user := userPayload(*cm.NewChatMember.User)
	raw, _ := json.Marshal(cm)

	patch := model.MembershipPatch{Role: &role, Status: &status}

	oldStatus := cm.OldChatMember.Status
	newStatus := cm.NewChatMember.Status

	kind := model.EventRoleAssigned
	switch {
	case newStatus == "restricted":
		muted := true
		patch.IsMuted = &muted
		kind = model.EventMuteChanged
	case oldStatus == "restricted" && newStatus == "member":
		muted := false
		patch.IsMuted = &muted
		kind = model.EventMuteChanged
	case newStatus == "left" || newStatus == "kicked":
		kind = model.EventMemberLeft
	case newStatus == "member" && (oldStatus == "left" || oldStatus == "kicked"):
		kind = model.EventMemberJoined
	}

	return []model.MembershipEvent{{
		Kind:    kind,
		Chat:    &chat,
		User:    &user,
		Patch:   patch,
		Action:  chatMemberAction(chat.Kind, oldStatus, newStatus),
		Payload: raw,
	}}, nil
}

func fromMyChatMember(mc *tgbotapi.ChatMemberUpdated) ([]model.MembershipEvent, error) {
	if mc.Chat.ID == 0 {
		return nil, ErrMalformedEvent
	}

	chat := chatPayload(mc.Chat)
	raw, _ := json.Marshal(mc)

	// The bot's own status is audited but no membership row is kept
	// for the bot account itself.
	return []model.MembershipEvent{{
		Kind:    model.EventBotSelfStatus,
		Chat:    &chat,
		Action:  enums.ActionMyChatMember,
		Payload: raw,
	}}, nil
}

// AdminSnapshot turns a getChatAdministrators response into one role
// assignment per listed admin. Users absent from the snapshot get no
// event: a partial response must never demote anyone.
func AdminSnapshot(chat model.ChatPayload, admins []tgbotapi.ChatMember) []model.MembershipEvent {
	var events []model.MembershipEvent
	for i := range admins {
		if admins[i].User == nil {
			continue
		}
		role, status, ok := rules.MapMemberStatus(admins[i].Status)
		if !ok {
			continue
		}

		chat := chat
		user := userPayload(*admins[i].User)
		raw, _ := json.Marshal(admins[i])

		events = append(events, model.MembershipEvent{
			Kind:    model.EventRoleAssigned,
			Chat:    &chat,
			User:    &user,
			Patch:   model.MembershipPatch{Role: &role, Status: &status},
			Action:  enums.ActionAdminSync,
			Payload: raw,
		})
	}
	return events
}

// chatMemberAction picks the audit tag for a status change. The tag
// depends on chat kind and transition direction only; the membership
// effect is the same either way.
func chatMemberAction(kind enums.ChatKind, oldStatus, newStatus string) enums.Action {
	joined := newStatus == "member" && (oldStatus == "left" || oldStatus == "kicked")
	gone := (newStatus == "left" || newStatus == "kicked") &&
		oldStatus != "left" && oldStatus != "kicked"

	switch {
	case joined && kind.IsGroup():
		return enums.ActionGroupJoin
	case joined && kind == enums.ChatKindChannel:
		return enums.ActionChannelJoin
	case gone && kind.IsGroup():
		return enums.ActionGroupLeft
	case gone && kind == enums.ChatKindChannel:
		return enums.ActionChannelLeft
	case newStatus == "left" || newStatus == "kicked":
		return enums.ActionChatMemberUpdateLeft
	default:
		return enums.ActionChatMemberUpdate
	}
}

func chatPayload(c tgbotapi.Chat) model.ChatPayload {
	return model.ChatPayload{
		TelegramChatID: c.ID,
		Title:          c.Title,
		Kind:           enums.ChatKind(c.Type),
		Username:       c.UserName,
	}
}

func userPayload(u tgbotapi.User) model.UserPayload {
	isBot := u.IsBot
	return model.UserPayload{
		TelegramUserID: u.ID,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Username:       u.UserName,
		IsBot:          &isBot,
	}
}
