package normalize

import (
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ivankudzin/tgrelay/internal/domain/enums"
	"github.com/ivankudzin/tgrelay/internal/domain/model"
)

func groupChat() tgbotapi.Chat {
	return tgbotapi.Chat{ID: -100123, Type: "supergroup", Title: "dev chat"}
}

func TestUpdateNewChatMembers(t *testing.T) {
	update := tgbotapi.Update{
		Message: &tgbotapi.Message{
			Chat: &tgbotapi.Chat{ID: -100123, Type: "supergroup", Title: "dev chat"},
			NewChatMembers: []tgbotapi.User{
				{ID: 1, FirstName: "Ann"},
				{ID: 2, FirstName: "Bob", IsBot: true},
			},
		},
	}

	events, err := Update(update)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected one event per new member, got %d", len(events))
	}

	for i, ev := range events {
		if ev.Kind != model.EventMemberJoined {
			t.Fatalf("event %d: unexpected kind %s", i, ev.Kind)
		}
		if ev.Action != enums.ActionJoin {
			t.Fatalf("event %d: unexpected action %s", i, ev.Action)
		}
		if ev.Chat == nil || ev.Chat.TelegramChatID != -100123 {
			t.Fatalf("event %d: chat context missing", i)
		}
		if ev.Patch.Role == nil || *ev.Patch.Role != enums.RoleMember {
			t.Fatalf("event %d: expected member role patch", i)
		}
	}
	if events[0].User.TelegramUserID != 1 || events[1].User.TelegramUserID != 2 {
		t.Fatal("user order must follow the payload")
	}
	if events[1].User.IsBot == nil || !*events[1].User.IsBot {
		t.Fatal("is_bot flag lost for bot member")
	}
}

func TestUpdateLeftChatMember(t *testing.T) {
	chat := groupChat()
	update := tgbotapi.Update{
		Message: &tgbotapi.Message{
			Chat:           &chat,
			LeftChatMember: &tgbotapi.User{ID: 7, FirstName: "Eve"},
		},
	}

	events, err := Update(update)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}

	ev := events[0]
	if ev.Kind != model.EventMemberLeft || ev.Action != enums.ActionLeft {
		t.Fatalf("unexpected event: kind=%s action=%s", ev.Kind, ev.Action)
	}
	if ev.Patch.Status == nil || *ev.Patch.Status != enums.MemberStatusLeft {
		t.Fatal("expected left status patch")
	}
}

func TestUpdatePlainMessageObservesChatAndUser(t *testing.T) {
	chat := groupChat()
	update := tgbotapi.Update{
		Message: &tgbotapi.Message{
			Chat: &chat,
			From: &tgbotapi.User{ID: 9, FirstName: "Ann"},
			Text: "hello",
		},
	}

	events, err := Update(update)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected chat and user observations, got %d", len(events))
	}
	if events[0].Kind != model.EventChatObserved {
		t.Fatalf("unexpected first event: %s", events[0].Kind)
	}
	if events[1].Kind != model.EventUserObserved || events[1].User.TelegramUserID != 9 {
		t.Fatalf("unexpected second event: %+v", events[1])
	}
}

func TestUpdateChatMemberRejoin(t *testing.T) {
	update := tgbotapi.Update{
		ChatMember: &tgbotapi.ChatMemberUpdated{
			Chat:          groupChat(),
			OldChatMember: tgbotapi.ChatMember{Status: "left", User: &tgbotapi.User{ID: 5}},
			NewChatMember: tgbotapi.ChatMember{Status: "member", User: &tgbotapi.User{ID: 5, FirstName: "Ann"}},
		},
	}

	events, err := Update(update)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}

	ev := events[0]
	if ev.Kind != model.EventMemberJoined {
		t.Fatalf("unexpected kind: %s", ev.Kind)
	}
	if ev.Action != enums.ActionGroupJoin {
		t.Fatalf("rejoin in supergroup must tag group_join, got %s", ev.Action)
	}
	if *ev.Patch.Role != enums.RoleMember || *ev.Patch.Status != enums.MemberStatusMember {
		t.Fatal("unexpected membership patch")
	}
}

func TestUpdateChatMemberPromotionUsesGenericTag(t *testing.T) {
	// old=left new=administrator: not a plain join, so the generic tag.
	update := tgbotapi.Update{
		ChatMember: &tgbotapi.ChatMemberUpdated{
			Chat:          groupChat(),
			OldChatMember: tgbotapi.ChatMember{Status: "left", User: &tgbotapi.User{ID: 5}},
			NewChatMember: tgbotapi.ChatMember{Status: "administrator", User: &tgbotapi.User{ID: 5}},
		},
	}

	events, err := Update(update)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}

	ev := events[0]
	if ev.Action != enums.ActionChatMemberUpdate {
		t.Fatalf("expected chat_member_update, got %s", ev.Action)
	}
	if *ev.Patch.Role != enums.RoleAdministrator || *ev.Patch.Status != enums.MemberStatusMember {
		t.Fatalf("unexpected patch: role=%v status=%v", *ev.Patch.Role, *ev.Patch.Status)
	}
}

func TestUpdateChatMemberKickedInChannel(t *testing.T) {
	update := tgbotapi.Update{
		ChatMember: &tgbotapi.ChatMemberUpdated{
			Chat:          tgbotapi.Chat{ID: -200, Type: "channel", Title: "news"},
			OldChatMember: tgbotapi.ChatMember{Status: "member", User: &tgbotapi.User{ID: 5}},
			NewChatMember: tgbotapi.ChatMember{Status: "kicked", User: &tgbotapi.User{ID: 5}},
		},
	}

	events, err := Update(update)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}

	ev := events[0]
	if ev.Kind != model.EventMemberLeft || ev.Action != enums.ActionChannelLeft {
		t.Fatalf("unexpected event: kind=%s action=%s", ev.Kind, ev.Action)
	}
	if *ev.Patch.Role != enums.RoleKicked || *ev.Patch.Status != enums.MemberStatusBanned {
		t.Fatal("kicked must map to role=kicked status=banned")
	}
}

func TestUpdateChatMemberRestricted(t *testing.T) {
	update := tgbotapi.Update{
		ChatMember: &tgbotapi.ChatMemberUpdated{
			Chat:          groupChat(),
			OldChatMember: tgbotapi.ChatMember{Status: "member", User: &tgbotapi.User{ID: 5}},
			NewChatMember: tgbotapi.ChatMember{Status: "restricted", User: &tgbotapi.User{ID: 5}},
		},
	}

	events, err := Update(update)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}

	ev := events[0]
	if ev.Kind != model.EventMuteChanged {
		t.Fatalf("unexpected kind: %s", ev.Kind)
	}
	if ev.Patch.IsMuted == nil || !*ev.Patch.IsMuted {
		t.Fatal("restricted must patch is_muted=true")
	}
}

func TestUpdateMyChatMember(t *testing.T) {
	update := tgbotapi.Update{
		MyChatMember: &tgbotapi.ChatMemberUpdated{
			Chat:          groupChat(),
			NewChatMember: tgbotapi.ChatMember{Status: "administrator", User: &tgbotapi.User{ID: 1, IsBot: true}},
		},
	}

	events, err := Update(update)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}

	ev := events[0]
	if ev.Kind != model.EventBotSelfStatus || ev.Action != enums.ActionMyChatMember {
		t.Fatalf("unexpected event: kind=%s action=%s", ev.Kind, ev.Action)
	}
	if ev.User != nil {
		t.Fatal("bot self status must not carry a user payload")
	}
}

func TestUpdateMalformed(t *testing.T) {
	cases := map[string]tgbotapi.Update{
		"empty update":         {},
		"message without chat": {Message: &tgbotapi.Message{Text: "hi"}},
		"chat_member without user": {ChatMember: &tgbotapi.ChatMemberUpdated{
			Chat:          groupChat(),
			NewChatMember: tgbotapi.ChatMember{Status: "member"},
		}},
		"chat_member unknown status": {ChatMember: &tgbotapi.ChatMemberUpdated{
			Chat:          groupChat(),
			NewChatMember: tgbotapi.ChatMember{Status: "lurking", User: &tgbotapi.User{ID: 5}},
		}},
	}

	for name, update := range cases {
		if _, err := Update(update); !errors.Is(err, ErrMalformedEvent) {
			t.Errorf("%s: expected ErrMalformedEvent, got %v", name, err)
		}
	}
}

func TestAdminSnapshot(t *testing.T) {
	chat := model.ChatPayload{TelegramChatID: -100123, Kind: enums.ChatKindSupergroup}
	admins := []tgbotapi.ChatMember{
		{Status: "creator", User: &tgbotapi.User{ID: 1, FirstName: "Own"}},
		{Status: "administrator", User: &tgbotapi.User{ID: 2, FirstName: "Adm"}},
		{Status: "administrator"}, // no user, skipped
	}

	events := AdminSnapshot(chat, admins)
	if len(events) != 2 {
		t.Fatalf("expected two events, got %d", len(events))
	}

	if *events[0].Patch.Role != enums.RoleCreator || *events[1].Patch.Role != enums.RoleAdministrator {
		t.Fatal("snapshot roles not mapped")
	}
	for _, ev := range events {
		if ev.Action != enums.ActionAdminSync {
			t.Fatalf("unexpected action: %s", ev.Action)
		}
		if ev.Kind != model.EventRoleAssigned {
			t.Fatalf("unexpected kind: %s", ev.Kind)
		}
		if *ev.Patch.Status != enums.MemberStatusMember {
			t.Fatal("admin snapshot must keep status=member")
		}
	}
}
