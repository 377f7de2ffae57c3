package moderate

import (
	"context"
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ivankudzin/tgrelay/internal/domain/enums"
	"github.com/ivankudzin/tgrelay/internal/domain/model"
)

type remoteStub struct {
	banCalls      int
	unbanCalls    int
	restrictCalls int

	lastToken      string
	lastUntilDate  int64
	lastPerms      tgbotapi.ChatPermissions
	lastRestrictAt int64

	banErr      error
	unbanErr    error
	restrictErr error
}

func (s *remoteStub) BanChatMember(_ context.Context, token string, chatID, userID int64, untilDate int64) error {
	s.banCalls++
	s.lastToken = token
	s.lastUntilDate = untilDate
	return s.banErr
}

func (s *remoteStub) UnbanChatMember(_ context.Context, token string, chatID, userID int64) error {
	s.unbanCalls++
	s.lastToken = token
	return s.unbanErr
}

func (s *remoteStub) RestrictChatMember(_ context.Context, token string, chatID, userID int64, permissions tgbotapi.ChatPermissions, untilDate int64) error {
	s.restrictCalls++
	s.lastToken = token
	s.lastPerms = permissions
	s.lastRestrictAt = untilDate
	return s.restrictErr
}

type applierStub struct {
	events   []model.MembershipEvent
	applyErr error
}

func (s *applierStub) Apply(_ context.Context, botID int64, ev model.MembershipEvent) error {
	if s.applyErr != nil {
		return s.applyErr
	}
	s.events = append(s.events, ev)
	return nil
}

func testBot() model.Bot {
	return model.Bot{ID: 1, TelegramID: 100500, Username: "relay_bot", Token: "secret-token"}
}

func newTestService(remote *remoteStub, applier *applierStub, now time.Time) *Service {
	svc := NewService(remote, applier)
	svc.now = func() time.Time { return now }
	return svc
}

func TestBanWithDuration(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	remote := &remoteStub{}
	applier := &applierStub{}
	svc := newTestService(remote, applier, now)

	err := svc.Moderate(context.Background(), testBot(), -100, 7, enums.ActionBan, Options{
		Duration: time.Hour,
		Reason:   "spam",
	})
	if err != nil {
		t.Fatalf("ban: %v", err)
	}

	if remote.banCalls != 1 {
		t.Fatalf("expected one ban call, got %d", remote.banCalls)
	}
	if remote.lastToken != "secret-token" {
		t.Fatal("bot token not passed to remote call")
	}
	if want := now.Add(time.Hour).Unix(); remote.lastUntilDate != want {
		t.Fatalf("until_date: got %d want %d", remote.lastUntilDate, want)
	}

	if len(applier.events) != 1 {
		t.Fatalf("expected one synthetic event, got %d", len(applier.events))
	}
	ev := applier.events[0]
	if ev.Action != enums.ActionBan || ev.Reason != "spam" {
		t.Fatalf("unexpected event: action=%s reason=%q", ev.Action, ev.Reason)
	}
	if *ev.Patch.Role != enums.RoleKicked || *ev.Patch.Status != enums.MemberStatusBanned {
		t.Fatal("ban must patch role=kicked status=banned")
	}
}

func TestBanRemoteFailureMutatesNothing(t *testing.T) {
	remote := &remoteStub{banErr: errors.New("forbidden")}
	applier := &applierStub{}
	svc := NewService(remote, applier)

	err := svc.Moderate(context.Background(), testBot(), -100, 7, enums.ActionBan, Options{})
	if !errors.Is(err, ErrRemoteCall) {
		t.Fatalf("expected ErrRemoteCall, got %v", err)
	}
	if len(applier.events) != 0 {
		t.Fatal("remote failure must not produce a synthetic event")
	}
}

func TestUnban(t *testing.T) {
	remote := &remoteStub{}
	applier := &applierStub{}
	svc := NewService(remote, applier)

	if err := svc.Moderate(context.Background(), testBot(), -100, 7, enums.ActionUnban, Options{}); err != nil {
		t.Fatalf("unban: %v", err)
	}

	ev := applier.events[0]
	if *ev.Patch.Role != enums.RoleLeft || *ev.Patch.Status != enums.MemberStatusLeft {
		t.Fatal("unban must patch role=left status=left")
	}
	if ev.Action != enums.ActionUnban {
		t.Fatalf("unexpected action: %s", ev.Action)
	}
}

func TestMuteDeniesSendPermissions(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	remote := &remoteStub{}
	applier := &applierStub{}
	svc := newTestService(remote, applier, now)

	err := svc.Moderate(context.Background(), testBot(), -100, 7, enums.ActionMute, Options{Duration: 30 * time.Minute})
	if err != nil {
		t.Fatalf("mute: %v", err)
	}

	if remote.restrictCalls != 1 {
		t.Fatalf("expected one restrict call, got %d", remote.restrictCalls)
	}
	if remote.lastPerms.CanSendMessages || remote.lastPerms.CanSendMediaMessages {
		t.Fatal("mute must deny send permissions")
	}
	if want := now.Add(30 * time.Minute).Unix(); remote.lastRestrictAt != want {
		t.Fatalf("until_date: got %d want %d", remote.lastRestrictAt, want)
	}

	ev := applier.events[0]
	if ev.Kind != model.EventMuteChanged {
		t.Fatalf("unexpected kind: %s", ev.Kind)
	}
	if ev.Patch.IsMuted == nil || !*ev.Patch.IsMuted {
		t.Fatal("mute must patch is_muted=true")
	}
	if *ev.Patch.Role != enums.RoleRestricted || *ev.Patch.Status != enums.MemberStatusRestricted {
		t.Fatal("mute must patch role/status restricted")
	}
}

func TestUnmuteRegrantsPermissions(t *testing.T) {
	remote := &remoteStub{}
	applier := &applierStub{}
	svc := NewService(remote, applier)

	if err := svc.Moderate(context.Background(), testBot(), -100, 7, enums.ActionUnmute, Options{}); err != nil {
		t.Fatalf("unmute: %v", err)
	}

	if !remote.lastPerms.CanSendMessages || !remote.lastPerms.CanAddWebPagePreviews {
		t.Fatal("unmute must re-grant send permissions")
	}
	if remote.lastRestrictAt != 0 {
		t.Fatal("unmute must not carry an expiry")
	}

	ev := applier.events[0]
	if ev.Patch.IsMuted == nil || *ev.Patch.IsMuted {
		t.Fatal("unmute must patch is_muted=false")
	}
	if *ev.Patch.Role != enums.RoleMember || *ev.Patch.Status != enums.MemberStatusMember {
		t.Fatal("unmute must restore role/status member")
	}
}

func TestKickBansThenUnbans(t *testing.T) {
	remote := &remoteStub{}
	applier := &applierStub{}
	svc := NewService(remote, applier)

	if err := svc.Moderate(context.Background(), testBot(), -100, 7, enums.ActionKick, Options{}); err != nil {
		t.Fatalf("kick: %v", err)
	}

	if remote.banCalls != 1 || remote.unbanCalls != 1 {
		t.Fatalf("expected ban+unban, got ban=%d unban=%d", remote.banCalls, remote.unbanCalls)
	}
	if remote.lastUntilDate != 0 {
		t.Fatal("kick ban must be indefinite")
	}

	ev := applier.events[0]
	if ev.Action != enums.ActionKick {
		t.Fatalf("unexpected action: %s", ev.Action)
	}
	if *ev.Patch.Role != enums.RoleLeft || *ev.Patch.Status != enums.MemberStatusLeft {
		t.Fatal("completed kick must patch role/status left")
	}
}

func TestKickIncompleteKeepsBanEffect(t *testing.T) {
	remote := &remoteStub{unbanErr: errors.New("timeout")}
	applier := &applierStub{}
	svc := NewService(remote, applier)

	err := svc.Moderate(context.Background(), testBot(), -100, 7, enums.ActionKick, Options{Reason: "flood"})
	if !errors.Is(err, ErrKickIncomplete) {
		t.Fatalf("expected ErrKickIncomplete, got %v", err)
	}

	// The ban half stands: one kick entry with the ban's effect, no
	// second entry for the failed unban.
	if len(applier.events) != 1 {
		t.Fatalf("expected one synthetic event, got %d", len(applier.events))
	}
	ev := applier.events[0]
	if ev.Action != enums.ActionKick {
		t.Fatalf("unexpected action: %s", ev.Action)
	}
	if *ev.Patch.Role != enums.RoleKicked || *ev.Patch.Status != enums.MemberStatusBanned {
		t.Fatal("incomplete kick must record the ban effect")
	}
}

func TestModerateUnsupportedAction(t *testing.T) {
	svc := NewService(&remoteStub{}, &applierStub{})

	err := svc.Moderate(context.Background(), testBot(), -100, 7, enums.ActionJoin, Options{})
	if !errors.Is(err, ErrUnsupportedAction) {
		t.Fatalf("expected ErrUnsupportedAction, got %v", err)
	}
}
