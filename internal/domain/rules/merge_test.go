package rules

import (
	"testing"
	"time"

	"github.com/ivankudzin/tgrelay/internal/domain/enums"
	"github.com/ivankudzin/tgrelay/internal/domain/model"
)

func rolePtr(r enums.Role) *enums.Role                  { return &r }
func statusPtr(s enums.MemberStatus) *enums.MemberStatus { return &s }
func boolPtr(b bool) *bool                              { return &b }

func TestMapMemberStatusTable(t *testing.T) {
	cases := []struct {
		in     string
		role   enums.Role
		status enums.MemberStatus
	}{
		{"creator", enums.RoleCreator, enums.MemberStatusMember},
		{"administrator", enums.RoleAdministrator, enums.MemberStatusMember},
		{"member", enums.RoleMember, enums.MemberStatusMember},
		{"restricted", enums.RoleRestricted, enums.MemberStatusRestricted},
		{"left", enums.RoleLeft, enums.MemberStatusLeft},
		{"kicked", enums.RoleKicked, enums.MemberStatusBanned},
	}

	for _, tc := range cases {
		role, status, ok := MapMemberStatus(tc.in)
		if !ok {
			t.Fatalf("status %q not mapped", tc.in)
		}
		if role != tc.role || status != tc.status {
			t.Fatalf("status %q: got (%s,%s) want (%s,%s)", tc.in, role, status, tc.role, tc.status)
		}
	}

	if _, _, ok := MapMemberStatus("owner"); ok {
		t.Fatalf("unknown status must not map")
	}
}

func TestMergeChatEmptyPreservesPrior(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	existing := model.Chat{
		ID:             1,
		BotID:          7,
		TelegramChatID: -100,
		Title:          "Old Title",
		Kind:           enums.ChatKindSupergroup,
		Username:       "oldchat",
	}

	merged := MergeChat(existing, true, model.ChatPayload{
		TelegramChatID: -100,
		Title:          "",
		Kind:           enums.ChatKindSupergroup,
		Username:       "",
	}, now)

	if merged.Title != "Old Title" || merged.Username != "oldchat" {
		t.Fatalf("empty fields must preserve prior values: %+v", merged)
	}
	if !merged.LastSeen.Equal(now) {
		t.Fatalf("last_seen must always refresh")
	}

	merged = MergeChat(existing, true, model.ChatPayload{TelegramChatID: -100, Title: "New"}, now)
	if merged.Title != "New" {
		t.Fatalf("non-empty field must overwrite, got %q", merged.Title)
	}
}

func TestMergeUserIsBotOnlyWhenPresent(t *testing.T) {
	existing := model.User{TelegramUserID: 5, FirstName: "Ann", IsBot: true}

	merged := MergeUser(existing, true, model.UserPayload{TelegramUserID: 5, LastName: "Lee"})
	if !merged.IsBot {
		t.Fatalf("absent is_bot must preserve prior value")
	}
	if merged.FirstName != "Ann" || merged.LastName != "Lee" {
		t.Fatalf("unexpected merge result: %+v", merged)
	}

	merged = MergeUser(existing, true, model.UserPayload{TelegramUserID: 5, IsBot: boolPtr(false)})
	if merged.IsBot {
		t.Fatalf("explicit is_bot must overwrite")
	}
}

func TestMergeMembershipDefaults(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	merged := MergeMembership(model.Membership{}, false, model.MembershipPatch{}, now)
	if merged.Role != enums.RoleMember || merged.Status != enums.MemberStatusMember {
		t.Fatalf("defaults must be member/member, got %s/%s", merged.Role, merged.Status)
	}
	if !merged.JoinedAt.Equal(now) || merged.LeftAt != nil {
		t.Fatalf("unexpected timestamps: %+v", merged)
	}
}

func TestMergeMembershipStatusImpliesRole(t *testing.T) {
	now := time.Now().UTC()

	banned := MergeMembership(model.Membership{}, false, model.MembershipPatch{
		Status: statusPtr(enums.MemberStatusBanned),
	}, now)
	if banned.Role != enums.RoleKicked {
		t.Fatalf("status=banned must imply role=kicked, got %s", banned.Role)
	}

	left := MergeMembership(model.Membership{}, false, model.MembershipPatch{
		Status: statusPtr(enums.MemberStatusLeft),
	}, now)
	if left.Role != enums.RoleLeft {
		t.Fatalf("status=left must imply role=left, got %s", left.Role)
	}
}

func TestMergeMembershipLeftAtSetOncePerTransition(t *testing.T) {
	t1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	t3 := t1.Add(2 * time.Hour)

	m := MergeMembership(model.Membership{}, false, model.MembershipPatch{}, t1)

	m = MergeMembership(m, true, model.MembershipPatch{Status: statusPtr(enums.MemberStatusLeft)}, t2)
	if m.LeftAt == nil || !m.LeftAt.Equal(t2) {
		t.Fatalf("transition into left must set left_at, got %v", m.LeftAt)
	}

	// Replay of the same event is not a transition.
	m = MergeMembership(m, true, model.MembershipPatch{Status: statusPtr(enums.MemberStatusLeft)}, t3)
	if !m.LeftAt.Equal(t2) {
		t.Fatalf("replay must not move left_at, got %v", m.LeftAt)
	}

	// Rejoin preserves left_at.
	m = MergeMembership(m, true, model.MembershipPatch{
		Role:   rolePtr(enums.RoleMember),
		Status: statusPtr(enums.MemberStatusMember),
	}, t3)
	if m.LeftAt == nil || !m.LeftAt.Equal(t2) {
		t.Fatalf("rejoin must preserve left_at, got %v", m.LeftAt)
	}
}

func TestMergeMembershipLastWriteWins(t *testing.T) {
	now := time.Now().UTC()

	m := MergeMembership(model.Membership{}, false, model.MembershipPatch{
		Role:   rolePtr(enums.RoleAdministrator),
		Status: statusPtr(enums.MemberStatusMember),
	}, now)
	m = MergeMembership(m, true, model.MembershipPatch{IsMuted: boolPtr(true)}, now)

	if m.Role != enums.RoleAdministrator || !m.IsMuted {
		t.Fatalf("later patch must layer over earlier effect: %+v", m)
	}
}
