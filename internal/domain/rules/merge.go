package rules

import (
	"time"

	"github.com/ivankudzin/tgrelay/internal/domain/enums"
	"github.com/ivankudzin/tgrelay/internal/domain/model"
)

// Merge policy for upserts: an empty incoming field preserves the
// stored value, a non-empty one overwrites it. The postgres repos
// implement the same policy in SQL; these functions are the reference
// contract and back the in-memory store used in tests.

func MergeChat(existing model.Chat, exists bool, p model.ChatPayload, now time.Time) model.Chat {
	out := existing
	out.TelegramChatID = p.TelegramChatID
	if p.Title != "" {
		out.Title = p.Title
	}
	if p.Kind != "" {
		out.Kind = p.Kind
	}
	if p.Username != "" {
		out.Username = p.Username
	}
	if !exists && out.Title == "" {
		out.Title = out.Username
	}
	out.LastSeen = now
	return out
}

func MergeUser(existing model.User, exists bool, p model.UserPayload) model.User {
	out := existing
	out.TelegramUserID = p.TelegramUserID
	if p.FirstName != "" {
		out.FirstName = p.FirstName
	}
	if p.LastName != "" {
		out.LastName = p.LastName
	}
	if p.Username != "" {
		out.Username = p.Username
	}
	// is_bot overwrites only when the payload carried it explicitly.
	if p.IsBot != nil {
		out.IsBot = *p.IsBot
	}
	return out
}

// MergeMembership applies a patch over the current row. Creation uses
// member/member defaults with joined_at=now. left_at is set once per
// transition into left/banned and never cleared on rejoin.
func MergeMembership(existing model.Membership, exists bool, patch model.MembershipPatch, now time.Time) model.Membership {
	out := existing
	if !exists {
		out.Role = enums.RoleMember
		out.Status = enums.MemberStatusMember
		out.IsMuted = false
		out.JoinedAt = now
	}

	prevGone := exists && isGone(existing.Status)

	if patch.Role != nil {
		out.Role = *patch.Role
	}
	if patch.Status != nil {
		out.Status = *patch.Status
	}
	if patch.IsMuted != nil {
		out.IsMuted = *patch.IsMuted
	}

	// status=banned implies role=kicked, status=left implies role=left.
	switch out.Status {
	case enums.MemberStatusBanned:
		out.Role = enums.RoleKicked
	case enums.MemberStatusLeft:
		out.Role = enums.RoleLeft
	}

	if isGone(out.Status) && !prevGone {
		t := now
		out.LeftAt = &t
	}

	out.LastSeen = now
	return out
}

func isGone(status enums.MemberStatus) bool {
	return status == enums.MemberStatusLeft || status == enums.MemberStatusBanned
}
