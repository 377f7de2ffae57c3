package moderate

import (
	"context"
	"errors"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ivankudzin/tgrelay/internal/domain/enums"
	"github.com/ivankudzin/tgrelay/internal/domain/model"
)

var (
	ErrRemoteCall        = errors.New("remote call failed")
	ErrKickIncomplete    = errors.New("kick incomplete")
	ErrUnsupportedAction = errors.New("unsupported moderation action")
)

// RemoteClient is the outbound half of a moderation action.
type RemoteClient interface {
	BanChatMember(ctx context.Context, token string, chatID, userID int64, untilDate int64) error
	UnbanChatMember(ctx context.Context, token string, chatID, userID int64) error
	RestrictChatMember(ctx context.Context, token string, chatID, userID int64, permissions tgbotapi.ChatPermissions, untilDate int64) error
}

// Applier feeds the synthetic post-action event back into the ledger.
type Applier interface {
	Apply(ctx context.Context, botID int64, ev model.MembershipEvent) error
}

type Options struct {
	// Duration limits a ban or mute. Zero means indefinite. Converted
	// to an absolute expiry before the remote call.
	Duration time.Duration
	Reason   string
}

type Service struct {
	remote     RemoteClient
	reconciler Applier
	now        func() time.Time
}

func NewService(remote RemoteClient, reconciler Applier) *Service {
	return &Service{
		remote:     remote,
		reconciler: reconciler,
		now:        time.Now,
	}
}

// Moderate executes one action against the remote platform and, only
// after the remote call succeeds, records its membership effect as a
// synthetic event. A remote failure mutates nothing locally.
func (s *Service) Moderate(ctx context.Context, bot model.Bot, chatID, userID int64, action enums.Action, opts Options) error {
	if s.remote == nil || s.reconciler == nil {
		return fmt.Errorf("moderate service dependencies are not configured")
	}
	if chatID == 0 || userID <= 0 {
		return fmt.Errorf("invalid chat or user id")
	}

	switch action {
	case enums.ActionBan:
		return s.ban(ctx, bot, chatID, userID, opts)
	case enums.ActionUnban:
		return s.unban(ctx, bot, chatID, userID, opts)
	case enums.ActionMute:
		return s.mute(ctx, bot, chatID, userID, opts)
	case enums.ActionUnmute:
		return s.unmute(ctx, bot, chatID, userID, opts)
	case enums.ActionKick:
		return s.kick(ctx, bot, chatID, userID, opts)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedAction, action)
	}
}

func (s *Service) ban(ctx context.Context, bot model.Bot, chatID, userID int64, opts Options) error {
	if err := s.remote.BanChatMember(ctx, bot.Token, chatID, userID, s.expiry(opts.Duration)); err != nil {
		return fmt.Errorf("%w: ban: %w", ErrRemoteCall, err)
	}

	return s.applyEffect(ctx, bot.ID, chatID, userID,
		enums.RoleKicked, enums.MemberStatusBanned, nil, enums.ActionBan, opts.Reason)
}

func (s *Service) unban(ctx context.Context, bot model.Bot, chatID, userID int64, opts Options) error {
	if err := s.remote.UnbanChatMember(ctx, bot.Token, chatID, userID); err != nil {
		return fmt.Errorf("%w: unban: %w", ErrRemoteCall, err)
	}

	return s.applyEffect(ctx, bot.ID, chatID, userID,
		enums.RoleLeft, enums.MemberStatusLeft, nil, enums.ActionUnban, opts.Reason)
}

func (s *Service) mute(ctx context.Context, bot model.Bot, chatID, userID int64, opts Options) error {
	if err := s.remote.RestrictChatMember(ctx, bot.Token, chatID, userID, mutedPermissions(), s.expiry(opts.Duration)); err != nil {
		return fmt.Errorf("%w: mute: %w", ErrRemoteCall, err)
	}

	muted := true
	return s.applyEffect(ctx, bot.ID, chatID, userID,
		enums.RoleRestricted, enums.MemberStatusRestricted, &muted, enums.ActionMute, opts.Reason)
}

func (s *Service) unmute(ctx context.Context, bot model.Bot, chatID, userID int64, opts Options) error {
	if err := s.remote.RestrictChatMember(ctx, bot.Token, chatID, userID, grantedPermissions(), 0); err != nil {
		return fmt.Errorf("%w: unmute: %w", ErrRemoteCall, err)
	}

	muted := false
	return s.applyEffect(ctx, bot.ID, chatID, userID,
		enums.RoleMember, enums.MemberStatusMember, &muted, enums.ActionUnmute, opts.Reason)
}

// kick is ban immediately followed by unban so the user can rejoin. If
// the unban half fails the ban stays in effect: the membership records
// the ban and the caller gets ErrKickIncomplete to decide on a retry.
func (s *Service) kick(ctx context.Context, bot model.Bot, chatID, userID int64, opts Options) error {
	if err := s.remote.BanChatMember(ctx, bot.Token, chatID, userID, 0); err != nil {
		return fmt.Errorf("%w: kick ban: %w", ErrRemoteCall, err)
	}

	if err := s.remote.UnbanChatMember(ctx, bot.Token, chatID, userID); err != nil {
		if applyErr := s.applyEffect(ctx, bot.ID, chatID, userID,
			enums.RoleKicked, enums.MemberStatusBanned, nil, enums.ActionKick, opts.Reason); applyErr != nil {
			return applyErr
		}
		return fmt.Errorf("%w: unban: %w", ErrKickIncomplete, err)
	}

	return s.applyEffect(ctx, bot.ID, chatID, userID,
		enums.RoleLeft, enums.MemberStatusLeft, nil, enums.ActionKick, opts.Reason)
}

func (s *Service) applyEffect(ctx context.Context, botID, chatID, userID int64, role enums.Role, status enums.MemberStatus, muted *bool, action enums.Action, reason string) error {
	ev := model.MembershipEvent{
		Kind:   model.EventRoleAssigned,
		Chat:   &model.ChatPayload{TelegramChatID: chatID},
		User:   &model.UserPayload{TelegramUserID: userID},
		Patch:  model.MembershipPatch{Role: &role, Status: &status, IsMuted: muted},
		Action: action,
		Reason: reason,
	}
	if muted != nil {
		ev.Kind = model.EventMuteChanged
	}

	if err := s.reconciler.Apply(ctx, botID, ev); err != nil {
		return fmt.Errorf("record %s effect: %w", action, err)
	}
	return nil
}

func (s *Service) expiry(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return s.now().Add(d).Unix()
}

func mutedPermissions() tgbotapi.ChatPermissions {
	return tgbotapi.ChatPermissions{}
}

func grantedPermissions() tgbotapi.ChatPermissions {
	return tgbotapi.ChatPermissions{
		CanSendMessages:       true,
		CanSendMediaMessages:  true,
		CanSendPolls:          true,
		CanSendOtherMessages:  true,
		CanAddWebPagePreviews: true,
	}
}
