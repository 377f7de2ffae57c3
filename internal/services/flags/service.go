package flags

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ivankudzin/tgrelay/internal/domain/enums"
	"github.com/ivankudzin/tgrelay/internal/domain/model"
	"github.com/ivankudzin/tgrelay/internal/services/moderate"
)

const (
	DefaultThreshold = 3
	DefaultMuteFor   = time.Hour
)

type FlagStore interface {
	Bump(ctx context.Context, botID, chatID, userID int64, threshold int) (int, bool, error)
}

type ChatStore interface {
	FindByTelegramID(ctx context.Context, botID, telegramChatID int64) (model.Chat, error)
}

type UserStore interface {
	FindByTelegramID(ctx context.Context, telegramUserID int64) (model.User, error)
}

type Moderator interface {
	Moderate(ctx context.Context, bot model.Bot, chatID, userID int64, action enums.Action, opts moderate.Options) error
}

type AuditStore interface {
	Append(ctx context.Context, entry model.ActionLog) error
}

// Service counts flags per chat member and mutes automatically when
// the counter crosses the threshold. The counter lives in the store,
// not in process memory, so it survives restarts and resets exactly
// once per crossing.
type Service struct {
	flags     FlagStore
	chats     ChatStore
	users     UserStore
	moderator Moderator
	audit     AuditStore
	logger    *zap.Logger

	threshold int
	muteFor   time.Duration
}

type FlagResult struct {
	Count     int
	Triggered bool
	Muted     bool
}

func NewService(flags FlagStore, chats ChatStore, users UserStore, moderator Moderator, audit AuditStore, threshold int, muteFor time.Duration, logger *zap.Logger) *Service {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if muteFor <= 0 {
		muteFor = DefaultMuteFor
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		flags:     flags,
		chats:     chats,
		users:     users,
		moderator: moderator,
		audit:     audit,
		logger:    logger,
		threshold: threshold,
		muteFor:   muteFor,
	}
}

// Flag records one complaint against a chat member. Crossing the
// threshold mutes the member for the configured window and resets the
// counter. A failed auto-mute is reported in the result, not as an
// error: the flag itself was recorded.
func (s *Service) Flag(ctx context.Context, bot model.Bot, telegramChatID, telegramUserID int64, reason string) (FlagResult, error) {
	if s.flags == nil || s.chats == nil || s.users == nil || s.moderator == nil || s.audit == nil {
		return FlagResult{}, fmt.Errorf("flags service dependencies are not configured")
	}

	chat, err := s.chats.FindByTelegramID(ctx, bot.ID, telegramChatID)
	if err != nil {
		return FlagResult{}, err
	}

	user, err := s.users.FindByTelegramID(ctx, telegramUserID)
	if err != nil {
		return FlagResult{}, err
	}

	count, triggered, err := s.flags.Bump(ctx, bot.ID, chat.ID, user.ID, s.threshold)
	if err != nil {
		return FlagResult{}, err
	}

	chatID := chat.ID
	userTGID := user.TelegramUserID
	if err := s.audit.Append(ctx, model.ActionLog{
		BotID:          bot.ID,
		ChatID:         &chatID,
		UserTelegramID: &userTGID,
		Action:         enums.ActionFlag,
		Reason:         reason,
	}); err != nil {
		s.logger.Warn("flag audit append failed", zap.Int64("bot_id", bot.ID), zap.Error(err))
	}

	result := FlagResult{Count: count, Triggered: triggered}
	if !triggered {
		return result, nil
	}

	muteReason := fmt.Sprintf("auto mute after %d flags", s.threshold)
	if err := s.moderator.Moderate(ctx, bot, telegramChatID, telegramUserID, enums.ActionMute, moderate.Options{
		Duration: s.muteFor,
		Reason:   muteReason,
	}); err != nil {
		s.logger.Warn("auto mute failed",
			zap.Int64("bot_id", bot.ID),
			zap.Int64("chat_id", telegramChatID),
			zap.Int64("user_id", telegramUserID),
			zap.Error(err))
		return result, nil
	}
	result.Muted = true

	if err := s.audit.Append(ctx, model.ActionLog{
		BotID:          bot.ID,
		ChatID:         &chatID,
		UserTelegramID: &userTGID,
		Action:         enums.ActionAutoMute,
		Reason:         muteReason,
	}); err != nil {
		s.logger.Warn("auto mute audit append failed", zap.Int64("bot_id", bot.ID), zap.Error(err))
	}

	return result, nil
}
