package registry

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ivankudzin/tgrelay/internal/domain/enums"
	"github.com/ivankudzin/tgrelay/internal/domain/model"
	"github.com/ivankudzin/tgrelay/internal/services/normalize"
)

const (
	discoverUpdateLimit = 100
	memberCountCacheTTL = 5 * time.Minute
	webhookPathFormat   = "%s/webhook/%d"
)

type BotStore interface {
	Upsert(ctx context.Context, telegramID int64, username, token, webhookSecret string) (model.Bot, error)
	GetByID(ctx context.Context, botID int64) (model.Bot, error)
	List(ctx context.Context) ([]model.Bot, error)
	Delete(ctx context.Context, botID int64) error
}

type ChatStore interface {
	ListForBot(ctx context.Context, botID int64) ([]model.Chat, error)
	FindByTelegramID(ctx context.Context, botID, telegramChatID int64) (model.Chat, error)
}

type MembershipCounter interface {
	CountForBot(ctx context.Context, botID int64) (int64, error)
}

type AuditStore interface {
	Append(ctx context.Context, entry model.ActionLog) error
}

type CountCache interface {
	GetMemberCount(ctx context.Context, botID, telegramChatID int64) (int, bool, error)
	SetMemberCount(ctx context.Context, botID, telegramChatID int64, count int, ttl time.Duration) error
}

type Remote interface {
	GetMe(ctx context.Context, token string) (tgbotapi.User, error)
	GetUpdates(ctx context.Context, token string, offset int64, limit int) ([]tgbotapi.Update, error)
	GetChatAdministrators(ctx context.Context, token string, chatID int64) ([]tgbotapi.ChatMember, error)
	GetChatMemberCount(ctx context.Context, token string, chatID int64) (int, error)
	SetWebhook(ctx context.Context, token, url, secretToken string) error
	DeleteWebhook(ctx context.Context, token string) error
	GetWebhookInfo(ctx context.Context, token string) (tgbotapi.WebhookInfo, error)
}

// Pipeline is the normalize-and-reconcile path shared with the webhook
// transport and the poller.
type Pipeline interface {
	ApplyUpdate(ctx context.Context, botID int64, update tgbotapi.Update) error
	ApplyAll(ctx context.Context, botID int64, events []model.MembershipEvent)
}

type Service struct {
	bots        BotStore
	chats       ChatStore
	memberships MembershipCounter
	audit       AuditStore
	cache       CountCache
	remote      Remote
	pipeline    Pipeline
	logger      *zap.Logger
}

type BotInfo struct {
	Bot          model.Bot
	TotalChats   int
	TotalMembers int64
}

type ChatSyncResult struct {
	TelegramChatID int64
	AdminsSynced   int
	MemberCount    int
}

func NewService(bots BotStore, chats ChatStore, memberships MembershipCounter, audit AuditStore, cache CountCache, remote Remote, pipeline Pipeline, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		bots:        bots,
		chats:       chats,
		memberships: memberships,
		audit:       audit,
		cache:       cache,
		remote:      remote,
		pipeline:    pipeline,
		logger:      logger,
	}
}

// Register validates the token against getMe and upserts the bot.
// Re-registering an existing bot rotates its token in place. A fresh
// webhook secret is generated per registration attempt; the store
// keeps the first one so an already-connected webhook stays valid.
func (s *Service) Register(ctx context.Context, token string) (model.Bot, error) {
	if s.bots == nil || s.remote == nil {
		return model.Bot{}, fmt.Errorf("registry service dependencies are not configured")
	}
	if token == "" {
		return model.Bot{}, fmt.Errorf("token is required")
	}

	me, err := s.remote.GetMe(ctx, token)
	if err != nil {
		return model.Bot{}, fmt.Errorf("validate token: %w", err)
	}

	bot, err := s.bots.Upsert(ctx, me.ID, me.UserName, token, uuid.NewString())
	if err != nil {
		return model.Bot{}, err
	}

	// Best effort: pick up chats the bot already saw before webhooks
	// are connected. Failures here must not fail registration.
	if err := s.DiscoverChats(ctx, bot); err != nil {
		s.logger.Warn("chat discovery failed", zap.Int64("bot_id", bot.ID), zap.Error(err))
	}

	return bot, nil
}

func (s *Service) GetBot(ctx context.Context, botID int64) (model.Bot, error) {
	if s.bots == nil {
		return model.Bot{}, fmt.Errorf("registry service dependencies are not configured")
	}
	return s.bots.GetByID(ctx, botID)
}

func (s *Service) ListBots(ctx context.Context) ([]model.Bot, error) {
	if s.bots == nil {
		return nil, fmt.Errorf("registry service dependencies are not configured")
	}
	return s.bots.List(ctx)
}

// BotInfo returns the bot row plus tracked chat and membership counts.
func (s *Service) BotInfo(ctx context.Context, botID int64) (BotInfo, error) {
	bot, err := s.GetBot(ctx, botID)
	if err != nil {
		return BotInfo{}, err
	}

	chats, err := s.chats.ListForBot(ctx, botID)
	if err != nil {
		return BotInfo{}, err
	}

	members, err := s.memberships.CountForBot(ctx, botID)
	if err != nil {
		return BotInfo{}, err
	}

	return BotInfo{Bot: bot, TotalChats: len(chats), TotalMembers: members}, nil
}

// DeleteBot removes the bot and everything it owns.
func (s *Service) DeleteBot(ctx context.Context, botID int64) error {
	if s.bots == nil {
		return fmt.Errorf("registry service dependencies are not configured")
	}
	return s.bots.Delete(ctx, botID)
}

// Connect points Telegram's webhook at publicBaseURL/webhook/{botID},
// authenticated by the bot's stored secret token.
func (s *Service) Connect(ctx context.Context, botID int64, publicBaseURL string) (string, error) {
	if publicBaseURL == "" {
		return "", fmt.Errorf("public base url is required")
	}

	bot, err := s.GetBot(ctx, botID)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf(webhookPathFormat, publicBaseURL, bot.ID)
	if err := s.remote.SetWebhook(ctx, bot.Token, url, bot.WebhookSecret); err != nil {
		return "", fmt.Errorf("set webhook: %w", err)
	}

	s.auditEvent(ctx, bot.ID, enums.ActionWebhookConnected)
	return url, nil
}

func (s *Service) Disconnect(ctx context.Context, botID int64) error {
	bot, err := s.GetBot(ctx, botID)
	if err != nil {
		return err
	}

	if err := s.remote.DeleteWebhook(ctx, bot.Token); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}

	s.auditEvent(ctx, bot.ID, enums.ActionWebhookDisconnected)
	return nil
}

func (s *Service) WebhookStatus(ctx context.Context, botID int64) (tgbotapi.WebhookInfo, error) {
	bot, err := s.GetBot(ctx, botID)
	if err != nil {
		return tgbotapi.WebhookInfo{}, err
	}

	info, err := s.remote.GetWebhookInfo(ctx, bot.Token)
	if err != nil {
		return tgbotapi.WebhookInfo{}, fmt.Errorf("get webhook info: %w", err)
	}
	return info, nil
}

// DiscoverChats drains recent updates through the reconciliation
// pipeline without confirming an offset, so a later poller run still
// sees them.
func (s *Service) DiscoverChats(ctx context.Context, bot model.Bot) error {
	if s.pipeline == nil {
		return fmt.Errorf("registry service dependencies are not configured")
	}

	updates, err := s.remote.GetUpdates(ctx, bot.Token, 0, discoverUpdateLimit)
	if err != nil {
		return fmt.Errorf("get updates: %w", err)
	}

	for _, update := range updates {
		if err := s.pipeline.ApplyUpdate(ctx, bot.ID, update); err != nil {
			s.logger.Warn("discovered update dropped",
				zap.Int64("bot_id", bot.ID),
				zap.Int("update_id", update.UpdateID),
				zap.Error(err))
		}
	}

	return nil
}

// SyncChat refreshes one chat: the admin list becomes a snapshot of
// role assignments (promotion only, absentees keep their role) and the
// member count is fetched through the cache.
func (s *Service) SyncChat(ctx context.Context, bot model.Bot, telegramChatID int64) (ChatSyncResult, error) {
	if s.pipeline == nil || s.remote == nil {
		return ChatSyncResult{}, fmt.Errorf("registry service dependencies are not configured")
	}

	admins, err := s.remote.GetChatAdministrators(ctx, bot.Token, telegramChatID)
	if err != nil {
		return ChatSyncResult{}, fmt.Errorf("get administrators: %w", err)
	}

	events := normalize.AdminSnapshot(model.ChatPayload{TelegramChatID: telegramChatID}, admins)
	s.pipeline.ApplyAll(ctx, bot.ID, events)

	count, err := s.memberCount(ctx, bot, telegramChatID)
	if err != nil {
		s.logger.Warn("member count fetch failed",
			zap.Int64("bot_id", bot.ID),
			zap.Int64("chat_id", telegramChatID),
			zap.Error(err))
		count = 0
	}

	return ChatSyncResult{
		TelegramChatID: telegramChatID,
		AdminsSynced:   len(events),
		MemberCount:    count,
	}, nil
}

// SyncAllChats runs SyncChat across every chat tracked for the bot.
// Per-chat failures are collected as skips, not aborts.
func (s *Service) SyncAllChats(ctx context.Context, bot model.Bot) ([]ChatSyncResult, error) {
	chats, err := s.chats.ListForBot(ctx, bot.ID)
	if err != nil {
		return nil, err
	}

	results := make([]ChatSyncResult, 0, len(chats))
	for _, chat := range chats {
		result, err := s.SyncChat(ctx, bot, chat.TelegramChatID)
		if err != nil {
			s.logger.Warn("chat sync skipped",
				zap.Int64("bot_id", bot.ID),
				zap.Int64("chat_id", chat.TelegramChatID),
				zap.Error(err))
			continue
		}
		results = append(results, result)
	}

	return results, nil
}

func (s *Service) memberCount(ctx context.Context, bot model.Bot, telegramChatID int64) (int, error) {
	if s.cache != nil {
		count, found, err := s.cache.GetMemberCount(ctx, bot.ID, telegramChatID)
		if err == nil && found {
			return count, nil
		}
	}

	count, err := s.remote.GetChatMemberCount(ctx, bot.Token, telegramChatID)
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		if err := s.cache.SetMemberCount(ctx, bot.ID, telegramChatID, count, memberCountCacheTTL); err != nil {
			s.logger.Warn("member count cache write failed", zap.Int64("bot_id", bot.ID), zap.Error(err))
		}
	}

	return count, nil
}

func (s *Service) auditEvent(ctx context.Context, botID int64, action enums.Action) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Append(ctx, model.ActionLog{BotID: botID, Action: action}); err != nil {
		s.logger.Warn("audit append failed", zap.Int64("bot_id", botID), zap.Error(err))
	}
}
