package members

import (
	"context"
	"fmt"

	"github.com/ivankudzin/tgrelay/internal/domain/model"
	pgrepo "github.com/ivankudzin/tgrelay/internal/repo/postgres"
)

const defaultAuditLimit = 50

type BotStore interface {
	GetByID(ctx context.Context, botID int64) (model.Bot, error)
}

type ChatStore interface {
	ListForBot(ctx context.Context, botID int64) ([]model.Chat, error)
	FindByTelegramID(ctx context.Context, botID, telegramChatID int64) (model.Chat, error)
}

type MembershipStore interface {
	ListForChat(ctx context.Context, botID, chatID int64, filter pgrepo.MemberFilter) ([]pgrepo.MemberRecord, error)
	StatsForChat(ctx context.Context, botID, chatID int64) (pgrepo.ChatStatsRecord, error)
}

type AuditStore interface {
	ListForBot(ctx context.Context, botID int64, limit int) ([]model.ActionLog, error)
}

// Service answers read queries over the reconciled ledger. Unknown
// bots and chats surface the repo not-found sentinels unchanged.
type Service struct {
	bots        BotStore
	chats       ChatStore
	memberships MembershipStore
	audit       AuditStore
}

type ChatStats struct {
	Chat  model.Chat
	Stats pgrepo.ChatStatsRecord
}

func NewService(bots BotStore, chats ChatStore, memberships MembershipStore, audit AuditStore) *Service {
	return &Service{
		bots:        bots,
		chats:       chats,
		memberships: memberships,
		audit:       audit,
	}
}

func (s *Service) ListChats(ctx context.Context, botID int64) ([]model.Chat, error) {
	if s.bots == nil || s.chats == nil {
		return nil, fmt.Errorf("members service dependencies are not configured")
	}

	if _, err := s.bots.GetByID(ctx, botID); err != nil {
		return nil, err
	}
	return s.chats.ListForBot(ctx, botID)
}

// ListMembers lists the members of one chat, identified by its
// platform chat id, optionally filtered to bots, humans or admins.
func (s *Service) ListMembers(ctx context.Context, botID, telegramChatID int64, filter pgrepo.MemberFilter) ([]pgrepo.MemberRecord, error) {
	if s.bots == nil || s.chats == nil || s.memberships == nil {
		return nil, fmt.Errorf("members service dependencies are not configured")
	}

	switch filter {
	case pgrepo.MemberFilterAll, pgrepo.MemberFilterBots, pgrepo.MemberFilterHumans, pgrepo.MemberFilterAdmins:
	default:
		return nil, fmt.Errorf("unknown member filter %q", filter)
	}

	if _, err := s.bots.GetByID(ctx, botID); err != nil {
		return nil, err
	}

	chat, err := s.chats.FindByTelegramID(ctx, botID, telegramChatID)
	if err != nil {
		return nil, err
	}

	return s.memberships.ListForChat(ctx, botID, chat.ID, filter)
}

func (s *Service) ChatStats(ctx context.Context, botID, telegramChatID int64) (ChatStats, error) {
	if s.bots == nil || s.chats == nil || s.memberships == nil {
		return ChatStats{}, fmt.Errorf("members service dependencies are not configured")
	}

	if _, err := s.bots.GetByID(ctx, botID); err != nil {
		return ChatStats{}, err
	}

	chat, err := s.chats.FindByTelegramID(ctx, botID, telegramChatID)
	if err != nil {
		return ChatStats{}, err
	}

	stats, err := s.memberships.StatsForChat(ctx, botID, chat.ID)
	if err != nil {
		return ChatStats{}, err
	}

	return ChatStats{Chat: chat, Stats: stats}, nil
}

func (s *Service) AuditLog(ctx context.Context, botID int64, limit int) ([]model.ActionLog, error) {
	if s.bots == nil || s.audit == nil {
		return nil, fmt.Errorf("members service dependencies are not configured")
	}
	if limit <= 0 {
		limit = defaultAuditLimit
	}

	if _, err := s.bots.GetByID(ctx, botID); err != nil {
		return nil, err
	}
	return s.audit.ListForBot(ctx, botID, limit)
}
