package reconcile

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ivankudzin/tgrelay/internal/domain/model"
	"github.com/ivankudzin/tgrelay/internal/services/normalize"
)

// The engine applies events in arrival order and relies on last-write-
// wins upserts to stay consistent under replays. Distinct events
// delivered out of order can still misorder; there is no timestamp
// reconciliation.

type ChatStore interface {
	Upsert(ctx context.Context, botID int64, p model.ChatPayload) (model.Chat, error)
}

type UserStore interface {
	Upsert(ctx context.Context, p model.UserPayload) (model.User, error)
}

type MembershipStore interface {
	Upsert(ctx context.Context, botID, chatID, userID int64, patch model.MembershipPatch) (model.Membership, error)
}

type AuditStore interface {
	Append(ctx context.Context, entry model.ActionLog) error
}

type Service struct {
	chats       ChatStore
	users       UserStore
	memberships MembershipStore
	audit       AuditStore
	logger      *zap.Logger
}

func NewService(chats ChatStore, users UserStore, memberships MembershipStore, audit AuditStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		chats:       chats,
		users:       users,
		memberships: memberships,
		audit:       audit,
		logger:      logger,
	}
}

// Apply converges one canonical event into the store. Chat and user
// context are upserted first, then the membership row keyed by
// (bot, chat, user), then exactly one audit entry. Applying the same
// event again lands on the same row.
func (s *Service) Apply(ctx context.Context, botID int64, ev model.MembershipEvent) error {
	if s.chats == nil || s.users == nil || s.memberships == nil || s.audit == nil {
		return fmt.Errorf("reconcile service dependencies are not configured")
	}
	if botID <= 0 {
		return fmt.Errorf("invalid bot id")
	}

	var (
		chat    model.Chat
		user    model.User
		hasChat bool
		hasUser bool
	)

	if ev.Chat != nil {
		var err error
		chat, err = s.chats.Upsert(ctx, botID, *ev.Chat)
		if err != nil {
			return fmt.Errorf("upsert chat: %w", err)
		}
		hasChat = true
	}

	if ev.User != nil {
		var err error
		user, err = s.users.Upsert(ctx, *ev.User)
		if err != nil {
			return fmt.Errorf("upsert user: %w", err)
		}
		hasUser = true
	}

	if hasChat && hasUser && mutatesMembership(ev.Kind) {
		if _, err := s.memberships.Upsert(ctx, botID, chat.ID, user.ID, ev.Patch); err != nil {
			return fmt.Errorf("upsert membership: %w", err)
		}
	}

	entry := model.ActionLog{
		BotID:   botID,
		Action:  ev.Action,
		Reason:  ev.Reason,
		Payload: ev.Payload,
	}
	if hasChat {
		chatID := chat.ID
		entry.ChatID = &chatID
	}
	if hasUser {
		userTGID := user.TelegramUserID
		entry.UserTelegramID = &userTGID
	}

	if err := s.audit.Append(ctx, entry); err != nil {
		return fmt.Errorf("append action log: %w", err)
	}

	return nil
}

// ApplyAll applies events independently: a store failure on one event
// never blocks the rest of the batch.
func (s *Service) ApplyAll(ctx context.Context, botID int64, events []model.MembershipEvent) {
	for _, ev := range events {
		if err := s.Apply(ctx, botID, ev); err != nil {
			s.logger.Warn("event dropped",
				zap.Int64("bot_id", botID),
				zap.String("kind", string(ev.Kind)),
				zap.Error(err))
		}
	}
}

// ApplyUpdate runs one raw update through normalization and applies the
// result. Malformed updates are dropped with a warning.
func (s *Service) ApplyUpdate(ctx context.Context, botID int64, update tgbotapi.Update) error {
	events, err := normalize.Update(update)
	if err != nil {
		if errors.Is(err, normalize.ErrMalformedEvent) {
			s.logger.Warn("malformed update dropped",
				zap.Int64("bot_id", botID),
				zap.Int("update_id", update.UpdateID))
			return nil
		}
		return err
	}

	s.ApplyAll(ctx, botID, events)
	return nil
}

func mutatesMembership(kind model.EventKind) bool {
	switch kind {
	case model.EventMemberJoined, model.EventMemberLeft, model.EventRoleAssigned, model.EventMuteChanged:
		return true
	default:
		return false
	}
}
