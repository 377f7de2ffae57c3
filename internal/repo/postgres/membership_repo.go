package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/tgrelay/internal/domain/enums"
	"github.com/ivankudzin/tgrelay/internal/domain/model"
)

type MemberFilter string

const (
	MemberFilterAll    MemberFilter = ""
	MemberFilterBots   MemberFilter = "bots"
	MemberFilterHumans MemberFilter = "humans"
	MemberFilterAdmins MemberFilter = "admins"
)

type MembershipRepo struct {
	pool *pgxpool.Pool
}

// MemberRecord is a membership row joined with its user, as served by
// the member listing queries.
type MemberRecord struct {
	Membership model.Membership
	User       model.User
}

type ChatStatsRecord struct {
	Total   int64
	Bots    int64
	Humans  int64
	Admins  int64
	Active  int64
	Left    int64
	Banned  int64
	Muted   int64
}

func NewMembershipRepo(pool *pgxpool.Pool) *MembershipRepo {
	return &MembershipRepo{pool: pool}
}

// Upsert applies a field patch to the (bot, chat, user) row, creating
// it with member/member defaults when absent. The SQL mirrors
// rules.MergeMembership: nil patch fields preserve stored values,
// left_at is set once per transition into left/banned, last_seen
// always refreshes. Single-statement, so atomic at the row level.
func (r *MembershipRepo) Upsert(ctx context.Context, botID, chatID, userID int64, patch model.MembershipPatch) (model.Membership, error) {
	if r.pool == nil {
		return model.Membership{}, fmt.Errorf("postgres pool is nil")
	}
	if botID <= 0 || chatID <= 0 || userID <= 0 {
		return model.Membership{}, fmt.Errorf("invalid membership key")
	}

	patch = normalizePatch(patch)

	var role, status *string
	if patch.Role != nil {
		s := string(*patch.Role)
		role = &s
	}
	if patch.Status != nil {
		s := string(*patch.Status)
		status = &s
	}

	var m model.Membership
	err := r.pool.QueryRow(ctx, `
INSERT INTO memberships (bot_id, chat_id, user_id, role, status, is_muted, joined_at, left_at, last_seen)
VALUES ($1, $2, $3, COALESCE($4, 'member'), COALESCE($5, 'member'), COALESCE($6, FALSE), NOW(),
	CASE WHEN COALESCE($5, 'member') IN ('left', 'banned') THEN NOW() END, NOW())
ON CONFLICT (bot_id, chat_id, user_id) DO UPDATE SET
	role = COALESCE($4, memberships.role),
	status = COALESCE($5, memberships.status),
	is_muted = COALESCE($6, memberships.is_muted),
	left_at = CASE
		WHEN COALESCE($5, memberships.status) IN ('left', 'banned')
			AND memberships.status NOT IN ('left', 'banned') THEN NOW()
		ELSE memberships.left_at
	END,
	last_seen = NOW()
RETURNING id, bot_id, chat_id, user_id, role, status, is_muted, joined_at, left_at, last_seen
`, botID, chatID, userID, role, status, patch.IsMuted).
		Scan(&m.ID, &m.BotID, &m.ChatID, &m.UserID, &m.Role, &m.Status, &m.IsMuted, &m.JoinedAt, &m.LeftAt, &m.LastSeen)
	if err != nil {
		return model.Membership{}, fmt.Errorf("upsert membership: %w", err)
	}

	return m, nil
}

// normalizePatch applies the role/status consistency rule before the
// row is written: status=banned forces role=kicked, status=left forces
// role=left.
func normalizePatch(patch model.MembershipPatch) model.MembershipPatch {
	if patch.Status == nil {
		return patch
	}
	switch *patch.Status {
	case enums.MemberStatusBanned:
		role := enums.RoleKicked
		patch.Role = &role
	case enums.MemberStatusLeft:
		role := enums.RoleLeft
		patch.Role = &role
	}
	return patch
}

func (r *MembershipRepo) ListForChat(ctx context.Context, botID, chatID int64, filter MemberFilter) ([]MemberRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	query := `
SELECT m.id, m.bot_id, m.chat_id, m.user_id, m.role, m.status, m.is_muted, m.joined_at, m.left_at, m.last_seen,
	u.id, u.telegram_user_id, u.first_name, u.last_name, u.username, u.is_bot
FROM memberships m
JOIN users u ON u.id = m.user_id
WHERE m.bot_id = $1 AND m.chat_id = $2
`
	switch filter {
	case MemberFilterBots:
		query += "AND u.is_bot\n"
	case MemberFilterHumans:
		query += "AND NOT u.is_bot\n"
	case MemberFilterAdmins:
		query += "AND m.role IN ('creator', 'administrator')\n"
	}
	query += "ORDER BY m.id"

	rows, err := r.pool.Query(ctx, query, botID, chatID)
	if err != nil {
		return nil, fmt.Errorf("list members for chat: %w", err)
	}
	defer rows.Close()

	var members []MemberRecord
	for rows.Next() {
		var rec MemberRecord
		if err := rows.Scan(
			&rec.Membership.ID, &rec.Membership.BotID, &rec.Membership.ChatID, &rec.Membership.UserID,
			&rec.Membership.Role, &rec.Membership.Status, &rec.Membership.IsMuted,
			&rec.Membership.JoinedAt, &rec.Membership.LeftAt, &rec.Membership.LastSeen,
			&rec.User.ID, &rec.User.TelegramUserID, &rec.User.FirstName, &rec.User.LastName,
			&rec.User.Username, &rec.User.IsBot,
		); err != nil {
			return nil, fmt.Errorf("scan member row: %w", err)
		}
		members = append(members, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate member rows: %w", err)
	}

	return members, nil
}

func (r *MembershipRepo) StatsForChat(ctx context.Context, botID, chatID int64) (ChatStatsRecord, error) {
	if r.pool == nil {
		return ChatStatsRecord{}, fmt.Errorf("postgres pool is nil")
	}

	var stats ChatStatsRecord
	err := r.pool.QueryRow(ctx, `
SELECT
	COUNT(*),
	COUNT(*) FILTER (WHERE u.is_bot),
	COUNT(*) FILTER (WHERE NOT u.is_bot),
	COUNT(*) FILTER (WHERE m.role IN ('creator', 'administrator')),
	COUNT(*) FILTER (WHERE m.status = 'member'),
	COUNT(*) FILTER (WHERE m.status = 'left'),
	COUNT(*) FILTER (WHERE m.status = 'banned'),
	COUNT(*) FILTER (WHERE m.is_muted)
FROM memberships m
JOIN users u ON u.id = m.user_id
WHERE m.bot_id = $1 AND m.chat_id = $2
`, botID, chatID).
		Scan(&stats.Total, &stats.Bots, &stats.Humans, &stats.Admins, &stats.Active, &stats.Left, &stats.Banned, &stats.Muted)
	if err != nil {
		return ChatStatsRecord{}, fmt.Errorf("chat member stats: %w", err)
	}

	return stats, nil
}

func (r *MembershipRepo) CountForBot(ctx context.Context, botID int64) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var count int64
	if err := r.pool.QueryRow(ctx, `
SELECT COUNT(*) FROM memberships WHERE bot_id = $1
`, botID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count memberships for bot: %w", err)
	}

	return count, nil
}
