package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ivankudzin/tgrelay/internal/domain/model"
	pgrepo "github.com/ivankudzin/tgrelay/internal/repo/postgres"
	memberssvc "github.com/ivankudzin/tgrelay/internal/services/members"
	"github.com/ivankudzin/tgrelay/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/tgrelay/internal/transport/http/errors"
)

type MembersHandler struct {
	members *memberssvc.Service
}

func NewMembersHandler(members *memberssvc.Service) *MembersHandler {
	return &MembersHandler{members: members}
}

func (h *MembersHandler) ListChats(w http.ResponseWriter, r *http.Request) {
	if h.members == nil {
		writeInternal(w, "MEMBERS_SERVICE_UNAVAILABLE", "members service is unavailable")
		return
	}

	botID, ok := botIDFromRequest(r)
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "invalid bot id")
		return
	}

	chats, err := h.members.ListChats(r.Context(), botID)
	if err != nil {
		h.writeMembersError(w, err)
		return
	}

	resp := dto.ChatListResponse{Chats: make([]dto.ChatResponse, 0, len(chats))}
	for _, chat := range chats {
		resp.Chats = append(resp.Chats, chatResponse(chat))
	}
	httperrors.Write(w, http.StatusOK, resp)
}

func (h *MembersHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	if h.members == nil {
		writeInternal(w, "MEMBERS_SERVICE_UNAVAILABLE", "members service is unavailable")
		return
	}

	botID, ok := botIDFromRequest(r)
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "invalid bot id")
		return
	}
	chatID, ok := chatIDFromRequest(r)
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "invalid chat id")
		return
	}

	filter := pgrepo.MemberFilter(r.URL.Query().Get("filter"))
	if filter == "all" {
		filter = pgrepo.MemberFilterAll
	}

	records, err := h.members.ListMembers(r.Context(), botID, chatID, filter)
	if err != nil {
		h.writeMembersError(w, err)
		return
	}

	resp := dto.MemberListResponse{Members: make([]dto.MemberResponse, 0, len(records))}
	for _, rec := range records {
		resp.Members = append(resp.Members, memberResponse(rec))
	}
	httperrors.Write(w, http.StatusOK, resp)
}

func (h *MembersHandler) ChatStats(w http.ResponseWriter, r *http.Request) {
	if h.members == nil {
		writeInternal(w, "MEMBERS_SERVICE_UNAVAILABLE", "members service is unavailable")
		return
	}

	botID, ok := botIDFromRequest(r)
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "invalid bot id")
		return
	}
	chatID, ok := chatIDFromRequest(r)
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "invalid chat id")
		return
	}

	stats, err := h.members.ChatStats(r.Context(), botID, chatID)
	if err != nil {
		h.writeMembersError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ChatStatsResponse{
		Chat:          chatResponse(stats.Chat),
		TotalMembers:  stats.Stats.Total,
		Bots:          stats.Stats.Bots,
		Humans:        stats.Stats.Humans,
		Admins:        stats.Stats.Admins,
		ActiveMembers: stats.Stats.Active,
		LeftMembers:   stats.Stats.Left,
		BannedMembers: stats.Stats.Banned,
		MutedMembers:  stats.Stats.Muted,
	})
}

func (h *MembersHandler) AuditLog(w http.ResponseWriter, r *http.Request) {
	if h.members == nil {
		writeInternal(w, "MEMBERS_SERVICE_UNAVAILABLE", "members service is unavailable")
		return
	}

	botID, ok := botIDFromRequest(r)
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "invalid bot id")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeBadRequest(w, "INVALID_REQUEST", "invalid limit")
			return
		}
		limit = n
	}

	entries, err := h.members.AuditLog(r.Context(), botID, limit)
	if err != nil {
		h.writeMembersError(w, err)
		return
	}

	resp := dto.AuditListResponse{Actions: make([]dto.ActionLogResponse, 0, len(entries))}
	for _, entry := range entries {
		resp.Actions = append(resp.Actions, dto.ActionLogResponse{
			ID:             entry.ID,
			ChatID:         entry.ChatID,
			UserTelegramID: entry.UserTelegramID,
			Action:         string(entry.Action),
			Reason:         entry.Reason,
			CreatedAt:      entry.CreatedAt,
		})
	}
	httperrors.Write(w, http.StatusOK, resp)
}

func (h *MembersHandler) writeMembersError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pgrepo.ErrBotNotFound):
		writeNotFound(w, "BOT_NOT_FOUND", "bot is not registered")
	case errors.Is(err, pgrepo.ErrChatNotFound):
		writeNotFound(w, "CHAT_NOT_FOUND", "chat is not tracked for this bot")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}

func chatIDFromRequest(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "chatID"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

func chatResponse(chat model.Chat) dto.ChatResponse {
	return dto.ChatResponse{
		ID:             chat.ID,
		TelegramChatID: chat.TelegramChatID,
		Title:          chat.Title,
		Kind:           string(chat.Kind),
		Username:       chat.Username,
		LastSeen:       chat.LastSeen,
	}
}

func memberResponse(rec pgrepo.MemberRecord) dto.MemberResponse {
	return dto.MemberResponse{
		TelegramUserID: rec.User.TelegramUserID,
		FirstName:      rec.User.FirstName,
		LastName:       rec.User.LastName,
		Username:       rec.User.Username,
		IsBot:          rec.User.IsBot,
		Role:           string(rec.Membership.Role),
		Status:         string(rec.Membership.Status),
		IsMuted:        rec.Membership.IsMuted,
		JoinedAt:       rec.Membership.JoinedAt,
		LeftAt:         rec.Membership.LeftAt,
		LastSeen:       rec.Membership.LastSeen,
	}
}
