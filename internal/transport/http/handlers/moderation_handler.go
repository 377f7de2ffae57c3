package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/ivankudzin/tgrelay/internal/domain/enums"
	pgrepo "github.com/ivankudzin/tgrelay/internal/repo/postgres"
	flagssvc "github.com/ivankudzin/tgrelay/internal/services/flags"
	moderatesvc "github.com/ivankudzin/tgrelay/internal/services/moderate"
	registrysvc "github.com/ivankudzin/tgrelay/internal/services/registry"
	"github.com/ivankudzin/tgrelay/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/tgrelay/internal/transport/http/errors"
)

type ModerationHandler struct {
	registry  *registrysvc.Service
	moderator *moderatesvc.Service
	flags     *flagssvc.Service
}

func NewModerationHandler(registry *registrysvc.Service, moderator *moderatesvc.Service, flags *flagssvc.Service) *ModerationHandler {
	return &ModerationHandler{registry: registry, moderator: moderator, flags: flags}
}

func (h *ModerationHandler) Ban(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, enums.ActionBan)
}

func (h *ModerationHandler) Unban(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, enums.ActionUnban)
}

func (h *ModerationHandler) Mute(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, enums.ActionMute)
}

func (h *ModerationHandler) Unmute(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, enums.ActionUnmute)
}

func (h *ModerationHandler) Kick(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, enums.ActionKick)
}

func (h *ModerationHandler) moderate(w http.ResponseWriter, r *http.Request, action enums.Action) {
	if h.registry == nil || h.moderator == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	botID, ok := botIDFromRequest(r)
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "invalid bot id")
		return
	}

	var req dto.ModerateRequest
	if err := decodeJSON(r, &req); err != nil || req.ChatID == 0 || req.UserID <= 0 {
		writeBadRequest(w, "INVALID_REQUEST", "chat_id and user_id are required")
		return
	}

	bot, err := h.registry.GetBot(r.Context(), botID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrBotNotFound) {
			writeNotFound(w, "BOT_NOT_FOUND", "bot is not registered")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
		return
	}

	err = h.moderator.Moderate(r.Context(), bot, req.ChatID, req.UserID, action, moderatesvc.Options{
		Duration: time.Duration(req.UntilSeconds) * time.Second,
		Reason:   req.Reason,
	})
	if err != nil {
		switch {
		case errors.Is(err, moderatesvc.ErrKickIncomplete):
			// The ban half stands; the caller may retry the unban.
			writeBadGateway(w, "KICK_INCOMPLETE", "user banned but unban failed")
		case errors.Is(err, moderatesvc.ErrRemoteCall):
			writeBadGateway(w, "TELEGRAM_ERROR", "telegram rejected the action")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to apply moderation action")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ModerateResponse{OK: true})
}

func (h *ModerationHandler) Flag(w http.ResponseWriter, r *http.Request) {
	if h.registry == nil || h.flags == nil {
		writeInternal(w, "FLAGS_SERVICE_UNAVAILABLE", "flags service is unavailable")
		return
	}

	botID, ok := botIDFromRequest(r)
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "invalid bot id")
		return
	}

	var req dto.FlagRequest
	if err := decodeJSON(r, &req); err != nil || req.ChatID == 0 || req.UserID <= 0 {
		writeBadRequest(w, "INVALID_REQUEST", "chat_id and user_id are required")
		return
	}

	bot, err := h.registry.GetBot(r.Context(), botID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrBotNotFound) {
			writeNotFound(w, "BOT_NOT_FOUND", "bot is not registered")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
		return
	}

	result, err := h.flags.Flag(r.Context(), bot, req.ChatID, req.UserID, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, pgrepo.ErrChatNotFound):
			writeNotFound(w, "CHAT_NOT_FOUND", "chat is not tracked for this bot")
		case errors.Is(err, pgrepo.ErrUserNotFound):
			writeNotFound(w, "USER_NOT_FOUND", "user has not been observed")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to record flag")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.FlagResponse{
		Count:     result.Count,
		Triggered: result.Triggered,
		Muted:     result.Muted,
	})
}
