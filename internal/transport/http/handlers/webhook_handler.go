package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	pgrepo "github.com/ivankudzin/tgrelay/internal/repo/postgres"
	reconcilesvc "github.com/ivankudzin/tgrelay/internal/services/reconcile"
	registrysvc "github.com/ivankudzin/tgrelay/internal/services/registry"
	"github.com/ivankudzin/tgrelay/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/tgrelay/internal/transport/http/errors"
)

const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// WebhookHandler receives Telegram's push callbacks. One update per
// request; the response is always 200 for accepted payloads so
// Telegram does not retry events we chose to drop.
type WebhookHandler struct {
	registry   *registrysvc.Service
	reconciler *reconcilesvc.Service
	logger     *zap.Logger
}

func NewWebhookHandler(registry *registrysvc.Service, reconciler *reconcilesvc.Service, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{registry: registry, reconciler: reconciler, logger: logger}
}

func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.registry == nil || h.reconciler == nil {
		writeInternal(w, "RELAY_UNAVAILABLE", "relay pipeline is unavailable")
		return
	}

	botID, ok := botIDFromRequest(r)
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "invalid bot id")
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

	if bot.WebhookSecret != "" && r.Header.Get(secretTokenHeader) != bot.WebhookSecret {
		httperrors.Write(w, http.StatusForbidden, httperrors.APIError{
			Code:    "FORBIDDEN",
			Message: "webhook secret mismatch",
		})
		return
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "malformed update payload")
		return
	}

	if err := h.reconciler.ApplyUpdate(r.Context(), bot.ID, update); err != nil {
		h.logger.Warn("webhook update failed",
			zap.Int64("bot_id", bot.ID),
			zap.Int("update_id", update.UpdateID),
			zap.Error(err))
		writeInternal(w, "INTERNAL_ERROR", "failed to process update")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}
