package handlers

import (
	"errors"
	"net/http"

	"github.com/ivankudzin/tgrelay/internal/domain/model"
	pgrepo "github.com/ivankudzin/tgrelay/internal/repo/postgres"
	registrysvc "github.com/ivankudzin/tgrelay/internal/services/registry"
	"github.com/ivankudzin/tgrelay/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/tgrelay/internal/transport/http/errors"
)

type BotHandler struct {
	registry *registrysvc.Service
	// publicBaseURL is the configured default for webhook connects;
	// a request body value overrides it.
	publicBaseURL string
}

func NewBotHandler(registry *registrysvc.Service, publicBaseURL string) *BotHandler {
	return &BotHandler{registry: registry, publicBaseURL: publicBaseURL}
}

func (h *BotHandler) Register(w http.ResponseWriter, r *http.Request) {
	if h.registry == nil {
		writeInternal(w, "REGISTRY_SERVICE_UNAVAILABLE", "registry service is unavailable")
		return
	}

	var req dto.RegisterBotRequest
	if err := decodeJSON(r, &req); err != nil || req.Token == "" {
		writeBadRequest(w, "INVALID_REQUEST", "token is required")
		return
	}

	bot, err := h.registry.Register(r.Context(), req.Token)
	if err != nil {
		writeBadGateway(w, "TELEGRAM_ERROR", "token validation against telegram failed")
		return
	}

	httperrors.Write(w, http.StatusCreated, botResponse(bot))
}

func (h *BotHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.registry == nil {
		writeInternal(w, "REGISTRY_SERVICE_UNAVAILABLE", "registry service is unavailable")
		return
	}

	bots, err := h.registry.ListBots(r.Context())
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to list bots")
		return
	}

	resp := dto.BotListResponse{Bots: make([]dto.BotResponse, 0, len(bots))}
	for _, bot := range bots {
		resp.Bots = append(resp.Bots, botResponse(bot))
	}
	httperrors.Write(w, http.StatusOK, resp)
}

func (h *BotHandler) Info(w http.ResponseWriter, r *http.Request) {
	botID, ok := botIDFromRequest(r)
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "invalid bot id")
		return
	}

	info, err := h.registry.BotInfo(r.Context(), botID)
	if err != nil {
		h.writeRegistryError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.BotInfoResponse{
		BotResponse:  botResponse(info.Bot),
		TotalChats:   info.TotalChats,
		TotalMembers: info.TotalMembers,
	})
}

func (h *BotHandler) Delete(w http.ResponseWriter, r *http.Request) {
	botID, ok := botIDFromRequest(r)
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "invalid bot id")
		return
	}

	if err := h.registry.DeleteBot(r.Context(), botID); err != nil {
		h.writeRegistryError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *BotHandler) Connect(w http.ResponseWriter, r *http.Request) {
	botID, ok := botIDFromRequest(r)
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "invalid bot id")
		return
	}

	var req dto.ConnectRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeBadRequest(w, "INVALID_REQUEST", "malformed request body")
			return
		}
	}

	baseURL := req.PublicBaseURL
	if baseURL == "" {
		baseURL = h.publicBaseURL
	}
	if baseURL == "" {
		writeBadRequest(w, "INVALID_REQUEST", "public base url is not configured")
		return
	}

	url, err := h.registry.Connect(r.Context(), botID, baseURL)
	if err != nil {
		h.writeRegistryError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ConnectResponse{WebhookURL: url})
}

func (h *BotHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	botID, ok := botIDFromRequest(r)
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "invalid bot id")
		return
	}

	if err := h.registry.Disconnect(r.Context(), botID); err != nil {
		h.writeRegistryError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *BotHandler) WebhookStatus(w http.ResponseWriter, r *http.Request) {
	botID, ok := botIDFromRequest(r)
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "invalid bot id")
		return
	}

	info, err := h.registry.WebhookStatus(r.Context(), botID)
	if err != nil {
		h.writeRegistryError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.WebhookStatusResponse{
		URL:                info.URL,
		PendingUpdateCount: info.PendingUpdateCount,
		LastErrorDate:      info.LastErrorDate,
		LastErrorMessage:   info.LastErrorMessage,
	})
}

func (h *BotHandler) SyncAll(w http.ResponseWriter, r *http.Request) {
	botID, ok := botIDFromRequest(r)
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "invalid bot id")
		return
	}

	bot, err := h.registry.GetBot(r.Context(), botID)
	if err != nil {
		h.writeRegistryError(w, err)
		return
	}

	results, err := h.registry.SyncAllChats(r.Context(), bot)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "chat sync failed")
		return
	}

	resp := dto.SyncAllResponse{Chats: make([]dto.ChatSyncResponse, 0, len(results))}
	for _, result := range results {
		resp.Chats = append(resp.Chats, chatSyncResponse(result))
	}
	httperrors.Write(w, http.StatusOK, resp)
}

func (h *BotHandler) SyncChat(w http.ResponseWriter, r *http.Request) {
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

	bot, err := h.registry.GetBot(r.Context(), botID)
	if err != nil {
		h.writeRegistryError(w, err)
		return
	}

	result, err := h.registry.SyncChat(r.Context(), bot, chatID)
	if err != nil {
		writeBadGateway(w, "TELEGRAM_ERROR", "admin snapshot fetch failed")
		return
	}

	httperrors.Write(w, http.StatusOK, chatSyncResponse(result))
}

func (h *BotHandler) writeRegistryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pgrepo.ErrBotNotFound):
		writeNotFound(w, "BOT_NOT_FOUND", "bot is not registered")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}

func botResponse(bot model.Bot) dto.BotResponse {
	return dto.BotResponse{
		ID:         bot.ID,
		TelegramID: bot.TelegramID,
		Username:   bot.Username,
		CreatedAt:  bot.CreatedAt,
	}
}

func chatSyncResponse(result registrysvc.ChatSyncResult) dto.ChatSyncResponse {
	return dto.ChatSyncResponse{
		TelegramChatID: result.TelegramChatID,
		AdminsSynced:   result.AdminsSynced,
		MemberCount:    result.MemberCount,
	}
}
