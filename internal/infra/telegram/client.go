package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ivankudzin/tgrelay/internal/infra/httpclient"
)

const (
	DefaultAPIBase = "https://api.telegram.org"
	DefaultTimeout = 15 * time.Second
)

// Client is a stateless Bot API client. Tokens are passed per call
// because the relay serves many bots through one client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// APIError is a call the platform rejected: ok=false in the response
// envelope, with Telegram's error code and description.
type APIError struct {
	Method      string
	Code        int
	Description string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	if e.Code > 0 {
		return fmt.Sprintf("telegram %s: code=%d: %s", e.Method, e.Code, e.Description)
	}
	return fmt.Sprintf("telegram %s: %s", e.Method, e.Description)
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIBase
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpclient.New(timeout),
	}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
}

func (c *Client) call(ctx context.Context, token, method string, params map[string]any, out any) error {
	if token == "" {
		return fmt.Errorf("telegram token is empty")
	}

	if params == nil {
		params = map[string]any{}
	}
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal %s params: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call telegram %s: %w", method, err)
	}
	defer resp.Body.Close()

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode telegram %s response: %w", method, err)
	}

	if !envelope.OK {
		return &APIError{Method: method, Code: envelope.ErrorCode, Description: envelope.Description}
	}

	if out != nil {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("unmarshal telegram %s result: %w", method, err)
		}
	}

	return nil
}

func (c *Client) GetMe(ctx context.Context, token string) (tgbotapi.User, error) {
	var me tgbotapi.User
	if err := c.call(ctx, token, "getMe", nil, &me); err != nil {
		return tgbotapi.User{}, err
	}
	return me, nil
}

func (c *Client) GetChat(ctx context.Context, token string, chatID int64) (tgbotapi.Chat, error) {
	var chat tgbotapi.Chat
	if err := c.call(ctx, token, "getChat", map[string]any{"chat_id": chatID}, &chat); err != nil {
		return tgbotapi.Chat{}, err
	}
	return chat, nil
}

func (c *Client) GetChatAdministrators(ctx context.Context, token string, chatID int64) ([]tgbotapi.ChatMember, error) {
	var admins []tgbotapi.ChatMember
	if err := c.call(ctx, token, "getChatAdministrators", map[string]any{"chat_id": chatID}, &admins); err != nil {
		return nil, err
	}
	return admins, nil
}

func (c *Client) GetChatMemberCount(ctx context.Context, token string, chatID int64) (int, error) {
	var count int
	if err := c.call(ctx, token, "getChatMemberCount", map[string]any{"chat_id": chatID}, &count); err != nil {
		return 0, err
	}
	return count, nil
}

// BanChatMember bans a user. untilDate is an absolute unix timestamp;
// zero means forever.
func (c *Client) BanChatMember(ctx context.Context, token string, chatID, userID int64, untilDate int64) error {
	params := map[string]any{"chat_id": chatID, "user_id": userID}
	if untilDate > 0 {
		params["until_date"] = untilDate
	}
	return c.call(ctx, token, "banChatMember", params, nil)
}

func (c *Client) UnbanChatMember(ctx context.Context, token string, chatID, userID int64) error {
	return c.call(ctx, token, "unbanChatMember", map[string]any{"chat_id": chatID, "user_id": userID}, nil)
}

func (c *Client) RestrictChatMember(ctx context.Context, token string, chatID, userID int64, permissions tgbotapi.ChatPermissions, untilDate int64) error {
	params := map[string]any{
		"chat_id":     chatID,
		"user_id":     userID,
		"permissions": permissions,
	}
	if untilDate > 0 {
		params["until_date"] = untilDate
	}
	return c.call(ctx, token, "restrictChatMember", params, nil)
}

func (c *Client) SetWebhook(ctx context.Context, token, url, secretToken string) error {
	params := map[string]any{"url": url}
	if secretToken != "" {
		params["secret_token"] = secretToken
	}
	return c.call(ctx, token, "setWebhook", params, nil)
}

func (c *Client) DeleteWebhook(ctx context.Context, token string) error {
	return c.call(ctx, token, "deleteWebhook", nil, nil)
}

func (c *Client) GetWebhookInfo(ctx context.Context, token string) (tgbotapi.WebhookInfo, error) {
	var info tgbotapi.WebhookInfo
	if err := c.call(ctx, token, "getWebhookInfo", nil, &info); err != nil {
		return tgbotapi.WebhookInfo{}, err
	}
	return info, nil
}

// GetUpdates long-polls for updates. offset follows the Bot API
// convention: pass last confirmed update id + 1.
func (c *Client) GetUpdates(ctx context.Context, token string, offset int64, limit int) ([]tgbotapi.Update, error) {
	params := map[string]any{}
	if offset > 0 {
		params["offset"] = offset
	}
	if limit > 0 {
		params["limit"] = limit
	}

	var updates []tgbotapi.Update
	if err := c.call(ctx, token, "getUpdates", params, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}
