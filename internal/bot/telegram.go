package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DefaultSendTimeout bounds every outbound Telegram API call. A slow send
// must never block webhook handling indefinitely.
const DefaultSendTimeout = 10 * time.Second

// Client is a minimal Telegram Bot API client implementing Sender plus the
// webhook management calls.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
}

// ClientOpts holds parameters for creating a Client.
type ClientOpts struct {
	Token   string
	BaseURL string        // defaults to the public Telegram API
	Timeout time.Duration // per-call timeout, defaults to DefaultSendTimeout
}

// NewClient creates a Telegram API client.
func NewClient(opts ClientOpts) (*Client, error) {
	if opts.Token == "" {
		return nil, fmt.Errorf("bot: client: token is required")
	}
	base := opts.BaseURL
	if base == "" {
		base = "https://api.telegram.org"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultSendTimeout
	}
	return &Client{
		token:   opts.Token,
		baseURL: base,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// replyMarkup is the serialized inline-keyboard attachment.
type replyMarkup struct {
	InlineKeyboard [][]Button `json:"inline_keyboard"`
}

// SendMessage posts a sendMessage call with HTML parse mode and an
// optional inline keyboard.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, keyboard Keyboard) error {
	payload := map[string]interface{}{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	if len(keyboard) > 0 {
		markup, err := json.Marshal(replyMarkup{InlineKeyboard: keyboard})
		if err != nil {
			return fmt.Errorf("bot: marshal keyboard: %w", err)
		}
		payload["reply_markup"] = string(markup)
	}
	return c.call(ctx, "sendMessage", payload, nil)
}

// AnswerCallback clears a pending callback press's loading spinner.
func (c *Client) AnswerCallback(ctx context.Context, callbackID string) error {
	return c.call(ctx, "answerCallbackQuery", map[string]interface{}{
		"callback_query_id": callbackID,
	}, nil)
}

// WebhookInfo describes the currently registered webhook.
type WebhookInfo struct {
	URL                  string `json:"url"`
	PendingUpdateCount   int    `json:"pending_update_count"`
	LastErrorDate        int64  `json:"last_error_date"`
	LastErrorMessage     string `json:"last_error_message"`
	MaxConnections       int    `json:"max_connections"`
	IPAddress            string `json:"ip_address"`
	HasCustomCertificate bool   `json:"has_custom_certificate"`
}

// SetWebhook registers url as the bot's webhook endpoint. Only message and
// callback_query updates are delivered.
func (c *Client) SetWebhook(ctx context.Context, url string) error {
	return c.call(ctx, "setWebhook", map[string]interface{}{
		"url":             url,
		"allowed_updates": []string{"message", "callback_query"},
	}, nil)
}

// GetWebhookInfo returns the current webhook registration.
func (c *Client) GetWebhookInfo(ctx context.Context) (*WebhookInfo, error) {
	var info WebhookInfo
	if err := c.call(ctx, "getWebhookInfo", map[string]interface{}{}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// DeleteWebhook removes the registered webhook.
func (c *Client) DeleteWebhook(ctx context.Context) error {
	return c.call(ctx, "deleteWebhook", map[string]interface{}{}, nil)
}

// apiResponse is the Telegram API envelope.
type apiResponse struct {
	Ok          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
}

// call posts a JSON API request and decodes the result into out (when
// non-nil).
func (c *Client) call(ctx context.Context, method string, payload map[string]interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("bot: marshal %s: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("bot: build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("bot: %s: %w", method, err)
	}
	defer resp.Body.Close()

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("bot: decode %s response: %w", method, err)
	}
	if !envelope.Ok {
		return fmt.Errorf("bot: %s failed: %s", method, envelope.Description)
	}
	if out != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("bot: decode %s result: %w", method, err)
		}
	}
	return nil
}
