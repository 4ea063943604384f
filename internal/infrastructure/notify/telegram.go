package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
)

const telegramAPI = "https://api.telegram.org"

// Telegram posts notifications to chats through the bot API.
type Telegram struct {
	token   string
	baseURL string
	client  *http.Client
}

func NewTelegram(token string, timeout time.Duration) *Telegram {
	return &Telegram{token: token, baseURL: telegramAPI, client: newRetryClient(timeout)}
}

type telegramRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send posts one message per chat and stops at the first failure.
func (t *Telegram) Send(ctx context.Context, n domain.Notification) error {
	if t.token == "" {
		return errors.New("telegram bot token is not configured")
	}
	text := n.Body
	if n.Subject != "" {
		text = n.Subject + "\n\n" + n.Body
	}
	for _, chat := range n.Recipients {
		if err := t.post(ctx, chat, text); err != nil {
			return fmt.Errorf("telegram chat %s: %w", chat, err)
		}
	}
	return nil
}

func (t *Telegram) post(ctx context.Context, chat, text string) error {
	body, err := json.Marshal(telegramRequest{ChatID: chat, Text: text})
	if err != nil {
		return err
	}
	url := strings.TrimRight(t.baseURL, "/") + "/bot" + t.token + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		// The url embeds the bot token.
		return errors.New(strings.ReplaceAll(err.Error(), t.token, "***"))
	}
	defer resp.Body.Close()

	var out telegramResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if !out.OK {
		return fmt.Errorf("status %d: %s", resp.StatusCode, out.Description)
	}
	return nil
}
