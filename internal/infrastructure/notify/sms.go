package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
)

// SMS sends text messages through an sms.ru compatible gateway.
type SMS struct {
	apiKey string
	url    string
	client *http.Client
}

func NewSMS(apiKey, apiURL string, timeout time.Duration) *SMS {
	return &SMS{apiKey: apiKey, url: apiURL, client: newRetryClient(timeout)}
}

type smsResponse struct {
	Status     string `json:"status"`
	StatusCode int    `json:"status_code"`
	StatusText string `json:"status_text"`
}

func (s *SMS) Send(ctx context.Context, n domain.Notification) error {
	if s.apiKey == "" || s.url == "" {
		return errors.New("sms gateway is not configured")
	}
	to := make([]string, 0, len(n.Recipients))
	for _, r := range n.Recipients {
		to = append(to, strings.TrimPrefix(r, "+"))
	}

	form := url.Values{}
	form.Set("api_id", s.apiKey)
	form.Set("to", strings.Join(to, ","))
	form.Set("msg", n.Body)
	form.Set("json", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway: %w", err)
	}
	defer resp.Body.Close()

	var out smsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("sms gateway: decode response (status %d): %w", resp.StatusCode, err)
	}
	if !strings.EqualFold(out.Status, "OK") {
		return fmt.Errorf("sms gateway: %d %s", out.StatusCode, out.StatusText)
	}
	return nil
}
