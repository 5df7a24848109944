package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/web3-frozen/price-alert/internal/alert"
)

const lineAPI = "https://api.line.me"

type textMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Client talks to the LINE Messaging API.
type Client struct {
	token   string
	baseURL string
	client  *http.Client
}

func NewClient(channelToken, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = lineAPI
	}
	return &Client{
		token:   channelToken,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Send pushes text to userID. It satisfies monitor.Notifier.
func (c *Client) Send(ctx context.Context, userID, text string) error {
	return c.post(ctx, "/v2/bot/message/push", map[string]interface{}{
		"to":       userID,
		"messages": []textMessage{{Type: "text", Text: text}},
	})
}

// Reply answers an inbound event using its reply token.
func (c *Client) Reply(ctx context.Context, replyToken, text string) error {
	return c.post(ctx, "/v2/bot/message/reply", map[string]interface{}{
		"replyToken": replyToken,
		"messages":   []textMessage{{Type: "text", Text: text}},
	})
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: encode line payload: %w", alert.ErrNotify, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: line request: %w", alert.ErrNotify, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: line API: %w", alert.ErrNotify, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		return fmt.Errorf("%w: line API error %d: %s", alert.ErrNotify, resp.StatusCode, errResp.Message)
	}
	return nil
}
