package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/web3-frozen/price-alert/internal/alert"
)

const (
	telegramAPI = "https://api.telegram.org"
	pollTimeout = 30
)

// CommandHandler produces a reply for an inbound text message.
type CommandHandler interface {
	Handle(ctx context.Context, userID, text string) string
}

// Bot receives commands through getUpdates long polling and delivers
// notifications with sendMessage. User ids are decimal chat ids.
type Bot struct {
	token    string
	baseURL  string
	commands CommandHandler
	logger   *slog.Logger
	client   *http.Client
	offset   int64
}

func NewBot(token, baseURL string, commands CommandHandler, logger *slog.Logger) *Bot {
	if baseURL == "" {
		baseURL = telegramAPI
	}
	return &Bot{
		token:    token,
		baseURL:  strings.TrimRight(baseURL, "/"),
		commands: commands,
		logger:   logger,
		client:   &http.Client{Timeout: (pollTimeout + 10) * time.Second},
	}
}

func (b *Bot) endpoint(method string) string {
	return b.baseURL + "/bot" + b.token + "/" + method
}

// Send delivers text to the chat identified by userID. It satisfies monitor.Notifier.
func (b *Bot) Send(ctx context.Context, userID, text string) error {
	chatID, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: invalid chat id %q", alert.ErrNotify, userID)
	}
	return b.SendMessage(ctx, chatID, text)
}

// SendMessage sends a text message to a Telegram chat.
func (b *Bot) SendMessage(ctx context.Context, chatID int64, text string) error {
	payload := map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint("sendMessage"), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: send message: %w", alert.ErrNotify, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: send message: %w", alert.ErrNotify, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Description string `json:"description"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		return fmt.Errorf("%w: telegram API error %d: %s", alert.ErrNotify, resp.StatusCode, errResp.Description)
	}
	return nil
}

// Run starts the long-polling loop for incoming Telegram messages.
func (b *Bot) Run(ctx context.Context) {
	b.logger.Info("telegram bot started")
	for {
		select {
		case <-ctx.Done():
			return
		default:
			b.poll(ctx)
		}
	}
}

type update struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		Text string `json:"text"`
	} `json:"message"`
}

func (b *Bot) poll(ctx context.Context) {
	url := fmt.Sprintf("%s?offset=%d&timeout=%d", b.endpoint("getUpdates"), b.offset, pollTimeout)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		b.logger.Error("create poll request", "error", err)
		return
	}

	resp, err := b.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		b.logger.Error("poll updates", "error", err)
		sleep(ctx, 5*time.Second)
		return
	}
	defer resp.Body.Close()

	var result struct {
		OK     bool     `json:"ok"`
		Result []update `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		b.logger.Error("decode updates", "error", err)
		sleep(ctx, 5*time.Second)
		return
	}
	if !result.OK {
		b.logger.Error("getUpdates not ok", "status", resp.StatusCode)
		sleep(ctx, 5*time.Second)
		return
	}

	b.handleUpdates(ctx, result.Result)
}

func (b *Bot) handleUpdates(ctx context.Context, updates []update) {
	for _, u := range updates {
		b.offset = u.UpdateID + 1
		if u.Message == nil || strings.TrimSpace(u.Message.Text) == "" {
			continue
		}

		chatID := u.Message.Chat.ID
		reply := b.commands.Handle(ctx, strconv.FormatInt(chatID, 10), u.Message.Text)
		if err := b.SendMessage(ctx, chatID, reply); err != nil {
			b.logger.Error("telegram reply failed", "chat_id", chatID, "error", err)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
