package line

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
)

const maxBodyBytes = 1 << 20

// CommandHandler produces a reply for an inbound text message.
type CommandHandler interface {
	Handle(ctx context.Context, userID, text string) string
}

// Replier sends a reply for an inbound event.
type Replier interface {
	Reply(ctx context.Context, replyToken, text string) error
}

type webhookEvent struct {
	Type       string `json:"type"`
	ReplyToken string `json:"replyToken"`
	Source     struct {
		Type   string `json:"type"`
		UserID string `json:"userId"`
	} `json:"source"`
	Message struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"message"`
}

type webhookBody struct {
	Events []webhookEvent `json:"events"`
}

// ValidSignature reports whether signature is the base64 HMAC-SHA256 of body
// keyed by the channel secret.
func ValidSignature(channelSecret, signature string, body []byte) bool {
	if signature == "" {
		return false
	}
	decoded, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(channelSecret))
	mac.Write(body)
	return hmac.Equal(decoded, mac.Sum(nil))
}

// Webhook handles POST /callback from the LINE platform.
func Webhook(channelSecret string, commands CommandHandler, replier Replier, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		if !ValidSignature(channelSecret, r.Header.Get("X-Line-Signature"), body) {
			logger.Warn("line webhook signature rejected", "remote", r.RemoteAddr)
			http.Error(w, "invalid signature", http.StatusBadRequest)
			return
		}

		var payload webhookBody
		if err := json.Unmarshal(body, &payload); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}

		for _, ev := range payload.Events {
			if ev.Type != "message" || ev.Message.Type != "text" || ev.Source.UserID == "" {
				continue
			}
			reply := commands.Handle(r.Context(), ev.Source.UserID, ev.Message.Text)
			if err := replier.Reply(r.Context(), ev.ReplyToken, reply); err != nil {
				logger.Error("line reply failed", "user_id", ev.Source.UserID, "error", err)
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}
