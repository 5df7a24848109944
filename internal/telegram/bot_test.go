package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/web3-frozen/price-alert/internal/alert"
)

type sent struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

// fakeAPI serves one batch of updates and records sendMessage calls.
type fakeAPI struct {
	mu      sync.Mutex
	updates string
	served  bool
	sent    []sent
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		switch {
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			if f.served {
				_, _ = w.Write([]byte(`{"ok":true,"result":[]}`))
				return
			}
			f.served = true
			_, _ = w.Write([]byte(f.updates))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			if !strings.HasPrefix(r.URL.Path, "/bottok/") {
				t.Errorf("unexpected path %q", r.URL.Path)
			}
			var m sent
			_ = json.NewDecoder(r.Body).Decode(&m)
			if m.ChatID == 404 {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
				return
			}
			f.sent = append(f.sent, m)
			_, _ = w.Write([]byte(`{"ok":true}`))
		default:
			http.NotFound(w, r)
		}
	})
}

type upperCommands struct{}

func (upperCommands) Handle(_ context.Context, userID, text string) string {
	return userID + " " + strings.ToUpper(text)
}

func newTestBot(t *testing.T, api *fakeAPI) (*Bot, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)
	return NewBot("tok", srv.URL, upperCommands{}, slog.New(slog.NewTextHandler(io.Discard, nil))), srv
}

func TestSend(t *testing.T) {
	api := &fakeAPI{}
	b, _ := newTestBot(t, api)

	if err := b.Send(context.Background(), "12345", "BTC reached"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(api.sent) != 1 || api.sent[0].ChatID != 12345 || api.sent[0].Text != "BTC reached" {
		t.Errorf("sent = %+v", api.sent)
	}
}

func TestSendErrors(t *testing.T) {
	api := &fakeAPI{}
	b, _ := newTestBot(t, api)

	if err := b.Send(context.Background(), "not-a-chat", "x"); !errors.Is(err, alert.ErrNotify) {
		t.Errorf("Send(bad id) error = %v, want ErrNotify", err)
	}

	err := b.Send(context.Background(), "404", "x")
	if !errors.Is(err, alert.ErrNotify) {
		t.Fatalf("Send(404) error = %v, want ErrNotify", err)
	}
	if !strings.Contains(err.Error(), "chat not found") {
		t.Errorf("error %q missing description", err)
	}
}

func TestPollHandlesCommands(t *testing.T) {
	api := &fakeAPI{updates: `{"ok":true,"result":[
		{"update_id":10,"message":{"chat":{"id":7},"text":"btc 100"}},
		{"update_id":11},
		{"update_id":12,"message":{"chat":{"id":8},"text":"  "}}
	]}`}
	b, _ := newTestBot(t, api)

	b.poll(context.Background())

	if b.offset != 13 {
		t.Errorf("offset = %d, want 13", b.offset)
	}
	if len(api.sent) != 1 {
		t.Fatalf("sent %d replies, want 1", len(api.sent))
	}
	if api.sent[0].ChatID != 7 || api.sent[0].Text != "7 BTC 100" {
		t.Errorf("reply = %+v", api.sent[0])
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	api := &fakeAPI{updates: `{"ok":true,"result":[]}`}
	b, _ := newTestBot(t, api)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()
	cancel()
	<-done
}
