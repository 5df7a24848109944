// Package command turns inbound chat text into alert registrations and
// reply text. It is shared by every chat transport.
package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/web3-frozen/price-alert/internal/alert"
	"github.com/web3-frozen/price-alert/internal/metrics"
)

// Store is the subset of the alert store the handler writes to.
type Store interface {
	Insert(ctx context.Context, a alert.Alert) (alert.Alert, error)
	ListByUser(ctx context.Context, userID string) ([]alert.Alert, error)
}

type replies struct {
	created   string // symbol, price
	usage     string // supported symbols
	help      string // supported symbols
	storeErr  string
	listEmpty string
	listHead  string
	listItem  string // symbol, price
}

var catalog = map[string]replies{
	"ja": {
		created:   "%sの価格アラートを%s円で設定しました",
		usage:     "不正な形式です。例：「BTC 5000000」のように入力してください\n対応通貨: %s",
		help:      "「BTC 5000000」のように通貨と目標価格を送信すると、価格が目標に達したときに一度だけ通知します。\n対応通貨: %s\n/status で設定中のアラートを表示します",
		storeErr:  "アラートの登録に失敗しました。しばらくしてから再度お試しください",
		listEmpty: "設定中のアラートはありません",
		listHead:  "設定中のアラート:",
		listItem:  "• %s %s円",
	},
	"en": {
		created:   "Price alert set: %s at %s",
		usage:     "Invalid format. Send something like \"BTC 5000000\".\nSupported: %s",
		help:      "Send an asset and a target price, e.g. \"BTC 5000000\", and you will be notified once when the price reaches it.\nSupported: %s\n/status lists your pending alerts",
		storeErr:  "Could not save your alert. Please try again later.",
		listEmpty: "You have no pending alerts.",
		listHead:  "Pending alerts:",
		listItem:  "• %s %s",
	},
}

// Handler registers alerts from "<ASSET> <PRICE>" messages.
type Handler struct {
	store  Store
	logger *slog.Logger
	text   replies
}

func NewHandler(s Store, logger *slog.Logger, locale string) *Handler {
	text, ok := catalog[locale]
	if !ok {
		text = catalog["ja"]
	}
	return &Handler{store: s, logger: logger, text: text}
}

// Handle processes one inbound message from userID and returns the reply.
func (h *Handler) Handle(ctx context.Context, userID, text string) string {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "/start", "/help", "help":
		return fmt.Sprintf(h.text.help, alert.SymbolList())
	case "/status", "/list", "list":
		return h.list(ctx, userID)
	}

	a, err := h.Register(ctx, userID, text)
	if err != nil {
		if errors.Is(err, alert.ErrValidation) {
			return fmt.Sprintf(h.text.usage, alert.SymbolList())
		}
		return h.text.storeErr
	}
	return fmt.Sprintf(h.text.created, a.Asset.Symbol(), alert.FormatPrice(a.TargetPrice))
}

// Register parses text and stores the resulting alert for userID.
func (h *Handler) Register(ctx context.Context, userID, text string) (alert.Alert, error) {
	asset, price, err := alert.ParseCommand(text)
	if err != nil {
		h.logger.Debug("rejected command", "user_id", userID, "error", err)
		return alert.Alert{}, err
	}
	return h.Create(ctx, alert.Alert{UserID: userID, Asset: asset, TargetPrice: price})
}

// Create stores an already validated alert.
func (h *Handler) Create(ctx context.Context, a alert.Alert) (alert.Alert, error) {
	created, err := h.store.Insert(ctx, a)
	if err != nil {
		h.logger.Error("insert alert failed", "user_id", a.UserID, "asset", a.Asset, "error", err)
		return alert.Alert{}, err
	}
	metrics.AlertsCreatedTotal.WithLabelValues(string(created.Asset)).Inc()
	h.logger.Info("alert registered",
		"alert_id", created.ID, "user_id", created.UserID,
		"asset", created.Asset, "target_price", created.TargetPrice)
	return created, nil
}

func (h *Handler) list(ctx context.Context, userID string) string {
	alerts, err := h.store.ListByUser(ctx, userID)
	if err != nil {
		h.logger.Error("list alerts failed", "user_id", userID, "error", err)
		return h.text.storeErr
	}
	if len(alerts) == 0 {
		return h.text.listEmpty
	}
	lines := make([]string, 0, len(alerts)+1)
	lines = append(lines, h.text.listHead)
	for _, a := range alerts {
		lines = append(lines, fmt.Sprintf(h.text.listItem, a.Asset.Symbol(), alert.FormatPrice(a.TargetPrice)))
	}
	return strings.Join(lines, "\n")
}
