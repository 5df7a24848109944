package sources

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/web3-frozen/price-alert/internal/alert"
)

func TestBinanceFetchPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/ticker/price" {
			http.NotFound(w, r)
			return
		}
		symbol := r.URL.Query().Get("symbol")
		switch symbol {
		case "BTCUSDT":
			json.NewEncoder(w).Encode(binanceTickerResp{Symbol: "BTCUSDT", Price: "95432.10"})
		case "FLRUSDT":
			http.Error(w, "bad symbol", http.StatusBadRequest)
		case "XLMUSDT":
			json.NewEncoder(w).Encode(binanceTickerResp{Symbol: symbol, Price: "n/a"})
		default:
			json.NewEncoder(w).Encode(binanceTickerResp{Symbol: symbol, Price: "3456.78"})
		}
	}))
	defer srv.Close()

	b := &Binance{client: srv.Client(), baseURL: srv.URL}
	ctx := context.Background()

	price, err := b.FetchPrice(ctx, alert.BTC)
	if err != nil {
		t.Fatalf("FetchPrice(BTC) error: %v", err)
	}
	if price != 95432.10 {
		t.Errorf("FetchPrice(BTC) = %v, want 95432.10", price)
	}

	price, err = b.FetchPrice(ctx, alert.ETH)
	if err != nil {
		t.Fatalf("FetchPrice(ETH) error: %v", err)
	}
	if price != 3456.78 {
		t.Errorf("FetchPrice(ETH) = %v, want 3456.78", price)
	}

	if _, err := b.FetchPrice(ctx, alert.FLR); err == nil {
		t.Error("FetchPrice(FLR) bad status: expected error, got nil")
	}
	if _, err := b.FetchPrice(ctx, alert.XLM); err == nil {
		t.Error("FetchPrice(XLM) non-numeric: expected error, got nil")
	}
}

func TestNewSource(t *testing.T) {
	for _, name := range []string{"bitbank", "binance"} {
		src, err := New(name, "", time.Second)
		if err != nil {
			t.Fatalf("New(%q) error: %v", name, err)
		}
		if src.Name() != name {
			t.Errorf("Name() = %q, want %q", src.Name(), name)
		}
	}
	if _, err := New("coinbase", "", time.Second); err == nil {
		t.Error("New(coinbase) expected error, got nil")
	}
}
