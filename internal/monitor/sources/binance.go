package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/web3-frozen/price-alert/internal/alert"
)

const binanceAPI = "https://api.binance.com"

type binanceTickerResp struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// Binance fetches USDT-quoted prices from the Binance public API.
type Binance struct {
	client  *http.Client
	baseURL string
}

func NewBinance(baseURL string, timeout time.Duration) *Binance {
	if baseURL == "" {
		baseURL = binanceAPI
	}
	return &Binance{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (b *Binance) Name() string { return "binance" }

// FetchPrice fetches the current price of asset paired with USDT.
func (b *Binance) FetchPrice(ctx context.Context, asset alert.Asset) (float64, error) {
	pair := asset.Symbol() + "USDT"
	url := fmt.Sprintf("%s/api/v3/ticker/price?symbol=%s", b.baseURL, pair)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("binance request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("binance API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("binance API status: %d", resp.StatusCode)
	}

	var ticker binanceTickerResp
	if err := json.NewDecoder(resp.Body).Decode(&ticker); err != nil {
		return 0, fmt.Errorf("decode binance ticker: %w", err)
	}

	price, err := strconv.ParseFloat(ticker.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("parse binance price: %w", err)
	}
	return price, nil
}
