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

const bitbankAPI = "https://public.bitbank.cc"

type bitbankTickerResp struct {
	Success int `json:"success"`
	Data    struct {
		Last *string `json:"last"`
	} `json:"data"`
}

// Bitbank fetches JPY last-trade prices from the bitbank public ticker API.
type Bitbank struct {
	client  *http.Client
	baseURL string
}

func NewBitbank(baseURL string, timeout time.Duration) *Bitbank {
	if baseURL == "" {
		baseURL = bitbankAPI
	}
	return &Bitbank{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (b *Bitbank) Name() string { return "bitbank" }

// FetchPrice returns the last trade price of asset against JPY.
func (b *Bitbank) FetchPrice(ctx context.Context, asset alert.Asset) (float64, error) {
	url := fmt.Sprintf("%s/%s_jpy/ticker", b.baseURL, asset)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("bitbank request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("bitbank API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("bitbank API status: %d", resp.StatusCode)
	}

	var ticker bitbankTickerResp
	if err := json.NewDecoder(resp.Body).Decode(&ticker); err != nil {
		return 0, fmt.Errorf("decode bitbank ticker: %w", err)
	}
	if ticker.Success != 1 {
		return 0, fmt.Errorf("bitbank ticker %s: success=%d", asset, ticker.Success)
	}
	if ticker.Data.Last == nil {
		return 0, fmt.Errorf("bitbank ticker %s: missing last price", asset)
	}

	price, err := strconv.ParseFloat(*ticker.Data.Last, 64)
	if err != nil {
		return 0, fmt.Errorf("parse bitbank price: %w", err)
	}
	return price, nil
}
