package sources

import (
	"fmt"
	"time"

	"github.com/web3-frozen/price-alert/internal/monitor"
)

// New returns the price source registered under name.
func New(name, baseURL string, timeout time.Duration) (monitor.PriceSource, error) {
	switch name {
	case "bitbank":
		return NewBitbank(baseURL, timeout), nil
	case "binance":
		return NewBinance(baseURL, timeout), nil
	default:
		return nil, fmt.Errorf("unknown price source %q", name)
	}
}
