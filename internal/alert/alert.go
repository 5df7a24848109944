package alert

import (
	"strings"
	"time"
)

// Asset is a tradable symbol supported by the price feed, stored lower case.
type Asset string

const (
	BTC Asset = "btc"
	ETH Asset = "eth"
	XRP Asset = "xrp"
	XLM Asset = "xlm"
	FLR Asset = "flr"
)

// SupportedAssets lists the assets accepted by the inbound command parser.
var SupportedAssets = []Asset{BTC, ETH, XRP, XLM, FLR}

// ParseAsset normalizes s and reports whether it names a supported asset.
func ParseAsset(s string) (Asset, bool) {
	a := Asset(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range SupportedAssets {
		if a == known {
			return a, true
		}
	}
	return "", false
}

// Symbol returns the display form, e.g. "BTC".
func (a Asset) Symbol() string { return strings.ToUpper(string(a)) }

func (a Asset) String() string { return string(a) }

// Alert is a pending request to notify UserID once Asset trades at or above
// TargetPrice. ID is assigned by the store; the triple
// (UserID, Asset, TargetPrice) is the lookup key and is not unique.
type Alert struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"user_id"`
	Asset       Asset     `json:"asset"`
	TargetPrice float64   `json:"target_price"`
	CreatedAt   time.Time `json:"created_at"`
}

// SatisfiedBy reports whether price reaches the target. The comparison is inclusive.
func (a Alert) SatisfiedBy(price float64) bool {
	return price >= a.TargetPrice
}

// SymbolList renders the supported assets for help text, e.g. "BTC/ETH/XRP".
func SymbolList() string {
	syms := make([]string, len(SupportedAssets))
	for i, a := range SupportedAssets {
		syms[i] = a.Symbol()
	}
	return strings.Join(syms, "/")
}
