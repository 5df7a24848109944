package alert

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseCommand parses "<ASSET> <PRICE>", e.g. "BTC 5000000". The asset is
// case-insensitive; the price must be a positive decimal.
func ParseCommand(text string) (Asset, float64, error) {
	parts := strings.Fields(strings.ToUpper(strings.TrimSpace(text)))
	if len(parts) != 2 {
		return "", 0, &ValidationError{Input: text, Reason: "expected two tokens"}
	}

	asset, ok := ParseAsset(parts[0])
	if !ok {
		return "", 0, &ValidationError{Input: text, Reason: "unsupported asset " + parts[0]}
	}

	price, err := decimal.NewFromString(parts[1])
	if err != nil {
		return "", 0, &ValidationError{Input: text, Reason: "price is not a number"}
	}
	f, ok := TargetValue(price)
	if !ok {
		return "", 0, &ValidationError{Input: text, Reason: "price must be a positive finite number"}
	}
	return asset, f, nil
}

// TargetValue converts d to the stored float64 target. It reports false when
// d is not positive or when the conversion underflows to zero or overflows
// to infinity.
func TargetValue(d decimal.Decimal) (float64, bool) {
	if !d.IsPositive() {
		return 0, false
	}
	f, _ := d.Float64()
	if f <= 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// FormatPrice renders v without an exponent and without trailing zeros,
// so 5200000 prints as "5200000" and 0.52 as "0.52".
func FormatPrice(v float64) string {
	return decimal.NewFromFloat(v).String()
}
