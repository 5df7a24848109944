package monitor

import (
	"testing"

	"github.com/web3-frozen/price-alert/internal/alert"
)

func TestFormatSatisfied(t *testing.T) {
	a := alert.Alert{UserID: "U1", Asset: alert.BTC, TargetPrice: 5000000}

	tests := []struct {
		locale string
		want   string
	}{
		{"ja", "BTCが目標価格5000000円を達成！現在価格: 5200000円"},
		{"en", "BTC reached your target price of 5000000. Current price: 5200000"},
		{"xx", "BTCが目標価格5000000円を達成！現在価格: 5200000円"},
	}
	for _, tt := range tests {
		if got := formatSatisfied(tt.locale, a, 5200000); got != tt.want {
			t.Errorf("formatSatisfied(%q) = %q, want %q", tt.locale, got, tt.want)
		}
	}
}

func TestSupportedLocale(t *testing.T) {
	if !SupportedLocale("ja") || !SupportedLocale("en") {
		t.Error("ja and en should be supported")
	}
	if SupportedLocale("de") {
		t.Error("de should not be supported")
	}
}
