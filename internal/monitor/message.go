package monitor

import (
	"fmt"

	"github.com/web3-frozen/price-alert/internal/alert"
)

// satisfiedTemplates are keyed by locale; arguments are symbol, target, current.
var satisfiedTemplates = map[string]string{
	"ja": "%sが目標価格%s円を達成！現在価格: %s円",
	"en": "%s reached your target price of %s. Current price: %s",
}

const defaultLocale = "ja"

// SupportedLocale reports whether locale has a notification template.
func SupportedLocale(locale string) bool {
	_, ok := satisfiedTemplates[locale]
	return ok
}

func formatSatisfied(locale string, a alert.Alert, price float64) string {
	tmpl, ok := satisfiedTemplates[locale]
	if !ok {
		tmpl = satisfiedTemplates[defaultLocale]
	}
	return fmt.Sprintf(tmpl, a.Asset.Symbol(), alert.FormatPrice(a.TargetPrice), alert.FormatPrice(price))
}
