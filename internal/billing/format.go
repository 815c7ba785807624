package billing

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var phPrinter = message.NewPrinter(language.MustParse("en-PH"))

// FormatMoneyPHP renders an amount as Philippine pesos with grouping and
// two decimal places, e.g. ₱200,000.00.
func FormatMoneyPHP(amount decimal.Decimal) string {
	f, _ := amount.Round(2).Float64()
	return phPrinter.Sprintf("₱%.2f", f)
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"01/02/2006",
	"2006-01-02 15:04:05",
}

// FormatDate renders a date value as "Jan 02, 2006". Empty values render
// as "-"; values that match no known layout are passed through as-is so a
// receipt never fails on odd input.
func FormatDate(value string) string {
	if value == "" {
		return "-"
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("Jan 02, 2006")
		}
	}
	return value
}
