package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatMoneyPHP(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		want   string
	}{
		{name: "zero", amount: "0", want: "₱0.00"},
		{name: "small", amount: "100", want: "₱100.00"},
		{name: "thousands", amount: "15750", want: "₱15,750.00"},
		{name: "large", amount: "200000", want: "₱200,000.00"},
		{name: "cents", amount: "8000.5", want: "₱8,000.50"},
		{name: "rounding", amount: "12.345", want: "₱12.35"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d, err := decimal.NewFromString(tc.amount)
			assert.NoError(t, err)
			assert.Equal(t, tc.want, FormatMoneyPHP(d))
		})
	}
}

func TestFormatMoneyPHP_FromNumericText(t *testing.T) {
	// amounts arrive as numbers or numeric-looking strings; both decode
	// through decimal and format the same way
	d, err := decimal.NewFromString("1234.5")
	assert.NoError(t, err)
	assert.Equal(t, "₱1,234.50", FormatMoneyPHP(d))
}

func TestFormatDate(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{name: "iso", value: "2026-01-28", want: "Jan 28, 2026"},
		{name: "us slash", value: "01/28/2026", want: "Jan 28, 2026"},
		{name: "rfc3339", value: "2026-01-28T09:30:00Z", want: "Jan 28, 2026"},
		{name: "empty", value: "", want: "-"},
		{name: "unparseable passthrough", value: "sometime soon", want: "sometime soon"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatDate(tc.value))
		})
	}
}
