package deduction

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// FormatAmount renders an amount for humans, e.g. "3 500,00 kr".
// Only used for display strings; stored and transmitted amounts stay decimal.
// Kronor and öre are formatted separately so large amounts stay exact.
func FormatAmount(amount decimal.Decimal) string {
	rounded := amount.Round(2)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Abs()
	}
	kronor := rounded.Truncate(0)
	ore := rounded.Sub(kronor).Shift(2).IntPart()

	grouped := message.NewPrinter(language.Swedish).Sprint(number.Decimal(kronor.IntPart()))
	return fmt.Sprintf("%s%s,%02d kr", sign, grouped, ore)
}
