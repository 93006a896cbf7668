// Package format renders monetary amounts for display.
package format

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// CurrencySymbol prefixes amounts rendered by Currency.
const CurrencySymbol = "£"

var printer = message.NewPrinter(language.English)

// Whole returns an amount rounded to the nearest whole unit with thousands
// separators and no decimal places (e.g., "-1,235").
func Whole(amount float64) string {
	rounded := math.Round(amount)
	if rounded == 0 {
		rounded = 0
	}
	return printer.Sprintf("%.0f", rounded)
}

// Currency returns a currency string with a pound sign and thousands separators (e.g., "-£1,234.56").
func Currency(amount float64) string {
	formatted := NumericCurrency(math.Abs(amount))
	if amount < 0 {
		return "-" + CurrencySymbol + formatted
	}
	return CurrencySymbol + formatted
}

// NumericCurrency returns a currency string without a currency symbol but with separators (e.g., "-1,234.56").
func NumericCurrency(amount float64) string {
	return printer.Sprintf("%.2f", amount)
}

// Percent renders a percentage with two decimals (e.g., "12.34%").
func Percent(value float64) string {
	return printer.Sprintf("%.2f%%", value)
}
