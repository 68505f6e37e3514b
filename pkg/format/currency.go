// Package format renders amounts for human-readable output.
package format

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Currency returns a currency string with a dollar sign and thousands separators (e.g., "-$1,234.56").
func Currency(amount float64) string {
	if amount < 0 && math.Abs(amount) >= 0.005 {
		return "-$" + printer.Sprintf("%.2f", math.Abs(amount))
	}
	return "$" + printer.Sprintf("%.2f", math.Abs(amount))
}

// Ratio renders a viability ratio as a percentage with one decimal (e.g., "85.3%").
func Ratio(ratio float64) string {
	return printer.Sprintf("%.1f%%", ratio*100)
}
