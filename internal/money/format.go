package money

import (
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var displayPrinter = message.NewPrinter(language.BritishEnglish)

// Display formats m for humans using the British English locale, e.g. "£ 1,299.99".
// Unknown currency codes fall back to "<amount> <code>".
func Display(m Money) string {
	unit, err := currency.ParseISO(m.CurrencyCode)
	if err != nil {
		return m.String() + " " + m.CurrencyCode
	}
	return displayPrinter.Sprint(currency.Symbol(unit.Amount(m.Amount.Round(2).InexactFloat64())))
}
