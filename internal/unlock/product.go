// Package unlock drives the one-time purchase that lifts the free project limit.
package unlock

import (
	"math"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Product is a purchasable item offered by the storefront
type Product struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	PriceMinor  int64  `json:"price_minor"` // Price in the currency's minor unit, e.g. cents
	Currency    string `json:"currency"`    // ISO 4217 code
}

// LocalizedPrice formats the price for display in the given locale
func (p Product) LocalizedPrice(tag language.Tag) string {
	printer := message.NewPrinter(tag)

	unit, err := currency.ParseISO(p.Currency)
	if err != nil {
		return printer.Sprintf("%d %s", p.PriceMinor, p.Currency)
	}

	scale, _ := currency.Standard.Rounding(unit)
	amount := float64(p.PriceMinor) / math.Pow10(scale)
	return printer.Sprint(currency.Symbol(unit.Amount(amount)))
}
