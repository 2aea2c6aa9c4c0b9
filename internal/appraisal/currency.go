package appraisal

import "strings"

var currencySymbols = map[string]string{
	"CAD": "$",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"AUD": "A$",
	"JPY": "¥",
	"CNY": "¥",
	"INR": "₹",
	"BRL": "R$",
	"MXN": "$",
}

// CurrencySymbol returns the display symbol for an ISO currency code,
// defaulting to "$".
func CurrencySymbol(code string) string {
	if sym, ok := currencySymbols[strings.ToUpper(code)]; ok {
		return sym
	}
	return "$"
}
