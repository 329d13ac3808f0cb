package core

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"CNY": "¥",
	"INR": "₹",
	"KRW": "₩",
	"RUB": "₽",
	"TRY": "₺",
	"BRL": "R$",
	"CAD": "CA$",
	"AUD": "A$",
	"NZD": "NZ$",
	"CHF": "CHF",
	"SEK": "kr",
	"NOK": "kr",
	"DKK": "kr",
	"PLN": "zł",
	"CZK": "Kč",
	"HUF": "Ft",
	"ILS": "₪",
	"MXN": "MX$",
	"ARS": "AR$",
	"CLP": "CL$",
	"COP": "CO$",
	"ZAR": "R",
	"SGD": "S$",
	"HKD": "HK$",
	"THB": "฿",
	"PHP": "₱",
	"IDR": "Rp",
	"MYR": "RM",
	"VND": "₫",
	"UAH": "₴",
}

// SymbolFor returns the display symbol of a currency code. Unknown codes are
// returned unchanged.
func SymbolFor(code string) string {
	if sym, ok := currencySymbols[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return sym
	}
	return code
}

// IsKnownCurrency reports whether code has a display symbol.
func IsKnownCurrency(code string) bool {
	_, ok := currencySymbols[strings.ToUpper(strings.TrimSpace(code))]
	return ok
}

// KnownCurrencies returns the recognized currency codes in alphabetical order.
func KnownCurrencies() []string {
	codes := make([]string, 0, len(currencySymbols))
	for code := range currencySymbols {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// FormatAmount renders amount as symbol followed by exactly two decimals, with
// no thousands separators. Rounding only happens here, never in the engine.
func FormatAmount(amount float64, code string) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return SymbolFor(code) + strconv.FormatFloat(amount, 'f', 2, 64)
	}
	return SymbolFor(code) + decimal.NewFromFloat(amount).StringFixed(2)
}
