// Package currency holds the supported currency catalogue and the money
// formatting used in narrative text and API payloads.
package currency

import (
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

// DefaultCode is used when no currency has been chosen yet.
const DefaultCode = "USD"

type Currency struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// Catalogue lists the currencies offered during onboarding.
var Catalogue = []Currency{
	{Code: "USD", Name: "US Dollar", Symbol: "$", Decimals: 2},
	{Code: "EUR", Name: "Euro", Symbol: "€", Decimals: 2},
	{Code: "GBP", Name: "British Pound", Symbol: "£", Decimals: 2},
	{Code: "INR", Name: "Indian Rupee", Symbol: "₹", Decimals: 2},
	{Code: "JPY", Name: "Japanese Yen", Symbol: "¥", Decimals: 0},
	{Code: "CNY", Name: "Chinese Yuan", Symbol: "CN¥", Decimals: 2},
	{Code: "AUD", Name: "Australian Dollar", Symbol: "A$", Decimals: 2},
	{Code: "CAD", Name: "Canadian Dollar", Symbol: "C$", Decimals: 2},
	{Code: "CHF", Name: "Swiss Franc", Symbol: "CHF ", Decimals: 2},
	{Code: "SEK", Name: "Swedish Krona", Symbol: "kr ", Decimals: 2},
	{Code: "NOK", Name: "Norwegian Krone", Symbol: "kr ", Decimals: 2},
	{Code: "DKK", Name: "Danish Krone", Symbol: "kr. ", Decimals: 2},
	{Code: "NZD", Name: "New Zealand Dollar", Symbol: "NZ$", Decimals: 2},
	{Code: "SGD", Name: "Singapore Dollar", Symbol: "S$", Decimals: 2},
	{Code: "HKD", Name: "Hong Kong Dollar", Symbol: "HK$", Decimals: 2},
	{Code: "KRW", Name: "South Korean Won", Symbol: "₩", Decimals: 0},
	{Code: "BRL", Name: "Brazilian Real", Symbol: "R$", Decimals: 2},
	{Code: "MXN", Name: "Mexican Peso", Symbol: "MX$", Decimals: 2},
	{Code: "ZAR", Name: "South African Rand", Symbol: "R ", Decimals: 2},
	{Code: "AED", Name: "UAE Dirham", Symbol: "AED ", Decimals: 2},
	{Code: "SAR", Name: "Saudi Riyal", Symbol: "SAR ", Decimals: 2},
	{Code: "PLN", Name: "Polish Zloty", Symbol: "zł ", Decimals: 2},
	{Code: "TRY", Name: "Turkish Lira", Symbol: "₺", Decimals: 2},
	{Code: "THB", Name: "Thai Baht", Symbol: "฿", Decimals: 2},
	{Code: "MYR", Name: "Malaysian Ringgit", Symbol: "RM ", Decimals: 2},
	{Code: "IDR", Name: "Indonesian Rupiah", Symbol: "Rp ", Decimals: 0},
	{Code: "PHP", Name: "Philippine Peso", Symbol: "₱", Decimals: 2},
	{Code: "LKR", Name: "Sri Lankan Rupee", Symbol: "Rs ", Decimals: 2},
	{Code: "PKR", Name: "Pakistani Rupee", Symbol: "Rs ", Decimals: 2},
	{Code: "NGN", Name: "Nigerian Naira", Symbol: "₦", Decimals: 2},
}

// Lookup returns the currency for code, falling back to USD for unknown codes.
func Lookup(code string) Currency {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, c := range Catalogue {
		if c.Code == code {
			return c
		}
	}
	return Catalogue[0]
}

// Known reports whether code is in the catalogue.
func Known(code string) bool {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, c := range Catalogue {
		if c.Code == code {
			return true
		}
	}
	return false
}

// Search matches q case-insensitively against name, code and symbol.
func Search(q string) []Currency {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return append([]Currency(nil), Catalogue...)
	}
	var out []Currency
	for _, c := range Catalogue {
		if strings.Contains(strings.ToLower(c.Name), q) ||
			strings.Contains(strings.ToLower(c.Code), q) ||
			strings.Contains(strings.ToLower(strings.TrimSpace(c.Symbol)), q) {
			out = append(out, c)
		}
	}
	return out
}

// Format renders v with the currency symbol, thousands separators and the
// currency's minor digits, e.g. "$2,400.00" or "-£12.50".
func Format(v float64, code string) string {
	c := Lookup(code)
	return format(v, c, c.Decimals)
}

// FormatWhole renders v rounded to whole units, e.g. "$2,400".
func FormatWhole(v float64, code string) string {
	return format(v, Lookup(code), 0)
}

func format(v float64, c Currency, decimals int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	pattern := "#,###.##"
	if decimals == 0 {
		pattern = "#,###."
	}
	s := humanize.FormatFloat(pattern, v)
	if s == "0" || s == "0.00" || s == "" {
		sign = ""
	}
	return sign + c.Symbol + s
}
