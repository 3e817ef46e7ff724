package internal

import (
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Currency represents a currency with its formatting rules
type Currency struct {
	Code    string // "NOK", "SEK", "USD", "EUR"
	unit    currency.Unit
	tag     language.Tag
	printer *message.Printer
}

// symbolOverrides provides custom symbols where x/text defaults aren't ideal
var symbolOverrides = map[string]string{
	"NOK": "kr",
	"SEK": "kr",
	"DKK": "kr",
	"ISK": "kr",
}

// defaultLocaleForCurrency provides fallback locales when currency is specified
// without a locale (e.g., --currency USD). Uses a "home" locale for each currency.
var defaultLocaleForCurrency = map[string]language.Tag{
	"NOK": language.Norwegian,
	"SEK": language.Swedish,
	"DKK": language.Danish,
	"USD": language.AmericanEnglish,
	"EUR": language.German,
	"GBP": language.BritishEnglish,
	"CHF": language.German,
	"JPY": language.Japanese,
	"CAD": language.CanadianFrench,
	"PLN": language.Polish,
	"CZK": language.Czech,
	"HUF": language.Hungarian,
}

// GetCurrency returns the Currency for a given code.
func GetCurrency(code string) Currency {
	code = strings.ToUpper(code)

	// Get the currency unit (validates the code)
	unit, err := currency.ParseISO(code)
	isUnknown := err != nil
	if isUnknown {
		unit = currency.USD // fallback unit for number formatting only
	}

	tag, ok := defaultLocaleForCurrency[code]
	if !ok {
		tag = language.English
	}

	c := Currency{
		Code:    code,
		unit:    unit,
		tag:     tag,
		printer: message.NewPrinter(tag),
	}

	// For unknown currencies, override the symbol to use the code
	if isUnknown {
		symbolOverrides[code] = code
	}

	return c
}

// GetCurrencyWithLocale returns a Currency with a specific locale for formatting.
func GetCurrencyWithLocale(code string, tag language.Tag) Currency {
	code = strings.ToUpper(code)

	unit, err := currency.ParseISO(code)
	isUnknown := err != nil
	if isUnknown {
		unit = currency.USD
	}

	c := Currency{
		Code:    code,
		unit:    unit,
		tag:     tag,
		printer: message.NewPrinter(tag),
	}

	if isUnknown {
		symbolOverrides[code] = code
	}

	return c
}

// getSymbol returns the currency symbol, using overrides where needed
func (c Currency) getSymbol() string {
	if sym, ok := symbolOverrides[c.Code]; ok {
		return sym
	}
	// Use x/text to get the narrow symbol
	return c.printer.Sprint(currency.NarrowSymbol(c.unit))
}

// isPrefix returns true if this currency symbol should be placed before the amount.
// Note: golang.org/x/text/currency doesn't implement symbol positioning from CLDR patterns
// (see TODO in x/text/internal/number/pattern.go for ¤ handling). Until that's fixed,
// we maintain this list of prefix currencies manually.
func (c Currency) isPrefix() bool {
	switch c.Code {
	case "USD", "GBP", "JPY", "CAD", "AUD", "MXN", "HKD", "SGD", "NZD", "ZAR":
		return true
	default:
		return false
	}
}

// Format formats a single amount with the currency symbol
func (c Currency) Format(amount float64) string {
	// Use x/text/number for proper locale-aware formatting
	formatted := c.printer.Sprint(number.Decimal(amount, number.MaxFractionDigits(0)))
	symbol := c.getSymbol()

	if c.isPrefix() {
		return symbol + formatted
	}
	return formatted + " " + symbol
}

// FormatRange formats a range of amounts (min-max) with the currency symbol
func (c Currency) FormatRange(min, max float64) string {
	minStr := c.printer.Sprint(number.Decimal(min, number.MaxFractionDigits(0)))
	maxStr := c.printer.Sprint(number.Decimal(max, number.MaxFractionDigits(0)))
	symbol := c.getSymbol()

	if c.isPrefix() {
		return symbol + minStr + "-" + symbol + maxStr
	}
	return minStr + "-" + maxStr + " " + symbol
}
