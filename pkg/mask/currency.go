package mask

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// maxCurrencyDigits bounds the cents string so the integer part always fits
// an int64 for the locale printer.
const maxCurrencyDigits = 15

// Locale describes how an amount is rendered. Digit grouping comes from the
// CLDR data behind Tag; the symbol and decimal mark are explicit because the
// amount is always Brazilian Real regardless of the UI language.
type Locale struct {
	Tag     language.Tag
	Symbol  string
	Spacer  string
	Decimal string
}

var (
	// BrazilianReal renders amounts as "R$ 1.234,56".
	BrazilianReal = Locale{Tag: language.BrazilianPortuguese, Symbol: "R$", Spacer: " ", Decimal: ","}
	// BrazilianRealEnglish renders amounts as "R$1,234.56".
	BrazilianRealEnglish = Locale{Tag: language.AmericanEnglish, Symbol: "R$", Spacer: "", Decimal: "."}
)

// CurrencyFormatter applies Currency with the Brazilian locale.
var CurrencyFormatter Formatter = CurrencyMask{Locale: BrazilianReal}

// CurrencyLocale picks the amount style for a UI locale ("en" or "pt-BR").
// Unknown locales fall back to BrazilianReal.
func CurrencyLocale(locale string) Locale {
	if strings.HasPrefix(strings.ToLower(locale), "en") {
		return BrazilianRealEnglish
	}
	return BrazilianReal
}

// CurrencyMask is a Formatter bound to a locale.
type CurrencyMask struct {
	Locale Locale
}

// Format implements Formatter. An edit that would push the amount past
// maxCurrencyDigits is rejected and prev is kept.
func (m CurrencyMask) Format(prev, next string) string {
	if significantDigits(next) > maxCurrencyDigits {
		return m.Locale.Format(prev)
	}
	return m.Locale.Format(next)
}

func significantDigits(raw string) int {
	return len(strings.TrimLeft(Digits(raw), "0"))
}

// Currency interprets the digits of raw as integer cents and renders them in
// the Brazilian Real style.
func Currency(raw string) string {
	return BrazilianReal.Format(raw)
}

// Format renders the digits of raw as a currency amount with two fraction
// digits. Input without digits, or with more than maxCurrencyDigits
// significant digits, yields "".
func (l Locale) Format(raw string) string {
	digits := Digits(raw)
	if digits == "" {
		return ""
	}
	digits = strings.TrimLeft(digits, "0")
	if len(digits) > maxCurrencyDigits {
		return ""
	}
	for len(digits) < 3 {
		digits = "0" + digits
	}

	whole, err := strconv.ParseInt(digits[:len(digits)-2], 10, 64)
	if err != nil {
		return ""
	}
	cents := digits[len(digits)-2:]

	p := message.NewPrinter(l.Tag)
	decimal := l.Decimal
	if decimal == "" {
		decimal = ","
	}
	return l.Symbol + l.Spacer + p.Sprintf("%d", whole) + decimal + cents
}

// ParseCents returns the amount of a masked currency value in cents. It
// reports false when masked has no digits or does not fit an int64.
func ParseCents(masked string) (int64, bool) {
	digits := strings.TrimLeft(Digits(masked), "0")
	if digits == "" {
		if Digits(masked) == "" {
			return 0, false
		}
		return 0, true
	}
	cents, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return cents, true
}
