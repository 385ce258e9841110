package money

import (
	"fmt"
	"strings"
)

var currencySymbols = map[string]string{
	"usd": "$",
	"eur": "€",
	"gbp": "£",
	"jpy": "¥",
	"cad": "C$",
	"aud": "A$",
	"chf": "CHF ",
	"cny": "¥",
	"sek": "kr ",
	"nzd": "NZ$",
	"inr": "₹",
}

// Symbol returns the display prefix for a currency code.
// Unknown codes fall back to the upper-cased code followed by a space.
func Symbol(currency string) string {
	if sym, ok := currencySymbols[strings.ToLower(currency)]; ok {
		return sym
	}
	return strings.ToUpper(currency) + " "
}

// Format renders minor units as "<symbol><major>.<minor>" with comma thousands separators,
// e.g. Format(123456, "usd") == "$1,234.56".
func Format(minor int64, currency string) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	major := minor / MinorPerMajor
	cents := minor % MinorPerMajor
	return fmt.Sprintf("%s%s%s.%02d", sign, Symbol(currency), groupThousands(major), cents)
}

func groupThousands(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
