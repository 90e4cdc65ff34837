package normalize

import (
	"encoding/json"
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	reCurrencySymbols = regexp.MustCompile(`[\p{Sc}\s]`)
	reCurrencyCode    = regexp.MustCompile(`^[A-Za-z]{3}|[A-Za-z]{3}$`)
	reThousands       = regexp.MustCompile(`^-?\d{1,3}(,\d{3})+(\.\d+)?$`)
	reDecimalComma    = regexp.MustCompile(`^-?\d+,\d{1,2}$`)
)

// Amount coerces a model-supplied amount into a float. Strings may carry a
// currency symbol or code. A comma is either a thousands separator
// ("1,234.56") or a decimal comma ("12,50"); any other use of it is
// ambiguous. Anything that does not read as one number is absent (nil),
// never zero or a guess.
func Amount(v any) *float64 {
	switch t := v.(type) {
	case nil:
		return nil
	case float64:
		return finite(t)
	case float32:
		return finite(float64(t))
	case int:
		f := float64(t)
		return &f
	case int64:
		f := float64(t)
		return &f
	case json.Number:
		return parseDecimal(t.String())
	case decimal.Decimal:
		f := t.InexactFloat64()
		return &f
	case string:
		s := strings.TrimSpace(t)
		s = reCurrencySymbols.ReplaceAllString(s, "")
		s = reCurrencyCode.ReplaceAllString(s, "")
		return parseDecimal(normalizeCommas(s))
	default:
		return nil
	}
}

// normalizeCommas rewrites s into plain decimal notation, or returns "" when
// the commas in it cannot be read unambiguously.
func normalizeCommas(s string) string {
	switch {
	case !strings.Contains(s, ","):
		return s
	case reThousands.MatchString(s):
		return strings.ReplaceAll(s, ",", "")
	case reDecimalComma.MatchString(s):
		return strings.Replace(s, ",", ".", 1)
	default:
		return ""
	}
}

func parseDecimal(s string) *float64 {
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}

func finite(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
