package importer

import (
	"strings"

	"github.com/shopspring/decimal"
)

// parseNumber accepts "12.5", "12,5", "1.234,56" and "1,234.56". The last
// separator in the string is taken as the decimal point.
func parseNumber(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))

	dot := strings.LastIndex(s, ".")
	comma := strings.LastIndex(s, ",")

	switch {
	case comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case dot > comma:
		s = strings.ReplaceAll(s, ",", "")
	}

	return decimal.NewFromString(s)
}
