package importer

import (
	"regexp"

	"github.com/shopspring/decimal"
)

var leadingNumber = regexp.MustCompile(`^\s*([-+]?)(\d*)(?:\.(\d*))?(?:[eE]([-+]?\d+))?`)

// parseLeadingDecimal reads the longest numeric prefix of s, the way a
// lenient float parse does: "12.5 gal" is 12.5, "abc" does not parse.
func parseLeadingDecimal(s string) (decimal.Decimal, bool) {
	m := leadingNumber.FindStringSubmatch(s)
	if m == nil || (m[2] == "" && m[3] == "") {
		return decimal.Zero, false
	}
	num := m[2]
	if num == "" {
		num = "0"
	}
	if m[3] != "" {
		num += "." + m[3]
	}
	if m[1] == "-" {
		num = "-" + num
	}
	if m[4] != "" {
		num += "e" + m[4]
	}
	d, err := decimal.NewFromString(num)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// amountOrZero coerces unparseable input to zero.
func amountOrZero(s string) decimal.Decimal {
	d, _ := parseLeadingDecimal(s)
	return d
}

// optionalQuantity returns an invalid NullDecimal for empty or unparseable input.
func optionalQuantity(s string) decimal.NullDecimal {
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, ok := parseLeadingDecimal(s)
	if !ok {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

func isNumeric(s string) bool {
	_, ok := parseLeadingDecimal(s)
	return ok
}
