package common

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatVND renders an amount the Vietnamese way: "." groups thousands and
// "," separates decimals (95500 -> "95.500", 1234.5 -> "1.234,5").
func FormatVND(d decimal.Decimal) string {
	r := d.Round(2)
	neg := r.IsNegative()
	r = r.Abs()

	intPart := r.Truncate(0)
	out := groupThousands(intPart.StringFixed(0))

	if !r.Equal(intPart) {
		_, frac, _ := strings.Cut(r.StringFixed(2), ".")
		if frac = strings.TrimRight(frac, "0"); frac != "" {
			out += "," + frac
		}
	}

	if neg {
		return "-" + out
	}
	return out
}

// FormatInt groups an integer with "." separators.
func FormatInt(n int64) string {
	if n < 0 {
		return "-" + groupThousands(fmt.Sprintf("%d", -n))
	}
	return groupThousands(fmt.Sprintf("%d", n))
}

// FormatSignedPct renders a percentage with an explicit sign and at most two
// decimals, trailing zeros dropped: 1.2 -> "+1.2%", -0.456 -> "-0.46%".
func FormatSignedPct(d decimal.Decimal) string {
	r := d.Round(2)
	switch r.Sign() {
	case 1:
		return "+" + r.String() + "%"
	case -1:
		return r.String() + "%"
	default:
		return "0%"
	}
}

// ParseVND is the inverse of FormatVND.
func ParseVND(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ".", "")
	s = strings.Replace(s, ",", ".", 1)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid VND amount %q: %w", s, err)
	}
	return d, nil
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var sb strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		sb.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if sb.Len() > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(digits[i : i+3])
	}
	return sb.String()
}
