package utils

import (
	"fmt"
	"math"
	"strconv"
)

// FormatINRAmount renders an amount using Indian-numbering abbreviations:
// crores for amounts of one crore and above ("1.5Cr"), lakhs for one lakh and
// above rounded to whole lakhs ("3L"), and plain comma-grouped digits below
// that ("50,000"). The rupee sign is left to the caller.
func FormatINRAmount(amount float64) string {
	if amount >= 10000000 {
		return fmt.Sprintf("%.1fCr", amount/10000000)
	}
	if amount >= 100000 {
		// round half up, not to even: 2.5 lakh reads as "3L"
		return fmt.Sprintf("%dL", int64(math.Round(amount/100000)))
	}
	return GroupDigits(int64(math.Round(amount)))
}

// GroupDigits formats n with comma separators every three digits.
func GroupDigits(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}
	if len(s) <= 3 {
		if neg {
			return "-" + s
		}
		return s
	}
	var out []byte
	lead := len(s) % 3
	if lead > 0 {
		out = append(out, s[:lead]...)
	}
	for i := lead; i < len(s); i += 3 {
		if len(out) > 0 {
			out = append(out, ',')
		}
		out = append(out, s[i:i+3]...)
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}
