package ui

import (
	"math"
	"strconv"
	"strings"
)

// FormatWithThousands rounds val to a whole number and groups its digits in
// threes.
func FormatWithThousands(val float64) string {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return strconv.FormatFloat(val, 'f', 0, 64)
	}
	digits := strconv.FormatInt(int64(math.Round(val)), 10)
	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}
	if len(digits) <= 3 {
		return sign + digits
	}
	var b strings.Builder
	b.WriteString(sign)
	head := len(digits) % 3
	if head == 0 {
		head = 3
	}
	b.WriteString(digits[:head])
	for i := head; i < len(digits); i += 3 {
		b.WriteByte(',')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// FormatMoney is FormatWithThousands with a currency sign. Missing values
// (NaN) render as "-".
func FormatMoney(val float64) string {
	if math.IsNaN(val) {
		return "-"
	}
	if val < 0 {
		return "-$" + FormatWithThousands(-val)
	}
	return "$" + FormatWithThousands(val)
}
