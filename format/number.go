package format

import (
	"fmt"
	"strconv"
	"strings"
)

// Number display policy: significant digits and the decimal exponent range
// outside of which exponential notation is used.
const (
	Precision = 6
	LowerExp  = -6
	UpperExp  = 9
)

// FormatNumber renders v with Precision significant digits, trailing zeros
// removed. Values whose decimal exponent is below LowerExp or at least
// UpperExp use exponential notation such as 1.5e-7 or 1.23457e+9.
func FormatNumber(v float64) string {
	if v == 0 {
		return "0"
	}

	sci := strconv.FormatFloat(v, 'e', Precision-1, 64)
	epos := strings.IndexByte(sci, 'e')
	mantissa, expText := sci[:epos], sci[epos+1:]
	exp, err := strconv.Atoi(expText)
	if err != nil {
		return sci
	}

	if exp < LowerExp || exp >= UpperExp {
		return fmt.Sprintf("%se%+d", trimZeros(mantissa), exp)
	}

	rounded, err := strconv.ParseFloat(sci, 64)
	if err != nil {
		return sci
	}
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}

func trimZeros(mantissa string) string {
	if !strings.Contains(mantissa, ".") {
		return mantissa
	}
	mantissa = strings.TrimRight(mantissa, "0")
	return strings.TrimSuffix(mantissa, ".")
}
