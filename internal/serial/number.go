package serial

import (
	"math"
	"strconv"
	"strings"
)

// maxSafeInteger is the largest magnitude at which every integral float64 is
// exact; integral floats below it are written as integers.
const maxSafeInteger = 1<<53 - 1

// integralFloat reports whether f is written as an integer and returns its
// sign and magnitude.
func integralFloat(f float64) (neg bool, mag uint64, ok bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return false, 0, false
	}
	if math.Abs(f) > maxSafeInteger {
		return false, 0, false
	}
	if f < 0 {
		return true, uint64(-f), true
	}

	return false, uint64(f), true
}

// formatFloat returns the canonical text of a non-integral number: plain
// decimal notation for magnitudes in [1e-6, 1e21), exponent notation
// without exponent padding otherwise.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}

	abs := math.Abs(f)
	if abs == 0 || (abs >= 1e-6 && abs < 1e21) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}

	s := strconv.FormatFloat(f, 'e', -1, 64)
	mant, exp, _ := strings.Cut(s, "e")
	sign := exp[:1]
	exp = strings.TrimLeft(exp[1:], "0")

	return mant + "e" + sign + exp
}

// parseFloat parses text written by formatFloat.
func parseFloat(s string) (float64, error) {
	switch s {
	case "NaN":
		return math.NaN(), nil
	case "Infinity":
		return math.Inf(1), nil
	case "-Infinity":
		return math.Inf(-1), nil
	}

	return strconv.ParseFloat(s, 64)
}
