package bom

import (
	"math"
	"strconv"
)

// Num formats a quantity for explanation strings: integers without decimals,
// everything else with two.
func Num(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
