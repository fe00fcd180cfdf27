package kpi

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var leadingNumberRegex = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseNumber reads a decimal number written with a comma (or a dot) as decimal separator.
// Only the first comma is taken as the separator and trailing garbage is ignored ("12,5 h" is 12.5),
// so thousands separators are not supported. Missing or unparseable values yield 0.
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(strings.Replace(s, ",", ".", 1))
	if s == "" {
		return 0
	}
	m := leadingNumberRegex.FindString(s)
	if m == "" {
		return 0
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
