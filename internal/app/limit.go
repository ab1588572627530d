package service

import (
	"math"
	"strconv"
	"strings"
)

// ParseLimit reads a raw ?limit value loosely: surrounding space is ignored,
// fractions are truncated, and anything unparsable yields 0 so that the
// default applies.
func ParseLimit(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) {
		return 0
	}
	if f >= math.MaxInt32 {
		return math.MaxInt32
	}
	if f < 1 {
		return 0
	}
	return int(f)
}

// clampLimit applies the default to non-positive values and caps at max.
func clampLimit(limit, def, max int) int {
	if limit < 1 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	return limit
}
