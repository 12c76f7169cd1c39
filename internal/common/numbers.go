package common

import (
	"strconv"
	"strings"
)

// ParseLocaleNumber parses a locale-formatted numeric string such as
// "1,234,567" or "-2,450.5". Thousands separators are stripped before
// parsing. Empty, whitespace-only, or unparseable input yields 0 — upstream
// payloads routinely omit or mangle numeric fields and callers treat a
// missing value as zero rather than an error.
func ParseLocaleNumber(raw string) float64 {
	s := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// ParseLocaleInt is ParseLocaleNumber truncated to an integer.
func ParseLocaleInt(raw string) int64 {
	return int64(ParseLocaleNumber(raw))
}
