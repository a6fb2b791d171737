package ingest

import (
	"math"
	"strconv"
	"strings"
)

// ParseBool interprets an extract flag. 1/true/yes/y are true and
// 0/false/no/n are false, case-insensitively; decimal exports of 1 and 0
// ("1.0", "0.0") are accepted too. Anything else yields nil.
func ParseBool(s string) *bool {
	var v bool
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "1.0", "true", "yes", "y":
		v = true
	case "0", "0.0", "false", "no", "n":
		v = false
	default:
		return nil
	}
	return &v
}

// ParseCount interprets a non-negative integer such as an enrollment total.
// Whole-valued decimals ("1234.0") are accepted. Negative, fractional or
// unparseable values yield nil, as do values beyond the int4 column range.
func ParseCount(s string) *int {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > math.MaxInt32 {
			return nil
		}
		return &n
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return nil
	}
	n := int(f)
	return &n
}

// ParseFloat interprets a coordinate. Unparseable and non-finite values
// yield nil; no range check is applied.
func ParseFloat(s string) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// NormalizeURL makes a website value fully qualified by prefixing https://
// when it has no http or https scheme. Blank and "nan" values yield nil.
func NormalizeURL(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return nil
	}
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		s = "https://" + s
	}
	return &s
}

// text returns a trimmed copy of s, or nil when s is blank.
func text(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
