package youtube

import (
	"fmt"
	"regexp"
	"strconv"
)

// durationPattern matches the compact ISO-8601 durations the Data API emits
// for video lengths: PT#H#M#S with every component optional.
var durationPattern = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// ParseDuration converts a compact duration string to total seconds.
// Upstream data occasionally omits or garbles the field, so the function is
// total: empty or non-matching input yields 0, never an error.
//
//	PT1M30S -> 90
//	PT45S   -> 45
//	PT10M   -> 600
func ParseDuration(s string) int {
	if s == "" {
		return 0
	}

	m := durationPattern.FindStringSubmatch(s)
	if m == nil {
		return 0
	}

	hours := atoiOrZero(m[1])
	minutes := atoiOrZero(m[2])
	seconds := atoiOrZero(m[3])

	return hours*3600 + minutes*60 + seconds
}

// FormatDuration renders total seconds in the same compact grammar. It is
// the codec's construction helper; ParseDuration(FormatDuration(n)) == n for
// every non-negative n.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}

	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60

	out := "PT"
	if h > 0 {
		out += fmt.Sprintf("%dH", h)
	}
	if m > 0 {
		out += fmt.Sprintf("%dM", m)
	}
	if s > 0 || (h == 0 && m == 0) {
		out += fmt.Sprintf("%dS", s)
	}
	return out
}

func atoiOrZero(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
