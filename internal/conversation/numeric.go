package conversation

import (
	"math"
	"strconv"
	"strings"
)

// ParseAmount parses a non-negative decimal typed by a user. Surrounding space
// is ignored, "." or "," may appear once as the separator, every other rune
// must be an ASCII digit.
func ParseAmount(text string) (float64, bool) {
	s := strings.TrimSpace(text)
	digits, seps := 0, 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			digits++
		case c == '.' || c == ',':
			seps++
			if seps > 1 {
				return 0, false
			}
		default:
			return 0, false
		}
	}
	if digits == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
