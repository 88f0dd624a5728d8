package filter

import (
	"fmt"
	"strings"
)

// ParseISO8601Duration converts a compact ISO 8601 duration such as
// "PT1H2M3S" into seconds. Only hour, minute and second designators are
// recognized; date components before the T are not used by the upstream for
// video lengths.
func ParseISO8601Duration(s string) (int, error) {
	if !strings.HasPrefix(s, "P") {
		return 0, fmt.Errorf("invalid duration %q: missing P prefix", s)
	}
	_, timePart, found := strings.Cut(s, "T")
	if !found {
		return 0, fmt.Errorf("invalid duration %q: missing time component", s)
	}

	total := 0
	num := 0
	haveDigits := false
	for _, ch := range timePart {
		if ch >= '0' && ch <= '9' {
			num = num*10 + int(ch-'0')
			haveDigits = true
			continue
		}
		if !haveDigits {
			return 0, fmt.Errorf("invalid duration %q: designator %q without digits", s, ch)
		}
		switch ch {
		case 'H':
			total += num * 3600
		case 'M':
			total += num * 60
		case 'S':
			total += num
		default:
			return 0, fmt.Errorf("invalid duration %q: unknown designator %q", s, ch)
		}
		num = 0
		haveDigits = false
	}
	return total, nil
}
