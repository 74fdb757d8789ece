package youtube

import (
	"fmt"
	"regexp"
	"strconv"
)

var iso8601Duration = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// ParseDuration converts the ISO-8601 duration the API reports
// (e.g. "PT1H2M30S") into seconds.
func ParseDuration(s string) (int, error) {
	if s == "" {
		return 0, nil
	}

	m := iso8601Duration.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("malformed duration %q", s)
	}

	days := atoiOrZero(m[1])
	hours := atoiOrZero(m[2])
	minutes := atoiOrZero(m[3])
	seconds := atoiOrZero(m[4])

	return days*86400 + hours*3600 + minutes*60 + seconds, nil
}

func atoiOrZero(s string) int {
	if s == "" {
		return 0
	}
	n, _ := strconv.Atoi(s)
	return n
}
