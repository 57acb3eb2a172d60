package resolver

import (
	"regexp"
	"strconv"
)

var digitRun = regexp.MustCompile(`[0-9]+`)

// FirstNumber parses the first maximal run of ASCII digits in s as a base-10
// int. It reports false when there is no digit or the run overflows int.
func FirstNumber(s string) (int, bool) {
	run := digitRun.FindString(s)
	if run == "" {
		return 0, false
	}
	n, err := strconv.Atoi(run)
	if err != nil {
		return 0, false
	}
	return n, true
}
