package normalize

import (
	"regexp"
	"strings"
)

var (
	residualNoiseRe = regexp.MustCompile(`(?i)(₹|\brs\.?\s|\binr\b)`)
	residualTrim    = " -|:,;/"
)

// Residual strips dates, clock times and currency-shaped amounts from a
// line and returns what is left as a description.
func Residual(line string) string {
	b := []byte(blankDates(line))
	for _, re := range amountSearchRes {
		for _, span := range re.FindAllStringIndex(string(b), -1) {
			for i := span[0]; i < span[1]; i++ {
				b[i] = ' '
			}
		}
	}
	s := residualNoiseRe.ReplaceAllString(string(b), " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.Trim(s, residualTrim)
}
