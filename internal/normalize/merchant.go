package normalize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// UnknownMerchant is returned when no counterparty can be resolved.
const UnknownMerchant = "Unknown"

// MaxDescriptionLength caps free text captured from noisy sources.
const MaxDescriptionLength = 200

var (
	// Ordered from most to least specific; the first capture wins.
	merchantPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bpaid\s+to\s+(.+)`),
		regexp.MustCompile(`(?i)\breceived\s+from\s+(.+)`),
		regexp.MustCompile(`(?i)\bto\s+(.+)`),
		regexp.MustCompile(`(?i)\bfrom\s+(.+)`),
	}

	tokenSplitRe = regexp.MustCompile(`[\s\-_@/|]+`)
	spaceRe      = regexp.MustCompile(`\s+`)

	stopWords = map[string]bool{
		"the": true, "and": true, "for": true, "to": true, "from": true,
		"at": true, "in": true, "on": true, "with": true,
	}

	// Words that end a captured counterparty name.
	nameTerminators = map[string]bool{
		"on": true, "via": true, "using": true, "upi": true, "ref": true,
		"txn": true, "transaction": true, "debit": true, "credit": true,
		"dr": true, "cr": true, "id": true, "no": true, "for": true,
	}
)

// ExtractMerchant derives a counterparty name from a description. UPI style
// phrases ("paid to X", "received from X", "to X", "from X") are tried
// first, then the first token longer than two characters that is not a stop
// word and contains a letter.
func ExtractMerchant(description string) string {
	desc := strings.TrimSpace(description)
	if desc == "" {
		return UnknownMerchant
	}

	for _, re := range merchantPatterns {
		m := re.FindStringSubmatch(desc)
		if m == nil {
			continue
		}
		if name := leadingName(m[1]); name != "" {
			return name
		}
	}

	for _, token := range tokenSplitRe.Split(desc, -1) {
		token = strings.Trim(token, ".,:;()[]{}\"'")
		if utf8.RuneCountInString(token) <= 2 {
			continue
		}
		if stopWords[strings.ToLower(token)] || !hasLetter(token) {
			continue
		}
		return token
	}

	return UnknownMerchant
}

// CleanDescription collapses whitespace, trims and caps the length.
func CleanDescription(s string) string {
	s = strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
	if utf8.RuneCountInString(s) <= MaxDescriptionLength {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:MaxDescriptionLength]))
}

// leadingName keeps up to four words of a captured phrase, stopping at the
// first separator or reference-like word.
func leadingName(captured string) string {
	if idx := strings.IndexAny(captured, "-@/|,;:()"); idx >= 0 {
		captured = captured[:idx]
	}
	var words []string
	for _, w := range strings.Fields(captured) {
		if nameTerminators[strings.ToLower(w)] || !hasLetter(w) {
			break
		}
		words = append(words, w)
		if len(words) == 4 {
			break
		}
	}
	return strings.Join(words, " ")
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
