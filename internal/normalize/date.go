package normalize

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// Now is the clock used for the upper bound of the accepted year range.
var Now = time.Now

const (
	minYear = 1970

	// maxSerial is 9999-12-31 in spreadsheet serial form.
	maxSerial = 2958465
)

// Spreadsheet serials count from 1899-12-30 so that serial 60 lands on the
// phantom 29 Feb 1900 and every later serial matches the spreadsheet calendar.
var serialEpoch = civil.Date{Year: 1899, Month: time.December, Day: 30}

var (
	serialRe   = regexp.MustCompile(`^\d+(\.\d+)?$`)
	dmySlashRe = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})(?:[^\d]|$)`)
	dmyDashRe  = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})(?:[^\d]|$)`)
	ymdRe      = regexp.MustCompile(`^(\d{4})[-/](\d{1,2})[-/](\d{1,2})(?:[^\d]|$)`)
	dmyDotRe   = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{4})(?:[^\d]|$)`)
	dmyShortRe = regexp.MustCompile(`^(\d{1,2})[/.-](\d{1,2})[/.-](\d{2})(?:[^\d]|$)`)
	mdyNamedRe = regexp.MustCompile(`(?i)^([a-z]{3,9})\.?\s+(\d{1,2}),?\s+(\d{4})(?:[^\d]|$)`)
	dmyNamedRe = regexp.MustCompile(`(?i)^(\d{1,2})[\s-]+([a-z]{3,9})\.?,?[\s-]+(\d{4}|\d{2})(?:[^\d]|$)`)
	clockRe    = regexp.MustCompile(`(?i)(?:^|[^\d:])(\d{1,2}):(\d{2})(?::(\d{2}))?\s*(am|pm)?\b`)

	// Unanchored forms used to locate a date inside a longer line.
	dateSearchRes = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{1,2}[/.-]\d{1,2}[/.-]\d{2,4}\b`),
		regexp.MustCompile(`\b\d{4}-\d{1,2}-\d{1,2}`),
		regexp.MustCompile(`(?i)\b(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{1,2},?\s+\d{4}`),
		regexp.MustCompile(`(?i)\b\d{1,2}[\s-](?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?,?[\s-]\d{2,4}\b`),
	}
)

var genericLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02",
	"20060102",
	"Mon Jan 2 2006",
	"Monday, January 2, 2006",
	"Jan 2 2006",
}

var monthNames = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// ParseDate parses a statement date. Formats are tried in order: spreadsheet
// serials (a digit string that is not a valid serial falls through), DD/MM/YYYY, DD-MM-YYYY, YYYY-MM-DD, DD.MM.YYYY, two-digit years
// (YY > 50 is 19YY), named months, then a few generic layouts. Day comes
// before month in every numeric form. The reconstructed date must exist on
// the calendar and fall in [1970, current year + 1].
func ParseDate(raw string) (civil.Date, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return civil.Date{}, false
	}

	if serialRe.MatchString(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			if d, ok := FromSerial(f); ok {
				return d, true
			}
		}
		// Compact YYYYMMDD is all digits too; let the generic layouts try it.
	}

	if m := dmySlashRe.FindStringSubmatch(s); m != nil {
		return buildDate(m[3], m[2], m[1])
	}
	if m := dmyDashRe.FindStringSubmatch(s); m != nil {
		return buildDate(m[3], m[2], m[1])
	}
	if m := ymdRe.FindStringSubmatch(s); m != nil {
		return buildDate(m[1], m[2], m[3])
	}
	if m := dmyDotRe.FindStringSubmatch(s); m != nil {
		return buildDate(m[3], m[2], m[1])
	}
	if m := dmyShortRe.FindStringSubmatch(s); m != nil {
		return buildDate(pivotYear(m[3]), m[2], m[1])
	}
	if m := mdyNamedRe.FindStringSubmatch(s); m != nil {
		if month, ok := lookupMonth(m[1]); ok {
			return buildDate(m[3], strconv.Itoa(int(month)), m[2])
		}
	}
	if m := dmyNamedRe.FindStringSubmatch(s); m != nil {
		if month, ok := lookupMonth(m[2]); ok {
			year := m[3]
			if len(year) == 2 {
				year = pivotYear(year)
			}
			return buildDate(year, strconv.Itoa(int(month)), m[1])
		}
	}

	for _, layout := range genericLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d := civil.DateOf(t)
			if inRange(d) {
				return d, true
			}
			return civil.Date{}, false
		}
	}

	return civil.Date{}, false
}

// ParseTimestamp parses a date and, when the text carries one, a time of day.
func ParseTimestamp(raw string) (civil.Date, *civil.Time, bool) {
	d, ok := ParseDate(raw)
	if !ok {
		return civil.Date{}, nil, false
	}
	// Serial numbers never carry a clock.
	if serialRe.MatchString(strings.TrimSpace(raw)) {
		return d, nil, true
	}
	if t, ok := ParseClock(raw); ok {
		return d, &t, true
	}
	return d, nil, true
}

// ParseClock finds a clock time such as "03:13 pm" or "18:00:05".
func ParseClock(raw string) (civil.Time, bool) {
	m := clockRe.FindStringSubmatch(raw)
	if m == nil {
		return civil.Time{}, false
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	second := 0
	if m[3] != "" {
		second, _ = strconv.Atoi(m[3])
	}
	switch strings.ToLower(m[4]) {
	case "am":
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour < 12 {
			hour += 12
		}
	}
	t := civil.Time{Hour: hour, Minute: minute, Second: second}
	if !t.IsValid() {
		return civil.Time{}, false
	}
	return t, true
}

// FromSerial converts a spreadsheet date serial. The fractional time part is ignored.
func FromSerial(serial float64) (civil.Date, bool) {
	if serial < 1 || serial > maxSerial {
		return civil.Date{}, false
	}
	d := serialEpoch.AddDays(int(serial))
	if !inRange(d) {
		return civil.Date{}, false
	}
	return d, true
}

// FormatDate renders the canonical ISO form accepted back by ParseDate.
func FormatDate(d civil.Date) string {
	return d.String()
}

// FindDate returns the first valid date appearing in a line along with the
// matched text.
func FindDate(line string) (civil.Date, string, bool) {
	for _, span := range dateSpans(line) {
		token := line[span[0]:span[1]]
		if d, ok := ParseDate(token); ok {
			return d, token, true
		}
	}
	return civil.Date{}, "", false
}

// HasDate reports whether a line contains a parseable date.
func HasDate(line string) bool {
	_, _, ok := FindDate(line)
	return ok
}

// dateSpans lists date-shaped matches ordered by position.
func dateSpans(line string) [][]int {
	var spans [][]int
	for _, re := range dateSearchRes {
		spans = append(spans, re.FindAllStringIndex(line, -1)...)
	}
	sort.SliceStable(spans, func(i, j int) bool {
		return spans[i][0] < spans[j][0]
	})
	return spans
}

func buildDate(year, month, day string) (civil.Date, bool) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return civil.Date{}, false
	}
	m, err := strconv.Atoi(month)
	if err != nil {
		return civil.Date{}, false
	}
	dd, err := strconv.Atoi(day)
	if err != nil {
		return civil.Date{}, false
	}
	d := civil.Date{Year: y, Month: time.Month(m), Day: dd}
	if !d.IsValid() || !inRange(d) {
		return civil.Date{}, false
	}
	return d, true
}

func pivotYear(yy string) string {
	n, err := strconv.Atoi(yy)
	if err != nil {
		return yy
	}
	if n > 50 {
		return strconv.Itoa(1900 + n)
	}
	return strconv.Itoa(2000 + n)
}

func lookupMonth(name string) (time.Month, bool) {
	if len(name) < 3 {
		return 0, false
	}
	m, ok := monthNames[strings.ToLower(name[:3])]
	return m, ok
}

func inRange(d civil.Date) bool {
	return d.Year >= minYear && d.Year <= Now().Year()+1
}
