package facts

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	yearMonth  = regexp.MustCompile(`^(\d{4})[-/.](\d{1,2})(?:[-/.]\d{1,2})?$`)
	monthYear  = regexp.MustCompile(`^(\d{1,2})[-/.](\d{4})$`)
	namedMonth = regexp.MustCompile(`\b([a-z]{3,9})\.?,?\s*(?:\d{1,2}(?:st|nd|rd|th)?,?\s+)?(\d{4})\b`)
	shortYear  = regexp.MustCompile(`\b([a-z]{3,9})\.?\s*'(\d{2})\b`)
	bareYear   = regexp.MustCompile(`\b((?:19|20)\d{2})\b`)
	rangeSep   = regexp.MustCompile(`\s+[-–—]+\s+|[–—]|\s+to\s+`)
)

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

var ongoing = map[string]struct{}{
	"present": {},
	"current": {},
	"now":     {},
}

// ParseMonthYear reads the month and year of a free-text resume date.
// Formats seen in practice include "Jan 2020", "January 15, 2020", "Jan '20",
// "01/2020", "2020-01", "2020-01-15" and a bare "2020", which maps to January.
func ParseMonthYear(s string) (time.Time, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return time.Time{}, false
	}

	if m := yearMonth.FindStringSubmatch(s); m != nil {
		return build(m[1], m[2])
	}
	if m := monthYear.FindStringSubmatch(s); m != nil {
		return build(m[2], m[1])
	}
	for _, pattern := range []*regexp.Regexp{namedMonth, shortYear} {
		for _, m := range pattern.FindAllStringSubmatch(s, -1) {
			month, ok := months[m[1][:3]]
			if !ok {
				continue
			}
			year, err := strconv.Atoi(m[2])
			if err != nil {
				continue
			}
			if len(m[2]) == 2 {
				year += 2000
			}
			return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC), true
		}
	}
	if m := bareYear.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), true
	}

	return time.Time{}, false
}

func build(yearText, monthText string) (time.Time, bool) {
	year, err := strconv.Atoi(yearText)
	if err != nil {
		return time.Time{}, false
	}
	month, err := strconv.Atoi(monthText)
	if err != nil || month < 1 || month > 12 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), true
}

// PositionMonths returns the whole months between start and end. Ranges
// written into a single field ("Jan 2020 - Mar 2021") are split. An ongoing
// end resolves to now; an empty end is unreadable. ok is false when either
// side cannot be read.
func PositionMonths(start, end string, now time.Time) (int, bool) {
	if parts := rangeSep.Split(strings.TrimSpace(start), 2); len(parts) == 2 {
		start = parts[0]
		if strings.TrimSpace(end) == "" {
			end = parts[1]
		}
	}
	if parts := rangeSep.Split(strings.TrimSpace(end), 2); len(parts) == 2 {
		end = parts[1]
	}

	from, ok := ParseMonthYear(start)
	if !ok {
		return 0, false
	}

	to := now
	if _, isOngoing := ongoing[strings.ToLower(strings.TrimSpace(end))]; !isOngoing {
		if to, ok = ParseMonthYear(end); !ok {
			return 0, false
		}
	}

	months := (to.Year()-from.Year())*12 + int(to.Month()-from.Month())
	if months < 0 {
		months = 0
	}
	return months, true
}
