package scheduling

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	ymdPrefixPattern = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})(?:$|[T\s])`)
	plainDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	noTimezoneISO    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[T\s]\d{2}:\d{2}(?::\d{2}(?:\.\d{1,9})?)?$`)
	whitespaceRun    = regexp.MustCompile(`\s+`)
)

var daysInMonth = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// ParseDate parses the date strings task fields carry. Plain YYYY-MM-DD is
// validated against real calendar bounds including leap years; ISO timestamps
// without a timezone are treated as UTC. Invalid input parses to no value
// rather than an error so the validator stays side-effect-free.
func ParseDate(raw string) (time.Time, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, false
	}

	if m := ymdPrefixPattern.FindStringSubmatch(value); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if month < 1 || month > 12 {
			return time.Time{}, false
		}
		maxDays := daysInMonth[month-1]
		if month == 2 && isLeapYear(year) {
			maxDays = 29
		}
		if day < 1 || day > maxDays {
			return time.Time{}, false
		}
		if plainDatePattern.MatchString(value) {
			return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
		}
	}

	if noTimezoneISO.MatchString(value) {
		normalized := whitespaceRun.ReplaceAllString(value, "T") + "Z"
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04Z07:00"} {
			if t, err := time.Parse(layout, normalized); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	}

	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
