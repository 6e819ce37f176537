package experience

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

type dateFormat struct {
	re    *regexp.Regexp
	year  int
	month int
	day   int
}

// Index 0 means the component is absent and defaults to 1.
var dateFormats = []dateFormat{
	{re: regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`), year: 1, month: 2, day: 3},
	{re: regexp.MustCompile(`^(\d{4})-(\d{1,2})$`), year: 1, month: 2},
	{re: regexp.MustCompile(`^(\d{1,2})/(\d{4})$`), year: 2, month: 1},
	{re: regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`), year: 3, month: 1, day: 2},
	{re: regexp.MustCompile(`^(\d{4})$`), year: 1},
}

// ParseDate reads YYYY-MM-DD, YYYY-MM, MM/YYYY, MM/DD/YYYY and YYYY.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, f := range dateFormats {
		m := f.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		year := atoi(m, f.year)
		month := atoi(m, f.month)
		day := atoi(m, f.day)
		if month < 1 || month > 12 || day < 1 || day > 31 {
			return time.Time{}, false
		}
		t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		// Reject dates that time.Date had to normalize (2023-02-30).
		if t.Day() != day {
			return time.Time{}, false
		}
		return t, true
	}
	return time.Time{}, false
}

func atoi(m []string, idx int) int {
	if idx == 0 {
		return 1
	}
	n, err := strconv.Atoi(m[idx])
	if err != nil {
		return 0
	}
	return n
}
