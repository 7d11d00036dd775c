package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bobmcallan/vnstock-chat/internal/common"
	"github.com/bobmcallan/vnstock-chat/internal/models"
)

var (
	isoDatePattern = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	dmyDatePattern = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{4}|\d{2})\b`)
	relativeVI     = regexp.MustCompile(`(?:^|[^\p{L}\p{N}])(\d+)\s*(ngày|tuần|tháng|năm)\s*(?:qua|trước|gần đây|vừa qua|gần nhất)(?:$|[^\p{L}])`)
	withinVI       = regexp.MustCompile(`(?:^|[^\p{L}])trong\s+(\d+)\s*(ngày|tuần|tháng|năm)`)
	relativeEN     = regexp.MustCompile(`\b(\d+)\s*(day|week|month|year)s?\b`)
	trailingDigit  = regexp.MustCompile(`^\s*\d`)
	unitBefore     = regexp.MustCompile(`(?:ngày|tuần|tháng|quý|năm)\s*$`)
)

// namedPeriods are matched after literals and relative phrases, longest first
var namedPeriods = []struct {
	phrases []string
	span    func(today time.Time) (time.Time, time.Time)
}{
	{[]string{"hôm nay", "today"}, func(t time.Time) (time.Time, time.Time) { return t, t }},
	{[]string{"hôm qua", "yesterday"}, func(t time.Time) (time.Time, time.Time) {
		y := t.AddDate(0, 0, -1)
		return y, y
	}},
	{[]string{"tuần này", "this week"}, func(t time.Time) (time.Time, time.Time) { return startOfWeek(t), t }},
	{[]string{"tuần trước", "last week"}, func(t time.Time) (time.Time, time.Time) {
		mon := startOfWeek(t)
		return mon.AddDate(0, 0, -7), mon.AddDate(0, 0, -1)
	}},
	{[]string{"tháng này", "this month"}, func(t time.Time) (time.Time, time.Time) {
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()), t
	}},
	{[]string{"tháng trước", "last month"}, func(t time.Time) (time.Time, time.Time) {
		first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
		return first.AddDate(0, -1, 0), first.AddDate(0, 0, -1)
	}},
	{[]string{"năm nay", "this year"}, func(t time.Time) (time.Time, time.Time) {
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, t.Location()), t
	}},
	{[]string{"năm trước", "năm ngoái", "last year"}, func(t time.Time) (time.Time, time.Time) {
		return time.Date(t.Year()-1, 1, 1, 0, 0, 0, 0, t.Location()),
			time.Date(t.Year()-1, 12, 31, 0, 0, 0, 0, t.Location())
	}},
}

// extractDateRange returns nil when the message names no period
func extractDateRange(text string, now time.Time) *models.DateRange {
	today := truncateDay(now)
	lower := strings.ToLower(text)

	if dates := literalDates(lower); len(dates) > 0 {
		start, end := dates[0], dates[0]
		if len(dates) > 1 {
			end = dates[1]
			if end.Before(start) {
				start, end = end, start
			}
		}
		return &models.DateRange{Start: start, End: end}
	}

	if start, ok := relativeStart(lower, today); ok {
		return &models.DateRange{Start: start, End: today}
	}

	for _, np := range namedPeriods {
		for _, ph := range np.phrases {
			if strings.Contains(lower, ph) {
				start, end := np.span(today)
				return &models.DateRange{Start: start, End: end}
			}
		}
	}

	return nil
}

type positioned struct {
	at   int
	date time.Time
}

// literalDates returns valid calendar dates in order of appearance
func literalDates(text string) []time.Time {
	var found []positioned

	for _, m := range isoDatePattern.FindAllStringSubmatchIndex(text, -1) {
		y, mo, d := atoi(text[m[2]:m[3]]), atoi(text[m[4]:m[5]]), atoi(text[m[6]:m[7]])
		if t, ok := makeDate(y, mo, d); ok {
			found = append(found, positioned{at: m[0], date: t})
		}
	}
	for _, m := range dmyDatePattern.FindAllStringSubmatchIndex(text, -1) {
		d, mo, y := atoi(text[m[2]:m[3]]), atoi(text[m[4]:m[5]]), atoi(text[m[6]:m[7]])
		if m[7]-m[6] == 2 {
			y += 2000
		}
		if t, ok := makeDate(y, mo, d); ok {
			found = append(found, positioned{at: m[0], date: t})
		}
	}

	// insertion sort; at most a handful of matches
	for i := 1; i < len(found); i++ {
		for j := i; j > 0 && found[j].at < found[j-1].at; j-- {
			found[j], found[j-1] = found[j-1], found[j]
		}
	}

	out := make([]time.Time, len(found))
	for i, f := range found {
		out[i] = f.date
	}
	return out
}

// relativeStart handles "3 tháng qua", "trong 2 tuần" and "2 weeks". A bare
// number before a unit ("quý 4 năm nay", "tháng 3 năm trước") is not a span.
// Months count as 30 days.
func relativeStart(text string, today time.Time) (time.Time, bool) {
	for _, m := range relativeVI.FindAllStringSubmatchIndex(text, -1) {
		// "tháng 3 năm trước" names a month of last year
		if unitBefore.MatchString(text[:m[2]]) {
			continue
		}
		if n := atoi(text[m[2]:m[3]]); n > 0 {
			return shift(today, text[m[4]:m[5]], n), true
		}
	}
	for _, m := range withinVI.FindAllStringSubmatchIndex(text, -1) {
		// "trong 2 năm 2024" names a year
		if trailingDigit.MatchString(text[m[1]:]) {
			continue
		}
		if n := atoi(text[m[2]:m[3]]); n > 0 {
			return shift(today, text[m[4]:m[5]], n), true
		}
	}
	for _, m := range relativeEN.FindAllStringSubmatch(text, -1) {
		n := atoi(m[1])
		if n <= 0 {
			continue
		}
		return shift(today, m[2], n), true
	}
	return time.Time{}, false
}

func shift(today time.Time, unit string, n int) time.Time {
	switch unit {
	case "ngày", "day":
		return today.AddDate(0, 0, -n)
	case "tuần", "week":
		return today.AddDate(0, 0, -7*n)
	case "tháng", "month":
		return today.AddDate(0, 0, -30*n)
	case "năm", "year":
		return today.AddDate(-n, 0, 0)
	}
	return today
}

func makeDate(y, m, d int) (time.Time, bool) {
	if m < 1 || m > 12 || d < 1 || d > 31 || y < 1900 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, common.VietnamLocation)
	if t.Day() != d || int(t.Month()) != m {
		return time.Time{}, false // e.g. 31/02
	}
	return t, true
}

func truncateDay(t time.Time) time.Time {
	t = t.In(common.VietnamLocation)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, common.VietnamLocation)
}

func startOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7 // Monday = 0
	return t.AddDate(0, 0, -offset)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
