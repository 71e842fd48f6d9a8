package types

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var (
	dateTimeLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
	}
	timeLayouts = []string{
		"15:04:05.999999999",
		"15:04:05",
		"15:04",
	}

	yearWeekPattern  = regexp.MustCompile(`^(\d{4})-?W(\d{2})$`)
	yearMonthPattern = regexp.MustCompile(`^(\d{4})-(\d{2})$`)
)

func asString(v any, what string) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("cannot use %s as a %s", kindOf(v), what)
	}
	return s, nil
}

// ParseDate parses a calendar date (2006-01-02). Full RFC 3339 timestamps
// are accepted and truncated to their date.
func ParseDate(v any) (time.Time, error) {
	s, err := asString(v, "date")
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.DateOnly, s)
	if err == nil {
		return t, nil
	}
	if full, ferr := time.Parse(time.RFC3339Nano, s); ferr == nil {
		y, m, d := full.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, fmt.Errorf("%s is not a valid date: %w", s, err)
}

// ParseDateTime parses an RFC 3339 timestamp. Timestamps without a zone are
// read as UTC.
func ParseDateTime(v any) (time.Time, error) {
	s, err := asString(v, "date and time")
	if err != nil {
		return time.Time{}, err
	}
	var firstErr error
	for _, layout := range dateTimeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, fmt.Errorf("%s is not a valid date and time: %w", s, firstErr)
}

// ParseTime parses a time of day (15:04, 15:04:05) and returns the offset
// since midnight.
func ParseTime(v any) (time.Duration, error) {
	s, err := asString(v, "time")
	if err != nil {
		return 0, err
	}
	var firstErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second +
				time.Duration(t.Nanosecond()), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return 0, fmt.Errorf("%s is not a valid time: %w", s, firstErr)
}

// YearWeek is an ISO 8601 week date without the day component.
type YearWeek struct {
	Year int
	Week int
}

// Monday returns the first day of the week.
func (yw YearWeek) Monday() time.Time {
	// January 4th is always in week 1.
	jan4 := time.Date(yw.Year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7
	week1 := jan4.AddDate(0, 0, -offset)
	return week1.AddDate(0, 0, (yw.Week-1)*7)
}

// String formats the week as 2006-W01.
func (yw YearWeek) String() string {
	return fmt.Sprintf("%04d-W%02d", yw.Year, yw.Week)
}

// WeeksInYear returns 52 or 53, the number of ISO weeks in year.
func WeeksInYear(year int) int {
	_, week := time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return week
}

// ParseYearWeek parses an ISO week such as 2024-W07.
func ParseYearWeek(v any) (YearWeek, error) {
	s, err := asString(v, "year-week")
	if err != nil {
		return YearWeek{}, err
	}
	match := yearWeekPattern.FindStringSubmatch(s)
	if match == nil {
		return YearWeek{}, fmt.Errorf("%s is not a valid year-week: expected YYYY-Www", s)
	}
	year, _ := strconv.Atoi(match[1])
	week, _ := strconv.Atoi(match[2])
	if week < 1 || week > WeeksInYear(year) {
		return YearWeek{}, fmt.Errorf("%s is not a valid year-week: %d has %d weeks", s, year, WeeksInYear(year))
	}
	return YearWeek{Year: year, Week: week}, nil
}

// ParseYearMonth parses a month such as 2024-02 and returns its first day.
func ParseYearMonth(v any) (time.Time, error) {
	s, err := asString(v, "year-month")
	if err != nil {
		return time.Time{}, err
	}
	match := yearMonthPattern.FindStringSubmatch(s)
	if match == nil {
		return time.Time{}, fmt.Errorf("%s is not a valid year-month: expected YYYY-MM", s)
	}
	year, _ := strconv.Atoi(match[1])
	month, _ := strconv.Atoi(match[2])
	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("%s is not a valid year-month: month %d out of range", s, month)
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), nil
}
