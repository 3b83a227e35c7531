package dateutil

import (
	"fmt"
	"strings"
	"time"
)

// ISODate is the layout used for dates everywhere in storage and exports
const ISODate = "2006-01-02"

// Date returns midnight UTC for the given calendar date
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// StartOfDay returns the start of the day (00:00:00) for the given date
func StartOfDay(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
}

// Civil drops the time and location of t, keeping its calendar date as UTC midnight
func Civil(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day())
}

// DaysInMonth returns the number of days in the given month
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthBounds returns the first and the last date of the month
func MonthBounds(year int, month time.Month) (first, last time.Time) {
	first = Date(year, month, 1)
	last = Date(year, month, DaysInMonth(year, month))
	return first, last
}

// InMonth reports whether date falls into the given month
func InMonth(date time.Time, year int, month time.Month) bool {
	return date.Year() == year && date.Month() == month
}

// AddMonths shifts (year, month) by n months, n may be negative
func AddMonths(year int, month time.Month, n int) (int, time.Month) {
	t := Date(year, month, 1).AddDate(0, n, 0)
	return t.Year(), t.Month()
}

// IsWeekday returns true if the date is Monday-Friday
func IsWeekday(date time.Time) bool {
	weekday := date.Weekday()
	return weekday >= time.Monday && weekday <= time.Friday
}

// IsWeekend returns true if the date is Saturday or Sunday
func IsWeekend(date time.Time) bool {
	weekday := date.Weekday()
	return weekday == time.Saturday || weekday == time.Sunday
}

// IsSameDay returns true if two dates are on the same day
func IsSameDay(date1, date2 time.Time) bool {
	return date1.Year() == date2.Year() &&
		date1.Month() == date2.Month() &&
		date1.Day() == date2.Day()
}

// FormatDate formats the calendar date as YYYY-MM-DD
func FormatDate(date time.Time) string {
	return date.Format(ISODate)
}

// ParseDate parses date string in various formats.
// The result is a civil date (UTC midnight).
func ParseDate(dateStr string) (time.Time, error) {
	formats := []string{
		ISODate,
		"02.01.2006",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04:05Z07:00",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, strings.TrimSpace(dateStr)); err == nil {
			return Civil(t), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized date %q", dateStr)
}

var weekdayCodes = [...]string{"SUN", "MON", "TUE", "WED", "THU", "FRI", "SAT"}

// WeekdayCode returns the three-letter upper-case code (MON, TUE, ...)
func WeekdayCode(weekday time.Weekday) string {
	return weekdayCodes[weekday%7]
}

// ParseWeekday parses a weekday code such as "MON" or "tue"
func ParseWeekday(code string) (time.Weekday, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for i, c := range weekdayCodes {
		if c == code {
			return time.Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", code)
}

// Today returns today's date in the given IANA timezone as a civil date.
// An empty or unknown timezone falls back to the local one.
func Today(timezone string) time.Time {
	now := time.Now()
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err == nil {
			now = now.In(loc)
		}
	}
	return Civil(now)
}
