package manager

import (
	"fmt"
	"time"

	"github.com/username/desk-o-meter/internal/attendance"
	"github.com/username/desk-o-meter/internal/calendar"
	"github.com/username/desk-o-meter/pkg/dateutil"
)

// SeedPattern gives the status a never-seen date starts with, by weekday.
// Weekdays not in the pattern start as NONE.
type SeedPattern map[time.Weekday]attendance.Status

// ParseSeedPattern parses {"TUE": "OFFICE", ...}
func ParseSeedPattern(raw map[string]string) (SeedPattern, error) {
	pattern := make(SeedPattern, len(raw))
	for code, name := range raw {
		wd, err := dateutil.ParseWeekday(code)
		if err != nil {
			return nil, fmt.Errorf("seed pattern: %w", err)
		}
		status, err := attendance.ParseStatus(name)
		if err != nil {
			return nil, fmt.Errorf("seed pattern %s: %w", code, err)
		}
		pattern[wd] = status
	}
	return pattern, nil
}

// seedRecord builds the first stored record of a date. Holidays always start
// as NONE so a seeded VACATION never lands on one.
func (p SeedPattern) seedRecord(info calendar.DateInfo) attendance.DayRecord {
	rec := attendance.NewDayRecord(info.Date)
	if info.IsHoliday {
		rec.IsHoliday = true
		rec.HolidayName = info.HolidayName
		return rec
	}
	if status, ok := p[info.Weekday]; ok {
		rec.Status = status
	}
	return rec
}
