package calendar

import (
	"time"

	"github.com/username/desk-o-meter/pkg/dateutil"
)

// DateInfo represents information about a specific day
type DateInfo struct {
	Date        time.Time
	Weekday     time.Weekday
	IsWeekend   bool
	IsHoliday   bool
	HolidayName string
}

// IsWorkday reports whether the date is a weekday; holidays are still workdays
func (d DateInfo) IsWorkday() bool {
	return !d.IsWeekend
}

// BuildMonth lists every date of the month in ascending order and merges in
// the holidays
func BuildMonth(year int, month time.Month, holidays Holidays) []DateInfo {
	daysInMonth := dateutil.DaysInMonth(year, month)
	days := make([]DateInfo, 0, daysInMonth)

	for day := 1; day <= daysInMonth; day++ {
		date := dateutil.Date(year, month, day)
		name, isHoliday := holidays.Lookup(date)

		days = append(days, DateInfo{
			Date:        date,
			Weekday:     date.Weekday(),
			IsWeekend:   dateutil.IsWeekend(date),
			IsHoliday:   isHoliday,
			HolidayName: name,
		})
	}

	return days
}

// MonthGrid returns the month as Monday-first weeks of seven cells.
// Cells before the first and after the last day are zero times.
func MonthGrid(year int, month time.Month) [][7]time.Time {
	var grid [][7]time.Time
	var week [7]time.Time

	for day := 1; day <= dateutil.DaysInMonth(year, month); day++ {
		date := dateutil.Date(year, month, day)
		col := (int(date.Weekday()) + 6) % 7
		week[col] = date
		if col == 6 {
			grid = append(grid, week)
			week = [7]time.Time{}
		}
	}
	if week != ([7]time.Time{}) {
		grid = append(grid, week)
	}

	return grid
}
