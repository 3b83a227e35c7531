package attendance

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/username/desk-o-meter/pkg/dateutil"
)

// Result is the quota accounting of one month
type Result struct {
	Workdays     int
	Denominator  int
	Numerator    int
	RequiredDays int
	Balance      int

	// PercentAchieved is Numerator / Denominator * 100, or 0 for an empty denominator
	PercentAchieved float64
	// CreditedHolidays counts days credited by an automatic holiday rule
	CreditedHolidays int
	// StatusCounts counts workday records by status
	StatusCounts map[Status]int
}

type contribution struct {
	numerator     int
	denominator   int
	holidayCredit bool
}

// Compute runs the quota accounting for one month.
//
// Records may come in any order. Dates of the month without a record count as
// default records (NONE, no holiday, no adhoc credit). A record outside the
// month, a repeated date or a malformed record fails with ErrInvalidRecord.
func Compute(year int, month time.Month, records []DayRecord, settings Settings) (Result, error) {
	if err := settings.Validate(); err != nil {
		return Result{}, err
	}

	byDay, err := indexMonth(year, month, records)
	if err != nil {
		return Result{}, err
	}

	result := Result{StatusCounts: make(map[Status]int, len(statusNames))}
	adjustment := 0

	for day := 1; day <= dateutil.DaysInMonth(year, month); day++ {
		rec, ok := byDay[day]
		if !ok {
			rec = NewDayRecord(dateutil.Date(year, month, day))
		}
		if rec.IsWeekend() {
			continue
		}

		result.Workdays++
		result.StatusCounts[rec.Status]++

		c := classify(rec, settings)
		result.Numerator += c.numerator
		adjustment += c.denominator
		if c.holidayCredit {
			result.CreditedHolidays++
		}
	}

	result.Denominator = result.Workdays + adjustment
	if result.Denominator < 0 {
		result.Denominator = 0
	}

	result.RequiredDays = RequiredDays(settings.RequiredPercent, result.Denominator, settings.RoundingMode)
	result.Balance = result.Numerator - result.RequiredDays
	if result.Denominator > 0 {
		result.PercentAchieved = float64(result.Numerator) / float64(result.Denominator) * 100
	}

	return result, nil
}

// classify returns what a single workday adds to each side of the quota
func classify(rec DayRecord, settings Settings) contribution {
	var c contribution

	switch {
	case rec.Status == StatusVacation:
		c.denominator = -1

	case rec.IsHoliday:
		weekday := rec.Weekday()
		switch {
		case settings.CreditWeekdays.Contains(weekday):
			c.numerator++
			c.holidayCredit = true
		case weekday == time.Monday || weekday == time.Friday:
			switch settings.MonFriHolidayTreatment {
			case TreatmentExclude:
				c.denominator = -1
			case TreatmentCredit:
				c.numerator++
				c.holidayCredit = true
			}
		}
		// adhoc credit stacks on top of any automatic rule
		if rec.AdhocCredit {
			c.numerator++
		}

	case rec.Status == StatusOffice:
		c.numerator++
	}

	return c
}

// RequiredDays rounds percent × denominator once, using exact decimal arithmetic.
// A NaN or infinite percent requires nothing.
func RequiredDays(percent float64, denominator int, mode RoundingMode) int {
	if math.IsNaN(percent) || math.IsInf(percent, 0) {
		return 0
	}
	exact := decimal.NewFromFloat(percent).Mul(decimal.NewFromInt(int64(denominator)))

	var rounded decimal.Decimal
	switch mode {
	case RoundFloor:
		rounded = exact.Floor()
	case RoundHalfUp:
		// exact is never negative, so half away from zero is half up
		rounded = exact.Round(0)
	default:
		rounded = exact.Ceil()
	}
	return int(rounded.IntPart())
}

func indexMonth(year int, month time.Month, records []DayRecord) (map[int]DayRecord, error) {
	byDay := make(map[int]DayRecord, len(records))
	for _, rec := range records {
		if !dateutil.InMonth(rec.Date, year, month) {
			return nil, fmt.Errorf("%w: %s is outside %d-%02d",
				ErrInvalidRecord, dateutil.FormatDate(rec.Date), year, int(month))
		}
		if err := rec.Validate(); err != nil {
			return nil, err
		}
		if _, dup := byDay[rec.Date.Day()]; dup {
			return nil, fmt.Errorf("%w: duplicate date %s", ErrInvalidRecord, dateutil.FormatDate(rec.Date))
		}
		byDay[rec.Date.Day()] = rec
	}
	return byDay, nil
}
