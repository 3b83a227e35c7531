package attendance

import (
	"fmt"
	"time"

	"github.com/username/desk-o-meter/pkg/dateutil"
)

// DayRecord is the stored state of one (user, date)
type DayRecord struct {
	Date        time.Time
	Status      Status
	IsHoliday   bool
	HolidayName string
	AdhocCredit bool
	Notes       string
}

// NewDayRecord returns the default record for a date that was never set
func NewDayRecord(date time.Time) DayRecord {
	return DayRecord{Date: dateutil.Civil(date)}
}

func (r DayRecord) Weekday() time.Weekday {
	return r.Date.Weekday()
}

func (r DayRecord) IsWeekend() bool {
	return dateutil.IsWeekend(r.Date)
}

// Validate checks that HolidayName is only set on holidays
func (r DayRecord) Validate() error {
	if !r.Status.Valid() {
		return fmt.Errorf("%w: %s has %v", ErrInvalidRecord, dateutil.FormatDate(r.Date), r.Status)
	}
	if r.HolidayName != "" && !r.IsHoliday {
		return fmt.Errorf("%w: %s has a holiday name but is not a holiday", ErrInvalidRecord, dateutil.FormatDate(r.Date))
	}
	return nil
}

// MonthView is a computed month for one user. It is never stored.
type MonthView struct {
	UserID   string
	Year     int
	Month    time.Month
	Settings Settings
	Days     []DayRecord
	Result   Result
}
