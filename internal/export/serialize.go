package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/username/desk-o-meter/internal/attendance"
	"github.com/username/desk-o-meter/pkg/dateutil"
)

// SchemaVersion is the version written by Serialize and the only one
// Deserialize accepts
const SchemaVersion = 1

// ErrSchemaMismatch is returned when a month document cannot be read back
var ErrSchemaMismatch = errors.New("month document schema mismatch")

// Document is a deserialized month
type Document struct {
	Version  int
	UserID   string
	Year     int
	Month    time.Month
	Settings attendance.Settings
	Days     []attendance.DayRecord
}

// wire format, pointers mark required fields

type monthDoc struct {
	Version  *int         `json:"version"`
	UserID   *string      `json:"user_id"`
	Month    *monthRef    `json:"month"`
	Settings *settingsDoc `json:"settings"`
	Summary  *summaryDoc  `json:"summary,omitempty"`
	Days     []dayDoc     `json:"days"`
}

type monthRef struct {
	Year  *int `json:"year"`
	Month *int `json:"month"`
}

type settingsDoc struct {
	RequiredPercent        *float64                     `json:"required_percent"`
	RoundingMode           *attendance.RoundingMode     `json:"rounding_mode"`
	CreditWeekdays         *attendance.Weekdays         `json:"credit_weekdays"`
	MonFriHolidayTreatment *attendance.HolidayTreatment `json:"mon_fri_holiday_treatment"`
	Country                *string                      `json:"country"`
	State                  string                       `json:"state"`
	Timezone               *string                      `json:"timezone"`
}

type summaryDoc struct {
	Workdays         int            `json:"workdays"`
	Denominator      int            `json:"denominator"`
	Numerator        int            `json:"numerator"`
	RequiredDays     int            `json:"required_days"`
	Balance          int            `json:"balance"`
	PercentAchieved  float64        `json:"percent_achieved"`
	CreditedHolidays int            `json:"credited_holidays"`
	StatusCounts     map[string]int `json:"status_counts"`
}

type dayDoc struct {
	Date        *string            `json:"date"`
	Status      *attendance.Status `json:"status"`
	IsHoliday   *bool              `json:"is_holiday"`
	HolidayName string             `json:"holiday_name"`
	AdhocCredit *bool              `json:"adhoc_credit"`
	Notes       string             `json:"notes"`
}

// Serialize writes a month view as an indented JSON document. Days are
// written in date order.
func Serialize(view attendance.MonthView) ([]byte, error) {
	if err := view.Settings.Validate(); err != nil {
		return nil, err
	}
	if view.Month < time.January || view.Month > time.December {
		return nil, fmt.Errorf("%w: month %d out of range", attendance.ErrInvalidRecord, view.Month)
	}

	version := SchemaVersion
	year, month := view.Year, int(view.Month)
	userID := view.UserID
	s := view.Settings.Normalize()
	weekdays := s.CreditWeekdays

	days := append([]attendance.DayRecord(nil), view.Days...)
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })

	doc := monthDoc{
		Version: &version,
		UserID:  &userID,
		Month:   &monthRef{Year: &year, Month: &month},
		Settings: &settingsDoc{
			RequiredPercent:        &s.RequiredPercent,
			RoundingMode:           &s.RoundingMode,
			CreditWeekdays:         &weekdays,
			MonFriHolidayTreatment: &s.MonFriHolidayTreatment,
			Country:                &s.Country,
			State:                  s.State,
			Timezone:               &s.Timezone,
		},
		Summary: newSummary(view.Result),
		Days:    make([]dayDoc, 0, len(days)),
	}

	seen := make(map[string]bool, len(days))
	for _, rec := range days {
		if err := rec.Validate(); err != nil {
			return nil, err
		}
		key := dateutil.FormatDate(rec.Date)
		if !dateutil.InMonth(rec.Date, view.Year, view.Month) {
			return nil, fmt.Errorf("%w: %s is outside %d-%02d", attendance.ErrInvalidRecord, key, view.Year, int(view.Month))
		}
		if seen[key] {
			return nil, fmt.Errorf("%w: %s appears twice", attendance.ErrInvalidRecord, key)
		}
		seen[key] = true
		rec := rec
		date := key
		doc.Days = append(doc.Days, dayDoc{
			Date:        &date,
			Status:      &rec.Status,
			IsHoliday:   &rec.IsHoliday,
			HolidayName: rec.HolidayName,
			AdhocCredit: &rec.AdhocCredit,
			Notes:       rec.Notes,
		})
	}

	return json.MarshalIndent(doc, "", "  ")
}

func newSummary(r attendance.Result) *summaryDoc {
	counts := make(map[string]int, len(attendance.Statuses()))
	for _, st := range attendance.Statuses() {
		counts[st.String()] = r.StatusCounts[st]
	}
	return &summaryDoc{
		Workdays:         r.Workdays,
		Denominator:      r.Denominator,
		Numerator:        r.Numerator,
		RequiredDays:     r.RequiredDays,
		Balance:          r.Balance,
		PercentAchieved:  r.PercentAchieved,
		CreditedHolidays: r.CreditedHolidays,
		StatusCounts:     counts,
	}
}

// Deserialize parses and validates a month document. Every problem with the
// document is reported as ErrSchemaMismatch. The summary block is ignored.
func Deserialize(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var doc monthDoc
	if err := dec.Decode(&doc); err != nil {
		return nil, mismatch("%v", err)
	}
	if dec.More() {
		return nil, mismatch("trailing data after document")
	}

	switch {
	case doc.Version == nil:
		return nil, mismatch("missing version")
	case *doc.Version != SchemaVersion:
		return nil, mismatch("version %d, want %d", *doc.Version, SchemaVersion)
	case doc.UserID == nil || *doc.UserID == "":
		return nil, mismatch("missing user_id")
	case doc.Month == nil || doc.Month.Year == nil || doc.Month.Month == nil:
		return nil, mismatch("missing month")
	case *doc.Month.Month < 1 || *doc.Month.Month > 12:
		return nil, mismatch("month %d out of range", *doc.Month.Month)
	case doc.Settings == nil:
		return nil, mismatch("missing settings")
	case doc.Days == nil:
		return nil, mismatch("missing days")
	}

	year, month := *doc.Month.Year, time.Month(*doc.Month.Month)
	settings, err := doc.Settings.toSettings(*doc.UserID)
	if err != nil {
		return nil, err
	}

	out := &Document{
		Version:  *doc.Version,
		UserID:   *doc.UserID,
		Year:     year,
		Month:    month,
		Settings: settings,
		Days:     make([]attendance.DayRecord, 0, len(doc.Days)),
	}

	seen := make(map[string]bool, len(doc.Days))
	for i, d := range doc.Days {
		rec, err := d.toRecord(i)
		if err != nil {
			return nil, err
		}
		key := dateutil.FormatDate(rec.Date)
		if !dateutil.InMonth(rec.Date, year, month) {
			return nil, mismatch("day %s is outside %d-%02d", key, year, month)
		}
		if seen[key] {
			return nil, mismatch("duplicate day %s", key)
		}
		seen[key] = true
		out.Days = append(out.Days, rec)
	}

	return out, nil
}

func (s *settingsDoc) toSettings(userID string) (attendance.Settings, error) {
	switch {
	case s.RequiredPercent == nil:
		return attendance.Settings{}, mismatch("missing settings.required_percent")
	case s.RoundingMode == nil:
		return attendance.Settings{}, mismatch("missing settings.rounding_mode")
	case s.CreditWeekdays == nil:
		return attendance.Settings{}, mismatch("missing settings.credit_weekdays")
	case s.MonFriHolidayTreatment == nil:
		return attendance.Settings{}, mismatch("missing settings.mon_fri_holiday_treatment")
	case s.Country == nil:
		return attendance.Settings{}, mismatch("missing settings.country")
	case s.Timezone == nil:
		return attendance.Settings{}, mismatch("missing settings.timezone")
	}

	settings := attendance.Settings{
		UserID:                 userID,
		RequiredPercent:        *s.RequiredPercent,
		RoundingMode:           *s.RoundingMode,
		CreditWeekdays:         *s.CreditWeekdays,
		MonFriHolidayTreatment: *s.MonFriHolidayTreatment,
		Country:                *s.Country,
		State:                  s.State,
		Timezone:               *s.Timezone,
	}
	if err := settings.Validate(); err != nil {
		return attendance.Settings{}, mismatch("%v", err)
	}
	return settings, nil
}

func (d dayDoc) toRecord(i int) (attendance.DayRecord, error) {
	switch {
	case d.Date == nil:
		return attendance.DayRecord{}, mismatch("days[%d]: missing date", i)
	case d.Status == nil:
		return attendance.DayRecord{}, mismatch("days[%d]: missing status", i)
	case d.IsHoliday == nil:
		return attendance.DayRecord{}, mismatch("days[%d]: missing is_holiday", i)
	case d.AdhocCredit == nil:
		return attendance.DayRecord{}, mismatch("days[%d]: missing adhoc_credit", i)
	}

	date, err := time.Parse("2006-01-02", *d.Date)
	if err != nil {
		return attendance.DayRecord{}, mismatch("days[%d]: date %q", i, *d.Date)
	}

	rec := attendance.DayRecord{
		Date:        date,
		Status:      *d.Status,
		IsHoliday:   *d.IsHoliday,
		HolidayName: d.HolidayName,
		AdhocCredit: *d.AdhocCredit,
		Notes:       d.Notes,
	}
	if err := rec.Validate(); err != nil {
		return attendance.DayRecord{}, mismatch("days[%d]: %v", i, err)
	}
	return rec, nil
}

func mismatch(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSchemaMismatch, fmt.Sprintf(format, args...))
}
