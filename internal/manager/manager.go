package manager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/username/desk-o-meter/internal/attendance"
	"github.com/username/desk-o-meter/internal/calendar"
	"github.com/username/desk-o-meter/internal/export"
	"github.com/username/desk-o-meter/internal/store"
	"github.com/username/desk-o-meter/pkg/dateutil"
)

// MaxRangeDays bounds a bulk vacation range
const MaxRangeDays = 366

// ErrInvalidRange is returned for a reversed or overlong date range
var ErrInvalidRange = errors.New("invalid date range")

// Store persists settings and day records per user
type Store interface {
	GetSettings(ctx context.Context, userID string) (attendance.Settings, error)
	UpsertSettings(ctx context.Context, settings attendance.Settings) error
	ListDays(ctx context.Context, userID string, from, to time.Time) ([]attendance.DayRecord, error)
	InsertDaysIfMissing(ctx context.Context, userID string, records []attendance.DayRecord) (int, error)
	UpsertDay(ctx context.Context, userID string, rec attendance.DayRecord) error
	SetStatusRange(ctx context.Context, userID string, from, to time.Time, status attendance.Status) (int, error)
	ReplaceDays(ctx context.Context, userID string, from, to time.Time, records []attendance.DayRecord, settings *attendance.Settings) error
}

// Manager ties settings, holidays, stored days and the accounting together
type Manager struct {
	store    Store
	holidays calendar.HolidayResolver
	defaults attendance.Settings
	seed     SeedPattern
	logger   *zap.Logger
}

// NewManager creates a new manager. defaults is the settings template for
// users seen for the first time.
func NewManager(
	st Store,
	holidays calendar.HolidayResolver,
	defaults attendance.Settings,
	seed SeedPattern,
	logger *zap.Logger,
) *Manager {
	return &Manager{
		store:    st,
		holidays: holidays,
		defaults: defaults,
		seed:     seed,
		logger:   logger,
	}
}

// Settings returns the user's settings, storing the defaults on first use
func (m *Manager) Settings(ctx context.Context, userID string) (attendance.Settings, error) {
	if userID == "" {
		return attendance.Settings{}, errors.New("user id is required")
	}

	settings, err := m.store.GetSettings(ctx, userID)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return attendance.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}

	settings = m.defaults.Normalize()
	settings.UserID = userID
	if err := settings.Validate(); err != nil {
		return attendance.Settings{}, fmt.Errorf("default settings: %w", err)
	}
	if err := m.store.UpsertSettings(ctx, settings); err != nil {
		return attendance.Settings{}, fmt.Errorf("failed to store default settings: %w", err)
	}

	m.logger.Info("Created default settings",
		zap.String("user", userID),
		zap.String("region", calendar.RegionCode(settings.Country, settings.State)))

	return settings, nil
}

// UpdateSettings validates and stores settings
func (m *Manager) UpdateSettings(ctx context.Context, settings attendance.Settings) error {
	if settings.UserID == "" {
		return errors.New("user id is required")
	}
	settings = settings.Normalize()
	if err := settings.Validate(); err != nil {
		return err
	}
	if err := m.store.UpsertSettings(ctx, settings); err != nil {
		return fmt.Errorf("failed to store settings: %w", err)
	}

	m.logger.Info("Settings updated",
		zap.String("user", settings.UserID),
		zap.Float64("required_percent", settings.RequiredPercent),
		zap.String("rounding", settings.RoundingMode.String()),
		zap.Strings("credit_weekdays", settings.CreditWeekdays.Codes()))
	return nil
}

// Today returns the current date in the user's timezone
func (m *Manager) Today(ctx context.Context, userID string) (time.Time, error) {
	settings, err := m.Settings(ctx, userID)
	if err != nil {
		return time.Time{}, err
	}
	return dateutil.Today(settings.Timezone), nil
}

// Holidays resolves the holidays of the user's region for a year
func (m *Manager) Holidays(ctx context.Context, userID string, year int) (calendar.Holidays, error) {
	settings, err := m.Settings(ctx, userID)
	if err != nil {
		return nil, err
	}
	holidays, err := m.holidays.Resolve(ctx, settings.Country, settings.State, year)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve holidays: %w", err)
	}
	return holidays, nil
}

// LoadMonth returns the computed month, seeding dates never seen before
func (m *Manager) LoadMonth(ctx context.Context, userID string, year int, month time.Month) (*attendance.MonthView, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("month %d out of range", month)
	}

	settings, err := m.Settings(ctx, userID)
	if err != nil {
		return nil, err
	}

	days, err := m.ensureMonth(ctx, userID, settings, year, month)
	if err != nil {
		return nil, err
	}

	result, err := attendance.Compute(year, month, days, settings)
	if err != nil {
		return nil, err
	}

	m.logger.Debug("Month computed",
		zap.String("user", userID),
		zap.Int("year", year),
		zap.Int("month", int(month)),
		zap.Int("denominator", result.Denominator),
		zap.Int("numerator", result.Numerator),
		zap.Int("balance", result.Balance))

	return &attendance.MonthView{
		UserID:   userID,
		Year:     year,
		Month:    month,
		Settings: settings,
		Days:     days,
		Result:   result,
	}, nil
}

// ensureMonth stores seed records for missing dates of the month and returns
// all of its records in date order
func (m *Manager) ensureMonth(ctx context.Context, userID string, settings attendance.Settings, year int, month time.Month) ([]attendance.DayRecord, error) {
	existing, missing, holidays, err := m.monthRecords(ctx, userID, settings, year, month)
	if err != nil {
		return nil, err
	}
	if len(missing) == 0 {
		return existing, nil
	}

	inserted, err := m.store.InsertDaysIfMissing(ctx, userID, missing)
	if err != nil {
		return nil, fmt.Errorf("failed to seed days: %w", err)
	}
	m.logger.Info("Seeded missing days",
		zap.String("user", userID),
		zap.Int("year", year),
		zap.Int("month", int(month)),
		zap.Int("days", inserted),
		zap.Int("holidays", len(holidays)))

	from, to := dateutil.MonthBounds(year, month)
	days, err := m.store.ListDays(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load days: %w", err)
	}
	return days, nil
}

// monthRecords returns the stored records of the month and the seed records
// for its missing dates. Holidays are only resolved when a date is missing.
func (m *Manager) monthRecords(ctx context.Context, userID string, settings attendance.Settings, year int, month time.Month) (existing, missing []attendance.DayRecord, holidays calendar.Holidays, err error) {
	from, to := dateutil.MonthBounds(year, month)

	existing, err = m.store.ListDays(ctx, userID, from, to)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load days: %w", err)
	}
	if len(existing) == dateutil.DaysInMonth(year, month) {
		return existing, nil, nil, nil
	}

	holidays, err = calendar.ResolveOrEmpty(ctx, m.holidays, settings.Country, settings.State, year, m.logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to resolve holidays: %w", err)
	}

	stored := make(map[string]bool, len(existing))
	for _, rec := range existing {
		stored[dateutil.FormatDate(rec.Date)] = true
	}
	for _, info := range calendar.BuildMonth(year, month, holidays) {
		if stored[dateutil.FormatDate(info.Date)] {
			continue
		}
		missing = append(missing, m.seed.seedRecord(info))
	}
	return existing, missing, holidays, nil
}

// PeekMonth computes a month without writing anything. The user must already
// have stored settings, otherwise the error wraps store.ErrNotFound. Missing
// dates are seeded in memory only.
func (m *Manager) PeekMonth(ctx context.Context, userID string, year int, month time.Month) (*attendance.MonthView, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("month %d out of range", month)
	}
	if userID == "" {
		return nil, errors.New("user id is required")
	}

	settings, err := m.store.GetSettings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	existing, missing, _, err := m.monthRecords(ctx, userID, settings, year, month)
	if err != nil {
		return nil, err
	}
	days := append(existing, missing...)
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })

	result, err := attendance.Compute(year, month, days, settings)
	if err != nil {
		return nil, err
	}

	return &attendance.MonthView{
		UserID:   userID,
		Year:     year,
		Month:    month,
		Settings: settings,
		Days:     days,
		Result:   result,
	}, nil
}

// day returns the stored record of a date, seeding its month first
func (m *Manager) day(ctx context.Context, userID string, date time.Time) (attendance.DayRecord, error) {
	settings, err := m.Settings(ctx, userID)
	if err != nil {
		return attendance.DayRecord{}, err
	}

	date = dateutil.Civil(date)
	days, err := m.ensureMonth(ctx, userID, settings, date.Year(), date.Month())
	if err != nil {
		return attendance.DayRecord{}, err
	}
	for _, rec := range days {
		if dateutil.IsSameDay(rec.Date, date) {
			return rec, nil
		}
	}
	return attendance.NewDayRecord(date), nil
}

// CycleDay advances the status of a date to the next one in the cycle
func (m *Manager) CycleDay(ctx context.Context, userID string, date time.Time) (attendance.DayRecord, error) {
	rec, err := m.day(ctx, userID, date)
	if err != nil {
		return attendance.DayRecord{}, err
	}

	previous := rec.Status
	rec.Status = rec.Status.Next()
	if err := m.store.UpsertDay(ctx, userID, rec); err != nil {
		return attendance.DayRecord{}, fmt.Errorf("failed to store day: %w", err)
	}

	m.logger.Info("Day status cycled",
		zap.String("user", userID),
		zap.String("date", dateutil.FormatDate(rec.Date)),
		zap.String("from", previous.String()),
		zap.String("to", rec.Status.String()))

	return rec, nil
}

// DayUpdate lists the fields to change on a day; nil fields are kept
type DayUpdate struct {
	Status      *attendance.Status
	AdhocCredit *bool
	Notes       *string
}

// UpdateDay applies a partial update to a date
func (m *Manager) UpdateDay(ctx context.Context, userID string, date time.Time, update DayUpdate) (attendance.DayRecord, error) {
	rec, err := m.day(ctx, userID, date)
	if err != nil {
		return attendance.DayRecord{}, err
	}

	if update.Status != nil {
		rec.Status = *update.Status
	}
	if update.AdhocCredit != nil {
		rec.AdhocCredit = *update.AdhocCredit
	}
	if update.Notes != nil {
		rec.Notes = *update.Notes
	}
	if err := rec.Validate(); err != nil {
		return attendance.DayRecord{}, err
	}

	if err := m.store.UpsertDay(ctx, userID, rec); err != nil {
		return attendance.DayRecord{}, fmt.Errorf("failed to store day: %w", err)
	}

	m.logger.Info("Day updated",
		zap.String("user", userID),
		zap.String("date", dateutil.FormatDate(rec.Date)),
		zap.String("status", rec.Status.String()),
		zap.Bool("adhoc_credit", rec.AdhocCredit))

	return rec, nil
}

// SetVacationRange marks every date of [from, to] as vacation, weekends
// included, and returns how many dates were set
func (m *Manager) SetVacationRange(ctx context.Context, userID string, from, to time.Time) (int, error) {
	from, to = dateutil.Civil(from), dateutil.Civil(to)
	if to.Before(from) {
		return 0, fmt.Errorf("%w: %s is after %s", ErrInvalidRange, dateutil.FormatDate(from), dateutil.FormatDate(to))
	}
	if span := int(to.Sub(from).Hours()/24) + 1; span > MaxRangeDays {
		return 0, fmt.Errorf("%w: %d days, at most %d", ErrInvalidRange, span, MaxRangeDays)
	}

	settings, err := m.Settings(ctx, userID)
	if err != nil {
		return 0, err
	}

	// seed first so new rows carry their holiday flags
	year, month := from.Year(), from.Month()
	for {
		if _, err := m.ensureMonth(ctx, userID, settings, year, month); err != nil {
			return 0, err
		}
		if year == to.Year() && month == to.Month() {
			break
		}
		year, month = dateutil.AddMonths(year, month, 1)
	}

	n, err := m.store.SetStatusRange(ctx, userID, from, to, attendance.StatusVacation)
	if err != nil {
		return 0, fmt.Errorf("failed to set vacation: %w", err)
	}

	m.logger.Info("Vacation range set",
		zap.String("user", userID),
		zap.String("from", dateutil.FormatDate(from)),
		zap.String("to", dateutil.FormatDate(to)),
		zap.Int("days", n))

	return n, nil
}

// ExportMonth returns the month as a JSON document
func (m *Manager) ExportMonth(ctx context.Context, userID string, year int, month time.Month) ([]byte, error) {
	view, err := m.LoadMonth(ctx, userID, year, month)
	if err != nil {
		return nil, err
	}
	return export.Serialize(*view)
}

// PeekMonthJSON returns the month as a JSON document without writing anything
func (m *Manager) PeekMonthJSON(ctx context.Context, userID string, year int, month time.Month) ([]byte, error) {
	view, err := m.PeekMonth(ctx, userID, year, month)
	if err != nil {
		return nil, err
	}
	return export.Serialize(*view)
}

// ExportMonthXLSX writes the month as a spreadsheet
func (m *Manager) ExportMonthXLSX(ctx context.Context, userID string, year int, month time.Month, w io.Writer) error {
	view, err := m.LoadMonth(ctx, userID, year, month)
	if err != nil {
		return err
	}
	return export.WriteXLSX(*view, w)
}

// ImportMonth replaces a stored month with a JSON document. The document is
// fully validated first; nothing is written when it is rejected.
func (m *Manager) ImportMonth(ctx context.Context, data []byte) (*attendance.MonthView, error) {
	doc, err := export.Deserialize(data)
	if err != nil {
		return nil, err
	}
	if _, err := attendance.Compute(doc.Year, doc.Month, doc.Days, doc.Settings); err != nil {
		return nil, fmt.Errorf("%w: %v", export.ErrSchemaMismatch, err)
	}

	from, to := dateutil.MonthBounds(doc.Year, doc.Month)
	if err := m.store.ReplaceDays(ctx, doc.UserID, from, to, doc.Days, &doc.Settings); err != nil {
		return nil, fmt.Errorf("failed to import month: %w", err)
	}

	m.logger.Info("Month imported",
		zap.String("user", doc.UserID),
		zap.Int("year", doc.Year),
		zap.Int("month", int(doc.Month)),
		zap.Int("days", len(doc.Days)))

	return m.LoadMonth(ctx, doc.UserID, doc.Year, doc.Month)
}
