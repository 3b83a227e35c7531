package calendar

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"github.com/username/desk-o-meter/pkg/dateutil"
)

// ICSCalendar implements HolidayResolver using an iCalendar file of all-day
// events. The file covers exactly one region.
type ICSCalendar struct {
	filePath string
	region   string
	logger   *zap.Logger

	mu       sync.RWMutex
	holidays map[int]Holidays // key: year
}

// NewICSCalendar creates a new ICSCalendar for the region (COUNTRY or COUNTRY-STATE)
func NewICSCalendar(filePath, region string, logger *zap.Logger) *ICSCalendar {
	return &ICSCalendar{
		filePath: filePath,
		region:   strings.ToUpper(strings.TrimSpace(region)),
		logger:   logger,
		holidays: make(map[int]Holidays),
	}
}

// Load loads events from file
func (ic *ICSCalendar) Load() error {
	file, err := os.Open(ic.filePath)
	if err != nil {
		return fmt.Errorf("failed to open ics file: %w", err)
	}
	defer file.Close()

	return ic.LoadFrom(file)
}

// LoadFrom replaces loaded data with events read from r
func (ic *ICSCalendar) LoadFrom(r io.Reader) error {
	cal, err := ics.ParseCalendar(r)
	if err != nil {
		return fmt.Errorf("failed to parse ics: %w", err)
	}

	byYear := make(map[int]Holidays)
	for _, evt := range cal.Events() {
		name := "Holiday"
		if summary := evt.GetProperty(ics.ComponentPropertySummary); summary != nil && summary.Value != "" {
			name = summary.Value
		}

		start, err := parseICSDate(evt, ics.ComponentPropertyDtStart)
		if err != nil {
			ic.logger.Warn("Skipping event", zap.String("summary", name), zap.Error(err))
			continue
		}
		// DTEND is exclusive; a missing one means a single day
		end := start.AddDate(0, 0, 1)
		if evt.GetProperty(ics.ComponentPropertyDtEnd) != nil {
			if end, err = parseICSDate(evt, ics.ComponentPropertyDtEnd); err != nil {
				ic.logger.Warn("Skipping event", zap.String("summary", name), zap.Error(err))
				continue
			}
		}

		for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
			if byYear[d.Year()] == nil {
				byYear[d.Year()] = make(Holidays)
			}
			byYear[d.Year()].Add(d, name)
		}
	}

	ic.mu.Lock()
	ic.holidays = byYear
	ic.mu.Unlock()

	ic.logger.Info("ICS calendar loaded",
		zap.String("file", ic.filePath),
		zap.String("region", ic.region),
		zap.Int("years", len(byYear)))

	return nil
}

// Resolve returns the holidays of the year when the region matches. The
// file's country-wide calendar also serves any state of that country.
func (ic *ICSCalendar) Resolve(_ context.Context, country, state string, year int) (Holidays, error) {
	region := RegionCode(country, state)
	if region != ic.region && RegionCode(country, "") != ic.region {
		return nil, unsupported(country, state, year)
	}

	ic.mu.RLock()
	defer ic.mu.RUnlock()

	yearHolidays, ok := ic.holidays[year]
	if !ok {
		return nil, unsupported(country, state, year)
	}

	holidays := make(Holidays, len(yearHolidays))
	for date, name := range yearHolidays {
		holidays[date] = name
	}
	return holidays, nil
}

// parseICSDate reads a date property as a civil date
func parseICSDate(evt *ics.VEvent, propName ics.ComponentProperty) (time.Time, error) {
	prop := evt.GetProperty(propName)
	if prop == nil {
		return time.Time{}, fmt.Errorf("missing property %s", propName)
	}

	formats := []string{
		"20060102",
		"20060102T150405Z",
		"20060102T150405",
	}
	for _, layout := range formats {
		if t, err := time.Parse(layout, prop.Value); err == nil {
			return dateutil.Civil(t), nil
		}
	}

	return time.Time{}, fmt.Errorf("cannot parse date %q", prop.Value)
}
