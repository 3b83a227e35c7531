package calendar

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/username/desk-o-meter/pkg/dateutil"
)

// ErrUnsupportedRegion is returned when a source has no holiday calendar for
// the requested country/state (or for the requested year of it)
var ErrUnsupportedRegion = errors.New("unsupported holiday region")

// Holidays maps an ISO date (YYYY-MM-DD) to the holiday name
type Holidays map[string]string

// Add records a holiday. Two holidays on one date keep both names.
func (h Holidays) Add(date time.Time, name string) {
	key := dateutil.FormatDate(date)
	if existing, ok := h[key]; ok && existing != name {
		h[key] = existing + "; " + name
		return
	}
	h[key] = name
}

// Lookup returns the holiday name for the date
func (h Holidays) Lookup(date time.Time) (string, bool) {
	name, ok := h[dateutil.FormatDate(date)]
	return name, ok
}

// Dates returns holiday dates in ascending order
func (h Holidays) Dates() []string {
	dates := make([]string, 0, len(h))
	for d := range h {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// HolidayResolver produces the public holidays of a region for one year
type HolidayResolver interface {
	// Resolve returns holidays of country (ISO 3166-1 alpha-2) and optional
	// state for the year, or ErrUnsupportedRegion
	Resolve(ctx context.Context, country, state string, year int) (Holidays, error)
}

// ResolveOrEmpty resolves holidays and degrades an unsupported region to an
// empty set. Every other error is returned.
func ResolveOrEmpty(ctx context.Context, r HolidayResolver, country, state string, year int, logger *zap.Logger) (Holidays, error) {
	holidays, err := r.Resolve(ctx, country, state, year)
	if errors.Is(err, ErrUnsupportedRegion) {
		logger.Warn("No holiday calendar for region, continuing without holidays",
			zap.String("country", country),
			zap.String("state", state),
			zap.Int("year", year),
			zap.Error(err))
		return Holidays{}, nil
	}
	if err != nil {
		return nil, err
	}
	return holidays, nil
}

// RegionCode formats a region as COUNTRY or COUNTRY-STATE, upper-case
func RegionCode(country, state string) string {
	country = strings.ToUpper(strings.TrimSpace(country))
	state = strings.ToUpper(strings.TrimSpace(state))
	if state == "" {
		return country
	}
	return country + "-" + state
}

func unsupported(country, state string, year int) error {
	return fmt.Errorf("%w: %s %d", ErrUnsupportedRegion, RegionCode(country, state), year)
}
