package calendar

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// CompositeCalendar implements HolidayResolver with fallback strategy
// Primary: usually NagerCalendar (API)
// Fallback: FileCalendar or ICSCalendar (local file)
type CompositeCalendar struct {
	primary  HolidayResolver
	fallback HolidayResolver
	logger   *zap.Logger
}

// NewCompositeCalendar creates a new CompositeCalendar
func NewCompositeCalendar(primary, fallback HolidayResolver, logger *zap.Logger) *CompositeCalendar {
	return &CompositeCalendar{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// Resolve asks the primary source first and the fallback on any error.
// The region is unsupported only when both sources say so.
func (cc *CompositeCalendar) Resolve(ctx context.Context, country, state string, year int) (Holidays, error) {
	holidays, err := cc.primary.Resolve(ctx, country, state, year)
	if err == nil {
		return holidays, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	cc.logger.Warn("Primary calendar failed, falling back",
		zap.String("region", RegionCode(country, state)),
		zap.Int("year", year),
		zap.Error(err))

	fallbackHolidays, fallbackErr := cc.fallback.Resolve(ctx, country, state, year)
	if fallbackErr == nil {
		return fallbackHolidays, nil
	}

	if errors.Is(err, ErrUnsupportedRegion) && errors.Is(fallbackErr, ErrUnsupportedRegion) {
		return nil, fallbackErr
	}
	if errors.Is(fallbackErr, ErrUnsupportedRegion) {
		// fallback has no data, the primary error is the interesting one
		return nil, err
	}
	return nil, fmt.Errorf("fallback calendar failed: %w", fallbackErr)
}

// LoadFallback loads the fallback calendar (if file based)
func (cc *CompositeCalendar) LoadFallback() error {
	loader, ok := cc.fallback.(interface{ Load() error })
	if !ok {
		return nil
	}
	if err := loader.Load(); err != nil {
		return fmt.Errorf("failed to load fallback calendar: %w", err)
	}
	cc.logger.Info("Fallback calendar loaded successfully")
	return nil
}
