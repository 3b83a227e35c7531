package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/username/desk-o-meter/internal/calendar"
	"github.com/username/desk-o-meter/internal/config"
)

// buildResolver wires the configured holiday source. The returned close
// function is nil unless a shared cache connection was opened.
func buildResolver(cfg *config.Config, logger *zap.Logger) (calendar.HolidayResolver, func() error, error) {
	var resolver calendar.HolidayResolver

	switch cfg.Holidays.Source {
	case "nager":
		nager := calendar.NewNagerCalendar(cfg.Holidays.APIURL, cfg.Holidays.GetCacheTTL(), logger)
		fallback := localCalendar(cfg, logger)
		if fallback == nil {
			resolver = nager
			break
		}
		composite := calendar.NewCompositeCalendar(nager, fallback, logger)
		// Fallback load failure is not fatal, Nager stays primary
		if err := composite.LoadFallback(); err != nil {
			logger.Warn("Failed to load fallback holiday calendar", zap.Error(err))
		}
		resolver = composite

	case "file":
		fc := calendar.NewFileCalendar(cfg.Holidays.FallbackFile, logger)
		if err := fc.Load(); err != nil {
			return nil, nil, fmt.Errorf("failed to load holiday file: %w", err)
		}
		resolver = fc

	case "ics":
		ic := calendar.NewICSCalendar(cfg.Holidays.ICSFile, cfg.Holidays.ICSRegion, logger)
		if err := ic.Load(); err != nil {
			return nil, nil, fmt.Errorf("failed to load ics calendar: %w", err)
		}
		resolver = ic

	default:
		return nil, nil, fmt.Errorf("unknown holiday source: %s", cfg.Holidays.Source)
	}

	if cfg.Holidays.Redis.Addr == "" {
		return resolver, nil, nil
	}

	store, err := calendar.NewRedisStore(calendar.RedisOptions{
		Addr:     cfg.Holidays.Redis.Addr,
		Password: cfg.Holidays.Redis.Password,
		DB:       cfg.Holidays.Redis.DB,
	}, logger)
	if err != nil {
		logger.Warn("Redis holiday cache unavailable, continuing without it",
			zap.String("addr", cfg.Holidays.Redis.Addr),
			zap.Error(err))
		return resolver, nil, nil
	}

	return calendar.NewRedisCache(resolver, store, cfg.Holidays.GetCacheTTL(), logger), store.Close, nil
}

// localCalendar returns the offline fallback for the nager source, if any.
// An ICS file wins over a plain holidays file.
func localCalendar(cfg *config.Config, logger *zap.Logger) calendar.HolidayResolver {
	switch {
	case cfg.Holidays.ICSFile != "":
		return calendar.NewICSCalendar(cfg.Holidays.ICSFile, cfg.Holidays.ICSRegion, logger)
	case cfg.Holidays.FallbackFile != "":
		return calendar.NewFileCalendar(cfg.Holidays.FallbackFile, logger)
	}
	return nil
}
