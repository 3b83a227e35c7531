package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/username/desk-o-meter/internal/attendance"
)

// GetSettings returns the stored settings of a user or ErrNotFound.
func (s *SQLiteStore) GetSettings(ctx context.Context, userID string) (attendance.Settings, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, required_percent, rounding_mode, credit_weekdays,
		       monfri_treatment, country, state, timezone
		FROM settings
		WHERE user_id = ?`,
		userID,
	)

	var (
		settings  attendance.Settings
		rounding  string
		weekdays  string
		treatment string
	)
	if err := row.Scan(
		&settings.UserID, &settings.RequiredPercent, &rounding, &weekdays,
		&treatment, &settings.Country, &settings.State, &settings.Timezone,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return attendance.Settings{}, fmt.Errorf("settings for %q: %w", userID, ErrNotFound)
		}
		return attendance.Settings{}, err
	}

	var err error
	if settings.RoundingMode, err = attendance.ParseRoundingMode(rounding); err != nil {
		return attendance.Settings{}, fmt.Errorf("settings for %q: %w", userID, err)
	}
	if settings.MonFriHolidayTreatment, err = attendance.ParseHolidayTreatment(treatment); err != nil {
		return attendance.Settings{}, fmt.Errorf("settings for %q: %w", userID, err)
	}
	if settings.CreditWeekdays, err = attendance.ParseWeekdays(splitCodes(weekdays)); err != nil {
		return attendance.Settings{}, fmt.Errorf("settings for %q: %w", userID, err)
	}

	return settings, nil
}

// UpsertSettings inserts or replaces a user's settings.
func (s *SQLiteStore) UpsertSettings(ctx context.Context, settings attendance.Settings) error {
	return upsertSettings(ctx, s.db, settings)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertSettings(ctx context.Context, db execer, settings attendance.Settings) error {
	if settings.UserID == "" {
		return errors.New("settings without user id")
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO settings (
			user_id, required_percent, rounding_mode, credit_weekdays,
			monfri_treatment, country, state, timezone, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			required_percent = excluded.required_percent,
			rounding_mode    = excluded.rounding_mode,
			credit_weekdays  = excluded.credit_weekdays,
			monfri_treatment = excluded.monfri_treatment,
			country          = excluded.country,
			state            = excluded.state,
			timezone         = excluded.timezone,
			updated_at       = excluded.updated_at`,
		settings.UserID, settings.RequiredPercent, settings.RoundingMode.String(),
		strings.Join(settings.CreditWeekdays.Codes(), ","),
		settings.MonFriHolidayTreatment.String(),
		settings.Country, settings.State, settings.Timezone,
		time.Now().UTC().Unix(),
	)
	return err
}

func splitCodes(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}
