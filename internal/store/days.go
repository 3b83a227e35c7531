package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/username/desk-o-meter/internal/attendance"
	"github.com/username/desk-o-meter/pkg/dateutil"
)

// ListDays returns a user's records with from <= date <= to, ordered by date.
func (s *SQLiteStore) ListDays(ctx context.Context, userID string, from, to time.Time) ([]attendance.DayRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, status, is_holiday, holiday_name, adhoc_credit, notes
		FROM days
		WHERE user_id = ?
		  AND date >= ?
		  AND date <= ?
		ORDER BY date ASC`,
		userID, dateutil.FormatDate(from), dateutil.FormatDate(to),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []attendance.DayRecord
	for rows.Next() {
		var (
			date       string
			status     string
			holidayInt int
			name       string
			adhocInt   int
			notes      string
		)
		if err := rows.Scan(&date, &status, &holidayInt, &name, &adhocInt, &notes); err != nil {
			return nil, err
		}

		rec, err := toRecord(date, status, holidayInt, name, adhocInt, notes)
		if err != nil {
			return nil, fmt.Errorf("day %s of %q: %w", date, userID, err)
		}
		res = append(res, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// InsertDaysIfMissing inserts records whose (user, date) is not stored yet and
// leaves existing rows untouched. It returns how many rows were inserted.
func (s *SQLiteStore) InsertDaysIfMissing(ctx context.Context, userID string, records []attendance.DayRecord) (int, error) {
	inserted := 0
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		now := time.Now().UTC().Unix()
		for _, rec := range records {
			res, err := tx.ExecContext(ctx, `
				INSERT INTO days (
					user_id, date, status, is_holiday, holiday_name,
					adhoc_credit, notes, updated_at
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(user_id, date) DO NOTHING`,
				userID, dateutil.FormatDate(rec.Date), rec.Status.String(),
				boolToInt(rec.IsHoliday), rec.HolidayName,
				boolToInt(rec.AdhocCredit), rec.Notes, now,
			)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			inserted += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// UpsertDay inserts or replaces one record. Last write wins.
func (s *SQLiteStore) UpsertDay(ctx context.Context, userID string, rec attendance.DayRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	return upsertDay(ctx, s.db, userID, rec, time.Now().UTC().Unix())
}

func upsertDay(ctx context.Context, db execer, userID string, rec attendance.DayRecord, now int64) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO days (
			user_id, date, status, is_holiday, holiday_name,
			adhoc_credit, notes, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, date) DO UPDATE SET
			status       = excluded.status,
			is_holiday   = excluded.is_holiday,
			holiday_name = excluded.holiday_name,
			adhoc_credit = excluded.adhoc_credit,
			notes        = excluded.notes,
			updated_at   = excluded.updated_at`,
		userID, dateutil.FormatDate(rec.Date), rec.Status.String(),
		boolToInt(rec.IsHoliday), rec.HolidayName,
		boolToInt(rec.AdhocCredit), rec.Notes, now,
	)
	return err
}

// SetStatusRange sets the status of every date in [from, to], weekends
// included. Other fields of existing rows are kept.
func (s *SQLiteStore) SetStatusRange(ctx context.Context, userID string, from, to time.Time, status attendance.Status) (int, error) {
	if !status.Valid() {
		return 0, fmt.Errorf("%w: %v", attendance.ErrInvalidRecord, status)
	}
	from, to = dateutil.Civil(from), dateutil.Civil(to)
	if to.Before(from) {
		return 0, fmt.Errorf("range %s..%s is reversed", dateutil.FormatDate(from), dateutil.FormatDate(to))
	}

	count := 0
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		now := time.Now().UTC().Unix()
		for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO days (user_id, date, status, updated_at)
				VALUES (?, ?, ?, ?)
				ON CONFLICT(user_id, date) DO UPDATE SET
					status     = excluded.status,
					updated_at = excluded.updated_at`,
				userID, dateutil.FormatDate(d), status.String(), now,
			); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ReplaceDays deletes the user's records in [from, to] and writes records in
// their place, together with settings when non-nil. All of it happens in one
// transaction.
func (s *SQLiteStore) ReplaceDays(ctx context.Context, userID string, from, to time.Time, records []attendance.DayRecord, settings *attendance.Settings) error {
	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			return err
		}
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if settings != nil {
			if err := upsertSettings(ctx, tx, *settings); err != nil {
				return fmt.Errorf("settings: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx, `
			DELETE FROM days
			WHERE user_id = ?
			  AND date >= ?
			  AND date <= ?`,
			userID, dateutil.FormatDate(from), dateutil.FormatDate(to),
		); err != nil {
			return err
		}

		now := time.Now().UTC().Unix()
		for _, rec := range records {
			if err := upsertDay(ctx, tx, userID, rec, now); err != nil {
				return fmt.Errorf("day %s: %w", dateutil.FormatDate(rec.Date), err)
			}
		}
		return nil
	})
}

func toRecord(date, status string, holidayInt int, name string, adhocInt int, notes string) (attendance.DayRecord, error) {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return attendance.DayRecord{}, err
	}
	st, err := attendance.ParseStatus(status)
	if err != nil {
		return attendance.DayRecord{}, err
	}

	return attendance.DayRecord{
		Date:        d,
		Status:      st,
		IsHoliday:   holidayInt != 0,
		HolidayName: name,
		AdhocCredit: adhocInt != 0,
		Notes:       notes,
	}, nil
}
