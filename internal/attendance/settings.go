package attendance

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"
	// timezone names are validated on hosts without a zoneinfo database too
	_ "time/tzdata"

	"github.com/username/desk-o-meter/pkg/dateutil"
)

var (
	// ErrInvalidSettings is returned when a Settings value breaks its invariants
	ErrInvalidSettings = errors.New("invalid settings")

	// ErrInvalidRecord is returned when a day record does not belong to the
	// computed month, repeats a date or breaks the holiday name invariant
	ErrInvalidRecord = errors.New("invalid day record")
)

// Weekdays is a set of weekdays, kept sorted Monday first
type Weekdays []time.Weekday

// DefaultCreditWeekdays are the weekdays whose holidays count as office days
func DefaultCreditWeekdays() Weekdays {
	return Weekdays{time.Tuesday, time.Wednesday, time.Thursday}
}

// ParseWeekdays parses weekday codes (MON, TUE, ...), dropping duplicates
func ParseWeekdays(codes []string) (Weekdays, error) {
	seen := make(map[time.Weekday]bool, len(codes))
	out := make(Weekdays, 0, len(codes))
	for _, code := range codes {
		wd, err := dateutil.ParseWeekday(code)
		if err != nil {
			return nil, err
		}
		if seen[wd] {
			continue
		}
		seen[wd] = true
		out = append(out, wd)
	}
	out.sort()
	return out, nil
}

func (w Weekdays) Contains(day time.Weekday) bool {
	for _, d := range w {
		if d == day {
			return true
		}
	}
	return false
}

// Codes returns the weekday codes, Monday first
func (w Weekdays) Codes() []string {
	sorted := append(Weekdays(nil), w...)
	sorted.sort()
	codes := make([]string, len(sorted))
	for i, d := range sorted {
		codes[i] = dateutil.WeekdayCode(d)
	}
	return codes
}

func (w Weekdays) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.Codes())
}

func (w *Weekdays) UnmarshalJSON(data []byte) error {
	var codes []string
	if err := json.Unmarshal(data, &codes); err != nil {
		return err
	}
	parsed, err := ParseWeekdays(codes)
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

func (w Weekdays) sort() {
	// Sunday sorts last so the order reads MON..SUN
	key := func(d time.Weekday) int { return (int(d) + 6) % 7 }
	sort.Slice(w, func(i, j int) bool { return key(w[i]) < key(w[j]) })
}

// Settings is one user's quota configuration
type Settings struct {
	UserID                 string
	RequiredPercent        float64
	RoundingMode           RoundingMode
	CreditWeekdays         Weekdays
	MonFriHolidayTreatment HolidayTreatment
	Country                string
	State                  string
	Timezone               string
}

// DefaultSettings returns the settings a new user starts with
func DefaultSettings(userID string) Settings {
	return Settings{
		UserID:                 userID,
		RequiredPercent:        0.60,
		RoundingMode:           RoundCeil,
		CreditWeekdays:         DefaultCreditWeekdays(),
		MonFriHolidayTreatment: TreatmentNeutral,
		Country:                "US",
		Timezone:               "America/Los_Angeles",
	}
}

// Normalize returns a copy whose credit weekdays are sorted Monday first with
// duplicates dropped. Serialized settings always come back normalized.
func (s Settings) Normalize() Settings {
	if s.CreditWeekdays == nil {
		return s
	}
	seen := make(map[time.Weekday]bool, len(s.CreditWeekdays))
	weekdays := make(Weekdays, 0, len(s.CreditWeekdays))
	for _, d := range s.CreditWeekdays {
		if !seen[d] {
			seen[d] = true
			weekdays = append(weekdays, d)
		}
	}
	weekdays.sort()
	s.CreditWeekdays = weekdays
	return s
}

// Validate checks the settings invariants
func (s Settings) Validate() error {
	// also rejects NaN
	if !(s.RequiredPercent > 0 && s.RequiredPercent <= 1) {
		return fmt.Errorf("%w: required_percent must be in (0, 1], got %v", ErrInvalidSettings, s.RequiredPercent)
	}
	if !s.RoundingMode.Valid() {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, s.RoundingMode)
	}
	if !s.MonFriHolidayTreatment.Valid() {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, s.MonFriHolidayTreatment)
	}
	for _, d := range s.CreditWeekdays {
		if d < time.Monday || d > time.Friday {
			return fmt.Errorf("%w: credit weekday %s is not MON..FRI", ErrInvalidSettings, dateutil.WeekdayCode(d))
		}
	}
	if s.Timezone != "" {
		if _, err := time.LoadLocation(s.Timezone); err != nil {
			return fmt.Errorf("%w: timezone %q: %v", ErrInvalidSettings, s.Timezone, err)
		}
	}
	return nil
}
