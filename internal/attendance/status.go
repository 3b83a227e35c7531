package attendance

import (
	"fmt"
	"strings"
)

// Status is what a person did on a given date
type Status int

const (
	StatusNone Status = iota
	StatusOffice
	StatusWFH
	StatusVacation
)

var statusNames = []string{"NONE", "OFFICE", "WFH", "VACATION"}

// Statuses returns every status in cycling order
func Statuses() []Status {
	return []Status{StatusNone, StatusOffice, StatusWFH, StatusVacation}
}

// Next advances the status one step: NONE → OFFICE → WFH → VACATION → NONE.
// An out-of-range value restarts the cycle at NONE.
func (s Status) Next() Status {
	if !s.Valid() {
		return StatusNone
	}
	return (s + 1) % Status(len(statusNames))
}

func (s Status) Valid() bool {
	return s >= StatusNone && int(s) < len(statusNames)
}

func (s Status) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid status %d", int(s))
	}
	return []byte(statusNames[s]), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	v, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseStatus parses NONE, OFFICE, WFH or VACATION (case-insensitive)
func ParseStatus(s string) (Status, error) {
	i, err := parseEnum("status", statusNames, s)
	return Status(i), err
}

// RoundingMode controls how required days are rounded
type RoundingMode int

const (
	RoundCeil RoundingMode = iota
	RoundFloor
	RoundHalfUp
)

var roundingNames = []string{"CEIL", "FLOOR", "ROUND_HALF_UP"}

func (m RoundingMode) Valid() bool {
	return m >= RoundCeil && int(m) < len(roundingNames)
}

func (m RoundingMode) String() string {
	if !m.Valid() {
		return fmt.Sprintf("RoundingMode(%d)", int(m))
	}
	return roundingNames[m]
}

func (m RoundingMode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("invalid rounding mode %d", int(m))
	}
	return []byte(roundingNames[m]), nil
}

func (m *RoundingMode) UnmarshalText(text []byte) error {
	v, err := ParseRoundingMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// ParseRoundingMode parses CEIL, FLOOR or ROUND_HALF_UP (case-insensitive)
func ParseRoundingMode(s string) (RoundingMode, error) {
	i, err := parseEnum("rounding mode", roundingNames, s)
	return RoundingMode(i), err
}

// HolidayTreatment says what a holiday on Monday or Friday does to the quota
type HolidayTreatment int

const (
	TreatmentNeutral HolidayTreatment = iota
	TreatmentExclude
	TreatmentCredit
)

var treatmentNames = []string{"NEUTRAL", "EXCLUDE", "CREDIT"}

func (t HolidayTreatment) Valid() bool {
	return t >= TreatmentNeutral && int(t) < len(treatmentNames)
}

func (t HolidayTreatment) String() string {
	if !t.Valid() {
		return fmt.Sprintf("HolidayTreatment(%d)", int(t))
	}
	return treatmentNames[t]
}

func (t HolidayTreatment) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid holiday treatment %d", int(t))
	}
	return []byte(treatmentNames[t]), nil
}

func (t *HolidayTreatment) UnmarshalText(text []byte) error {
	v, err := ParseHolidayTreatment(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParseHolidayTreatment parses NEUTRAL, EXCLUDE or CREDIT (case-insensitive)
func ParseHolidayTreatment(s string) (HolidayTreatment, error) {
	i, err := parseEnum("holiday treatment", treatmentNames, s)
	return HolidayTreatment(i), err
}

func parseEnum(kind string, names []string, s string) (int, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, name := range names {
		if name == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q, want one of %s", kind, s, strings.Join(names, ", "))
}
