package attendance

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusNext_Order(t *testing.T) {
	assert.Equal(t, StatusOffice, StatusNone.Next())
	assert.Equal(t, StatusWFH, StatusOffice.Next())
	assert.Equal(t, StatusVacation, StatusWFH.Next())
	assert.Equal(t, StatusNone, StatusVacation.Next())
	assert.Equal(t, StatusNone, Status(-3).Next())
}

func TestStatusNext_PeriodFour(t *testing.T) {
	for _, s := range Statuses() {
		got := s
		for i := 0; i < 4; i++ {
			got = got.Next()
			if i < 3 {
				assert.NotEqual(t, s, got, "%v returned to itself after %d steps", s, i+1)
			}
		}
		assert.Equal(t, s, got)
	}
}

func TestParseEnums(t *testing.T) {
	status, err := ParseStatus("wfh")
	require.NoError(t, err)
	assert.Equal(t, StatusWFH, status)

	mode, err := ParseRoundingMode("round_half_up")
	require.NoError(t, err)
	assert.Equal(t, RoundHalfUp, mode)

	treatment, err := ParseHolidayTreatment(" Exclude ")
	require.NoError(t, err)
	assert.Equal(t, TreatmentExclude, treatment)

	_, err = ParseStatus("IN_OFFICE")
	assert.Error(t, err)
	_, err = ParseRoundingMode("banker")
	assert.Error(t, err)
	_, err = ParseHolidayTreatment("")
	assert.Error(t, err)
}

func TestEnumText(t *testing.T) {
	type doc struct {
		Status    Status           `json:"status"`
		Rounding  RoundingMode     `json:"rounding"`
		Treatment HolidayTreatment `json:"treatment"`
	}

	data, err := json.Marshal(doc{StatusVacation, RoundFloor, TreatmentCredit})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"VACATION","rounding":"FLOOR","treatment":"CREDIT"}`, string(data))

	var back doc
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, doc{StatusVacation, RoundFloor, TreatmentCredit}, back)

	_, err = json.Marshal(doc{Status: Status(9)})
	assert.Error(t, err)
	assert.Error(t, json.Unmarshal([]byte(`{"status":"SICK"}`), &back))
}

func TestWeekdays(t *testing.T) {
	w, err := ParseWeekdays([]string{"thu", "TUE", "wed", "TUE"})
	require.NoError(t, err)
	assert.Equal(t, Weekdays{time.Tuesday, time.Wednesday, time.Thursday}, w)
	assert.True(t, w.Contains(time.Wednesday))
	assert.False(t, w.Contains(time.Monday))

	data, err := json.Marshal(w)
	require.NoError(t, err)
	assert.Equal(t, `["TUE","WED","THU"]`, string(data))

	var back Weekdays
	require.NoError(t, json.Unmarshal([]byte(`["FRI","MON"]`), &back))
	assert.Equal(t, []string{"MON", "FRI"}, back.Codes())

	_, err = ParseWeekdays([]string{"XYZ"})
	assert.Error(t, err)
}

func TestSettingsNormalize(t *testing.T) {
	s := DefaultSettings("u")
	s.CreditWeekdays = Weekdays{time.Thursday, time.Monday, time.Thursday, time.Tuesday}

	n := s.Normalize()
	assert.Equal(t, Weekdays{time.Monday, time.Tuesday, time.Thursday}, n.CreditWeekdays)
	assert.Equal(t, Weekdays{time.Thursday, time.Monday, time.Thursday, time.Tuesday}, s.CreditWeekdays)
	assert.Equal(t, n, n.Normalize())

	s.CreditWeekdays = nil
	assert.Nil(t, s.Normalize().CreditWeekdays)
}

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr bool
	}{
		{"defaults", func(*Settings) {}, false},
		{"full quota", func(s *Settings) { s.RequiredPercent = 1 }, false},
		{"zero percent", func(s *Settings) { s.RequiredPercent = 0 }, true},
		{"above one", func(s *Settings) { s.RequiredPercent = 1.01 }, true},
		{"NaN percent", func(s *Settings) { s.RequiredPercent = math.NaN() }, true},
		{"infinite percent", func(s *Settings) { s.RequiredPercent = math.Inf(1) }, true},
		{"saturday credit", func(s *Settings) { s.CreditWeekdays = Weekdays{time.Saturday} }, true},
		{"bad rounding", func(s *Settings) { s.RoundingMode = RoundingMode(7) }, true},
		{"bad treatment", func(s *Settings) { s.MonFriHolidayTreatment = HolidayTreatment(-1) }, true},
		{"bad timezone", func(s *Settings) { s.Timezone = "Mars/Olympus_Mons" }, true},
		{"empty timezone", func(s *Settings) { s.Timezone = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings("u")
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSettings)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
