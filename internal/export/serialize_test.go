package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/username/desk-o-meter/internal/attendance"
	"github.com/username/desk-o-meter/pkg/dateutil"
)

func sampleView(t *testing.T) attendance.MonthView {
	t.Helper()

	settings := attendance.DefaultSettings("alice")
	settings.State = "CA"
	settings.MonFriHolidayTreatment = attendance.TreatmentExclude

	var days []attendance.DayRecord
	for d := 1; d <= 31; d++ {
		rec := attendance.NewDayRecord(dateutil.Date(2022, time.January, d))
		switch {
		case d == 17:
			rec.IsHoliday = true
			rec.HolidayName = "Martin Luther King Jr. Day"
		case d == 12:
			rec.IsHoliday = true
			rec.HolidayName = "Company Day"
			rec.AdhocCredit = true
		case d == 3 || d == 4:
			rec.Status = attendance.StatusVacation
			rec.Notes = "ski trip"
		case dateutil.IsWeekday(rec.Date) && d%2 == 0:
			rec.Status = attendance.StatusOffice
		case dateutil.IsWeekday(rec.Date):
			rec.Status = attendance.StatusWFH
		}
		days = append(days, rec)
	}

	result, err := attendance.Compute(2022, time.January, days, settings)
	require.NoError(t, err)

	return attendance.MonthView{
		UserID:   "alice",
		Year:     2022,
		Month:    time.January,
		Settings: settings,
		Days:     days,
		Result:   result,
	}
}

func TestSerialize_RoundTrip(t *testing.T) {
	view := sampleView(t)

	data, err := Serialize(view)
	require.NoError(t, err)

	doc, err := Deserialize(data)
	require.NoError(t, err)

	assert.Equal(t, SchemaVersion, doc.Version)
	assert.Equal(t, view.UserID, doc.UserID)
	assert.Equal(t, view.Year, doc.Year)
	assert.Equal(t, view.Month, doc.Month)
	assert.Equal(t, view.Settings, doc.Settings)
	assert.Equal(t, view.Days, doc.Days)

	again, err := Serialize(attendance.MonthView{
		UserID:   doc.UserID,
		Year:     doc.Year,
		Month:    doc.Month,
		Settings: doc.Settings,
		Days:     doc.Days,
		Result:   view.Result,
	})
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again))
}

func TestSerialize_RoundTripNormalizesWeekdays(t *testing.T) {
	view := sampleView(t)
	view.Settings.CreditWeekdays = attendance.Weekdays{time.Thursday, time.Tuesday, time.Thursday}

	data, err := Serialize(view)
	require.NoError(t, err)
	doc, err := Deserialize(data)
	require.NoError(t, err)

	assert.Equal(t, view.Settings.Normalize(), doc.Settings)
	assert.Equal(t, attendance.Weekdays{time.Tuesday, time.Thursday}, doc.Settings.CreditWeekdays)
}

func randomView(t *testing.T, rng *rand.Rand) attendance.MonthView {
	t.Helper()

	year := 2020 + rng.Intn(10)
	month := time.Month(1 + rng.Intn(12))

	settings := attendance.Settings{
		UserID:                 fmt.Sprintf("user-%d", rng.Intn(1000)),
		RequiredPercent:        float64(1+rng.Intn(100)) / 100,
		RoundingMode:           attendance.RoundingMode(rng.Intn(3)),
		MonFriHolidayTreatment: attendance.HolidayTreatment(rng.Intn(3)),
		Country:                []string{"US", "DE", "GB"}[rng.Intn(3)],
		State:                  []string{"", "CA", "BY"}[rng.Intn(3)],
		Timezone:               []string{"UTC", "Europe/Berlin", "America/Los_Angeles"}[rng.Intn(3)],
	}
	// shuffled, never empty
	for _, i := range rng.Perm(5)[:1+rng.Intn(5)] {
		settings.CreditWeekdays = append(settings.CreditWeekdays, time.Monday+time.Weekday(i))
	}

	notes := []string{"", "dentist", "train strike, späť domov ✓"}
	var days []attendance.DayRecord
	for _, d := range rng.Perm(dateutil.DaysInMonth(year, month)) {
		if rng.Intn(4) == 0 {
			continue
		}
		rec := attendance.NewDayRecord(dateutil.Date(year, month, d+1))
		rec.Status = attendance.Statuses()[rng.Intn(4)]
		rec.Notes = notes[rng.Intn(len(notes))]
		if rng.Intn(5) == 0 {
			rec.IsHoliday = true
			rec.HolidayName = fmt.Sprintf("Holiday %d", d+1)
			rec.AdhocCredit = rng.Intn(2) == 0
		}
		days = append(days, rec)
	}

	result, err := attendance.Compute(year, month, days, settings)
	require.NoError(t, err)

	return attendance.MonthView{
		UserID:   settings.UserID,
		Year:     year,
		Month:    month,
		Settings: settings,
		Days:     days,
		Result:   result,
	}
}

func TestSerialize_RoundTripRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 50; i++ {
		view := randomView(t, rng)

		data, err := Serialize(view)
		require.NoError(t, err, "view %d", i)
		doc, err := Deserialize(data)
		require.NoError(t, err, "view %d", i)

		want := append([]attendance.DayRecord(nil), view.Days...)
		sort.Slice(want, func(a, b int) bool { return want[a].Date.Before(want[b].Date) })

		assert.Equal(t, view.UserID, doc.UserID, "view %d", i)
		assert.Equal(t, view.Year, doc.Year, "view %d", i)
		assert.Equal(t, view.Month, doc.Month, "view %d", i)
		assert.Equal(t, view.Settings.Normalize(), doc.Settings, "view %d", i)
		assert.Equal(t, want, doc.Days, "view %d", i)
	}
}

func TestSerialize_RejectsMalformedView(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(v *attendance.MonthView)
	}{
		{"record in another month", func(v *attendance.MonthView) {
			v.Days[0] = attendance.NewDayRecord(dateutil.Date(2022, time.February, 1))
		}},
		{"record in another year", func(v *attendance.MonthView) {
			v.Days[0] = attendance.NewDayRecord(dateutil.Date(2021, time.January, 1))
		}},
		{"repeated date", func(v *attendance.MonthView) {
			v.Days = append(v.Days, attendance.NewDayRecord(dateutil.Date(2022, time.January, 9)))
		}},
		{"month out of range", func(v *attendance.MonthView) { v.Month = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := sampleView(t)
			tt.mutate(&view)

			data, err := Serialize(view)
			assert.ErrorIs(t, err, attendance.ErrInvalidRecord)
			assert.Nil(t, data)
		})
	}
}

func TestSerialize_Layout(t *testing.T) {
	data, err := Serialize(sampleView(t))
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"version", "user_id", "month", "settings", "summary", "days"} {
		assert.Contains(t, raw, key)
	}

	var summary struct {
		Denominator  int            `json:"denominator"`
		StatusCounts map[string]int `json:"status_counts"`
	}
	require.NoError(t, json.Unmarshal(raw["summary"], &summary))
	assert.Equal(t, 18, summary.Denominator) // 21 - 2 vacation - Monday holiday excluded
	assert.Equal(t, 2, summary.StatusCounts["VACATION"])

	assert.Contains(t, string(data), `"date": "2022-01-17"`)
	assert.Contains(t, string(data), `"credit_weekdays": [`)
}

func TestSerialize_SortsDays(t *testing.T) {
	view := sampleView(t)
	for i, j := 0, len(view.Days)-1; i < j; i, j = i+1, j-1 {
		view.Days[i], view.Days[j] = view.Days[j], view.Days[i]
	}

	data, err := Serialize(view)
	require.NoError(t, err)
	doc, err := Deserialize(data)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Days[0].Date.Day())
}

func validDocument(t *testing.T) map[string]interface{} {
	t.Helper()
	data, err := Serialize(sampleView(t))
	require.NoError(t, err)
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestDeserialize_SchemaMismatch(t *testing.T) {
	firstDay := func(m map[string]interface{}) map[string]interface{} {
		return m["days"].([]interface{})[0].(map[string]interface{})
	}
	settings := func(m map[string]interface{}) map[string]interface{} {
		return m["settings"].(map[string]interface{})
	}

	tests := []struct {
		name   string
		mutate func(m map[string]interface{})
	}{
		{"wrong version", func(m map[string]interface{}) { m["version"] = 2 }},
		{"missing version", func(m map[string]interface{}) { delete(m, "version") }},
		{"unknown top-level field", func(m map[string]interface{}) { m["owner"] = "bob" }},
		{"missing user", func(m map[string]interface{}) { delete(m, "user_id") }},
		{"empty user", func(m map[string]interface{}) { m["user_id"] = "" }},
		{"month 13", func(m map[string]interface{}) { m["month"] = map[string]interface{}{"year": 2022, "month": 13} }},
		{"missing settings", func(m map[string]interface{}) { delete(m, "settings") }},
		{"missing days", func(m map[string]interface{}) { delete(m, "days") }},
		{"bad rounding mode", func(m map[string]interface{}) { settings(m)["rounding_mode"] = "BANKER" }},
		{"missing percent", func(m map[string]interface{}) { delete(settings(m), "required_percent") }},
		{"percent out of range", func(m map[string]interface{}) { settings(m)["required_percent"] = 1.5 }},
		{"weekend credit day", func(m map[string]interface{}) { settings(m)["credit_weekdays"] = []string{"SAT"} }},
		{"bad status", func(m map[string]interface{}) { firstDay(m)["status"] = "SICK" }},
		{"missing status", func(m map[string]interface{}) { delete(firstDay(m), "status") }},
		{"missing is_holiday", func(m map[string]interface{}) { delete(firstDay(m), "is_holiday") }},
		{"bad date", func(m map[string]interface{}) { firstDay(m)["date"] = "01/01/2022" }},
		{"date outside month", func(m map[string]interface{}) { firstDay(m)["date"] = "2022-02-01" }},
		{"duplicate date", func(m map[string]interface{}) { firstDay(m)["date"] = "2022-01-02" }},
		{"holiday name without holiday", func(m map[string]interface{}) { firstDay(m)["holiday_name"] = "Ghost Day" }},
		{"unknown day field", func(m map[string]interface{}) { firstDay(m)["mood"] = "great" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validDocument(t)
			tt.mutate(m)
			data, err := json.Marshal(m)
			require.NoError(t, err)

			doc, err := Deserialize(data)
			assert.ErrorIs(t, err, ErrSchemaMismatch)
			assert.Nil(t, doc)
		})
	}
}

func TestDeserialize_Garbage(t *testing.T) {
	for _, input := range []string{"", "null", "[]", "{", `{"version":1} {"version":1}`} {
		_, err := Deserialize([]byte(input))
		assert.ErrorIs(t, err, ErrSchemaMismatch, "input %q", input)
	}
}

func TestDeserialize_SummaryOptional(t *testing.T) {
	m := validDocument(t)
	delete(m, "summary")
	data, err := json.Marshal(m)
	require.NoError(t, err)

	doc, err := Deserialize(data)
	require.NoError(t, err)
	assert.Len(t, doc.Days, 31)
}

func TestWriteXLSX(t *testing.T) {
	view := sampleView(t)

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(view, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(daysSheet)
	require.NoError(t, err)
	require.Len(t, rows, 32)
	assert.Equal(t, dayHeader, rows[0])
	assert.Equal(t, "2022-01-17", rows[17][0])
	assert.Equal(t, "MON", rows[17][1])
	assert.Equal(t, "yes", rows[17][3])
	assert.Equal(t, "Martin Luther King Jr. Day", rows[17][4])

	summary, err := f.GetRows(summarySheet)
	require.NoError(t, err)
	found := false
	for _, row := range summary {
		if len(row) == 2 && row[0] == "Balance" {
			found = true
			assert.Equal(t, "-1", row[1]) // numerator 10, required ceil(0.6 x 18) = 11
		}
	}
	assert.True(t, found, "summary has a balance row")
}
