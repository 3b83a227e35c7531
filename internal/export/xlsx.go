package export

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/username/desk-o-meter/internal/attendance"
	"github.com/username/desk-o-meter/pkg/dateutil"
)

const (
	daysSheet    = "Days"
	summarySheet = "Summary"
)

var dayHeader = []string{"Date", "Weekday", "Status", "Holiday", "Holiday name", "Adhoc credit", "Notes"}

// WriteXLSX renders the month as a workbook with a day table and a summary
func WriteXLSX(view attendance.MonthView, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(daysSheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	weekendStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "#808080"},
	})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	f.SetColWidth(daysSheet, "A", "A", 12)
	f.SetColWidth(daysSheet, "B", "D", 10)
	f.SetColWidth(daysSheet, "E", "E", 28)
	f.SetColWidth(daysSheet, "F", "F", 12)
	f.SetColWidth(daysSheet, "G", "G", 40)

	for i, title := range dayHeader {
		f.SetCellValue(daysSheet, cell(colName(i), 1), title)
	}
	f.SetCellStyle(daysSheet, "A1", cell(colName(len(dayHeader)-1), 1), headerStyle)

	days := append([]attendance.DayRecord(nil), view.Days...)
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })

	row := 2
	for _, d := range days {
		values := []interface{}{
			dateutil.FormatDate(d.Date),
			dateutil.WeekdayCode(d.Weekday()),
			d.Status.String(),
			yesNo(d.IsHoliday),
			d.HolidayName,
			yesNo(d.AdhocCredit),
			d.Notes,
		}
		for i, v := range values {
			f.SetCellValue(daysSheet, cell(colName(i), row), v)
		}
		if d.IsWeekend() {
			f.SetCellStyle(daysSheet, cell("A", row), cell(colName(len(values)-1), row), weekendStyle)
		}
		row++
	}

	r := view.Result
	summary := [][2]interface{}{
		{"User", view.UserID},
		{"Month", fmt.Sprintf("%d-%02d", view.Year, int(view.Month))},
		{"Required percent", view.Settings.RequiredPercent},
		{"Rounding", view.Settings.RoundingMode.String()},
		{"Workdays", r.Workdays},
		{"Denominator", r.Denominator},
		{"Numerator", r.Numerator},
		{"Required days", r.RequiredDays},
		{"Balance", r.Balance},
		{"Percent achieved", r.PercentAchieved},
		{"Credited holidays", r.CreditedHolidays},
	}
	for _, st := range attendance.Statuses() {
		summary = append(summary, [2]interface{}{st.String() + " days", r.StatusCounts[st]})
	}

	f.SetColWidth(summarySheet, "A", "A", 20)
	f.SetColWidth(summarySheet, "B", "B", 16)
	for i, kv := range summary {
		f.SetCellValue(summarySheet, cell("A", i+1), kv[0])
		f.SetCellValue(summarySheet, cell("B", i+1), kv[1])
	}
	f.SetCellStyle(summarySheet, "A1", cell("A", len(summary)), headerStyle)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
