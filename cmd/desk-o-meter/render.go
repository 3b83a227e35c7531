package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/username/desk-o-meter/internal/attendance"
	"github.com/username/desk-o-meter/internal/calendar"
	"github.com/username/desk-o-meter/pkg/dateutil"
)

const cellWidth = 8

var statusCodes = map[attendance.Status]string{
	attendance.StatusNone:     "-",
	attendance.StatusOffice:   "OFF",
	attendance.StatusWFH:      "WFH",
	attendance.StatusVacation: "VAC",
}

// renderMonth prints the month grid, the legend, the holidays and the quota summary
func renderMonth(w io.Writer, view *attendance.MonthView, today time.Time) {
	byDate := make(map[string]attendance.DayRecord, len(view.Days))
	for _, rec := range view.Days {
		byDate[dateutil.FormatDate(rec.Date)] = rec
	}

	title := fmt.Sprintf("%s %d  %s  %s", view.Month, view.Year, view.UserID,
		calendar.RegionCode(view.Settings.Country, view.Settings.State))
	fmt.Fprintln(w, Header(title))
	fmt.Fprintln(w)

	var head strings.Builder
	for _, wd := range []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday} {
		code := dateutil.WeekdayCode(wd)
		if view.Settings.CreditWeekdays.Contains(wd) {
			code += "*"
		}
		head.WriteString(pad(code))
	}
	fmt.Fprintln(w, Header(head.String()))

	for _, week := range calendar.MonthGrid(view.Year, view.Month) {
		var line strings.Builder
		for _, date := range week {
			if date.IsZero() {
				line.WriteString(pad(""))
				continue
			}
			rec, ok := byDate[dateutil.FormatDate(date)]
			if !ok {
				rec = attendance.NewDayRecord(date)
			}
			line.WriteString(renderCell(rec, dateutil.IsSameDay(date, today)))
		}
		fmt.Fprintln(w, line.String())
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, Silent("* credit weekday   ! holiday   + adhoc credit   [] today"))

	var holidays []attendance.DayRecord
	for _, rec := range view.Days {
		if rec.IsHoliday {
			holidays = append(holidays, rec)
		}
	}
	if len(holidays) > 0 {
		fmt.Fprintln(w)
		for _, rec := range holidays {
			fmt.Fprintf(w, "%s  %s\n", holidayStyle.Render(dateutil.FormatDate(rec.Date)), rec.HolidayName)
		}
	}

	fmt.Fprintln(w)
	renderSummary(w, view.Result, view.Settings)
}

func renderCell(rec attendance.DayRecord, today bool) string {
	text := fmt.Sprintf("%2d", rec.Date.Day())
	marker := " "
	switch {
	case rec.IsHoliday && rec.AdhocCredit:
		marker = "+"
	case rec.IsHoliday:
		marker = "!"
	}
	text += marker + statusCodes[rec.Status]
	if today {
		text = "[" + text + "]"
	}

	cell := pad(text)
	switch {
	case rec.IsWeekend() && rec.Status == attendance.StatusNone:
		return Silent(cell)
	case rec.Status == attendance.StatusOffice:
		return officeStyle.Render(cell)
	case rec.Status == attendance.StatusWFH:
		return wfhStyle.Render(cell)
	case rec.Status == attendance.StatusVacation:
		return vacationStyle.Render(cell)
	case rec.IsHoliday:
		return holidayStyle.Render(cell)
	}
	return cell
}

func renderSummary(w io.Writer, r attendance.Result, s attendance.Settings) {
	fmt.Fprintf(w, "Workdays:       %d\n", r.Workdays)
	fmt.Fprintf(w, "Denominator:    %d\n", r.Denominator)
	fmt.Fprintf(w, "In office:      %d", r.Numerator)
	if r.CreditedHolidays > 0 {
		fmt.Fprintf(w, " (%d credited holidays)", r.CreditedHolidays)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Required:       %d (%.0f%%, %s)\n", r.RequiredDays, s.RequiredPercent*100, s.RoundingMode)
	fmt.Fprintf(w, "Achieved:       %.1f%%\n", r.PercentAchieved)

	balance := fmt.Sprintf("%+d", r.Balance)
	if r.Balance >= 0 {
		balance = Success(balance)
	} else {
		balance = Error(balance)
	}
	fmt.Fprintf(w, "Balance:        %s\n", balance)

	counts := make([]string, 0, len(attendance.Statuses()))
	for _, st := range attendance.Statuses() {
		counts = append(counts, fmt.Sprintf("%s %d", st, r.StatusCounts[st]))
	}
	fmt.Fprintln(w, Silent(strings.Join(counts, "  ")))
}

func pad(s string) string {
	if len(s) >= cellWidth {
		return s
	}
	return s + strings.Repeat(" ", cellWidth-len(s))
}
