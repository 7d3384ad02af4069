package work

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/paquetes/internal/dates"
)

// BusinessHoursBetween computes elapsed working hours from the start date up
// to the end instant. Whole business days strictly before the end date count
// the full window; the end day contributes the used portion of its window,
// capped at one day. A same-day span therefore carries no full-day component.
func BusinessHoursBetween(cal Calendar, start, end time.Time) float64 {
	if start.IsZero() || end.IsZero() {
		return 0
	}
	total := 0.0
	endDate := dateOf(end)
	for cur := dateOf(start); cur.Before(endDate); cur = cur.AddDate(0, 0, 1) {
		if cal.IsBusinessDay(cur) {
			total += cal.Schedule.DailyHours()
		}
	}
	if cal.IsBusinessDay(endDate) {
		elapsed := cal.Schedule.ClampToWorkday(end).Sub(cal.Schedule.StartOfWorkday(end)).Hours()
		if elapsed > 0 {
			if elapsed > cal.Schedule.DailyHours() {
				elapsed = cal.Schedule.DailyHours()
			}
			total += elapsed
		}
	}
	return round2(total)
}

// RealHours resolves the textual entry/exit pair of an event into elapsed
// business hours. An absent or unparsable entry yields 0. When an exit date is
// present the span ends at the close of its work window, otherwise at now.
func RealHours(cal Calendar, fechaEntrada, fechaSalida string, now time.Time) float64 {
	d0, ok := dates.ParseIn(fechaEntrada, now.Location())
	if !ok {
		return 0
	}
	end := now
	if exit, ok := dates.ParseIn(fechaSalida, now.Location()); ok {
		end = cal.Schedule.EndOfWorkday(exit)
	}
	return BusinessHoursBetween(cal, d0, end)
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

func round1(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(1).Float64()
	return f
}
