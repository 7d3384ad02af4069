package work

import "time"

// KPI is the per-event progress tuple joined to a row for display and export.
// Computed fresh on every query, never stored.
type KPI struct {
	ExpectedHours   float64 `json:"h_esp"`
	RealHours       float64 `json:"h_real"`
	ProgressPercent float64 `json:"progreso"`
	OverExpected    bool    `json:"alerta"`
}

// ComputeKPIs combines the expected-hours model and the business-hours
// calculator for one event. Total: bad input degrades to zeros, never errors.
func ComputeKPIs(cal Calendar, fase string, nPredios int, fechaEntrada, fechaSalida string, now time.Time) KPI {
	expected := ExpectedHours(fase, nPredios)
	real := RealHours(cal, fechaEntrada, fechaSalida, now)
	progress := 0.0
	if expected != 0 {
		progress = round1(real / expected * 100)
	}
	return KPI{
		ExpectedHours:   expected,
		RealHours:       real,
		ProgressPercent: progress,
		OverExpected:    real > expected,
	}
}

// AlertText renders the over-expected flag the way the table and CSV show it.
func (k KPI) AlertText() string {
	if k.OverExpected {
		return "Sí"
	}
	return "No"
}
