package work

import "strings"

// Productivity is the fixed throughput assumption for one phase: hours per
// predio and the floor applied to very small batches.
type Productivity struct {
	HoursPerPredio float64
	MinHours       float64
}

// Ratios derived from the 8.5h shift and observed batch throughput: a crew
// clears a 30-predio CAMPO batch in five days, ENTREGAS moves 80 predios per
// day, JURIDICO 30 per day, POSTCAMPO 4.4 per hour. Not configurable at
// runtime.
var productivityByFase = map[string]Productivity{
	"CAMPO":     {HoursPerPredio: (5 * 8.5) / 30.0, MinHours: 1.0},
	"ENTREGAS":  {HoursPerPredio: 8.5 / 80.0, MinHours: 0.5},
	"JURIDICO":  {HoursPerPredio: 8.5 / 30.0, MinHours: 0.5},
	"POSTCAMPO": {HoursPerPredio: 1.0 / 4.4, MinHours: 0.5},
}

// ExpectedHours returns the target hours for a phase and predio count.
// Unknown phases yield 0; negative counts are treated as 0.
func ExpectedHours(fase string, nPredios int) float64 {
	p := productivityByFase[strings.ToUpper(strings.TrimSpace(fase))]
	if nPredios < 0 {
		nPredios = 0
	}
	h := float64(nPredios) * p.HoursPerPredio
	if h < p.MinHours {
		h = p.MinHours
	}
	return round2(h)
}
