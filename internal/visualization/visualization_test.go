package visualization

import (
	"strings"
	"testing"
	"time"

	"github.com/paquetes/internal/paquete"
	"github.com/paquetes/internal/registry"
	"github.com/paquetes/internal/work"
)

func sampleRows(t *testing.T) []registry.Row {
	t.Helper()
	schedule, err := work.NewSchedule("08:00", "16:30")
	if err != nil {
		t.Fatalf("NewSchedule failed: %v", err)
	}
	cal := work.NewCalendar(schedule, nil)
	now := time.Date(2025, 6, 20, 10, 0, 0, 0, time.UTC)

	events := []paquete.Event{
		{IDPaquete: "PKG-001", Lote: "L-14", Municipio: "Soacha", Estado: paquete.FaseCampo,
			NPredios: 30, Zona: paquete.ZonaRural, FechaEntrada: "2025-06-02", FechaSalida: "2025-06-06"},
		{IDPaquete: "PKG-001", Lote: "L-14", Municipio: "Soacha", Estado: paquete.FaseEntregas,
			NPredios: 30, Zona: paquete.ZonaRural, FechaEntrada: "2025-06-06"},
	}

	var rows []registry.Row
	for _, e := range events {
		rows = append(rows, registry.Row{
			Event: e,
			KPI:   work.ComputeKPIs(cal, e.Estado, e.NPredios, e.FechaEntrada, e.FechaSalida, now),
		})
	}
	return rows
}

func TestGeneratePaqueteSVGBasics(t *testing.T) {
	v := New()
	svg := v.GeneratePaqueteSVG("PKG-001", sampleRows(t))

	assertContains(t, svg, "<?xml")
	assertContains(t, svg, "Paquete PKG-001")
	assertContains(t, svg, ">CAMPO</text>")
	assertContains(t, svg, ">POSTCAMPO</text>")

	// Two phases present: one expected + one real bar each, plus background.
	rectCount := strings.Count(svg, "<rect")
	if rectCount != 5 {
		t.Fatalf("expected 5 rects (background + 2x2 bars), got %d", rectCount)
	}
}

func TestGenerateHTMLReport(t *testing.T) {
	v := New()
	html := v.GenerateHTMLReport("PKG-001", sampleRows(t))

	assertContains(t, html, "<!DOCTYPE html>")
	assertContains(t, html, "Paquete PKG-001")
	assertContains(t, html, "Avance por fase")
	assertContains(t, html, "<td>CAMPO</td>")
	assertContains(t, html, "<td>ENTREGAS</td>")
	// Open ENTREGAS event shows a dash for its exit date.
	assertContains(t, html, "<td>-</td>")

	rowCount := strings.Count(html, "<tr><td>")
	if rowCount != 2 {
		t.Fatalf("expected 2 phase rows, got %d", rowCount)
	}
}

func assertContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q", needle)
	}
}
