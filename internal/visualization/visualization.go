package visualization

import (
	"fmt"
	"strings"
	"time"

	"github.com/paquetes/internal/paquete"
	"github.com/paquetes/internal/registry"
)

type Visualizer struct{}

func New() *Visualizer {
	return &Visualizer{}
}

// GeneratePaqueteSVG renders expected-vs-real hours per phase for one
// paquete. Phases the paquete has not reached yet render as empty slots.
func (v *Visualizer) GeneratePaqueteSVG(idPaquete string, rows []registry.Row) string {
	width := 600
	height := 300
	padding := 40
	slotWidth := float64((width - 2*padding) / len(paquete.FaseOrden))

	byFase := make(map[string]registry.Row)
	maxHours := 1.0
	for _, r := range rows {
		byFase[r.Estado] = r
		if r.KPI.ExpectedHours > maxHours {
			maxHours = r.KPI.ExpectedHours
		}
		if r.KPI.RealHours > maxHours {
			maxHours = r.KPI.RealHours
		}
	}

	var bars strings.Builder
	for i, fase := range paquete.FaseOrden {
		r, ok := byFase[fase]
		if !ok {
			continue
		}

		barWidth := slotWidth/2 - 8
		chartHeight := float64(height - 2*padding)

		expHeight := (r.KPI.ExpectedHours / maxHours) * chartHeight
		realHeight := (r.KPI.RealHours / maxHours) * chartHeight
		if realHeight > chartHeight {
			realHeight = chartHeight
		}

		x := float64(padding) + float64(i)*slotWidth + 5
		expY := float64(height) - float64(padding) - expHeight
		realY := float64(height) - float64(padding) - realHeight

		realColor := "#4CAF50"
		if r.KPI.OverExpected {
			realColor = "#F44336"
		}

		bars.WriteString(fmt.Sprintf(`<rect x="%.0f" y="%.0f" width="%.0f" height="%.0f" fill="#B0BEC5" rx="4"/>
    <rect x="%.0f" y="%.0f" width="%.0f" height="%.0f" fill="%s" rx="4"/>
    <text x="%.0f" y="%d" text-anchor="middle" font-size="12" fill="#333">%.1fh</text>`,
			x, expY, barWidth, expHeight,
			x+barWidth+6, realY, barWidth, realHeight, realColor,
			x+slotWidth/2-5, int(realY)-5, r.KPI.RealHours))
	}

	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" width="%d" height="%d">
  <defs>
    <linearGradient id="bgGrad" x1="0%%" y1="0%%" x2="0%%" y2="100%%">
      <stop offset="0%%" style="stop-color:#f5f7fa"/>
      <stop offset="100%%" style="stop-color:#e4e8ec"/>
    </linearGradient>
  </defs>
  <rect width="%d" height="%d" fill="url(#bgGrad)" rx="10"/>
  <text x="%d" y="30" text-anchor="middle" font-size="18" font-weight="bold" fill="#2c3e50">Paquete %s</text>
  <text x="%d" y="55" text-anchor="middle" font-size="12" fill="#7f8c8d">Horas esperadas vs reales por fase</text>

  <!-- Bars -->
  %s

  <!-- X-axis labels -->
  %s
</svg>`,
		width, height, width, height,
		width, height,
		width/2, idPaquete,
		width/2,
		bars.String(),
		v.generateFaseLabels(float64(padding), slotWidth, float64(height-padding)),
	)
}

// GenerateHTMLReport wraps the SVG chart and a per-phase table for one
// paquete into a standalone HTML page.
func (v *Visualizer) GenerateHTMLReport(idPaquete string, rows []registry.Row) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>Control de Paquetes - %s</title>
  <style>
    body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; margin: 40px; background: #f5f7fa; }
    .container { max-width: 800px; margin: 0 auto; }
    .card { background: white; border-radius: 10px; padding: 24px; margin-bottom: 20px; box-shadow: 0 2px 8px rgba(0,0,0,0.1); }
    h1 { color: #2c3e50; margin-bottom: 8px; }
    h2 { color: #34495e; font-size: 18px; margin-bottom: 16px; }
    .subtitle { color: #7f8c8d; margin-bottom: 30px; }
    table { width: 100%%; border-collapse: collapse; margin-top: 16px; }
    th, td { padding: 12px; text-align: left; border-bottom: 1px solid #eee; }
    th { color: #7f8c8d; font-weight: 500; }
    .alert { color: #C62828; font-weight: bold; }
  </style>
</head>
<body>
  <div class="container">
    <h1>Paquete %s</h1>
    <p class="subtitle">Generado el %s</p>

    <div class="card">
      <h2>Avance por fase</h2>
      %s
    </div>

    <div class="card">
      <h2>Eventos</h2>
      <table>
        <tr><th>Fase</th><th>Entrada</th><th>Salida</th><th>H. Esperadas</th><th>H. Reales</th><th>Progreso</th><th>Alerta</th></tr>
        %s
      </table>
    </div>
  </div>
</body>
</html>`,
		idPaquete,
		idPaquete,
		time.Now().Format("2006-01-02"),
		v.GeneratePaqueteSVG(idPaquete, rows),
		v.formatFaseRows(rows),
	)
}

func (v *Visualizer) formatFaseRows(rows []registry.Row) string {
	var out []string
	for _, r := range rows {
		salida := r.FechaSalida
		if salida == "" {
			salida = "-"
		}
		alertClass := ""
		if r.KPI.OverExpected {
			alertClass = ` class="alert"`
		}
		out = append(out, fmt.Sprintf("<tr><td>%s</td><td>%s</td><td>%s</td><td>%.2f</td><td>%.2f</td><td>%.1f%%</td><td%s>%s</td></tr>",
			r.Estado, r.FechaEntrada, salida, r.KPI.ExpectedHours, r.KPI.RealHours, r.KPI.ProgressPercent, alertClass, r.KPI.AlertText()))
	}
	return strings.Join(out, "\n        ")
}

func (v *Visualizer) generateFaseLabels(padding, slotWidth, y float64) string {
	var labels strings.Builder
	for i, fase := range paquete.FaseOrden {
		x := padding + float64(i)*slotWidth + slotWidth/2 - 5
		labels.WriteString(fmt.Sprintf(`<text x="%.0f" y="%d" text-anchor="middle" font-size="11" fill="#7f8c8d">%s</text>`,
			x, int(y)+20, fase))
	}
	return labels.String()
}
