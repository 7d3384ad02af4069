package registry

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"
)

// CSVHeader is the export column order: the stored row fields followed by the
// computed KPI columns, as the spreadsheet view showed them.
var CSVHeader = []string{
	"id_paquete", "lote", "municipio", "estado", "n_predios", "zona",
	"fecha_entrada", "fecha_salida", "h_esp", "h_real", "progreso", "alerta",
}

// WriteCSV writes rows as UTF-8 CSV with a header line.
func WriteCSV(w io.Writer, rows []Row) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.IDPaquete,
			r.Lote,
			r.Municipio,
			r.Estado,
			strconv.Itoa(r.NPredios),
			r.Zona,
			r.FechaEntrada,
			r.FechaSalida,
			fmt.Sprintf("%.2f", r.KPI.ExpectedHours),
			fmt.Sprintf("%.2f", r.KPI.RealHours),
			fmt.Sprintf("%.1f", r.KPI.ProgressPercent),
			r.KPI.AlertText(),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteJSON writes rows as an indented JSON document with an export envelope.
func WriteJSON(w io.Writer, rows []Row, now time.Time) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(map[string]interface{}{
		"export_date":  now.Format("2006-01-02"),
		"total_events": len(rows),
		"eventos":      rows,
	})
}
