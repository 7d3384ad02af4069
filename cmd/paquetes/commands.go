package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/paquetes/internal/paquete"
	"github.com/paquetes/internal/registry"
	"github.com/paquetes/internal/server"
	"github.com/paquetes/internal/storage"
	"github.com/paquetes/internal/visualization"
)

var addCmd = &cobra.Command{
	Use:     "add",
	Aliases: []string{"incluir", "new"},
	Short:   "Add a paquete event",
	Long: `Register a paquete entering a phase.

Example:
  paquetes add --id PKG-001 --lote L-14 --municipio Soacha --fase CAMPO --predios 30 --zona RURAL --entrada 2025-06-02`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e := eventFromFlags(cmd)

		if err := registro.Add(e); err != nil {
			return err
		}

		fmt.Printf("Incluido %s | %s en %s desde %s\n", shortID(e.ID), e.IDPaquete, e.Estado, e.FechaEntrada)
		return nil
	},
}

var updateCmd = &cobra.Command{
	Use:     "update <id>",
	Aliases: []string{"modificar", "edit"},
	Short:   "Update an event",
	Long:    `Update an event by its row ID. Only the flags you pass change; use 'list' to see IDs.`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := registro.Get(args[0])
		if err != nil {
			return err
		}

		applyChangedFlags(cmd, e)

		if err := registro.Update(e); err != nil {
			return err
		}

		fmt.Printf("Modificado %s\n", shortID(e.ID))
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"borrar", "del", "rm"},
	Short:   "Delete an event",
	Long:    `Delete an event by its row ID. Use 'list' to see IDs.`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]

		force, _ := cmd.Flags().GetBool("force")
		if !force {
			fmt.Printf("Delete event %s? This cannot be undone. Use --force to confirm.\n", id)
			return nil
		}

		if err := registro.Delete(id); err != nil {
			return err
		}

		fmt.Printf("Borrado %s\n", id)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "eventos"},
	Short:   "List events with KPIs",
	Long: `List events with their expected hours, real hours, progress and alert.
An --id filter takes priority over the other filters.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := registro.ListWithKPIs(filterFromFlags(cmd))
		if err != nil {
			return err
		}

		if len(rows) == 0 {
			fmt.Println("No hay eventos")
			return nil
		}

		printRows(rows)
		return nil
	},
}

var salidaCmd = &cobra.Command{
	Use:     "salida <id>",
	Aliases: []string{"out", "close"},
	Short:   "Mark an event's exit date",
	Long:    `Close an event by setting its exit date. Defaults to today; override with -d.`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fecha, _ := cmd.Flags().GetString("fecha")

		e, err := registro.MarkExit(args[0], fecha)
		if err != nil {
			return err
		}

		fmt.Printf("Salida marcada: %s | %s sale de %s el %s\n", shortID(e.ID), e.IDPaquete, e.Estado, e.FechaSalida)
		return nil
	},
}

var avanzarCmd = &cobra.Command{
	Use:     "avanzar <id>",
	Aliases: []string{"next", "advance"},
	Short:   "Create the next-phase event",
	Long: `Create the follow-on event in the next phase for a paquete. The new entry
date is the previous exit date, or today when the event is still open.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := registro.Advance(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Creado evento en %s: %s | %s desde %s\n", e.Estado, shortID(e.ID), e.IDPaquete, e.FechaEntrada)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:     "export [csv|json]",
	Aliases: []string{"exp"},
	Short:   "Export events to CSV or JSON",
	Long: `Export events with their KPIs.

Examples:
  paquetes export csv -o vista_eventos.csv
  paquetes export json --fase CAMPO`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		outputPath, _ := cmd.Flags().GetString("output")
		if len(args) > 0 {
			format = args[0]
		}

		rows, err := registro.ListWithKPIs(filterFromFlags(cmd))
		if err != nil {
			return err
		}

		var output io.Writer
		if outputPath != "" {
			f, err := os.Create(outputPath)
			if err != nil {
				return err
			}
			defer f.Close()
			output = f
		} else {
			output = os.Stdout
		}

		switch format {
		case "csv":
			return registry.WriteCSV(output, rows)
		case "json":
			return registry.WriteJSON(output, rows, cfg.Now())
		default:
			return fmt.Errorf("unknown format: %s (use csv or json)", format)
		}
	},
}

var reportCmd = &cobra.Command{
	Use:     "report <id_paquete>",
	Aliases: []string{"reporte"},
	Short:   "Generate an HTML report for one paquete",
	Long:    `Render an HTML report with a per-phase hours chart for one paquete.`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idPaquete := args[0]
		rows, err := registro.ListWithKPIs(storage.Filter{IDPaquete: idPaquete})
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return fmt.Errorf("no hay eventos para el paquete %s", idPaquete)
		}

		outputPath, _ := cmd.Flags().GetString("output")
		if outputPath == "" {
			outputPath = fmt.Sprintf("reporte_%s.html", idPaquete)
		}

		html := visualization.New().GenerateHTMLReport(idPaquete, rows)
		if err := os.WriteFile(outputPath, []byte(html), 0644); err != nil {
			return err
		}

		fmt.Printf("Reporte escrito en %s\n", outputPath)
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	Long:  `Display the database path, work window and holiday calendar.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Config: DB=%s | Jornada: %s-%s (%.1fh)\n",
			cfg.DatabasePath, cfg.WorkStart, cfg.WorkEnd, cal.Schedule.DailyHours())
		holidays := cal.Holidays()
		if len(holidays) == 0 {
			fmt.Println("Feriados: sin feriados cargados")
		} else {
			fmt.Printf("Feriados: %s\n", strings.Join(holidays, ", "))
		}
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the REST API",
	Long:  `Start the HTTP server exposing events, KPIs and CSV export.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		fmt.Printf("Serving on %s\n", addr)
		return server.New(registro).Run(addr)
	},
}

// Helpers

func eventFromFlags(cmd *cobra.Command) *paquete.Event {
	id, _ := cmd.Flags().GetString("id")
	lote, _ := cmd.Flags().GetString("lote")
	municipio, _ := cmd.Flags().GetString("municipio")
	fase, _ := cmd.Flags().GetString("fase")
	predios, _ := cmd.Flags().GetInt("predios")
	zona, _ := cmd.Flags().GetString("zona")
	entrada, _ := cmd.Flags().GetString("entrada")
	salida, _ := cmd.Flags().GetString("salida")

	return &paquete.Event{
		IDPaquete:    id,
		Lote:         lote,
		Municipio:    municipio,
		Estado:       strings.ToUpper(fase),
		NPredios:     predios,
		Zona:         strings.ToUpper(zona),
		FechaEntrada: entrada,
		FechaSalida:  salida,
	}
}

func applyChangedFlags(cmd *cobra.Command, e *paquete.Event) {
	if cmd.Flags().Changed("id") {
		e.IDPaquete, _ = cmd.Flags().GetString("id")
	}
	if cmd.Flags().Changed("lote") {
		e.Lote, _ = cmd.Flags().GetString("lote")
	}
	if cmd.Flags().Changed("municipio") {
		e.Municipio, _ = cmd.Flags().GetString("municipio")
	}
	if cmd.Flags().Changed("fase") {
		fase, _ := cmd.Flags().GetString("fase")
		e.Estado = strings.ToUpper(fase)
	}
	if cmd.Flags().Changed("predios") {
		e.NPredios, _ = cmd.Flags().GetInt("predios")
	}
	if cmd.Flags().Changed("zona") {
		zona, _ := cmd.Flags().GetString("zona")
		e.Zona = strings.ToUpper(zona)
	}
	if cmd.Flags().Changed("entrada") {
		e.FechaEntrada, _ = cmd.Flags().GetString("entrada")
	}
	if cmd.Flags().Changed("salida") {
		e.FechaSalida, _ = cmd.Flags().GetString("salida")
	}
}

func filterFromFlags(cmd *cobra.Command) storage.Filter {
	id, _ := cmd.Flags().GetString("id")
	municipio, _ := cmd.Flags().GetString("municipio")
	fase, _ := cmd.Flags().GetString("fase")
	zona, _ := cmd.Flags().GetString("zona")
	entrada, _ := cmd.Flags().GetString("entrada")

	return storage.Filter{
		IDPaquete:    id,
		Municipio:    municipio,
		Estado:       strings.ToUpper(fase),
		Zona:         strings.ToUpper(zona),
		FechaEntrada: entrada,
	}
}

// shortID abbreviates generated row IDs for display. Client-supplied IDs may
// be shorter than the truncation width and pass through unchanged.
func shortID(id string) string {
	if len(id) < 8 {
		return id
	}
	return id[:8]
}

func printRows(rows []registry.Row) {
	fmt.Printf("%-8s %-10s %-8s %-12s %-10s %-8s %-7s %-11s %-11s %8s %8s %7s %s\n",
		"ID", "PAQUETE", "LOTE", "MUNICIPIO", "FASE", "ZONA", "PREDIOS", "ENTRADA", "SALIDA", "H.ESP", "H.REAL", "PROG", "ALERTA")
	for _, r := range rows {
		salida := r.FechaSalida
		if salida == "" {
			salida = "-"
		}
		fmt.Printf("%-8s %-10s %-8s %-12s %-10s %-8s %7d %-11s %-11s %8.2f %8.2f %6.1f%% %s\n",
			shortID(r.ID), r.IDPaquete, r.Lote, r.Municipio, r.Estado, r.Zona, r.NPredios,
			r.FechaEntrada, salida, r.KPI.ExpectedHours, r.KPI.RealHours, r.KPI.ProgressPercent, r.KPI.AlertText())
	}
}

func init() {
	for _, cmd := range []*cobra.Command{addCmd, updateCmd} {
		cmd.Flags().String("id", "", "ID del paquete")
		cmd.Flags().StringP("lote", "l", "", "Lote")
		cmd.Flags().StringP("municipio", "m", "", "Municipio")
		cmd.Flags().StringP("fase", "f", "", "Fase (CAMPO, ENTREGAS, JURIDICO, POSTCAMPO)")
		cmd.Flags().IntP("predios", "p", 0, "Número de predios")
		cmd.Flags().StringP("zona", "z", "", "Zona (URBANO, RURAL, MIXTO)")
		cmd.Flags().StringP("entrada", "e", "", "Fecha de entrada (AAAA-MM-DD o DD/MM/AAAA)")
		cmd.Flags().StringP("salida", "s", "", "Fecha de salida (opcional)")
	}

	deleteCmd.Flags().BoolP("force", "f", false, "Force delete without confirmation")

	salidaCmd.Flags().StringP("fecha", "d", "", "Fecha de salida (default: hoy)")

	for _, cmd := range []*cobra.Command{listCmd, exportCmd} {
		cmd.Flags().String("id", "", "Filtrar por ID de paquete (prioriza)")
		cmd.Flags().StringP("municipio", "m", "", "Filtrar por municipio")
		cmd.Flags().StringP("fase", "f", "", "Filtrar por fase")
		cmd.Flags().StringP("zona", "z", "", "Filtrar por zona")
		cmd.Flags().StringP("entrada", "e", "", "Filtrar por fecha de entrada")
	}

	exportCmd.Flags().String("format", "csv", "Output format: csv or json")
	exportCmd.Flags().StringP("output", "o", "", "Output file (stdout if empty)")

	reportCmd.Flags().StringP("output", "o", "", "Output file (default: reporte_<id>.html)")

	serveCmd.Flags().String("addr", ":8080", "Listen address")
}
