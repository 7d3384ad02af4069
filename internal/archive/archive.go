package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/paquetes/internal/paquete"
	"github.com/paquetes/internal/storage"
	"github.com/paquetes/internal/work"
)

// Archiver exports closed events to monthly markdown files, keyed by the
// month of their exit date, so SQLite stays lean without losing history.
type Archiver struct {
	db          *storage.Database
	cal         work.Calendar
	historyPath string
}

// New creates a new Archiver
func New(db *storage.Database, cal work.Calendar, historyPath string) *Archiver {
	return &Archiver{
		db:          db,
		cal:         cal,
		historyPath: historyPath,
	}
}

// MonthSummary contains one archived month's closed events and totals.
type MonthSummary struct {
	Month         time.Time
	TotalExpected float64
	TotalReal     float64
	EventCount    int
	FaseHours     map[string]float64
	Rows          []EventRecord
}

// EventRecord is a closed event with its final KPIs, frozen at archive time.
type EventRecord struct {
	IDPaquete    string
	Lote         string
	Municipio    string
	Estado       string
	NPredios     int
	Zona         string
	FechaEntrada string
	FechaSalida  string
	Expected     float64
	Real         float64
	Progress     float64
	Alerta       string
}

// ArchiveMonth exports a month's closed events to markdown and optionally
// removes them from the database.
func (a *Archiver) ArchiveMonth(year int, month time.Month, cleanDB bool) error {
	events, err := a.db.ClosedInMonth(year, month)
	if err != nil {
		return fmt.Errorf("failed to get events: %w", err)
	}
	if len(events) == 0 {
		return fmt.Errorf("no closed events found for %s %d", month, year)
	}

	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	summary := a.buildSummary(monthStart, events)
	markdown := a.generateMarkdown(summary)

	if err := os.MkdirAll(a.historyPath, 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	filename := fmt.Sprintf("%d-%02d.md", year, month)
	filePath := filepath.Join(a.historyPath, filename)

	if err := os.WriteFile(filePath, []byte(markdown), 0644); err != nil {
		return fmt.Errorf("failed to write archive: %w", err)
	}

	if cleanDB {
		if err := a.db.DeleteClosedInMonth(year, month); err != nil {
			return fmt.Errorf("failed to clean database: %w", err)
		}
	}

	return nil
}

func (a *Archiver) buildSummary(monthStart time.Time, events []paquete.Event) *MonthSummary {
	summary := &MonthSummary{
		Month:     monthStart,
		FaseHours: make(map[string]float64),
		Rows:      make([]EventRecord, 0, len(events)),
	}

	for _, e := range events {
		// Closed events never need the clock; the exit date bounds the span.
		kpi := work.ComputeKPIs(a.cal, e.Estado, e.NPredios, e.FechaEntrada, e.FechaSalida, time.Time{})

		summary.TotalExpected += kpi.ExpectedHours
		summary.TotalReal += kpi.RealHours
		summary.FaseHours[e.Estado] += kpi.RealHours

		summary.Rows = append(summary.Rows, EventRecord{
			IDPaquete:    e.IDPaquete,
			Lote:         e.Lote,
			Municipio:    e.Municipio,
			Estado:       e.Estado,
			NPredios:     e.NPredios,
			Zona:         e.Zona,
			FechaEntrada: e.FechaEntrada,
			FechaSalida:  e.FechaSalida,
			Expected:     kpi.ExpectedHours,
			Real:         kpi.RealHours,
			Progress:     kpi.ProgressPercent,
			Alerta:       kpi.AlertText(),
		})
	}

	summary.EventCount = len(summary.Rows)
	return summary
}

func (a *Archiver) generateMarkdown(summary *MonthSummary) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", summary.Month.Format("January 2006")))

	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Closed Events | %d |\n", summary.EventCount))
	sb.WriteString(fmt.Sprintf("| Expected Hours | %.2f |\n", summary.TotalExpected))
	sb.WriteString(fmt.Sprintf("| Real Hours | %.2f |\n", summary.TotalReal))
	sb.WriteString("\n")

	sb.WriteString("## Hours by Phase\n\n")
	sb.WriteString("| Fase | Real Hours |\n")
	sb.WriteString("|------|------------|\n")
	for _, fase := range paquete.FaseOrden {
		if hours, ok := summary.FaseHours[fase]; ok {
			sb.WriteString(fmt.Sprintf("| %s | %.2f |\n", fase, hours))
		}
	}
	sb.WriteString("\n")

	sb.WriteString("## Events\n\n")
	sb.WriteString("| ID | Lote | Municipio | Fase | Predios | Zona | Entrada | Salida | H.Esp | H.Real | Prog | Alerta |\n")
	sb.WriteString("|----|------|-----------|------|---------|------|---------|--------|-------|--------|------|--------|\n")
	for _, r := range summary.Rows {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %d | %s | %s | %s | %.2f | %.2f | %.1f%% | %s |\n",
			r.IDPaquete, r.Lote, r.Municipio, r.Estado, r.NPredios, r.Zona,
			r.FechaEntrada, r.FechaSalida, r.Expected, r.Real, r.Progress, r.Alerta))
	}
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("---\n*Archived: %s*\n", time.Now().Format("2006-01-02 15:04")))

	return sb.String()
}

// AutoArchivePastMonths archives every complete month before the current one.
func (a *Archiver) AutoArchivePastMonths() ([]string, error) {
	now := time.Now()
	currentMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.Local)

	oldestDate, err := a.db.OldestClosedDate()
	if err != nil {
		return nil, err
	}
	if oldestDate == nil {
		return nil, nil // Nothing closed yet
	}

	var archived []string
	monthStart := time.Date(oldestDate.Year(), oldestDate.Month(), 1, 0, 0, 0, 0, time.Local)

	for monthStart.Before(currentMonth) {
		filename := fmt.Sprintf("%d-%02d.md", monthStart.Year(), monthStart.Month())
		filePath := filepath.Join(a.historyPath, filename)

		// Skip if already archived
		if _, err := os.Stat(filePath); err == nil {
			monthStart = monthStart.AddDate(0, 1, 0)
			continue
		}

		err := a.ArchiveMonth(monthStart.Year(), monthStart.Month(), true)
		if err != nil {
			// Skip months with no data
			if strings.Contains(err.Error(), "no closed events") {
				monthStart = monthStart.AddDate(0, 1, 0)
				continue
			}
			return archived, err
		}

		archived = append(archived, filename)
		monthStart = monthStart.AddDate(0, 1, 0)
	}

	return archived, nil
}

// ListArchives returns list of archived months
func (a *Archiver) ListArchives() ([]string, error) {
	entries, err := os.ReadDir(a.historyPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var archives []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".md") {
			archives = append(archives, e.Name())
		}
	}

	sort.Strings(archives)
	return archives, nil
}

// ReadArchive reads a specific month's archive
func (a *Archiver) ReadArchive(year int, month time.Month) (string, error) {
	filename := fmt.Sprintf("%d-%02d.md", year, month)
	filePath := filepath.Join(a.historyPath, filename)

	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("archive not found: %s", filename)
	}

	return string(data), nil
}

// HistorySummary returns the summary sections of the last monthsBack archives.
func (a *Archiver) HistorySummary(monthsBack int) (string, error) {
	archives, err := a.ListArchives()
	if err != nil {
		return "", err
	}

	if len(archives) == 0 {
		return "", nil
	}

	start := len(archives) - monthsBack
	if start < 0 {
		start = 0
	}

	var sb strings.Builder
	for _, archive := range archives[start:] {
		content, err := os.ReadFile(filepath.Join(a.historyPath, archive))
		if err != nil {
			continue
		}

		lines := strings.Split(string(content), "\n")
		inSummary := false
		for _, line := range lines {
			if strings.HasPrefix(line, "# ") {
				sb.WriteString(fmt.Sprintf("\n%s:\n", strings.TrimPrefix(line, "# ")))
			}
			if strings.HasPrefix(line, "## Summary") {
				inSummary = true
				continue
			}
			if strings.HasPrefix(line, "## Hours by Phase") {
				inSummary = false
			}
			if inSummary && strings.HasPrefix(line, "| ") && !strings.HasPrefix(line, "| Metric") && !strings.HasPrefix(line, "|--") {
				sb.WriteString(fmt.Sprintf("  %s\n", line))
			}
		}
	}

	return sb.String(), nil
}
