package registry

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/paquetes/internal/dates"
	"github.com/paquetes/internal/paquete"
	"github.com/paquetes/internal/storage"
	"github.com/paquetes/internal/work"
)

// testRegistry opens a throwaway database and pins the clock to a Friday
// morning so date stamping is reproducible.
func testRegistry(t *testing.T) *Registry {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("storage.New failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schedule, err := work.NewSchedule("08:00", "16:30")
	if err != nil {
		t.Fatalf("NewSchedule failed: %v", err)
	}
	cal := work.NewCalendar(schedule, nil)
	now := func() time.Time { return time.Date(2025, 6, 20, 10, 0, 0, 0, time.Local) }
	return New(db, cal, now)
}

func testEvent(fase, entrada, salida string) *paquete.Event {
	return &paquete.Event{
		IDPaquete:    "PKG-001",
		Lote:         "L-14",
		Municipio:    "Soacha",
		Estado:       fase,
		NPredios:     30,
		Zona:         paquete.ZonaRural,
		FechaEntrada: entrada,
		FechaSalida:  salida,
	}
}

func TestAddAssignsIDAndRejectsDuplicate(t *testing.T) {
	r := testRegistry(t)

	e := testEvent(paquete.FaseCampo, "2025-06-02", "")
	if err := r.Add(e); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if e.ID == "" {
		t.Error("Add should assign an ID when none is given")
	}

	dup := testEvent(paquete.FaseCampo, "2025-06-02", "")
	if err := r.Add(dup); !errors.Is(err, ErrDuplicate) {
		t.Errorf("Add duplicate error = %v, want ErrDuplicate", err)
	}

	// Same paquete and phase on a different entry date is a new event.
	other := testEvent(paquete.FaseCampo, "2025-06-09", "")
	if err := r.Add(other); err != nil {
		t.Errorf("Add with different entrada failed: %v", err)
	}
}

func TestAddNormalizesDayFirstDates(t *testing.T) {
	r := testRegistry(t)

	e := testEvent(paquete.FaseCampo, "02/06/2025", "")
	if err := r.Add(e); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if e.FechaEntrada != "2025-06-02" {
		t.Errorf("FechaEntrada = %s, want 2025-06-02", e.FechaEntrada)
	}

	// The duplicate rule sees the canonical form, not the input spelling.
	dup := testEvent(paquete.FaseCampo, "2025-06-02", "")
	if err := r.Add(dup); !errors.Is(err, ErrDuplicate) {
		t.Errorf("Add duplicate error = %v, want ErrDuplicate", err)
	}
}

func TestAddKeepsClientID(t *testing.T) {
	r := testRegistry(t)

	e := testEvent(paquete.FaseCampo, "2025-06-02", "")
	e.ID = "x"
	if err := r.Add(e); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	got, err := r.Get("x")
	if err != nil {
		t.Fatalf("Get(x) failed: %v", err)
	}
	if got.IDPaquete != "PKG-001" {
		t.Errorf("Get(x).IDPaquete = %s, want PKG-001", got.IDPaquete)
	}
}

func TestMarkExitDefaultsToToday(t *testing.T) {
	r := testRegistry(t)

	e := testEvent(paquete.FaseCampo, "2025-06-02", "")
	if err := r.Add(e); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	closed, err := r.MarkExit(e.ID, "")
	if err != nil {
		t.Fatalf("MarkExit failed: %v", err)
	}
	if closed.FechaSalida != "2025-06-20" {
		t.Errorf("FechaSalida = %s, want 2025-06-20", closed.FechaSalida)
	}

	stored, err := r.Get(e.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stored.FechaSalida != "2025-06-20" {
		t.Errorf("stored FechaSalida = %s, want 2025-06-20", stored.FechaSalida)
	}
}

func TestMarkExitRejectsSalidaBeforeEntrada(t *testing.T) {
	r := testRegistry(t)

	e := testEvent(paquete.FaseCampo, "2025-06-10", "")
	if err := r.Add(e); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if _, err := r.MarkExit(e.ID, "2025-06-01"); !errors.Is(err, dates.ErrDateOrder) {
		t.Errorf("MarkExit error = %v, want ErrDateOrder", err)
	}

	stored, err := r.Get(e.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stored.FechaSalida != "" {
		t.Errorf("rejected exit must not persist, got FechaSalida = %s", stored.FechaSalida)
	}
}

func TestAdvanceInheritsSalidaAsEntrada(t *testing.T) {
	r := testRegistry(t)

	e := testEvent(paquete.FaseCampo, "2025-06-02", "2025-06-06")
	if err := r.Add(e); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	next, err := r.Advance(e.ID)
	if err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if next.Estado != paquete.FaseEntregas {
		t.Errorf("Estado = %s, want ENTREGAS", next.Estado)
	}
	if next.FechaEntrada != "2025-06-06" {
		t.Errorf("FechaEntrada = %s, want 2025-06-06 (previous salida)", next.FechaEntrada)
	}
	if next.FechaSalida != "" {
		t.Errorf("new event must start open, got FechaSalida = %s", next.FechaSalida)
	}
	if _, err := r.Get(next.ID); err != nil {
		t.Errorf("advanced event not persisted: %v", err)
	}
}

func TestAdvanceOpenEventUsesToday(t *testing.T) {
	r := testRegistry(t)

	e := testEvent(paquete.FaseCampo, "2025-06-02", "")
	if err := r.Add(e); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	next, err := r.Advance(e.ID)
	if err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if next.FechaEntrada != "2025-06-20" {
		t.Errorf("FechaEntrada = %s, want today 2025-06-20", next.FechaEntrada)
	}
}

func TestAdvanceTerminalFase(t *testing.T) {
	r := testRegistry(t)

	e := testEvent(paquete.FasePostcampo, "2025-06-02", "")
	if err := r.Add(e); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if _, err := r.Advance(e.ID); !errors.Is(err, ErrLastFase) {
		t.Errorf("Advance error = %v, want ErrLastFase", err)
	}
}

func TestUpdatePersistsChanges(t *testing.T) {
	r := testRegistry(t)

	e := testEvent(paquete.FaseCampo, "2025-06-02", "")
	if err := r.Add(e); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	e.Municipio = "Chía"
	e.NPredios = 45
	if err := r.Update(e); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	stored, err := r.Get(e.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stored.Municipio != "Chía" || stored.NPredios != 45 {
		t.Errorf("stored event = %+v, changes not persisted", stored)
	}
}

func TestUpdateAndDeleteMissing(t *testing.T) {
	r := testRegistry(t)

	ghost := testEvent(paquete.FaseCampo, "2025-06-02", "")
	ghost.ID = "no-such-row"
	if err := r.Update(ghost); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update missing error = %v, want ErrNotFound", err)
	}
	if err := r.Delete("no-such-row"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete missing error = %v, want ErrNotFound", err)
	}
}

func TestDeleteRemovesEvent(t *testing.T) {
	r := testRegistry(t)

	e := testEvent(paquete.FaseCampo, "2025-06-02", "")
	if err := r.Add(e); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := r.Delete(e.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := r.Get(e.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete error = %v, want ErrNotFound", err)
	}
}

func TestNextFase(t *testing.T) {
	tests := []struct {
		fase     string
		expected string
		wantErr  error
	}{
		{"CAMPO", "ENTREGAS", nil},
		{"ENTREGAS", "JURIDICO", nil},
		{"JURIDICO", "POSTCAMPO", nil},
		{"POSTCAMPO", "", ErrLastFase},
	}

	for _, tt := range tests {
		t.Run(tt.fase, func(t *testing.T) {
			next, err := NextFase(tt.fase)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("NextFase(%s) error = %v, want %v", tt.fase, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NextFase(%s) unexpected error: %v", tt.fase, err)
			}
			if next != tt.expected {
				t.Errorf("NextFase(%s) = %s, want %s", tt.fase, next, tt.expected)
			}
		})
	}
}

func TestNextFaseUnknown(t *testing.T) {
	if _, err := NextFase("LIMBO"); err == nil {
		t.Error("NextFase(LIMBO) expected error")
	}
	if _, err := NextFase(""); err == nil {
		t.Error("NextFase(\"\") expected error")
	}
}

func TestNewDefaultsClock(t *testing.T) {
	r := New(nil, work.Calendar{}, nil)
	if r.now == nil {
		t.Fatal("New should fall back to time.Now when no clock is given")
	}
	if r.today() == "" {
		t.Error("today() should render a date")
	}
}

func testRows(t *testing.T) []Row {
	t.Helper()
	schedule, err := work.NewSchedule("08:00", "16:30")
	if err != nil {
		t.Fatalf("NewSchedule failed: %v", err)
	}
	cal := work.NewCalendar(schedule, nil)
	now := time.Date(2025, 6, 4, 10, 0, 0, 0, time.UTC)

	e := paquete.Event{
		ID:           "abc123",
		IDPaquete:    "PKG-001",
		Lote:         "L-14",
		Municipio:    "Soacha",
		Estado:       paquete.FaseCampo,
		NPredios:     30,
		Zona:         paquete.ZonaRural,
		FechaEntrada: "2025-06-02",
	}
	return []Row{{Event: e, KPI: work.ComputeKPIs(cal, e.Estado, e.NPredios, e.FechaEntrada, e.FechaSalida, now)}}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, testRows(t)); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 record, got %d lines", len(lines))
	}
	if lines[0] != strings.Join(CSVHeader, ",") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "PKG-001,L-14,Soacha,CAMPO,30,RURAL,2025-06-02,") {
		t.Errorf("record = %q", lines[1])
	}
	if !strings.Contains(lines[1], "42.50,10.50,24.7,No") {
		t.Errorf("KPI columns missing in %q", lines[1])
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	now := time.Date(2025, 6, 4, 10, 0, 0, 0, time.UTC)
	if err := WriteJSON(&buf, testRows(t), now); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	out := buf.String()
	for _, needle := range []string{`"export_date": "2025-06-04"`, `"total_events": 1`, `"id_paquete": "PKG-001"`, `"h_esp": 42.5`} {
		if !strings.Contains(out, needle) {
			t.Errorf("JSON output missing %q", needle)
		}
	}
}
