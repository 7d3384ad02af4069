package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"

	"github.com/paquetes/internal/dates"
	"github.com/paquetes/internal/paquete"
	"github.com/paquetes/internal/storage"
	"github.com/paquetes/internal/work"
)

// Validation errors surfaced at the write boundary; the caller shows the
// message and aborts without touching storage.
var (
	ErrDuplicate = errors.New("ya existe ese evento (ID + fase + fecha de entrada)")
	ErrNotFound  = errors.New("evento no encontrado")
	ErrLastFase  = errors.New("POSTCAMPO es la última fase")
)

// Registry coordinates validation, persistence and KPI computation for
// paquete events.
type Registry struct {
	db  *storage.Database
	cal work.Calendar
	now func() time.Time
}

func New(db *storage.Database, cal work.Calendar, now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{db: db, cal: cal, now: now}
}

// Calendar returns the work calendar the registry computes KPIs against.
func (r *Registry) Calendar() work.Calendar {
	return r.cal
}

func (r *Registry) today() string {
	return r.now().Format(dates.Canonical)
}

// Add validates and stores a new event. Dates are normalized to canonical
// form and the duplicate rule (id_paquete + fase + fecha_entrada) is enforced
// before the insert.
func (r *Registry) Add(e *paquete.Event) error {
	if err := e.Validate(); err != nil {
		return err
	}
	ent, sal, err := dates.ValidateRange(e.FechaEntrada, e.FechaSalida)
	if err != nil {
		return err
	}
	e.FechaEntrada, e.FechaSalida = ent, sal

	exists, err := r.db.Exists(e.IDPaquete, e.Estado, e.FechaEntrada)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicate
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return r.db.Insert(e)
}

// Update replaces the stored fields of an existing event after the same
// validation as Add, minus the duplicate probe against itself.
func (r *Registry) Update(e *paquete.Event) error {
	existing, err := r.db.GetByID(e.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	if err := e.Validate(); err != nil {
		return err
	}
	ent, sal, err := dates.ValidateRange(e.FechaEntrada, e.FechaSalida)
	if err != nil {
		return err
	}
	e.FechaEntrada, e.FechaSalida = ent, sal
	return r.db.Update(e)
}

func (r *Registry) Delete(id string) error {
	existing, err := r.db.GetByID(id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	return r.db.Delete(id)
}

func (r *Registry) Get(id string) (*paquete.Event, error) {
	e, err := r.db.GetByID(id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrNotFound
	}
	return e, nil
}

// MarkExit closes an event: exit date defaults to today and may not precede
// the entry date.
func (r *Registry) MarkExit(id, fechaSalida string) (*paquete.Event, error) {
	e, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	if fechaSalida == "" {
		fechaSalida = r.today()
	}
	_, sal, err := dates.ValidateRange(e.FechaEntrada, fechaSalida)
	if err != nil {
		return nil, err
	}
	e.FechaSalida = sal
	if err := r.db.Update(e); err != nil {
		return nil, err
	}
	return e, nil
}

// faseMachine builds the linear lifecycle machine positioned at fase.
func faseMachine(fase string) *fsm.FSM {
	events := make(fsm.Events, 0, len(paquete.FaseOrden)-1)
	for i := 0; i < len(paquete.FaseOrden)-1; i++ {
		events = append(events, fsm.EventDesc{
			Name: "avanzar",
			Src:  []string{paquete.FaseOrden[i]},
			Dst:  paquete.FaseOrden[i+1],
		})
	}
	return fsm.NewFSM(fase, events, fsm.Callbacks{})
}

// NextFase returns the phase following fase, or ErrLastFase at the end of the
// lifecycle.
func NextFase(fase string) (string, error) {
	if !paquete.ValidFase(fase) {
		return "", fmt.Errorf("fase no válida: %q", fase)
	}
	m := faseMachine(fase)
	if err := m.Event(context.Background(), "avanzar"); err != nil {
		return "", ErrLastFase
	}
	return m.Current(), nil
}

// Advance creates the follow-on event in the next phase. The new entry date
// is the previous exit date, or today when the previous event is still open.
// The duplicate rule applies to the new event.
func (r *Registry) Advance(id string) (*paquete.Event, error) {
	prev, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	next, err := NextFase(prev.Estado)
	if err != nil {
		return nil, err
	}

	entrada := prev.FechaSalida
	if entrada == "" {
		entrada = r.today()
	}
	ev := &paquete.Event{
		IDPaquete:    prev.IDPaquete,
		Lote:         prev.Lote,
		Municipio:    prev.Municipio,
		Estado:       next,
		NPredios:     prev.NPredios,
		Zona:         prev.Zona,
		FechaEntrada: entrada,
	}
	if err := r.Add(ev); err != nil {
		return nil, err
	}
	return ev, nil
}

func (r *Registry) List(f storage.Filter) ([]paquete.Event, error) {
	return r.db.List(f)
}

func (r *Registry) Municipios() ([]string, error) {
	return r.db.Municipios()
}

// Row pairs an event with its computed KPIs for display and export.
type Row struct {
	paquete.Event
	KPI work.KPI `json:"kpi"`
}

// ListWithKPIs lists matching events and computes the KPI tuple for each at a
// single shared instant.
func (r *Registry) ListWithKPIs(f storage.Filter) ([]Row, error) {
	events, err := r.List(f)
	if err != nil {
		return nil, err
	}
	now := r.now()
	rows := make([]Row, 0, len(events))
	for _, e := range events {
		rows = append(rows, Row{
			Event: e,
			KPI:   work.ComputeKPIs(r.cal, e.Estado, e.NPredios, e.FechaEntrada, e.FechaSalida, now),
		})
	}
	return rows, nil
}
