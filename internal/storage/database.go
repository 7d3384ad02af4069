package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/paquetes/internal/paquete"
)

// Filter narrows a listing. A non-empty IDPaquete takes priority and the
// remaining fields are ignored, matching the form's search behavior.
type Filter struct {
	IDPaquete    string
	Municipio    string
	Estado       string
	Zona         string
	FechaEntrada string
}

type Database struct {
	db *sql.DB
}

func New(path string) (*Database, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	database := &Database{db: db}
	if err := database.createTables(); err != nil {
		return nil, err
	}

	return database, nil
}

func (d *Database) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS eventos (
			id TEXT PRIMARY KEY,
			id_paquete TEXT NOT NULL,
			lote TEXT NOT NULL,
			municipio TEXT NOT NULL,
			estado TEXT NOT NULL,
			n_predios INTEGER DEFAULT 0,
			zona TEXT NOT NULL,
			fecha_entrada TEXT NOT NULL,
			fecha_salida TEXT DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_eventos_paquete ON eventos(id_paquete)`,
		`CREATE INDEX IF NOT EXISTS idx_eventos_entrada ON eventos(fecha_entrada)`,
		`CREATE INDEX IF NOT EXISTS idx_eventos_salida ON eventos(fecha_salida)`,
	}

	for _, query := range queries {
		if _, err := d.db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) Insert(e *paquete.Event) error {
	_, err := d.db.Exec(
		`INSERT INTO eventos (id, id_paquete, lote, municipio, estado, n_predios, zona, fecha_entrada, fecha_salida)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.IDPaquete, e.Lote, e.Municipio, e.Estado, e.NPredios, e.Zona, e.FechaEntrada, e.FechaSalida,
	)
	return err
}

func (d *Database) Update(e *paquete.Event) error {
	res, err := d.db.Exec(
		`UPDATE eventos SET id_paquete = ?, lote = ?, municipio = ?, estado = ?,
		 n_predios = ?, zona = ?, fecha_entrada = ?, fecha_salida = ? WHERE id = ?`,
		e.IDPaquete, e.Lote, e.Municipio, e.Estado, e.NPredios, e.Zona, e.FechaEntrada, e.FechaSalida, e.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (d *Database) Delete(id string) error {
	res, err := d.db.Exec("DELETE FROM eventos WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// GetByID returns the event or nil when no row matches.
func (d *Database) GetByID(id string) (*paquete.Event, error) {
	var e paquete.Event
	err := d.db.QueryRow(
		`SELECT id, id_paquete, lote, municipio, estado, n_predios, zona, fecha_entrada, fecha_salida
		 FROM eventos WHERE id = ?`, id,
	).Scan(&e.ID, &e.IDPaquete, &e.Lote, &e.Municipio, &e.Estado, &e.NPredios, &e.Zona, &e.FechaEntrada, &e.FechaSalida)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &e, nil
}

// Exists probes the duplicate key: the same paquete entering the same phase
// on the same date.
func (d *Database) Exists(idPaquete, estado, fechaEntrada string) (bool, error) {
	var n int
	err := d.db.QueryRow(
		`SELECT COUNT(1) FROM eventos WHERE id_paquete = ? AND estado = ? AND fecha_entrada = ?`,
		idPaquete, estado, fechaEntrada,
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (d *Database) List(f Filter) ([]paquete.Event, error) {
	query := `SELECT id, id_paquete, lote, municipio, estado, n_predios, zona, fecha_entrada, fecha_salida
		 FROM eventos`
	var args []interface{}
	var where []string

	if f.IDPaquete != "" {
		where = append(where, "id_paquete = ?")
		args = append(args, f.IDPaquete)
	} else {
		if f.Municipio != "" {
			where = append(where, "municipio = ?")
			args = append(args, f.Municipio)
		}
		if f.Estado != "" {
			where = append(where, "estado = ?")
			args = append(args, f.Estado)
		}
		if f.Zona != "" {
			where = append(where, "zona = ?")
			args = append(args, f.Zona)
		}
		if f.FechaEntrada != "" {
			where = append(where, "fecha_entrada = ?")
			args = append(args, f.FechaEntrada)
		}
	}

	for i, w := range where {
		if i == 0 {
			query += " WHERE " + w
		} else {
			query += " AND " + w
		}
	}
	query += " ORDER BY fecha_entrada ASC, id_paquete ASC"

	return d.queryEvents(query, args...)
}

// Municipios returns the distinct municipality names on record, sorted.
func (d *Database) Municipios() ([]string, error) {
	rows, err := d.db.Query(`SELECT DISTINCT municipio FROM eventos ORDER BY municipio ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ClosedInMonth returns events whose exit date falls inside the given month.
func (d *Database) ClosedInMonth(year int, month time.Month) ([]paquete.Event, error) {
	prefix := fmt.Sprintf("%d-%02d-", year, month)
	return d.queryEvents(
		`SELECT id, id_paquete, lote, municipio, estado, n_predios, zona, fecha_entrada, fecha_salida
		 FROM eventos WHERE fecha_salida LIKE ? || '%' ORDER BY fecha_salida ASC`,
		prefix,
	)
}

func (d *Database) DeleteClosedInMonth(year int, month time.Month) error {
	prefix := fmt.Sprintf("%d-%02d-", year, month)
	_, err := d.db.Exec(`DELETE FROM eventos WHERE fecha_salida LIKE ? || '%'`, prefix)
	return err
}

// OldestClosedDate returns the earliest exit date on record, or nil when no
// event has closed yet.
func (d *Database) OldestClosedDate() (*time.Time, error) {
	var s sql.NullString
	err := d.db.QueryRow(`SELECT MIN(fecha_salida) FROM eventos WHERE fecha_salida != ''`).Scan(&s)
	if err != nil {
		return nil, err
	}
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (d *Database) queryEvents(query string, args ...interface{}) ([]paquete.Event, error) {
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []paquete.Event
	for rows.Next() {
		var e paquete.Event
		if err := rows.Scan(&e.ID, &e.IDPaquete, &e.Lote, &e.Municipio, &e.Estado, &e.NPredios, &e.Zona, &e.FechaEntrada, &e.FechaSalida); err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	return events, rows.Err()
}
