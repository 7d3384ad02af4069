// Package paquete defines the event rows that record a parcel batch moving
// through its processing phases.
package paquete

import "fmt"

// Phases, in lifecycle order.
const (
	FaseCampo     = "CAMPO"
	FaseEntregas  = "ENTREGAS"
	FaseJuridico  = "JURIDICO"
	FasePostcampo = "POSTCAMPO"
)

// FaseOrden is the sequential lifecycle a paquete moves through.
var FaseOrden = []string{FaseCampo, FaseEntregas, FaseJuridico, FasePostcampo}

// Zones
const (
	ZonaUrbano = "URBANO"
	ZonaRural  = "RURAL"
	ZonaMixto  = "MIXTO"
)

// Zonas lists the recognized zone values.
var Zonas = []string{ZonaUrbano, ZonaRural, ZonaMixto}

// Event is one lifecycle record: a paquete entering a phase, optionally with
// the date it left it. Dates are canonical "YYYY-MM-DD" text once validated.
type Event struct {
	ID           string `json:"id"`
	IDPaquete    string `json:"id_paquete"`
	Lote         string `json:"lote"`
	Municipio    string `json:"municipio"`
	Estado       string `json:"estado"`
	NPredios     int    `json:"n_predios"`
	Zona         string `json:"zona"`
	FechaEntrada string `json:"fecha_entrada"`
	FechaSalida  string `json:"fecha_salida,omitempty"`
}

// ValidFase reports whether s names a recognized phase.
func ValidFase(s string) bool {
	for _, f := range FaseOrden {
		if s == f {
			return true
		}
	}
	return false
}

// ValidZona reports whether s names a recognized zone.
func ValidZona(s string) bool {
	for _, z := range Zonas {
		if s == z {
			return true
		}
	}
	return false
}

// ValidationError marks a field-level rule violation the caller can correct.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// Validate checks the required fields and enum values. Date rules live in the
// dates package and are enforced by the registry before any write.
func (e *Event) Validate() error {
	if e.IDPaquete == "" {
		return validationErrorf("el ID del paquete es obligatorio")
	}
	if e.Lote == "" {
		return validationErrorf("el lote es obligatorio")
	}
	if e.Municipio == "" {
		return validationErrorf("el municipio es obligatorio")
	}
	if !ValidFase(e.Estado) {
		return validationErrorf("fase no válida: %q", e.Estado)
	}
	if !ValidZona(e.Zona) {
		return validationErrorf("zona no válida: %q", e.Zona)
	}
	if e.NPredios < 0 {
		return validationErrorf("n_predios no puede ser negativo")
	}
	if e.FechaEntrada == "" {
		return validationErrorf("la fecha de entrada es obligatoria")
	}
	return nil
}
