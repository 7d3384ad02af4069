package paquete

import (
	"errors"
	"testing"
)

func validEvent() Event {
	return Event{
		IDPaquete:    "PKG-001",
		Lote:         "L-14",
		Municipio:    "Soacha",
		Estado:       FaseCampo,
		NPredios:     30,
		Zona:         ZonaRural,
		FechaEntrada: "2025-06-02",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Event)
		wantErr bool
	}{
		{"valid", func(e *Event) {}, false},
		{"valid with salida", func(e *Event) { e.FechaSalida = "2025-06-10" }, false},
		{"missing id", func(e *Event) { e.IDPaquete = "" }, true},
		{"missing lote", func(e *Event) { e.Lote = "" }, true},
		{"missing municipio", func(e *Event) { e.Municipio = "" }, true},
		{"missing entrada", func(e *Event) { e.FechaEntrada = "" }, true},
		{"bad fase", func(e *Event) { e.Estado = "PRECAMPO" }, true},
		{"lowercase fase rejected", func(e *Event) { e.Estado = "campo" }, true},
		{"bad zona", func(e *Event) { e.Zona = "COSTERO" }, true},
		{"negative predios", func(e *Event) { e.NPredios = -1 }, true},
		{"zero predios ok", func(e *Event) { e.NPredios = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validEvent()
			tt.mutate(&e)
			err := e.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("Validate() expected error, got nil")
				}
				var ve *ValidationError
				if !errors.As(err, &ve) {
					t.Errorf("Validate() error type = %T, want *ValidationError", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
		})
	}
}

func TestFaseOrden(t *testing.T) {
	expected := []string{"CAMPO", "ENTREGAS", "JURIDICO", "POSTCAMPO"}
	if len(FaseOrden) != len(expected) {
		t.Fatalf("FaseOrden has %d phases, want %d", len(FaseOrden), len(expected))
	}
	for i, f := range expected {
		if FaseOrden[i] != f {
			t.Errorf("FaseOrden[%d] = %s, want %s", i, FaseOrden[i], f)
		}
		if !ValidFase(f) {
			t.Errorf("ValidFase(%s) = false", f)
		}
	}
	if ValidFase("") {
		t.Error("ValidFase(\"\") should be false")
	}
}
