package dates

import (
	"errors"
	"strings"
	"time"
)

// Canonical is the textual form every stored date is normalized to.
const Canonical = "2006-01-02"

// Accepted input layouts, tried in order. DD/MM wins over MM/DD on ambiguous input.
var layouts = []string{Canonical, "02/01/2006", "01/02/2006"}

// Validation errors surfaced to the user; the caller shows the message and
// aborts the write without touching storage.
var (
	ErrInvalidFormat = errors.New("fecha inválida: use AAAA-MM-DD o DD/MM/AAAA")
	ErrDateOrder     = errors.New("la salida no puede ser antes de la entrada")
)

// Parse attempts the accepted layouts and reports whether any matched.
// Blank input is "absent", not an error.
func Parse(text string) (time.Time, bool) {
	return ParseIn(text, time.Local)
}

// ParseIn is Parse anchored to a specific location.
func ParseIn(text string, loc *time.Location) (time.Time, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Normalize re-renders text in canonical form. Blank input yields "",
// non-blank unparsable input yields ErrInvalidFormat.
func Normalize(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	d, ok := Parse(text)
	if !ok {
		return "", ErrInvalidFormat
	}
	return d.Format(Canonical), nil
}

// ValidateRange normalizes an entry/exit pair and enforces exit >= entry.
// The exit date is optional; the caller guarantees the entry is non-blank.
func ValidateRange(entrada, salida string) (string, string, error) {
	ent, err := Normalize(entrada)
	if err != nil {
		return "", "", err
	}
	sal := ""
	if strings.TrimSpace(salida) != "" {
		sal, err = Normalize(salida)
		if err != nil {
			return "", "", err
		}
		dEnt, _ := Parse(ent)
		dSal, _ := Parse(sal)
		if dSal.Before(dEnt) {
			return "", "", ErrDateOrder
		}
	}
	return ent, sal, nil
}
