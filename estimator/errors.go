package estimator

import (
	"errors"
	"fmt"

	"github.com/hupe1980/iswrec/glm"
)

var (
	// ErrIncludeMismatch is returned when the coefficient and spectra
	// include-lists do not describe the same tracers.
	ErrIncludeMismatch = errors.New("estimator: include-list mismatch")

	// ErrNoTracers is returned when no coefficient map is left to weight.
	ErrNoTracers = errors.New("estimator: no tracers")

	// ErrMultipoleRange is returned when the spectra do not cover the
	// multipoles to reconstruct.
	ErrMultipoleRange = errors.New("estimator: multipole out of range")
)

// IncludeMismatchError reports the sizes of mismatching include-lists.
// It matches ErrIncludeMismatch with errors.Is.
type IncludeMismatchError struct {
	Coefficients int
	Spectra      int
}

func (e *IncludeMismatchError) Error() string {
	return fmt.Sprintf("estimator: include-list mismatch: %d coefficient maps, %d spectra tracers", e.Coefficients, e.Spectra)
}

// Is reports whether target is ErrIncludeMismatch.
func (e *IncludeMismatchError) Is(target error) bool { return target == ErrIncludeMismatch }

// PairingError reports a coefficient map and spectra tag at the same
// include-list position that do not describe the same tracer: one of them is
// unavailable while the other is not, or one of them was already paired with
// a different partner. It matches ErrIncludeMismatch with errors.Is.
type PairingError struct {
	Position    int
	Coefficient glm.MapID
	Spectrum    string
}

func (e *PairingError) Error() string {
	return fmt.Sprintf("estimator: include-list mismatch at position %d: coefficients %s, spectra %s", e.Position, e.Coefficient, e.Spectrum)
}

// Is reports whether target is ErrIncludeMismatch.
func (e *PairingError) Is(target error) bool { return target == ErrIncludeMismatch }
