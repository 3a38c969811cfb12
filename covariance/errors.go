package covariance

import (
	"errors"
	"fmt"
)

var (
	// ErrSingular is returned when a reduced covariance matrix cannot be
	// inverted.
	ErrSingular = errors.New("covariance: singular matrix")

	// ErrUnknownTarget is returned when the reconstruction target has no
	// spectra in the dataset.
	ErrUnknownTarget = errors.New("covariance: target not in dataset")
)

// SingularError reports the multipole whose reduced matrix is singular.
//
// It matches ErrSingular with errors.Is; the solver error is available via
// errors.Unwrap.
type SingularError struct {
	L     int
	Tags  []string
	cause error
}

func (e *SingularError) Error() string {
	return fmt.Sprintf("covariance: singular matrix at l=%d over %v: %v", e.L, e.Tags, e.cause)
}

func (e *SingularError) Unwrap() error { return e.cause }

// Is reports whether target is ErrSingular.
func (e *SingularError) Is(target error) bool { return target == ErrSingular }
