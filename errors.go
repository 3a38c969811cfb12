package iswrec

import (
	"errors"
	"fmt"
)

var (
	// ErrInputMismatch is returned when a batch has more than one input but
	// not one per job.
	ErrInputMismatch = errors.New("iswrec: number of inputs does not match number of jobs")

	// ErrNoJobs is returned for an empty batch.
	ErrNoJobs = errors.New("iswrec: no jobs")

	// ErrNilInput is returned when an input lacks its dataset or coefficients.
	ErrNilInput = errors.New("iswrec: input needs both a dataset and a coefficient store")
)

// JobError identifies the batch job that failed.
//
// The underlying error can be accessed via errors.Unwrap.
type JobError struct {
	Index  int
	MapTag string
	cause  error
}

func (e *JobError) Error() string {
	return fmt.Sprintf("iswrec: job %d (%s): %v", e.Index, e.MapTag, e.cause)
}

func (e *JobError) Unwrap() error { return e.cause }
