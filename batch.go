package iswrec

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/iswrec/cldata"
	"github.com/hupe1980/iswrec/estimator"
	"github.com/hupe1980/iswrec/glm"
)

// Input pairs the spectra and coefficients a job runs on.
type Input struct {
	Dataset *cldata.Dataset
	Store   *glm.Store
}

// BatchResult is the output of RunBatch.
type BatchResult struct {
	// RunID identifies the batch in logs.
	RunID string
	// Store holds one reconstructed map per job, in job order.
	Store *glm.Store
	// Results are the per-job results.
	Results []*estimator.Result
}

// RunBatch runs every job and combines the reconstructions along the map
// axis of one store labeled with outTag (DefaultOutputTag if empty).
//
// A single input is shared by all jobs; otherwise there must be one input
// per job. Jobs are not saved individually; the combined store is saved
// (and mapped) once, after every job has finished.
func (r *Reconstructor) RunBatch(ctx context.Context, inputs []Input, jobs []estimator.Job, outTag string) (*BatchResult, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := r.opts.logger.WithRunID(runID)

	out, err := r.runBatch(ctx, logger, inputs, jobs, outTag)
	r.opts.metricsCollector.RecordBatch(len(jobs), time.Since(start), err)

	completed := 0
	if out != nil {
		completed = len(out.Results)
	}
	logger.LogBatch(ctx, len(jobs), completed, err)
	if err != nil {
		return nil, err
	}
	out.RunID = runID
	return out, nil
}

func (r *Reconstructor) runBatch(ctx context.Context, logger *Logger, inputs []Input, jobs []estimator.Job, outTag string) (*BatchResult, error) {
	if len(jobs) == 0 {
		return nil, ErrNoJobs
	}
	if len(inputs) != 1 && len(inputs) != len(jobs) {
		return nil, fmt.Errorf("%w: %d inputs, %d jobs", ErrInputMismatch, len(inputs), len(jobs))
	}
	if outTag == "" {
		outTag = DefaultOutputTag
	}

	logger.InfoContext(ctx, "running batch", "jobs", len(jobs), "inputs", len(inputs))

	results := make([]*estimator.Result, 0, len(jobs))
	stores := make([]*glm.Store, 0, len(jobs))
	for i, job := range jobs {
		in := inputs[0]
		if len(inputs) > 1 {
			in = inputs[i]
		}

		res, err := r.estimate(ctx, in.Dataset, in.Store, job)
		if err != nil {
			return &BatchResult{Results: results}, &JobError{Index: i, MapTag: job.OutputMapTag(), cause: err}
		}
		results = append(results, res)
		stores = append(stores, res.Store)
	}

	combined, err := glm.Concat(stores...)
	if err != nil {
		return &BatchResult{Results: results}, err
	}
	combined.FileTags = []string{outTag}
	combined.RunTag = stores[0].RunTag
	if r.opts.runTag != "" {
		combined.RunTag = r.opts.runTag
	}

	if err := r.emit(ctx, combined); err != nil {
		return &BatchResult{Results: results}, err
	}

	return &BatchResult{Store: combined, Results: results}, nil
}
