package iswrec

import (
	"sync/atomic"
	"time"
)

// MetricsCollector receives operational metrics. Implement it to feed a
// monitoring system.
type MetricsCollector interface {
	// RecordEstimate is called after each reconstruction with the number of
	// realizations processed.
	RecordEstimate(realizations int, duration time.Duration, err error)

	// RecordBatch is called after each batch with the number of jobs.
	RecordBatch(jobs int, duration time.Duration, err error)

	// RecordPersist is called after each coefficient file is written.
	RecordPersist(duration time.Duration, err error)
}

// NoopMetricsCollector discards all metrics.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordEstimate(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordBatch(int, time.Duration, error)    {}
func (NoopMetricsCollector) RecordPersist(time.Duration, error)       {}

// BasicMetricsCollector keeps in-memory counters.
type BasicMetricsCollector struct {
	EstimateCount        atomic.Int64
	EstimateErrors       atomic.Int64
	EstimateRealizations atomic.Int64
	EstimateTotalNanos   atomic.Int64
	BatchCount           atomic.Int64
	BatchErrors          atomic.Int64
	BatchJobs            atomic.Int64
	PersistCount         atomic.Int64
	PersistErrors        atomic.Int64
}

// RecordEstimate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEstimate(realizations int, duration time.Duration, err error) {
	b.EstimateCount.Add(1)
	b.EstimateTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.EstimateErrors.Add(1)
		return
	}
	b.EstimateRealizations.Add(int64(realizations))
}

// RecordBatch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBatch(jobs int, _ time.Duration, err error) {
	b.BatchCount.Add(1)
	b.BatchJobs.Add(int64(jobs))
	if err != nil {
		b.BatchErrors.Add(1)
	}
}

// RecordPersist implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPersist(_ time.Duration, err error) {
	b.PersistCount.Add(1)
	if err != nil {
		b.PersistErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	s := BasicMetricsStats{
		EstimateCount:        b.EstimateCount.Load(),
		EstimateErrors:       b.EstimateErrors.Load(),
		EstimateRealizations: b.EstimateRealizations.Load(),
		BatchCount:           b.BatchCount.Load(),
		BatchErrors:          b.BatchErrors.Load(),
		BatchJobs:            b.BatchJobs.Load(),
		PersistCount:         b.PersistCount.Load(),
		PersistErrors:        b.PersistErrors.Load(),
	}
	if s.EstimateCount > 0 {
		s.EstimateAvgNanos = b.EstimateTotalNanos.Load() / s.EstimateCount
	}
	return s
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	EstimateCount        int64
	EstimateErrors       int64
	EstimateRealizations int64
	EstimateAvgNanos     int64
	BatchCount           int64
	BatchErrors          int64
	BatchJobs            int64
	PersistCount         int64
	PersistErrors        int64
}
