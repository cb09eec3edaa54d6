package batchimport

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting import metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    records  *prometheus.CounterVec
//	    duration *prometheus.HistogramVec
//	}
//
//	func (p *PrometheusCollector) RecordBatch(stage, step string, records int, d time.Duration) {
//	    p.records.WithLabelValues(stage, step).Add(float64(records))
//	    p.duration.WithLabelValues(stage, step).Observe(d.Seconds())
//	}
type MetricsCollector interface {
	// RecordStage is called after each stage run.
	// records is the number of records that entered the stage, err is nil if successful.
	RecordStage(stage string, records uint64, duration time.Duration, err error)

	// RecordBatch is called after a step processed a batch.
	// It is called concurrently from all workers.
	RecordBatch(stage, step string, records int, duration time.Duration)

	// RecordExport is called after each export.
	// bytes is the stored (framed, compressed) size.
	RecordExport(blobs int, bytes int64, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordStage(string, uint64, time.Duration, error) {}
func (NoopMetricsCollector) RecordBatch(string, string, int, time.Duration)   {}
func (NoopMetricsCollector) RecordExport(int, int64, time.Duration, error)    {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	StageCount       atomic.Int64
	StageErrors      atomic.Int64
	StageRecords     atomic.Int64
	StageTotalNanos  atomic.Int64
	BatchCount       atomic.Int64
	BatchRecords     atomic.Int64
	BatchTotalNanos  atomic.Int64
	ExportCount      atomic.Int64
	ExportErrors     atomic.Int64
	ExportBlobs      atomic.Int64
	ExportBytes      atomic.Int64
	ExportTotalNanos atomic.Int64
}

// RecordStage implements MetricsCollector.
func (b *BasicMetricsCollector) RecordStage(_ string, records uint64, duration time.Duration, err error) {
	b.StageCount.Add(1)
	b.StageRecords.Add(int64(records))
	b.StageTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.StageErrors.Add(1)
	}
}

// RecordBatch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBatch(_, _ string, records int, duration time.Duration) {
	b.BatchCount.Add(1)
	b.BatchRecords.Add(int64(records))
	b.BatchTotalNanos.Add(duration.Nanoseconds())
}

// RecordExport implements MetricsCollector.
func (b *BasicMetricsCollector) RecordExport(blobs int, bytes int64, duration time.Duration, err error) {
	b.ExportCount.Add(1)
	b.ExportTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ExportErrors.Add(1)
		return
	}
	b.ExportBlobs.Add(int64(blobs))
	b.ExportBytes.Add(bytes)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		StageCount:     b.StageCount.Load(),
		StageErrors:    b.StageErrors.Load(),
		StageRecords:   b.StageRecords.Load(),
		BatchCount:     b.BatchCount.Load(),
		BatchRecords:   b.BatchRecords.Load(),
		BatchAvgNanos:  avg(b.BatchTotalNanos.Load(), b.BatchCount.Load()),
		ExportCount:    b.ExportCount.Load(),
		ExportErrors:   b.ExportErrors.Load(),
		ExportBlobs:    b.ExportBlobs.Load(),
		ExportBytes:    b.ExportBytes.Load(),
		ExportAvgNanos: avg(b.ExportTotalNanos.Load(), b.ExportCount.Load()),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector.
type BasicMetricsStats struct {
	StageCount     int64
	StageErrors    int64
	StageRecords   int64
	BatchCount     int64
	BatchRecords   int64
	BatchAvgNanos  int64
	ExportCount    int64
	ExportErrors   int64
	ExportBlobs    int64
	ExportBytes    int64
	ExportAvgNanos int64
}
