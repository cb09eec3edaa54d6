package staging

import (
	"sync/atomic"
	"time"
)

// StepStats is a snapshot of a step's progress.
type StepStats struct {
	Name    string
	Workers int
	// Batches and Records count fully processed input.
	Batches uint64
	Records uint64
	// Sent counts batches pushed downstream.
	Sent uint64
	// BusyTime is the time spent in the process function, summed over workers.
	BusyTime time.Duration
	// QueueDepth is the number of batches waiting in the step's input queue.
	QueueDepth int
	Done       bool
}

type stepCounters struct {
	batches atomic.Uint64
	records atomic.Uint64
	sent    atomic.Uint64
	busy    atomic.Int64
	done    atomic.Bool
}

func (c *stepCounters) snapshot(name string, workers, queueDepth int) StepStats {
	return StepStats{
		Name:       name,
		Workers:    workers,
		Batches:    c.batches.Load(),
		Records:    c.records.Load(),
		Sent:       c.sent.Load(),
		BusyTime:   time.Duration(c.busy.Load()),
		QueueDepth: queueDepth,
		Done:       c.done.Load(),
	}
}
