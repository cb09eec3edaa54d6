package staging

import (
	"fmt"
	"runtime"
)

const (
	// DefaultBatchSize is the default maximum number of records per batch.
	DefaultBatchSize = 10_000
	// DefaultQueueCapacity is the default number of batches buffered between two steps.
	DefaultQueueCapacity = 4
)

// Config holds the tunables of a stage run.
//
// A Stage copies its Config on construction; changing the value afterwards has
// no effect on the stage.
type Config struct {
	// BatchSize is the maximum number of records per batch.
	// Default: DefaultBatchSize
	BatchSize int

	// Workers is the default worker count of steps that do not declare one.
	// Default: runtime.GOMAXPROCS(0)
	Workers int

	// QueueCapacity is the number of batches buffered between adjacent steps.
	// Default: DefaultQueueCapacity
	QueueCapacity int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		BatchSize:     DefaultBatchSize,
		Workers:       runtime.GOMAXPROCS(0),
		QueueCapacity: DefaultQueueCapacity,
	}
}

// Validate reports invalid values. Zero values are valid and select defaults.
func (c Config) Validate() error {
	if c.BatchSize < 0 {
		return fmt.Errorf("%w: batch size %d", ErrInvalidConfig, c.BatchSize)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers %d", ErrInvalidConfig, c.Workers)
	}
	if c.QueueCapacity < 0 {
		return fmt.Errorf("%w: queue capacity %d", ErrInvalidConfig, c.QueueCapacity)
	}
	return nil
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.BatchSize <= 0 {
		c.BatchSize = def.BatchSize
	}
	if c.Workers <= 0 {
		c.Workers = def.Workers
	}
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = def.QueueCapacity
	}
	return c
}
