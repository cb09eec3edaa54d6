package batchimport

import (
	"time"

	"github.com/hupe1980/batchimport/internal/compress"
	"github.com/hupe1980/batchimport/resource"
)

// Compression selects the block compression of exports.
type Compression uint8

const (
	// CompressionNone stores blocks uncompressed.
	CompressionNone Compression = iota
	// CompressionLZ4 is fast block compression (default).
	CompressionLZ4
	// CompressionZSTD trades speed for a better ratio.
	CompressionZSTD
)

func (c Compression) algorithm() compress.Algorithm {
	switch c {
	case CompressionLZ4:
		return compress.LZ4
	case CompressionZSTD:
		return compress.ZSTD
	default:
		return compress.None
	}
}

// String implements fmt.Stringer.
func (c Compression) String() string {
	return c.algorithm().String()
}

const defaultExportPrefix = "groups"

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	resources        *resource.Controller
	monitorInterval  time.Duration
	compression      Compression
	exportPrefix     string
	exportWorkers    int
}

func defaultOptions() options {
	return options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		compression:      CompressionLZ4,
		exportPrefix:     defaultExportPrefix,
	}
}

// Option configures an Importer.
type Option func(*options)

// WithLogger sets the logger. If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector sets the metrics collector.
// If nil is passed, NoopMetricsCollector is used.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithResourceController charges caches to the controller's memory budget,
// limits concurrently running stages and rate limits export IO.
//
// Example:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes:   8 << 30,
//	    IOLimitBytesPerSec: 200 << 20,
//	})
//	im, _ := batchimport.New(cfg, batchimport.WithResourceController(rc))
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.resources = rc
	}
}

// WithMonitorInterval logs step progress at the given interval while a stage
// runs. Zero disables progress logging.
func WithMonitorInterval(d time.Duration) Option {
	return func(o *options) {
		o.monitorInterval = d
	}
}

// WithCompression sets the block compression used by ExportGroups.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithExportPrefix sets the blob name prefix used by ExportGroups.
// Default: "groups".
func WithExportPrefix(prefix string) Option {
	return func(o *options) {
		o.exportPrefix = prefix
	}
}

// WithExportWorkers sets the worker count of the ENCODE step.
// Zero selects the configured default worker count.
func WithExportWorkers(n int) Option {
	return func(o *options) {
		o.exportWorkers = n
	}
}
