package batchimport

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/hupe1980/batchimport/groupcache"
	"github.com/hupe1980/batchimport/internal/conv"
	"github.com/hupe1980/batchimport/record"
	"github.com/hupe1980/batchimport/staging"
)

// Stage names.
const (
	StageGroups = "GROUPS"
	StageExport = "EXPORT"
)

// GroupProducer feeds relationship groups into the grouping stage.
//
// offer splits its argument into batches of at most Config.BatchSize records
// and blocks while the pipeline is saturated. The slice must not be modified
// after it was offered. ctx is cancelled when the stage halts.
type GroupProducer func(ctx context.Context, offer func(groups []record.Group) error) error

// Importer sequences the stages of an import run.
type Importer struct {
	cfg  staging.Config
	opts options
}

// New creates an Importer. Zero config fields select defaults.
func New(cfg staging.Config, optFns ...Option) (*Importer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Importer{cfg: cfg, opts: opts}, nil
}

// CacheGroups allocates a relationship group cache for node ids
// [0, maxNodeID] and fills it from produce in stage GROUPS.
//
// On success the cache is sealed and owned by the caller, who must Close it.
// On failure the cache is released and the run's single failure cause is
// returned.
func (im *Importer) CacheGroups(ctx context.Context, maxNodeID uint64, produce GroupProducer) (*groupcache.Cache, error) {
	if maxNodeID == math.MaxUint64 {
		return nil, fmt.Errorf("%w: max node id %d", ErrCapacity, maxNodeID)
	}

	if err := im.opts.resources.AcquireStage(ctx); err != nil {
		return nil, translateError(err)
	}
	defer im.opts.resources.ReleaseStage()

	capacity := maxNodeID + 1
	var cacheOpts []groupcache.Option
	if im.opts.resources != nil {
		cacheOpts = append(cacheOpts, groupcache.WithMemoryAcquirer(im.opts.resources))
	}
	cache, err := groupcache.New(capacity, cacheOpts...)
	size, _ := conv.MulUint64(capacity, record.GroupSize)
	im.opts.logger.LogCacheAllocated(ctx, capacity, size, err)
	if err != nil {
		return nil, translateError(err)
	}

	stage := im.newStage(StageGroups, im.cfg)
	feeder, err := staging.NewFeeder[record.Group](stage)
	if err != nil {
		_ = cache.Close()
		return nil, err
	}
	if _, err := NewCacheGroupsStep(stage, feeder, cache); err != nil {
		_ = cache.Close()
		return nil, err
	}

	batchSize := stage.Config().BatchSize
	err = im.runStage(ctx, stage, func(ctx context.Context) error {
		return produce(ctx, func(groups []record.Group) error {
			for len(groups) > 0 {
				n := min(len(groups), batchSize)
				if err := feeder.Offer(ctx, groups[:n:n]); err != nil {
					return err
				}
				groups = groups[n:]
			}
			return nil
		})
	})
	if err != nil {
		_ = cache.Close()
		return nil, err
	}

	cache.Seal()
	return cache, nil
}

func (im *Importer) newStage(name string, cfg staging.Config) *staging.Stage {
	return staging.NewStage(name, cfg,
		staging.WithLogger(im.opts.logger.Logger),
		staging.WithMonitorInterval(im.opts.monitorInterval),
		staging.WithBatchObserver(func(step string, records int, elapsed time.Duration) {
			im.opts.metricsCollector.RecordBatch(name, step, records, elapsed)
		}),
	)
}

// runStage runs stage and reports it to the logger and metrics collector.
// Records are counted at the first step.
func (im *Importer) runStage(ctx context.Context, stage *staging.Stage, produce staging.ProduceFunc) error {
	start := time.Now()
	name := stage.Name()

	im.opts.logger.LogStageStart(ctx, name, len(stage.Stats()))
	runErr := stage.Run(ctx, produce)

	var records uint64
	if stats := stage.Stats(); len(stats) > 0 {
		records = stats[0].Records
	}
	elapsed := time.Since(start)

	var err error
	if runErr != nil {
		err = &StageError{Stage: name, cause: translateError(runErr)}
	}
	im.opts.logger.LogStageDone(ctx, name, records, elapsed, err)
	im.opts.metricsCollector.RecordStage(name, records, elapsed, err)
	return err
}
