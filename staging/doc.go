// Package staging implements the staged, parallel batch pipeline used by the
// importer.
//
// A Stage is an ordered chain of steps connected by bounded queues. Records
// enter through a Feeder, travel in Batches, and are transformed by
// ProcessorSteps, each of which owns its own pool of worker goroutines.
//
// # Flow control
//
// Every pair of adjacent steps shares one buffered channel of
// Config.QueueCapacity batches. A worker sending into a full queue blocks until
// the consumer catches up; this is the only flow-control mechanism and no
// batch is ever dropped.
//
// # Failure and cancellation
//
// Each run owns one Control. The first error (or panic) raised by any worker
// is latched as the run's failure cause and halts the stage: workers stop
// pulling new batches, blocked sends and receives wake up, and Wait returns
// that single cause. A worker that is in the middle of a batch finishes it
// before it observes the halt, so halt latency is bounded by one batch.
//
// # Ordering
//
// Batches carry the sequence number assigned by the Feeder. A step with one
// worker preserves submission order; with more workers batches may complete
// out of order and are not re-sequenced.
//
// # Usage
//
//	stage := staging.NewStage("GROUPS", staging.DefaultConfig())
//	feeder, _ := staging.NewFeeder[record.Group](stage)
//	_, _ = staging.AddStep(stage, feeder, "CACHE", 1,
//	    func(ctx context.Context, b staging.Batch[record.Group], _ staging.Sender[staging.None]) error {
//	        for _, g := range b.Records {
//	            if err := cache.Put(g); err != nil {
//	                return err
//	            }
//	        }
//	        return nil
//	    })
//
//	err := stage.Run(ctx, func(ctx context.Context) error {
//	    return feeder.Offer(ctx, groups)
//	})
package staging
