package batchimport

import (
	"context"
	"fmt"
	"path"
	"sort"
	"time"

	"github.com/hupe1980/batchimport/blobstore"
	"github.com/hupe1980/batchimport/groupcache"
	"github.com/hupe1980/batchimport/internal/compress"
	"github.com/hupe1980/batchimport/record"
	"github.com/hupe1980/batchimport/staging"
)

// Export step names.
const (
	EncodeStepName = "ENCODE"
	WriteStepName  = "WRITE"
)

// ExportResult describes a finished export.
type ExportResult struct {
	// Blobs holds the written blob names in node id order.
	Blobs []string
	// Groups is the number of exported groups.
	Groups uint64
	// Bytes is the stored size of all blobs.
	Bytes int64
	// RawBytes is the size of all blocks before compression.
	RawBytes int64
	Duration time.Duration
}

type groupBlock struct {
	name   string
	data   []byte
	groups int
	raw    int
}

// BlockName returns the blob name of the export block with sequence number seq.
func BlockName(prefix string, seq uint64) string {
	return path.Join(prefix, fmt.Sprintf("groups-%08d.blk", seq))
}

// ExportGroups writes the resident groups of a sealed cache to store in stage
// EXPORT. Groups are read in node id order, cut into batches of
// Config.BatchSize, encoded and compressed in parallel and written by a
// single, rate limited worker.
func (im *Importer) ExportGroups(ctx context.Context, cache *groupcache.Cache, store blobstore.Store) (ExportResult, error) {
	start := time.Now()
	if !cache.Sealed() {
		return ExportResult{}, ErrCacheNotSealed
	}

	if err := im.opts.resources.AcquireStage(ctx); err != nil {
		return ExportResult{}, translateError(err)
	}
	defer im.opts.resources.ReleaseStage()

	stage := im.newStage(StageExport, im.cfg)
	feeder, err := staging.NewFeeder[record.Group](stage)
	if err != nil {
		return ExportResult{}, err
	}

	prefix := im.opts.exportPrefix
	algo := im.opts.compression.algorithm()

	encode, err := staging.AddStep(stage, feeder, EncodeStepName, im.opts.exportWorkers,
		func(_ context.Context, batch staging.Batch[record.Group], send staging.Sender[groupBlock]) error {
			raw := record.AppendGroups(make([]byte, 0, batch.Len()*record.GroupSize), batch.Records)
			frame, err := compress.Encode(raw, algo)
			if err != nil {
				return err
			}
			block := groupBlock{
				name:   BlockName(prefix, batch.Seq),
				data:   frame,
				groups: batch.Len(),
				raw:    len(raw),
			}
			return send(staging.Derive(batch, []groupBlock{block}))
		})
	if err != nil {
		return ExportResult{}, err
	}

	res := ExportResult{}
	_, err = staging.AddStep(stage, encode, WriteStepName, 1,
		func(ctx context.Context, batch staging.Batch[groupBlock], _ staging.Sender[staging.None]) error {
			for _, block := range batch.Records {
				if err := im.opts.resources.AcquireIO(ctx, len(block.data)); err != nil {
					return err
				}
				if err := store.Put(ctx, block.name, block.data); err != nil {
					return fmt.Errorf("put %s: %w", block.name, err)
				}
				res.Blobs = append(res.Blobs, block.name)
				res.Groups += uint64(block.groups)
				res.Bytes += int64(len(block.data))
				res.RawBytes += int64(block.raw)
			}
			return nil
		})
	if err != nil {
		return ExportResult{}, err
	}

	batchSize := stage.Config().BatchSize
	err = im.runStage(ctx, stage, func(ctx context.Context) error {
		var (
			buf      = make([]record.Group, 0, batchSize)
			offerErr error
		)
		cache.Range(func(g record.Group) bool {
			buf = append(buf, g)
			if len(buf) == batchSize {
				offerErr = feeder.Offer(ctx, buf)
				buf = make([]record.Group, 0, batchSize)
			}
			return offerErr == nil
		})
		if offerErr != nil {
			return offerErr
		}
		return feeder.Offer(ctx, buf)
	})

	res.Duration = time.Since(start)
	im.opts.logger.LogExport(ctx, len(res.Blobs), res.Bytes, err)
	im.opts.metricsCollector.RecordExport(len(res.Blobs), res.Bytes, res.Duration, err)
	if err != nil {
		return ExportResult{}, err
	}

	// Zero padded sequence numbers sort in submission order.
	sort.Strings(res.Blobs)
	return res, nil
}

// ReadGroupBlock reads and decodes one exported block.
func ReadGroupBlock(ctx context.Context, store blobstore.Store, name string) ([]record.Group, error) {
	frame, err := store.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	raw, err := compress.Decode(frame)
	if err != nil {
		return nil, fmt.Errorf("block %s: %w", name, err)
	}
	return record.DecodeGroups(raw)
}
