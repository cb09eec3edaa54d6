package batchimport

import (
	"context"

	"github.com/hupe1980/batchimport/record"
	"github.com/hupe1980/batchimport/staging"
)

// CacheGroupsStepName is the name of the step that fills the group cache.
const CacheGroupsStepName = "CACHE"

// GroupWriter stores relationship groups. *groupcache.Cache implements it.
type GroupWriter interface {
	Put(g record.Group) error
}

// NewCacheGroupsStep wires a single-worker step that writes every group it
// receives into cache. It forwards nothing downstream.
func NewCacheGroupsStep(
	stage *staging.Stage,
	upstream staging.Upstream[record.Group],
	cache GroupWriter,
) (*staging.ProcessorStep[record.Group, staging.None], error) {
	return staging.AddStep(stage, upstream, CacheGroupsStepName, 1,
		func(_ context.Context, batch staging.Batch[record.Group], _ staging.Sender[staging.None]) error {
			for _, g := range batch.Records {
				if err := cache.Put(g); err != nil {
					return err
				}
			}
			return nil
		})
}
