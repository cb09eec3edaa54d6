package groupcache

import (
	"sync/atomic"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/bits-and-blooms/bitset"

	"github.com/hupe1980/batchimport/internal/conv"
	"github.com/hupe1980/batchimport/internal/mmap"
	"github.com/hupe1980/batchimport/record"
)

// MemoryAcquirer reserves and releases memory against a budget.
// *resource.Controller implements it.
type MemoryAcquirer interface {
	AcquireMemory(bytes int64) error
	ReleaseMemory(bytes int64)
}

// Option configures a Cache.
type Option func(*Cache)

// WithMemoryAcquirer charges the cache's backing store to acquirer.
func WithMemoryAcquirer(acquirer MemoryAcquirer) Option {
	return func(c *Cache) {
		c.acquirer = acquirer
	}
}

// Cache is a fixed-capacity relationship group cache keyed by node id.
type Cache struct {
	capacity uint64
	slots    []byte
	mapping  *mmap.Mapping
	present  *bitset.BitSet
	resident atomic.Uint64
	reserved int64
	acquirer MemoryAcquirer
	sealed   atomic.Bool
	closed   atomic.Bool
}

// New allocates a cache for node ids [0, capacity).
func New(capacity uint64, opts ...Option) (*Cache, error) {
	if capacity == 0 {
		return nil, ErrInvalidCapacity
	}

	c := &Cache{capacity: capacity}
	for _, opt := range opts {
		opt(c)
	}

	size, err := conv.MulUint64(capacity, record.GroupSize)
	if err != nil {
		return nil, &AllocationError{Capacity: capacity, cause: err}
	}
	mapSize, err := conv.Uint64ToInt(size)
	if err != nil {
		return nil, &AllocationError{Capacity: capacity, Bytes: size, cause: err}
	}
	presence, err := conv.Uint64ToInt(capacity)
	if err != nil {
		return nil, &AllocationError{Capacity: capacity, Bytes: size, cause: err}
	}

	// Presence bits live on the heap; charge them with the slots.
	reserved := int64(mapSize) + int64(presence/8)
	if c.acquirer != nil {
		if err := c.acquirer.AcquireMemory(reserved); err != nil {
			return nil, &AllocationError{Capacity: capacity, Bytes: size, cause: err}
		}
		c.reserved = reserved
	}

	mapping, err := mmap.MapAnon(mapSize)
	if err != nil {
		c.release()
		return nil, &AllocationError{Capacity: capacity, Bytes: size, cause: err}
	}
	// Puts land wherever the node ids of the current batch point.
	_ = mapping.Advise(mmap.AccessRandom)

	c.mapping = mapping
	c.slots = mapping.Bytes()
	c.present = bitset.New(uint(presence))
	return c, nil
}

// Put stores g at index g.OwningNode, overwriting any previous group of that node.
// Only one goroutine may call Put, and never concurrently with readers.
func (c *Cache) Put(g record.Group) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if c.sealed.Load() {
		return ErrSealed
	}
	if g.OwningNode >= c.capacity {
		return &CapacityError{NodeID: g.OwningNode, Capacity: c.capacity}
	}

	off := g.OwningNode * record.GroupSize
	record.PutGroup(c.slots[off:off+record.GroupSize], g)

	idx := uint(g.OwningNode)
	if !c.present.Test(idx) {
		c.present.Set(idx)
		c.resident.Add(1)
	}
	return nil
}

// Get returns the group stored for nodeID. ok is false if no group was written,
// if nodeID is beyond capacity, or if the cache was closed.
func (c *Cache) Get(nodeID uint64) (g record.Group, ok bool) {
	if nodeID >= c.capacity || c.closed.Load() {
		return record.Group{}, false
	}
	if !c.present.Test(uint(nodeID)) {
		return record.Group{}, false
	}
	off := nodeID * record.GroupSize
	return record.GroupAt(c.slots[off : off+record.GroupSize])
}

// Range calls fn for every resident group in ascending node id order until fn
// returns false.
func (c *Cache) Range(fn func(g record.Group) bool) {
	if c.closed.Load() {
		return
	}
	for i, ok := c.present.NextSet(0); ok; i, ok = c.present.NextSet(i + 1) {
		off := uint64(i) * record.GroupSize
		g, _ := record.GroupAt(c.slots[off : off+record.GroupSize])
		if !fn(g) {
			return
		}
	}
}

// Nodes returns the set of node ids that have a resident group.
func (c *Cache) Nodes() *roaring64.Bitmap {
	nodes := roaring64.New()
	if c.closed.Load() {
		return nodes
	}
	for i, ok := c.present.NextSet(0); ok; i, ok = c.present.NextSet(i + 1) {
		nodes.Add(uint64(i))
	}
	nodes.RunOptimize()
	return nodes
}

// Len returns the number of nodes with a resident group.
func (c *Cache) Len() uint64 {
	return c.resident.Load()
}

// Capacity returns the number of addressable node ids.
func (c *Cache) Capacity() uint64 {
	return c.capacity
}

// Seal ends the write phase. Subsequent Puts fail with ErrSealed.
func (c *Cache) Seal() {
	c.sealed.Store(true)
}

// Sealed reports whether Seal was called.
func (c *Cache) Sealed() bool {
	return c.sealed.Load()
}

// Close unmaps the backing store and returns its memory to the budget.
// It is idempotent.
func (c *Cache) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	err := c.mapping.Close()
	c.slots = nil
	c.release()
	return err
}

func (c *Cache) release() {
	if c.acquirer != nil && c.reserved > 0 {
		c.acquirer.ReleaseMemory(c.reserved)
		c.reserved = 0
	}
}
