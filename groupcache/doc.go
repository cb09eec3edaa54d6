// Package groupcache provides the relationship group cache of the grouping phase.
//
// The cache is a flat, node-id addressed array of record.Group slots living in
// one anonymous off-heap mapping. Node ids are dense and bounded by the node
// count known before grouping starts, so direct addressing (index = node id)
// replaces hashing and per-entry heap structures at import-scale record counts.
//
// # Lifecycle
//
//	c, err := groupcache.New(maxNodeID+1, groupcache.WithMemoryAcquirer(rc))
//	// write phase: exactly one goroutine calls Put
//	c.Seal()
//	// read phase: any number of goroutines call Get / Range / Nodes
//	c.Close()
//
// # Concurrency Model
//
// The cache takes no locks. During the write phase a single writer mutates
// slots; readers must not run until the writing stage has completed. Seal marks
// that boundary and rejects further writes. This is enforced by run sequencing
// in the importer, not by the cache.
//
// # Presence
//
// Whether a node has a resident group is tracked in a parallel bitset rather
// than through nullable references, keeping the slot array free of pointers.
package groupcache
