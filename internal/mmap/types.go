package mmap

import "errors"

// AccessPattern is a paging hint for a mapping.
type AccessPattern int

const (
	// AccessDefault leaves paging to the kernel.
	AccessDefault AccessPattern = iota
	// AccessSequential favours readahead, e.g. for node-order scans.
	AccessSequential
	// AccessRandom disables readahead for scattered node id access.
	AccessRandom
)

var (
	// ErrClosed is returned by operations on an unmapped region.
	ErrClosed = errors.New("mmap: mapping is closed")
	// ErrInvalidSize is returned for a non-positive mapping size.
	ErrInvalidSize = errors.New("mmap: invalid size")
)
