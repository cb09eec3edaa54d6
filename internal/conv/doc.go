// Package conv provides checked integer conversions.
//
// The import pipeline sizes off-heap regions from node counts that arrive as
// uint64 while the mapping APIs take int. Every such conversion goes through
// this package so an impossible size fails loudly instead of wrapping.
package conv
