// Package hash provides the checksum used for exported group blocks.
//
// All checksums use CRC32-Castagnoli (CRC32C), which is hardware accelerated
// on x86 (SSE4.2) and ARM and is the checksum S3 accepts natively, so the same
// value protects a block at rest and in flight.
package hash
