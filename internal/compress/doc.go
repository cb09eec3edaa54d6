// Package compress frames exported group blocks.
//
// A frame is self-describing:
//
//	[0]      algorithm  uint8
//	[1:5]    raw size   uint32
//	[5:9]    body size  uint32
//	[9:13]   crc32c of the raw bytes
//	[13:]    body
//
// When compression does not pay off (body > 90% of raw) the raw bytes are
// stored with algorithm None.
package compress
