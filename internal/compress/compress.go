package compress

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/hupe1980/batchimport/internal/hash"
)

// Algorithm selects the block compression.
type Algorithm uint8

const (
	// None stores blocks uncompressed.
	None Algorithm = 0
	// LZ4 is fast block compression, the default for exports.
	LZ4 Algorithm = 1
	// ZSTD trades speed for a better ratio.
	ZSTD Algorithm = 2
)

// String implements fmt.Stringer.
func (a Algorithm) String() string {
	switch a {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case ZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("algorithm(%d)", uint8(a))
	}
}

const headerSize = 13

// MaxBlockSize is the largest raw block a frame may carry.
const MaxBlockSize = 1 << 30

// maxLZ4Ratio bounds LZ4 block expansion: one input byte decodes to at most
// 255 output bytes.
const maxLZ4Ratio = 255

var (
	// ErrCorrupt is returned for frames that fail validation.
	ErrCorrupt = errors.New("compress: corrupt frame")
	// ErrTooLarge is returned for inputs that do not fit a frame.
	ErrTooLarge = errors.New("compress: block too large")
)

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault), zstd.WithEncoderConcurrency(1))
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	// Only DecodeAll is used; one decoder per pooled instance.
	return zstd.NewReader(nil, zstd.WithDecoderConcurrency(1), zstd.WithDecoderMaxMemory(MaxBlockSize))
}

// Encode frames data using algo.
func Encode(data []byte, algo Algorithm) ([]byte, error) {
	if len(data) > MaxBlockSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, len(data))
	}

	var body []byte
	switch algo {
	case None:
	case LZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, err
		}
		body = buf[:n] // n == 0: incompressible
	case ZSTD:
		enc, err := getZstdEncoder()
		if err != nil {
			return nil, err
		}
		body = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, fmt.Errorf("compress: unknown algorithm %d", algo)
	}

	if len(body) == 0 || float64(len(body)) > float64(len(data))*0.9 {
		algo, body = None, data
	}

	frame := make([]byte, headerSize+len(body))
	frame[0] = byte(algo)
	binary.LittleEndian.PutUint32(frame[1:], uint32(len(data)))
	binary.LittleEndian.PutUint32(frame[5:], uint32(len(body)))
	binary.LittleEndian.PutUint32(frame[9:], hash.CRC32C(data))
	copy(frame[headerSize:], body)
	return frame, nil
}

// Decode validates a frame and returns the raw bytes.
func Decode(frame []byte) ([]byte, error) {
	if len(frame) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrCorrupt, len(frame))
	}

	algo := Algorithm(frame[0])
	rawSize := binary.LittleEndian.Uint32(frame[1:])
	bodySize := binary.LittleEndian.Uint32(frame[5:])
	sum := binary.LittleEndian.Uint32(frame[9:])

	if uint64(len(frame)) != headerSize+uint64(bodySize) {
		return nil, fmt.Errorf("%w: body size %d, have %d bytes", ErrCorrupt, bodySize, len(frame)-headerSize)
	}
	// The header is not covered by the checksum; bound it before allocating.
	if rawSize > MaxBlockSize {
		return nil, fmt.Errorf("%w: raw size %d exceeds %d", ErrCorrupt, rawSize, MaxBlockSize)
	}
	body := frame[headerSize:]

	var raw []byte
	switch algo {
	case None:
		if bodySize != rawSize {
			return nil, fmt.Errorf("%w: stored block size mismatch", ErrCorrupt)
		}
		raw = body
	case LZ4:
		if uint64(rawSize) > uint64(bodySize)*maxLZ4Ratio {
			return nil, fmt.Errorf("%w: raw size %d impossible for %d byte body", ErrCorrupt, rawSize, bodySize)
		}
		raw = make([]byte, rawSize)
		n, err := lz4.UncompressBlock(body, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if uint32(n) != rawSize {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
	case ZSTD:
		dec, err := getZstdDecoder()
		if err != nil {
			return nil, err
		}
		// The decoder grows the buffer as content is produced.
		raw, err = dec.DecodeAll(body, make([]byte, 0, min(uint64(rawSize), 4*uint64(bodySize))))
		zstdDecoderPool.Put(dec)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if uint32(len(raw)) != rawSize {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
	default:
		return nil, fmt.Errorf("%w: unknown algorithm %d", ErrCorrupt, algo)
	}

	if hash.CRC32C(raw) != sum {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}
	return raw, nil
}
