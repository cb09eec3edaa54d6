package compress

import (
	"bytes"
	"encoding/binary"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	compressible := bytes.Repeat([]byte("relationship-group"), 512)

	random := make([]byte, 4096)
	rand.New(rand.NewSource(1)).Read(random)

	tests := []struct {
		name   string
		data   []byte
		algo   Algorithm
		stored Algorithm
	}{
		{"lz4 compressible", compressible, LZ4, LZ4},
		{"zstd compressible", compressible, ZSTD, ZSTD},
		{"none", compressible, None, None},
		{"lz4 random falls back", random, LZ4, None},
		{"zstd random falls back", random, ZSTD, None},
		{"empty", nil, LZ4, None},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := Encode(tt.data, tt.algo)
			require.NoError(t, err)
			assert.Equal(t, tt.stored, Algorithm(frame[0]))

			got, err := Decode(frame)
			require.NoError(t, err)
			assert.Equal(t, len(tt.data), len(got))
			assert.True(t, bytes.Equal(tt.data, got))
		})
	}
}

func TestDecode_Corrupt(t *testing.T) {
	frame, err := Encode(bytes.Repeat([]byte{1, 2, 3, 4}, 256), LZ4)
	require.NoError(t, err)

	_, err = Decode(frame[:5])
	assert.ErrorIs(t, err, ErrCorrupt)

	_, err = Decode(frame[:len(frame)-1])
	assert.ErrorIs(t, err, ErrCorrupt)

	flipped := bytes.Clone(frame)
	flipped[9] ^= 0xFF // checksum
	_, err = Decode(flipped)
	assert.ErrorIs(t, err, ErrCorrupt)

	unknown := bytes.Clone(frame)
	unknown[0] = 9
	_, err = Decode(unknown)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestEncode_UnknownAlgorithm(t *testing.T) {
	_, err := Encode([]byte("x"), Algorithm(7))
	assert.Error(t, err)
}

func TestAlgorithm_String(t *testing.T) {
	assert.Equal(t, "lz4", LZ4.String())
	assert.Equal(t, "zstd", ZSTD.String())
	assert.Equal(t, "none", None.String())
	assert.Equal(t, "algorithm(5)", Algorithm(5).String())
}

func TestDecode_OversizedHeader(t *testing.T) {
	data := bytes.Repeat([]byte("group"), 200)

	for _, algo := range []Algorithm{LZ4, ZSTD} {
		t.Run(algo.String(), func(t *testing.T) {
			frame, err := Encode(data, algo)
			require.NoError(t, err)
			require.Equal(t, algo, Algorithm(frame[0]))

			for _, rawSize := range []uint32{MaxBlockSize + 1, math.MaxUint32, MaxBlockSize - 1} {
				forged := bytes.Clone(frame)
				binary.LittleEndian.PutUint32(forged[1:], rawSize)

				_, err := Decode(forged)
				assert.ErrorIs(t, err, ErrCorrupt, "raw size %d", rawSize)
			}
		})
	}
}
