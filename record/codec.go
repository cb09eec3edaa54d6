package record

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// GroupSize is the encoded size of a Group slot in bytes.
//
// Layout (little endian):
//
//	[0]      flags   uint8 (bit 0: in use)
//	[1:4]    padding
//	[4:8]    type    uint32
//	[8:16]   id      int64
//	[16:24]  node    uint64
//	[24:32]  next    int64
//	[32:56]  first   3 x int64
//	[56:80]  last    3 x int64
const GroupSize = 80

const flagInUse = 1

// ErrShortBuffer is returned when a buffer cannot hold the encoded records.
var ErrShortBuffer = errors.New("record: short buffer")

// PutGroup encodes g into dst, which must be at least GroupSize bytes.
func PutGroup(dst []byte, g Group) {
	_ = dst[GroupSize-1]
	dst[0] = flagInUse
	dst[1], dst[2], dst[3] = 0, 0, 0
	binary.LittleEndian.PutUint32(dst[4:], g.Type)
	binary.LittleEndian.PutUint64(dst[8:], uint64(g.ID))
	binary.LittleEndian.PutUint64(dst[16:], g.OwningNode)
	binary.LittleEndian.PutUint64(dst[24:], uint64(g.Next))
	for d := range numDirections {
		binary.LittleEndian.PutUint64(dst[32+8*d:], uint64(g.First[d]))
		binary.LittleEndian.PutUint64(dst[56+8*d:], uint64(g.Last[d]))
	}
}

// GroupAt decodes the slot at src. ok is false if the slot was never written.
func GroupAt(src []byte) (g Group, ok bool) {
	_ = src[GroupSize-1]
	if src[0]&flagInUse == 0 {
		return Group{}, false
	}
	g.Type = binary.LittleEndian.Uint32(src[4:])
	g.ID = int64(binary.LittleEndian.Uint64(src[8:]))
	g.OwningNode = binary.LittleEndian.Uint64(src[16:])
	g.Next = int64(binary.LittleEndian.Uint64(src[24:]))
	for d := range numDirections {
		g.First[d] = int64(binary.LittleEndian.Uint64(src[32+8*d:]))
		g.Last[d] = int64(binary.LittleEndian.Uint64(src[56+8*d:]))
	}
	return g, true
}

// AppendGroups appends the slot encoding of groups to dst.
func AppendGroups(dst []byte, groups []Group) []byte {
	off := len(dst)
	dst = append(dst, make([]byte, len(groups)*GroupSize)...)
	for _, g := range groups {
		PutGroup(dst[off:], g)
		off += GroupSize
	}
	return dst
}

// DecodeGroups decodes a buffer of consecutive slots written by AppendGroups.
func DecodeGroups(src []byte) ([]Group, error) {
	if len(src)%GroupSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of %d", ErrShortBuffer, len(src), GroupSize)
	}
	groups := make([]Group, 0, len(src)/GroupSize)
	for off := 0; off < len(src); off += GroupSize {
		g, ok := GroupAt(src[off:])
		if !ok {
			return nil, fmt.Errorf("record: unused slot at offset %d", off)
		}
		groups = append(groups, g)
	}
	return groups, nil
}
