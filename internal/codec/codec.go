// Package codec implements the on-disk transaction record format:
// serializing an in-memory transaction to the byte-exact layout in
// SPEC_FULL §6, and parsing it back from a memory-mapped journal
// file. The checksum itself lives in checksum.go.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Sizes of the fixed portions of the on-disk layout, per §6.
const (
	HeaderSize   = 12 // id(4) + flags(4) + numops(4)
	OpHeaderSize = 16 // len(4) + plen(4) + offset(8)
	TrailerSize  = 4  // checksum(4)
)

// Flags records transaction state, persisted in the on-disk header's
// flags field as well as held in memory (§3's Transaction attributes;
// "Supplemented features" in SPEC_FULL.md — the original C
// implementation persists these bits too, and fsck relies on being
// able to clear them unconditionally before re-applying).
type Flags uint32

const (
	FlagCommitted Flags = 1 << iota
	FlagRolledBack
	FlagRollingBack
	FlagReadOnly
	FlagNoLock
	FlagLinger
)

// Has reports whether all bits in want are set.
func (f Flags) Has(want Flags) bool { return f&want == want }

// ErrMalformed is returned by Decode when the record is shorter than
// the fixed header plus trailer, when any length field would read past
// the end of the mapped bytes, or when bytes are left over between the
// last operation and the trailer. Decode deliberately does not check the checksum —
// that is the recovery engine's job, since a malformed record and a
// corrupt-but-well-shaped one are classified differently (§4.6).
var ErrMalformed = errors.New("codec: malformed transaction record")

// Op is one serialized operation: its absolute offset in the data
// file, its new payload, and its captured pre-image (which may be
// shorter than the payload when the write extends the file, per
// §4.5's short-read/extension policy).
type Op struct {
	Offset   uint64
	Payload  []byte
	PreImage []byte
}

// Record is the full in-memory representation of one transaction
// file: the fixed header plus its ordered operations.
type Record struct {
	ID    uint32
	Flags Flags
	Ops   []Op
}

// EncodedLen returns the exact byte length Encode will produce for r,
// letting callers preflight the platform ssize_t-sized limit the
// spec requires (§4.5 "Numeric semantics").
func EncodedLen(r *Record) int64 {
	n := int64(HeaderSize)
	for _, op := range r.Ops {
		n += int64(OpHeaderSize) + int64(len(op.Payload)) + int64(len(op.PreImage))
	}
	return n + TrailerSize
}

// Encode serializes r into the byte-exact on-disk layout, including
// the trailing checksum computed over every preceding byte.
func Encode(r *Record) []byte {
	buf := make([]byte, EncodedLen(r))

	binary.LittleEndian.PutUint32(buf[0:4], r.ID)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(r.Flags))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(len(r.Ops)))

	pos := HeaderSize
	for _, op := range r.Ops {
		binary.LittleEndian.PutUint32(buf[pos:pos+4], uint32(len(op.Payload)))
		binary.LittleEndian.PutUint32(buf[pos+4:pos+8], uint32(len(op.PreImage)))
		binary.LittleEndian.PutUint64(buf[pos+8:pos+16], op.Offset)
		pos += OpHeaderSize

		copy(buf[pos:], op.Payload)
		pos += len(op.Payload)

		copy(buf[pos:], op.PreImage)
		pos += len(op.PreImage)
	}

	csum := Checksum(buf[:pos])
	binary.LittleEndian.PutUint32(buf[pos:pos+4], csum)

	return buf
}

// Decode parses a memory-mapped (or otherwise fully-read) journal
// file into a Record. It reports ErrMalformed if the map is shorter
// than the fixed header plus trailer, if any declared operation length
// would read past the end of the map, or if the operations do not end
// exactly at the trailer. A zero-length pre-image decodes as nil. It
// does not verify the checksum.
func Decode(m []byte) (*Record, error) {
	if len(m) < HeaderSize+TrailerSize {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrMalformed, len(m), HeaderSize+TrailerSize)
	}

	r := &Record{
		ID:    binary.LittleEndian.Uint32(m[0:4]),
		Flags: Flags(binary.LittleEndian.Uint32(m[4:8])),
	}
	numops := binary.LittleEndian.Uint32(m[8:12])

	pos := HeaderSize
	end := len(m) - TrailerSize
	for i := uint32(0); i < numops; i++ {
		if pos+OpHeaderSize > end {
			return nil, fmt.Errorf("%w: op %d header past end", ErrMalformed, i)
		}
		length := binary.LittleEndian.Uint32(m[pos : pos+4])
		plen := binary.LittleEndian.Uint32(m[pos+4 : pos+8])
		offset := binary.LittleEndian.Uint64(m[pos+8 : pos+16])
		pos += OpHeaderSize

		if pos+int(length) > end {
			return nil, fmt.Errorf("%w: op %d payload past end", ErrMalformed, i)
		}
		payload := m[pos : pos+int(length)]
		pos += int(length)

		if pos+int(plen) > end {
			return nil, fmt.Errorf("%w: op %d pre-image past end", ErrMalformed, i)
		}
		var preimage []byte
		if plen > 0 {
			preimage = m[pos : pos+int(plen)]
		}
		pos += int(plen)

		r.Ops = append(r.Ops, Op{Offset: offset, Payload: payload, PreImage: preimage})
	}

	if pos != end {
		return nil, fmt.Errorf("%w: %d trailing bytes before checksum", ErrMalformed, end-pos)
	}

	return r, nil
}

// TrailerChecksum reads the trailing 4-byte checksum field out of a
// fully-serialized record.
func TrailerChecksum(m []byte) (uint32, bool) {
	if len(m) < TrailerSize {
		return 0, false
	}
	return binary.LittleEndian.Uint32(m[len(m)-TrailerSize:]), true
}
