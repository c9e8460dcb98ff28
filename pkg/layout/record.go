package layout

import (
	"encoding/binary"

	"github.com/vango-dev/rendertree/pkg/frame"
)

// Record layout constants.
const (
	// RecordSize is the size of one packed frame in bytes.
	RecordSize = 24

	OffsetSequence = 0
	OffsetKind     = 4
	OffsetFlags    = 5
	OffsetReserved = 6
	OffsetLength   = 8
	OffsetStr      = 12
	OffsetRef      = 16
	OffsetHandle   = 20
)

// Flags describe the attribute value case of a record.
type Flags uint8

const (
	FlagCallback Flags = 0x01 // Ref is a callback handle
	FlagNilValue Flags = 0x02 // Plain value is nil; Ref unused
)

// Has returns true if the flags contain the specified flag.
func (f Flags) Has(flag Flags) bool {
	return f&flag != 0
}

// rawRecord is the decoded form of one record before table lookups.
type rawRecord struct {
	seq    int32
	kind   frame.Kind
	flags  Flags
	length int32
	str    int32
	ref    int32
	handle int32
}

func (r rawRecord) appendTo(buf []byte) []byte {
	le := binary.LittleEndian
	buf = le.AppendUint32(buf, uint32(r.seq))
	buf = append(buf, byte(r.kind), byte(r.flags))
	buf = le.AppendUint16(buf, 0)
	buf = le.AppendUint32(buf, uint32(r.length))
	buf = le.AppendUint32(buf, uint32(r.str))
	buf = le.AppendUint32(buf, uint32(r.ref))
	buf = le.AppendUint32(buf, uint32(r.handle))
	return buf
}

func readRawRecord(b []byte) rawRecord {
	le := binary.LittleEndian
	return rawRecord{
		seq:    int32(le.Uint32(b[OffsetSequence:])),
		kind:   frame.Kind(b[OffsetKind]),
		flags:  Flags(b[OffsetFlags]),
		length: int32(le.Uint32(b[OffsetLength:])),
		str:    int32(le.Uint32(b[OffsetStr:])),
		ref:    int32(le.Uint32(b[OffsetRef:])),
		handle: int32(le.Uint32(b[OffsetHandle:])),
	}
}
