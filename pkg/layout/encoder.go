package layout

import "encoding/binary"

// encoder appends little-endian fixed-width values to an internal buffer.
type encoder struct {
	buf []byte
}

func newEncoder(capacity int) *encoder {
	return &encoder{buf: make([]byte, 0, capacity)}
}

// Bytes returns the encoded bytes.
func (e *encoder) Bytes() []byte {
	return e.buf
}

func (e *encoder) WriteBytes(b []byte) {
	e.buf = append(e.buf, b...)
}

func (e *encoder) WriteUint16(v uint16) {
	e.buf = binary.LittleEndian.AppendUint16(e.buf, v)
}

func (e *encoder) WriteUint32(v uint32) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
}

// WriteLenBytes appends bytes prefixed with a uint32 length.
func (e *encoder) WriteLenBytes(b []byte) {
	e.WriteUint32(uint32(len(b)))
	e.buf = append(e.buf, b...)
}

// WriteString appends a string prefixed with a uint32 length.
func (e *encoder) WriteString(s string) {
	e.WriteUint32(uint32(len(s)))
	e.buf = append(e.buf, s...)
}
