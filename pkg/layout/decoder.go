package layout

import (
	"encoding/binary"
	"io"
)

// decoder reads little-endian fixed-width values from a byte buffer.
type decoder struct {
	buf []byte
	pos int
}

func newDecoder(buf []byte) *decoder {
	return &decoder{buf: buf}
}

// Remaining returns the number of unread bytes.
func (d *decoder) Remaining() int {
	return len(d.buf) - d.pos
}

// ReadBytes reads exactly n bytes. The returned slice references the
// decoder's buffer.
func (d *decoder) ReadBytes(n int) ([]byte, error) {
	if n < 0 || n > d.Remaining() {
		return nil, io.ErrUnexpectedEOF
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

func (d *decoder) ReadUint16() (uint16, error) {
	b, err := d.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (d *decoder) ReadUint32() (uint32, error) {
	b, err := d.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadLenBytes reads uint32-length-prefixed bytes and returns a copy.
// Lengths above max fail with ErrLimitExceeded before any allocation.
func (d *decoder) ReadLenBytes(max int) ([]byte, error) {
	length, err := d.ReadUint32()
	if err != nil {
		return nil, err
	}
	if uint64(length) > uint64(d.Remaining()) {
		return nil, io.ErrUnexpectedEOF
	}
	if uint64(length) > uint64(max) {
		return nil, ErrLimitExceeded
	}
	b := make([]byte, length)
	copy(b, d.buf[d.pos:d.pos+int(length)])
	d.pos += int(length)
	return b, nil
}
