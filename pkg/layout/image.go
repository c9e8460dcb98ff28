package layout

import (
	stderrors "errors"
	"io"

	"github.com/vango-dev/rendertree/internal/errors"
	"github.com/vango-dev/rendertree/pkg/frame"
)

// Image format constants.
const (
	// Magic identifies an encoded image.
	Magic = "RTFR"

	// Version is the current image format version.
	Version = 1

	// HeaderSize is the size of the encoded image header in bytes.
	HeaderSize = 20
)

// Default limits.
const (
	DefaultMaxFrames      = 1 << 20
	DefaultMaxStringBytes = 16 * 1024 * 1024
)

// Layout errors. Returned errors match these with errors.Is.
var (
	ErrTruncated     error = errors.New("F201")
	ErrUnsupported   error = errors.New("F202")
	ErrLimitExceeded error = errors.New("F203")
	ErrBadReference  error = errors.New("F204")
	ErrUnpackable    error = errors.New("F205")
	ErrKindMismatch  error = errors.New("F206")
	ErrNoHandle      error = errors.New("F207")
)

// Limits bound the size of images produced by Pack and accepted by Decode.
type Limits struct {
	// MaxFrames is the maximum number of records.
	MaxFrames int

	// MaxStringBytes is the maximum total size of the string table and
	// value heap.
	MaxStringBytes int
}

// DefaultLimits returns the default limits.
func DefaultLimits() *Limits {
	return &Limits{
		MaxFrames:      DefaultMaxFrames,
		MaxStringBytes: DefaultMaxStringBytes,
	}
}

func (l *Limits) orDefault() *Limits {
	if l == nil {
		return DefaultLimits()
	}
	out := *l
	if out.MaxFrames <= 0 {
		out.MaxFrames = DefaultMaxFrames
	}
	if out.MaxStringBytes <= 0 {
		out.MaxStringBytes = DefaultMaxStringBytes
	}
	return &out
}

// Image is a packed frame sequence.
type Image struct {
	// Records holds len/RecordSize fixed-width records.
	Records []byte

	// Strings is the string table referenced by the Str field.
	Strings []string

	// Values holds msgpack-encoded plain attribute values.
	Values [][]byte

	// Handles holds callbacks and component instances, 1-based. It is
	// not encoded by Bytes and is nil for decoded images.
	Handles []any
}

// Len returns the number of records.
func (img *Image) Len() int {
	return len(img.Records) / RecordSize
}

// Bytes encodes the image, excluding handles.
func (img *Image) Bytes() []byte {
	size := HeaderSize + len(img.Records)
	for _, s := range img.Strings {
		size += 4 + len(s)
	}
	for _, v := range img.Values {
		size += 4 + len(v)
	}

	e := newEncoder(size)
	e.WriteBytes([]byte(Magic))
	e.WriteUint16(Version)
	e.WriteUint16(RecordSize)
	e.WriteUint32(uint32(img.Len()))
	e.WriteUint32(uint32(len(img.Strings)))
	e.WriteUint32(uint32(len(img.Values)))
	for _, s := range img.Strings {
		e.WriteString(s)
	}
	for _, v := range img.Values {
		e.WriteLenBytes(v)
	}
	e.WriteBytes(img.Records)
	return e.Bytes()
}

// Decode parses an encoded image and checks every record against the
// string table and value heap.
func Decode(data []byte, limits *Limits) (*Image, error) {
	limits = limits.orDefault()
	d := newDecoder(data)

	magic, err := d.ReadBytes(len(Magic))
	if err != nil {
		return nil, truncated(err)
	}
	if string(magic) != Magic {
		return nil, errors.New("F202").WithDetailf("bad magic %q", magic)
	}
	version, err := d.ReadUint16()
	if err != nil {
		return nil, truncated(err)
	}
	recordSize, err := d.ReadUint16()
	if err != nil {
		return nil, truncated(err)
	}
	if version != Version || recordSize != RecordSize {
		return nil, errors.New("F202").WithDetailf("version %d, record size %d", version, recordSize)
	}

	var counts [3]uint32
	for i := range counts {
		if counts[i], err = d.ReadUint32(); err != nil {
			return nil, truncated(err)
		}
	}
	records, strings, values := counts[0], counts[1], counts[2]
	if uint64(records) > uint64(limits.MaxFrames) {
		return nil, errors.New("F203").WithDetailf("%d records, limit %d", records, limits.MaxFrames)
	}
	// Every table entry needs at least its 4-byte length prefix.
	if uint64(strings)+uint64(values) > uint64(d.Remaining()/4) {
		return nil, truncated(io.ErrUnexpectedEOF)
	}

	img := &Image{
		Strings: make([]string, 0, strings),
		Values:  make([][]byte, 0, values),
	}
	budget := limits.MaxStringBytes
	for i := uint32(0); i < strings; i++ {
		b, err := d.ReadLenBytes(budget)
		if err != nil {
			return nil, tableError(err)
		}
		budget -= len(b)
		img.Strings = append(img.Strings, string(b))
	}
	for i := uint32(0); i < values; i++ {
		b, err := d.ReadLenBytes(budget)
		if err != nil {
			return nil, tableError(err)
		}
		budget -= len(b)
		img.Values = append(img.Values, b)
	}

	recs, err := d.ReadBytes(int(records) * RecordSize)
	if err != nil {
		return nil, truncated(err)
	}
	if d.Remaining() != 0 {
		return nil, errors.New("F202").WithDetailf("%d trailing bytes", d.Remaining())
	}
	img.Records = make([]byte, len(recs))
	copy(img.Records, recs)

	for i := 0; i < img.Len(); i++ {
		if err := img.check(i); err != nil {
			return nil, err
		}
	}
	return img, nil
}

// check validates the table references of record i.
func (img *Image) check(i int) error {
	r := readRawRecord(img.Records[i*RecordSize:])
	inStrings := r.str >= 0 && int(r.str) < len(img.Strings)

	switch r.kind {
	case frame.KindElement, frame.KindText:
		if !inStrings {
			return badReference(i, "string", r.str)
		}
	case frame.KindAttribute:
		if !inStrings {
			return badReference(i, "string", r.str)
		}
		switch {
		case r.flags.Has(FlagCallback):
			if r.ref < 1 || (img.Handles != nil && int(r.ref) > len(img.Handles)) {
				return badReference(i, "handle", r.ref)
			}
		case r.flags.Has(FlagNilValue):
		default:
			if r.ref < 0 || int(r.ref) >= len(img.Values) {
				return badReference(i, "value", r.ref)
			}
		}
	case frame.KindComponent:
		if !inStrings {
			return badReference(i, "string", r.str)
		}
		if r.handle < 0 || (img.Handles != nil && int(r.handle) > len(img.Handles)) {
			return badReference(i, "handle", r.handle)
		}
	default:
		return errors.New("F202").WithDetailf("record %d has kind %d", i, r.kind)
	}
	if r.kind.IsContainer() && (r.length < 0 || i+int(r.length) > img.Len()) {
		return badReference(i, "subtree length", r.length)
	}
	return nil
}

func truncated(err error) error {
	return errors.New("F201").Wrap(err)
}

func tableError(err error) error {
	if stderrors.Is(err, ErrLimitExceeded) {
		return errors.New("F203").WithDetail("string table and value heap exceed limit")
	}
	return truncated(err)
}

func badReference(i int, table string, ref int32) error {
	return errors.New("F204").WithDetailf("record %d: %s reference %d", i, table, ref)
}
