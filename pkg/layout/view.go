package layout

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/vango-dev/rendertree/internal/errors"
	"github.com/vango-dev/rendertree/pkg/frame"
)

// View reads records from an image through kind-checked accessors.
type View struct {
	img *Image
}

// NewView returns a View over img.
func NewView(img *Image) *View {
	return &View{img: img}
}

// Len returns the number of records.
func (v *View) Len() int {
	return v.img.Len()
}

// Record returns the record at index i.
func (v *View) Record(i int) (Record, error) {
	if i < 0 || i >= v.img.Len() {
		return Record{}, errors.New("F204").WithDetailf("record %d of %d", i, v.img.Len())
	}
	off := i * RecordSize
	return Record{img: v.img, index: i, raw: readRawRecord(v.img.Records[off : off+RecordSize])}, nil
}

// NextSibling returns the index just past the subtree rooted at record i.
// An open container yields an error rather than an empty subtree.
func (v *View) NextSibling(i int) (int, error) {
	r, err := v.Record(i)
	if err != nil {
		return 0, err
	}
	if !r.raw.kind.IsContainer() {
		return i + 1, nil
	}
	if r.raw.length == 0 {
		return 0, errors.New("F150").WithDetailf("record %d has subtree length 0", i)
	}
	end := i + int(r.raw.length)
	if r.raw.length < 0 || end > v.img.Len() {
		return 0, badReference(i, "subtree length", r.raw.length)
	}
	return end, nil
}

// Record is one packed frame.
type Record struct {
	img   *Image
	index int
	raw   rawRecord
}

// Kind returns the record kind.
func (r Record) Kind() frame.Kind { return r.raw.kind }

// Sequence returns the record's sequence number.
func (r Record) Sequence() int32 { return r.raw.seq }

// Flags returns the record flags.
func (r Record) Flags() Flags { return r.raw.flags }

func (r Record) must(k frame.Kind, method string) error {
	if r.raw.kind != k {
		return errors.New("F206").WithDetailf("record %d: %s on %s record", r.index, method, r.raw.kind)
	}
	return nil
}

func (r Record) str() (string, error) {
	if r.raw.str < 0 || int(r.raw.str) >= len(r.img.Strings) {
		return "", badReference(r.index, "string", r.raw.str)
	}
	return r.img.Strings[r.raw.str], nil
}

func (r Record) handle(h int32) (any, error) {
	if h < 1 || int(h) > len(r.img.Handles) {
		return nil, errors.New("F207").WithDetailf("record %d: handle %d", r.index, h)
	}
	return r.img.Handles[h-1], nil
}

// ElementName returns the tag name of an element record.
func (r Record) ElementName() (string, error) {
	if err := r.must(frame.KindElement, "ElementName"); err != nil {
		return "", err
	}
	return r.str()
}

// SubtreeLength returns the subtree length of an element or component record.
func (r Record) SubtreeLength() (int32, error) {
	if !r.raw.kind.IsContainer() {
		return 0, errors.New("F206").WithDetailf("record %d: SubtreeLength on %s record", r.index, r.raw.kind)
	}
	return r.raw.length, nil
}

// TextContent returns the content of a text record.
func (r Record) TextContent() (string, error) {
	if err := r.must(frame.KindText, "TextContent"); err != nil {
		return "", err
	}
	return r.str()
}

// AttributeName returns the name of an attribute record.
func (r Record) AttributeName() (string, error) {
	if err := r.must(frame.KindAttribute, "AttributeName"); err != nil {
		return "", err
	}
	return r.str()
}

// AttributeValue returns the value of an attribute record. Plain values are
// decoded from the value heap with the normalization described in the
// package documentation; callbacks resolve through the handle table, which
// only packed (not decoded) images carry.
func (r Record) AttributeValue() (frame.AttrValue, error) {
	if err := r.must(frame.KindAttribute, "AttributeValue"); err != nil {
		return frame.AttrValue{}, err
	}
	switch {
	case r.raw.flags.Has(FlagCallback):
		h, err := r.handle(r.raw.ref)
		if err != nil {
			return frame.AttrValue{}, err
		}
		return frame.Callback(h), nil
	case r.raw.flags.Has(FlagNilValue):
		return frame.Value(nil), nil
	}
	b, err := r.value()
	if err != nil {
		return frame.AttrValue{}, err
	}
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	dec.UseLooseInterfaceDecoding(true)
	var v any
	if err := dec.Decode(&v); err != nil {
		return frame.AttrValue{}, errors.New("F205").WithDetailf("record %d", r.index).Wrap(err)
	}
	return frame.Value(v), nil
}

// DecodeValue decodes the plain value of an attribute record into dst, which
// must be a non-nil pointer. Unlike AttributeValue it recovers the concrete
// type the caller expects. A nil value leaves dst unchanged; a callback
// record is an error.
func (r Record) DecodeValue(dst any) error {
	if err := r.must(frame.KindAttribute, "DecodeValue"); err != nil {
		return err
	}
	switch {
	case r.raw.flags.Has(FlagCallback):
		return errors.New("F206").WithDetailf("record %d: DecodeValue on callback attribute", r.index)
	case r.raw.flags.Has(FlagNilValue):
		return nil
	}
	b, err := r.value()
	if err != nil {
		return err
	}
	if err := msgpack.Unmarshal(b, dst); err != nil {
		return errors.New("F205").WithDetailf("record %d", r.index).Wrap(err)
	}
	return nil
}

func (r Record) value() ([]byte, error) {
	if r.raw.ref < 0 || int(r.raw.ref) >= len(r.img.Values) {
		return nil, badReference(r.index, "value", r.raw.ref)
	}
	return r.img.Values[r.raw.ref], nil
}

// ComponentTypeName returns the type name of a component record.
func (r Record) ComponentTypeName() (string, error) {
	if err := r.must(frame.KindComponent, "ComponentTypeName"); err != nil {
		return "", err
	}
	return r.str()
}

// ComponentID returns the bound id of a component record, or 0.
func (r Record) ComponentID() (int32, error) {
	if err := r.must(frame.KindComponent, "ComponentID"); err != nil {
		return 0, err
	}
	return r.raw.ref, nil
}

// ComponentInstance returns the bound instance of a component record, or nil
// if the component is unbound.
func (r Record) ComponentInstance() (frame.Component, error) {
	if err := r.must(frame.KindComponent, "ComponentInstance"); err != nil {
		return nil, err
	}
	if r.raw.handle == 0 {
		return nil, nil
	}
	return r.handle(r.raw.handle)
}
