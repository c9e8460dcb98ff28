package layout

import (
	"context"
	"encoding/binary"
	stderrors "errors"
	"reflect"
	"testing"

	"github.com/vango-dev/rendertree/internal/errors"
	"github.com/vango-dev/rendertree/pkg/frame"
	"github.com/vango-dev/rendertree/pkg/tree"
)

type panel struct{ title string }

// sample builds:
//
//	0 div (len 6)
//	1   @class="red"
//	2   @onclick=callback
//	3   "Hi"
//	4   Component *panel (len 2, id 7)
//	5     @open=true
func sample(t *testing.T) (tree.Sequence, *panel) {
	t.Helper()
	inst := &panel{title: "p"}
	b := tree.NewBuilder()
	b.OpenElement(10, "div")
	b.AddAttribute(11, "class", "red")
	b.AddAttribute(12, "onclick", func() {})
	b.AddText(13, "Hi")
	b.OpenComponent(14, reflect.TypeFor[*panel]())
	b.AddAttribute(15, "open", true)
	b.BindComponent(4, 7, inst)
	b.CloseComponent()
	b.CloseElement()
	seq, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return seq, inst
}

func TestRecordLayoutIsFixed(t *testing.T) {
	r := rawRecord{seq: -2, kind: frame.KindComponent, flags: FlagCallback, length: 3, str: 4, ref: 5, handle: 6}
	buf := r.appendTo(nil)

	if len(buf) != RecordSize {
		t.Fatalf("record size = %d, want %d", len(buf), RecordSize)
	}

	le := binary.LittleEndian
	checks := []struct {
		name string
		got  int64
		want int64
	}{
		{"sequence", int64(int32(le.Uint32(buf[OffsetSequence:]))), -2},
		{"kind", int64(buf[OffsetKind]), int64(frame.KindComponent)},
		{"flags", int64(buf[OffsetFlags]), int64(FlagCallback)},
		{"reserved", int64(le.Uint16(buf[OffsetReserved:])), 0},
		{"length", int64(le.Uint32(buf[OffsetLength:])), 3},
		{"str", int64(le.Uint32(buf[OffsetStr:])), 4},
		{"ref", int64(le.Uint32(buf[OffsetRef:])), 5},
		{"handle", int64(le.Uint32(buf[OffsetHandle:])), 6},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %d, want %d", c.name, c.got, c.want)
		}
	}

	if got := readRawRecord(buf); got != r {
		t.Errorf("readRawRecord = %+v, want %+v", got, r)
	}
}

func TestPackView(t *testing.T) {
	seq, inst := sample(t)
	img, err := Pack(seq, nil)
	if err != nil {
		t.Fatalf("Pack() error: %v", err)
	}
	if img.Len() != seq.Len() {
		t.Fatalf("Len() = %d, want %d", img.Len(), seq.Len())
	}
	if len(img.Records) != seq.Len()*RecordSize {
		t.Errorf("records = %d bytes, want %d", len(img.Records), seq.Len()*RecordSize)
	}

	v := NewView(img)
	for i := 0; i < v.Len(); i++ {
		r, err := v.Record(i)
		if err != nil {
			t.Fatalf("Record(%d) error: %v", i, err)
		}
		f := seq.At(i)
		if r.Kind() != f.Kind() || r.Sequence() != f.Sequence() {
			t.Errorf("record %d = %v/%d, want %v/%d", i, r.Kind(), r.Sequence(), f.Kind(), f.Sequence())
		}
	}

	r, _ := v.Record(0)
	if name, err := r.ElementName(); err != nil || name != "div" {
		t.Errorf("ElementName() = %q, %v", name, err)
	}
	if n, err := r.SubtreeLength(); err != nil || n != 6 {
		t.Errorf("SubtreeLength() = %d, %v, want 6", n, err)
	}

	r, _ = v.Record(1)
	if val, err := r.AttributeValue(); err != nil || val.Plain() != "red" {
		t.Errorf("AttributeValue() = %v, %v, want red", val, err)
	}

	r, _ = v.Record(2)
	if !r.Flags().Has(FlagCallback) {
		t.Error("onclick record missing FlagCallback")
	}
	if val, err := r.AttributeValue(); err != nil || !val.IsCallback() {
		t.Errorf("AttributeValue() = %v, %v, want callback", val, err)
	}

	r, _ = v.Record(3)
	if text, err := r.TextContent(); err != nil || text != "Hi" {
		t.Errorf("TextContent() = %q, %v", text, err)
	}

	r, _ = v.Record(4)
	if name, err := r.ComponentTypeName(); err != nil || name != "*layout.panel" {
		t.Errorf("ComponentTypeName() = %q, %v", name, err)
	}
	if id, err := r.ComponentID(); err != nil || id != 7 {
		t.Errorf("ComponentID() = %d, %v, want 7", id, err)
	}
	if got, err := r.ComponentInstance(); err != nil || got != inst {
		t.Errorf("ComponentInstance() = %v, %v, want %v", got, err, inst)
	}

	r, _ = v.Record(5)
	if val, err := r.AttributeValue(); err != nil || val.Plain() != true {
		t.Errorf("AttributeValue() = %v, %v, want true", val, err)
	}
}

func TestViewNextSibling(t *testing.T) {
	seq, _ := sample(t)
	img, err := Pack(seq, nil)
	if err != nil {
		t.Fatal(err)
	}
	v := NewView(img)

	tests := []struct {
		index int
		want  int
	}{
		{0, 6},
		{1, 2},
		{3, 4},
		{4, 6},
	}
	for _, tt := range tests {
		got, err := v.NextSibling(tt.index)
		if err != nil {
			t.Fatalf("NextSibling(%d) error: %v", tt.index, err)
		}
		if got != tt.want {
			t.Errorf("NextSibling(%d) = %d, want %d", tt.index, got, tt.want)
		}
	}

	if _, err := v.NextSibling(6); !stderrors.Is(err, ErrBadReference) {
		t.Errorf("NextSibling(6) error = %v, want ErrBadReference", err)
	}
}

func TestViewNextSiblingBoundedByLen(t *testing.T) {
	// Built by hand: Pack refuses to produce such an image.
	img := &Image{
		Records: rawRecord{kind: frame.KindElement, length: 5}.appendTo(nil),
		Strings: []string{"div"},
	}
	if _, err := NewView(img).NextSibling(0); !stderrors.Is(err, ErrBadReference) {
		t.Errorf("NextSibling(0) error = %v, want ErrBadReference", err)
	}
}

func packValues(t *testing.T, values ...any) *View {
	t.Helper()
	b := tree.NewBuilder(tree.WithKeepFalseAttributes(true))
	b.OpenElement(0, "div")
	for i, v := range values {
		b.AddAttribute(int32(i+1), "data", frame.Value(v))
	}
	b.CloseElement()
	seq, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	img, err := Pack(seq, nil)
	if err != nil {
		t.Fatalf("Pack() error: %v", err)
	}
	return NewView(img)
}

func TestAttributeValueNormalization(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"string", "red", "red"},
		{"bool", true, true},
		{"int", 42, int64(42)},
		{"negative int", -3, int64(-3)},
		{"uint", uint(7), int64(7)},
		{"int32", int32(1 << 20), int64(1 << 20)},
		{"float64", 1.5, 1.5},
		{"string slice", []string{"a", "b"}, []any{"a", "b"}},
		{"map", map[string]int{"n": 1}, map[string]any{"n": int64(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := packValues(t, tt.in).Record(1)
			if err != nil {
				t.Fatal(err)
			}
			val, err := r.AttributeValue()
			if err != nil {
				t.Fatalf("AttributeValue() error: %v", err)
			}
			if !reflect.DeepEqual(val.Plain(), tt.want) {
				t.Errorf("AttributeValue() = %#v, want %#v", val.Plain(), tt.want)
			}
		})
	}
}

func TestDecodeValue(t *testing.T) {
	v := packValues(t, 42, []string{"a", "b"}, nil)

	r, _ := v.Record(1)
	var n int
	if err := r.DecodeValue(&n); err != nil || n != 42 {
		t.Errorf("DecodeValue(int) = %d, %v, want 42", n, err)
	}

	r, _ = v.Record(2)
	var list []string
	if err := r.DecodeValue(&list); err != nil || !reflect.DeepEqual(list, []string{"a", "b"}) {
		t.Errorf("DecodeValue([]string) = %v, %v", list, err)
	}

	r, _ = v.Record(3)
	s := "unchanged"
	if err := r.DecodeValue(&s); err != nil || s != "unchanged" {
		t.Errorf("DecodeValue(nil value) = %q, %v, want dst unchanged", s, err)
	}

	seq, _ := sample(t)
	img, err := Pack(seq, nil)
	if err != nil {
		t.Fatal(err)
	}
	r, _ = NewView(img).Record(2)
	var fn any
	if err := r.DecodeValue(&fn); !stderrors.Is(err, ErrKindMismatch) {
		t.Errorf("DecodeValue(callback) error = %v, want ErrKindMismatch", err)
	}
	r, _ = NewView(img).Record(0)
	if err := r.DecodeValue(&fn); !stderrors.Is(err, ErrKindMismatch) {
		t.Errorf("DecodeValue(element) error = %v, want ErrKindMismatch", err)
	}
}

func TestViewOpenSubtree(t *testing.T) {
	img, err := Pack(tree.NewSequence([]frame.Frame{frame.Element(0, "div")}), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewView(img).NextSibling(0); !stderrors.Is(err, tree.ErrOpenSubtree) {
		t.Errorf("NextSibling(0) error = %v, want open subtree", err)
	}
}

func TestRecordKindMismatch(t *testing.T) {
	seq, _ := sample(t)
	img, err := Pack(seq, nil)
	if err != nil {
		t.Fatal(err)
	}
	v := NewView(img)
	text, _ := v.Record(3)
	el, _ := v.Record(0)

	tests := []struct {
		name string
		fn   func() error
	}{
		{"AttributeName on text", func() error { _, err := text.AttributeName(); return err }},
		{"AttributeValue on text", func() error { _, err := text.AttributeValue(); return err }},
		{"ElementName on text", func() error { _, err := text.ElementName(); return err }},
		{"SubtreeLength on text", func() error { _, err := text.SubtreeLength(); return err }},
		{"TextContent on element", func() error { _, err := el.TextContent(); return err }},
		{"ComponentID on element", func() error { _, err := el.ComponentID(); return err }},
		{"ComponentTypeName on element", func() error { _, err := el.ComponentTypeName(); return err }},
		{"ComponentInstance on element", func() error { _, err := el.ComponentInstance(); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !stderrors.Is(err, ErrKindMismatch) {
				t.Errorf("error = %v, want ErrKindMismatch", err)
			}
		})
	}
}

func TestEncodeDecode(t *testing.T) {
	seq, _ := sample(t)
	img, err := Pack(seq, nil)
	if err != nil {
		t.Fatal(err)
	}

	data := img.Bytes()
	if string(data[:4]) != Magic {
		t.Errorf("magic = %q, want %q", data[:4], Magic)
	}

	decoded, err := Decode(data, nil)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if !reflect.DeepEqual(decoded.Records, img.Records) {
		t.Error("records differ after decode")
	}
	if !reflect.DeepEqual(decoded.Strings, img.Strings) {
		t.Errorf("strings = %v, want %v", decoded.Strings, img.Strings)
	}
	if decoded.Handles != nil {
		t.Error("decoded image carries handles")
	}

	v := NewView(decoded)
	r, _ := v.Record(1)
	if val, err := r.AttributeValue(); err != nil || val.Plain() != "red" {
		t.Errorf("AttributeValue() = %v, %v, want red", val, err)
	}

	r, _ = v.Record(2)
	if _, err := r.AttributeValue(); !stderrors.Is(err, ErrNoHandle) {
		t.Errorf("callback after decode error = %v, want ErrNoHandle", err)
	}

	r, _ = v.Record(4)
	if _, err := r.ComponentInstance(); !stderrors.Is(err, ErrNoHandle) {
		t.Errorf("instance after decode error = %v, want ErrNoHandle", err)
	}
}

func TestStringInterning(t *testing.T) {
	b := tree.NewBuilder()
	b.OpenElement(0, "ul")
	for i := int32(1); i <= 3; i++ {
		b.OpenElement(i*2, "li")
		b.AddText(i*2+1, "li")
		b.CloseElement()
	}
	b.CloseElement()
	seq, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}

	img, err := Pack(seq, nil)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"ul", "li"}; !reflect.DeepEqual(img.Strings, want) {
		t.Errorf("Strings = %v, want %v", img.Strings, want)
	}
}

func TestPackErrors(t *testing.T) {
	seq, _ := sample(t)

	tests := []struct {
		name     string
		seq      tree.Sequence
		limits   *Limits
		wantCode string
	}{
		{"too many frames", seq, &Limits{MaxFrames: 2}, "F203"},
		{"too many string bytes", seq, &Limits{MaxStringBytes: 4}, "F203"},
		{
			"unpackable value",
			tree.NewSequence([]frame.Frame{
				frame.Element(0, "div").WithElementSubtreeLength(2),
				frame.Attribute(1, "data", frame.Value(make(chan int))),
			}),
			nil,
			"F205",
		},
		{"zero frame", tree.NewSequence([]frame.Frame{{}}), nil, "F205"},
		{
			"subtree past end",
			tree.NewSequence([]frame.Frame{frame.Element(0, "div").WithElementSubtreeLength(5)}),
			nil,
			"F204",
		},
		{
			"child past end",
			tree.NewSequence([]frame.Frame{
				frame.Element(0, "ul").WithElementSubtreeLength(2),
				frame.Element(1, "li").WithElementSubtreeLength(3),
			}),
			nil,
			"F204",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Pack(tt.seq, tt.limits)
			if got := errors.Code(err); got != tt.wantCode {
				t.Errorf("code = %q, want %q (%v)", got, tt.wantCode, err)
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	seq, _ := sample(t)
	img, err := Pack(seq, nil)
	if err != nil {
		t.Fatal(err)
	}
	good := img.Bytes()

	corrupt := func(mutate func(b []byte) []byte) []byte {
		b := make([]byte, len(good))
		copy(b, good)
		return mutate(b)
	}
	recordsAt := len(good) - len(img.Records)

	tests := []struct {
		name   string
		data   []byte
		limits *Limits
		want   error
	}{
		{"empty", nil, nil, ErrTruncated},
		{"bad magic", corrupt(func(b []byte) []byte { b[0] = 'X'; return b }), nil, ErrUnsupported},
		{"bad version", corrupt(func(b []byte) []byte { b[4] = 9; return b }), nil, ErrUnsupported},
		{"truncated records", good[:len(good)-1], nil, ErrTruncated},
		{"trailing bytes", append(corrupt(func(b []byte) []byte { return b }), 0), nil, ErrUnsupported},
		{"frame limit", good, &Limits{MaxFrames: 1}, ErrLimitExceeded},
		{"string limit", good, &Limits{MaxStringBytes: 2}, ErrLimitExceeded},
		{
			"string reference out of range",
			corrupt(func(b []byte) []byte {
				binary.LittleEndian.PutUint32(b[recordsAt+OffsetStr:], 99)
				return b
			}),
			nil,
			ErrBadReference,
		},
		{
			"subtree past end",
			corrupt(func(b []byte) []byte {
				binary.LittleEndian.PutUint32(b[recordsAt+OffsetLength:], 50)
				return b
			}),
			nil,
			ErrBadReference,
		},
		{
			"unknown kind",
			corrupt(func(b []byte) []byte {
				b[recordsAt+OffsetKind] = 42
				return b
			}),
			nil,
			ErrUnsupported,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data, tt.limits)
			if !stderrors.Is(err, tt.want) {
				t.Errorf("Decode() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPackAll(t *testing.T) {
	seq, _ := sample(t)
	other := tree.NewSequence([]frame.Frame{frame.Text(0, "x")})

	images, err := PackAll(context.Background(), []tree.Sequence{seq, other}, nil)
	if err != nil {
		t.Fatalf("PackAll() error: %v", err)
	}
	if len(images) != 2 {
		t.Fatalf("images = %d, want 2", len(images))
	}
	if images[0].Len() != seq.Len() || images[1].Len() != 1 {
		t.Errorf("image lengths = %d, %d", images[0].Len(), images[1].Len())
	}
}

func TestPackAllCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	seq, _ := sample(t)
	if _, err := PackAll(ctx, []tree.Sequence{seq}, nil); !stderrors.Is(err, context.Canceled) {
		t.Errorf("PackAll() error = %v, want context.Canceled", err)
	}
}

func TestPackAllPropagatesError(t *testing.T) {
	seq, _ := sample(t)
	_, err := PackAll(context.Background(), []tree.Sequence{seq, seq}, &Limits{MaxFrames: 1})
	if !stderrors.Is(err, ErrLimitExceeded) {
		t.Errorf("PackAll() error = %v, want ErrLimitExceeded", err)
	}
}
