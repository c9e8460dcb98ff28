package frame

import (
	"fmt"
	"reflect"
	"strconv"
)

// Component is a runtime component instance bound to a component frame.
type Component any

// Frame is one entry in a flattened render tree.
//
// The zero Frame has KindNone and no live field group.
type Frame struct {
	seq    int32
	kind   Kind
	length int32 // subtree length (element, component)
	id     int32 // component id

	// str holds the element name, the text content or the attribute name.
	str      string
	value    AttrValue
	typ      reflect.Type
	instance Component
}

// MismatchError is the panic value raised when a frame is read or patched
// through an accessor that does not belong to its kind.
type MismatchError struct {
	Method string
	Want   Kind
	Got    Kind
}

func (e *MismatchError) Error() string {
	return "frame: call of Frame." + e.Method + " on " + e.Got.String() + " frame (want " + e.Want.String() + ")"
}

// must panics unless the frame has the given kind.
func (f Frame) must(k Kind, method string) {
	if f.kind != k {
		panic(&MismatchError{Method: method, Want: k, Got: f.kind})
	}
}

func checkLength(method string, n int32) {
	if n < 0 {
		panic("frame: " + method + " called with negative length " + strconv.Itoa(int(n)))
	}
}

// Element creates an open element frame.
func Element(seq int32, name string) Frame {
	return Frame{seq: seq, kind: KindElement, str: name}
}

// Text creates a text frame.
func Text(seq int32, content string) Frame {
	return Frame{seq: seq, kind: KindText, str: content}
}

// Attribute creates an attribute frame.
func Attribute(seq int32, name string, value AttrValue) Frame {
	return Frame{seq: seq, kind: KindAttribute, str: name, value: value}
}

// ChildComponent creates an open, unbound component placeholder frame.
// It panics if typ is nil.
func ChildComponent(seq int32, typ reflect.Type) Frame {
	if typ == nil {
		panic("frame: ChildComponent called with nil type")
	}
	return Frame{seq: seq, kind: KindComponent, typ: typ}
}

// ChildComponentOf creates a component placeholder frame for type T.
func ChildComponentOf[T any](seq int32) Frame {
	return ChildComponent(seq, reflect.TypeFor[T]())
}

// Kind returns the frame kind.
func (f Frame) Kind() Kind { return f.kind }

// Sequence returns the sequence number assigned by the emitting builder.
func (f Frame) Sequence() int32 { return f.seq }

// ElementName returns the tag name of an element frame.
func (f Frame) ElementName() string {
	f.must(KindElement, "ElementName")
	return f.str
}

// ElementSubtreeLength returns the element's subtree length, or 0 if open.
func (f Frame) ElementSubtreeLength() int32 {
	f.must(KindElement, "ElementSubtreeLength")
	return f.length
}

// TextContent returns the content of a text frame.
func (f Frame) TextContent() string {
	f.must(KindText, "TextContent")
	return f.str
}

// AttributeName returns the name of an attribute frame.
func (f Frame) AttributeName() string {
	f.must(KindAttribute, "AttributeName")
	return f.str
}

// AttributeValue returns the value of an attribute frame.
func (f Frame) AttributeValue() AttrValue {
	f.must(KindAttribute, "AttributeValue")
	return f.value
}

// ComponentType returns the type a component placeholder will instantiate.
func (f Frame) ComponentType() reflect.Type {
	f.must(KindComponent, "ComponentType")
	return f.typ
}

// ComponentSubtreeLength returns the component's subtree length, or 0 if open.
func (f Frame) ComponentSubtreeLength() int32 {
	f.must(KindComponent, "ComponentSubtreeLength")
	return f.length
}

// ComponentID returns the bound component id, or 0 if unbound.
func (f Frame) ComponentID() int32 {
	f.must(KindComponent, "ComponentID")
	return f.id
}

// ComponentInstance returns the bound component instance, or nil if unbound.
func (f Frame) ComponentInstance() Component {
	f.must(KindComponent, "ComponentInstance")
	return f.instance
}

// IsBound reports whether a component frame has an instance attached.
func (f Frame) IsBound() bool {
	f.must(KindComponent, "IsBound")
	return f.id != 0 || f.instance != nil
}

// SubtreeLength returns the subtree length of an element or component frame.
// It panics for text and attribute frames.
func (f Frame) SubtreeLength() int32 {
	if !f.kind.IsContainer() {
		panic(&MismatchError{Method: "SubtreeLength", Want: KindElement, Got: f.kind})
	}
	return f.length
}

// WithElementSubtreeLength returns a copy of an element frame with its
// subtree length set to n.
func (f Frame) WithElementSubtreeLength(n int32) Frame {
	f.must(KindElement, "WithElementSubtreeLength")
	checkLength("WithElementSubtreeLength", n)
	f.length = n
	return f
}

// WithComponentSubtreeLength returns a copy of a component placeholder with
// its subtree length set to n. The copy is unbound.
func (f Frame) WithComponentSubtreeLength(n int32) Frame {
	f.must(KindComponent, "WithComponentSubtreeLength")
	checkLength("WithComponentSubtreeLength", n)
	return Frame{seq: f.seq, kind: KindComponent, length: n, typ: f.typ}
}

// WithAttributeSequence returns a copy of an attribute frame renumbered to seq.
func (f Frame) WithAttributeSequence(seq int32) Frame {
	f.must(KindAttribute, "WithAttributeSequence")
	f.seq = seq
	return f
}

// WithComponentInstance returns a copy of a component frame bound to the
// given id and instance. It does not refuse an already bound frame;
// tree.Builder.BindComponent is what allows a placeholder to be bound once.
func (f Frame) WithComponentInstance(id int32, instance Component) Frame {
	f.must(KindComponent, "WithComponentInstance")
	f.id = id
	f.instance = instance
	return f
}

// ElementFields is the live field group of an element frame.
type ElementFields struct {
	Sequence      int32
	Name          string
	SubtreeLength int32
}

// TextFields is the live field group of a text frame.
type TextFields struct {
	Sequence int32
	Content  string
}

// AttributeFields is the live field group of an attribute frame.
type AttributeFields struct {
	Sequence int32
	Name     string
	Value    AttrValue
}

// ComponentFields is the live field group of a component frame.
type ComponentFields struct {
	Sequence      int32
	Type          reflect.Type
	SubtreeLength int32
	ID            int32
	Instance      Component
}

// AsElement returns the element fields, or ok=false for other kinds.
func (f Frame) AsElement() (ElementFields, bool) {
	if f.kind != KindElement {
		return ElementFields{}, false
	}
	return ElementFields{Sequence: f.seq, Name: f.str, SubtreeLength: f.length}, true
}

// AsText returns the text fields, or ok=false for other kinds.
func (f Frame) AsText() (TextFields, bool) {
	if f.kind != KindText {
		return TextFields{}, false
	}
	return TextFields{Sequence: f.seq, Content: f.str}, true
}

// AsAttribute returns the attribute fields, or ok=false for other kinds.
func (f Frame) AsAttribute() (AttributeFields, bool) {
	if f.kind != KindAttribute {
		return AttributeFields{}, false
	}
	return AttributeFields{Sequence: f.seq, Name: f.str, Value: f.value}, true
}

// AsComponent returns the component fields, or ok=false for other kinds.
func (f Frame) AsComponent() (ComponentFields, bool) {
	if f.kind != KindComponent {
		return ComponentFields{}, false
	}
	return ComponentFields{
		Sequence:      f.seq,
		Type:          f.typ,
		SubtreeLength: f.length,
		ID:            f.id,
		Instance:      f.instance,
	}, true
}

// String returns a short debug representation of the frame.
func (f Frame) String() string {
	switch f.kind {
	case KindElement:
		return fmt.Sprintf("Element(seq=%d, %q, len=%d)", f.seq, f.str, f.length)
	case KindText:
		return fmt.Sprintf("Text(seq=%d, %q)", f.seq, f.str)
	case KindAttribute:
		return fmt.Sprintf("Attribute(seq=%d, %s=%s)", f.seq, f.str, f.value)
	case KindComponent:
		return fmt.Sprintf("Component(seq=%d, %s, len=%d, id=%d)", f.seq, f.typ, f.length, f.id)
	default:
		return f.kind.String() + "()"
	}
}
