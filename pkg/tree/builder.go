package tree

import (
	"log/slog"
	"reflect"

	"fortio.org/safecast"
	"github.com/vango-dev/rendertree/internal/errors"
	"github.com/vango-dev/rendertree/pkg/frame"
)

// DefaultCapacity is the initial frame capacity of a new Builder.
const DefaultCapacity = 64

// Builder appends frames in pre-order and closes subtrees once their size is
// known. A Builder is not safe for concurrent use.
//
// The first misuse is recorded and returned by Build; later calls are
// ignored, in the manner of bufio.Writer.
type Builder struct {
	frames []frame.Frame
	open   []int

	// attrOwner is the index of the container still accepting attributes,
	// or -1.
	attrOwner int

	err error

	keepFalse bool
	capacity  int
	logger    *slog.Logger
	metrics   *Metrics
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithCapacity sets the initial frame capacity.
func WithCapacity(n int) BuilderOption {
	return func(b *Builder) {
		if n > 0 {
			b.capacity = n
		}
	}
}

// WithKeepFalseAttributes keeps false and nil attribute values on elements
// instead of omitting them.
func WithKeepFalseAttributes(keep bool) BuilderOption {
	return func(b *Builder) {
		b.keepFalse = keep
	}
}

// WithLogger sets the logger used to report builder misuse.
func WithLogger(logger *slog.Logger) BuilderOption {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithMetrics sets the collectors updated by the builder.
func WithMetrics(m *Metrics) BuilderOption {
	return func(b *Builder) {
		b.metrics = m
	}
}

// NewBuilder creates an empty Builder.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		attrOwner: -1,
		capacity:  DefaultCapacity,
		logger:    slog.Default().With("component", "builder"),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.frames = make([]frame.Frame, 0, b.capacity)
	return b
}

// Len returns the number of frames appended so far.
func (b *Builder) Len() int { return len(b.frames) }

// Err returns the first error recorded by the builder.
func (b *Builder) Err() error { return b.err }

// Depth returns the number of currently open containers.
func (b *Builder) Depth() int { return len(b.open) }

func (b *Builder) fail(err *errors.Error) {
	if b.err != nil {
		return
	}
	b.err = err
	b.logger.Warn("builder misuse", "code", err.Code, "detail", err.Detail)
}

func (b *Builder) append(f frame.Frame) {
	b.frames = append(b.frames, f)
	b.metrics.recordFrame(f.Kind())
}

// OpenElement appends an open element frame.
func (b *Builder) OpenElement(seq int32, name string) {
	if b.err != nil {
		return
	}
	b.append(frame.Element(seq, name))
	b.pushOpen()
}

// CloseElement closes the innermost open element.
func (b *Builder) CloseElement() {
	if b.err != nil {
		return
	}
	i, ok := b.popOpen(frame.KindElement)
	if !ok {
		return
	}
	n, ok := b.subtreeLength(i)
	if !ok {
		return
	}
	b.frames[i] = b.frames[i].WithElementSubtreeLength(n)
}

// OpenComponent appends an open, unbound component placeholder for typ.
func (b *Builder) OpenComponent(seq int32, typ reflect.Type) {
	if b.err != nil {
		return
	}
	if typ == nil {
		b.fail(errors.New("F109").WithDetailf("sequence %d", seq))
		return
	}
	b.append(frame.ChildComponent(seq, typ))
	b.pushOpen()
}

// CloseComponent closes the innermost open component.
func (b *Builder) CloseComponent() {
	if b.err != nil {
		return
	}
	i, ok := b.popOpen(frame.KindComponent)
	if !ok {
		return
	}
	n, ok := b.subtreeLength(i)
	if !ok {
		return
	}
	f := b.frames[i]
	closed := f.WithComponentSubtreeLength(n)
	if f.IsBound() {
		closed = closed.WithComponentInstance(f.ComponentID(), f.ComponentInstance())
	}
	b.frames[i] = closed
}

// AddText appends a text frame.
func (b *Builder) AddText(seq int32, content string) {
	if b.err != nil {
		return
	}
	b.attrOwner = -1
	b.append(frame.Text(seq, content))
}

// AddAttribute appends an attribute to the open element or component that
// was just opened. Function values and frame.EventHandler become callbacks.
// On elements, false and nil values are omitted unless the builder was
// created WithKeepFalseAttributes.
func (b *Builder) AddAttribute(seq int32, name string, value any) {
	if b.err != nil {
		return
	}
	if !b.acceptsAttribute(name) {
		return
	}
	v := frame.ValueOf(value)
	if b.omits(v) {
		return
	}
	b.append(frame.Attribute(seq, name, v))
}

// AddAttributeFrame copies an existing attribute frame under a new sequence
// number. The omission rule of AddAttribute applies to the copy.
func (b *Builder) AddAttributeFrame(seq int32, f frame.Frame) {
	if b.err != nil {
		return
	}
	if f.Kind() != frame.KindAttribute {
		b.fail(errors.New("F107").WithDetailf("got %s frame", f.Kind()))
		return
	}
	if !b.acceptsAttribute(f.AttributeName()) {
		return
	}
	if b.omits(f.AttributeValue()) {
		return
	}
	b.append(f.WithAttributeSequence(seq))
}

// BindComponent attaches a runtime instance to the component placeholder at
// index. Each placeholder can be bound once; id must be non-zero.
func (b *Builder) BindComponent(index int, id int32, instance frame.Component) {
	if b.err != nil {
		return
	}
	if index < 0 || index >= len(b.frames) || b.frames[index].Kind() != frame.KindComponent {
		b.fail(errors.New("F104").WithDetailf("index %d", index))
		return
	}
	if id == 0 {
		b.fail(errors.New("F108").WithDetailf("index %d", index))
		return
	}
	f := b.frames[index]
	if f.IsBound() {
		b.fail(errors.New("F105").WithDetailf("index %d already bound to id %d", index, f.ComponentID()))
		return
	}
	b.frames[index] = f.WithComponentInstance(id, instance)
}

// Build returns the built sequence and resets the builder. It fails if any
// call was out of order or a container is still open.
func (b *Builder) Build() (Sequence, error) {
	if b.err == nil && len(b.open) > 0 {
		top := b.frames[b.open[len(b.open)-1]]
		b.fail(errors.New("F103").WithDetailf("%d open, innermost %s", len(b.open), top))
	}
	err := b.err
	frames := b.frames
	b.metrics.recordBuild(len(frames), err)
	b.Reset()
	if err != nil {
		return Sequence{}, err
	}
	b.logger.Debug("sequence built", "frames", len(frames))
	return Sequence{frames: frames}, nil
}

// Reset discards all frames and any recorded error. The previous backing
// array is not reused because it may be owned by a built Sequence.
func (b *Builder) Reset() {
	b.frames = make([]frame.Frame, 0, b.capacity)
	b.open = b.open[:0]
	b.attrOwner = -1
	b.err = nil
}

func (b *Builder) pushOpen() {
	i := len(b.frames) - 1
	b.open = append(b.open, i)
	b.attrOwner = i
}

func (b *Builder) popOpen(k frame.Kind) (int, bool) {
	b.attrOwner = -1
	if len(b.open) == 0 {
		b.fail(errors.New("F102").WithDetailf("close %s with nothing open", k))
		return 0, false
	}
	i := b.open[len(b.open)-1]
	if got := b.frames[i].Kind(); got != k {
		b.fail(errors.New("F102").WithDetailf("close %s while innermost open frame is %s", k, got))
		return 0, false
	}
	b.open = b.open[:len(b.open)-1]
	return i, true
}

func (b *Builder) subtreeLength(i int) (int32, bool) {
	n, err := safecast.Conv[int32](len(b.frames) - i)
	if err != nil {
		b.fail(errors.New("F106").Wrap(err))
		return 0, false
	}
	return n, true
}

func (b *Builder) acceptsAttribute(name string) bool {
	if b.attrOwner < 0 || len(b.open) == 0 || b.open[len(b.open)-1] != b.attrOwner {
		b.fail(errors.New("F101").WithDetailf("attribute %q", name))
		return false
	}
	return true
}

// omits reports whether v is a false or nil value dropped from the element
// currently accepting attributes.
func (b *Builder) omits(v frame.AttrValue) bool {
	if b.keepFalse || v.IsCallback() || b.frames[b.attrOwner].Kind() != frame.KindElement {
		return false
	}
	return v.IsNil() || v.Plain() == false
}
