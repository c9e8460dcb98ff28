package treefile

import (
	"bytes"
	"io"
	"os"
	"reflect"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/rendertree/internal/errors"
	"github.com/vango-dev/rendertree/pkg/frame"
	"github.com/vango-dev/rendertree/pkg/tree"
)

// Document is a parsed tree document.
type Document struct {
	Tree []Node `yaml:"tree" json:"tree"`
}

// Node is one element, text or component in a document.
type Node struct {
	Element    string         `yaml:"element,omitempty" json:"element,omitempty"`
	Text       *string        `yaml:"text,omitempty" json:"text,omitempty"`
	Component  string         `yaml:"component,omitempty" json:"component,omitempty"`
	Bind       int32          `yaml:"bind,omitempty" json:"bind,omitempty"`
	Attributes map[string]any `yaml:"attributes,omitempty" json:"attributes,omitempty"`
	Children   []Node         `yaml:"children,omitempty" json:"children,omitempty"`
}

// HandlerRef names an event handler in a document. It is carried as the
// callback of event attributes.
type HandlerRef string

// Placeholder stands in for components that have no registered type.
type Placeholder struct{}

// Registry maps component names to types.
type Registry struct {
	types    map[string]reflect.Type
	fallback reflect.Type
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]reflect.Type)}
}

// Register maps name to typ, replacing any previous mapping.
func (r *Registry) Register(name string, typ reflect.Type) {
	r.types[name] = typ
}

// SetFallback sets the type returned for unregistered names. A nil typ
// restores strict lookup.
func (r *Registry) SetFallback(typ reflect.Type) {
	r.fallback = typ
}

// Lookup returns the type registered under name, or the fallback type.
func (r *Registry) Lookup(name string) (reflect.Type, bool) {
	if r == nil {
		return nil, false
	}
	if typ, ok := r.types[name]; ok {
		return typ, true
	}
	return r.fallback, r.fallback != nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// RegisterType maps name to the type T.
func RegisterType[T any](r *Registry, name string) {
	r.Register(name, reflect.TypeFor[T]())
}

// Parse decodes a document from r.
func Parse(r io.Reader) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return &doc, nil
		}
		return nil, errors.New("F401").Wrap(err)
	}
	return &doc, nil
}

// ParseFile reads and decodes the document at path.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("F401").WithDetail(path).Wrap(err)
	}
	doc, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, errors.FromError(err, "F401").WithDetail(path)
	}
	return doc, nil
}

// Build replays doc into a new Builder created with opts. Sequence numbers
// are assigned in document order starting at 0.
func Build(doc *Document, reg *Registry, opts ...tree.BuilderOption) (tree.Sequence, error) {
	r := replay{b: tree.NewBuilder(opts...), reg: reg}
	for i := range doc.Tree {
		if err := r.node(&doc.Tree[i]); err != nil {
			return tree.Sequence{}, err
		}
	}
	return r.b.Build()
}

type replay struct {
	b   *tree.Builder
	reg *Registry
	seq int32
}

func (r *replay) next() int32 {
	s := r.seq
	r.seq++
	return s
}

func (r *replay) node(n *Node) error {
	set := 0
	for _, ok := range []bool{n.Element != "", n.Text != nil, n.Component != ""} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return errors.New("F401").WithDetail("node must set exactly one of element, text, component")
	}

	switch {
	case n.Text != nil:
		if len(n.Attributes) > 0 || len(n.Children) > 0 || n.Bind != 0 {
			return errors.New("F401").WithDetail("text node cannot have attributes, children or bind")
		}
		r.b.AddText(r.next(), *n.Text)

	case n.Element != "":
		if n.Bind != 0 {
			return errors.New("F401").WithDetailf("element %q cannot be bound", n.Element)
		}
		r.b.OpenElement(r.next(), n.Element)
		r.attributes(n.Attributes)
		if err := r.children(n.Children); err != nil {
			return err
		}
		r.b.CloseElement()

	default:
		typ, ok := r.reg.Lookup(n.Component)
		if !ok {
			return errors.New("F402").WithDetailf("component %q", n.Component)
		}
		index := r.b.Len()
		r.b.OpenComponent(r.next(), typ)
		r.attributes(n.Attributes)
		if n.Bind != 0 {
			r.b.BindComponent(index, n.Bind, newInstance(typ))
		}
		if err := r.children(n.Children); err != nil {
			return err
		}
		r.b.CloseComponent()
	}
	return r.b.Err()
}

func (r *replay) children(nodes []Node) error {
	for i := range nodes {
		if err := r.node(&nodes[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *replay) attributes(attrs map[string]any) {
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		v := attrs[name]
		if s, ok := v.(string); ok && frame.IsEventName(name) {
			v = frame.Callback(HandlerRef(s))
		}
		r.b.AddAttribute(r.next(), name, v)
	}
}

// newInstance returns a pointer to a zero value of typ, or of its element
// type when typ is itself a pointer.
func newInstance(typ reflect.Type) frame.Component {
	if typ.Kind() == reflect.Pointer {
		return reflect.New(typ.Elem()).Interface()
	}
	return reflect.New(typ).Interface()
}
