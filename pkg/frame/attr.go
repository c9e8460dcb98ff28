package frame

import (
	"fmt"
	"reflect"
	"strings"
)

// AttrValue is the value slot of an attribute frame. It holds either a plain
// value (string, number, bool, ...) or an event callback.
type AttrValue struct {
	callback bool
	v        any
}

// Value wraps a plain attribute value.
func Value(v any) AttrValue {
	return AttrValue{v: v}
}

// Callback wraps an event callback. It panics if fn is nil.
func Callback(fn any) AttrValue {
	if fn == nil {
		panic("frame: Callback called with nil handler")
	}
	return AttrValue{callback: true, v: fn}
}

// EventHandler pairs an event attribute name with its handler.
type EventHandler struct {
	Event   string // "onclick", "oninput", etc.
	Handler any
}

// On creates an EventHandler for the named event.
// The name is prefixed with "on" (e.g., "click" becomes "onclick").
func On(name string, handler any) EventHandler {
	return EventHandler{Event: "on" + name, Handler: handler}
}

// IsEventName reports whether an attribute name names an event ("onclick").
func IsEventName(name string) bool {
	return len(name) > 2 && strings.HasPrefix(name, "on")
}

// ValueOf classifies v: AttrValue is returned as is, EventHandler and non-nil
// function values become callbacks, everything else is a plain value.
func ValueOf(v any) AttrValue {
	switch x := v.(type) {
	case AttrValue:
		return x
	case EventHandler:
		return Callback(x.Handler)
	case nil:
		return AttrValue{}
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Func && !rv.IsNil() {
		return AttrValue{callback: true, v: v}
	}
	return AttrValue{v: v}
}

// IsCallback reports whether the value is an event callback.
func (a AttrValue) IsCallback() bool { return a.callback }

// IsNil reports whether the value is a nil plain value.
func (a AttrValue) IsNil() bool { return !a.callback && a.v == nil }

// Plain returns the plain value. It panics if the value is a callback.
func (a AttrValue) Plain() any {
	if a.callback {
		panic("frame: AttrValue.Plain called on callback value")
	}
	return a.v
}

// Handler returns the callback. It panics if the value is plain.
func (a AttrValue) Handler() any {
	if !a.callback {
		panic("frame: AttrValue.Handler called on plain value")
	}
	return a.v
}

// Interface returns the underlying value regardless of its case.
func (a AttrValue) Interface() any { return a.v }

// String returns a debug representation of the value.
func (a AttrValue) String() string {
	if a.callback {
		return fmt.Sprintf("callback(%T)", a.v)
	}
	if s, ok := a.v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%v", a.v)
}
